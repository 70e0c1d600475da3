package dmr

import (
	"fmt"
	mathbits "math/bits"
	"strings"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/correction"
)

// DMR burst layout. A burst is 288 bits: 24 CACH bits followed by two 108-bit
// payload halves around the 48-bit sync or embedded signalling field.
const (
	BurstBits = 288
	CACHBits  = 24

	syncStart = 132
	syncBits  = 48

	// Data bursts: BPTC(196,96) halves around the slot type.
	dataFirstStart  = 24
	dataFirstEnd    = 122
	dataSecondStart = 190
	dataSecondEnd   = 288

	slotTypeFirstStart = 122

	// Voice bursts: EMB halves around the embedded signalling fragment.
	embFirstStart   = 132
	embSecondStart  = 172
	embeddedStart   = 140
	EmbeddedBits    = 32
	ColorCodeMax    = 15
	maxSyncDistance = 4
)

// FLCO (full link control opcode) values.
const (
	FLCOGroup             = 0x00
	FLCOUnitToUnit        = 0x03
	FLCOTalkerAliasHeader = 0x04
	FLCOTalkerAliasBlock1 = 0x05
	FLCOTalkerAliasBlock2 = 0x06
	FLCOTalkerAliasBlock3 = 0x07
	FLCOGPSInfo           = 0x08
	FLCOTerminatorData    = 0x30
)

// DataType is the slot type data type of a data burst.
type DataType int

const (
	DataTypePIHeader DataType = iota
	DataTypeVoiceHeader
	DataTypeTerminator
	DataTypeCSBK
	DataTypeMBCHeader
	DataTypeMBCContinuation
	DataTypeDataHeader
	DataTypeRate12Data
	DataTypeRate34Data
	DataTypeIdle
	DataTypeRate1Data
	DataTypeUnifiedSingleBlock
	DataTypeUnknown DataType = 15
)

var dataTypeNames = map[DataType]string{
	DataTypePIHeader:           "PI_HEADER",
	DataTypeVoiceHeader:        "VOICE_HEADER",
	DataTypeTerminator:         "TERMINATOR",
	DataTypeCSBK:               "CSBK",
	DataTypeMBCHeader:          "MBC_HEADER",
	DataTypeMBCContinuation:    "MBC",
	DataTypeDataHeader:         "DATA_HEADER",
	DataTypeRate12Data:         "RATE_1_2_DATA",
	DataTypeRate34Data:         "RATE_3_4_DATA",
	DataTypeIdle:               "IDLE",
	DataTypeRate1Data:          "RATE_1_DATA",
	DataTypeUnifiedSingleBlock: "USB_DATA",
	DataTypeUnknown:            "UNKNOWN",
}

func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(d))
}

// ParseDataType maps a burst type label to a slot data type.
func ParseDataType(label string) DataType {
	label = strings.ToUpper(strings.TrimSpace(label))
	for dt, name := range dataTypeNames {
		if name == label {
			return dt
		}
	}
	return DataTypeUnknown
}

// SyncPattern classifies the 48-bit sync field of a burst.
type SyncPattern int

const (
	SyncNone SyncPattern = iota
	SyncBaseStationVoice
	SyncBaseStationData
	SyncMobileVoice
	SyncMobileData
	SyncMobileReverseChannel
	SyncDirectVoiceTS1
	SyncDirectDataTS1
	SyncDirectVoiceTS2
	SyncDirectDataTS2
)

var syncPatterns = []struct {
	pattern SyncPattern
	value   uint64
	name    string
}{
	{SyncBaseStationVoice, 0x755FD7DF75F7, "BS_VOICE"},
	{SyncBaseStationData, 0xDFF57D75DF5D, "BS_DATA"},
	{SyncMobileVoice, 0x7F7D5DD57DFD, "MS_VOICE"},
	{SyncMobileData, 0xD5D7F77FD757, "MS_DATA"},
	{SyncMobileReverseChannel, 0x77D55F7DFD77, "MS_RC"},
	{SyncDirectVoiceTS1, 0x5D577F7757FF, "DIRECT_VOICE_TS1"},
	{SyncDirectDataTS1, 0xF7FDD5DDFD55, "DIRECT_DATA_TS1"},
	{SyncDirectVoiceTS2, 0x7DFFD5F55D5F, "DIRECT_VOICE_TS2"},
	{SyncDirectDataTS2, 0xD7557F5FF7F5, "DIRECT_DATA_TS2"},
}

func (s SyncPattern) String() string {
	for _, p := range syncPatterns {
		if p.pattern == s {
			return p.name
		}
	}
	return "NONE"
}

// IsVoice reports whether the pattern starts a voice superframe.
func (s SyncPattern) IsVoice() bool {
	return s == SyncBaseStationVoice || s == SyncMobileVoice || s == SyncDirectVoiceTS1 || s == SyncDirectVoiceTS2
}

// IsData reports whether the pattern marks a data or control burst.
func (s SyncPattern) IsData() bool {
	return s == SyncBaseStationData || s == SyncMobileData || s == SyncDirectDataTS1 || s == SyncDirectDataTS2
}

// DetectSync classifies the sync field of a 288-bit burst, tolerating a few
// bit errors.
func DetectSync(burst *bits.Buffer) SyncPattern {
	if burst.Size() < BurstBits {
		return SyncNone
	}
	value := burst.GetLong(bits.Range("", syncStart, syncStart+syncBits-1).Indices)

	best, bestDistance := SyncNone, maxSyncDistance+1
	for _, p := range syncPatterns {
		if d := mathbits.OnesCount64(value ^ p.value); d < bestDistance {
			best, bestDistance = p.pattern, d
		}
	}
	return best
}

// SlotType is the color code and data type carried by a data burst.
type SlotType struct {
	ColorCode int
	DataType  DataType
}

func (s SlotType) String() string {
	return fmt.Sprintf("CC:%d %s", s.ColorCode, s.DataType)
}

// ParseSlotType reads the color code and data type from the first half of
// the slot type field of a data burst. The Golay(20,8) parity is not
// checked, so callers prefer a data type supplied by the demodulator.
func ParseSlotType(burst *bits.Buffer) SlotType {
	return SlotType{
		ColorCode: burst.GetIntRange(slotTypeFirstStart, slotTypeFirstStart+3),
		DataType:  DataType(burst.GetIntRange(slotTypeFirstStart+4, slotTypeFirstStart+7)),
	}
}

// SetSlotType writes the color code and data type bits of a data burst.
func SetSlotType(burst *bits.Buffer, slot SlotType) {
	burst.Load(slotTypeFirstStart, 4, uint64(slot.ColorCode))
	burst.Load(slotTypeFirstStart+4, 4, uint64(slot.DataType))
}

// EMB is the embedded signalling header of voice bursts B through F.
type EMB struct {
	ColorCode int
	// PI is set when the privacy indicator is on.
	PI bool
	// LCSS sequences the embedded link control fragments.
	LCSS  LCSS
	Valid bool
}

// LCSS (link control start/stop) values.
type LCSS int

const (
	LCSSSingle LCSS = iota
	LCSSFirst
	LCSSLast
	LCSSContinuation
)

func (l LCSS) String() string {
	return [...]string{"SINGLE", "FIRST", "LAST", "CONTINUATION"}[l&3]
}

// ParseEMB corrects and decodes the EMB field of a voice burst. The 16 bits
// sit either side of the embedded fragment.
func ParseEMB(burst *bits.Buffer) EMB {
	word := bits.New(16)
	word.Load(0, 8, uint64(burst.GetIntRange(embFirstStart, embFirstStart+7)))
	word.Load(8, 8, uint64(burst.GetIntRange(embSecondStart, embSecondStart+7)))

	n := correction.QR1676(word, 0)
	return EMB{
		ColorCode: word.GetIntRange(0, 3),
		PI:        word.Get(4),
		LCSS:      LCSS(word.GetIntRange(5, 6)),
		Valid:     n >= 0,
	}
}

// EncodeEMB writes the EMB code word into a voice burst.
func EncodeEMB(burst *bits.Buffer, emb EMB) {
	data := emb.ColorCode<<3 | int(emb.LCSS)
	if emb.PI {
		data |= 1 << 2
	}
	word := correction.QR1676Encode(data)
	burst.Load(embFirstStart, 8, uint64(word>>8))
	burst.Load(embSecondStart, 8, uint64(word&0xFF))
}

// EmbeddedFragment returns the 32 embedded signalling bits of a voice burst.
func EmbeddedFragment(burst *bits.Buffer) *bits.Buffer {
	return burst.GetSubMessage(embeddedStart, embeddedStart+EmbeddedBits)
}

// ExtractBPTC returns the 196 BPTC bits of a data burst.
func ExtractBPTC(burst *bits.Buffer) *bits.Buffer {
	out := bits.New(196)
	out.Copy(0, burst.GetSubMessage(dataFirstStart, dataFirstEnd))
	out.Copy(dataFirstEnd-dataFirstStart, burst.GetSubMessage(dataSecondStart, dataSecondEnd))
	out.SetCorrectedBitCount(burst.CorrectedBitCount())
	return out
}

// InsertBPTC places 196 BPTC bits into a data burst.
func InsertBPTC(burst, bptc *bits.Buffer) {
	burst.Copy(dataFirstStart, bptc.GetSubMessage(0, dataFirstEnd-dataFirstStart))
	burst.Copy(dataSecondStart, bptc.GetSubMessage(dataFirstEnd-dataFirstStart, 196))
}

// TACT is the CACH access type field protected by Hamming(7,4,3).
type TACT struct {
	// Busy is the AT (access type) bit: the inbound channel is busy.
	Busy     bool
	Timeslot int
	LCSS     LCSS
	Valid    bool
}

var (
	tactPositions    = [7]int{0, 4, 8, 12, 14, 18, 22}
	cachPayloadIndex [17]int
)

func init() {
	next := 0
	for i := 0; i < CACHBits; i++ {
		isTACT := false
		for _, p := range tactPositions {
			if p == i {
				isTACT = true
			}
		}
		if !isTACT {
			cachPayloadIndex[next] = i
			next++
		}
	}
}

// ParseCACH splits the CACH of a burst into its TACT and the 17 short link
// control payload bits.
func ParseCACH(burst *bits.Buffer) (TACT, *bits.Buffer) {
	word := bits.New(7)
	for i, p := range tactPositions {
		word.SetBit(i, burst.Get(p))
	}
	n := correction.Hamming743.CheckAndCorrect(word, 0)

	payload := bits.New(len(cachPayloadIndex))
	for i, p := range cachPayloadIndex {
		payload.SetBit(i, burst.Get(p))
	}
	return TACT{
		Busy:     word.Get(0),
		Timeslot: word.GetIntRange(1, 1) + 1,
		LCSS:     LCSS(word.GetIntRange(2, 3)),
		Valid:    n >= 0,
	}, payload
}

// EncodeCACH writes a TACT and 17 payload bits into the CACH of a burst.
func EncodeCACH(burst *bits.Buffer, tact TACT, payload *bits.Buffer) {
	word := bits.New(7)
	word.SetBit(0, tact.Busy)
	word.SetBit(1, tact.Timeslot == 2)
	word.Load(2, 2, uint64(tact.LCSS))
	correction.Hamming743.Encode(word, 0)
	for i, p := range tactPositions {
		burst.SetBit(p, word.Get(i))
	}
	for i, p := range cachPayloadIndex {
		burst.SetBit(p, payload.Get(i))
	}
}
