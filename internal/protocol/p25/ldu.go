package p25

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/correction"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// Logical link data unit geometry, NID included and status symbols removed.
const (
	LDUBits        = 1632
	VoiceFrames    = 9
	lduHexWords    = 24
	lduHexWordBits = 10
	lduLSDStart    = 1456
)

var (
	voiceFrameStarts = [VoiceFrames]int{64, 208, 392, 576, 760, 944, 1128, 1312, 1488}
	lduSegmentStarts = [lduHexWords / 4]int{352, 536, 720, 904, 1088, 1272}

	lsdData = [2]bits.Field{
		bits.Range("LSD_1", lduLSDStart, lduLSDStart+7),
		bits.Range("LSD_2", lduLSDStart+16, lduLSDStart+23),
	}

	esMI        = bits.Range("MI", 0, 71)
	esAlgorithm = bits.Range("ALGID", 72, 79)
	esKeyID     = bits.Range("KID", 80, 95)
)

// hexWordStart is the position in an LDU of the i-th Hamming(10,6) word.
func hexWordStart(i int) int {
	return lduSegmentStarts[i/4] + (i%4)*lduHexWordBits
}

// ldu holds what LDU1 and LDU2 share: voice, low speed data and the hex
// word block.
type ldu struct {
	protocol.Base
	nac    int
	frames [][]byte
	lsd    []byte
	// BadVoiceFrames counts frames with an uncorrectable Hamming word.
	BadVoiceFrames int
}

func (l *ldu) NAC() int { return l.nac }

// VoiceFrames returns the nine 11-byte IMBE frames.
func (l *ldu) VoiceFrames() [][]byte { return l.frames }

// LowSpeedData returns the two low speed data bytes. Their parity is not
// checked.
func (l *ldu) LowSpeedData() []byte { return l.lsd }

func (l *ldu) prefix(name string) string {
	s := fmt.Sprintf("NAC:%03X %s", l.nac, name)
	if !l.Valid() {
		s = "[RS-ERROR] " + s
	}
	return s
}

// LDU1 is the first voice data unit of a superframe, carrying link control.
type LDU1 struct {
	ldu
	lc LinkControl
}

func (m *LDU1) Opcode() string           { return DataUnitLDU1.String() }
func (m *LDU1) Vendor() string           { return m.lc.Vendor().String() }
func (m *LDU1) LinkControl() LinkControl { return m.lc }

func (m *LDU1) Identifiers() []protocol.Identifier {
	return append([]protocol.Identifier{protocol.NewNAC(m.nac)}, m.lc.Identifiers()...)
}

func (m *LDU1) String() string {
	return fmt.Sprintf("%s %s", m.prefix("LDU1"), m.lc)
}

// LDU2 is the second voice data unit of a superframe, carrying encryption
// sync.
type LDU2 struct {
	ldu
	es EncryptionSync
}

func (m *LDU2) Opcode() string                 { return DataUnitLDU2.String() }
func (m *LDU2) Vendor() string                 { return VendorStandard.String() }
func (m *LDU2) EncryptionSync() EncryptionSync { return m.es }

func (m *LDU2) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{protocol.NewNAC(m.nac)}
}

func (m *LDU2) String() string {
	return fmt.Sprintf("%s %s", m.prefix("LDU2"), m.es)
}

// LDUDecoder corrects logical link data units. It is stateless and safe
// for concurrent use.
type LDUDecoder struct {
	logger *log.Logger
}

func NewLDUDecoder(logger *log.Logger) *LDUDecoder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &LDUDecoder{logger: logger}
}

// Decode dispatches on the data unit ID in the NID and returns an *LDU1 or
// *LDU2, or nil when buf is neither.
func (d *LDUDecoder) Decode(buf *bits.Buffer, timestamp time.Time) protocol.Message {
	switch ParseNID(buf).DUID {
	case DataUnitLDU1:
		return d.DecodeLDU1(buf, timestamp)
	case DataUnitLDU2:
		return d.DecodeLDU2(buf, timestamp)
	}
	return nil
}

func (d *LDUDecoder) DecodeLDU1(buf *bits.Buffer, timestamp time.Time) *LDU1 {
	l, words := d.decode(buf, ldu1HexCode, timestamp)
	return &LDU1{ldu: l, lc: LinkControl{packHex(words[:ldu1HexCode.k])}}
}

func (d *LDUDecoder) DecodeLDU2(buf *bits.Buffer, timestamp time.Time) *LDU2 {
	l, words := d.decode(buf, ldu2HexCode, timestamp)
	es := packHex(words[:ldu2HexCode.k])
	return &LDU2{ldu: l, es: EncryptionSync{
		MI:        es.GetSubMessage(esMI.Start(), esMI.Start()+esMI.Width()).ToBytes(),
		Algorithm: es.Int(esAlgorithm),
		KeyID:     es.Int(esKeyID),
	}}
}

// decode corrects a copy of buf: each voice frame, then the Hamming(10,6)
// hex words, then the Reed-Solomon block. It returns the corrected hex
// words.
func (d *LDUDecoder) decode(buf *bits.Buffer, code hexCode, timestamp time.Time) (ldu, []int) {
	malformed := buf.Size() != LDUBits
	if malformed {
		d.logger.Warn("unexpected LDU length", "bits", buf.Size())
		padded := bits.New(LDUBits)
		padded.Copy(0, buf.GetSubMessage(0, min(buf.Size(), LDUBits)))
		buf = padded
	}
	coded := buf.Clone()
	l := ldu{Base: protocol.NewBase(protocol.ProtocolP25, coded, timestamp), nac: ParseNID(coded).NAC}

	for _, start := range voiceFrameStarts {
		if _, ok := correctVoiceFrame(coded, start); !ok {
			l.BadVoiceFrames++
		}
		l.frames = append(l.frames, voiceFrameData(coded, start))
	}
	for _, f := range lsdData {
		l.lsd = append(l.lsd, byte(coded.Int(f)))
	}

	words := make([]int, lduHexWords)
	for i := range words {
		start := hexWordStart(i)
		correction.Hamming1063.CheckAndCorrect(coded, start)
		words[i] = coded.GetIntRange(start, start+5)
	}

	fixed := code.decode(words)
	if malformed {
		l.SetValid(false)
		return l, words
	}
	if fixed < 0 {
		l.SetResidual(1)
		d.logger.Debug("LDU hex words uncorrectable", "nac", fmt.Sprintf("%03X", l.nac))
		return l, words
	}
	coded.IncrementCorrectedBitCount(fixed)
	for i, w := range words {
		coded.Load(hexWordStart(i), 6, uint64(w))
	}
	return l, words
}

// EncodeLDU1 builds a 1632-bit LDU1 carrying a 72-bit link control word.
// frames holds nine 11-byte IMBE frames.
func EncodeLDU1(nac int, lc *bits.Buffer, frames [][]byte, lsd [2]byte) *bits.Buffer {
	return encodeLDU(DataUnitLDU1, nac, ldu1HexCode.encode(unpackHex(lc)), frames, lsd)
}

// EncodeLDU2 builds a 1632-bit LDU2 carrying es.
func EncodeLDU2(nac int, es EncryptionSync, frames [][]byte, lsd [2]byte) *bits.Buffer {
	mi := make([]byte, esMI.Width()/8)
	copy(mi, es.MI)
	buf := bits.New(esKeyID.Start() + esKeyID.Width())
	buf.Copy(esMI.Start(), bits.FromBytes(mi))
	buf.Load(esAlgorithm.Start(), esAlgorithm.Width(), uint64(es.Algorithm))
	buf.Load(esKeyID.Start(), esKeyID.Width(), uint64(es.KeyID))
	return encodeLDU(DataUnitLDU2, nac, ldu2HexCode.encode(unpackHex(buf)), frames, lsd)
}

func encodeLDU(duid DataUnitID, nac int, words []int, frames [][]byte, lsd [2]byte) *bits.Buffer {
	if len(frames) != VoiceFrames {
		panic(fmt.Sprintf("p25: %d voice frames in an LDU", len(frames)))
	}
	buf := bits.New(LDUBits)
	EncodeNID(buf, NID{NAC: nac, DUID: duid})
	for i, start := range voiceFrameStarts {
		buf.Copy(start, EncodeVoiceFrame(frames[i]))
	}
	for i, w := range words {
		start := hexWordStart(i)
		buf.Load(start, 6, uint64(w))
		correction.Hamming1063.Encode(buf, start)
	}
	for i, f := range lsdData {
		buf.Load(f.Start(), f.Width(), uint64(lsd[i]))
	}
	return buf
}
