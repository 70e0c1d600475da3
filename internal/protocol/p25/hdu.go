package p25

import (
	"fmt"
	"time"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/correction"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// HDUBits is the length of a header data unit: the NID and 36 Golay(18,6)
// protected hex words.
const (
	HDUBits       = NIDBits + hduWords*hduGolayBits
	hduWords      = 36
	hduGolayBits  = 18
	hduHeaderBits = 120
)

var (
	hduMI        = bits.Range("MI", 0, 71)
	hduMFID      = bits.Range("MFID", 72, 79)
	hduAlgorithm = bits.Range("ALGID", 80, 87)
	hduKeyID     = bits.Range("KID", 88, 103)
	hduTalkgroup = bits.Range("TGID", 104, 119)
)

// HDU is the header data unit that opens a voice call.
type HDU struct {
	protocol.Base
	nac    int
	header *bits.Buffer
}

func (m *HDU) NAC() int       { return m.nac }
func (m *HDU) Opcode() string { return DataUnitHDU.String() }
func (m *HDU) MFID() int      { return m.header.Int(hduMFID) }
func (m *HDU) Talkgroup() int { return m.header.Int(hduTalkgroup) }

func (m *HDU) Vendor() string { return mfidLabel(m.MFID()) }

func (m *HDU) EncryptionSync() EncryptionSync {
	return EncryptionSync{
		MI:        m.header.GetSubMessage(hduMI.Start(), hduMI.Start()+hduMI.Width()).ToBytes(),
		Algorithm: m.header.Int(hduAlgorithm),
		KeyID:     m.header.Int(hduKeyID),
	}
}

func (m *HDU) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{
		protocol.NewNAC(m.nac),
		protocol.NewTalkgroupID(protocol.ProtocolP25, protocol.RoleTo, m.Talkgroup()),
	}
}

func (m *HDU) String() string {
	s := fmt.Sprintf("NAC:%03X HDU TO:%d %s", m.nac, m.Talkgroup(), m.EncryptionSync())
	if !m.Valid() {
		s = "[RS-ERROR] " + s
	}
	return s
}

// DecodeHDU corrects a header data unit: each Golay(18,6) word, then the
// RS(36,20) block.
func DecodeHDU(buf *bits.Buffer, timestamp time.Time) *HDU {
	coded := bits.New(HDUBits)
	coded.Copy(0, buf.GetSubMessage(0, min(buf.Size(), HDUBits)))
	m := &HDU{Base: protocol.NewBase(protocol.ProtocolP25, coded, timestamp), nac: ParseNID(coded).NAC}

	words := make([]int, hduWords)
	for i := range words {
		start := NIDBits + i*hduGolayBits
		correction.Golay18(coded, start)
		words[i] = coded.GetIntRange(start, start+5)
	}

	fixed := hduHexCode.decode(words)
	m.header = packHex(words[:hduHexCode.k])
	switch {
	case buf.Size() != HDUBits:
		m.SetValid(false)
	case fixed < 0:
		m.SetResidual(1)
	default:
		coded.IncrementCorrectedBitCount(fixed)
	}
	return m
}

// HeaderFields are the values carried by a header data unit.
type HeaderFields struct {
	NAC       int
	MFID      int
	Talkgroup int
	EncryptionSync
}

// EncodeHDU builds a 712-bit header data unit.
func EncodeHDU(h HeaderFields) *bits.Buffer {
	mi := make([]byte, hduMI.Width()/8)
	copy(mi, h.MI)
	header := bits.New(hduHeaderBits)
	header.Copy(hduMI.Start(), bits.FromBytes(mi))
	for _, v := range []struct {
		f     bits.Field
		value int
	}{
		{hduMFID, h.MFID},
		{hduAlgorithm, h.Algorithm},
		{hduKeyID, h.KeyID},
		{hduTalkgroup, h.Talkgroup},
	} {
		header.Load(v.f.Start(), v.f.Width(), uint64(v.value))
	}

	buf := bits.New(HDUBits)
	EncodeNID(buf, NID{NAC: h.NAC, DUID: DataUnitHDU})
	for i, w := range hduHexCode.encode(unpackHex(header)) {
		buf.Load(NIDBits+i*hduGolayBits, hduGolayBits, uint64(correction.Golay18Encode(w)))
	}
	return buf
}
