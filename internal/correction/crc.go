package correction

import (
	mathbits "math/bits"

	"github.com/dbehnke/lmrdecode/internal/bits"
)

// Checksum runs a linear feedback shift register over the first length bits
// of msg with an all-ones initial fill. registerMask bounds the register
// width, feedbackMask selects the top order register bit and taps holds the
// generator polynomial without its leading term.
func Checksum(msg *bits.Buffer, length, registerMask, feedbackMask, taps int) int {
	return register(msg, 0, length, registerMask, feedbackMask, taps, registerMask)
}

// CheckCRC computes the checksum over the first length bits and compares it
// with the transmitted value that immediately follows the message bits.
func CheckCRC(msg *bits.Buffer, length, registerMask, feedbackMask, taps int) bool {
	width := mathbits.OnesCount(uint(registerMask))
	transmitted := msg.GetIntRange(length, length+width-1)
	return Checksum(msg, length, registerMask, feedbackMask, taps) == transmitted
}

func register(msg *bits.Buffer, start, length, registerMask, feedbackMask, taps, fill int) int {
	crc := fill
	for i := start; i < start+length; i++ {
		feedback := msg.Get(i) != (crc&feedbackMask != 0)
		crc <<= 1
		if feedback {
			crc ^= taps
		}
	}
	return crc & registerMask
}

// Variant describes a named CRC used by one of the air interfaces.
type Variant struct {
	Name   string
	Width  int
	Poly   int
	Init   int
	XorOut int
}

// CRC variants. The NXDN checks use the all-ones fill of Checksum; the P25
// and DMR CCITT checks start from zero and invert the result.
var (
	CRC6NXDN   = Variant{Name: "CRC-6 NXDN", Width: 6, Poly: 0x27, Init: 0x3F}
	CRC8       = Variant{Name: "CRC-8", Width: 8, Poly: 0x07}
	CRC12NXDN  = Variant{Name: "CRC-12 NXDN", Width: 12, Poly: 0x80F, Init: 0xFFF}
	CRC15NXDN  = Variant{Name: "CRC-15 NXDN", Width: 15, Poly: 0x4CC5, Init: 0x7FFF}
	CRC16NXDN  = Variant{Name: "CRC-16 NXDN", Width: 16, Poly: 0x1021, Init: 0xFFFF}
	CRCCCITT16 = Variant{Name: "CRC-CCITT", Width: 16, Poly: 0x1021, XorOut: 0xFFFF}
	CRC32P25   = Variant{Name: "CRC-32", Width: 32, Poly: 0x04C11DB7, XorOut: 0xFFFFFFFF}
)

func (v Variant) mask() int {
	return 1<<v.Width - 1
}

// Compute returns the CRC over length bits of buf starting at start.
func (v Variant) Compute(buf *bits.Buffer, start, length int) int {
	return register(buf, start, length, v.mask(), 1<<(v.Width-1), v.Poly, v.Init) ^ v.XorOut
}

// Residual returns the XOR of the computed CRC and the transmitted value at
// crcStart. Zero means the message passed.
func (v Variant) Residual(buf *bits.Buffer, start, length, crcStart int) int {
	transmitted := int(buf.GetLong(bits.Range("CRC", crcStart, crcStart+v.Width-1).Indices))
	return v.Compute(buf, start, length) ^ transmitted
}

// Check reports whether the transmitted CRC at crcStart matches.
func (v Variant) Check(buf *bits.Buffer, start, length, crcStart int) bool {
	return v.Residual(buf, start, length, crcStart) == 0
}

// Write stores the CRC for length bits at start into crcStart.
func (v Variant) Write(buf *bits.Buffer, start, length, crcStart int) {
	buf.Load(crcStart, v.Width, uint64(v.Compute(buf, start, length)))
}

// DMRChecksum5 computes the five bit embedded link control checksum: the sum
// of the nine link control bytes modulo 31.
func DMRChecksum5(lc *bits.Buffer, start int) int {
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(lc.GetByte(start + i*8))
	}
	return sum % 31
}
