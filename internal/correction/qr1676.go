package correction

import (
	mathbits "math/bits"

	"github.com/dbehnke/lmrdecode/internal/bits"
)

// qr1676Codewords holds the 16-bit quadratic residue (16,7,6) code word for
// every 7-bit value. Minimum distance six allows two errors to be corrected.
var qr1676Codewords [128]int

func init() {
	for v := range qr1676Codewords {
		b := func(i int) int { return v >> (6 - i) & 1 }
		parity := [9]int{
			b(1) ^ b(2) ^ b(3) ^ b(4),
			b(2) ^ b(3) ^ b(4) ^ b(5),
			b(0) ^ b(3) ^ b(4) ^ b(5) ^ b(6),
			b(2) ^ b(3) ^ b(5) ^ b(6),
			b(1) ^ b(2) ^ b(6),
			b(0) ^ b(1) ^ b(4),
			b(0) ^ b(1) ^ b(2) ^ b(5),
			b(0) ^ b(1) ^ b(2) ^ b(3) ^ b(6),
			b(0) ^ b(2) ^ b(4) ^ b(5) ^ b(6),
		}
		w := v
		for _, p := range parity {
			w = w<<1 | p
		}
		qr1676Codewords[v] = w
	}
}

// QR1676Encode returns the 16-bit code word for 7 data bits.
func QR1676Encode(data int) int {
	return qr1676Codewords[data&0x7F]
}

// QR1676Correct returns the nearest code word and the number of bits that
// differ, or -1 when no code word lies within two bits.
func QR1676Correct(word int) (int, int) {
	word &= 0xFFFF
	for _, cw := range qr1676Codewords {
		if d := mathbits.OnesCount32(uint32(cw ^ word)); d <= 2 {
			return cw, d
		}
	}
	return word, -1
}

// QR1676 corrects the 16-bit DMR EMB word at start in place and returns the
// number of corrected bits or -1.
func QR1676(buf *bits.Buffer, start int) int {
	word := buf.GetIntRange(start, start+15)
	corrected, n := QR1676Correct(word)
	if n > 0 {
		buf.Load(start, 16, uint64(corrected))
		buf.IncrementCorrectedBitCount(n)
	}
	return n
}
