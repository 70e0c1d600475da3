package correction

import (
	mathbits "math/bits"

	"github.com/dbehnke/lmrdecode/internal/bits"
)

// Golay (23,12,7) generator polynomial: x^11 + x^10 + x^6 + x^5 + x^4 + x^2 + 1
const golayGenerator = 0xC75

// golayErrors maps every 11-bit syndrome to its minimum weight error pattern.
// The (23,12) code is perfect so all 2048 syndromes are covered by patterns
// of weight three or less.
var golayErrors [2048]uint32

func init() {
	for i := range golayErrors {
		golayErrors[i] = 0xFFFFFFFF
	}
	golayErrors[0] = 0
	for a := 0; a < 23; a++ {
		e := uint32(1) << a
		golayErrors[golayRemainder(e)] = e
		for b := a + 1; b < 23; b++ {
			e2 := e | 1<<b
			golayErrors[golayRemainder(e2)] = e2
			for c := b + 1; c < 23; c++ {
				e3 := e2 | 1<<c
				golayErrors[golayRemainder(e3)] = e3
			}
		}
	}
}

func golayRemainder(v uint32) uint32 {
	for i := 22; i >= 11; i-- {
		if v&(1<<i) != 0 {
			v ^= golayGenerator << (i - 11)
		}
	}
	return v
}

// Golay23Encode returns the 23-bit code word for 12 data bits: data in the
// upper 12 bits followed by 11 parity bits.
func Golay23Encode(data int) int {
	d := uint32(data&0xFFF) << 11
	return int(d | golayRemainder(d))
}

// Golay23Correct corrects up to three errors in a 23-bit code word value and
// returns the corrected word and the number of bits flipped.
func Golay23Correct(word int) (int, int) {
	e := golayErrors[golayRemainder(uint32(word)&0x7FFFFF)]
	return word ^ int(e), mathbits.OnesCount32(e)
}

// Golay23 corrects a 23-bit word stored MSB first at start: 12 data bits then
// 11 parity bits. It returns the number of corrected bits.
func Golay23(buf *bits.Buffer, start int) int {
	word := buf.GetIntRange(start, start+22)
	corrected, n := Golay23Correct(word)
	if n > 0 {
		buf.Load(start, 23, uint64(corrected))
		buf.IncrementCorrectedBitCount(n)
	}
	return n
}

// Golay23EncodeAt writes the parity for the 12 data bits at start.
func Golay23EncodeAt(buf *bits.Buffer, start int) {
	buf.Load(start, 23, uint64(Golay23Encode(buf.GetIntRange(start, start+11))))
}

// Golay24Encode extends the (23,12) code word with an even parity bit.
func Golay24Encode(data int) int {
	w := Golay23Encode(data)
	return w<<1 | mathbits.OnesCount32(uint32(w))&1
}

// Golay24Correct corrects a 24-bit extended code word. Three errors are
// corrected; four are detected and reported as -1.
func Golay24Correct(word int) (int, int) {
	corrected, n := Golay23Correct(word >> 1)
	parity := word & 1
	if mathbits.OnesCount32(uint32(corrected))&1 != parity {
		if n == 3 {
			return word, -1
		}
		parity ^= 1
		n++
	}
	return corrected<<1 | parity, n
}

// Golay24 corrects a 24-bit extended word stored at start and returns the
// number of corrected bits, or -1 when the word is uncorrectable. An
// uncorrectable word is left unchanged.
func Golay24(buf *bits.Buffer, start int) int {
	word := buf.GetIntRange(start, start+23)
	corrected, n := Golay24Correct(word)
	if n > 0 {
		buf.Load(start, 24, uint64(corrected))
		buf.IncrementCorrectedBitCount(n)
	}
	return n
}

// Golay18Encode returns the shortened (18,6,8) code word for 6 data bits.
func Golay18Encode(data int) int {
	return Golay24Encode(data&0x3F) & 0x3FFFF
}

// Golay18 corrects a shortened (18,6,8) word at start. The six implied
// leading zero data bits must stay zero after correction.
func Golay18(buf *bits.Buffer, start int) int {
	word := buf.GetIntRange(start, start+17)
	corrected, n := Golay24Correct(word)
	if n < 0 || corrected>>18 != 0 {
		return -1
	}
	if n > 0 {
		buf.Load(start, 18, uint64(corrected))
		buf.IncrementCorrectedBitCount(n)
	}
	return n
}
