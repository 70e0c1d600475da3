package p25

import (
	mathbits "math/bits"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/correction"
)

// hexCode is a shortened Reed-Solomon code over 6-bit hex words. Words are
// listed in transmission order; the first word is the highest order
// coefficient.
type hexCode struct {
	rs   *correction.ReedSolomon
	n, k int
}

var (
	hduHexCode  = hexCode{correction.RS634717, 36, 20}
	ldu1HexCode = hexCode{correction.RS635113, 24, 12}
	ldu2HexCode = hexCode{correction.RS63559, 24, 16}
)

// decode corrects words in place and reports the number of repaired bits,
// or -1 when the block is beyond repair.
func (c hexCode) decode(words []int) int {
	input := make([]int, 63)
	for i, w := range words[:c.n] {
		input[c.n-1-i] = w
	}
	output := make([]int, 63)
	if c.rs.Decode(input, output) {
		return -1
	}
	for i := c.n; i < 63; i++ {
		if output[i] != 0 {
			return -1
		}
	}

	fixed := 0
	for i := range words[:c.n] {
		if w := output[c.n-1-i]; w != words[i] {
			fixed += mathbits.OnesCount(uint(w ^ words[i]))
			words[i] = w
		}
	}
	return fixed
}

// encode returns the n word block for k data words.
func (c hexCode) encode(data []int) []int {
	coeffs := make([]int, c.k)
	for i, w := range data[:c.k] {
		coeffs[c.k-1-i] = w
	}
	cw := c.rs.Encode(coeffs)
	words := make([]int, c.n)
	for i := range words {
		words[i] = cw[c.n-1-i]
	}
	return words
}

// packHex concatenates 6-bit words into a buffer.
func packHex(words []int) *bits.Buffer {
	buf := bits.New(len(words) * 6)
	for i, w := range words {
		buf.Load(i*6, 6, uint64(w))
	}
	return buf
}

// unpackHex splits a buffer into 6-bit words.
func unpackHex(buf *bits.Buffer) []int {
	words := make([]int, buf.Size()/6)
	for i := range words {
		words[i] = buf.GetIntRange(i*6, i*6+5)
	}
	return words
}
