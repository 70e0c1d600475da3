package correction

import (
	"github.com/dbehnke/lmrdecode/internal/bits"
)

// BPTC(196,96) layout: a 13 x 15 matrix preceded by one reserved bit. Rows
// 0-8 carry data protected by Hamming(15,11,3), rows 9-12 hold the
// Hamming(13,9,3) column parity. The first three data positions of row 0 are
// reserved, leaving 96 payload bits.
const (
	bptc196Bits    = 196
	bptc196Payload = 96
	bptc196Rows    = 13
	bptc196Cols    = 15
	bptc196DataRow = 9
	bptcMaxIter    = 5
)

// bptc196DataRanges lists the matrix positions holding payload bits.
var bptc196DataRanges = [][2]int{
	{4, 11}, {16, 26}, {31, 41}, {46, 56}, {61, 71},
	{76, 86}, {91, 101}, {106, 116}, {121, 131},
}

// BPTC19696Decode deinterleaves the 196 bits at start of buf, runs iterative
// row and column Hamming correction and returns the 96 payload bits. The
// input buffer is never modified. When the matrix cannot be fully corrected
// ok is false and the payload holds the uncorrected bits.
func BPTC19696Decode(buf *bits.Buffer, start int) (payload *bits.Buffer, ok bool) {
	matrix := bits.New(bptc196Bits)
	for a := 0; a < bptc196Bits; a++ {
		if buf.Get(start + (a*181)%bptc196Bits) {
			matrix.Set(a)
		}
	}
	raw := matrix.Clone()

	column := bits.New(bptc196Rows)
	corrected := 0
	for iter := 0; iter < bptcMaxIter; iter++ {
		fixing := false
		for c := 0; c < bptc196Cols; c++ {
			for r := 0; r < bptc196Rows; r++ {
				column.SetBit(r, matrix.Get(1+c+r*bptc196Cols))
			}
			if Hamming1393.CheckAndCorrect(column, 0) == 1 {
				for r := 0; r < bptc196Rows; r++ {
					matrix.SetBit(1+c+r*bptc196Cols, column.Get(r))
				}
				corrected++
				fixing = true
			}
		}
		for r := 0; r < bptc196DataRow; r++ {
			if Hamming15113.CheckAndCorrect(matrix, 1+r*bptc196Cols) == 1 {
				corrected++
				fixing = true
			}
		}
		if !fixing {
			break
		}
	}

	ok = bptc196Clean(matrix, column)
	source := matrix
	if !ok {
		source = raw
		corrected = 0
	}

	payload = bits.New(bptc196Payload)
	pos := 0
	for _, rng := range bptc196DataRanges {
		for i := rng[0]; i <= rng[1]; i++ {
			payload.SetBit(pos, source.Get(i))
			pos++
		}
	}
	payload.SetCorrectedBitCount(buf.CorrectedBitCount() + corrected)
	return payload, ok
}

func bptc196Clean(matrix, column *bits.Buffer) bool {
	for r := 0; r < bptc196DataRow; r++ {
		if !Hamming15113.Check(matrix, 1+r*bptc196Cols) {
			return false
		}
	}
	for c := 0; c < bptc196Cols; c++ {
		for r := 0; r < bptc196Rows; r++ {
			column.SetBit(r, matrix.Get(1+c+r*bptc196Cols))
		}
		if !Hamming1393.Check(column, 0) {
			return false
		}
	}
	return true
}

// BPTC19696Encode builds the interleaved 196-bit block for a 96-bit payload.
func BPTC19696Encode(payload *bits.Buffer) *bits.Buffer {
	matrix := bits.New(bptc196Bits)
	pos := 0
	for _, rng := range bptc196DataRanges {
		for i := rng[0]; i <= rng[1]; i++ {
			matrix.SetBit(i, payload.Get(pos))
			pos++
		}
	}
	for r := 0; r < bptc196DataRow; r++ {
		Hamming15113.Encode(matrix, 1+r*bptc196Cols)
	}
	column := bits.New(bptc196Rows)
	for c := 0; c < bptc196Cols; c++ {
		for r := 0; r < bptc196Rows; r++ {
			column.SetBit(r, matrix.Get(1+c+r*bptc196Cols))
		}
		Hamming1393.Encode(column, 0)
		for r := bptc196DataRow; r < bptc196Rows; r++ {
			matrix.SetBit(1+c+r*bptc196Cols, column.Get(r))
		}
	}

	out := bits.New(bptc196Bits)
	for a := 0; a < bptc196Bits; a++ {
		out.SetBit((a*181)%bptc196Bits, matrix.Get(a))
	}
	return out
}

// BPTC(128,77) used by DMR embedded signalling: an 8 x 16 matrix whose first
// seven rows are Hamming(16,11,4) words and whose last row is even column
// parity. The matrix is transmitted column-wise.
const (
	bptc128Bits = 128
	bptc128Rows = 8
	bptc128Cols = 16
)

func bptc128Position(a int) int {
	if a == bptc128Bits-1 {
		return a
	}
	return (a * 16) % 127
}

// BPTC12877Decode deinterleaves 128 embedded bits at start of buf and returns
// 77 bits: the 72 link control bits followed by the 5 checksum bits.
func BPTC12877Decode(buf *bits.Buffer, start int) (*bits.Buffer, bool) {
	matrix := bits.New(bptc128Bits)
	for a := 0; a < bptc128Bits; a++ {
		matrix.SetBit(bptc128Position(a), buf.Get(start+a))
	}

	ok := true
	corrected := 0
	for r := 0; r < bptc128Rows-1; r++ {
		if n := Hamming16114.CheckAndCorrect(matrix, r*bptc128Cols); n < 0 {
			ok = false
		} else {
			corrected += n
		}
	}
	for c := 0; c < bptc128Cols && ok; c++ {
		parity := false
		for r := 0; r < bptc128Rows; r++ {
			parity = parity != matrix.Get(r*bptc128Cols+c)
		}
		if parity {
			ok = false
		}
	}

	out := bits.New(77)
	pos := 0
	for r := 0; r < 7; r++ {
		width := 10
		if r < 2 {
			width = 11
		}
		for c := 0; c < width; c++ {
			out.SetBit(pos, matrix.Get(r*bptc128Cols+c))
			pos++
		}
	}
	for r := 2; r < 7; r++ {
		out.SetBit(pos, matrix.Get(r*bptc128Cols+10))
		pos++
	}
	out.SetCorrectedBitCount(buf.CorrectedBitCount() + corrected)
	return out, ok
}

// BPTC12877Encode builds the 128 interleaved bits for 72 link control bits
// followed by the 5 checksum bits.
func BPTC12877Encode(lc *bits.Buffer) *bits.Buffer {
	matrix := bits.New(bptc128Bits)
	pos := 0
	for r := 0; r < 7; r++ {
		width := 10
		if r < 2 {
			width = 11
		}
		for c := 0; c < width; c++ {
			matrix.SetBit(r*bptc128Cols+c, lc.Get(pos))
			pos++
		}
	}
	for r := 2; r < 7; r++ {
		matrix.SetBit(r*bptc128Cols+10, lc.Get(pos))
		pos++
	}
	for r := 0; r < 7; r++ {
		Hamming16114.Encode(matrix, r*bptc128Cols)
	}
	for c := 0; c < bptc128Cols; c++ {
		parity := false
		for r := 0; r < 7; r++ {
			parity = parity != matrix.Get(r*bptc128Cols+c)
		}
		matrix.SetBit(7*bptc128Cols+c, parity)
	}

	out := bits.New(bptc128Bits)
	for a := 0; a < bptc128Bits; a++ {
		out.SetBit(a, matrix.Get(bptc128Position(a)))
	}
	return out
}
