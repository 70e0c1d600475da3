package codec

import (
	"github.com/dbehnke/lmrdecode/internal/bits"
)

// Interleaver is a block interleaver. Coded bits are written into the matrix
// row by row and transmitted column by column.
type Interleaver struct {
	Rows, Cols int
}

// NXDN block interleavers.
var (
	InterleaverFACCH1      = Interleaver{Rows: 16, Cols: 9}
	InterleaverFACCH2      = Interleaver{Rows: 12, Cols: 29}
	InterleaverOutboundCAC = Interleaver{Rows: 12, Cols: 25}
	InterleaverInboundCAC  = Interleaver{Rows: 12, Cols: 21}
	InterleaverSACCH       = Interleaver{Rows: 12, Cols: 5}
)

func (il Interleaver) Size() int {
	return il.Rows * il.Cols
}

func (il Interleaver) transmitted(i int) int {
	return (i%il.Cols)*il.Rows + i/il.Cols
}

// Deinterleave reads Size bits of buf starting at offset and returns them in
// coded order.
func (il Interleaver) Deinterleave(buf *bits.Buffer, offset int) *bits.Buffer {
	out := bits.New(il.Size())
	for i := 0; i < il.Size(); i++ {
		out.SetBit(i, buf.Get(offset+il.transmitted(i)))
	}
	out.SetCorrectedBitCount(buf.CorrectedBitCount())
	return out
}

// Interleave writes the coded bits into dst at offset in transmission order.
func (il Interleaver) Interleave(coded, dst *bits.Buffer, offset int) {
	for i := 0; i < il.Size(); i++ {
		dst.SetBit(offset+il.transmitted(i), coded.Get(i))
	}
}

// P25 data blocks are 49 four bit constellation points. Point s of the
// trellis coded block is transmitted at position p25DataOrder[s].
const (
	P25DataBlockBits = 196
	p25DataPoints    = 49
)

var p25DataOrder [p25DataPoints]int

func init() {
	s := 0
	for column := 0; column < 4; column++ {
		for p := column; p < p25DataPoints; p += 4 {
			p25DataOrder[s] = p
			s++
		}
	}
}

// P25DataDeinterleave returns the 196 bit TSBK/PDU block at start in trellis
// order.
func P25DataDeinterleave(buf *bits.Buffer, start int) *bits.Buffer {
	out := bits.New(P25DataBlockBits)
	for s, p := range p25DataOrder {
		for k := 0; k < 4; k++ {
			out.SetBit(s*4+k, buf.Get(start+p*4+k))
		}
	}
	out.SetCorrectedBitCount(buf.CorrectedBitCount())
	return out
}

// P25DataInterleave is the inverse of P25DataDeinterleave.
func P25DataInterleave(block *bits.Buffer) *bits.Buffer {
	out := bits.New(P25DataBlockBits)
	for s, p := range p25DataOrder {
		for k := 0; k < 4; k++ {
			out.SetBit(p*4+k, block.Get(s*4+k))
		}
	}
	return out
}
