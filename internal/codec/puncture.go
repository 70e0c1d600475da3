package codec

import (
	"fmt"

	"github.com/dbehnke/lmrdecode/internal/bits"
)

// PunctureProvider maps coded bit positions to preserved or punctured.
// Positions index the depunctured (full rate) coded stream.
type PunctureProvider interface {
	Name() string
	// BlockSize is the number of full rate coded bits per puncture block.
	BlockSize() int
	Preserved(index int) bool
	Puncture(coded *bits.Buffer) *bits.Buffer
	Depuncture(punctured *bits.Buffer) *bits.Buffer
}

// BlockPuncture removes a fixed set of positions from every block of coded
// bits. Depuncturing reinserts them as zero.
type BlockPuncture struct {
	name      string
	block     int
	preserved []bool
	kept      int
}

// NewBlockPuncture returns a provider that drops the listed positions of
// each block.
func NewBlockPuncture(name string, block int, punctured ...int) *BlockPuncture {
	p := &BlockPuncture{name: name, block: block, preserved: make([]bool, block)}
	for i := range p.preserved {
		p.preserved[i] = true
	}
	for _, i := range punctured {
		p.preserved[i] = false
	}
	for _, keep := range p.preserved {
		if keep {
			p.kept++
		}
	}
	return p
}

// NXDN puncture patterns. Only the G2 (odd) coded bits are ever punctured.
var (
	PunctureNone         = NewBlockPuncture("NONE", 2)
	PunctureSACCH        = NewBlockPuncture("SACCH", 12, 5, 11)
	PunctureFACCH1       = NewBlockPuncture("FACCH1", 4, 3)
	PunctureCACAndFACCH2 = NewBlockPuncture("CAC/FACCH2", 14, 3, 11)
	PunctureLongCAC      = NewBlockPuncture("LONG CAC", 26, 3, 9, 15, 21, 25)
)

func (p *BlockPuncture) Name() string   { return p.name }
func (p *BlockPuncture) BlockSize() int { return p.block }

// Preserved reports whether the coded bit at index survives puncturing.
func (p *BlockPuncture) Preserved(index int) bool {
	return p.preserved[index%p.block]
}

// PuncturedLength returns the transmitted length of a coded stream.
func (p *BlockPuncture) PuncturedLength(coded int) int {
	return coded / p.block * p.kept
}

// Puncture drops the punctured positions. The coded length must be a
// multiple of the block size.
func (p *BlockPuncture) Puncture(coded *bits.Buffer) *bits.Buffer {
	if coded.Size()%p.block != 0 {
		panic(fmt.Sprintf("codec: %s puncture of %d bits is not a multiple of %d", p.name, coded.Size(), p.block))
	}
	out := bits.New(p.PuncturedLength(coded.Size()))
	pos := 0
	for i := 0; i < coded.Size(); i++ {
		if p.preserved[i%p.block] {
			out.SetBit(pos, coded.Get(i))
			pos++
		}
	}
	out.SetCorrectedBitCount(coded.CorrectedBitCount())
	return out
}

// Depuncture restores the full rate stream with zero filled punctured
// positions.
func (p *BlockPuncture) Depuncture(punctured *bits.Buffer) *bits.Buffer {
	if punctured.Size()%p.kept != 0 {
		panic(fmt.Sprintf("codec: %s depuncture of %d bits is not a multiple of %d", p.name, punctured.Size(), p.kept))
	}
	out := bits.New(punctured.Size() / p.kept * p.block)
	pos := 0
	for i := 0; i < out.Size(); i++ {
		if p.preserved[i%p.block] {
			out.SetBit(i, punctured.Get(pos))
			pos++
		}
	}
	out.SetCorrectedBitCount(punctured.CorrectedBitCount())
	return out
}
