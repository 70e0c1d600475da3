package codec

import (
	"github.com/dbehnke/lmrdecode/internal/bits"
)

// Scrambler is a 9 bit PN generator (x^9 + x^4 + 1) emitting its low order
// bit before each shift.
type Scrambler struct {
	seed int
}

// NXDNScrambler produces the NXDN frame scrambling sequence.
var NXDNScrambler = Scrambler{seed: 0xE4}

func NewScrambler(seed int) Scrambler {
	return Scrambler{seed: seed & 0x1FF}
}

// Generate returns the first n bits of the sequence.
func (s Scrambler) Generate(n int) *bits.Buffer {
	out := bits.New(n)
	reg := s.seed
	for i := 0; i < n; i++ {
		out.SetBit(i, reg&1 == 1)
		feedback := (reg ^ reg>>4) & 1
		reg = reg>>1 | feedback<<8
	}
	return out
}
