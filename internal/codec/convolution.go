package codec

import (
	"slices"
	"sync"

	"github.com/dbehnke/lmrdecode/internal/bits"
)

// NXDN rate 1/2 convolutional code, constraint length 5.
//
//   - 5 bit shift register, new bit in the least significant position
//   - G1 = 1 + D^3 + D^4 (register taps 0x19)
//   - G2 = 1 + D + D^2 + D^4 (register taps 0x17)
//   - every message ends in ConvolutionTail zero bits
const (
	ConvolutionTail = 4

	convolutionStates    = 32
	convolutionMaxPaths  = 16
	convolutionHalfPaths = convolutionMaxPaths / 2

	// The fast path can accept a wrong bit while the G2 bit that would expose
	// it is punctured, so the search restarts one register length earlier.
	convolutionBacktrack = 5
)

var convolutionG1, convolutionG2 [convolutionStates]bool

func init() {
	for state := 0; state < convolutionStates; state++ {
		convolutionG1[state] = parity(state & 0x19)
		convolutionG2[state] = parity(state & 0x17)
	}
}

func parity(v int) bool {
	p := false
	for ; v != 0; v &= v - 1 {
		p = !p
	}
	return p
}

// ConvolutionEncode encodes every bit of msg, including its zero tail, and
// returns the coded stream punctured by provider.
func ConvolutionEncode(msg *bits.Buffer, provider PunctureProvider) *bits.Buffer {
	coded := bits.New(msg.Size() * 2)
	state := 0
	for i := 0; i < msg.Size(); i++ {
		state = (state << 1) & 0x1F
		if msg.Get(i) {
			state |= 1
		}
		coded.SetBit(2*i, convolutionG1[state])
		coded.SetBit(2*i+1, convolutionG2[state])
	}
	return provider.Puncture(coded)
}

// path is one candidate decode held in the search arena.
type path struct {
	bits      []byte
	state     int
	pos       int
	errors    int
	punctured int
}

func (p *path) trueErrors() int {
	return p.errors - p.punctured
}

func (p *path) advance(bit int, coded *bits.Buffer, provider PunctureProvider) {
	p.state = (p.state<<1 | bit) & 0x1F
	p.bits[p.pos] = byte(bit)
	index := 2 * p.pos
	if coded.Get(index) != convolutionG1[p.state] {
		p.errors++
		if !provider.Preserved(index) {
			p.punctured++
		}
	}
	if coded.Get(index+1) != convolutionG2[p.state] {
		p.errors++
		if !provider.Preserved(index + 1) {
			p.punctured++
		}
	}
	p.pos++
}

func (p *path) copyFrom(src *path) {
	copy(p.bits[:src.pos], src.bits[:src.pos])
	p.state = src.state
	p.pos = src.pos
	p.errors = src.errors
	p.punctured = src.punctured
}

func comparePaths(a, b path) int {
	if a.trueErrors() != b.trueErrors() {
		return a.trueErrors() - b.trueErrors()
	}
	return a.errors - b.errors
}

// pathArena holds the fixed set of search slots. Each slot owns a window of
// one backing slice so cloning a path never allocates.
type pathArena struct {
	slots   [convolutionMaxPaths]path
	backing []byte
	count   int
}

var arenaPool = sync.Pool{New: func() any { return new(pathArena) }}

func (a *pathArena) reset(length int) {
	if cap(a.backing) < length*convolutionMaxPaths {
		a.backing = make([]byte, length*convolutionMaxPaths)
	}
	a.backing = a.backing[:length*convolutionMaxPaths]
	for i := range a.slots {
		a.slots[i] = path{bits: a.backing[i*length : (i+1)*length : (i+1)*length]}
	}
	a.count = 0
}

// ConvolutionDecode decodes a depunctured coded stream. Mismatches on
// positions that provider marks as punctured are tracked but never decide
// between candidates. The returned buffer holds coded.Size()/2 bits,
// including the tail, and its corrected bit count is the number of
// mismatches on preserved positions.
func ConvolutionDecode(coded *bits.Buffer, provider PunctureProvider) *bits.Buffer {
	length := coded.Size() / 2
	dataLength := length - ConvolutionTail
	out := bits.New(length)

	state := 0
	failed := -1
	for i := 0; i < length; i++ {
		next, ok := autoDecodeStep(coded, provider, state, i, i < dataLength)
		if !ok {
			failed = i
			break
		}
		state = next
		out.SetBit(i, next&1 == 1)
	}
	if failed < 0 {
		return out
	}

	arena := arenaPool.Get().(*pathArena)
	defer arenaPool.Put(arena)
	best := trellisSearch(arena, coded, provider, out, max(0, failed-convolutionBacktrack), dataLength)

	for i := 0; i < length; i++ {
		out.SetBit(i, best.bits[i] == 1)
	}
	out.SetCorrectedBitCount(best.trueErrors())
	return out
}

// autoDecodeStep tries bit 0 then bit 1 and accepts the first whose coded
// pair matches on every preserved position. Tail positions only accept 0.
func autoDecodeStep(coded *bits.Buffer, provider PunctureProvider, state, i int, data bool) (int, bool) {
	candidates := 2
	if !data {
		candidates = 1
	}
	index := 2 * i
	for bit := 0; bit < candidates; bit++ {
		next := (state<<1 | bit) & 0x1F
		if coded.Get(index) != convolutionG1[next] && provider.Preserved(index) {
			continue
		}
		if coded.Get(index+1) != convolutionG2[next] && provider.Preserved(index+1) {
			continue
		}
		return next, true
	}
	return state, false
}

// trellisSearch runs the bounded beam search from start, reusing the bits
// already decoded before start as the common prefix. It always performs
// exactly length-start advance steps.
func trellisSearch(arena *pathArena, coded *bits.Buffer, provider PunctureProvider, prefix *bits.Buffer, start, dataLength int) *path {
	length := dataLength + ConvolutionTail
	arena.reset(length)

	seed := &arena.slots[0]
	for i := 0; i < start; i++ {
		bit := 0
		if prefix.Get(i) {
			bit = 1
		}
		seed.bits[i] = byte(bit)
		seed.state = (seed.state<<1 | bit) & 0x1F
	}
	seed.pos = start
	arena.count = 1

	for pos := start; pos < dataLength; pos++ {
		if arena.count < convolutionMaxPaths {
			n := arena.count
			for i := 0; i < n; i++ {
				clone := &arena.slots[n+i]
				clone.copyFrom(&arena.slots[i])
				arena.slots[i].advance(0, coded, provider)
				clone.advance(1, coded, provider)
			}
			arena.count = 2 * n
			continue
		}

		slices.SortStableFunc(arena.slots[:], comparePaths)
		for i := 0; i < convolutionHalfPaths; i++ {
			arena.slots[convolutionHalfPaths+i].copyFrom(&arena.slots[i])
		}
		for i := range arena.slots {
			bit := 0
			if i >= convolutionHalfPaths {
				bit = 1
			}
			arena.slots[i].advance(bit, coded, provider)
		}
	}

	live := arena.slots[:arena.count]
	for pos := max(start, dataLength); pos < length; pos++ {
		for i := range live {
			live[i].advance(0, coded, provider)
		}
	}
	slices.SortStableFunc(live, comparePaths)
	return &live[0]
}
