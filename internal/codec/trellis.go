package codec

import (
	mathbits "math/bits"

	"github.com/dbehnke/lmrdecode/internal/bits"
)

// P25 1/2 rate trellis code: 4 states, one input dibit per 4 bit
// constellation point. 48 data dibits plus one zero flush dibit fill the 49
// points of a data block.
const (
	trellisStates  = 4
	trellisDibits  = p25DataPoints
	TrellisPayload = (trellisDibits - 1) * 2
)

// trellisNext[state][input] is the transmitted constellation point. The next
// state is the input dibit.
var trellisNext = [trellisStates][trellisStates]int{
	{0x2, 0xC, 0x1, 0xF},
	{0xE, 0x0, 0xD, 0x3},
	{0x9, 0x7, 0xA, 0x4},
	{0x5, 0xB, 0x6, 0x8},
}

// Trellis12Encode encodes 96 payload bits into a 196 bit block in trellis
// (deinterleaved) order.
func Trellis12Encode(payload *bits.Buffer) *bits.Buffer {
	out := bits.New(P25DataBlockBits)
	state := 0
	for i := 0; i < trellisDibits; i++ {
		input := 0
		if i < trellisDibits-1 {
			input = payload.GetIntRange(i*2, i*2+1)
		}
		out.Load(i*4, 4, uint64(trellisNext[state][input]))
		state = input
	}
	return out
}

// Trellis12Decode runs a Viterbi search over the 49 constellation points of
// a deinterleaved block at start. The decoded 96 bits carry the winning path
// metric as their corrected bit count.
func Trellis12Decode(block *bits.Buffer, start int) *bits.Buffer {
	const unreachable = 1 << 30

	var decisions [trellisDibits][trellisStates]uint8
	metrics := [trellisStates]int{0, unreachable, unreachable, unreachable}

	for i := 0; i < trellisDibits; i++ {
		received := block.GetIntRange(start+i*4, start+i*4+3)
		next := [trellisStates]int{unreachable, unreachable, unreachable, unreachable}
		for state, metric := range metrics {
			if metric >= unreachable {
				continue
			}
			for input := 0; input < trellisStates; input++ {
				cost := metric + mathbits.OnesCount8(uint8(trellisNext[state][input]^received))
				if cost < next[input] {
					next[input] = cost
					decisions[i][input] = uint8(state)
				}
			}
		}
		metrics = next
	}

	// chainback from the zero flush state
	out := bits.New(TrellisPayload)
	state := 0
	for i := trellisDibits - 1; i >= 0; i-- {
		if i < trellisDibits-1 {
			out.Load(i*2, 2, uint64(state))
		}
		state = int(decisions[i][state])
	}
	out.SetCorrectedBitCount(block.CorrectedBitCount() + metrics[0])
	return out
}
