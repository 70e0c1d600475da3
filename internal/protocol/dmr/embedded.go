package dmr

import (
	"sync"
	"time"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/correction"
)

const embeddedFragments = 4

// EmbeddedAssembler collects the four 32-bit embedded signalling fragments
// of a voice superframe per timeslot and decodes the BPTC(128,77) link
// control once the last fragment arrives.
type EmbeddedAssembler struct {
	factory *LCFactory

	mu        sync.Mutex
	fragments map[int][]*bits.Buffer
}

func NewEmbeddedAssembler(factory *LCFactory) *EmbeddedAssembler {
	return &EmbeddedAssembler{factory: factory, fragments: make(map[int][]*bits.Buffer)}
}

// Add offers the embedded fragment of a voice burst. It returns the decoded
// link control when the fragment completes a sequence, otherwise nil.
func (a *EmbeddedAssembler) Add(timeslot int, emb EMB, fragment *bits.Buffer, timestamp time.Time) LCMessage {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !emb.Valid {
		delete(a.fragments, timeslot)
		return nil
	}

	current := a.fragments[timeslot]
	switch emb.LCSS {
	case LCSSFirst:
		a.fragments[timeslot] = []*bits.Buffer{fragment}
	case LCSSContinuation:
		if len(current) == 0 || len(current) >= embeddedFragments-1 {
			delete(a.fragments, timeslot)
			return nil
		}
		a.fragments[timeslot] = append(current, fragment)
	case LCSSLast:
		delete(a.fragments, timeslot)
		if len(current) != embeddedFragments-1 {
			return nil
		}
		block := bits.New(embeddedFragments * EmbeddedBits)
		for i, frag := range append(current, fragment) {
			block.Copy(i*EmbeddedBits, frag)
		}
		lc, ok := correction.BPTC12877Decode(block, 0)
		msg := a.factory.CreateFull(lc, timestamp, LCBurstEmbedded)
		if !ok {
			setValid(msg, false)
		}
		if m, ok := msg.(timeslotSetter); ok {
			m.SetTimeslot(timeslot)
		}
		return msg
	}
	return nil
}

// EncodeEmbeddedLC splits 72 link control bits into the four embedded
// fragments of a superframe, adding the 5-bit checksum and BPTC(128,77).
func EncodeEmbeddedLC(lc *bits.Buffer) [embeddedFragments]*bits.Buffer {
	full := bits.New(EmbeddedLCBits)
	full.Copy(0, lc.GetSubMessage(0, lcDataBits))
	full.Load(lcDataBits, 5, uint64(correction.DMRChecksum5(full, 0)))

	block := correction.BPTC12877Encode(full)
	var out [embeddedFragments]*bits.Buffer
	for i := range out {
		out[i] = block.GetSubMessage(i*EmbeddedBits, (i+1)*EmbeddedBits)
	}
	return out
}
