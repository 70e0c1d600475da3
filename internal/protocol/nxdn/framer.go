package nxdn

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// trackedFrames is how many recent LICH values decide the channel type and
// direction used for frames whose LICH does not resolve.
const trackedFrames = 3

type channelState struct {
	channel   RFChannel
	direction protocol.Direction
}

// Framer decodes a stream of frames from one channel. It remembers the RF
// channel type and direction of the last few frames with a known LICH.
// A Framer is safe for concurrent use.
type Framer struct {
	decoder *FrameDecoder

	mu     sync.Mutex
	recent []channelState
}

func NewFramer(logger *log.Logger) *Framer {
	return &Framer{decoder: NewFrameDecoder(logger)}
}

// Process decodes one frame. The direction is only a hint used until the
// framer has seen a frame with a known LICH.
func (f *Framer) Process(buf *bits.Buffer, direction protocol.Direction, timestamp time.Time) []protocol.Message {
	tracked := f.tracked(direction)
	frame := f.decoder.Decode(buf, tracked.channel, tracked.direction, timestamp)
	if !frame.LICH.Unknown() {
		f.observe(channelState{frame.LICH.RFChannel(), frame.LICH.Direction()})
	}
	return frame.Messages
}

// Reset forgets the tracked channel state.
func (f *Framer) Reset() {
	f.mu.Lock()
	f.recent = nil
	f.mu.Unlock()
}

func (f *Framer) observe(s channelState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recent = append(f.recent, s)
	if len(f.recent) > trackedFrames {
		f.recent = f.recent[len(f.recent)-trackedFrames:]
	}
}

// tracked returns the most common recent state, preferring the newest on a
// tie.
func (f *Framer) tracked(hint protocol.Direction) channelState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.recent) == 0 {
		return channelState{RFChannelUnknown, hint}
	}
	best, bestCount := f.recent[len(f.recent)-1], 0
	for i := len(f.recent) - 1; i >= 0; i-- {
		count := 0
		for _, s := range f.recent {
			if s == f.recent[i] {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = f.recent[i], count
		}
	}
	return best
}
