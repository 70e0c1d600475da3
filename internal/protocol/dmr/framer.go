package dmr

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// FrameUnknown marks a voice burst whose superframe position is not known.
const FrameUnknown byte = '?'

// Framer decodes the bursts of one DMR channel. It holds the per timeslot
// reassembly state for embedded link control, CACH short link control and
// talker aliases, and is safe for concurrent use.
type Framer struct {
	logger   *log.Logger
	data     *DataFactory
	embedded *EmbeddedAssembler
	short    *ShortLCAssembler
	alias    *TalkerAliasAssembler
}

// NewFramer creates a framer around lc. aliasCharset selects the 8-bit
// talker alias decoding (see NewTalkerAliasAssembler).
func NewFramer(logger *log.Logger, lc *LCFactory, aliasCharset string) *Framer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Framer{
		logger:   logger,
		data:     NewDataFactory(logger, lc),
		embedded: NewEmbeddedAssembler(lc),
		short:    NewShortLCAssembler(lc),
		alias:    NewTalkerAliasAssembler(aliasCharset),
	}
}

// ParseVoiceFrame maps a VOICE_A through VOICE_F burst label to its
// superframe position.
func ParseVoiceFrame(kind string) (byte, bool) {
	kind = strings.ToUpper(strings.TrimSpace(kind))
	if len(kind) == len("VOICE_A") && strings.HasPrefix(kind, "VOICE_") {
		if f := kind[len(kind)-1]; f >= 'A' && f <= 'F' {
			return f, true
		}
	}
	return 0, false
}

// Process decodes one 288-bit burst. kind is the burst label reported by
// the demodulator, either VOICE_A..VOICE_F or a slot data type name; when
// empty the sync field decides. Outbound bursts also feed their CACH into
// short link control reassembly. The burst message comes first in the
// result, followed by anything it completed.
func (f *Framer) Process(burst *bits.Buffer, kind string, timeslot int, direction protocol.Direction, timestamp time.Time) []protocol.Message {
	var out []protocol.Message

	if burst.Size() != BurstBits {
		f.logger.Warn("dropping burst with unexpected length", "bits", burst.Size(), "kind", kind)
		return append(out, f.data.Create(burst, SlotType{DataType: ParseDataType(kind)}, timeslot, timestamp))
	}

	frame, voice := ParseVoiceFrame(kind)
	slot := ParseSlotType(burst)
	if kind == "" {
		switch sync := DetectSync(burst); {
		case sync.IsVoice():
			frame, voice = 'A', true
		case sync.IsData():
		default:
			if ParseEMB(burst).Valid {
				frame, voice = FrameUnknown, true
			}
		}
	} else if !voice {
		slot.DataType = ParseDataType(kind)
	}

	if voice {
		out = append(out, f.voice(burst, frame, timeslot, timestamp)...)
	} else {
		msg := f.data.Create(burst, slot, timeslot, timestamp)
		out = append(out, msg)
		if lc, ok := msg.(LCMessage); ok {
			if alias := f.alias.Add(timeslot, lc); alias != nil {
				out = append(out, alias)
			}
		}
	}

	if direction == protocol.DirectionOutbound {
		if slc := f.short.Add(burst, timestamp); slc != nil {
			out = append(out, slc)
		}
	}
	return out
}

func (f *Framer) voice(burst *bits.Buffer, frame byte, timeslot int, timestamp time.Time) []protocol.Message {
	msg := NewVoiceMessage(burst, frame, timeslot, timestamp)
	out := []protocol.Message{msg}
	if frame == 'A' {
		return out
	}

	lc := f.embedded.Add(timeslot, msg.EMB, EmbeddedFragment(burst), timestamp)
	if lc == nil {
		return out
	}
	out = append(out, lc)
	if alias := f.alias.Add(timeslot, lc); alias != nil {
		out = append(out, alias)
	}
	return out
}
