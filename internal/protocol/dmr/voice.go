package dmr

import (
	"fmt"
	"time"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// AMBE frame placement within a voice burst. The second frame straddles the
// sync or embedded signalling field.
const (
	AMBEFrameBits   = 72
	VoiceFrameCount = 6
)

var ambeFrameFields = [3]bits.Field{
	bits.Range("AMBE_1", 24, 95),
	bits.Fragmented("AMBE_2", append(bits.Range("", 96, 131).Indices, bits.Range("", 180, 215).Indices...)...),
	bits.Range("AMBE_3", 216, 287),
}

// VoiceMessage is one burst of a six burst voice superframe. Burst A carries
// the voice sync; bursts B through F carry embedded signalling.
type VoiceMessage struct {
	protocol.Base
	// Frame is the superframe position, 'A' through 'F'.
	Frame byte
	Sync  SyncPattern
	EMB   EMB
}

// NewVoiceMessage wraps a 288-bit voice burst. frame is the position within
// the superframe; 'A' bursts have no EMB field.
func NewVoiceMessage(burst *bits.Buffer, frame byte, timeslot int, timestamp time.Time) *VoiceMessage {
	m := &VoiceMessage{Base: protocol.NewBase(protocol.ProtocolDMR, burst, timestamp), Frame: frame}
	m.SetTimeslot(timeslot)
	if frame == 'A' {
		m.Sync = DetectSync(burst)
	} else {
		m.EMB = ParseEMB(burst)
		m.SetValid(m.EMB.Valid)
	}
	return m
}

func (m *VoiceMessage) Opcode() string { return fmt.Sprintf("VOICE FRAME %c", m.Frame) }
func (m *VoiceMessage) Vendor() string { return VendorStandard.String() }

func (m *VoiceMessage) Identifiers() []protocol.Identifier {
	if m.Frame == 'A' || !m.EMB.Valid {
		return nil
	}
	return []protocol.Identifier{protocol.NewColorCode(m.EMB.ColorCode)}
}

// AMBEFrames returns the three raw 72-bit AMBE+2 codec frames, packed MSB
// first into nine bytes each.
func (m *VoiceMessage) AMBEFrames() [3][]byte {
	var frames [3][]byte
	for i, f := range ambeFrameFields {
		frame := bits.New(AMBEFrameBits)
		for j, idx := range f.Indices {
			frame.SetBit(j, m.Bits().Get(idx))
		}
		frames[i] = frame.ToBytes()
	}
	return frames
}

func (m *VoiceMessage) String() string {
	if m.Frame == 'A' {
		return fmt.Sprintf("TS%d VOICE FRAME A SYNC:%s", m.Timeslot(), m.Sync)
	}
	status := ""
	if !m.EMB.Valid {
		status = "[EMB-ERROR] "
	}
	pi := ""
	if m.EMB.PI {
		pi = " ENCRYPTED"
	}
	return fmt.Sprintf("%sTS%d VOICE FRAME %c CC:%d LCSS:%s%s", status, m.Timeslot(), m.Frame, m.EMB.ColorCode, m.EMB.LCSS, pi)
}
