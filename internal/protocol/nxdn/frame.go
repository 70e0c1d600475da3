package nxdn

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/codec"
	"github.com/dbehnke/lmrdecode/internal/correction"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// Frame geometry after the frame sync word.
const (
	FrameBits = 364

	lichBits          = 16
	sacchStart        = lichBits
	firstHalfStart    = 76
	secondHalfStart   = 220
	halfBits          = 144
	halfRateVoiceBits = 72

	// Control channel frames only scramble the CAC and its guard bits.
	controlOutboundScrambled = 340
	controlInboundScrambled  = 268
)

var (
	lichValue  = bits.Fragmented("LICH", 0, 2, 4, 6, 8, 10, 12)
	lichParity = 14

	payloadStructure = bits.Range("STRUCTURE", 0, 1)
	payloadRAN       = bits.Range("RAN", 2, 7)
	sacchData        = bits.Range("SACCH_DATA", 8, 25)

	frameScramble = codec.NXDNScrambler.Generate(FrameBits)
)

// coding is the FEC layout of one logical channel: the decoded payload is
// a header, the message, the CRC over everything before it and a zero
// tail.
type coding struct {
	name       string
	interleave codec.Interleaver
	puncture   codec.PunctureProvider
	crc        correction.Variant
	covered    int
	msgStart   int
	msgEnd     int
}

var (
	codingOutboundCAC = coding{"CAC", codec.InterleaverOutboundCAC, codec.PunctureCACAndFACCH2, correction.CRC16NXDN, 155, 8, 152}
	codingLongCAC     = coding{"CAC LONG", codec.InterleaverInboundCAC, codec.PunctureLongCAC, correction.CRC16NXDN, 136, 8, 136}
	codingShortCAC    = coding{"CAC SHORT", codec.InterleaverInboundCAC, codec.PunctureNone, correction.CRC16NXDN, 106, 8, 104}
	codingSACCH       = coding{"SACCH", codec.InterleaverSACCH, codec.PunctureSACCH, correction.CRC6NXDN, 26, 8, 26}
	codingFACCH1      = coding{"FACCH1", codec.InterleaverFACCH1, codec.PunctureFACCH1, correction.CRC12NXDN, 80, 0, 80}
	codingFACCH2      = coding{"FACCH2", codec.InterleaverFACCH2, codec.PunctureCACAndFACCH2, correction.CRC15NXDN, 184, 8, 184}
)

// length is the decoded payload length including the tail.
func (c coding) length() int {
	block := c.puncture.BlockSize()
	kept := 0
	for i := 0; i < block; i++ {
		if c.puncture.Preserved(i) {
			kept++
		}
	}
	return c.interleave.Size() / kept * block / 2
}

func (c coding) decode(frame *bits.Buffer, offset int) (*bits.Buffer, int) {
	coded := c.puncture.Depuncture(c.interleave.Deinterleave(frame, offset))
	payload := codec.ConvolutionDecode(coded, c.puncture)
	return payload, c.crc.Residual(payload, 0, c.covered, c.covered)
}

// encode writes the CRC into payload, which must be c.length() bits with a
// zero tail, and places the coded bits into frame at offset.
func (c coding) encode(payload, frame *bits.Buffer, offset int) {
	if payload.Size() != c.length() {
		panic(fmt.Sprintf("nxdn: %s payload is %d bits, want %d", c.name, payload.Size(), c.length()))
	}
	c.crc.Write(payload, 0, c.covered, c.covered)
	c.interleave.Interleave(codec.ConvolutionEncode(payload, c.puncture), frame, offset)
}

// newPayload lays msg out after a structure and RAN header.
func (c coding) newPayload(structure, ran int, msg *bits.Buffer) *bits.Buffer {
	payload := bits.New(c.length())
	if c.msgStart >= 8 {
		payload.Load(payloadStructure.Start(), payloadStructure.Width(), uint64(structure))
		payload.Load(payloadRAN.Start(), payloadRAN.Width(), uint64(ran))
	}
	if msg != nil {
		if msg.Size() > c.msgEnd-c.msgStart {
			panic(fmt.Sprintf("nxdn: %d bit message exceeds %s", msg.Size(), c.name))
		}
		payload.Copy(c.msgStart, msg)
	}
	return payload
}

func scramble(frame *bits.Buffer, from, to int) {
	for i := from; i < to; i++ {
		if frameScramble.Get(i) {
			frame.Flip(i)
		}
	}
}

func scrambledBits(lich LICH) int {
	if lich.RFChannel() == RCCH {
		if lich.Outbound() {
			return controlOutboundScrambled
		}
		return controlInboundScrambled
	}
	return FrameBits
}

func controlCoding(lich LICH) coding {
	switch {
	case lich.Outbound():
		return codingOutboundCAC
	case lich.LongCAC():
		return codingLongCAC
	}
	return codingShortCAC
}

// checked is satisfied by every message built on protocol.Base.
type checked interface {
	protocol.Message
	SetResidual(int)
	SetValid(bool)
}

// SACCHFragment is the slow associated control channel of a traffic frame.
// Four fragments of a superframe carry one layer 3 message.
type SACCHFragment struct {
	protocol.Base
	lich LICH
}

func (s *SACCHFragment) LICH() LICH     { return s.lich }
func (s *SACCHFragment) Structure() int { return s.Int(payloadStructure) }
func (s *SACCHFragment) RAN() int       { return s.Int(payloadRAN) }
func (s *SACCHFragment) Opcode() string { return "SACCH" }
func (s *SACCHFragment) Vendor() string { return "STANDARD" }

// Data returns the 18 bits of layer 3 content.
func (s *SACCHFragment) Data() *bits.Buffer {
	return s.Bits().GetSubMessage(sacchData.Start(), sacchData.Start()+sacchData.Width())
}

// Fragment is the zero based position of this fragment within its
// superframe, or 0 for a non-superframe SACCH.
func (s *SACCHFragment) Fragment() int {
	if !s.lich.SACCHSuperFrame() {
		return 0
	}
	return 3 - s.Structure()
}

func (s *SACCHFragment) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{protocol.NewRAN(s.RAN())}
}

func (s *SACCHFragment) String() string {
	prefix := ""
	if !s.Valid() {
		prefix = "[CRC-ERROR] "
	}
	return fmt.Sprintf("%sRAN:%d SACCH %d/4 %s DATA:%s", prefix, s.RAN(), s.Fragment()+1, s.lich, s.Data().Hex())
}

// Audio holds the raw half rate vocoder frames of a traffic frame.
type Audio struct {
	protocol.Base
	lich   LICH
	ran    int
	frames [][]byte
}

func (a *Audio) LICH() LICH       { return a.lich }
func (a *Audio) RAN() int         { return a.ran }
func (a *Audio) Frames() [][]byte { return a.frames }
func (a *Audio) Opcode() string   { return "AUDIO" }
func (a *Audio) Vendor() string   { return "STANDARD" }
func (a *Audio) String() string   { return fmt.Sprintf("RAN:%d AUDIO FRAMES:%d", a.ran, len(a.frames)) }

// voiceHalf splits the 144 vocoder bits of one half frame into two 72-bit
// half rate frames.
func (a *Audio) voiceHalf(start int) {
	for i := 0; i < halfBits/halfRateVoiceBits; i++ {
		from := start + i*halfRateVoiceBits
		a.frames = append(a.frames, a.Bits().GetSubMessage(from, from+halfRateVoiceBits).ToBytes())
	}
}

func (a *Audio) Identifiers() []protocol.Identifier {
	if a.ran < 0 {
		return nil
	}
	return []protocol.Identifier{protocol.NewRAN(a.ran)}
}

// Frame is one decoded NXDN frame.
type Frame struct {
	LICH     LICH
	Messages []protocol.Message
}

// FrameDecoder runs the frame pipeline: LICH descramble, RF channel
// selection, payload descramble, deinterleave, depuncture, convolutional
// decode, message type lookup and CRC check.
type FrameDecoder struct {
	logger *log.Logger
}

func NewFrameDecoder(logger *log.Logger) *FrameDecoder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &FrameDecoder{logger: logger}
}

// Decode decodes a 364-bit frame. The channel type and direction are the
// tracked values used when the LICH does not resolve. Frames of any other
// length are zero padded or truncated and every message is marked invalid.
func (d *FrameDecoder) Decode(buf *bits.Buffer, channel RFChannel, direction protocol.Direction, timestamp time.Time) Frame {
	frame := bits.New(FrameBits)
	malformed := buf.Size() != FrameBits
	if malformed {
		d.logger.Warn("unexpected NXDN frame length", "bits", buf.Size())
	}
	frame.Copy(0, buf.GetSubMessage(0, min(buf.Size(), FrameBits)))

	scramble(frame, 0, lichBits)
	lich := FromValue(frame.Int(lichValue), channel, direction)
	scramble(frame, lichBits, scrambledBits(lich))

	var msgs []protocol.Message
	switch {
	case lich.RFChannel() == RCCH:
		msgs = d.control(frame, lich, timestamp)
	case lich.HasSACCH():
		msgs = d.traffic(frame, lich, timestamp)
	default:
		msgs = d.data(frame, lich, timestamp)
	}

	if malformed {
		for _, m := range msgs {
			m.(checked).SetValid(false)
		}
	}
	return Frame{LICH: lich, Messages: msgs}
}

func (d *FrameDecoder) layer3(payload *bits.Buffer, residual int, c coding, kind ChannelKind, lich LICH, ran int, timestamp time.Time) protocol.Message {
	msg := newLayer3(payload.GetSubMessage(c.msgStart, c.msgEnd), kind, lich, ran, timestamp)
	msg.(checked).SetResidual(residual)
	if residual != 0 {
		d.logger.Debug("NXDN CRC failure", "channel", c.name, "lich", lich, "type", msg.MessageType())
	}
	return msg
}

func (d *FrameDecoder) control(frame *bits.Buffer, lich LICH, timestamp time.Time) []protocol.Message {
	c := controlCoding(lich)
	payload, residual := c.decode(frame, lichBits)
	return []protocol.Message{d.layer3(payload, residual, c, ChannelControl, lich, payload.Int(payloadRAN), timestamp)}
}

func (d *FrameDecoder) traffic(frame *bits.Buffer, lich LICH, timestamp time.Time) []protocol.Message {
	payload, residual := codingSACCH.decode(frame, sacchStart)
	sacch := &SACCHFragment{Base: protocol.NewBase(protocol.ProtocolNXDN, payload, timestamp), lich: lich}
	sacch.SetResidual(residual)
	msgs := []protocol.Message{sacch}

	ran := -1
	if sacch.Valid() {
		ran = sacch.RAN()
	}

	if lich.HasAudio() {
		audio := &Audio{Base: protocol.NewBase(protocol.ProtocolNXDN, frame, timestamp), lich: lich, ran: ran}
		if lich.VoiceFirst() {
			audio.voiceHalf(firstHalfStart)
		}
		if lich.VoiceSecond() {
			audio.voiceHalf(secondHalfStart)
		}
		msgs = append(msgs, audio)
	}

	if lich.FACCH1First() {
		payload, residual := codingFACCH1.decode(frame, firstHalfStart)
		msgs = append(msgs, d.layer3(payload, residual, codingFACCH1, ChannelTraffic, lich, ran, timestamp))
	}
	if lich.FACCH1Second() {
		payload, residual := codingFACCH1.decode(frame, secondHalfStart)
		msgs = append(msgs, d.layer3(payload, residual, codingFACCH1, ChannelTraffic, lich, ran, timestamp))
	}
	return msgs
}

func (d *FrameDecoder) data(frame *bits.Buffer, lich LICH, timestamp time.Time) []protocol.Message {
	payload, residual := codingFACCH2.decode(frame, lichBits)
	return []protocol.Message{d.layer3(payload, residual, codingFACCH2, ChannelTraffic, lich, payload.Int(payloadRAN), timestamp)}
}

// writeLICH places the LICH value on the even bit positions, even parity
// over the RF channel and functional channel bits at bit 14 and ones on
// every odd position.
func writeLICH(frame *bits.Buffer, lich LICH) {
	if lich.Unknown() {
		panic("nxdn: cannot encode an unknown LICH")
	}
	v := lich.Value()
	frame.SetInt(v, lichValue.Indices)
	frame.SetBit(lichParity, (v>>6^v>>5^v>>4^v>>3)&1 == 1)
	for i := 1; i < lichBits; i += 2 {
		frame.Set(i)
	}
}

func finishFrame(frame *bits.Buffer, lich LICH) *bits.Buffer {
	writeLICH(frame, lich)
	scramble(frame, 0, scrambledBits(lich))
	return frame
}

// EncodeControlFrame builds a scrambled control channel frame carrying msg
// in the CAC variant that lich selects.
func EncodeControlFrame(lich LICH, ran int, msg *bits.Buffer) *bits.Buffer {
	if lich.RFChannel() != RCCH {
		panic(fmt.Sprintf("nxdn: %s is not a control channel LICH", lich))
	}
	c := controlCoding(lich)
	frame := bits.New(FrameBits)
	c.encode(c.newPayload(0, ran, msg), frame, lichBits)
	return finishFrame(frame, lich)
}

// TrafficFrame is the content of a traffic frame with a SACCH. First and
// Second hold either 144 bits of vocoder data or a FACCH1 message of up
// to 80 bits, as the LICH option dictates.
type TrafficFrame struct {
	Structure int
	RAN       int
	SACCH     *bits.Buffer
	First     *bits.Buffer
	Second    *bits.Buffer
}

// EncodeTrafficFrame builds a scrambled RTCH or RDCH frame.
func EncodeTrafficFrame(lich LICH, f TrafficFrame) *bits.Buffer {
	if lich.RFChannel() == RCCH || !lich.HasSACCH() {
		panic(fmt.Sprintf("nxdn: %s does not carry a SACCH", lich))
	}
	frame := bits.New(FrameBits)
	codingSACCH.encode(codingSACCH.newPayload(f.Structure, f.RAN, f.SACCH), frame, sacchStart)

	half := func(start int, facch bool, content *bits.Buffer) {
		switch {
		case content == nil:
		case facch:
			codingFACCH1.encode(codingFACCH1.newPayload(0, 0, content), frame, start)
		default:
			frame.Copy(start, content.GetSubMessage(0, halfBits))
		}
	}
	half(firstHalfStart, lich.FACCH1First(), f.First)
	half(secondHalfStart, lich.FACCH1Second(), f.Second)
	return finishFrame(frame, lich)
}

// EncodeDataFrame builds a scrambled FACCH2 or UDCH frame.
func EncodeDataFrame(lich LICH, ran int, msg *bits.Buffer) *bits.Buffer {
	if lich.RFChannel() == RCCH || lich.HasSACCH() {
		panic(fmt.Sprintf("nxdn: %s is not a FACCH2 or UDCH LICH", lich))
	}
	frame := bits.New(FrameBits)
	codingFACCH2.encode(codingFACCH2.newPayload(0, ran, msg), frame, lichBits)
	return finishFrame(frame, lich)
}
