package nxdn

import (
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// RFChannel is the RF channel type carried in the LICH.
type RFChannel int

const (
	RFChannelUnknown RFChannel = iota
	// RCCH is a trunked control channel.
	RCCH
	// RTCH is a trunked traffic channel.
	RTCH
	// RTCHComposite is a composite control and traffic channel.
	RTCHComposite
	// RDCH is a conventional repeater or direct channel.
	RDCH
)

func (c RFChannel) String() string {
	switch c {
	case RCCH:
		return "RCCH"
	case RTCH:
		return "RTCH"
	case RTCHComposite:
		return "RTCH-C"
	case RDCH:
		return "RDCH"
	}
	return "UNKNOWN"
}

// FunctionalChannel is the logical channel layout of a frame.
type FunctionalChannel int

const (
	FunctionalUnknown FunctionalChannel = iota
	FunctionalCAC
	FunctionalCACLong
	FunctionalCACShort
	FunctionalSACCHSuperFrame
	FunctionalSACCHNonSuperFrame
	FunctionalSACCHSuperFrameIdle
	FunctionalUDCH
)

// Option says what the payload half frames carry.
type Option int

const (
	OptionUnknown Option = iota
	OptionDataNormal
	OptionDataIdle
	OptionDataCommon
	OptionVoiceOnly
	OptionFACCH1First
	OptionFACCH1Second
	OptionFACCH1Both
	OptionUDCH
	OptionFACCH2
)

// LICH is the link information channel value at the start of every frame.
type LICH int

const (
	LICHUnknown LICH = iota

	RCCHInboundCACShort
	RCCHInboundCACLong
	RCCHInboundUnknown
	RCCHOutboundCACNormal
	RCCHOutboundCACIdle
	RCCHOutboundCACCommon
	RCCHOutboundUnknown

	RTCHInboundVoice
	RTCHInboundVoiceFACCH1Second
	RTCHInboundVoiceFACCH1First
	RTCHInboundFACCH1Both
	RTCHInboundNonSuperFrameFACCH1Both
	RTCHInboundIdle
	RTCHInboundUDCH
	RTCHInboundFACCH2
	RTCHInboundUnknown

	RTCHOutboundVoice
	RTCHOutboundVoiceFACCH1Second
	RTCHOutboundVoiceFACCH1First
	RTCHOutboundFACCH1Both
	RTCHOutboundNonSuperFrameFACCH1Both
	RTCHOutboundIdle
	RTCHOutboundUDCH
	RTCHOutboundFACCH2
	RTCHOutboundUnknown

	RTCHCompositeVoice
	RTCHCompositeVoiceFACCH1Second
	RTCHCompositeVoiceFACCH1First
	RTCHCompositeFACCH1Both
	RTCHCompositeNonSuperFrameFACCH1Both
	RTCHCompositeIdle
	RTCHCompositeUDCH
	RTCHCompositeFACCH2
	RTCHCompositeUnknown

	RDCHInboundVoice
	RDCHInboundVoiceFACCH1Second
	RDCHInboundVoiceFACCH1First
	RDCHInboundFACCH1Both
	RDCHInboundNonSuperFrameFACCH1Both
	RDCHInboundIdle
	RDCHInboundUDCH
	RDCHInboundFACCH2
	RDCHInboundUnknown

	RDCHOutboundVoice
	RDCHOutboundVoiceFACCH1Second
	RDCHOutboundVoiceFACCH1First
	RDCHOutboundFACCH1Both
	RDCHOutboundNonSuperFrameFACCH1Both
	RDCHOutboundIdle
	RDCHOutboundUDCH
	RDCHOutboundFACCH2
	RDCHOutboundUnknown
)

type lichInfo struct {
	value      int
	channel    RFChannel
	functional FunctionalChannel
	option     Option
	direction  protocol.Direction
	label      string
}

const (
	in  = protocol.DirectionInbound
	out = protocol.DirectionOutbound
)

var lichInfos = map[LICH]lichInfo{
	LICHUnknown: {-1, RCCH, FunctionalCAC, OptionUnknown, out, "UNKNOWN"},

	RCCHInboundCACShort:   {0x18, RCCH, FunctionalCACShort, OptionDataCommon, in, "RCCH INBOUND CAC SHORT"},
	RCCHInboundCACLong:    {0x08, RCCH, FunctionalCACLong, OptionDataCommon, in, "RCCH INBOUND CAC LONG"},
	RCCHInboundUnknown:    {-1, RCCH, FunctionalUnknown, OptionUnknown, in, "RCCH INBOUND UNKNOWN"},
	RCCHOutboundCACNormal: {0x01, RCCH, FunctionalCAC, OptionDataNormal, out, "RCCH OUTBOUND CAC"},
	RCCHOutboundCACIdle:   {0x03, RCCH, FunctionalCAC, OptionDataIdle, out, "RCCH OUTBOUND CAC IDLE"},
	RCCHOutboundCACCommon: {0x05, RCCH, FunctionalCAC, OptionDataCommon, out, "RCCH OUTBOUND CAC COMMON"},
	RCCHOutboundUnknown:   {-1, RCCH, FunctionalCAC, OptionUnknown, out, "RCCH OUTBOUND UNKNOWN"},

	RTCHInboundVoice:                   {0x36, RTCH, FunctionalSACCHSuperFrame, OptionVoiceOnly, in, "RTCH INBOUND VOICE"},
	RTCHInboundVoiceFACCH1Second:       {0x34, RTCH, FunctionalSACCHSuperFrame, OptionFACCH1Second, in, "RTCH INBOUND VOICE/FACCH1"},
	RTCHInboundVoiceFACCH1First:        {0x32, RTCH, FunctionalSACCHSuperFrame, OptionFACCH1First, in, "RTCH INBOUND FACCH1/VOICE"},
	RTCHInboundFACCH1Both:              {0x30, RTCH, FunctionalSACCHSuperFrame, OptionFACCH1Both, in, "RTCH INBOUND FACCH1/FACCH1"},
	RTCHInboundNonSuperFrameFACCH1Both: {0x20, RTCH, FunctionalSACCHNonSuperFrame, OptionFACCH1Both, in, "RTCH INBOUND NON-SUPERFRAME FACCH1/FACCH1"},
	RTCHInboundIdle:                    {0x38, RTCH, FunctionalSACCHSuperFrame, OptionFACCH1Both, in, "RTCH INBOUND IDLE"},
	RTCHInboundUDCH:                    {0x2E, RTCH, FunctionalUDCH, OptionUDCH, in, "RTCH INBOUND UDCH"},
	RTCHInboundFACCH2:                  {0x28, RTCH, FunctionalUDCH, OptionFACCH2, in, "RTCH INBOUND FACCH2"},
	RTCHInboundUnknown:                 {-1, RTCH, FunctionalUnknown, OptionUnknown, in, "RTCH INBOUND UNKNOWN"},

	RTCHOutboundVoice:                   {0x37, RTCH, FunctionalSACCHSuperFrame, OptionVoiceOnly, out, "RTCH OUTBOUND VOICE"},
	RTCHOutboundVoiceFACCH1Second:       {0x35, RTCH, FunctionalSACCHSuperFrame, OptionFACCH1Second, out, "RTCH OUTBOUND VOICE/FACCH1"},
	RTCHOutboundVoiceFACCH1First:        {0x33, RTCH, FunctionalSACCHSuperFrame, OptionFACCH1First, out, "RTCH OUTBOUND FACCH1/VOICE"},
	RTCHOutboundFACCH1Both:              {0x31, RTCH, FunctionalSACCHSuperFrame, OptionFACCH1Both, out, "RTCH OUTBOUND FACCH1/FACCH1"},
	RTCHOutboundNonSuperFrameFACCH1Both: {0x21, RTCH, FunctionalSACCHNonSuperFrame, OptionFACCH1Both, out, "RTCH OUTBOUND NON-SUPERFRAME FACCH1/FACCH1"},
	RTCHOutboundIdle:                    {0x39, RTCH, FunctionalSACCHSuperFrameIdle, OptionFACCH1Both, out, "RTCH OUTBOUND IDLE"},
	RTCHOutboundUDCH:                    {0x2F, RTCH, FunctionalUDCH, OptionUDCH, out, "RTCH OUTBOUND UDCH"},
	RTCHOutboundFACCH2:                  {0x29, RTCH, FunctionalUDCH, OptionFACCH2, out, "RTCH OUTBOUND FACCH2"},
	RTCHOutboundUnknown:                 {-1, RTCH, FunctionalUnknown, OptionUnknown, out, "RTCH OUTBOUND UNKNOWN"},

	RTCHCompositeVoice:                   {0x77, RTCHComposite, FunctionalSACCHSuperFrame, OptionVoiceOnly, out, "RTCH-C OUTBOUND VOICE"},
	RTCHCompositeVoiceFACCH1Second:       {0x75, RTCHComposite, FunctionalSACCHSuperFrame, OptionFACCH1Second, out, "RTCH-C OUTBOUND VOICE/FACCH1"},
	RTCHCompositeVoiceFACCH1First:        {0x73, RTCHComposite, FunctionalSACCHSuperFrame, OptionFACCH1First, out, "RTCH-C OUTBOUND FACCH1/VOICE"},
	RTCHCompositeFACCH1Both:              {0x71, RTCHComposite, FunctionalSACCHSuperFrame, OptionFACCH1Both, out, "RTCH-C OUTBOUND FACCH1/FACCH1"},
	RTCHCompositeNonSuperFrameFACCH1Both: {0x61, RTCHComposite, FunctionalSACCHNonSuperFrame, OptionFACCH1Both, out, "RTCH-C OUTBOUND NON-SUPERFRAME FACCH1/FACCH1"},
	RTCHCompositeIdle:                    {0x79, RTCHComposite, FunctionalSACCHSuperFrameIdle, OptionFACCH1Both, out, "RTCH-C OUTBOUND IDLE"},
	RTCHCompositeUDCH:                    {0x6F, RTCHComposite, FunctionalUDCH, OptionUDCH, out, "RTCH-C OUTBOUND UDCH"},
	RTCHCompositeFACCH2:                  {0x69, RTCHComposite, FunctionalUDCH, OptionFACCH2, out, "RTCH-C OUTBOUND FACCH2"},
	RTCHCompositeUnknown:                 {-1, RTCHComposite, FunctionalUnknown, OptionUnknown, out, "RTCH-C OUTBOUND UNKNOWN"},

	RDCHInboundVoice:                   {0x56, RDCH, FunctionalSACCHSuperFrame, OptionVoiceOnly, in, "RDCH INBOUND VOICE"},
	RDCHInboundVoiceFACCH1Second:       {0x54, RDCH, FunctionalSACCHSuperFrame, OptionFACCH1Second, in, "RDCH INBOUND VOICE/FACCH1"},
	RDCHInboundVoiceFACCH1First:        {0x52, RDCH, FunctionalSACCHSuperFrame, OptionFACCH1First, in, "RDCH INBOUND FACCH1/VOICE"},
	RDCHInboundFACCH1Both:              {0x50, RDCH, FunctionalSACCHSuperFrame, OptionFACCH1Both, in, "RDCH INBOUND FACCH1/FACCH1"},
	RDCHInboundNonSuperFrameFACCH1Both: {0x40, RDCH, FunctionalSACCHNonSuperFrame, OptionFACCH1Both, in, "RDCH INBOUND NON-SUPERFRAME FACCH1/FACCH1"},
	RDCHInboundIdle:                    {0x58, RDCH, FunctionalSACCHSuperFrame, OptionFACCH1Both, in, "RDCH INBOUND IDLE"},
	RDCHInboundUDCH:                    {0x4E, RDCH, FunctionalUDCH, OptionUDCH, in, "RDCH INBOUND UDCH"},
	RDCHInboundFACCH2:                  {0x48, RDCH, FunctionalUDCH, OptionFACCH2, in, "RDCH INBOUND FACCH2"},
	RDCHInboundUnknown:                 {-1, RDCH, FunctionalUnknown, OptionUnknown, in, "RDCH INBOUND UNKNOWN"},

	RDCHOutboundVoice:                   {0x57, RDCH, FunctionalSACCHSuperFrame, OptionVoiceOnly, out, "RDCH OUTBOUND VOICE"},
	RDCHOutboundVoiceFACCH1Second:       {0x55, RDCH, FunctionalSACCHSuperFrame, OptionFACCH1Second, out, "RDCH OUTBOUND VOICE/FACCH1"},
	RDCHOutboundVoiceFACCH1First:        {0x53, RDCH, FunctionalSACCHSuperFrame, OptionFACCH1First, out, "RDCH OUTBOUND FACCH1/VOICE"},
	RDCHOutboundFACCH1Both:              {0x51, RDCH, FunctionalSACCHSuperFrame, OptionFACCH1Both, out, "RDCH OUTBOUND FACCH1/FACCH1"},
	RDCHOutboundNonSuperFrameFACCH1Both: {0x41, RDCH, FunctionalSACCHNonSuperFrame, OptionFACCH1Both, out, "RDCH OUTBOUND NON-SUPERFRAME FACCH1/FACCH1"},
	RDCHOutboundIdle:                    {0x59, RDCH, FunctionalSACCHSuperFrameIdle, OptionFACCH1Both, out, "RDCH OUTBOUND IDLE"},
	RDCHOutboundUDCH:                    {0x4F, RDCH, FunctionalUDCH, OptionUDCH, out, "RDCH OUTBOUND UDCH"},
	RDCHOutboundFACCH2:                  {0x49, RDCH, FunctionalUDCH, OptionFACCH2, out, "RDCH OUTBOUND FACCH2"},
	RDCHOutboundUnknown:                 {-1, RDCH, FunctionalUnknown, OptionUnknown, out, "RDCH OUTBOUND UNKNOWN"},
}

var lichByValue = make(map[int]LICH)

func init() {
	for l, info := range lichInfos {
		if info.value >= 0 {
			lichByValue[info.value] = l
		}
	}
}

// FromValue resolves a transmitted 7-bit LICH value. A value that matches
// no entry, typically because of bit errors, falls back to the UNKNOWN
// entry of the tracked channel type and direction.
func FromValue(value int, channel RFChannel, direction protocol.Direction) LICH {
	if l, ok := lichByValue[value]; ok {
		return l
	}
	outbound := direction != protocol.DirectionInbound
	switch channel {
	case RCCH:
		if outbound {
			return RCCHOutboundUnknown
		}
		return RCCHInboundUnknown
	case RTCH:
		if outbound {
			return RTCHOutboundUnknown
		}
		return RTCHInboundUnknown
	case RDCH:
		if outbound {
			return RDCHOutboundUnknown
		}
		return RDCHInboundUnknown
	case RTCHComposite:
		return RTCHCompositeUnknown
	}
	return LICHUnknown
}

func (l LICH) String() string                       { return lichInfos[l].label }
func (l LICH) Value() int                           { return lichInfos[l].value }
func (l LICH) RFChannel() RFChannel                 { return lichInfos[l].channel }
func (l LICH) FunctionalChannel() FunctionalChannel { return lichInfos[l].functional }
func (l LICH) Option() Option                       { return lichInfos[l].option }
func (l LICH) Direction() protocol.Direction        { return lichInfos[l].direction }
func (l LICH) Outbound() bool                       { return l.Direction() == protocol.DirectionOutbound }
func (l LICH) LongCAC() bool                        { return l.FunctionalChannel() == FunctionalCACLong }
func (l LICH) SACCHSuperFrame() bool                { return l.FunctionalChannel() == FunctionalSACCHSuperFrame }

// Unknown reports whether l is a fallback entry.
func (l LICH) Unknown() bool { return l.Value() < 0 }

// HasSACCH reports whether a traffic frame starts with a SACCH field.
func (l LICH) HasSACCH() bool {
	return l.Option() != OptionUDCH && l.Option() != OptionFACCH2
}

func (l LICH) FACCH1First() bool {
	return l.Option() == OptionFACCH1First || l.Option() == OptionFACCH1Both
}

func (l LICH) FACCH1Second() bool {
	return l.Option() == OptionFACCH1Second || l.Option() == OptionFACCH1Both
}

func (l LICH) VoiceFirst() bool {
	return l.Option() == OptionVoiceOnly || l.Option() == OptionFACCH1Second
}

func (l LICH) VoiceSecond() bool {
	return l.Option() == OptionVoiceOnly || l.Option() == OptionFACCH1First
}

func (l LICH) HasAudio() bool { return l.VoiceFirst() || l.VoiceSecond() }
