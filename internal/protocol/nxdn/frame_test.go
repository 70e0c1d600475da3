package nxdn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

var testTime = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

const testRAN = 42

type fieldValue struct {
	f     bits.Field
	value int
}

// layer3Message builds a message of size bits with the given type code.
func layer3Message(size, code int, fields ...fieldValue) *bits.Buffer {
	msg := bits.New(size)
	msg.SetInt(code, l3MessageType.Indices)
	for _, fv := range fields {
		msg.SetInt(fv.value, fv.f.Indices)
	}
	return msg
}

func voiceHalfBits(seed byte) (*bits.Buffer, [][]byte) {
	data := make([]byte, halfBits/8)
	for i := range data {
		data[i] = seed + byte(i*29)
	}
	return bits.FromBytes(data), [][]byte{data[:9], data[9:]}
}

// setLICHValue rewrites the transmitted LICH value of a scrambled frame.
func setLICHValue(frame *bits.Buffer, value int) {
	for k, i := range lichValue.Indices {
		want := value>>(len(lichValue.Indices)-1-k)&1 == 1
		if frame.Get(i) != (want != frameScramble.Get(i)) {
			frame.Flip(i)
		}
	}
}

func decodeOne(t *testing.T, frame *bits.Buffer) protocol.Message {
	t.Helper()
	out := NewFramer(nil).Process(frame, protocol.DirectionUnknown, testTime)
	require.Len(t, out, 1)
	return out[0]
}

func TestControlFrameSiteInformation(t *testing.T) {
	loc := Location{Category: CategoryRegional, System: 0x1234, Site: 0x56}
	msg := layer3Message(144, 0x18, fieldValue{siteLocation, loc.Value()}, fieldValue{siteService, 0xB0C1})

	frame := EncodeControlFrame(RCCHOutboundCACNormal, testRAN, msg)
	require.Equal(t, FrameBits, frame.Size())

	site, ok := decodeOne(t, frame).(*SiteInformation)
	require.True(t, ok)
	assert.True(t, site.Valid(), site.String())
	assert.Equal(t, 0, site.CorrectedBitCount())
	assert.Equal(t, protocol.ProtocolNXDN, site.Protocol())
	assert.Equal(t, RCCHOutboundCACNormal, site.LICH())
	assert.Equal(t, ControlOutSiteInformation, site.MessageType())
	assert.Equal(t, "SITE INFORMATION", site.Opcode())
	assert.Equal(t, testRAN, site.RAN())
	assert.Equal(t, loc, site.Location())
	assert.Equal(t, 0xB0C1, site.ServiceInformation())
	assert.Equal(t, []protocol.Identifier{
		protocol.NewRAN(testRAN),
		protocol.NewSystemID(protocol.ProtocolNXDN, 0x1234),
		protocol.NewSiteID(protocol.ProtocolNXDN, 0x56),
	}, site.Identifiers())
	assert.Equal(t, "RAN:42 SITE INFORMATION REGIONAL SYS:4660 SITE:86 SERVICE:B0C1", site.String())
}

func TestControlFrameInboundCAC(t *testing.T) {
	tests := []struct {
		lich LICH
		size int
	}{
		{RCCHInboundCACLong, 128},
		{RCCHInboundCACShort, 96},
	}
	for _, tt := range tests {
		t.Run(tt.lich.String(), func(t *testing.T) {
			msg := layer3Message(tt.size, 0x01,
				fieldValue{callType, int(CallIndividual)},
				fieldValue{callSource, 1001},
				fieldValue{callDestination, 2002})

			call, ok := decodeOne(t, EncodeControlFrame(tt.lich, 7, msg)).(*VoiceCall)
			require.True(t, ok)
			assert.True(t, call.Valid(), call.String())
			assert.Equal(t, ControlInVoiceCallRequest, call.MessageType())
			assert.Equal(t, tt.lich, call.LICH())
			assert.Equal(t, CallIndividual, call.CallType())
			assert.False(t, call.Encrypted())
			assert.Equal(t, []protocol.Identifier{
				protocol.NewRAN(7),
				protocol.NewRadioID(protocol.ProtocolNXDN, protocol.RoleFrom, 1001),
				protocol.NewRadioID(protocol.ProtocolNXDN, protocol.RoleTo, 2002),
			}, call.Identifiers())
		})
	}
}

func TestControlFrameRegistrationResponse(t *testing.T) {
	loc := Location{Category: CategoryLocal, System: 0x1ABCD, Site: 0x11}
	msg := layer3Message(144, 0x20,
		fieldValue{registrationLocation, loc.Value()},
		fieldValue{registrationUnit, 4001},
		fieldValue{registrationGroup, 200},
		fieldValue{registrationCause, 0x10})

	resp, ok := decodeOne(t, EncodeControlFrame(RCCHOutboundCACCommon, testRAN, msg)).(*RegistrationResponse)
	require.True(t, ok)
	assert.True(t, resp.Valid())
	assert.True(t, resp.Accepted())
	assert.Equal(t, loc, resp.Location())
	assert.Equal(t, 4001, resp.Unit())
	assert.Equal(t, 200, resp.Group())
}

func TestTrafficFrameVoiceAndFACCH1(t *testing.T) {
	voice, frames := voiceHalfBits(0x31)
	call := layer3Message(80, 0x01,
		fieldValue{callOption, 0x80},
		fieldValue{callType, int(CallConference)},
		fieldValue{callSource, 15025},
		fieldValue{callDestination, 3120})
	sacch := bits.New(sacchData.Width())
	sacch.Load(0, 18, 0x2ABCD)

	frame := EncodeTrafficFrame(RTCHOutboundVoiceFACCH1Second, TrafficFrame{
		Structure: 3, RAN: 5, SACCH: sacch, First: voice, Second: call,
	})
	out := NewFramer(nil).Process(frame, protocol.DirectionUnknown, testTime)
	require.Len(t, out, 3)

	fragment, ok := out[0].(*SACCHFragment)
	require.True(t, ok)
	assert.True(t, fragment.Valid())
	assert.Equal(t, 5, fragment.RAN())
	assert.Equal(t, 0, fragment.Fragment())
	assert.True(t, fragment.Data().Equal(sacch))

	audio, ok := out[1].(*Audio)
	require.True(t, ok)
	assert.Equal(t, frames, audio.Frames())
	assert.Equal(t, 5, audio.RAN())

	vc, ok := out[2].(*VoiceCall)
	require.True(t, ok)
	assert.True(t, vc.Valid(), vc.String())
	assert.Equal(t, TrafficOutVoiceCall, vc.MessageType())
	assert.True(t, vc.Emergency())
	assert.Equal(t, 5, vc.RAN())
	assert.Equal(t, []protocol.Identifier{
		protocol.NewRAN(5),
		protocol.NewRadioID(protocol.ProtocolNXDN, protocol.RoleFrom, 15025),
		protocol.NewTalkgroupID(protocol.ProtocolNXDN, protocol.RoleTo, 3120),
	}, vc.Identifiers())
	assert.Equal(t, "RAN:5 VOICE CALL GROUP FM:15025 TO:3120 EMERGENCY", vc.String())
}

func TestTrafficFrameVoiceOnly(t *testing.T) {
	first, firstFrames := voiceHalfBits(0x02)
	second, secondFrames := voiceHalfBits(0x90)

	frame := EncodeTrafficFrame(RDCHInboundVoice, TrafficFrame{Structure: 1, RAN: 12, First: first, Second: second})
	out := NewFramer(nil).Process(frame, protocol.DirectionUnknown, testTime)
	require.Len(t, out, 2)

	assert.Equal(t, 2, out[0].(*SACCHFragment).Fragment())
	audio := out[1].(*Audio)
	assert.Equal(t, RDCHInboundVoice, audio.LICH())
	assert.Equal(t, append(firstFrames, secondFrames...), audio.Frames())
	assert.Equal(t, "RAN:12 AUDIO FRAMES:4", audio.String())
}

func TestTrafficFrameTwoFACCH1(t *testing.T) {
	release := layer3Message(80, 0x08, fieldValue{callSource, 77}, fieldValue{callDestination, 88})
	idle := layer3Message(80, 0x10)

	frame := EncodeTrafficFrame(RTCHCompositeFACCH1Both, TrafficFrame{RAN: 1, First: release, Second: idle})
	out := NewFramer(nil).Process(frame, protocol.DirectionUnknown, testTime)
	require.Len(t, out, 3)
	assert.IsType(t, &SACCHFragment{}, out[0])
	assert.IsType(t, &TransmissionRelease{}, out[1])
	assert.IsType(t, &Idle{}, out[2])
	for _, m := range out {
		assert.True(t, m.Valid(), m.String())
	}
}

func TestDataFrameAdjacentSites(t *testing.T) {
	first := Location{Category: CategoryGlobal, System: 0x2AB, Site: 0x101}
	second := Location{Category: CategoryGlobal, System: 0x2AB, Site: 0x102}
	msg := layer3Message(176, 0x1B,
		fieldValue{adjacentLocation, first.Value()},
		fieldValue{adjacentSite, 1},
		fieldValue{adjacentChannel, 100},
		fieldValue{adjacentLocation.Offset(adjacentStride), second.Value()},
		fieldValue{adjacentSite.Offset(adjacentStride), 2},
		fieldValue{adjacentChannel.Offset(adjacentStride), 612},
	)

	adj, ok := decodeOne(t, EncodeDataFrame(RTCHOutboundFACCH2, testRAN, msg)).(*AdjacentSiteInformation)
	require.True(t, ok)
	assert.True(t, adj.Valid(), adj.String())
	assert.Equal(t, testRAN, adj.RAN())
	assert.Equal(t, []Neighbor{
		{Number: 1, Location: first, Channel: 100},
		{Number: 2, Location: second, Channel: 612},
	}, adj.Neighbors())
	assert.Len(t, adj.Identifiers(), 5)
}

func TestFrameErrorCorrection(t *testing.T) {
	t.Run("control", func(t *testing.T) {
		msg := layer3Message(144, 0x04,
			fieldValue{callType, int(CallConference)},
			fieldValue{callSource, 500},
			fieldValue{callDestination, 600},
			fieldValue{assignmentChannel, 321})
		frame := EncodeControlFrame(RCCHOutboundCACNormal, testRAN, msg)
		frame.Flip(lichBits + 150)

		assignment, ok := decodeOne(t, frame).(*VoiceCallAssignment)
		require.True(t, ok)
		assert.True(t, assignment.Valid())
		assert.Equal(t, 1, assignment.CorrectedBitCount())
		assert.Equal(t, 321, assignment.Channel().Number)
	})

	t.Run("traffic", func(t *testing.T) {
		voice, _ := voiceHalfBits(0x44)
		disconnect := layer3Message(80, 0x11, fieldValue{disconnectCause, 0x23})
		frame := EncodeTrafficFrame(RTCHOutboundVoiceFACCH1First, TrafficFrame{RAN: 9, First: disconnect, Second: voice})
		frame.Flip(sacchStart + 7)
		frame.Flip(firstHalfStart + 100)

		out := NewFramer(nil).Process(frame, protocol.DirectionUnknown, testTime)
		require.Len(t, out, 3)
		assert.True(t, out[0].Valid())
		d, ok := out[2].(*Disconnect)
		require.True(t, ok)
		assert.True(t, d.Valid())
		assert.Equal(t, 1, d.CorrectedBitCount())
		assert.Equal(t, 0x23, d.Cause())
	})

	t.Run("beyond repair", func(t *testing.T) {
		frame := EncodeControlFrame(RCCHOutboundCACNormal, testRAN, layer3Message(144, 0x10))
		for i := lichBits; i < lichBits+120; i += 3 {
			frame.Flip(i)
		}
		msg := decodeOne(t, frame)
		assert.False(t, msg.Valid())
		assert.Contains(t, msg.String(), "[CRC-ERROR]")
	})
}

func TestFramerTracksChannel(t *testing.T) {
	framer := NewFramer(nil)
	voice, _ := voiceHalfBits(0x10)
	frame := EncodeTrafficFrame(RTCHOutboundVoice, TrafficFrame{RAN: 3, First: voice, Second: voice})

	// before any frame resolves, a corrupt LICH falls back to the control
	// channel
	corrupt := frame.Clone()
	setLICHValue(corrupt, 0x7E)
	out := framer.Process(corrupt, protocol.DirectionOutbound, testTime)
	require.Len(t, out, 1)
	assert.Equal(t, LICHUnknown, out[0].(Layer3Message).LICH())

	require.Len(t, framer.Process(frame, protocol.DirectionUnknown, testTime), 2)

	out = framer.Process(corrupt, protocol.DirectionUnknown, testTime)
	require.Len(t, out, 1)
	fragment, ok := out[0].(*SACCHFragment)
	require.True(t, ok)
	assert.Equal(t, RTCHOutboundUnknown, fragment.LICH())
	assert.True(t, fragment.Valid())
	assert.Equal(t, 3, fragment.RAN())

	framer.Reset()
	assert.Equal(t, channelState{RFChannelUnknown, protocol.DirectionInbound}, framer.tracked(protocol.DirectionInbound))
}

func TestFramerTrackedMajority(t *testing.T) {
	framer := NewFramer(nil)
	rdch := channelState{RDCH, protocol.DirectionInbound}
	rtch := channelState{RTCH, protocol.DirectionOutbound}

	framer.observe(rtch)
	framer.observe(rdch)
	assert.Equal(t, rdch, framer.tracked(protocol.DirectionUnknown), "newest wins a tie")

	framer.observe(rtch)
	framer.observe(rdch)
	framer.observe(rdch)
	assert.Equal(t, rdch, framer.tracked(protocol.DirectionUnknown))
	assert.Len(t, framer.recent, trackedFrames)
}

func TestFrameMalformedLength(t *testing.T) {
	frame := EncodeControlFrame(RCCHOutboundCACNormal, testRAN, layer3Message(144, 0x10))
	for _, size := range []int{0, 300, 400} {
		buf := bits.New(size)
		buf.Copy(0, frame.GetSubMessage(0, min(size, FrameBits)))
		out := NewFramer(nil).Process(buf, protocol.DirectionOutbound, testTime)
		require.NotEmpty(t, out, "size %d", size)
		for _, m := range out {
			assert.False(t, m.Valid(), "size %d", size)
		}
	}
}

func TestShortFACCH1Fields(t *testing.T) {
	msg := newLayer3(layer3Message(80, 0x18), ChannelTraffic, RTCHOutboundFACCH1Both, 2, testTime)
	site, ok := msg.(*SiteInformation)
	require.True(t, ok)
	assert.Equal(t, -1, site.RestrictionInformation())
	assert.Equal(t, 0, site.ServiceInformation())
}

func TestLocationRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		category := LocationCategory(rapid.IntRange(0, 3).Draw(t, "category"))
		siteBits := category.siteBits()
		loc := Location{
			Category: category,
			System:   rapid.IntRange(0, 1<<(22-siteBits)-1).Draw(t, "system"),
			Site:     rapid.IntRange(0, 1<<siteBits-1).Draw(t, "site"),
		}
		if got := parseLocation(loc.Value()); got != loc {
			t.Fatalf("got %+v, want %+v", got, loc)
		}
	})
}

func TestFramerSurvivesNoise(t *testing.T) {
	framer := NewFramer(nil)
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 60).Draw(t, "data")
		buf := bits.FromBytes(data)
		if len(data) >= 46 {
			buf = buf.GetSubMessage(0, FrameBits)
		}
		for _, m := range framer.Process(buf, protocol.DirectionUnknown, testTime) {
			_ = m.String()
			_ = m.Identifiers()
		}
	})
}
