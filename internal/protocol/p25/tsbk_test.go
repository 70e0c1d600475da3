package p25

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/codec"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

const testNAC = 0x293

type fieldValue struct {
	f     bits.Field
	value int
}

// tsbkPayload builds an unprotected 96-bit signalling block.
func tsbkPayload(last bool, mfid, opcode int, fields ...fieldValue) *bits.Buffer {
	buf := bits.New(TSBKBits)
	buf.SetBit(0, last)
	fields = append(fields, fieldValue{tsbkOpcode, opcode}, fieldValue{tsbkMFID, mfid})
	for _, fv := range fields {
		buf.Load(fv.f.Start(), fv.f.Width(), uint64(fv.value))
	}
	return buf
}

func createTSBKBlock(t *testing.T, block *bits.Buffer, direction protocol.Direction) TSBKMessage {
	t.Helper()
	msg := NewTSBKFactory(nil).Create(block, testNAC, direction, testTime)
	require.NotNil(t, msg)
	return msg
}

func TestTSBKGroupVoiceChannelGrant(t *testing.T) {
	payload := tsbkPayload(true, 0x00, 0x00,
		fieldValue{tsbkServiceOptions, 0xC3},
		fieldValue{grantChannel, 0x1123},
		fieldValue{grantGroup, 3120},
		fieldValue{tsbkSource, 15025},
	)
	block := EncodeTSBK(payload)
	block.Flip(33)
	block.Flip(150)

	msg := createTSBKBlock(t, block, protocol.DirectionOutbound)
	grant, ok := msg.(*GroupVoiceChannelGrant)
	require.True(t, ok, "got %T", msg)
	assert.True(t, grant.Valid())
	assert.Equal(t, 0, grant.Residual())
	assert.Positive(t, grant.CorrectedBitCount())
	assert.True(t, grant.LastBlock())
	assert.Equal(t, OSPGroupVoiceChannelGrant, grant.TSBKOpcode())
	assert.Equal(t, "STANDARD", grant.Vendor())
	assert.Equal(t, 3120, grant.Group())
	assert.Equal(t, 15025, grant.Source())
	assert.Equal(t, "1-291", grant.Channel().String())

	so := grant.ServiceOptions()
	assert.True(t, so.Emergency())
	assert.True(t, so.Encrypted())
	assert.False(t, so.Duplex())
	assert.Equal(t, 3, so.Priority())

	ids := grant.Identifiers()
	require.Len(t, ids, 4)
	assert.Equal(t, protocol.NewNAC(testNAC), ids[0])
	assert.Equal(t, protocol.NewTalkgroupID(protocol.ProtocolP25, protocol.RoleTo, 3120), ids[1])
	assert.Contains(t, grant.String(), "NAC:293 TSBK GROUP VOICE CHANNEL GRANT FM:15025 TO:3120")
}

func TestTSBKCRCFailure(t *testing.T) {
	payload := tsbkPayload(true, 0x00, 0x00, fieldValue{grantGroup, 3120})
	EncodeTSBK(payload)
	payload.Flip(50)

	msg := createTSBKBlock(t, codec.P25DataInterleave(codec.Trellis12Encode(payload)), protocol.DirectionOutbound)
	require.IsType(t, &GroupVoiceChannelGrant{}, msg)
	assert.False(t, msg.Valid())
	assert.NotZero(t, msg.Residual())
	assert.Contains(t, msg.String(), "[CRC-ERROR]")
}

func TestTSBKWrongLength(t *testing.T) {
	msg := createTSBKBlock(t, bits.New(100), protocol.DirectionOutbound)
	assert.IsType(t, &UnknownTSBK{}, msg)
	assert.False(t, msg.Valid())
	assert.Equal(t, OpcodeUnknownVendorOSP, msg.TSBKOpcode())
}

func TestTSBKTypes(t *testing.T) {
	tests := []struct {
		name      string
		mfid      int
		opcode    int
		direction protocol.Direction
		want      TSBKMessage
	}{
		{"grant update", 0x00, 0x02, protocol.DirectionOutbound, &GroupVoiceChannelGrantUpdate{}},
		{"unit to unit grant", 0x00, 0x04, protocol.DirectionOutbound, &UnitToUnitVoiceChannelGrant{}},
		{"affiliation response", 0x00, 0x28, protocol.DirectionOutbound, &GroupAffiliationResponse{}},
		{"registration response", 0x00, 0x2C, protocol.DirectionOutbound, &UnitRegistrationResponse{}},
		{"rfss status", 0x00, 0x3A, protocol.DirectionOutbound, &RFSSStatusBroadcast{}},
		{"network status", 0x00, 0x3B, protocol.DirectionOutbound, &NetworkStatusBroadcast{}},
		{"adjacent status", 0x00, 0x3C, protocol.DirectionOutbound, &AdjacentStatusBroadcast{}},
		{"identifier update", 0x00, 0x3D, protocol.DirectionOutbound, &IdentifierUpdate{}},
		{"motorola patch add", 0x90, 0x00, protocol.DirectionOutbound, &MotorolaPatchGroupAdd{}},
		{"harris tdma sync", 0xA4, 0x30, protocol.DirectionOutbound, &HarrisTDMASync{}},
		{"inbound request", 0x00, 0x00, protocol.DirectionInbound, &UnknownTSBK{}},
		{"unknown vendor", 0x55, 0x00, protocol.DirectionOutbound, &UnknownTSBK{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := createTSBKBlock(t, EncodeTSBK(tsbkPayload(true, tt.mfid, tt.opcode)), tt.direction)
			assert.IsType(t, tt.want, msg)
			assert.True(t, msg.Valid())
			assert.NotEmpty(t, msg.String())
			assert.Equal(t, msg.TSBKOpcode().String(), msg.Opcode())
		})
	}
}

func TestIdentifierUpdate(t *testing.T) {
	payload := tsbkPayload(true, 0x00, 0x3D,
		fieldValue{idenIdentifier, 1},
		fieldValue{idenBandwidth, 100},
		fieldValue{idenOffsetSign, 0},
		fieldValue{idenOffset, 180},
		fieldValue{idenSpacing, 50},
		fieldValue{idenBase, 851006250 / 5},
	)
	msg := createTSBKBlock(t, EncodeTSBK(payload), protocol.DirectionOutbound)
	iden, ok := msg.(*IdentifierUpdate)
	require.True(t, ok, "got %T", msg)

	assert.Equal(t, 1, iden.Identifier())
	assert.Equal(t, 12500, iden.Bandwidth())
	assert.Equal(t, -45000000, iden.TransmitOffset())
	assert.Equal(t, 6250, iden.ChannelSpacing())
	assert.Equal(t, int64(851006250), iden.BaseFrequency())
	assert.Equal(t, int64(851068750), iden.Frequency(10))
}

func TestNetworkAndSiteStatus(t *testing.T) {
	network := createTSBKBlock(t, EncodeTSBK(tsbkPayload(true, 0x00, 0x3B,
		fieldValue{networkWACN, 0xBEE00},
		fieldValue{networkSystem, 0x2A1},
		fieldValue{statusChannel, 0x1001},
	)), protocol.DirectionOutbound).(*NetworkStatusBroadcast)
	assert.Equal(t, 0xBEE00, network.WACN())
	assert.Equal(t, 0x2A1, network.System())
	assert.Contains(t, network.String(), "WACN:BEE00 SYSTEM:2A1")

	adjacent := createTSBKBlock(t, EncodeTSBK(tsbkPayload(true, 0x00, 0x3C,
		fieldValue{statusFlags, 0x4},
		fieldValue{statusSystem, 0x2A1},
		fieldValue{statusRFSS, 1},
		fieldValue{statusSite, 7},
	)), protocol.DirectionOutbound).(*AdjacentStatusBroadcast)
	assert.True(t, adjacent.Failed())
	assert.False(t, adjacent.Conventional())
	assert.Equal(t, 7, adjacent.Site())
	assert.Contains(t, adjacent.String(), "FAILED")
	assert.Contains(t, adjacent.Identifiers(), protocol.Identifier(protocol.NewSiteID(protocol.ProtocolP25, 7)))
}

func TestResponses(t *testing.T) {
	affiliation := createTSBKBlock(t, EncodeTSBK(tsbkPayload(true, 0x00, 0x28,
		fieldValue{affiliationValue, 2},
		fieldValue{affiliationGroup, 3120},
		fieldValue{affiliationTarget, 15025},
	)), protocol.DirectionOutbound).(*GroupAffiliationResponse)
	assert.False(t, affiliation.Accepted())
	assert.Contains(t, affiliation.String(), "DENY GROUP:3120")

	registration := createTSBKBlock(t, EncodeTSBK(tsbkPayload(true, 0x00, 0x2C,
		fieldValue{registrationSystem, 0x2A1},
		fieldValue{registrationSource, 15025},
		fieldValue{registrationTarget, 15025},
	)), protocol.DirectionOutbound).(*UnitRegistrationResponse)
	assert.True(t, registration.Accepted())
	assert.Equal(t, 15025, registration.SourceID())
	assert.Contains(t, registration.String(), "ACCEPT SYSTEM:2A1")
}

func TestMotorolaPatchGroupAdd(t *testing.T) {
	msg := createTSBKBlock(t, EncodeTSBK(tsbkPayload(true, 0x90, 0x00,
		fieldValue{patchSuperGroup, 500},
		fieldValue{patchGroups[0], 100},
		fieldValue{patchGroups[1], 100},
		fieldValue{patchGroups[2], 500},
	)), protocol.DirectionOutbound)
	patch, ok := msg.(*MotorolaPatchGroupAdd)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "MOTOROLA", patch.Vendor())
	assert.Equal(t, 500, patch.PatchGroup())
	assert.Equal(t, []int{100}, patch.Groups())
	assert.Len(t, patch.Identifiers(), 3)
}

func TestGrantUpdateSingleEntry(t *testing.T) {
	msg := createTSBKBlock(t, EncodeTSBK(tsbkPayload(true, 0x00, 0x02,
		fieldValue{updateChannelA, 0x1010},
		fieldValue{updateGroupA, 3120},
		fieldValue{updateChannelB, 0x1010},
		fieldValue{updateGroupB, 3120},
	)), protocol.DirectionOutbound).(*GroupVoiceChannelGrantUpdate)
	assert.False(t, msg.HasB())
	assert.Len(t, msg.Identifiers(), 3)
	assert.NotContains(t, msg.String(), "GROUP B")
}
