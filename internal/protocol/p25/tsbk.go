package p25

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

// TSBKBits is the length of a decoded trunking signalling block: 80 bits of
// message and a 16-bit CRC.
const (
	TSBKBits     = codec.TrellisPayload
	tsbkDataBits = 80
)

var (
	tsbkLastBlock = bits.Range("LAST_BLOCK", 0, 0)
	tsbkProtected = bits.Range("PROTECTED", 1, 1)
	tsbkOpcode    = bits.Range("OPCODE", 2, 7)
	tsbkMFID      = bits.Range("MFID", 8, 15)

	tsbkServiceOptions = bits.Range("SERVICE_OPTIONS", 16, 23)
	tsbkSource         = bits.Range("SOURCE", 56, 79)

	grantChannel = bits.Range("CHANNEL", 24, 39)
	grantGroup   = bits.Range("GROUP", 40, 55)

	updateChannelA = bits.Range("CHANNEL_A", 16, 31)
	updateGroupA   = bits.Range("GROUP_A", 32, 47)
	updateChannelB = bits.Range("CHANNEL_B", 48, 63)
	updateGroupB   = bits.Range("GROUP_B", 64, 79)

	uuChannel = bits.Range("CHANNEL", 16, 31)
	uuTarget  = bits.Range("TARGET", 32, 55)

	statusLRA     = bits.Range("LRA", 16, 23)
	statusFlags   = bits.Range("FLAGS", 24, 27)
	statusSystem  = bits.Range("SYSTEM", 28, 39)
	statusRFSS    = bits.Range("RFSS", 40, 47)
	statusSite    = bits.Range("SITE", 48, 55)
	statusChannel = bits.Range("CHANNEL", 56, 71)
	statusService = bits.Range("SERVICE_CLASS", 72, 79)

	networkWACN   = bits.Range("WACN", 24, 43)
	networkSystem = bits.Range("SYSTEM", 44, 55)

	idenIdentifier = bits.Range("IDENTIFIER", 16, 19)
	idenBandwidth  = bits.Range("BANDWIDTH", 20, 28)
	idenOffsetSign = bits.Range("OFFSET_SIGN", 29, 29)
	idenOffset     = bits.Range("TRANSMIT_OFFSET", 30, 37)
	idenSpacing    = bits.Range("CHANNEL_SPACING", 38, 47)
	idenBase       = bits.Range("BASE_FREQUENCY", 48, 79)

	affiliationLocal        = bits.Range("LOCAL_GLOBAL", 16, 16)
	affiliationValue        = bits.Range("AFFILIATION_VALUE", 22, 23)
	affiliationAnnouncement = bits.Range("ANNOUNCEMENT_GROUP", 24, 39)
	affiliationGroup        = bits.Range("GROUP", 40, 55)
	affiliationTarget       = bits.Range("TARGET", 56, 79)

	registrationValue  = bits.Range("REGISTRATION_VALUE", 18, 19)
	registrationSystem = bits.Range("SYSTEM", 20, 31)
	registrationSource = bits.Range("SOURCE_ID", 32, 55)
	registrationTarget = bits.Range("SOURCE_ADDRESS", 56, 79)

	patchSuperGroup = bits.Range("PATCH_GROUP", 16, 31)
	patchGroups     = [3]bits.Field{
		bits.Range("GROUP_1", 32, 47),
		bits.Range("GROUP_2", 48, 63),
		bits.Range("GROUP_3", 64, 79),
	}
)

// ServiceOptions are the P25 call service options.
type ServiceOptions int

func (s ServiceOptions) Emergency() bool { return s&0x80 != 0 }
func (s ServiceOptions) Encrypted() bool { return s&0x40 != 0 }
func (s ServiceOptions) Duplex() bool    { return s&0x20 != 0 }
func (s ServiceOptions) Packet() bool    { return s&0x10 != 0 }
func (s ServiceOptions) Priority() int   { return int(s) & 0x07 }

func (s ServiceOptions) String() string {
	out := ""
	if s.Emergency() {
		out += " EMERGENCY"
	}
	if s.Encrypted() {
		out += " ENCRYPTED"
	}
	if s.Duplex() {
		out += " DUPLEX"
	}
	if s.Packet() {
		out += " PACKET"
	}
	return fmt.Sprintf("%s PRI:%d", out, s.Priority())
}

// channel reads a 16-bit channel field: a 4-bit band identifier and a
// 12-bit channel number.
func channel(buf *bits.Buffer, f bits.Field) protocol.Channel {
	v := buf.Int(f)
	return protocol.NewChannel(protocol.ProtocolP25, v>>12, v&0xFFF)
}

// TSBKMessage is a decoded trunking signalling block.
type TSBKMessage interface {
	protocol.Message
	TSBKOpcode() Opcode
	LastBlock() bool
}

// TSBK carries the state shared by trunking signalling blocks.
type TSBK struct {
	protocol.Base
	opcode Opcode
	nac    int
}

func (t *TSBK) TSBKOpcode() Opcode { return t.opcode }
func (t *TSBK) Opcode() string     { return t.opcode.String() }
func (t *TSBK) NAC() int           { return t.nac }
func (t *TSBK) MFID() int          { return t.Int(tsbkMFID) }
func (t *TSBK) LastBlock() bool    { return t.Bits().Bool(tsbkLastBlock) }
func (t *TSBK) Protected() bool    { return t.Bits().Bool(tsbkProtected) }

func (t *TSBK) Vendor() string { return mfidLabel(t.MFID()) }

func (t *TSBK) Identifiers() []protocol.Identifier { return t.ids() }

func (t *TSBK) prefix() string {
	s := fmt.Sprintf("NAC:%03X TSBK %s", t.nac, t.opcode)
	if !t.Valid() {
		s = "[CRC-ERROR] " + s
	}
	return s
}

func (t *TSBK) ids(extra ...protocol.Identifier) []protocol.Identifier {
	return append([]protocol.Identifier{protocol.NewNAC(t.nac)}, extra...)
}

// UnknownTSBK is a signalling block without a decoder.
type UnknownTSBK struct {
	TSBK
}

func (t *UnknownTSBK) String() string {
	return fmt.Sprintf("%s MFID:%02X OPCODE:%02X ARGS:%s", t.prefix(), t.MFID(), t.Int(tsbkOpcode),
		t.Bits().GetSubMessage(16, tsbkDataBits).Hex())
}

// GroupVoiceChannelGrant assigns a traffic channel to a group call.
type GroupVoiceChannelGrant struct {
	TSBK
}

func (t *GroupVoiceChannelGrant) ServiceOptions() ServiceOptions {
	return ServiceOptions(t.Int(tsbkServiceOptions))
}
func (t *GroupVoiceChannelGrant) Channel() protocol.Channel { return channel(t.Bits(), grantChannel) }
func (t *GroupVoiceChannelGrant) Group() int                { return t.Int(grantGroup) }
func (t *GroupVoiceChannelGrant) Source() int               { return t.Int(tsbkSource) }

func (t *GroupVoiceChannelGrant) Identifiers() []protocol.Identifier {
	return t.ids(
		protocol.NewTalkgroupID(protocol.ProtocolP25, protocol.RoleTo, t.Group()),
		protocol.NewRadioID(protocol.ProtocolP25, protocol.RoleFrom, t.Source()),
		t.Channel(),
	)
}

func (t *GroupVoiceChannelGrant) String() string {
	return fmt.Sprintf("%s FM:%d TO:%d CHAN:%s%s", t.prefix(), t.Source(), t.Group(), t.Channel(), t.ServiceOptions())
}

// GroupVoiceChannelGrantUpdate lists up to two ongoing group calls.
type GroupVoiceChannelGrantUpdate struct {
	TSBK
}

func (t *GroupVoiceChannelGrantUpdate) ChannelA() protocol.Channel { return channel(t.Bits(), updateChannelA) }
func (t *GroupVoiceChannelGrantUpdate) GroupA() int                { return t.Int(updateGroupA) }
func (t *GroupVoiceChannelGrantUpdate) ChannelB() protocol.Channel { return channel(t.Bits(), updateChannelB) }
func (t *GroupVoiceChannelGrantUpdate) GroupB() int                { return t.Int(updateGroupB) }

// HasB reports whether the second update differs from the first.
func (t *GroupVoiceChannelGrantUpdate) HasB() bool {
	return t.Int(updateChannelB) != t.Int(updateChannelA) || t.GroupB() != t.GroupA()
}

func (t *GroupVoiceChannelGrantUpdate) Identifiers() []protocol.Identifier {
	ids := t.ids(protocol.NewTalkgroupID(protocol.ProtocolP25, protocol.RoleTo, t.GroupA()), t.ChannelA())
	if t.HasB() {
		ids = append(ids, protocol.NewTalkgroupID(protocol.ProtocolP25, protocol.RoleTo, t.GroupB()), t.ChannelB())
	}
	return ids
}

func (t *GroupVoiceChannelGrantUpdate) String() string {
	s := fmt.Sprintf("%s GROUP A:%d CHAN A:%s", t.prefix(), t.GroupA(), t.ChannelA())
	if t.HasB() {
		s += fmt.Sprintf(" GROUP B:%d CHAN B:%s", t.GroupB(), t.ChannelB())
	}
	return s
}

// UnitToUnitVoiceChannelGrant assigns a traffic channel to a private call.
type UnitToUnitVoiceChannelGrant struct {
	TSBK
}

func (t *UnitToUnitVoiceChannelGrant) Channel() protocol.Channel { return channel(t.Bits(), uuChannel) }
func (t *UnitToUnitVoiceChannelGrant) Target() int               { return t.Int(uuTarget) }
func (t *UnitToUnitVoiceChannelGrant) Source() int               { return t.Int(tsbkSource) }

func (t *UnitToUnitVoiceChannelGrant) Identifiers() []protocol.Identifier {
	return t.ids(
		protocol.NewRadioID(protocol.ProtocolP25, protocol.RoleTo, t.Target()),
		protocol.NewRadioID(protocol.ProtocolP25, protocol.RoleFrom, t.Source()),
		t.Channel(),
	)
}

func (t *UnitToUnitVoiceChannelGrant) String() string {
	return fmt.Sprintf("%s FM:%d TO:%d CHAN:%s", t.prefix(), t.Source(), t.Target(), t.Channel())
}

// siteStatus holds the fields shared by the RFSS and adjacent site
// broadcasts.
type siteStatus struct {
	TSBK
}

func (t *siteStatus) LRA() int                  { return t.Int(statusLRA) }
func (t *siteStatus) System() int               { return t.Int(statusSystem) }
func (t *siteStatus) RFSS() int                 { return t.Int(statusRFSS) }
func (t *siteStatus) Site() int                 { return t.Int(statusSite) }
func (t *siteStatus) Channel() protocol.Channel { return channel(t.Bits(), statusChannel) }
func (t *siteStatus) ServiceClass() int         { return t.Int(statusService) }

func (t *siteStatus) Identifiers() []protocol.Identifier {
	return t.ids(
		protocol.NewSystemID(protocol.ProtocolP25, t.System()),
		protocol.NewSiteID(protocol.ProtocolP25, t.Site()),
		t.Channel(),
	)
}

func (t *siteStatus) describe() string {
	return fmt.Sprintf("%s SYSTEM:%03X RFSS:%d SITE:%d LRA:%d CHAN:%s SVC:%02X", t.prefix(), t.System(), t.RFSS(),
		t.Site(), t.LRA(), t.Channel(), t.ServiceClass())
}

// RFSSStatusBroadcast announces the current site.
type RFSSStatusBroadcast struct {
	siteStatus
}

// ActiveNetworkConnection reports whether the site is connected to the
// RF subsystem controller.
func (t *RFSSStatusBroadcast) ActiveNetworkConnection() bool { return t.Int(statusFlags)&0x1 != 0 }

func (t *RFSSStatusBroadcast) String() string { return t.describe() }

// AdjacentStatusBroadcast announces a neighbour site.
type AdjacentStatusBroadcast struct {
	siteStatus
}

func (t *AdjacentStatusBroadcast) Conventional() bool { return t.Int(statusFlags)&0x8 != 0 }
func (t *AdjacentStatusBroadcast) Failed() bool       { return t.Int(statusFlags)&0x4 != 0 }

func (t *AdjacentStatusBroadcast) String() string {
	s := t.describe()
	if t.Failed() {
		s += " FAILED"
	}
	return s
}

// NetworkStatusBroadcast announces the wide area communications network.
type NetworkStatusBroadcast struct {
	TSBK
}

func (t *NetworkStatusBroadcast) LRA() int                  { return t.Int(statusLRA) }
func (t *NetworkStatusBroadcast) WACN() int                 { return t.Int(networkWACN) }
func (t *NetworkStatusBroadcast) System() int               { return t.Int(networkSystem) }
func (t *NetworkStatusBroadcast) Channel() protocol.Channel { return channel(t.Bits(), statusChannel) }
func (t *NetworkStatusBroadcast) ServiceClass() int         { return t.Int(statusService) }

func (t *NetworkStatusBroadcast) Identifiers() []protocol.Identifier {
	return t.ids(protocol.NewSystemID(protocol.ProtocolP25, t.System()), t.Channel())
}

func (t *NetworkStatusBroadcast) String() string {
	return fmt.Sprintf("%s WACN:%05X SYSTEM:%03X LRA:%d CHAN:%s SVC:%02X", t.prefix(), t.WACN(), t.System(), t.LRA(),
		t.Channel(), t.ServiceClass())
}

// IdentifierUpdate publishes the frequency plan of one band identifier.
type IdentifierUpdate struct {
	TSBK
}

func (t *IdentifierUpdate) Identifier() int { return t.Int(idenIdentifier) }

// Bandwidth is the channel bandwidth in Hz.
func (t *IdentifierUpdate) Bandwidth() int { return t.Int(idenBandwidth) * 125 }

// TransmitOffset is the subscriber transmit offset in Hz.
func (t *IdentifierUpdate) TransmitOffset() int {
	offset := t.Int(idenOffset) * 250000
	if !t.Bits().Bool(idenOffsetSign) {
		offset = -offset
	}
	return offset
}

// ChannelSpacing is the channel step in Hz.
func (t *IdentifierUpdate) ChannelSpacing() int { return t.Int(idenSpacing) * 125 }

// BaseFrequency is the frequency of channel zero in Hz.
func (t *IdentifierUpdate) BaseFrequency() int64 {
	return int64(t.Bits().GetLong(idenBase.Indices)) * 5
}

// Frequency returns the downlink frequency in Hz of a channel number in
// this band.
func (t *IdentifierUpdate) Frequency(number int) int64 {
	return t.BaseFrequency() + int64(number)*int64(t.ChannelSpacing())
}

func (t *IdentifierUpdate) String() string {
	return fmt.Sprintf("%s ID:%d BASE:%d SPACING:%d BW:%d OFFSET:%d", t.prefix(), t.Identifier(), t.BaseFrequency(),
		t.ChannelSpacing(), t.Bandwidth(), t.TransmitOffset())
}

// GroupAffiliationResponse answers a subscriber's group affiliation
// request.
type GroupAffiliationResponse struct {
	TSBK
}

func (t *GroupAffiliationResponse) Global() bool           { return t.Bits().Bool(affiliationLocal) }
func (t *GroupAffiliationResponse) Accepted() bool         { return t.Int(affiliationValue) == 0 }
func (t *GroupAffiliationResponse) AnnouncementGroup() int { return t.Int(affiliationAnnouncement) }
func (t *GroupAffiliationResponse) Group() int             { return t.Int(affiliationGroup) }
func (t *GroupAffiliationResponse) Target() int            { return t.Int(affiliationTarget) }

func (t *GroupAffiliationResponse) Identifiers() []protocol.Identifier {
	return t.ids(
		protocol.NewTalkgroupID(protocol.ProtocolP25, protocol.RoleAny, t.Group()),
		protocol.NewRadioID(protocol.ProtocolP25, protocol.RoleTo, t.Target()),
	)
}

func (t *GroupAffiliationResponse) String() string {
	return fmt.Sprintf("%s %s GROUP:%d ANNOUNCEMENT:%d TO:%d", t.prefix(), responseValue(t.Int(affiliationValue)),
		t.Group(), t.AnnouncementGroup(), t.Target())
}

// UnitRegistrationResponse answers a subscriber's registration request.
type UnitRegistrationResponse struct {
	TSBK
}

func (t *UnitRegistrationResponse) Accepted() bool { return t.Int(registrationValue) == 0 }
func (t *UnitRegistrationResponse) System() int    { return t.Int(registrationSystem) }
func (t *UnitRegistrationResponse) SourceID() int  { return t.Int(registrationSource) }
func (t *UnitRegistrationResponse) Address() int   { return t.Int(registrationTarget) }

func (t *UnitRegistrationResponse) Identifiers() []protocol.Identifier {
	return t.ids(
		protocol.NewSystemID(protocol.ProtocolP25, t.System()),
		protocol.NewRadioID(protocol.ProtocolP25, protocol.RoleTo, t.Address()),
	)
}

func (t *UnitRegistrationResponse) String() string {
	return fmt.Sprintf("%s %s SYSTEM:%03X ID:%d TO:%d", t.prefix(), responseValue(t.Int(registrationValue)),
		t.System(), t.SourceID(), t.Address())
}

func responseValue(v int) string {
	return [...]string{"ACCEPT", "FAIL", "DENY", "REFUSED"}[v&0x3]
}

// MotorolaPatchGroupAdd links up to three talkgroups into a patch group.
type MotorolaPatchGroupAdd struct {
	TSBK
}

func (t *MotorolaPatchGroupAdd) PatchGroup() int { return t.Int(patchSuperGroup) }

// Groups returns the distinct, non-zero patched talkgroups.
func (t *MotorolaPatchGroupAdd) Groups() []int {
	var groups []int
	seen := map[int]bool{t.PatchGroup(): true}
	for _, f := range patchGroups {
		if g := t.Int(f); g != 0 && !seen[g] {
			seen[g] = true
			groups = append(groups, g)
		}
	}
	return groups
}

func (t *MotorolaPatchGroupAdd) Identifiers() []protocol.Identifier {
	ids := t.ids(protocol.NewTalkgroupID(protocol.ProtocolP25, protocol.RoleTo, t.PatchGroup()))
	for _, g := range t.Groups() {
		ids = append(ids, protocol.NewTalkgroupID(protocol.ProtocolP25, protocol.RoleAny, g))
	}
	return ids
}

func (t *MotorolaPatchGroupAdd) String() string {
	return fmt.Sprintf("%s PATCH GROUP:%d GROUPS:%v", t.prefix(), t.PatchGroup(), t.Groups())
}

// HarrisTDMASync is the Harris TDMA synchronisation broadcast. Its payload
// is not decoded.
type HarrisTDMASync struct {
	TSBK
}

func (t *HarrisTDMASync) String() string {
	return fmt.Sprintf("%s ARGS:%s", t.prefix(), t.Bits().GetSubMessage(16, tsbkDataBits).Hex())
}

// TSBKFactory decodes trunking signalling blocks. It is stateless and safe
// for concurrent use.
type TSBKFactory struct {
	logger *log.Logger
}

func NewTSBKFactory(logger *log.Logger) *TSBKFactory {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &TSBKFactory{logger: logger}
}

// Create decodes one 196-bit interleaved, trellis coded block. The result
// is always a typed message; CRC failures are flagged invalid.
func (f *TSBKFactory) Create(block *bits.Buffer, nac int, direction protocol.Direction, timestamp time.Time) TSBKMessage {
	if block.Size() != codec.P25DataBlockBits {
		f.logger.Warn("unexpected TSBK length", "bits", block.Size())
		t := &UnknownTSBK{TSBK{Base: protocol.NewBase(protocol.ProtocolP25, bits.New(TSBKBits), timestamp), nac: nac}}
		t.opcode = LookupOpcode(-1, -1, direction)
		t.SetValid(false)
		return t
	}

	msg := codec.Trellis12Decode(codec.P25DataDeinterleave(block, 0), 0)
	return createTSBK(msg, nac, direction, timestamp)
}

func createTSBK(msg *bits.Buffer, nac int, direction protocol.Direction, timestamp time.Time) TSBKMessage {
	opcode := LookupOpcode(msg.Int(tsbkMFID), msg.Int(tsbkOpcode), direction)
	base := TSBK{Base: protocol.NewBase(protocol.ProtocolP25, msg, timestamp), opcode: opcode, nac: nac}
	base.SetResidual(correction.CRCCCITT16.Residual(msg, 0, tsbkDataBits, tsbkDataBits))

	switch opcode {
	case OSPGroupVoiceChannelGrant:
		return &GroupVoiceChannelGrant{base}
	case OSPGroupVoiceChannelGrantUpdate:
		return &GroupVoiceChannelGrantUpdate{base}
	case OSPUnitToUnitVoiceChannelGrant:
		return &UnitToUnitVoiceChannelGrant{base}
	case OSPRFSSStatusBroadcast:
		return &RFSSStatusBroadcast{siteStatus{base}}
	case OSPNetworkStatusBroadcast:
		return &NetworkStatusBroadcast{base}
	case OSPAdjacentStatusBroadcast:
		return &AdjacentStatusBroadcast{siteStatus{base}}
	case OSPIdentifierUpdate:
		return &IdentifierUpdate{base}
	case OSPGroupAffiliationResponse:
		return &GroupAffiliationResponse{base}
	case OSPUnitRegistrationResponse:
		return &UnitRegistrationResponse{base}
	case MotorolaOSPPatchGroupAdd:
		return &MotorolaPatchGroupAdd{base}
	case HarrisOSPTDMASync:
		return &HarrisTDMASync{base}
	default:
		return &UnknownTSBK{base}
	}
}

// EncodeTSBK writes the CRC into the first 80 bits of msg and returns the
// trellis coded, interleaved 196-bit block.
func EncodeTSBK(msg *bits.Buffer) *bits.Buffer {
	correction.CRCCCITT16.Write(msg, 0, tsbkDataBits, tsbkDataBits)
	return codec.P25DataInterleave(codec.Trellis12Encode(msg))
}
