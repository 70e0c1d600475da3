package nxdn

import (
	"fmt"
	"strings"
	"time"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// Layer 3 field positions relative to the start of the message. Every
// message opens with two flag bits and the 6-bit message type.
var (
	l3MessageType = bits.Range("MESSAGE_TYPE", 2, 7)

	callOption      = bits.Range("CC_OPTION", 8, 15)
	callType        = bits.Range("CALL_TYPE", 16, 18)
	callVoiceOption = bits.Range("VOICE_CALL_OPTION", 19, 23)
	callSource      = bits.Range("SOURCE", 24, 39)
	callDestination = bits.Range("DESTINATION", 40, 55)

	voiceCipherType = bits.Range("CIPHER_TYPE", 56, 57)
	voiceKeyID      = bits.Range("KEY_ID", 58, 63)

	assignmentTimer   = bits.Range("CALL_TIMER", 56, 61)
	assignmentChannel = bits.Range("CHANNEL", 62, 71)

	disconnectCause = bits.Range("CAUSE", 56, 63)

	siteLocation    = bits.Range("LOCATION_ID", 8, 31)
	siteStructure   = bits.Range("CHANNEL_STRUCTURE", 32, 55)
	siteService     = bits.Range("SERVICE_INFORMATION", 56, 71)
	siteRestriction = bits.Range("RESTRICTION_INFORMATION", 72, 95)

	serviceLocation    = bits.Range("LOCATION_ID", 8, 31)
	serviceService     = bits.Range("SERVICE_INFORMATION", 32, 47)
	serviceRestriction = bits.Range("RESTRICTION_INFORMATION", 48, 71)

	registrationOption   = bits.Range("OPTION", 8, 15)
	registrationLocation = bits.Range("LOCATION_ID", 16, 39)
	registrationUnit     = bits.Range("UNIT_ID", 40, 55)
	registrationGroup    = bits.Range("GROUP_ID", 56, 71)
	registrationCause    = bits.Range("CAUSE", 72, 79)

	groupRegistrationOption = bits.Range("OPTION", 8, 15)
	groupRegistrationUnit   = bits.Range("UNIT_ID", 16, 31)
	groupRegistrationGroup  = bits.Range("GROUP_ID", 32, 47)
	groupRegistrationCause  = bits.Range("CAUSE", 48, 55)

	// Adjacent site entries repeat every five octets.
	adjacentLocation = bits.Range("LOCATION_ID", 8, 31)
	adjacentOption   = bits.Range("OPTION", 32, 33)
	adjacentSite     = bits.Range("NEIGHBOR", 34, 37)
	adjacentChannel  = bits.Range("CHANNEL", 38, 47)
)

const (
	adjacentStride     = 40
	maxAdjacentEntries = 4
)

// CallType is the 3-bit call type of call control messages.
type CallType int

const (
	CallBroadcast    CallType = 0
	CallConference   CallType = 1
	CallUnspecified  CallType = 2
	CallIndividual   CallType = 4
	CallInterconnect CallType = 6
	CallSpeedDial    CallType = 7
)

func (c CallType) String() string {
	switch c {
	case CallBroadcast:
		return "BROADCAST"
	case CallConference:
		return "GROUP"
	case CallUnspecified:
		return "UNSPECIFIED"
	case CallIndividual:
		return "INDIVIDUAL"
	case CallInterconnect:
		return "INTERCONNECT"
	case CallSpeedDial:
		return "SPEED DIAL"
	}
	return fmt.Sprintf("RESERVED-%d", int(c))
}

// Group reports whether the destination is a group ID.
func (c CallType) Group() bool { return c == CallBroadcast || c == CallConference }

// LocationCategory sets how the 22 location bits split into system and
// site codes.
type LocationCategory int

const (
	CategoryGlobal   LocationCategory = 0
	CategoryLocal    LocationCategory = 1
	CategoryRegional LocationCategory = 2
	CategoryReserved LocationCategory = 3
)

func (c LocationCategory) String() string {
	return [...]string{"GLOBAL", "LOCAL", "REGIONAL", "RESERVED"}[c&3]
}

func (c LocationCategory) siteBits() int {
	switch c {
	case CategoryLocal:
		return 5
	case CategoryRegional:
		return 8
	}
	return 12
}

// Location is a 24-bit location ID.
type Location struct {
	Category LocationCategory
	System   int
	Site     int
}

func parseLocation(v int) Location {
	category := LocationCategory(v >> 22 & 3)
	code := v & 0x3FFFFF
	siteBits := category.siteBits()
	return Location{Category: category, System: code >> siteBits, Site: code & (1<<siteBits - 1)}
}

// Value packs the location back into its 24-bit form.
func (l Location) Value() int {
	return int(l.Category&3)<<22 | l.System<<l.Category.siteBits() | l.Site
}

func (l Location) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{
		protocol.NewSystemID(protocol.ProtocolNXDN, l.System),
		protocol.NewSiteID(protocol.ProtocolNXDN, l.Site),
	}
}

func (l Location) String() string {
	return fmt.Sprintf("%s SYS:%d SITE:%d", l.Category, l.System, l.Site)
}

// Layer3Message is a decoded NXDN layer 3 message.
type Layer3Message interface {
	protocol.Message
	MessageType() MessageType
	LICH() LICH
	// RAN is the radio access number, or -1 when the frame did not carry a
	// usable one.
	RAN() int
}

// Layer3 carries the state shared by layer 3 messages.
type Layer3 struct {
	protocol.Base
	messageType MessageType
	lich        LICH
	ran         int
}

func (m *Layer3) MessageType() MessageType { return m.messageType }
func (m *Layer3) LICH() LICH               { return m.lich }
func (m *Layer3) RAN() int                 { return m.ran }
func (m *Layer3) Opcode() string           { return m.messageType.String() }

func (m *Layer3) Vendor() string {
	if m.messageType.Code() == 0x3F {
		return "PROPRIETARY"
	}
	return "STANDARD"
}

func (m *Layer3) Identifiers() []protocol.Identifier { return m.ids() }

// field reads f, or -1 when the message is too short to hold it. FACCH1
// messages only carry 80 bits.
func (m *Layer3) field(f bits.Field) int {
	if f.Indices[len(f.Indices)-1] >= m.Bits().Size() {
		return -1
	}
	return m.Int(f)
}

func (m *Layer3) ids(extra ...protocol.Identifier) []protocol.Identifier {
	var out []protocol.Identifier
	if m.ran >= 0 {
		out = append(out, protocol.NewRAN(m.ran))
	}
	return append(out, extra...)
}

func (m *Layer3) prefix() string {
	s := m.messageType.String()
	if m.ran >= 0 {
		s = fmt.Sprintf("RAN:%d %s", m.ran, s)
	}
	if !m.Valid() {
		s = "[CRC-ERROR] " + s
	}
	return s
}

// UnknownMessage is a layer 3 message without a decoder.
type UnknownMessage struct {
	Layer3
}

func (m *UnknownMessage) String() string {
	return fmt.Sprintf("%s TYPE:%02X MSG:%s", m.prefix(), m.Int(l3MessageType), m.Bits().Hex())
}

// Idle fills an otherwise empty control or traffic slot.
type Idle struct {
	Layer3
}

func (m *Idle) String() string { return m.prefix() }

// call is the header shared by call control messages.
type call struct {
	Layer3
}

func (m *call) CallType() CallType { return CallType(m.field(callType)) }
func (m *call) Source() int        { return m.field(callSource) }
func (m *call) Destination() int   { return m.field(callDestination) }

// Emergency reports the emergency bit of the call control option.
func (m *call) Emergency() bool { return m.field(callOption)&0x80 != 0 }

func (m *call) callIdentifiers() []protocol.Identifier {
	var to protocol.Identifier = protocol.NewRadioID(protocol.ProtocolNXDN, protocol.RoleTo, m.Destination())
	if m.CallType().Group() {
		to = protocol.NewTalkgroupID(protocol.ProtocolNXDN, protocol.RoleTo, m.Destination())
	}
	return []protocol.Identifier{protocol.NewRadioID(protocol.ProtocolNXDN, protocol.RoleFrom, m.Source()), to}
}

func (m *call) Identifiers() []protocol.Identifier { return m.ids(m.callIdentifiers()...) }

func (m *call) callString() string {
	s := fmt.Sprintf("%s %s FM:%d TO:%d", m.prefix(), m.CallType(), m.Source(), m.Destination())
	if m.Emergency() {
		s += " EMERGENCY"
	}
	return s
}

func (m *call) String() string { return m.callString() }

// VoiceCall announces or requests a voice call.
type VoiceCall struct {
	call
}

func (m *VoiceCall) VoiceOption() int { return m.field(callVoiceOption) }
func (m *VoiceCall) CipherType() int  { return m.field(voiceCipherType) }
func (m *VoiceCall) KeyID() int       { return m.field(voiceKeyID) }
func (m *VoiceCall) Encrypted() bool  { return m.CipherType() > 0 }

func (m *VoiceCall) String() string {
	s := m.callString()
	if m.Encrypted() {
		s += fmt.Sprintf(" ENCRYPTED CIPHER:%d KEY:%d", m.CipherType(), m.KeyID())
	}
	return s
}

// VoiceCallAssignment directs a call to a traffic channel.
type VoiceCallAssignment struct {
	call
}

func (m *VoiceCallAssignment) CallTimer() int { return m.field(assignmentTimer) }

func (m *VoiceCallAssignment) Channel() protocol.Channel {
	return protocol.NewChannel(protocol.ProtocolNXDN, 0, m.field(assignmentChannel))
}

func (m *VoiceCallAssignment) Identifiers() []protocol.Identifier {
	return append(m.call.Identifiers(), m.Channel())
}

func (m *VoiceCallAssignment) String() string {
	return fmt.Sprintf("%s CHAN:%s", m.callString(), m.Channel())
}

// TransmissionRelease ends a transmission on a traffic channel.
type TransmissionRelease struct {
	call
}

// Disconnect tears down a call.
type Disconnect struct {
	call
}

func (m *Disconnect) Cause() int { return m.field(disconnectCause) }

func (m *Disconnect) String() string {
	return fmt.Sprintf("%s CAUSE:%02X", m.callString(), m.Cause())
}

// SiteInformation is the site broadcast of the control channel.
type SiteInformation struct {
	Layer3
}

func (m *SiteInformation) Location() Location          { return parseLocation(m.field(siteLocation)) }
func (m *SiteInformation) ChannelStructure() int       { return m.field(siteStructure) }
func (m *SiteInformation) ServiceInformation() int     { return m.field(siteService) }
func (m *SiteInformation) RestrictionInformation() int { return m.field(siteRestriction) }

func (m *SiteInformation) Identifiers() []protocol.Identifier {
	return m.ids(m.Location().Identifiers()...)
}

func (m *SiteInformation) String() string {
	return fmt.Sprintf("%s %s SERVICE:%04X", m.prefix(), m.Location(), m.ServiceInformation())
}

// ServiceInformation lists the services a site offers.
type ServiceInformation struct {
	Layer3
}

func (m *ServiceInformation) Location() Location          { return parseLocation(m.field(serviceLocation)) }
func (m *ServiceInformation) ServiceInformation() int     { return m.field(serviceService) }
func (m *ServiceInformation) RestrictionInformation() int { return m.field(serviceRestriction) }

func (m *ServiceInformation) Identifiers() []protocol.Identifier {
	return m.ids(m.Location().Identifiers()...)
}

func (m *ServiceInformation) String() string {
	return fmt.Sprintf("%s %s SERVICE:%04X RESTRICTION:%06X", m.prefix(), m.Location(),
		m.ServiceInformation(), m.RestrictionInformation())
}

// Neighbor is one adjacent site entry.
type Neighbor struct {
	Number   int
	Location Location
	Channel  int
}

// AdjacentSiteInformation lists neighbor sites in channel mode.
type AdjacentSiteInformation struct {
	Layer3
}

// Neighbors returns the populated entries. An entry with neighbor number
// zero ends the list.
func (m *AdjacentSiteInformation) Neighbors() []Neighbor {
	var out []Neighbor
	for i := 0; i < maxAdjacentEntries; i++ {
		offset := i * adjacentStride
		number := m.field(adjacentSite.Offset(offset))
		if number <= 0 {
			break
		}
		out = append(out, Neighbor{
			Number:   number,
			Location: parseLocation(m.field(adjacentLocation.Offset(offset))),
			Channel:  m.field(adjacentChannel.Offset(offset)),
		})
	}
	return out
}

func (m *AdjacentSiteInformation) Identifiers() []protocol.Identifier {
	var ids []protocol.Identifier
	for _, n := range m.Neighbors() {
		ids = append(ids, protocol.NewSiteID(protocol.ProtocolNXDN, n.Location.Site),
			protocol.NewChannel(protocol.ProtocolNXDN, 0, n.Channel))
	}
	return m.ids(ids...)
}

func (m *AdjacentSiteInformation) String() string {
	var sb strings.Builder
	sb.WriteString(m.prefix())
	for _, n := range m.Neighbors() {
		fmt.Fprintf(&sb, " [%d %s CHAN:%d]", n.Number, n.Location, n.Channel)
	}
	return sb.String()
}

// RegistrationResponse answers a unit registration.
type RegistrationResponse struct {
	Layer3
}

func (m *RegistrationResponse) Option() int        { return m.field(registrationOption) }
func (m *RegistrationResponse) Location() Location { return parseLocation(m.field(registrationLocation)) }
func (m *RegistrationResponse) Unit() int          { return m.field(registrationUnit) }
func (m *RegistrationResponse) Group() int         { return m.field(registrationGroup) }
func (m *RegistrationResponse) Cause() int         { return m.field(registrationCause) }

// Accepted reports a registration cause of 0x10, registration accepted.
func (m *RegistrationResponse) Accepted() bool { return m.Cause() == 0x10 }

func (m *RegistrationResponse) Identifiers() []protocol.Identifier {
	ids := append(m.Location().Identifiers(),
		protocol.NewRadioID(protocol.ProtocolNXDN, protocol.RoleTo, m.Unit()),
		protocol.NewTalkgroupID(protocol.ProtocolNXDN, protocol.RoleAny, m.Group()))
	return m.ids(ids...)
}

func (m *RegistrationResponse) String() string {
	return fmt.Sprintf("%s UNIT:%d GROUP:%d %s CAUSE:%02X", m.prefix(), m.Unit(), m.Group(), m.Location(), m.Cause())
}

// GroupRegistrationResponse answers a group registration.
type GroupRegistrationResponse struct {
	Layer3
}

func (m *GroupRegistrationResponse) Option() int { return m.field(groupRegistrationOption) }
func (m *GroupRegistrationResponse) Unit() int   { return m.field(groupRegistrationUnit) }
func (m *GroupRegistrationResponse) Group() int  { return m.field(groupRegistrationGroup) }
func (m *GroupRegistrationResponse) Cause() int  { return m.field(groupRegistrationCause) }

func (m *GroupRegistrationResponse) Identifiers() []protocol.Identifier {
	return m.ids(
		protocol.NewRadioID(protocol.ProtocolNXDN, protocol.RoleTo, m.Unit()),
		protocol.NewTalkgroupID(protocol.ProtocolNXDN, protocol.RoleAny, m.Group()),
	)
}

func (m *GroupRegistrationResponse) String() string {
	return fmt.Sprintf("%s UNIT:%d GROUP:%d CAUSE:%02X", m.prefix(), m.Unit(), m.Group(), m.Cause())
}

// newLayer3 builds the typed message for msg. Validity is left to the
// caller, which owns the CRC.
func newLayer3(msg *bits.Buffer, kind ChannelKind, lich LICH, ran int, timestamp time.Time) Layer3Message {
	mt := LookupMessageType(kind, lich.Direction(), msg.Int(l3MessageType))
	base := Layer3{Base: protocol.NewBase(protocol.ProtocolNXDN, msg, timestamp), messageType: mt, lich: lich, ran: ran}

	switch mt {
	case ControlInVoiceCallRequest, ControlOutVoiceCallResponse, TrafficInVoiceCall, TrafficOutVoiceCall:
		return &VoiceCall{call{base}}
	case ControlOutVoiceCallAssignment, ControlOutVoiceCallAssignmentDuplicate,
		TrafficOutVoiceCallAssignment, TrafficOutVoiceCallAssignmentDuplicate:
		return &VoiceCallAssignment{call{base}}
	case TrafficInTransmissionRelease, TrafficOutTransmissionRelease, TrafficOutTransmissionReleaseExtension:
		return &TransmissionRelease{call{base}}
	case ControlOutDisconnect, ControlInDisconnectRequest, TrafficOutDisconnect, TrafficInDisconnectRequest:
		return &Disconnect{call{base}}
	case ControlOutIdle, TrafficOutIdle:
		return &Idle{base}
	case ControlOutSiteInformation, TrafficOutSiteInformation:
		return &SiteInformation{base}
	case ControlOutServiceInformation, TrafficOutServiceInformation:
		return &ServiceInformation{base}
	case ControlOutAdjacentSiteInformation, TrafficOutAdjacentSiteInformation:
		return &AdjacentSiteInformation{base}
	case ControlOutRegistrationResponse:
		return &RegistrationResponse{base}
	case ControlOutGroupRegistrationResponse:
		return &GroupRegistrationResponse{base}
	}
	return &UnknownMessage{base}
}
