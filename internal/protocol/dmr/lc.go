package dmr

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dbehnke/lmrdecode/internal/bits"
	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// Full link control field layout. Fields are shared by the 96-bit header and
// terminator form and the 77-bit embedded form.
var (
	lcProtectFlag    = bits.Range("PROTECT_FLAG", 0, 0)
	lcFLCO           = bits.Range("FLCO", 2, 7)
	lcFID            = bits.Range("FID", 8, 15)
	lcServiceOptions = bits.Range("SERVICE_OPTIONS", 16, 23)
	lcGroupAddress   = bits.Range("GROUP_ADDRESS", 24, 47)
	lcTargetAddress  = bits.Range("TARGET_ADDRESS", 24, 47)
	lcSourceAddress  = bits.Range("SOURCE_ADDRESS", 48, 71)

	lcCapPlusGroup = bits.Range("CAP_PLUS_GROUP", 32, 47)

	lcTerminatorDestination = bits.Range("DESTINATION", 16, 39)
	lcTerminatorSource      = bits.Range("SOURCE", 40, 63)
	lcTerminatorGroup       = bits.Range("GROUP", 64, 64)
	lcTerminatorSequence    = bits.Range("SEND_SEQUENCE", 68, 70)

	lcAliasFormat = bits.Range("ALIAS_FORMAT", 16, 17)
	lcAliasLength = bits.Range("ALIAS_LENGTH", 18, 22)

	lcGPSPositionError = bits.Range("POSITION_ERROR", 20, 22)
	lcGPSLongitude     = bits.Range("LONGITUDE", 23, 47)
	lcGPSLatitude      = bits.Range("LATITUDE", 48, 71)
)

const lcDataBits = 72

// LCMessage is a decoded full link control message.
type LCMessage interface {
	protocol.Message
	LCOpcode() LCOpcode
}

// LinkControl carries the state shared by all full link control messages.
type LinkControl struct {
	protocol.Base
	opcode LCOpcode
}

func newLinkControl(buf *bits.Buffer, timestamp time.Time, opcode LCOpcode) LinkControl {
	return LinkControl{Base: protocol.NewBase(protocol.ProtocolDMR, buf, timestamp), opcode: opcode}
}

func (lc *LinkControl) LCOpcode() LCOpcode { return lc.opcode }
func (lc *LinkControl) Opcode() string     { return lc.opcode.String() }
func (lc *LinkControl) FID() int           { return lc.Int(lcFID) }
func (lc *LinkControl) FLCO() int          { return lc.Int(lcFLCO) }

// ProtectFlag is set when the remainder of the link control is encrypted.
func (lc *LinkControl) ProtectFlag() bool { return lc.Bits().Bool(lcProtectFlag) }

func (lc *LinkControl) Vendor() string {
	if v := VendorFromFID(lc.FID()); v != VendorUnknown {
		return v.String()
	}
	return fmt.Sprintf("FID:%02X", lc.FID())
}

func (lc *LinkControl) Identifiers() []protocol.Identifier { return nil }

func (lc *LinkControl) prefix() string {
	var sb strings.Builder
	if !lc.Valid() {
		sb.WriteString("[CRC-ERROR] ")
	}
	sb.WriteString("FLC ")
	sb.WriteString(lc.opcode.String())
	return sb.String()
}

// ServiceOptions is the voice service options octet.
type ServiceOptions int

func (s ServiceOptions) Emergency() bool { return s&0x80 != 0 }
func (s ServiceOptions) Encrypted() bool { return s&0x40 != 0 }
func (s ServiceOptions) Broadcast() bool { return s&0x08 != 0 }
func (s ServiceOptions) OVCM() bool      { return s&0x04 != 0 }
func (s ServiceOptions) Priority() int   { return int(s) & 0x03 }

func (s ServiceOptions) String() string {
	var flags []string
	if s.Emergency() {
		flags = append(flags, "EMERGENCY")
	}
	if s.Encrypted() {
		flags = append(flags, "ENCRYPTED")
	}
	if s.Broadcast() {
		flags = append(flags, "BROADCAST")
	}
	if s.OVCM() {
		flags = append(flags, "OVCM")
	}
	if p := s.Priority(); p > 0 {
		flags = append(flags, fmt.Sprintf("PRIORITY %d", p))
	}
	return strings.Join(flags, " ")
}

func withOptions(s string, opts ServiceOptions) string {
	if o := opts.String(); o != "" {
		return s + " " + o
	}
	return s
}

// GroupVoiceChannelUser announces a group voice call in progress.
type GroupVoiceChannelUser struct {
	LinkControl
}

func (m *GroupVoiceChannelUser) ServiceOptions() ServiceOptions {
	return ServiceOptions(m.Int(lcServiceOptions))
}
func (m *GroupVoiceChannelUser) Talkgroup() int { return m.Int(lcGroupAddress) }
func (m *GroupVoiceChannelUser) Source() int    { return m.Int(lcSourceAddress) }

func (m *GroupVoiceChannelUser) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{
		protocol.NewTalkgroupID(protocol.ProtocolDMR, protocol.RoleTo, m.Talkgroup()),
		protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleFrom, m.Source()),
	}
}

func (m *GroupVoiceChannelUser) String() string {
	return withOptions(fmt.Sprintf("%s FM:%d TO:%d", m.prefix(), m.Source(), m.Talkgroup()), m.ServiceOptions())
}

// UnitToUnitVoiceChannelUser announces a private voice call in progress.
type UnitToUnitVoiceChannelUser struct {
	LinkControl
}

func (m *UnitToUnitVoiceChannelUser) ServiceOptions() ServiceOptions {
	return ServiceOptions(m.Int(lcServiceOptions))
}
func (m *UnitToUnitVoiceChannelUser) Target() int { return m.Int(lcTargetAddress) }
func (m *UnitToUnitVoiceChannelUser) Source() int { return m.Int(lcSourceAddress) }

func (m *UnitToUnitVoiceChannelUser) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{
		protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleTo, m.Target()),
		protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleFrom, m.Source()),
	}
}

func (m *UnitToUnitVoiceChannelUser) String() string {
	return withOptions(fmt.Sprintf("%s FM:%d TO:%d", m.prefix(), m.Source(), m.Target()), m.ServiceOptions())
}

// CapacityPlusWideAreaVoiceChannelUser is the Capacity Plus multi-site
// group call announcement. It carries a 16-bit group address.
type CapacityPlusWideAreaVoiceChannelUser struct {
	LinkControl
}

func (m *CapacityPlusWideAreaVoiceChannelUser) ServiceOptions() ServiceOptions {
	return ServiceOptions(m.Int(lcServiceOptions))
}
func (m *CapacityPlusWideAreaVoiceChannelUser) Talkgroup() int { return m.Int(lcCapPlusGroup) }
func (m *CapacityPlusWideAreaVoiceChannelUser) Source() int    { return m.Int(lcSourceAddress) }

func (m *CapacityPlusWideAreaVoiceChannelUser) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{
		protocol.NewTalkgroupID(protocol.ProtocolDMR, protocol.RoleTo, m.Talkgroup()),
		protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleFrom, m.Source()),
	}
}

func (m *CapacityPlusWideAreaVoiceChannelUser) String() string {
	return withOptions(fmt.Sprintf("%s FM:%d TO:%d", m.prefix(), m.Source(), m.Talkgroup()), m.ServiceOptions())
}

// HyteraGroupVoiceChannelUser is the Hytera XPT group call announcement.
type HyteraGroupVoiceChannelUser struct {
	LinkControl
}

func (m *HyteraGroupVoiceChannelUser) ServiceOptions() ServiceOptions {
	return ServiceOptions(m.Int(lcServiceOptions))
}
func (m *HyteraGroupVoiceChannelUser) Talkgroup() int { return m.Int(lcGroupAddress) }
func (m *HyteraGroupVoiceChannelUser) Source() int    { return m.Int(lcSourceAddress) }

func (m *HyteraGroupVoiceChannelUser) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{
		protocol.NewTalkgroupID(protocol.ProtocolDMR, protocol.RoleTo, m.Talkgroup()),
		protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleFrom, m.Source()),
	}
}

func (m *HyteraGroupVoiceChannelUser) String() string {
	return withOptions(fmt.Sprintf("%s FM:%d TO:%d", m.prefix(), m.Source(), m.Talkgroup()), m.ServiceOptions())
}

// AliasFormat is the character coding of a talker alias.
type AliasFormat int

const (
	AliasFormat7Bit AliasFormat = iota
	AliasFormat8Bit
	AliasFormatUTF8
	AliasFormatUTF16
)

func (f AliasFormat) String() string {
	return [...]string{"7-BIT", "ISO-8", "UTF-8", "UTF-16"}[f&3]
}

// TalkerAliasHeader starts a talker alias and carries its first characters.
type TalkerAliasHeader struct {
	LinkControl
}

func (m *TalkerAliasHeader) Format() AliasFormat { return AliasFormat(m.Int(lcAliasFormat)) }

// Length is the alias length in characters.
func (m *TalkerAliasHeader) Length() int { return m.Int(lcAliasLength) }

// Payload returns the alias bits carried by the header. The 7-bit format
// uses one extra bit.
func (m *TalkerAliasHeader) Payload() *bits.Buffer {
	if m.Format() == AliasFormat7Bit {
		return m.Bits().GetSubMessage(23, lcDataBits)
	}
	return m.Bits().GetSubMessage(24, lcDataBits)
}

func (m *TalkerAliasHeader) String() string {
	return fmt.Sprintf("%s FORMAT:%s LENGTH:%d", m.prefix(), m.Format(), m.Length())
}

// TalkerAliasBlock carries 56 further alias bits.
type TalkerAliasBlock struct {
	LinkControl
}

// Block is the block number, 1 through 3.
func (m *TalkerAliasBlock) Block() int { return m.FLCO() - FLCOTalkerAliasHeader }

func (m *TalkerAliasBlock) Payload() *bits.Buffer {
	return m.Bits().GetSubMessage(16, lcDataBits)
}

func (m *TalkerAliasBlock) String() string {
	return fmt.Sprintf("%s DATA:%s", m.prefix(), m.Payload().Hex())
}

// GPSInformation reports a radio position.
type GPSInformation struct {
	LinkControl
}

var positionErrors = [...]string{"<2M", "<20M", "<200M", "<2KM", "<20KM", "<=200KM", ">200KM", "UNKNOWN"}

func (m *GPSInformation) PositionError() string {
	return positionErrors[m.Int(lcGPSPositionError)]
}

// Longitude in decimal degrees from the 25-bit two's complement field.
func (m *GPSInformation) Longitude() float64 {
	return float64(signExtend(m.Int(lcGPSLongitude), 25)) * 360.0 / math.Exp2(25)
}

// Latitude in decimal degrees from the 24-bit two's complement field.
func (m *GPSInformation) Latitude() float64 {
	return float64(signExtend(m.Int(lcGPSLatitude), 24)) * 180.0 / math.Exp2(24)
}

func (m *GPSInformation) Identifiers() []protocol.Identifier {
	return []protocol.Identifier{
		protocol.NewLocationID(protocol.ProtocolDMR, protocol.RoleFrom, m.Latitude(), m.Longitude()),
	}
}

func (m *GPSInformation) String() string {
	return fmt.Sprintf("%s LAT:%.5f LON:%.5f ERROR:%s", m.prefix(), m.Latitude(), m.Longitude(), m.PositionError())
}

func signExtend(v, width int) int {
	if v&(1<<(width-1)) != 0 {
		return v - 1<<width
	}
	return v
}

// TerminatorData closes a data call.
type TerminatorData struct {
	LinkControl
}

func (m *TerminatorData) Destination() int  { return m.Int(lcTerminatorDestination) }
func (m *TerminatorData) Source() int       { return m.Int(lcTerminatorSource) }
func (m *TerminatorData) Group() bool       { return m.Bits().Bool(lcTerminatorGroup) }
func (m *TerminatorData) SendSequence() int { return m.Int(lcTerminatorSequence) }

func (m *TerminatorData) Identifiers() []protocol.Identifier {
	to := protocol.Identifier(protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleTo, m.Destination()))
	if m.Group() {
		to = protocol.NewTalkgroupID(protocol.ProtocolDMR, protocol.RoleTo, m.Destination())
	}
	return []protocol.Identifier{to, protocol.NewRadioID(protocol.ProtocolDMR, protocol.RoleFrom, m.Source())}
}

func (m *TerminatorData) String() string {
	return fmt.Sprintf("%s FM:%d TO:%d SEQ:%d", m.prefix(), m.Source(), m.Destination(), m.SendSequence())
}

// UnknownLC is any link control without a decoder.
type UnknownLC struct {
	LinkControl
}

func (m *UnknownLC) String() string {
	return fmt.Sprintf("%s FID:%02X FLCO:%02X DATA:%s", m.prefix(), m.FID(), m.FLCO(),
		m.Bits().GetSubMessage(16, lcDataBits).Hex())
}

func newLCMessage(opcode LCOpcode, buf *bits.Buffer, timestamp time.Time) LCMessage {
	lc := newLinkControl(buf, timestamp, opcode)
	switch opcode {
	case LCStandardGroupVoiceChannelUser, LCCapacityPlusGroupVoiceChannelUser:
		return &GroupVoiceChannelUser{lc}
	case LCStandardUnitToUnitVoiceChannelUser, LCHyteraUnitToUnitVoiceChannelUser:
		return &UnitToUnitVoiceChannelUser{lc}
	case LCCapacityPlusWideAreaVoiceChannelUser:
		return &CapacityPlusWideAreaVoiceChannelUser{lc}
	case LCHyteraGroupVoiceChannelUser:
		return &HyteraGroupVoiceChannelUser{lc}
	case LCStandardTalkerAliasHeader:
		return &TalkerAliasHeader{lc}
	case LCStandardTalkerAliasBlock1, LCStandardTalkerAliasBlock2, LCStandardTalkerAliasBlock3:
		return &TalkerAliasBlock{lc}
	case LCStandardGPSInfo:
		return &GPSInformation{lc}
	case LCStandardTerminatorData:
		return &TerminatorData{lc}
	default:
		return &UnknownLC{lc}
	}
}
