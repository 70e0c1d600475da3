package protocol

import (
	"fmt"
)

// Role says whether an identifier names the originator or the target of a
// message.
type Role int

const (
	RoleAny Role = iota
	RoleFrom
	RoleTo
)

func (r Role) String() string {
	switch r {
	case RoleFrom:
		return "FROM"
	case RoleTo:
		return "TO"
	default:
		return "ANY"
	}
}

// Form is the kind of value an identifier carries.
type Form int

const (
	FormRadio Form = iota
	FormTalkgroup
	FormSystem
	FormSite
	FormColorCode
	FormNAC
	FormRAN
	FormLocation
	FormChannel
	FormAlias
)

var formNames = [...]string{"RADIO", "TALKGROUP", "SYSTEM", "SITE", "COLOR_CODE", "NAC", "RAN", "LOCATION", "CHANNEL", "ALIAS"}

func (f Form) String() string {
	if int(f) < len(formNames) {
		return formNames[f]
	}
	return "UNKNOWN"
}

// Identifier is a strongly typed value extracted from a message.
type Identifier interface {
	Protocol() Protocol
	Role() Role
	Form() Form
	String() string
}

type identifier struct {
	protocol Protocol
	role     Role
}

func (i identifier) Protocol() Protocol { return i.protocol }
func (i identifier) Role() Role         { return i.role }

// RadioID is an individual subscriber unit address.
type RadioID struct {
	identifier
	ID int
}

func NewRadioID(p Protocol, role Role, id int) RadioID {
	return RadioID{identifier{p, role}, id}
}

func (r RadioID) Form() Form     { return FormRadio }
func (r RadioID) String() string { return fmt.Sprintf("%d", r.ID) }

// TalkgroupID is a group address.
type TalkgroupID struct {
	identifier
	ID int
}

func NewTalkgroupID(p Protocol, role Role, id int) TalkgroupID {
	return TalkgroupID{identifier{p, role}, id}
}

func (t TalkgroupID) Form() Form     { return FormTalkgroup }
func (t TalkgroupID) String() string { return fmt.Sprintf("%d", t.ID) }

// SystemID identifies a trunked system (P25 WACN/system, NXDN system code).
type SystemID struct {
	identifier
	ID int
}

func NewSystemID(p Protocol, id int) SystemID {
	return SystemID{identifier{p, RoleAny}, id}
}

func (s SystemID) Form() Form     { return FormSystem }
func (s SystemID) String() string { return fmt.Sprintf("%03X", s.ID) }

// SiteID identifies a site within a system.
type SiteID struct {
	identifier
	ID int
}

func NewSiteID(p Protocol, id int) SiteID {
	return SiteID{identifier{p, RoleAny}, id}
}

func (s SiteID) Form() Form     { return FormSite }
func (s SiteID) String() string { return fmt.Sprintf("%d", s.ID) }

// ColorCode is the DMR color code.
type ColorCode struct {
	identifier
	Code int
}

func NewColorCode(code int) ColorCode {
	return ColorCode{identifier{ProtocolDMR, RoleAny}, code}
}

func (c ColorCode) Form() Form     { return FormColorCode }
func (c ColorCode) String() string { return fmt.Sprintf("CC:%d", c.Code) }

// NAC is the P25 network access code.
type NAC struct {
	identifier
	Code int
}

func NewNAC(code int) NAC {
	return NAC{identifier{ProtocolP25, RoleAny}, code}
}

func (n NAC) Form() Form     { return FormNAC }
func (n NAC) String() string { return fmt.Sprintf("NAC:%03X", n.Code) }

// RAN is the NXDN radio access number.
type RAN struct {
	identifier
	Number int
}

func NewRAN(number int) RAN {
	return RAN{identifier{ProtocolNXDN, RoleAny}, number}
}

func (r RAN) Form() Form     { return FormRAN }
func (r RAN) String() string { return fmt.Sprintf("RAN:%d", r.Number) }

// LocationID is a reported position in decimal degrees.
type LocationID struct {
	identifier
	Latitude, Longitude float64
}

func NewLocationID(p Protocol, role Role, lat, lon float64) LocationID {
	return LocationID{identifier{p, role}, lat, lon}
}

func (l LocationID) Form() Form     { return FormLocation }
func (l LocationID) String() string { return fmt.Sprintf("%.5f,%.5f", l.Latitude, l.Longitude) }

// Channel is a logical channel number, optionally with its band identifier.
type Channel struct {
	identifier
	Band   int
	Number int
}

func NewChannel(p Protocol, band, number int) Channel {
	return Channel{identifier{p, RoleAny}, band, number}
}

func (c Channel) Form() Form { return FormChannel }
func (c Channel) String() string {
	if c.Band > 0 {
		return fmt.Sprintf("%d-%d", c.Band, c.Number)
	}
	return fmt.Sprintf("%d", c.Number)
}

// Alias is a human readable name attached to a radio or talkgroup.
type Alias struct {
	identifier
	Name string
}

func NewAlias(p Protocol, role Role, name string) Alias {
	return Alias{identifier{p, role}, name}
}

func (a Alias) Form() Form     { return FormAlias }
func (a Alias) String() string { return a.Name }
