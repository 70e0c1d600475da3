package database

import (
	"fmt"
	"strings"
	"time"
)

// RadioUser is a subscriber registered with RadioID.net. The same ID space
// is used on DMR and NXDN.
type RadioUser struct {
	RadioID   uint32    `gorm:"primarykey;not null" json:"radio_id"`
	Callsign  string    `gorm:"index;size:20" json:"callsign"`
	FirstName string    `gorm:"size:50" json:"first_name"`
	LastName  string    `gorm:"size:50" json:"last_name"`
	City      string    `gorm:"size:50" json:"city"`
	State     string    `gorm:"size:50" json:"state"`
	Country   string    `gorm:"size:50" json:"country"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RadioUser) TableName() string {
	return "radio_users"
}

// FullName returns the formatted full name
func (u RadioUser) FullName() string {
	return joinNonEmpty(" ", u.FirstName, u.LastName)
}

// Location returns the formatted location string
func (u RadioUser) Location() string {
	return joinNonEmpty(", ", u.City, u.State, u.Country)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func (u RadioUser) String() string {
	result := fmt.Sprintf("%s (%d)", u.Callsign, u.RadioID)
	if name := u.FullName(); name != "" {
		result += " - " + name
	}
	if location := u.Location(); location != "" {
		result += fmt.Sprintf(" [%s]", location)
	}
	return result
}

// IsValid checks if the user record has required fields
func (u RadioUser) IsValid() bool {
	return u.RadioID > 0 && u.Callsign != ""
}

// SanitizeFields trims every field and upper cases the callsign
func (u *RadioUser) SanitizeFields() {
	u.Callsign = strings.ToUpper(strings.TrimSpace(u.Callsign))
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	u.City = strings.TrimSpace(u.City)
	u.State = strings.TrimSpace(u.State)
	u.Country = strings.TrimSpace(u.Country)
}

// TalkgroupAlias names a talkgroup on one protocol.
type TalkgroupAlias struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	Protocol  string    `gorm:"uniqueIndex:idx_talkgroup;size:8;not null" json:"protocol"`
	Talkgroup uint32    `gorm:"uniqueIndex:idx_talkgroup;not null" json:"talkgroup"`
	Alias     string    `gorm:"size:64;not null" json:"alias"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TalkgroupAlias) TableName() string {
	return "talkgroup_aliases"
}

// DecodeEvent is one decoded message kept for later review.
type DecodeEvent struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Timestamp   time.Time `gorm:"index;not null" json:"timestamp"`
	Protocol    string    `gorm:"index;size:8;not null" json:"protocol"`
	Opcode      string    `gorm:"size:64" json:"opcode"`
	Vendor      string    `gorm:"size:32" json:"vendor"`
	Valid       bool      `json:"valid"`
	Residual    int       `json:"residual"`
	FromID      uint32    `gorm:"index" json:"from_id,omitempty"`
	ToID        uint32    `gorm:"index" json:"to_id,omitempty"`
	Identifiers string    `gorm:"size:512" json:"identifiers"`
	Summary     string    `gorm:"size:512" json:"summary"`
}

func (DecodeEvent) TableName() string {
	return "decode_events"
}
