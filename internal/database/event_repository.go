package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dbehnke/lmrdecode/internal/protocol"
)

// NewDecodeEvent flattens a decoded message into an event row. The first
// radio or talkgroup identifier in each role fills FromID and ToID.
func NewDecodeEvent(msg protocol.Message) DecodeEvent {
	event := DecodeEvent{
		Timestamp: msg.Timestamp(),
		Protocol:  msg.Protocol().String(),
		Opcode:    msg.Opcode(),
		Vendor:    msg.Vendor(),
		Valid:     msg.Valid(),
		Residual:  msg.Residual(),
		Summary:   truncate(msg.String(), 512),
	}
	ids := msg.Identifiers()
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
		value, ok := unitValue(id)
		if !ok {
			continue
		}
		switch {
		case id.Role() == protocol.RoleFrom && event.FromID == 0:
			event.FromID = value
		case id.Role() == protocol.RoleTo && event.ToID == 0:
			event.ToID = value
		}
	}
	event.Identifiers = truncate(strings.Join(parts, " "), 512)
	return event
}

func unitValue(id protocol.Identifier) (uint32, bool) {
	switch v := id.(type) {
	case protocol.RadioID:
		return uint32(v.ID), true
	case protocol.TalkgroupID:
		return uint32(v.ID), true
	}
	return 0, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// EventRepository stores decode events
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Record stores one message
func (r *EventRepository) Record(msg protocol.Message) error {
	event := NewDecodeEvent(msg)
	if err := r.db.Create(&event).Error; err != nil {
		return fmt.Errorf("record %s event: %w", event.Opcode, err)
	}
	return nil
}

// Recent returns the newest events first
func (r *EventRepository) Recent(limit int) ([]DecodeEvent, error) {
	var events []DecodeEvent
	err := r.db.Order("timestamp DESC, id DESC").Limit(limit).Find(&events).Error
	return events, err
}

// ByUnit returns events where radioID is the source or the target
func (r *EventRepository) ByUnit(radioID uint32, limit int) ([]DecodeEvent, error) {
	var events []DecodeEvent
	err := r.db.Where("from_id = ? OR to_id = ?", radioID, radioID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// CountSince counts events per protocol from since onwards
func (r *EventRepository) CountSince(since time.Time) (map[string]int64, error) {
	var rows []struct {
		Protocol string
		Count    int64
	}
	err := r.db.Model(&DecodeEvent{}).
		Select("protocol, COUNT(*) as count").
		Where("timestamp >= ?", since).
		Group("protocol").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Protocol] = row.Count
	}
	return counts, nil
}

// Prune deletes events older than before
func (r *EventRepository) Prune(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before).Delete(&DecodeEvent{})
	return result.RowsAffected, result.Error
}
