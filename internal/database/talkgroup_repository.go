package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TalkgroupRepository stores talkgroup aliases
type TalkgroupRepository struct {
	db *gorm.DB
}

func NewTalkgroupRepository(db *gorm.DB) *TalkgroupRepository {
	return &TalkgroupRepository{db: db}
}

// Get returns the alias of a talkgroup, or gorm.ErrRecordNotFound.
func (r *TalkgroupRepository) Get(protocol string, talkgroup uint32) (*TalkgroupAlias, error) {
	var alias TalkgroupAlias
	err := r.db.Where("protocol = ? AND talkgroup = ?", strings.ToUpper(protocol), talkgroup).First(&alias).Error
	if err != nil {
		return nil, err
	}
	return &alias, nil
}

// Upsert sets the alias of a talkgroup
func (r *TalkgroupRepository) Upsert(protocol string, talkgroup uint32, alias string) error {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return errors.New("talkgroup alias cannot be empty")
	}
	row := TalkgroupAlias{
		Protocol:  strings.ToUpper(protocol),
		Talkgroup: talkgroup,
		Alias:     alias,
		UpdatedAt: time.Now(),
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "protocol"}, {Name: "talkgroup"}},
		DoUpdates: clause.AssignmentColumns([]string{"alias", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert talkgroup %s/%d: %w", protocol, talkgroup, err)
	}
	return nil
}

// List returns the aliases of one protocol ordered by talkgroup
func (r *TalkgroupRepository) List(protocol string) ([]TalkgroupAlias, error) {
	var aliases []TalkgroupAlias
	err := r.db.Where("protocol = ?", strings.ToUpper(protocol)).
		Order("talkgroup ASC").
		Find(&aliases).Error
	return aliases, err
}

// Delete removes the alias of a talkgroup
func (r *TalkgroupRepository) Delete(protocol string, talkgroup uint32) error {
	return r.db.Where("protocol = ? AND talkgroup = ?", strings.ToUpper(protocol), talkgroup).
		Delete(&TalkgroupAlias{}).Error
}
