package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RadioUserRepository provides database operations for radio users
type RadioUserRepository struct {
	db *gorm.DB
}

func NewRadioUserRepository(db *gorm.DB) *RadioUserRepository {
	return &RadioUserRepository{db: db}
}

// GetByRadioID finds a user by radio ID. gorm.ErrRecordNotFound is
// returned when there is none.
func (r *RadioUserRepository) GetByRadioID(radioID uint32) (*RadioUser, error) {
	var user RadioUser
	if err := r.db.Where("radio_id = ?", radioID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByCallsign finds a user by their callsign
func (r *RadioUserRepository) GetByCallsign(callsign string) (*RadioUser, error) {
	var user RadioUser
	if err := r.db.Where("callsign = ?", callsign).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert creates or updates a single user
func (r *RadioUserRepository) Upsert(user *RadioUser) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	user.SanitizeFields()
	if !user.IsValid() {
		return fmt.Errorf("user is not valid: radio_id=%d, callsign=%q", user.RadioID, user.Callsign)
	}
	user.UpdatedAt = time.Now()
	return r.db.Save(user).Error
}

// upsertBatchSize keeps each INSERT under SQLite's bound parameter limit.
const upsertBatchSize = 500

// UpsertBatch creates or updates users in one transaction, skipping
// invalid records. It returns how many were written.
func (r *RadioUserRepository) UpsertBatch(users []RadioUser) (int, error) {
	now := time.Now()
	valid := make([]RadioUser, 0, len(users))
	for _, user := range users {
		user.SanitizeFields()
		if user.IsValid() {
			user.UpdatedAt = now
			valid = append(valid, user)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	err := r.db.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(valid, upsertBatchSize).Error
	if err != nil {
		return 0, fmt.Errorf("batch upsert of %d users: %w", len(valid), err)
	}
	return len(valid), nil
}

// Count returns the total number of users
func (r *RadioUserRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&RadioUser{}).Count(&count).Error
	return count, err
}

// DeleteAll removes all users
func (r *RadioUserRepository) DeleteAll() error {
	return r.db.Where("1 = 1").Delete(&RadioUser{}).Error
}

// DeleteStale removes users not refreshed since before, which drops IDs
// that disappeared from the upstream list.
func (r *RadioUserRepository) DeleteStale(before time.Time) (int64, error) {
	result := r.db.Where("updated_at < ?", before).Delete(&RadioUser{})
	return result.RowsAffected, result.Error
}

// FindByCallsignPattern searches for callsigns starting with prefix
func (r *RadioUserRepository) FindByCallsignPattern(prefix string, limit int) ([]RadioUser, error) {
	var users []RadioUser
	err := r.db.Where("callsign LIKE ?", prefix+"%").
		Order("callsign ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// CountryCount is one row of GetStatistics' country breakdown.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// Statistics summarises the user table.
type Statistics struct {
	TotalUsers   int64
	LastUpdated  time.Time
	TopCountries []CountryCount
}

// GetStatistics returns basic database statistics
func (r *RadioUserRepository) GetStatistics() (*Statistics, error) {
	stats := &Statistics{}
	var err error
	if stats.TotalUsers, err = r.Count(); err != nil {
		return nil, err
	}

	var latest RadioUser
	err = r.db.Order("updated_at DESC").First(&latest).Error
	switch {
	case err == nil:
		stats.LastUpdated = latest.UpdatedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	err = r.db.Model(&RadioUser{}).
		Select("country, COUNT(*) as count").
		Where("country != ''").
		Group("country").
		Order("count DESC").
		Limit(10).
		Find(&stats.TopCountries).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
