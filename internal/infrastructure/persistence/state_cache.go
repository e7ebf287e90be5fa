// Package persistence keeps a small local cache — the saved session token
// and the last-known onboarding snapshot — so a restarted client resumes
// where it left off before the authoritative refresh lands.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/creatorly/creator-sdk/internal/domain/onboarding"
)

// savedSession is the single-row table holding the access token.
type savedSession struct {
	ID          uint `gorm:"primaryKey"`
	AccessToken string
	UpdatedAt   time.Time
}

// snapshotRow caches the last onboarding snapshot.
type snapshotRow struct {
	ID             uint `gorm:"primaryKey"`
	CurrentStep    int
	CompletedSteps string // JSON-encoded []int
	Percentage     int
	FetchedAt      time.Time
}

// StateCache is a SQLite-backed cache opened from a single file path.
type StateCache struct {
	db *gorm.DB
}

// Open opens (or creates) the cache file and migrates its schema.
func Open(path string) (*StateCache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state cache: %w", err)
	}

	if err := db.AutoMigrate(&savedSession{}, &snapshotRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate state cache: %w", err)
	}

	return &StateCache{db: db}, nil
}

// SaveToken persists the access token, replacing any previous one.
func (c *StateCache) SaveToken(accessToken string) error {
	row := savedSession{ID: 1, AccessToken: accessToken, UpdatedAt: time.Now()}
	return c.db.Save(&row).Error
}

// LoadToken returns the saved token, or false when none is stored.
func (c *StateCache) LoadToken() (string, bool, error) {
	var row savedSession
	err := c.db.First(&row, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.AccessToken, row.AccessToken != "", nil
}

// ClearToken removes the saved token. Called on logout and whenever the
// session is invalidated, so a restarted client does not resurrect a dead
// credential.
func (c *StateCache) ClearToken() error {
	return c.db.Delete(&savedSession{}, 1).Error
}

// SaveSnapshot caches an onboarding snapshot.
func (c *StateCache) SaveSnapshot(snap onboarding.Snapshot) error {
	steps, err := json.Marshal(snap.CompletedSteps)
	if err != nil {
		return err
	}
	row := snapshotRow{
		ID:             1,
		CurrentStep:    snap.CurrentStep,
		CompletedSteps: string(steps),
		Percentage:     snap.ProgressPercentage,
		FetchedAt:      time.Now(),
	}
	return c.db.Save(&row).Error
}

// LoadSnapshot returns the cached snapshot, or false when none is stored.
func (c *StateCache) LoadSnapshot() (onboarding.Snapshot, bool, error) {
	var row snapshotRow
	err := c.db.First(&row, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return onboarding.Snapshot{}, false, nil
	}
	if err != nil {
		return onboarding.Snapshot{}, false, err
	}

	var steps []int
	if row.CompletedSteps != "" {
		if err := json.Unmarshal([]byte(row.CompletedSteps), &steps); err != nil {
			return onboarding.Snapshot{}, false, err
		}
	}
	return onboarding.Snapshot{
		CurrentStep:        row.CurrentStep,
		CompletedSteps:     steps,
		ProgressPercentage: row.Percentage,
	}, true, nil
}

// ClearSnapshot removes the cached snapshot, used once onboarding completes.
func (c *StateCache) ClearSnapshot() error {
	return c.db.Delete(&snapshotRow{}, 1).Error
}

// Close closes the underlying database handle.
func (c *StateCache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
