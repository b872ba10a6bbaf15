package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sebastian05-bossu/1337loader/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultSyncInterval = 10 * time.Second

// Syncer keeps the in-memory settings snapshot in step with the settings table.
type Syncer struct {
	db       *gorm.DB
	interval time.Duration
}

// NewSyncer constructs a settings syncer.
func NewSyncer(db *gorm.DB, interval time.Duration) *Syncer {
	if db == nil {
		return nil
	}
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	return &Syncer{db: db, interval: interval}
}

// Start runs the sync loop in the background.
func (s *Syncer) Start(ctx context.Context) {
	if s == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go s.run(ctx)
	log.Infof("settings syncer started (interval=%s)", s.interval)
}

func (s *Syncer) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := Refresh(ctx, s.db); err != nil {
				log.WithError(err).Warn("settings syncer: refresh failed")
			}
		}
	}
}

// Refresh rebuilds the in-memory settings snapshot from the DB.
func Refresh(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("settings refresh: nil db")
	}
	var rows []models.Setting
	if errFind := db.WithContext(ctx).
		Select("key", "value", "updated_at").
		Order("key ASC").
		Find(&rows).Error; errFind != nil {
		return fmt.Errorf("settings refresh: %w", errFind)
	}

	values := make(map[string]json.RawMessage, len(rows))
	maxUpdatedAt := time.Time{}
	for _, row := range rows {
		key := strings.TrimSpace(row.Key)
		if key == "" {
			continue
		}
		values[key] = json.RawMessage(row.Value)
		if row.UpdatedAt.After(maxUpdatedAt) {
			maxUpdatedAt = row.UpdatedAt
		}
	}

	StoreDBConfig(maxUpdatedAt, values)
	return nil
}
