package settings

import (
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"
)

type dbConfigSnapshot struct {
	updatedAt time.Time
	values    map[string]json.RawMessage
}

var globalDBConfig atomic.Value

func init() {
	globalDBConfig.Store(dbConfigSnapshot{values: make(map[string]json.RawMessage)})
}

// StoreDBConfig replaces the in-memory settings snapshot.
func StoreDBConfig(updatedAt time.Time, values map[string]json.RawMessage) {
	next := make(map[string]json.RawMessage, len(values))
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		next[key] = value
	}
	globalDBConfig.Store(dbConfigSnapshot{updatedAt: updatedAt.UTC(), values: next})
}

// DBConfigValue returns the raw JSON value for a setting key from the snapshot.
func DBConfigValue(key string) (json.RawMessage, bool) {
	snap, _ := globalDBConfig.Load().(dbConfigSnapshot)
	if snap.values == nil {
		return nil, false
	}
	value, ok := snap.values[strings.TrimSpace(key)]
	if !ok || len(value) == 0 {
		return nil, false
	}
	return value, true
}

// DBConfigUpdatedAt returns the newest updated_at seen in the snapshot.
func DBConfigUpdatedAt() time.Time {
	snap, _ := globalDBConfig.Load().(dbConfigSnapshot)
	return snap.updatedAt
}
