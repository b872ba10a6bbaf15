package ratelimit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// sharedPauseDuration is how long the Redis backend is skipped after a failure.
const sharedPauseDuration = 30 * time.Second

const redisPingTimeout = 2 * time.Second

// SettingsProvider supplies the latest settings snapshot.
type SettingsProvider func() SettingsConfig

// RedisClientFactory constructs a Redis client for the given options.
type RedisClientFactory func(options *redis.Options) *redis.Client

// Manager counts attempts per scope. Counters live in Redis when it is enabled and reachable,
// and in process memory otherwise.
type Manager struct {
	settings SettingsProvider
	clock    func() time.Time
	local    Limiter
	shared   *sharedBackend
}

// NewManager constructs a Manager. Nil arguments select the settings snapshot, time.Now and redis.NewClient.
func NewManager(settings SettingsProvider, clock func() time.Time, dial RedisClientFactory) *Manager {
	if settings == nil {
		settings = LoadSettingsConfig
	}
	if clock == nil {
		clock = time.Now
	}
	if dial == nil {
		dial = redis.NewClient
	}
	return &Manager{
		settings: settings,
		clock:    clock,
		local:    NewMemoryLimiter(),
		shared:   &sharedBackend{dial: dial},
	}
}

// Check counts one attempt by subject against the limit and window configured for scope.
func (m *Manager) Check(ctx context.Context, scope Scope, subject string) (Result, error) {
	if m == nil {
		return Result{Allowed: true}, nil
	}
	cfg := m.settings()
	decision := cfg.Decision(scope)
	key := KeyForDecision(subject, decision)
	if key == "" {
		return Result{Allowed: true}, nil
	}
	return m.count(ctx, cfg, key, decision)
}

func (m *Manager) count(ctx context.Context, cfg SettingsConfig, key string, decision Decision) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	now := m.clock()
	if cfg.RedisEnabled {
		if result, ok := m.shared.allow(ctx, cfg, key, decision, now); ok {
			return result, nil
		}
	}
	return m.local.Allow(ctx, key, decision.Limit, decision.Window, now)
}

// Close releases the Redis client, if any.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	return m.shared.close()
}

// redisTarget identifies one Redis connection; a change reconnects.
type redisTarget struct {
	addr     string
	password string
	prefix   string
	db       int
}

func targetFromSettings(cfg SettingsConfig) (redisTarget, error) {
	target := redisTarget{
		addr:     strings.TrimSpace(cfg.RedisAddr),
		password: strings.TrimSpace(cfg.RedisPassword),
		prefix:   strings.TrimSpace(cfg.RedisPrefix),
		db:       cfg.RedisDB,
	}
	if target.addr == "" {
		return redisTarget{}, errors.New("rate limit redis: missing address")
	}
	if target.db < 0 {
		target.db = 0
	}
	return target, nil
}

// sharedBackend owns the Redis limiter and pauses it after a failure.
type sharedBackend struct {
	dial RedisClientFactory

	mu          sync.Mutex
	limiter     *RedisLimiter
	target      redisTarget
	pausedUntil time.Time
}

// allow reports ok=false when the caller should count in memory instead.
func (b *sharedBackend) allow(ctx context.Context, cfg SettingsConfig, key string, decision Decision, now time.Time) (Result, bool) {
	if b.paused(now) {
		return Result{}, false
	}
	limiter, errConnect := b.connect(ctx, cfg)
	if errConnect != nil {
		b.pause(errConnect, now)
		return Result{}, false
	}
	result, errAllow := limiter.Allow(ctx, key, decision.Limit, decision.Window, now)
	if errAllow != nil {
		b.pause(errAllow, now)
		return Result{}, false
	}
	return result, true
}

func (b *sharedBackend) paused(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if now.Before(b.pausedUntil) {
		return true
	}
	b.pausedUntil = time.Time{}
	return false
}

func (b *sharedBackend) pause(err error, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if now.Before(b.pausedUntil) {
		return
	}
	b.pausedUntil = now.Add(sharedPauseDuration)
	log.WithError(err).WithField("retry_in", sharedPauseDuration).Warn("rate limit: redis unavailable, counting in memory")
}

// connect returns the limiter for the configured target, reconnecting when the target changed.
func (b *sharedBackend) connect(ctx context.Context, cfg SettingsConfig) (*RedisLimiter, error) {
	target, errTarget := targetFromSettings(cfg)
	if errTarget != nil {
		return nil, errTarget
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limiter != nil {
		if b.target == target {
			return b.limiter, nil
		}
		_ = b.limiter.client.Close()
		b.limiter = nil
	}

	client := b.dial(&redis.Options{
		Addr:     target.addr,
		Password: target.password,
		DB:       target.db,
	})
	ctxPing, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if errPing := client.Ping(ctxPing).Err(); errPing != nil {
		_ = client.Close()
		return nil, errPing
	}
	b.limiter = NewRedisLimiter(client, target.prefix)
	b.target = target
	return b.limiter, nil
}

func (b *sharedBackend) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limiter == nil {
		return nil
	}
	errClose := b.limiter.client.Close()
	b.limiter = nil
	return errClose
}
