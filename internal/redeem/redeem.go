// Package redeem converts single-use access keys into activated licenses.
package redeem

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sebastian05-bossu/1337loader/internal/models"
	"github.com/sebastian05-bossu/1337loader/internal/store"
	log "github.com/sirupsen/logrus"
)

// Result is the outcome of a successful redemption.
type Result string

const (
	// Activated means this call consumed the key and the license is now active.
	Activated Result = "activated"
	// AlreadyActive means the key was already consumed by the same user; the license is confirmed active.
	AlreadyActive Result = "already_active"
)

var (
	// ErrInvalidKey indicates no access key matches the submitted string.
	ErrInvalidKey = errors.New("redeem: invalid key")
	// ErrKeyAlreadyRedeemed indicates another user consumed the key.
	ErrKeyAlreadyRedeemed = errors.New("redeem: key already redeemed")
	// ErrKeyReservedByAnother indicates the key is claimed by another user but not yet consumed.
	ErrKeyReservedByAnother = errors.New("redeem: key reserved by another user")
	// ErrActivationPending indicates the key is consumed but the license write did not complete.
	// Retrying with the same key completes the activation.
	ErrActivationPending = errors.New("redeem: activation pending")
)

// Store is the subset of the record store used by redemption.
type Store interface {
	GetAccessKeyByKey(ctx context.Context, key string) (models.AccessKey, error)
	ConditionalUpdateAccessKey(ctx context.Context, id uint64, expected store.KeyMatch, next store.KeyUpdate) (bool, error)
	UpsertLicense(ctx context.Context, userID string, status models.LicenseStatus) error
}

// Options tunes the license step.
type Options struct {
	LicenseAttempts int              // Attempts of the license write before reporting ErrActivationPending.
	LicenseBackoff  time.Duration    // Delay between license write attempts.
	Now             func() time.Time // Clock for redeemed_at.
}

// Default license step tuning.
const (
	DefaultLicenseAttempts = 3
	DefaultLicenseBackoff  = 50 * time.Millisecond
)

// Redeemer runs the redemption transaction against a Store.
// Mutual exclusion comes only from the store's conditional update.
type Redeemer struct {
	store Store
	opts  Options
}

// NewRedeemer constructs a Redeemer, filling unset options with defaults.
func NewRedeemer(s Store, opts Options) *Redeemer {
	if opts.LicenseAttempts <= 0 {
		opts.LicenseAttempts = DefaultLicenseAttempts
	}
	if opts.LicenseBackoff < 0 {
		opts.LicenseBackoff = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Redeemer{store: s, opts: opts}
}

// Redeem redeems key for userID.
func (r *Redeemer) Redeem(ctx context.Context, userID, key string) (Result, error) {
	userID = strings.TrimSpace(userID)
	key = strings.TrimSpace(key)
	if userID == "" {
		return "", fmt.Errorf("redeem: empty user id")
	}
	if key == "" {
		return "", ErrInvalidKey
	}

	accessKey, errFind := r.store.GetAccessKeyByKey(ctx, key)
	if errFind != nil {
		if errors.Is(errFind, store.ErrNotFound) {
			return "", ErrInvalidKey
		}
		return "", fmt.Errorf("redeem: lookup key: %w", errFind)
	}

	if accessKey.IsUsed {
		if redeemedBy(accessKey) == userID {
			return r.activate(ctx, userID, AlreadyActive)
		}
		return "", ErrKeyAlreadyRedeemed
	}
	if holder := redeemedBy(accessKey); holder != "" && holder != userID {
		return "", ErrKeyReservedByAnother
	}

	applied, errUpdate := r.store.ConditionalUpdateAccessKey(ctx, accessKey.ID,
		store.KeyMatch{IsUsed: false, RedeemedByIn: []string{"", userID}},
		store.KeyUpdate{IsUsed: true, RedeemedBy: userID, RedeemedAt: r.opts.Now().UTC()},
	)
	if errUpdate != nil {
		return "", fmt.Errorf("redeem: consume key: %w", errUpdate)
	}
	if !applied {
		return r.afterLostRace(ctx, userID, key)
	}

	log.WithFields(log.Fields{"user_id": userID, "key_id": accessKey.ID}).Info("redeem: key consumed")
	return r.activate(ctx, userID, Activated)
}

// afterLostRace classifies a rejected conditional update by re-reading the key.
func (r *Redeemer) afterLostRace(ctx context.Context, userID, key string) (Result, error) {
	current, errFind := r.store.GetAccessKeyByKey(ctx, key)
	if errFind != nil {
		return "", fmt.Errorf("redeem: reload key: %w", errFind)
	}
	holder := redeemedBy(current)
	switch {
	case current.IsUsed && holder == userID:
		// A concurrent call by the same user won.
		return r.activate(ctx, userID, AlreadyActive)
	case !current.IsUsed && holder != "" && holder != userID:
		return "", ErrKeyReservedByAnother
	default:
		return "", ErrKeyAlreadyRedeemed
	}
}

// activate upserts an active license, retrying the write in-call.
func (r *Redeemer) activate(ctx context.Context, userID string, result Result) (Result, error) {
	var lastErr error
	for attempt := 1; attempt <= r.opts.LicenseAttempts; attempt++ {
		errUpsert := r.store.UpsertLicense(ctx, userID, models.LicenseStatusActive)
		if errUpsert == nil {
			return result, nil
		}
		lastErr = errUpsert
		log.WithError(errUpsert).WithFields(log.Fields{
			"user_id": userID,
			"attempt": attempt,
		}).Warn("redeem: license upsert failed")

		if attempt == r.opts.LicenseAttempts {
			break
		}
		if errWait := sleepContext(ctx, r.opts.LicenseBackoff); errWait != nil {
			lastErr = errWait
			break
		}
	}
	return "", fmt.Errorf("%w: %v", ErrActivationPending, lastErr)
}

func redeemedBy(key models.AccessKey) string {
	if key.RedeemedBy == nil {
		return ""
	}
	return *key.RedeemedBy
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
