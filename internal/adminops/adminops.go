// Package adminops implements owner-only administrative actions over keys and bans.
package adminops

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sebastian05-bossu/1337loader/internal/authz"
	"github.com/sebastian05-bossu/1337loader/internal/models"
	"github.com/sebastian05-bossu/1337loader/internal/security"
	"github.com/sebastian05-bossu/1337loader/internal/store"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrUnauthorized indicates the caller is not an unbanned owner.
	ErrUnauthorized = errors.New("adminops: unauthorized")
	// ErrUserNotFound indicates no profile matches the email.
	ErrUserNotFound = errors.New("adminops: user not found")
	// ErrAlreadyBanned indicates the user already has an active ban.
	ErrAlreadyBanned = errors.New("adminops: user already banned")
	// ErrNotBanned indicates the user has no active ban.
	ErrNotBanned = errors.New("adminops: user not banned")
	// ErrInvalidInput indicates a malformed prefix, email, reason or user id.
	ErrInvalidInput = errors.New("adminops: invalid input")
)

// Key generation parameters. 16 symbols from a 32-symbol alphabet is 80 bits.
const (
	KeySuffixLength    = 16
	maxPrefixLength    = 32
	maxGenerateRetries = 3
)

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Resolver re-checks the caller on every action.
type Resolver interface {
	Resolve(ctx context.Context, userID string) (authz.State, error)
}

// Service performs owner-authorized actions.
type Service struct {
	store    store.RecordStore
	resolver Resolver
}

// NewService constructs a Service.
func NewService(s store.RecordStore, resolver Resolver) *Service {
	return &Service{store: s, resolver: resolver}
}

// authorize resolves callerID and requires an unbanned owner.
func (s *Service) authorize(ctx context.Context, callerID string) error {
	state, errResolve := s.resolver.Resolve(ctx, callerID)
	if errResolve != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, errResolve)
	}
	if !state.OwnerAccess() {
		return ErrUnauthorized
	}
	return nil
}

// GenerateKey creates a new unused access key "<prefix>-<suffix>".
func (s *Service) GenerateKey(ctx context.Context, callerID, prefix string) (models.AccessKey, error) {
	if errAuth := s.authorize(ctx, callerID); errAuth != nil {
		return models.AccessKey{}, errAuth
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || len(prefix) > maxPrefixLength || !prefixPattern.MatchString(prefix) {
		return models.AccessKey{}, fmt.Errorf("%w: prefix must be 1-%d characters of letters, digits, '-' or '_'", ErrInvalidInput, maxPrefixLength)
	}

	var lastErr error
	for attempt := 0; attempt < maxGenerateRetries; attempt++ {
		suffix, errSuffix := security.GenerateKeySuffix(KeySuffixLength)
		if errSuffix != nil {
			return models.AccessKey{}, fmt.Errorf("adminops: generate key: %w", errSuffix)
		}
		accessKey, errInsert := s.store.InsertAccessKey(ctx, prefix+"-"+suffix, callerID)
		if errInsert == nil {
			log.WithFields(log.Fields{"key_id": accessKey.ID, "created_by": callerID}).Info("adminops: access key generated")
			return accessKey, nil
		}
		if !errors.Is(errInsert, store.ErrConflict) {
			return models.AccessKey{}, fmt.Errorf("adminops: insert key: %w", errInsert)
		}
		lastErr = errInsert
	}
	return models.AccessKey{}, fmt.Errorf("adminops: insert key: %w", lastErr)
}

// BanByEmail issues an active ban for the profile with the given email.
func (s *Service) BanByEmail(ctx context.Context, callerID, email, reason string) (models.UserBan, error) {
	if errAuth := s.authorize(ctx, callerID); errAuth != nil {
		return models.UserBan{}, errAuth
	}
	email = strings.TrimSpace(email)
	reason = strings.TrimSpace(reason)
	if email == "" || reason == "" {
		return models.UserBan{}, fmt.Errorf("%w: email and reason are required", ErrInvalidInput)
	}

	profile, errFind := s.store.GetProfileByEmail(ctx, email)
	if errFind != nil {
		if errors.Is(errFind, store.ErrNotFound) {
			return models.UserBan{}, ErrUserNotFound
		}
		return models.UserBan{}, fmt.Errorf("adminops: find profile: %w", errFind)
	}

	ban, errInsert := s.store.InsertBan(ctx, profile.ID, callerID, reason)
	if errInsert != nil {
		if errors.Is(errInsert, store.ErrConflict) {
			return models.UserBan{}, ErrAlreadyBanned
		}
		return models.UserBan{}, fmt.Errorf("adminops: insert ban: %w", errInsert)
	}
	log.WithFields(log.Fields{"user_id": profile.ID, "banned_by": callerID}).Info("adminops: user banned")
	return ban, nil
}

// Unban deactivates every active ban of userID.
func (s *Service) Unban(ctx context.Context, callerID, userID string) error {
	if errAuth := s.authorize(ctx, callerID); errAuth != nil {
		return errAuth
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	count, errDeactivate := s.store.DeactivateBans(ctx, userID)
	if errDeactivate != nil {
		return fmt.Errorf("adminops: deactivate bans: %w", errDeactivate)
	}
	if count == 0 {
		return ErrNotBanned
	}
	log.WithFields(log.Fields{"user_id": userID, "unbanned_by": callerID}).Info("adminops: user unbanned")
	return nil
}

// ListUsers lists profiles for the admin panel.
func (s *Service) ListUsers(ctx context.Context, callerID string, opts store.ListOptions) ([]models.Profile, error) {
	if errAuth := s.authorize(ctx, callerID); errAuth != nil {
		return nil, errAuth
	}
	return s.store.ListProfiles(ctx, opts)
}

// ListActiveBans lists active bans with the banned user's email.
func (s *Service) ListActiveBans(ctx context.Context, callerID string, opts store.ListOptions) ([]store.ActiveBan, error) {
	if errAuth := s.authorize(ctx, callerID); errAuth != nil {
		return nil, errAuth
	}
	return s.store.ListActiveBans(ctx, opts)
}

// ListKeys lists generated access keys.
func (s *Service) ListKeys(ctx context.Context, callerID string, opts store.ListOptions) ([]models.AccessKey, error) {
	if errAuth := s.authorize(ctx, callerID); errAuth != nil {
		return nil, errAuth
	}
	return s.store.ListAccessKeys(ctx, opts)
}
