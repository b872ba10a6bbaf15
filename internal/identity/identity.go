// Package identity registers accounts, signs users in and issues session tokens.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sebastian05-bossu/1337loader/internal/config"
	"github.com/sebastian05-bossu/1337loader/internal/db"
	"github.com/sebastian05-bossu/1337loader/internal/models"
	"github.com/sebastian05-bossu/1337loader/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials indicates an unknown email or wrong password or TOTP code.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrTOTPRequired indicates the account needs a TOTP code to sign in.
	ErrTOTPRequired = errors.New("identity: totp code required")
	// ErrEmailTaken indicates a profile with the email already exists.
	ErrEmailTaken = errors.New("identity: email already registered")
	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = errors.New("identity: invalid email")
	// ErrWeakPassword indicates the password is shorter than MinPasswordLength.
	ErrWeakPassword = errors.New("identity: password too short")
	// ErrInvalidSession indicates a missing, expired or forged session token.
	ErrInvalidSession = errors.New("identity: invalid session")
	// ErrInvalidResetToken indicates an unknown, expired or already used reset token.
	ErrInvalidResetToken = errors.New("identity: invalid reset token")
	// ErrInvalidTOTPCode indicates a wrong TOTP code during enrollment changes.
	ErrInvalidTOTPCode = errors.New("identity: invalid totp code")
	// ErrTOTPNotPrepared indicates ConfirmTOTP was called without PrepareTOTP.
	ErrTOTPNotPrepared = errors.New("identity: totp not prepared")
	// ErrTOTPAlreadyEnabled indicates TOTP is already active on the account.
	ErrTOTPAlreadyEnabled = errors.New("identity: totp already enabled")
	// ErrTOTPNotEnabled indicates TOTP is not active on the account.
	ErrTOTPNotEnabled = errors.New("identity: totp not enabled")
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 6
	// ResetTokenTTL is how long a password reset token stays valid.
	ResetTokenTTL = time.Hour
	// resetTokenBytes is the entropy of a reset token.
	resetTokenBytes = 32
)

// Session is an issued session token.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
}

// Service implements the identity provider.
type Service struct {
	db  *gorm.DB
	jwt config.JWTConfig
	now func() time.Time
}

// NewService constructs a Service.
func NewService(conn *gorm.DB, jwtCfg config.JWTConfig) *Service {
	return &Service{db: conn, jwt: jwtCfg, now: time.Now}
}

// NormalizeEmail trims and lower-cases an email address and validates its shape.
func NormalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	addr, errParse := mail.ParseAddress(normalized)
	if errParse != nil || addr.Address != normalized {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// Register creates a profile and its credential in one transaction.
func (s *Service) Register(ctx context.Context, email, password string) (models.Profile, error) {
	normalized, errEmail := NormalizeEmail(email)
	if errEmail != nil {
		return models.Profile{}, errEmail
	}
	if len(password) < MinPasswordLength {
		return models.Profile{}, ErrWeakPassword
	}
	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return models.Profile{}, errHash
	}

	profile := models.Profile{
		ID:    uuid.NewString(),
		Email: normalized,
	}
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&profile).Error; errCreate != nil {
			return errCreate
		}
		credential := models.Credential{
			UserID:       profile.ID,
			PasswordHash: hash,
		}
		return tx.Create(&credential).Error
	})
	if errTx != nil {
		if db.IsUniqueViolation(errTx) {
			return models.Profile{}, ErrEmailTaken
		}
		return models.Profile{}, fmt.Errorf("identity: register: %w", errTx)
	}
	log.WithField("user_id", profile.ID).Info("identity: profile registered")
	return profile, nil
}

// SignIn verifies credentials and an optional TOTP code and issues a session.
func (s *Service) SignIn(ctx context.Context, email, password, totpCode string) (Session, error) {
	normalized, errEmail := NormalizeEmail(email)
	if errEmail != nil {
		return Session{}, ErrInvalidCredentials
	}

	var profile models.Profile
	if errFind := s.db.WithContext(ctx).Where("email = ?", normalized).Take(&profile).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("identity: find profile: %w", errFind)
	}
	credential, errCred := s.credential(ctx, profile.ID)
	if errCred != nil {
		return Session{}, errCred
	}

	if errCheck := security.CheckPassword(credential.PasswordHash, password); errCheck != nil {
		if errors.Is(errCheck, security.ErrPasswordMismatch) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, errCheck
	}
	if credential.TOTPEnabled {
		if strings.TrimSpace(totpCode) == "" {
			return Session{}, ErrTOTPRequired
		}
		if !security.ValidateTOTP(credential.TOTPSecret, totpCode) {
			return Session{}, ErrInvalidCredentials
		}
	}
	return s.issue(profile.ID, profile.Email)
}

// ParseSession validates a session token.
func (s *Service) ParseSession(token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrInvalidSession
	}
	claims, errParse := security.ParseSessionToken(s.jwt.Secret, token)
	if errParse != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, errParse)
	}
	session := Session{Token: token, UserID: claims.UserID, Email: claims.Email}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// Refresh exchanges a valid session token for a new one. The profile must still exist.
func (s *Service) Refresh(ctx context.Context, token string) (Session, error) {
	current, errParse := s.ParseSession(token)
	if errParse != nil {
		return Session{}, errParse
	}
	var profile models.Profile
	if errFind := s.db.WithContext(ctx).Where("id = ?", current.UserID).Take(&profile).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return Session{}, ErrInvalidSession
		}
		return Session{}, fmt.Errorf("identity: find profile: %w", errFind)
	}
	return s.issue(profile.ID, profile.Email)
}

// RequestPasswordReset stores a one-time reset token for the email and returns it.
// Unknown emails return an empty token and no error.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	normalized, errEmail := NormalizeEmail(email)
	if errEmail != nil {
		return "", nil
	}
	var profile models.Profile
	if errFind := s.db.WithContext(ctx).Where("email = ?", normalized).Take(&profile).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("identity: find profile: %w", errFind)
	}

	token, errToken := security.GenerateRandomString(resetTokenBytes)
	if errToken != nil {
		return "", errToken
	}
	expiresAt := s.now().UTC().Add(ResetTokenTTL)
	res := s.db.WithContext(ctx).Model(&models.Credential{}).
		Where("user_id = ?", profile.ID).
		Updates(map[string]any{
			"reset_token_hash": security.HashToken(token),
			"reset_expires_at": expiresAt,
			"updated_at":       s.now().UTC(),
		})
	if res.Error != nil {
		return "", fmt.Errorf("identity: store reset token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", nil
	}
	log.WithField("user_id", profile.ID).Info("identity: password reset requested")
	return token, nil
}

// ResetPassword consumes a reset token and sets a new password. Each token works once.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, errHash := security.HashPassword(newPassword)
	if errHash != nil {
		return errHash
	}

	now := s.now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Credential{}).
		Where("reset_token_hash = ? AND reset_expires_at > ?", security.HashToken(token), now).
		Updates(map[string]any{
			"password_hash":    hash,
			"reset_token_hash": "",
			"reset_expires_at": nil,
			"updated_at":       now,
		})
	if res.Error != nil {
		return fmt.Errorf("identity: reset password: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return ErrInvalidResetToken
	}
	return nil
}

// PrepareTOTP generates and stores a pending TOTP secret.
func (s *Service) PrepareTOTP(ctx context.Context, userID string) (security.TOTPEnrollment, error) {
	credential, errCred := s.credential(ctx, userID)
	if errCred != nil {
		return security.TOTPEnrollment{}, errCred
	}
	if credential.TOTPEnabled {
		return security.TOTPEnrollment{}, ErrTOTPAlreadyEnabled
	}
	var profile models.Profile
	if errFind := s.db.WithContext(ctx).Where("id = ?", userID).Take(&profile).Error; errFind != nil {
		return security.TOTPEnrollment{}, fmt.Errorf("identity: find profile: %w", errFind)
	}

	enrollment, errEnroll := security.NewTOTPEnrollment(profile.Email)
	if errEnroll != nil {
		return security.TOTPEnrollment{}, errEnroll
	}
	if errUpdate := s.db.WithContext(ctx).Model(&models.Credential{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"totp_secret": enrollment.Secret, "updated_at": s.now().UTC()}).Error; errUpdate != nil {
		return security.TOTPEnrollment{}, fmt.Errorf("identity: store totp secret: %w", errUpdate)
	}
	return enrollment, nil
}

// ConfirmTOTP enables TOTP once the user proves possession of the pending secret.
func (s *Service) ConfirmTOTP(ctx context.Context, userID, code string) error {
	credential, errCred := s.credential(ctx, userID)
	if errCred != nil {
		return errCred
	}
	if credential.TOTPEnabled {
		return ErrTOTPAlreadyEnabled
	}
	if credential.TOTPSecret == "" {
		return ErrTOTPNotPrepared
	}
	if !security.ValidateTOTP(credential.TOTPSecret, code) {
		return ErrInvalidTOTPCode
	}
	if errUpdate := s.db.WithContext(ctx).Model(&models.Credential{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"totp_enabled": true, "updated_at": s.now().UTC()}).Error; errUpdate != nil {
		return fmt.Errorf("identity: enable totp: %w", errUpdate)
	}
	return nil
}

// DisableTOTP turns TOTP off after checking a current code.
func (s *Service) DisableTOTP(ctx context.Context, userID, code string) error {
	credential, errCred := s.credential(ctx, userID)
	if errCred != nil {
		return errCred
	}
	if !credential.TOTPEnabled {
		return ErrTOTPNotEnabled
	}
	if !security.ValidateTOTP(credential.TOTPSecret, code) {
		return ErrInvalidTOTPCode
	}
	if errUpdate := s.db.WithContext(ctx).Model(&models.Credential{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"totp_enabled": false, "totp_secret": "", "updated_at": s.now().UTC()}).Error; errUpdate != nil {
		return fmt.Errorf("identity: disable totp: %w", errUpdate)
	}
	return nil
}

// credential loads the credential row; a missing row is ErrInvalidCredentials.
func (s *Service) credential(ctx context.Context, userID string) (models.Credential, error) {
	var credential models.Credential
	errFind := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&credential).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return models.Credential{}, ErrInvalidCredentials
		}
		return models.Credential{}, fmt.Errorf("identity: find credential: %w", errFind)
	}
	return credential, nil
}

func (s *Service) issue(userID, email string) (Session, error) {
	token, expiresAt, errSign := security.NewSessionToken(s.jwt.Secret, s.jwt.Expiry, userID, email)
	if errSign != nil {
		return Session{}, errSign
	}
	return Session{Token: token, ExpiresAt: expiresAt, UserID: userID, Email: email}, nil
}
