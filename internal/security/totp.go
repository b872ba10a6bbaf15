package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

// totpIssuer labels enrolled authenticator entries.
const totpIssuer = "1337"

// TOTPEnrollment is a freshly generated TOTP secret with its provisioning URL.
type TOTPEnrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// NewTOTPEnrollment generates a TOTP secret for the account name.
func NewTOTPEnrollment(accountName string) (TOTPEnrollment, error) {
	key, errGenerate := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: accountName,
	})
	if errGenerate != nil {
		return TOTPEnrollment{}, fmt.Errorf("security: generate totp: %w", errGenerate)
	}
	return TOTPEnrollment{Secret: key.Secret(), URL: key.URL()}, nil
}

// ValidateTOTP reports whether code is valid for secret at the current time.
func ValidateTOTP(secret, code string) bool {
	code = strings.TrimSpace(code)
	if secret == "" || code == "" {
		return false
	}
	return totp.Validate(code, secret)
}

// TOTPCode generates the current code for secret.
func TOTPCode(secret string, at time.Time) (string, error) {
	code, errGenerate := totp.GenerateCode(secret, at)
	if errGenerate != nil {
		return "", fmt.Errorf("security: generate totp code: %w", errGenerate)
	}
	return code, nil
}
