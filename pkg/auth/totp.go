package auth

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPService handles TOTP operations for back-office 2FA
type TOTPService struct {
	issuer string
}

// NewTOTPService creates a new TOTP service
func NewTOTPService(issuer string) *TOTPService {
	return &TOTPService{
		issuer: issuer,
	}
}

// GenerateSecret generates a new TOTP secret for an account
func (s *TOTPService) GenerateSecret(email string) (*otp.Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: email,
		SecretSize:  32,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	return key, nil
}

// GenerateQRCode generates a QR code URL for the TOTP secret
func (s *TOTPService) GenerateQRCode(secret, email string) (string, error) {
	params := url.Values{}
	params.Add("secret", secret)
	params.Add("issuer", s.issuer)

	otpauthURL := fmt.Sprintf("otpauth://totp/%s:%s?%s",
		url.QueryEscape(s.issuer),
		url.QueryEscape(email),
		params.Encode())

	qrURL := fmt.Sprintf("https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=%s",
		url.QueryEscape(otpauthURL))

	return qrURL, nil
}

// ValidateToken validates a TOTP token
func (s *TOTPService) ValidateToken(secret, token string) bool {
	return totp.Validate(token, secret)
}

// BackupCode represents a backup code for 2FA
type BackupCode struct {
	Code   string     `json:"code"`
	Used   bool       `json:"used"`
	UsedAt *time.Time `json:"used_at,omitempty"`
}

// GenerateBackupCodes generates backup codes for 2FA
func GenerateBackupCodes(count int) ([]BackupCode, error) {
	codes := make([]BackupCode, count)

	for i := 0; i < count; i++ {
		code, err := generateRandomCode(8)
		if err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}

		codes[i] = BackupCode{
			Code: code,
			Used: false,
		}
	}

	return codes, nil
}

// generateRandomCode generates a random alphanumeric code
func generateRandomCode(length int) (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	for i, b := range bytes {
		bytes[i] = charset[b%byte(len(charset))]
	}

	return string(bytes), nil
}

// ValidateBackupCode checks an input code against the stored set and marks
// it used on match. Returns the updated set for persisting.
func ValidateBackupCode(storedCodes string, inputCode string) (bool, []BackupCode, error) {
	var codes []BackupCode
	if err := json.Unmarshal([]byte(storedCodes), &codes); err != nil {
		return false, nil, fmt.Errorf("failed to unmarshal backup codes: %w", err)
	}

	inputCode = strings.ToUpper(strings.TrimSpace(inputCode))

	for i, code := range codes {
		if code.Code == inputCode && !code.Used {
			codes[i].Used = true
			now := time.Now()
			codes[i].UsedAt = &now
			return true, codes, nil
		}
	}

	return false, codes, nil
}
