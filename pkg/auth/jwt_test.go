package auth

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"octa-backend/pkg/models"
)

func TestUserTokenRoundTrip(t *testing.T) {
	require := require.New(t)
	svc := NewJWTService("test-secret", time.Hour)

	token, err := svc.GenerateUserToken(&models.User{ID: 42, Email: "user@example.com"})
	require.NoError(err)
	require.Equal("Bearer", token.TokenType)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(err)
	require.Equal(uint(42), claims.UserID)
	require.Equal("user@example.com", claims.Email)
	require.Equal("user", claims.UserType)
	require.Equal(models.RoleUser, claims.Role)
}

func TestAdminTokenCarriesRole(t *testing.T) {
	require := require.New(t)
	svc := NewJWTService("test-secret", time.Hour)

	token, err := svc.GenerateAdminToken(&models.Admin{ID: 1, Email: "ops@example.com", Role: models.RoleAgent})
	require.NoError(err)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(err)
	require.Equal("admin", claims.UserType)
	require.Equal(models.RoleAgent, claims.Role)
	require.Equal("admin:1", claims.Subject)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	require := require.New(t)

	token, err := NewJWTService("secret-a", time.Hour).
		GenerateUserToken(&models.User{ID: 1, Email: "a@b.c"})
	require.NoError(err)

	_, err = NewJWTService("secret-b", time.Hour).ValidateToken(token.AccessToken)
	require.Error(err, "token signed with another secret must not validate")
}

func TestValidateTokenExpired(t *testing.T) {
	require := require.New(t)

	svc := NewJWTService("test-secret", -time.Minute)
	token, err := svc.GenerateUserToken(&models.User{ID: 1, Email: "a@b.c"})
	require.NoError(err)

	_, err = svc.ValidateToken(token.AccessToken)
	require.Error(err, "expired token must not validate")
}

func TestValidateTokenGarbage(t *testing.T) {
	assert := assert.New(t)

	svc := NewJWTService("test-secret", time.Hour)
	_, err := svc.ValidateToken("not.a.token")
	assert.Error(err)
}

func TestBackupCodes(t *testing.T) {
	require := require.New(t)

	codes, err := GenerateBackupCodes(10)
	require.NoError(err)
	require.Len(codes, 10)
	for _, c := range codes {
		require.Len(c.Code, 8)
		require.False(c.Used)
	}

	stored, err := json.Marshal(codes)
	require.NoError(err)

	// A valid code matches once and is burned afterwards.
	ok, updated, err := ValidateBackupCode(string(stored), codes[0].Code)
	require.NoError(err)
	require.True(ok)
	require.True(updated[0].Used)

	stored, err = json.Marshal(updated)
	require.NoError(err)
	ok, _, err = ValidateBackupCode(string(stored), codes[0].Code)
	require.NoError(err)
	require.False(ok, "a used backup code must not validate again")

	ok, _, err = ValidateBackupCode(string(stored), "WRONGCOD")
	require.NoError(err)
	require.False(ok)
}

func TestTOTPRoundTrip(t *testing.T) {
	require := require.New(t)

	svc := NewTOTPService("Octa")
	key, err := svc.GenerateSecret("ops@example.com")
	require.NoError(err)
	require.NotEmpty(key.Secret())

	qr, err := svc.GenerateQRCode(key.Secret(), "ops@example.com")
	require.NoError(err)
	require.Contains(qr, "otpauth")
}
