package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"octa-backend/pkg/models"
)

// JWTClaims represents JWT claims structure. UserType distinguishes rows in
// the users table from back-office accounts in the admins table.
type JWTClaims struct {
	UserID   uint            `json:"user_id"`
	Email    string          `json:"email"`
	UserType string          `json:"user_type"` // user or admin
	Role     models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Token represents an issued access token
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
	TokenType   string `json:"token_type"`
}

// JWTService handles JWT operations
type JWTService struct {
	secretKey []byte
	tokenTTL  time.Duration
}

// NewJWTService creates a new JWT service
func NewJWTService(secretKey string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
	}
}

// GenerateUserToken issues a token for a registered user
func (s *JWTService) GenerateUserToken(user *models.User) (*Token, error) {
	return s.generate(user.ID, user.Email, "user", models.RoleUser)
}

// GenerateAdminToken issues a token for a back-office account
func (s *JWTService) GenerateAdminToken(admin *models.Admin) (*Token, error) {
	return s.generate(admin.ID, admin.Email, "admin", admin.Role)
}

func (s *JWTService) generate(id uint, email, userType string, role models.UserRole) (*Token, error) {
	expiry := time.Now().Add(s.tokenTTL)

	claims := JWTClaims{
		UserID:   id,
		Email:    email,
		UserType: userType,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Subject:   fmt.Sprintf("%s:%d", userType, id),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Token{
		AccessToken: tokenString,
		ExpiresAt:   expiry.Unix(),
		TokenType:   "Bearer",
	}, nil
}

// ValidateToken validates and parses a JWT token
func (s *JWTService) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
