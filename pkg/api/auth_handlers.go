package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"octa-backend/pkg/account"
	"octa-backend/pkg/auth"
	"octa-backend/pkg/cache"
	"octa-backend/pkg/config"
	"octa-backend/pkg/mailer"
	"octa-backend/pkg/middleware"
	"octa-backend/pkg/models"
	"octa-backend/pkg/websocket"
)

// AuthHandlers contains authentication and account lifecycle handlers
type AuthHandlers struct {
	db                *gorm.DB
	cfg               *config.Config
	jwtService        *auth.JWTService
	totpService       *auth.TOTPService
	authMiddleware    *middleware.AuthMiddleware
	sessionMiddleware *middleware.SessionMiddleware
	accounts          *account.Service
	mail              *mailer.Mailer
	hub               *websocket.Hub
}

// NewAuthHandlers creates new authentication handlers
func NewAuthHandlers(db *gorm.DB, cfg *config.Config, jwtService *auth.JWTService, totpService *auth.TOTPService,
	authMiddleware *middleware.AuthMiddleware, sessionMiddleware *middleware.SessionMiddleware,
	accounts *account.Service, mail *mailer.Mailer, hub *websocket.Hub) *AuthHandlers {
	return &AuthHandlers{
		db:                db,
		cfg:               cfg,
		jwtService:        jwtService,
		totpService:       totpService,
		authMiddleware:    authMiddleware,
		sessionMiddleware: sessionMiddleware,
		accounts:          accounts,
		mail:              mail,
		hub:               hub,
	}
}

// RegisterRequest represents user registration request
type RegisterRequest struct {
	Name              string `json:"name" binding:"required,min=2,max=100"`
	Phone             string `json:"phone" binding:"required"`
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required,min=8"`
	BankAccountNumber string `json:"bank_account_number" binding:"required"`
	BankName          string `json:"bank_name"`
	IFSCCode          string `json:"ifsc_code"`
}

// LoginRequest represents a login request. Identifier is an email address
// or a unique "octa" ID.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
	TotpCode   string `json:"totp_code,omitempty"`
	BackupCode string `json:"backup_code,omitempty"`
}

// Register handles user registration. New users land in pending and cannot
// log in until approved.
func (ah *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	validator := NewValidator()
	validator.ValidateEmail("email", req.Email)
	validator.ValidatePhone("phone", req.Phone)
	validator.ValidatePassword("password", req.Password)
	validator.ValidateString("bank_account_number", req.BankAccountNumber, 6, 30, true)
	validator.ValidateIFSC("ifsc_code", req.IFSCCode)
	if validator.HasErrors() {
		SendValidationErrors(c, validator.GetErrors())
		return
	}

	user, err := ah.accounts.Register(account.RegisterInput{
		Name:              req.Name,
		Phone:             req.Phone,
		Email:             req.Email,
		Password:          req.Password,
		BankAccountNumber: req.BankAccountNumber,
		BankName:          req.BankName,
		IFSCCode:          req.IFSCCode,
	})
	if err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	ah.authMiddleware.LogLogin(user.Email, c.ClientIP(), c.Request.UserAgent(), true, "REGISTRATION")
	ah.hub.Publish(websocket.EventUserRegistered, gin.H{
		"user_id": user.ID,
		"name":    user.Name,
		"email":   user.Email,
	})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration successful, awaiting approval",
		"user_id": user.ID,
	})
}

// Login handles login for every account type. Back-office accounts are
// matched by email first; then users by email; then users by unique ID.
func (ah *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identifier := strings.TrimSpace(req.Identifier)

	// Back-office accounts take precedence on email match
	var admin models.Admin
	if err := ah.db.Where("email = ? AND is_active = ?", strings.ToLower(identifier), true).First(&admin).Error; err == nil {
		ah.loginAdmin(c, &admin, req)
		return
	}

	// Users: email first, then unique ID
	var user models.User
	err := ah.db.Where("email = ?", strings.ToLower(identifier)).First(&user).Error
	if err != nil {
		err = ah.db.Where("unique_id = ?", identifier).First(&user).Error
	}
	if err != nil {
		ah.authMiddleware.LogLogin(identifier, c.ClientIP(), c.Request.UserAgent(), false, "USER_NOT_FOUND")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		ah.authMiddleware.LogLogin(user.Email, c.ClientIP(), c.Request.UserAgent(), false, "INVALID_PASSWORD")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// Approval gate applies to users only
	switch user.Status {
	case models.UserStatusPending:
		ah.authMiddleware.LogLogin(user.Email, c.ClientIP(), c.Request.UserAgent(), false, "ACCOUNT_PENDING")
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is awaiting approval"})
		return
	case models.UserStatusRejected:
		ah.authMiddleware.LogLogin(user.Email, c.ClientIP(), c.Request.UserAgent(), false, "ACCOUNT_REJECTED")
		c.JSON(http.StatusForbidden, gin.H{"error": "Account registration was rejected"})
		return
	}

	token, err := ah.jwtService.GenerateUserToken(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	ah.sessionMiddleware.CreateSession(user.ID, "user", token.AccessToken, c.ClientIP(), c.Request.UserAgent(), ah.cfg.JWT.ExpiresIn)
	ah.authMiddleware.LogLogin(user.Email, c.ClientIP(), c.Request.UserAgent(), true, "SUCCESS")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":        user.ID,
			"unique_id": user.UniqueID,
			"name":      user.Name,
			"email":     user.Email,
			"role":      models.RoleUser,
		},
		"token": token,
	})
}

// loginAdmin finishes a back-office login, including the 2FA step
func (ah *AuthHandlers) loginAdmin(c *gin.Context, admin *models.Admin, req LoginRequest) {
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		ah.authMiddleware.LogLogin(admin.Email, c.ClientIP(), c.Request.UserAgent(), false, "INVALID_PASSWORD")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	var twoFA models.TwoFactorAuth
	has2FA := ah.db.Where("admin_id = ? AND is_enabled = ?", admin.ID, true).First(&twoFA).Error == nil

	if has2FA {
		if req.TotpCode == "" && req.BackupCode == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":        "2FA code or backup code required",
				"requires_2fa": true,
			})
			return
		}

		validAuth := false
		if req.TotpCode != "" && ah.totpService.ValidateToken(twoFA.Secret, req.TotpCode) {
			validAuth = true
		}
		if !validAuth && req.BackupCode != "" {
			isValid, updatedCodes, err := auth.ValidateBackupCode(twoFA.BackupCodes, req.BackupCode)
			if err == nil && isValid {
				validAuth = true
				backupCodesJSON, _ := json.Marshal(updatedCodes)
				ah.db.Model(&twoFA).Update("backup_codes", string(backupCodesJSON))
			}
		}

		if !validAuth {
			ah.authMiddleware.LogLogin(admin.Email, c.ClientIP(), c.Request.UserAgent(), false, "INVALID_2FA")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid 2FA or backup code"})
			return
		}

		now := time.Now()
		ah.db.Model(&twoFA).Update("last_used_at", &now)
	}

	token, err := ah.jwtService.GenerateAdminToken(admin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	ah.sessionMiddleware.CreateSession(admin.ID, "admin", token.AccessToken, c.ClientIP(), c.Request.UserAgent(), ah.cfg.JWT.ExpiresIn)
	ah.authMiddleware.LogLogin(admin.Email, c.ClientIP(), c.Request.UserAgent(), true, "SUCCESS")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":    admin.ID,
			"name":  admin.Name,
			"email": admin.Email,
			"role":  admin.Role,
		},
		"token": token,
	})
}

// Logout invalidates the current session
func (ah *AuthHandlers) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) == 2 && tokenParts[0] == "Bearer" {
			ah.sessionMiddleware.InvalidateSession(tokenParts[1])
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

// GetProfile returns the authenticated account's profile
func (ah *AuthHandlers) GetProfile(c *gin.Context) {
	if admin, ok := middleware.GetAdminFromContext(c); ok {
		var twoFA models.TwoFactorAuth
		has2FA := ah.db.Where("admin_id = ? AND is_enabled = ?", admin.ID, true).First(&twoFA).Error == nil

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"id":         admin.ID,
				"name":       admin.Name,
				"email":      admin.Email,
				"role":       admin.Role,
				"has_2fa":    has2FA,
				"created_at": admin.CreatedAt,
			},
		})
		return
	}

	user, exists := middleware.GetUserFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":                  user.ID,
			"unique_id":           user.UniqueID,
			"name":                user.Name,
			"phone":               user.Phone,
			"email":               user.Email,
			"bank_account_number": user.BankAccountNumber,
			"bank_name":           user.BankName,
			"ifsc_code":           user.IFSCCode,
			"status":              user.Status,
			"kyc_status":          user.KYCStatus,
			"total_balance":       user.TotalBalance,
			"total_coins":         user.TotalCoins,
			"created_at":          user.CreatedAt,
		},
	})
}

// GetPendingUsers lists users awaiting approval
func (ah *AuthHandlers) GetPendingUsers(c *gin.Context) {
	users, err := ah.accounts.PendingUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pending users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
		"count":   len(users),
	})
}

// GetApprovedUsers lists approved users
func (ah *AuthHandlers) GetApprovedUsers(c *gin.Context) {
	users, err := ah.accounts.ApprovedUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
		"count":   len(users),
	})
}

// PendingCounts holds the back-office dashboard counters
type PendingCounts struct {
	Users       int64 `json:"pending_users"`
	Payments    int64 `json:"pending_payments"`
	Withdrawals int64 `json:"pending_withdrawals"`
}

// GetPendingCounts returns how much work awaits the back office. The
// dashboard polls this endpoint, so the counters sit behind a short cache.
func (ah *AuthHandlers) GetPendingCounts(c *gin.Context) {
	var counts PendingCounts
	if err := cache.GetPendingCounts(&counts); err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    counts,
		})
		return
	}

	if err := ah.db.Model(&models.User{}).
		Where("status = ?", models.UserStatusPending).
		Count(&counts.Users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count pending work"})
		return
	}
	if err := ah.db.Model(&models.PaymentScreenshot{}).
		Where("status = ?", models.PaymentStatusPending).
		Count(&counts.Payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count pending work"})
		return
	}
	if err := ah.db.Model(&models.WithdrawalRequest{}).
		Where("status = ?", models.WithdrawalStatusPending).
		Count(&counts.Withdrawals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count pending work"})
		return
	}

	cache.CachePendingCounts(counts)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    counts,
	})
}

// ApproveUser approves a pending user and assigns their unique ID
func (ah *AuthHandlers) ApproveUser(c *gin.Context) {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	admin, _ := middleware.GetAdminFromContext(c)

	user, err := ah.accounts.Approve(userID, admin.ID)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, account.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "User already approved or rejected"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve user"})
		}
		return
	}

	ah.mail.SendAccountApproved(user.Email, user.Name, *user.UniqueID)
	ah.hub.Publish(websocket.EventUserApproved, gin.H{
		"user_id":   user.ID,
		"unique_id": user.UniqueID,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User approved successfully",
		"data": gin.H{
			"user_id":   user.ID,
			"unique_id": user.UniqueID,
			"status":    user.Status,
		},
	})
}

// RejectUser rejects a pending user with a mandatory reason
func (ah *AuthHandlers) RejectUser(c *gin.Context) {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rejection reason is required"})
		return
	}

	admin, _ := middleware.GetAdminFromContext(c)

	user, err := ah.accounts.Reject(userID, admin.ID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrReasonRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Rejection reason is required"})
		case errors.Is(err, account.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, account.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "User already approved or rejected"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject user"})
		}
		return
	}

	ah.mail.SendAccountRejected(user.Email, user.Name, user.RejectionReason)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User rejected",
		"data": gin.H{
			"user_id": user.ID,
			"status":  user.Status,
		},
	})
}

// DeleteUser soft-deletes a user account
func (ah *AuthHandlers) DeleteUser(c *gin.Context) {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := ah.accounts.Delete(userID); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted",
	})
}

// ChangePassword lets a back-office account rotate its own password
func (ah *AuthHandlers) ChangePassword(c *gin.Context) {
	admin, exists := middleware.GetAdminFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	validator := NewValidator()
	validator.ValidatePassword("new_password", req.NewPassword)
	if validator.HasErrors() {
		SendValidationErrors(c, validator.GetErrors())
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	if err := ah.db.Model(admin).Update("password_hash", string(hash)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	// Force re-login everywhere
	ah.sessionMiddleware.InvalidateAllUserSessions(admin.ID, "admin")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password changed successfully",
	})
}

// Enable2FA starts 2FA enrollment for a back-office account
func (ah *AuthHandlers) Enable2FA(c *gin.Context) {
	admin, exists := middleware.GetAdminFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var existing models.TwoFactorAuth
	if err := ah.db.Where("admin_id = ? AND is_enabled = ?", admin.ID, true).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "2FA is already enabled"})
		return
	}

	key, err := ah.totpService.GenerateSecret(admin.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate 2FA secret"})
		return
	}

	backupCodes, err := auth.GenerateBackupCodes(10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate backup codes"})
		return
	}
	backupCodesJSON, _ := json.Marshal(backupCodes)

	twoFA := models.TwoFactorAuth{
		AdminID:     admin.ID,
		Secret:      key.Secret(),
		BackupCodes: string(backupCodesJSON),
		IsEnabled:   false, // enabled after first successful verify
	}
	// Replace any stale enrollment
	ah.db.Where("admin_id = ?", admin.ID).Delete(&models.TwoFactorAuth{})
	if err := ah.db.Create(&twoFA).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store 2FA settings"})
		return
	}

	qrURL, _ := ah.totpService.GenerateQRCode(key.Secret(), admin.Email)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"secret":       key.Secret(),
		"qr_code_url":  qrURL,
		"backup_codes": backupCodes,
	})
}

// Verify2FA confirms enrollment with a first valid code
func (ah *AuthHandlers) Verify2FA(c *gin.Context) {
	admin, exists := middleware.GetAdminFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req struct {
		TotpCode string `json:"totp_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	validator := NewValidator()
	validator.ValidateTOTPCode("totp_code", req.TotpCode)
	if validator.HasErrors() {
		SendValidationErrors(c, validator.GetErrors())
		return
	}

	var twoFA models.TwoFactorAuth
	if err := ah.db.Where("admin_id = ?", admin.ID).First(&twoFA).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "2FA enrollment not found"})
		return
	}

	if !ah.totpService.ValidateToken(twoFA.Secret, req.TotpCode) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid 2FA code"})
		return
	}

	if err := ah.db.Model(&twoFA).Update("is_enabled", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enable 2FA"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "2FA enabled successfully",
	})
}

// Disable2FA turns 2FA off after verifying a current code
func (ah *AuthHandlers) Disable2FA(c *gin.Context) {
	admin, exists := middleware.GetAdminFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req struct {
		TotpCode string `json:"totp_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var twoFA models.TwoFactorAuth
	if err := ah.db.Where("admin_id = ? AND is_enabled = ?", admin.ID, true).First(&twoFA).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "2FA is not enabled"})
		return
	}

	if !ah.totpService.ValidateToken(twoFA.Secret, req.TotpCode) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid 2FA code"})
		return
	}

	if err := ah.db.Delete(&twoFA).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable 2FA"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "2FA disabled",
	})
}

// parseUintParam parses a numeric path parameter
func parseUintParam(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
