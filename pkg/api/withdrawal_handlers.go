package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"octa-backend/pkg/cache"
	"octa-backend/pkg/config"
	"octa-backend/pkg/imagestore"
	"octa-backend/pkg/mailer"
	"octa-backend/pkg/middleware"
	"octa-backend/pkg/models"
	"octa-backend/pkg/wallet"
	"octa-backend/pkg/websocket"
)

// WithdrawalHandlers contains withdrawal request handlers
type WithdrawalHandlers struct {
	db     *gorm.DB
	cfg    *config.Config
	wallet *wallet.Service
	images *imagestore.Store
	mail   *mailer.Mailer
	hub    *websocket.Hub
}

// NewWithdrawalHandlers creates new withdrawal handlers
func NewWithdrawalHandlers(db *gorm.DB, cfg *config.Config, walletService *wallet.Service,
	images *imagestore.Store, mail *mailer.Mailer, hub *websocket.Hub) *WithdrawalHandlers {
	return &WithdrawalHandlers{
		db:     db,
		cfg:    cfg,
		wallet: walletService,
		images: images,
		mail:   mail,
		hub:    hub,
	}
}

// RequestWithdrawal submits a withdrawal request with supporting screenshot
func (wh *WithdrawalHandlers) RequestWithdrawal(c *gin.Context) {
	user, exists := middleware.GetUserFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	validator := NewValidator()
	amount := validator.ValidateAmount("amount", c.PostForm("amount"))
	if validator.HasErrors() {
		SendValidationErrors(c, validator.GetErrors())
		return
	}
	if amount.LessThan(models.DecimalFromString(wh.cfg.Ledger.MinWithdrawal)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount is below the minimum withdrawal"})
		return
	}

	fileHeader, err := c.FormFile("screenshot")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Screenshot is required"})
		return
	}
	if fileHeader.Size > wh.cfg.Ledger.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Screenshot is too large"})
		return
	}
	mimeType := fileHeader.Header.Get("Content-Type")
	if !allowedImageTypes[mimeType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Screenshot must be a JPEG, PNG or WebP image"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read screenshot"})
		return
	}
	defer file.Close()

	url, _, err := wh.images.Upload(c.Request.Context(), file, imagestore.FolderPayments)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload screenshot"})
		return
	}

	withdrawal := models.WithdrawalRequest{
		UserID:           user.ID,
		ScreenshotURL:    url,
		OriginalFilename: fileHeader.Filename,
		FileSize:         fileHeader.Size,
		MimeType:         mimeType,
		Amount:           amount,
	}
	if err := wh.wallet.CreateWithdrawal(&withdrawal); err != nil {
		switch {
		case errors.Is(err, wallet.ErrInsufficientFunds):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
		case errors.Is(err, wallet.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record withdrawal request"})
		}
		return
	}

	wh.hub.Publish(websocket.EventWithdrawalRequest, gin.H{
		"withdrawal_id": withdrawal.ID,
		"user_id":       user.ID,
		"amount":        withdrawal.Amount,
	})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Withdrawal request submitted",
		"data":    withdrawal,
	})
}

// GetMyWithdrawals lists the authenticated user's withdrawal requests
func (wh *WithdrawalHandlers) GetMyWithdrawals(c *gin.Context) {
	user, exists := middleware.GetUserFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var withdrawals []models.WithdrawalRequest
	if err := wh.db.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&withdrawals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch withdrawals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    withdrawals,
	})
}

// GetPendingWithdrawals lists withdrawal requests awaiting processing
func (wh *WithdrawalHandlers) GetPendingWithdrawals(c *gin.Context) {
	var withdrawals []models.WithdrawalRequest
	if err := wh.db.Preload("User").
		Where("status = ?", models.WithdrawalStatusPending).
		Order("created_at ASC").
		Find(&withdrawals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch withdrawals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    withdrawals,
		"count":   len(withdrawals),
	})
}

// GetWithdrawalHistory lists resolved withdrawal requests (back office)
func (wh *WithdrawalHandlers) GetWithdrawalHistory(c *gin.Context) {
	var withdrawals []models.WithdrawalRequest
	if err := wh.db.Preload("User").
		Where("status <> ?", models.WithdrawalStatusPending).
		Order("processed_at DESC").
		Limit(200).
		Find(&withdrawals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch withdrawal history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    withdrawals,
	})
}

// ProcessWithdrawal approves a pending withdrawal and debits the user
func (wh *WithdrawalHandlers) ProcessWithdrawal(c *gin.Context) {
	withdrawalID, err := parseUintParam(c, "withdrawalId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid withdrawal ID"})
		return
	}

	var req struct {
		Remarks string `json:"remarks"`
	}
	c.ShouldBindJSON(&req)

	admin, _ := middleware.GetAdminFromContext(c)

	withdrawal, err := wh.wallet.ProcessWithdrawal(withdrawalID, admin.ID, req.Remarks)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Withdrawal not found"})
		case errors.Is(err, wallet.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Withdrawal already processed"})
		case errors.Is(err, wallet.ErrInsufficientFunds):
			c.JSON(http.StatusBadRequest, gin.H{"error": "User balance is insufficient"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process withdrawal"})
		}
		return
	}

	cache.InvalidateUserBalance(withdrawal.UserID)
	wh.notifyWithdrawalUser(withdrawal, true)
	wh.hub.Publish(websocket.EventWithdrawalProcessed, gin.H{
		"withdrawal_id": withdrawal.ID,
		"user_id":       withdrawal.UserID,
		"amount":        withdrawal.Amount,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Withdrawal processed and balance debited",
		"data":    withdrawal,
	})
}

// RejectWithdrawal declines a pending withdrawal without debiting. Remarks
// are mandatory so the user learns why the request was declined.
func (wh *WithdrawalHandlers) RejectWithdrawal(c *gin.Context) {
	withdrawalID, err := parseUintParam(c, "withdrawalId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid withdrawal ID"})
		return
	}

	var req struct {
		Remarks string `json:"remarks" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rejection remarks are required"})
		return
	}

	admin, _ := middleware.GetAdminFromContext(c)

	withdrawal, err := wh.wallet.RejectWithdrawal(withdrawalID, admin.ID, req.Remarks)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrReasonRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Rejection remarks are required"})
		case errors.Is(err, wallet.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Withdrawal not found"})
		case errors.Is(err, wallet.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Withdrawal already processed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject withdrawal"})
		}
		return
	}

	wh.notifyWithdrawalUser(withdrawal, false)
	wh.hub.Publish(websocket.EventWithdrawalRejected, gin.H{
		"withdrawal_id": withdrawal.ID,
		"user_id":       withdrawal.UserID,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Withdrawal rejected",
		"data":    withdrawal,
	})
}

// GetBalance returns the authenticated user's balance, cached briefly
func (wh *WithdrawalHandlers) GetBalance(c *gin.Context) {
	user, exists := middleware.GetUserFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var cached gin.H
	if err := cache.GetUserBalance(user.ID, &cached); err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    cached,
		})
		return
	}

	balance, coins, err := wh.wallet.Balance(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch balance"})
		return
	}

	data := gin.H{
		"total_balance": balance,
		"total_coins":   coins,
	}
	cache.CacheUserBalance(user.ID, data)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (wh *WithdrawalHandlers) notifyWithdrawalUser(withdrawal *models.WithdrawalRequest, processed bool) {
	var user models.User
	if err := wh.db.First(&user, withdrawal.UserID).Error; err != nil {
		return
	}
	amount := withdrawal.Amount.StringFixed(2)
	if processed {
		wh.mail.SendWithdrawalProcessed(user.Email, user.Name, amount)
	} else {
		wh.mail.SendWithdrawalRejected(user.Email, user.Name, amount, withdrawal.Remarks)
	}
}
