package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

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

// PaymentHandlers contains deposit and payment method handlers
type PaymentHandlers struct {
	db     *gorm.DB
	cfg    *config.Config
	wallet *wallet.Service
	images *imagestore.Store
	mail   *mailer.Mailer
	hub    *websocket.Hub
}

// NewPaymentHandlers creates new payment handlers
func NewPaymentHandlers(db *gorm.DB, cfg *config.Config, walletService *wallet.Service,
	images *imagestore.Store, mail *mailer.Mailer, hub *websocket.Hub) *PaymentHandlers {
	return &PaymentHandlers{
		db:     db,
		cfg:    cfg,
		wallet: walletService,
		images: images,
		mail:   mail,
		hub:    hub,
	}
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// SubmitPayment handles a user's deposit claim with screenshot upload
func (ph *PaymentHandlers) SubmitPayment(c *gin.Context) {
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

	fileHeader, err := c.FormFile("screenshot")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment screenshot is required"})
		return
	}
	if fileHeader.Size > ph.cfg.Ledger.MaxUploadSize {
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

	url, _, err := ph.images.Upload(c.Request.Context(), file, imagestore.FolderPayments)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload screenshot"})
		return
	}

	payment := models.PaymentScreenshot{
		UserID:           user.ID,
		ScreenshotURL:    url,
		OriginalFilename: fileHeader.Filename,
		FileSize:         fileHeader.Size,
		MimeType:         mimeType,
		Amount:           amount,
		TransactionID:    strings.TrimSpace(c.PostForm("transaction_id")),
		PaymentMethod:    strings.TrimSpace(c.DefaultPostForm("payment_method", "upi")),
	}
	if err := ph.wallet.CreateDeposit(&payment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
		return
	}

	ph.hub.Publish(websocket.EventDepositSubmitted, gin.H{
		"payment_id": payment.ID,
		"user_id":    user.ID,
		"amount":     payment.Amount,
	})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Payment submitted for verification",
		"data":    payment,
	})
}

// GetMyPayments lists the authenticated user's deposit claims
func (ph *PaymentHandlers) GetMyPayments(c *gin.Context) {
	user, exists := middleware.GetUserFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	query := ph.db.Where("user_id = ?", user.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	limit := 100
	if l, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil && l > 0 && l <= 500 {
		limit = l
	}

	var payments []models.PaymentScreenshot
	if err := query.Order("created_at DESC").
		Limit(limit).
		Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payments,
	})
}

// GetPendingPayments lists payments awaiting verification (back office)
func (ph *PaymentHandlers) GetPendingPayments(c *gin.Context) {
	var payments []models.PaymentScreenshot
	if err := ph.db.Preload("User").
		Where("status = ?", models.PaymentStatusPending).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payments,
		"count":   len(payments),
	})
}

// GetPaymentHistory lists resolved payments (back office)
func (ph *PaymentHandlers) GetPaymentHistory(c *gin.Context) {
	var payments []models.PaymentScreenshot
	if err := ph.db.Preload("User").
		Where("status <> ?", models.PaymentStatusPending).
		Order("verified_at DESC").
		Limit(200).
		Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payments,
	})
}

// VerifyPayment verifies a pending payment and credits the user
func (ph *PaymentHandlers) VerifyPayment(c *gin.Context) {
	paymentID, err := parseUintParam(c, "paymentId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment ID"})
		return
	}

	var req struct {
		Remarks string `json:"remarks"`
	}
	c.ShouldBindJSON(&req)

	admin, _ := middleware.GetAdminFromContext(c)

	payment, err := ph.wallet.VerifyPayment(paymentID, admin.ID, req.Remarks)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		case errors.Is(err, wallet.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Payment already processed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify payment"})
		}
		return
	}

	cache.InvalidateUserBalance(payment.UserID)
	ph.notifyPaymentUser(payment, true)
	ph.hub.Publish(websocket.EventDepositVerified, gin.H{
		"payment_id": payment.ID,
		"user_id":    payment.UserID,
		"amount":     payment.Amount,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment verified and balance credited",
		"data":    payment,
	})
}

// RejectPayment rejects a pending payment without crediting. Remarks are
// mandatory so the user learns why the deposit was declined.
func (ph *PaymentHandlers) RejectPayment(c *gin.Context) {
	paymentID, err := parseUintParam(c, "paymentId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment ID"})
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

	payment, err := ph.wallet.RejectPayment(paymentID, admin.ID, req.Remarks)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrReasonRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Rejection remarks are required"})
		case errors.Is(err, wallet.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		case errors.Is(err, wallet.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Payment already processed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject payment"})
		}
		return
	}

	ph.notifyPaymentUser(payment, false)
	ph.hub.Publish(websocket.EventDepositRejected, gin.H{
		"payment_id": payment.ID,
		"user_id":    payment.UserID,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment rejected",
		"data":    payment,
	})
}

func (ph *PaymentHandlers) notifyPaymentUser(payment *models.PaymentScreenshot, verified bool) {
	var user models.User
	if err := ph.db.First(&user, payment.UserID).Error; err != nil {
		return
	}
	amount := payment.Amount.StringFixed(2)
	if verified {
		ph.mail.SendPaymentVerified(user.Email, user.Name, amount)
	} else {
		ph.mail.SendPaymentRejected(user.Email, user.Name, amount, payment.VerificationRemarks)
	}
}

// GetPaymentMethods lists active deposit destinations shown to users
func (ph *PaymentHandlers) GetPaymentMethods(c *gin.Context) {
	var methods []models.PaymentMethod
	if err := ph.db.Where("is_active = ?", true).Find(&methods).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment methods"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    methods,
	})
}

// GetAllPaymentMethods lists every deposit destination, active or not
// (back office)
func (ph *PaymentHandlers) GetAllPaymentMethods(c *gin.Context) {
	var methods []models.PaymentMethod
	if err := ph.db.Order("created_at DESC").Find(&methods).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment methods"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    methods,
	})
}

// PaymentMethodRequest carries optional payment method fields; only present
// fields are written on update
type PaymentMethodRequest struct {
	AccountNumber *string `json:"account_number,omitempty"`
	IFSCCode      *string `json:"ifsc_code,omitempty"`
	BankName      *string `json:"bank_name,omitempty"`
	BranchName    *string `json:"branch_name,omitempty"`
	UPIID         *string `json:"upi_id,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// CreatePaymentMethod adds a deposit destination (back office)
func (ph *PaymentHandlers) CreatePaymentMethod(c *gin.Context) {
	var req PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	method := models.PaymentMethod{
		AccountNumber: req.AccountNumber,
		IFSCCode:      req.IFSCCode,
		BankName:      req.BankName,
		BranchName:    req.BranchName,
		UPIID:         req.UPIID,
		IsActive:      true,
	}
	if err := ph.db.Create(&method).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment method"})
		return
	}

	cache.InvalidatePaymentMethods()

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    method,
	})
}

// UpdatePaymentMethod partially updates a deposit destination; absent
// fields keep their stored values
func (ph *PaymentHandlers) UpdatePaymentMethod(c *gin.Context) {
	methodID, err := parseUintParam(c, "methodId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment method ID"})
		return
	}

	var req PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var method models.PaymentMethod
	if err := ph.db.First(&method, methodID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment method not found"})
		return
	}

	updates := map[string]interface{}{}
	if req.AccountNumber != nil {
		updates["account_number"] = *req.AccountNumber
	}
	if req.IFSCCode != nil {
		updates["ifsc_code"] = *req.IFSCCode
	}
	if req.BankName != nil {
		updates["bank_name"] = *req.BankName
	}
	if req.BranchName != nil {
		updates["branch_name"] = *req.BranchName
	}
	if req.UPIID != nil {
		updates["upi_id"] = *req.UPIID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := ph.db.Model(&method).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update payment method"})
		return
	}

	cache.InvalidatePaymentMethods()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    method,
	})
}

// UploadPaymentQR attaches a QR code image to a deposit destination
func (ph *PaymentHandlers) UploadPaymentQR(c *gin.Context) {
	methodID, err := parseUintParam(c, "methodId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment method ID"})
		return
	}

	var method models.PaymentMethod
	if err := ph.db.First(&method, methodID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment method not found"})
		return
	}

	fileHeader, err := c.FormFile("qr_image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "QR image is required"})
		return
	}
	if fileHeader.Size > ph.cfg.Ledger.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "QR image is too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read QR image"})
		return
	}
	defer file.Close()

	url, _, err := ph.images.Upload(c.Request.Context(), file, imagestore.FolderPaymentQR)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload QR image"})
		return
	}

	if err := ph.db.Model(&method).Update("qr_image_url", url).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save QR image"})
		return
	}

	cache.InvalidatePaymentMethods()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":           method.ID,
			"qr_image_url": url,
		},
	})
}

// DeletePaymentMethod removes a deposit destination (back office)
func (ph *PaymentHandlers) DeletePaymentMethod(c *gin.Context) {
	methodID, err := parseUintParam(c, "methodId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment method ID"})
		return
	}

	result := ph.db.Delete(&models.PaymentMethod{}, methodID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete payment method"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment method not found"})
		return
	}

	cache.InvalidatePaymentMethods()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment method deleted",
	})
}
