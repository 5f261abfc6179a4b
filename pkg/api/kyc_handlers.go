package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"octa-backend/pkg/config"
	"octa-backend/pkg/imagestore"
	"octa-backend/pkg/middleware"
	"octa-backend/pkg/models"
	"octa-backend/pkg/websocket"
)

// KYCHandlers contains KYC and enquiry handlers
type KYCHandlers struct {
	db     *gorm.DB
	cfg    *config.Config
	images *imagestore.Store
	hub    *websocket.Hub
}

// NewKYCHandlers creates new KYC handlers
func NewKYCHandlers(db *gorm.DB, cfg *config.Config, images *imagestore.Store, hub *websocket.Hub) *KYCHandlers {
	return &KYCHandlers{
		db:     db,
		cfg:    cfg,
		images: images,
		hub:    hub,
	}
}

// SubmitKYC records the user's one-time document submission. A second
// submission is rejected; there is no resubmission flow.
func (kh *KYCHandlers) SubmitKYC(c *gin.Context) {
	user, exists := middleware.GetUserFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var existing models.KYC
	err := kh.db.Where("user_id = ?", user.ID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "KYC already submitted"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check KYC status"})
		return
	}

	aadhaar := strings.TrimSpace(c.PostForm("aadhaar_no"))
	pan := strings.ToUpper(strings.TrimSpace(c.PostForm("pan_number")))

	validator := NewValidator()
	validator.ValidateString("full_name", c.PostForm("full_name"), 1, 100, true)
	validator.ValidateAadhaar("aadhaar_no", aadhaar)
	validator.ValidatePAN("pan_number", pan)
	validator.ValidateIFSC("ifsc", c.PostForm("ifsc"))
	if email := c.PostForm("email"); email != "" {
		validator.ValidateEmail("email", email)
	}
	if validator.HasErrors() {
		SendValidationErrors(c, validator.GetErrors())
		return
	}

	kyc := models.KYC{
		UserID:    user.ID,
		FullName:  c.PostForm("full_name"),
		Email:     strings.ToLower(c.PostForm("email")),
		Address:   c.PostForm("address"),
		City:      c.PostForm("city"),
		State:     c.PostForm("state"),
		AadhaarNo: aadhaar,
		PANNumber: pan,
		AccountNo: c.PostForm("account_no"),
		Bank:      c.PostForm("bank"),
		IFSC:      strings.ToUpper(c.PostForm("ifsc")),
	}

	if url, ok := kh.uploadDocument(c, "aadhaar_image"); ok {
		kyc.AadhaarImage = &url
	} else if c.IsAborted() {
		return
	}
	if url, ok := kh.uploadDocument(c, "pancard_image"); ok {
		kyc.PancardImage = &url
	} else if c.IsAborted() {
		return
	}

	err = kh.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&kyc).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("kyc_status", "submitted").Error
	})
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "23505") {
			c.JSON(http.StatusConflict, gin.H{"error": "Aadhaar or PAN already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save KYC"})
		return
	}

	kh.hub.Publish(websocket.EventKYCSubmitted, gin.H{
		"kyc_id":  kyc.ID,
		"user_id": user.ID,
		"name":    kyc.FullName,
	})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "KYC submitted",
		"data":    kyc,
	})
}

// uploadDocument uploads one optional KYC document from the multipart form.
// Aborts the request on an oversized, malformed or failed upload.
func (kh *KYCHandlers) uploadDocument(c *gin.Context, field string) (string, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return "", false
	}
	if fileHeader.Size > kh.cfg.Ledger.MaxUploadSize {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": field + " is too large"})
		return "", false
	}
	if !allowedImageTypes[fileHeader.Header.Get("Content-Type")] {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": field + " must be a JPEG, PNG or WebP image"})
		return "", false
	}

	var file multipart.File
	file, err = fileHeader.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to read " + field})
		return "", false
	}
	defer file.Close()

	url, _, err := kh.images.Upload(c.Request.Context(), file, imagestore.FolderKYCDocs)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload " + field})
		return "", false
	}
	return url, true
}

// GetMyKYC returns the authenticated user's submission
func (kh *KYCHandlers) GetMyKYC(c *gin.Context) {
	user, exists := middleware.GetUserFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var kyc models.KYC
	if err := kh.db.Where("user_id = ?", user.ID).First(&kyc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "KYC not submitted"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch KYC"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    kyc,
	})
}

// ListKYC lists all submissions (back office)
func (kh *KYCHandlers) ListKYC(c *gin.Context) {
	var records []models.KYC
	if err := kh.db.Preload("User").
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch KYC records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"count":   len(records),
	})
}

// GetUserKYC returns one user's submission (back office)
func (kh *KYCHandlers) GetUserKYC(c *gin.Context) {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var kyc models.KYC
	if err := kh.db.Preload("User").Where("user_id = ?", userID).First(&kyc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "KYC not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch KYC"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    kyc,
	})
}

// EnquiryRequest represents a contact-form payload
type EnquiryRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// SubmitEnquiry records a contact-form message (public)
func (kh *KYCHandlers) SubmitEnquiry(c *gin.Context) {
	var req EnquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	validator := NewValidator()
	validator.ValidateEmail("email", req.Email)
	validator.ValidateString("name", req.Name, 1, 100, true)
	validator.ValidateString("message", req.Message, 1, 5000, true)
	if validator.HasErrors() {
		SendValidationErrors(c, validator.GetErrors())
		return
	}

	enquiry := models.Enquiry{
		Name:    req.Name,
		Email:   strings.ToLower(req.Email),
		Message: req.Message,
	}
	if err := kh.db.Create(&enquiry).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save enquiry"})
		return
	}

	kh.hub.Publish(websocket.EventEnquiryReceived, gin.H{
		"enquiry_id": enquiry.ID,
		"name":       enquiry.Name,
		"email":      enquiry.Email,
	})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Enquiry received",
	})
}

// ListEnquiries lists contact-form messages (back office)
func (kh *KYCHandlers) ListEnquiries(c *gin.Context) {
	var enquiries []models.Enquiry
	if err := kh.db.Order("created_at DESC").Limit(200).Find(&enquiries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch enquiries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    enquiries,
		"count":   len(enquiries),
	})
}
