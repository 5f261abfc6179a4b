package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentScreenshot represents a user's deposit claim backed by an uploaded
// payment screenshot. Rows are immutable once they leave pending.
type PaymentScreenshot struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	UserID              uint            `gorm:"not null;index" json:"user_id"`
	ScreenshotURL       string          `gorm:"not null" json:"screenshot_url"`
	OriginalFilename    string          `json:"original_filename,omitempty"`
	FileSize            int64           `json:"file_size,omitempty"`
	MimeType            string          `gorm:"size:100" json:"mime_type,omitempty"`
	Amount              decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	TransactionID       string          `json:"transaction_id,omitempty"`
	PaymentMethod       string          `gorm:"default:'upi';size:30" json:"payment_method"`
	Status              PaymentStatus   `gorm:"not null;default:'pending';index" json:"status"`
	VerifiedBy          *uint           `json:"verified_by,omitempty"`
	VerificationRemarks string          `json:"verification_remarks,omitempty"`
	VerifiedAt          *time.Time      `json:"verified_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// WithdrawalRequest represents a user's request to pay out part of their
// balance. Same single-mutation lifecycle as PaymentScreenshot.
type WithdrawalRequest struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UserID           uint             `gorm:"not null;index" json:"user_id"`
	ScreenshotURL    string           `gorm:"not null" json:"screenshot_url"`
	OriginalFilename string           `json:"original_filename,omitempty"`
	FileSize         int64            `json:"file_size,omitempty"`
	MimeType         string           `gorm:"size:100" json:"mime_type,omitempty"`
	Amount           decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"amount"`
	Status           WithdrawalStatus `gorm:"not null;default:'pending';index" json:"status"`
	ProcessedBy      *uint            `json:"processed_by,omitempty"`
	Remarks          string           `json:"remarks,omitempty"`
	ProcessedAt      *time.Time       `json:"processed_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// PaymentMethod represents an admin-managed deposit destination (bank
// account or UPI QR code) shown to users
type PaymentMethod struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	QRImageURL    *string   `json:"qr_image_url,omitempty"`
	AccountNumber *string   `json:"account_number,omitempty"`
	IFSCCode      *string   `json:"ifsc_code,omitempty"`
	BankName      *string   `json:"bank_name,omitempty"`
	BranchName    *string   `json:"branch_name,omitempty"`
	UPIID         *string   `json:"upi_id,omitempty"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName methods
func (PaymentScreenshot) TableName() string { return "payment_screenshots" }
func (WithdrawalRequest) TableName() string { return "withdrawal_requests" }
func (PaymentMethod) TableName() string     { return "admin_payment_methods" }
