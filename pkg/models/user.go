package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserRole represents different user roles in the system
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAgent UserRole = "agent"
	RoleAdmin UserRole = "admin"
)

// User represents a registered customer. Balance fields are owned by the
// wallet service: nothing else may write total_balance or total_coins.
type User struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UniqueID          *string         `gorm:"uniqueIndex;size:20" json:"unique_id,omitempty"`
	Name              string          `gorm:"not null" json:"name"`
	Phone             string          `gorm:"not null;size:20" json:"phone"`
	Email             string          `gorm:"uniqueIndex;not null" json:"email"`
	BankAccountNumber string          `gorm:"not null" json:"bank_account_number"`
	BankName          string          `json:"bank_name,omitempty"`
	IFSCCode          string          `json:"ifsc_code,omitempty"`
	PasswordHash      string          `gorm:"not null" json:"-"`
	Status            UserStatus      `gorm:"not null;default:'pending';index" json:"status"`
	KYCStatus         string          `gorm:"default:'none'" json:"kyc_status"`
	TotalBalance      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_balance"`
	TotalCoins        decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_coins"`
	ApprovedBy        *uint           `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Payments    []PaymentScreenshot `gorm:"foreignKey:UserID" json:"payments,omitempty"`
	Withdrawals []WithdrawalRequest `gorm:"foreignKey:UserID" json:"withdrawals,omitempty"`
	Stocks      []Stock             `gorm:"foreignKey:UserID" json:"stocks,omitempty"`
}

// Admin represents a back-office account (role admin or agent)
type Admin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         UserRole  `gorm:"not null;default:'admin'" json:"role"`
	Permissions  string    `gorm:"type:text" json:"permissions,omitempty"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate hook for User
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Status == "" {
		u.Status = UserStatusPending
	}
	if u.TotalBalance.IsZero() {
		u.TotalBalance = decimal.Zero
	}
	if u.TotalCoins.IsZero() {
		u.TotalCoins = decimal.Zero
	}
	return nil
}

// IsApproved reports whether the user may transact
func (u *User) IsApproved() bool { return u.Status == UserStatusApproved }

// TableName methods
func (User) TableName() string  { return "users" }
func (Admin) TableName() string { return "admins" }
