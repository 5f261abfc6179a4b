package models

import "time"

// KYC represents a user's one-time document submission. One row per user,
// enforced by the unique index on user_id.
type KYC struct {
	ID           uint      `gorm:"primaryKey;column:kyc_id" json:"kyc_id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName     string    `gorm:"not null" json:"full_name"`
	Email        string    `json:"email,omitempty"`
	Address      string    `json:"address,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	AadhaarNo    string    `gorm:"uniqueIndex;not null;size:20" json:"aadhaar_no"`
	PANNumber    string    `gorm:"uniqueIndex;not null;size:20" json:"pan_number"`
	AccountNo    string    `json:"account_no,omitempty"`
	Bank         string    `json:"bank,omitempty"`
	IFSC         string    `json:"ifsc,omitempty"`
	AadhaarImage *string   `json:"aadhaar_image,omitempty"`
	PancardImage *string   `json:"pancard_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Enquiry represents a contact-form message
type Enquiry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName methods
func (KYC) TableName() string     { return "kyc" }
func (Enquiry) TableName() string { return "enquiry" }
