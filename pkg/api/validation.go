package api

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Validation patterns
var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	ifscRegex  = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	panRegex   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Validator provides validation methods
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// AddError adds a validation error
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// GetErrors returns all validation errors
func (v *Validator) GetErrors() ValidationErrors {
	return v.errors
}

// ValidateEmail validates an email address
func (v *Validator) ValidateEmail(field, email string) {
	if email == "" {
		v.AddError(field, "email is required")
		return
	}

	if len(email) > 254 {
		v.AddError(field, "email is too long")
		return
	}

	if !emailRegex.MatchString(email) {
		v.AddError(field, "invalid email format")
	}
}

// ValidatePhone validates a phone number
func (v *Validator) ValidatePhone(field, phone string) {
	if phone == "" {
		v.AddError(field, "phone is required")
		return
	}

	if !phoneRegex.MatchString(phone) {
		v.AddError(field, "invalid phone number")
	}
}

// ValidatePassword validates a password
func (v *Validator) ValidatePassword(field, password string) {
	if password == "" {
		v.AddError(field, "password is required")
		return
	}

	if len(password) < 8 {
		v.AddError(field, "password must be at least 8 characters")
		return
	}

	if len(password) > 128 {
		v.AddError(field, "password is too long")
		return
	}

	var hasLetter, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	if !hasLetter || !hasNumber {
		v.AddError(field, "password must contain letters and numbers")
	}
}

// ValidateIFSC validates an IFSC bank branch code when present
func (v *Validator) ValidateIFSC(field, code string) {
	if code == "" {
		return
	}
	if !ifscRegex.MatchString(strings.ToUpper(code)) {
		v.AddError(field, "invalid IFSC code")
	}
}

// ValidatePAN validates a PAN card number
func (v *Validator) ValidatePAN(field, pan string) {
	if pan == "" {
		v.AddError(field, "PAN number is required")
		return
	}
	if !panRegex.MatchString(strings.ToUpper(pan)) {
		v.AddError(field, "invalid PAN number")
	}
}

// ValidateAadhaar validates an Aadhaar number
func (v *Validator) ValidateAadhaar(field, aadhaar string) {
	if aadhaar == "" {
		v.AddError(field, "Aadhaar number is required")
		return
	}
	if len(aadhaar) != 12 {
		v.AddError(field, "Aadhaar number must be 12 digits")
		return
	}
	for _, char := range aadhaar {
		if !unicode.IsDigit(char) {
			v.AddError(field, "Aadhaar number must contain only digits")
			return
		}
	}
}

// ValidateAmount validates a monetary amount, which must be strictly positive
func (v *Validator) ValidateAmount(field, amountStr string) decimal.Decimal {
	if amountStr == "" {
		v.AddError(field, "amount is required")
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		v.AddError(field, "invalid amount format")
		return decimal.Zero
	}

	if amount.Sign() <= 0 {
		v.AddError(field, "amount must be positive")
		return decimal.Zero
	}

	if amount.GreaterThan(decimal.NewFromInt(100000000)) {
		v.AddError(field, "amount is too large")
		return decimal.Zero
	}

	return amount
}

// ValidatePercentage validates a charge percentage, which must be in [0, 100]
func (v *Validator) ValidatePercentage(field, pctStr string) decimal.Decimal {
	if pctStr == "" {
		return decimal.Zero
	}

	pct, err := decimal.NewFromString(pctStr)
	if err != nil {
		v.AddError(field, "invalid percentage format")
		return decimal.Zero
	}

	if pct.IsNegative() {
		v.AddError(field, "percentage cannot be negative")
		return decimal.Zero
	}

	if pct.GreaterThan(decimal.NewFromInt(100)) {
		v.AddError(field, "percentage cannot exceed 100")
		return decimal.Zero
	}

	return pct
}

// ValidatePrice validates a stock price
func (v *Validator) ValidatePrice(field, priceStr string, required bool) decimal.Decimal {
	if priceStr == "" {
		if required {
			v.AddError(field, "price is required")
		}
		return decimal.Zero
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		v.AddError(field, "invalid price format")
		return decimal.Zero
	}

	if price.IsNegative() {
		v.AddError(field, "price cannot be negative")
		return decimal.Zero
	}

	return price
}

// ValidateQuantity validates a share quantity
func (v *Validator) ValidateQuantity(field string, quantity int64) {
	if quantity <= 0 {
		v.AddError(field, "quantity must be positive")
	}
}

// ValidateString validates a general string field
func (v *Validator) ValidateString(field, value string, minLen, maxLen int, required bool) {
	if value == "" {
		if required {
			v.AddError(field, fmt.Sprintf("%s is required", field))
		}
		return
	}

	if len(value) < minLen {
		v.AddError(field, fmt.Sprintf("%s must be at least %d characters", field, minLen))
	}

	if maxLen > 0 && len(value) > maxLen {
		v.AddError(field, fmt.Sprintf("%s must be at most %d characters", field, maxLen))
	}
}

// ValidateTOTPCode validates a TOTP code
func (v *Validator) ValidateTOTPCode(field, code string) {
	if code == "" {
		v.AddError(field, "TOTP code is required")
		return
	}

	if len(code) != 6 {
		v.AddError(field, "TOTP code must be 6 digits")
		return
	}

	for _, char := range code {
		if !unicode.IsDigit(char) {
			v.AddError(field, "TOTP code must contain only digits")
			return
		}
	}
}

// ValidateLimit validates pagination limit
func (v *Validator) ValidateLimit(field string, limit int, maxLimit int) {
	if limit < 1 {
		v.AddError(field, "limit must be at least 1")
		return
	}

	if limit > maxLimit {
		v.AddError(field, fmt.Sprintf("limit cannot exceed %d", maxLimit))
	}
}

// SendValidationErrors sends validation errors as JSON response
func SendValidationErrors(c *gin.Context, errors ValidationErrors) {
	c.JSON(400, gin.H{
		"error":   "Validation failed",
		"details": errors,
	})
}
