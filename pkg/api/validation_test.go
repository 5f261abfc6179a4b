package api

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	v := NewValidator()
	v.ValidateEmail("email", "user@octa.example")
	assert.False(t, v.HasErrors())

	v = NewValidator()
	v.ValidateEmail("email", "not-an-email")
	assert.True(t, v.HasErrors())

	v = NewValidator()
	v.ValidateEmail("email", "")
	assert.True(t, v.HasErrors())
}

func TestValidatePhone(t *testing.T) {
	v := NewValidator()
	v.ValidatePhone("phone", "+919876543210")
	assert.False(t, v.HasErrors())

	v = NewValidator()
	v.ValidatePhone("phone", "12ab34")
	assert.True(t, v.HasErrors())
}

func TestValidatePassword(t *testing.T) {
	v := NewValidator()
	v.ValidatePassword("password", "secret123")
	assert.False(t, v.HasErrors())

	v = NewValidator()
	v.ValidatePassword("password", "short1")
	assert.True(t, v.HasErrors())

	v = NewValidator()
	v.ValidatePassword("password", "lettersonly")
	assert.True(t, v.HasErrors())
}

func TestValidatePAN(t *testing.T) {
	v := NewValidator()
	v.ValidatePAN("pan", "ABCDE1234F")
	assert.False(t, v.HasErrors())

	// Lowercase input is normalized before matching
	v = NewValidator()
	v.ValidatePAN("pan", "abcde1234f")
	assert.False(t, v.HasErrors())

	v = NewValidator()
	v.ValidatePAN("pan", "AB1234567C")
	assert.True(t, v.HasErrors())
}

func TestValidateAadhaar(t *testing.T) {
	v := NewValidator()
	v.ValidateAadhaar("aadhaar", "123412341234")
	assert.False(t, v.HasErrors())

	v = NewValidator()
	v.ValidateAadhaar("aadhaar", "12341234")
	assert.True(t, v.HasErrors())

	v = NewValidator()
	v.ValidateAadhaar("aadhaar", "12341234123x")
	assert.True(t, v.HasErrors())
}

func TestValidateIFSC(t *testing.T) {
	v := NewValidator()
	v.ValidateIFSC("ifsc", "HDFC0001234")
	assert.False(t, v.HasErrors())

	// Optional: empty is accepted
	v = NewValidator()
	v.ValidateIFSC("ifsc", "")
	assert.False(t, v.HasErrors())

	v = NewValidator()
	v.ValidateIFSC("ifsc", "HDFC1234")
	assert.True(t, v.HasErrors())
}

func TestValidateAmount(t *testing.T) {
	v := NewValidator()
	amount := v.ValidateAmount("amount", "1500.50")
	assert.False(t, v.HasErrors())
	assert.True(t, amount.Equal(decimal.RequireFromString("1500.50")))

	v = NewValidator()
	v.ValidateAmount("amount", "0")
	assert.True(t, v.HasErrors())

	v = NewValidator()
	v.ValidateAmount("amount", "-5")
	assert.True(t, v.HasErrors())

	v = NewValidator()
	v.ValidateAmount("amount", "200000001")
	assert.True(t, v.HasErrors())

	v = NewValidator()
	v.ValidateAmount("amount", "abc")
	assert.True(t, v.HasErrors())
}

func TestValidatePercentage(t *testing.T) {
	v := NewValidator()
	pct := v.ValidatePercentage("pct", "18")
	assert.False(t, v.HasErrors())
	assert.True(t, pct.Equal(decimal.NewFromInt(18)))

	// Empty means zero, not an error
	v = NewValidator()
	pct = v.ValidatePercentage("pct", "")
	assert.False(t, v.HasErrors())
	assert.True(t, pct.IsZero())

	v = NewValidator()
	v.ValidatePercentage("pct", "101")
	assert.True(t, v.HasErrors())

	v = NewValidator()
	v.ValidatePercentage("pct", "-1")
	assert.True(t, v.HasErrors())
}

func TestValidatePrice(t *testing.T) {
	v := NewValidator()
	price := v.ValidatePrice("price", "120.25", true)
	assert.False(t, v.HasErrors())
	assert.True(t, price.Equal(decimal.RequireFromString("120.25")))

	v = NewValidator()
	v.ValidatePrice("price", "", true)
	assert.True(t, v.HasErrors())

	v = NewValidator()
	v.ValidatePrice("price", "", false)
	assert.False(t, v.HasErrors())

	v = NewValidator()
	v.ValidatePrice("price", "-3", false)
	assert.True(t, v.HasErrors())
}

func TestValidateQuantity(t *testing.T) {
	v := NewValidator()
	v.ValidateQuantity("quantity", 10)
	assert.False(t, v.HasErrors())

	v = NewValidator()
	v.ValidateQuantity("quantity", 0)
	assert.True(t, v.HasErrors())
}

func TestValidationErrorsMessage(t *testing.T) {
	v := NewValidator()
	v.AddError("email", "invalid email format")
	v.AddError("amount", "amount must be positive")

	msg := v.GetErrors().Error()
	assert.Contains(t, msg, "email: invalid email format")
	assert.Contains(t, msg, "amount: amount must be positive")
}
