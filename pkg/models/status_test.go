package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUserStatusTransitions(t *testing.T) {
	assert := assert.New(t)

	assert.True(UserStatusPending.CanTransition(UserStatusApproved))
	assert.True(UserStatusPending.CanTransition(UserStatusRejected))
	assert.False(UserStatusPending.CanTransition(UserStatusPending))

	assert.False(UserStatusApproved.CanTransition(UserStatusRejected), "approved is terminal")
	assert.False(UserStatusRejected.CanTransition(UserStatusApproved), "rejected is terminal")

	assert.False(UserStatusPending.IsTerminal())
	assert.True(UserStatusApproved.IsTerminal())
	assert.True(UserStatusRejected.IsTerminal())
}

func TestPaymentStatusTransitions(t *testing.T) {
	assert := assert.New(t)

	assert.True(PaymentStatusPending.CanTransition(PaymentStatusVerified))
	assert.True(PaymentStatusPending.CanTransition(PaymentStatusRejected))
	assert.False(PaymentStatusVerified.CanTransition(PaymentStatusRejected), "verified is terminal")
	assert.False(PaymentStatusRejected.CanTransition(PaymentStatusVerified), "rejected is terminal")
	assert.True(PaymentStatusVerified.IsTerminal())
}

func TestWithdrawalStatusTransitions(t *testing.T) {
	assert := assert.New(t)

	assert.True(WithdrawalStatusPending.CanTransition(WithdrawalStatusProcessed))
	assert.True(WithdrawalStatusPending.CanTransition(WithdrawalStatusRejected))
	assert.False(WithdrawalStatusProcessed.CanTransition(WithdrawalStatusRejected), "processed is terminal")
	assert.False(WithdrawalStatusRejected.CanTransition(WithdrawalStatusProcessed), "rejected is terminal")
	assert.True(WithdrawalStatusProcessed.IsTerminal())
}

func TestDecimalFromString(t *testing.T) {
	assert := assert.New(t)

	assert.True(DecimalFromString("12.34").Equal(decimal.RequireFromString("12.34")))
	assert.True(DecimalFromString("5").Equal(decimal.NewFromInt(5)))
	assert.True(DecimalFromString("garbage").IsZero(), "bad input falls back to zero")
	assert.True(DecimalFromString("").IsZero())
}
