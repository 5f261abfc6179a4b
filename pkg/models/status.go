package models

// UserStatus represents a user's approval lifecycle state
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusRejected UserStatus = "rejected"
)

// PaymentStatus represents a deposit screenshot's lifecycle state
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusVerified PaymentStatus = "verified"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// WithdrawalStatus represents a withdrawal request's lifecycle state
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusProcessed WithdrawalStatus = "processed"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
)

// Transition tables. Every lifecycle here is single-shot: the only legal
// source state is pending, and leaving it is terminal.
var (
	userTransitions = map[UserStatus][]UserStatus{
		UserStatusPending: {UserStatusApproved, UserStatusRejected},
	}
	paymentTransitions = map[PaymentStatus][]PaymentStatus{
		PaymentStatusPending: {PaymentStatusVerified, PaymentStatusRejected},
	}
	withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
		WithdrawalStatusPending: {WithdrawalStatusProcessed, WithdrawalStatusRejected},
	}
)

// CanTransition reports whether s -> to is an allowed user transition
func (s UserStatus) CanTransition(to UserStatus) bool {
	for _, t := range userTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed
func (s UserStatus) IsTerminal() bool { return len(userTransitions[s]) == 0 }

// CanTransition reports whether s -> to is an allowed payment transition
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	for _, t := range paymentTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed
func (s PaymentStatus) IsTerminal() bool { return len(paymentTransitions[s]) == 0 }

// CanTransition reports whether s -> to is an allowed withdrawal transition
func (s WithdrawalStatus) CanTransition(to WithdrawalStatus) bool {
	for _, t := range withdrawalTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed
func (s WithdrawalStatus) IsTerminal() bool { return len(withdrawalTransitions[s]) == 0 }
