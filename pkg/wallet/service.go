// Package wallet owns every balance mutation in the system. Deposits are
// credited when an admin verifies a payment screenshot; withdrawals are
// debited when an admin processes a request. All transitions happen inside
// a single database transaction guarded by conditional updates, so a
// pending row can be resolved exactly once and a balance can never go
// negative. There is no raw balance setter.
package wallet

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"octa-backend/pkg/models"
)

var (
	// ErrNotFound means the referenced row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrConflict means the row already left pending (double resolution)
	ErrConflict = errors.New("request already processed")
	// ErrInsufficientFunds means the debit would take the balance below zero
	ErrInsufficientFunds = errors.New("insufficient balance")
	// ErrInvalidAmount means the amount is zero or negative
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrReasonRequired means a rejection was attempted without remarks
	ErrReasonRequired = errors.New("rejection remarks are required")
)

// Service performs wallet operations against the database
type Service struct {
	db *gorm.DB
}

// NewService creates a wallet service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateDeposit records a new pending payment screenshot for a user
func (s *Service) CreateDeposit(p *models.PaymentScreenshot) error {
	if p.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	p.Status = models.PaymentStatusPending
	return s.db.Create(p).Error
}

// VerifyPayment marks a pending payment as verified and credits the user's
// balance and coins in the same transaction. A payment that already left
// pending returns ErrConflict and credits nothing.
func (s *Service) VerifyPayment(paymentID, adminID uint, remarks string) (*models.PaymentScreenshot, error) {
	var payment models.PaymentScreenshot

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !payment.Status.CanTransition(models.PaymentStatusVerified) {
			return ErrConflict
		}

		now := time.Now()
		result := tx.Model(&models.PaymentScreenshot{}).
			Where("id = ? AND status = ?", paymentID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":               models.PaymentStatusVerified,
				"verified_by":          adminID,
				"verified_at":          now,
				"verification_remarks": remarks,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}

		credit := tx.Model(&models.User{}).
			Where("id = ?", payment.UserID).
			Updates(map[string]interface{}{
				"total_balance": gorm.Expr("total_balance + ?", payment.Amount),
				"total_coins":   gorm.Expr("total_coins + ?", payment.Amount),
			})
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected == 0 {
			return ErrNotFound
		}

		payment.Status = models.PaymentStatusVerified
		payment.VerifiedBy = &adminID
		payment.VerifiedAt = &now
		payment.VerificationRemarks = remarks
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"user_id":    payment.UserID,
		"amount":     payment.Amount.String(),
		"admin_id":   adminID,
	}).Info("Payment verified and balance credited")

	return &payment, nil
}

// RejectPayment marks a pending payment as rejected with mandatory remarks.
// No balance change.
func (s *Service) RejectPayment(paymentID, adminID uint, remarks string) (*models.PaymentScreenshot, error) {
	remarks = strings.TrimSpace(remarks)
	if remarks == "" {
		return nil, ErrReasonRequired
	}

	var payment models.PaymentScreenshot

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !payment.Status.CanTransition(models.PaymentStatusRejected) {
			return ErrConflict
		}

		now := time.Now()
		result := tx.Model(&models.PaymentScreenshot{}).
			Where("id = ? AND status = ?", paymentID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":               models.PaymentStatusRejected,
				"verified_by":          adminID,
				"verified_at":          now,
				"verification_remarks": remarks,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}

		payment.Status = models.PaymentStatusRejected
		payment.VerifiedBy = &adminID
		payment.VerifiedAt = &now
		payment.VerificationRemarks = remarks
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"admin_id":   adminID,
	}).Info("Payment rejected")

	return &payment, nil
}

// CreateWithdrawal records a new pending withdrawal request. The balance is
// checked here for early feedback; the authoritative check happens again at
// processing time inside the debit itself.
func (s *Service) CreateWithdrawal(w *models.WithdrawalRequest) error {
	if w.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	var user models.User
	if err := s.db.First(&user, w.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if user.TotalBalance.LessThan(w.Amount) {
		return ErrInsufficientFunds
	}

	w.Status = models.WithdrawalStatusPending
	return s.db.Create(w).Error
}

// ProcessWithdrawal marks a pending withdrawal as processed and debits the
// user's balance and coins. The debit carries its own balance guard, so a
// balance drained between request and processing rolls the whole transition
// back with ErrInsufficientFunds.
func (s *Service) ProcessWithdrawal(withdrawalID, adminID uint, remarks string) (*models.WithdrawalRequest, error) {
	var withdrawal models.WithdrawalRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&withdrawal, withdrawalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !withdrawal.Status.CanTransition(models.WithdrawalStatusProcessed) {
			return ErrConflict
		}

		now := time.Now()
		result := tx.Model(&models.WithdrawalRequest{}).
			Where("id = ? AND status = ?", withdrawalID, models.WithdrawalStatusPending).
			Updates(map[string]interface{}{
				"status":       models.WithdrawalStatusProcessed,
				"processed_by": adminID,
				"processed_at": now,
				"remarks":      remarks,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}

		debit := tx.Model(&models.User{}).
			Where("id = ? AND total_balance >= ?", withdrawal.UserID, withdrawal.Amount).
			Updates(map[string]interface{}{
				"total_balance": gorm.Expr("total_balance - ?", withdrawal.Amount),
				"total_coins":   gorm.Expr("total_coins - ?", withdrawal.Amount),
			})
		if debit.Error != nil {
			return debit.Error
		}
		if debit.RowsAffected == 0 {
			return ErrInsufficientFunds
		}

		withdrawal.Status = models.WithdrawalStatusProcessed
		withdrawal.ProcessedBy = &adminID
		withdrawal.ProcessedAt = &now
		withdrawal.Remarks = remarks
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"withdrawal_id": withdrawal.ID,
		"user_id":       withdrawal.UserID,
		"amount":        withdrawal.Amount.String(),
		"admin_id":      adminID,
	}).Info("Withdrawal processed and balance debited")

	return &withdrawal, nil
}

// RejectWithdrawal marks a pending withdrawal as rejected with mandatory
// remarks. No balance change.
func (s *Service) RejectWithdrawal(withdrawalID, adminID uint, remarks string) (*models.WithdrawalRequest, error) {
	remarks = strings.TrimSpace(remarks)
	if remarks == "" {
		return nil, ErrReasonRequired
	}

	var withdrawal models.WithdrawalRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&withdrawal, withdrawalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !withdrawal.Status.CanTransition(models.WithdrawalStatusRejected) {
			return ErrConflict
		}

		now := time.Now()
		result := tx.Model(&models.WithdrawalRequest{}).
			Where("id = ? AND status = ?", withdrawalID, models.WithdrawalStatusPending).
			Updates(map[string]interface{}{
				"status":       models.WithdrawalStatusRejected,
				"processed_by": adminID,
				"processed_at": now,
				"remarks":      remarks,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}

		withdrawal.Status = models.WithdrawalStatusRejected
		withdrawal.ProcessedBy = &adminID
		withdrawal.ProcessedAt = &now
		withdrawal.Remarks = remarks
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"withdrawal_id": withdrawal.ID,
		"admin_id":      adminID,
	}).Info("Withdrawal rejected")

	return &withdrawal, nil
}

// Balance returns the user's current balance and coins
func (s *Service) Balance(userID uint) (balance, coins decimal.Decimal, err error) {
	var user models.User
	if err := s.db.Select("total_balance", "total_coins").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, decimal.Zero, ErrNotFound
		}
		return decimal.Zero, decimal.Zero, err
	}
	return user.TotalBalance, user.TotalCoins, nil
}
