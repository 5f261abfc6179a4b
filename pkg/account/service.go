// Package account covers the user registration and approval lifecycle.
// A user signs up into pending and may not log in or transact until an
// admin approves them, which also assigns their public "octa" ID.
package account

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"octa-backend/pkg/models"
)

var (
	// ErrEmailTaken means a user with this email already exists
	ErrEmailTaken = errors.New("email already registered")
	// ErrNotFound means the referenced user does not exist
	ErrNotFound = errors.New("user not found")
	// ErrConflict means the user already left pending
	ErrConflict = errors.New("user already approved or rejected")
	// ErrReasonRequired means a rejection was attempted without a reason
	ErrReasonRequired = errors.New("rejection reason is required")
)

// maxIDAttempts bounds the unique ID retry loop. The ID space has only a
// thousand combinations, so repeated collisions mean the space is full.
const maxIDAttempts = 25

// Service performs account lifecycle operations against the database
type Service struct {
	db *gorm.DB
}

// NewService creates an account service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RegisterInput carries the self-service signup fields
type RegisterInput struct {
	Name              string
	Phone             string
	Email             string
	Password          string
	BankAccountNumber string
	BankName          string
	IFSCCode          string
}

// Register creates a new pending user with a hashed password
func (s *Service) Register(in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:              strings.TrimSpace(in.Name),
		Phone:             strings.TrimSpace(in.Phone),
		Email:             email,
		PasswordHash:      string(hash),
		BankAccountNumber: strings.TrimSpace(in.BankAccountNumber),
		BankName:          strings.TrimSpace(in.BankName),
		IFSCCode:          strings.ToUpper(strings.TrimSpace(in.IFSCCode)),
		Status:            models.UserStatusPending,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered, awaiting approval")

	return user, nil
}

// Approve moves a pending user to approved and assigns their unique ID.
// The status update is conditional on pending, so a second concurrent
// approval (or an approval after rejection) returns ErrConflict.
func (s *Service) Approve(userID, adminID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !user.Status.CanTransition(models.UserStatusApproved) {
		return nil, ErrConflict
	}

	now := time.Now()
	var lastErr error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		uniqueID, err := GenerateUniqueID()
		if err != nil {
			return nil, err
		}

		result := s.db.Model(&models.User{}).
			Where("id = ? AND status = ?", userID, models.UserStatusPending).
			Updates(map[string]interface{}{
				"status":      models.UserStatusApproved,
				"unique_id":   uniqueID,
				"approved_by": adminID,
				"approved_at": now,
			})
		if result.Error != nil {
			// Unique ID collision: pick another and try again
			if isDuplicateKey(result.Error) {
				lastErr = result.Error
				continue
			}
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrConflict
		}

		user.Status = models.UserStatusApproved
		user.UniqueID = &uniqueID
		user.ApprovedBy = &adminID
		user.ApprovedAt = &now

		logrus.WithFields(logrus.Fields{
			"user_id":   user.ID,
			"unique_id": uniqueID,
			"admin_id":  adminID,
		}).Info("User approved")

		return &user, nil
	}
	return nil, fmt.Errorf("could not assign a unique ID after %d attempts: %w", maxIDAttempts, lastErr)
}

// Reject moves a pending user to rejected with a mandatory reason
func (s *Service) Reject(userID, adminID uint, reason string) (*models.User, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !user.Status.CanTransition(models.UserStatusRejected) {
		return nil, ErrConflict
	}

	result := s.db.Model(&models.User{}).
		Where("id = ? AND status = ?", userID, models.UserStatusPending).
		Updates(map[string]interface{}{
			"status":           models.UserStatusRejected,
			"rejection_reason": reason,
			"approved_by":      adminID,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrConflict
	}

	user.Status = models.UserStatusRejected
	user.RejectionReason = reason

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"admin_id": adminID,
		"reason":   reason,
	}).Info("User rejected")

	return &user, nil
}

// PendingUsers lists users awaiting approval, oldest first
func (s *Service) PendingUsers() ([]models.User, error) {
	var users []models.User
	err := s.db.Where("status = ?", models.UserStatusPending).
		Order("created_at asc").
		Find(&users).Error
	return users, err
}

// ApprovedUsers lists approved users, newest first
func (s *Service) ApprovedUsers() ([]models.User, error) {
	var users []models.User
	err := s.db.Where("status = ?", models.UserStatusApproved).
		Order("created_at desc").
		Find(&users).Error
	return users, err
}

// Delete soft-deletes a user account
func (s *Service) Delete(userID uint) error {
	result := s.db.Delete(&models.User{}, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GenerateUniqueID builds a public user ID of the form "octa" followed by
// three random digits
func GenerateUniqueID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return "", fmt.Errorf("failed to generate unique ID: %w", err)
	}
	return fmt.Sprintf("octa%03d", n.Int64()), nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "23505")
}
