package account

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"octa-backend/pkg/models"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewService(db), mock
}

func userRows(id uint, email string, status models.UserStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "status", "total_balance", "total_coins"}).
		AddRow(id, email, string(status), "0", "0")
}

func TestGenerateUniqueID(t *testing.T) {
	assert := assert.New(t)

	pattern := regexp.MustCompile(`^octa\d{3}$`)
	for i := 0; i < 50; i++ {
		id, err := GenerateUniqueID()
		assert.NoError(err)
		assert.Regexp(pattern, id, "ID must be octa followed by exactly three digits")
	}
}

func TestApproveAssignsUniqueID(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(userRows(5, "a@b.c", models.UserStatusPending))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := svc.Approve(5, 1)
	require.NoError(err)
	require.Equal(models.UserStatusApproved, user.Status)
	require.NotNil(user.UniqueID)
	require.Regexp(`^octa\d{3}$`, *user.UniqueID)
	require.NotNil(user.ApprovedBy)
	require.NoError(mock.ExpectationsWereMet())
}

func TestApproveAlreadyResolved(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	// A user who already left pending fails the transition check after the
	// read; no update is ever issued.
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(userRows(5, "a@b.c", models.UserStatusApproved))

	_, err := svc.Approve(5, 1)
	require.ErrorIs(err, ErrConflict)
	require.NoError(mock.ExpectationsWereMet())
}

func TestApproveConcurrentResolution(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	// The read sees pending but another admin resolves the user before the
	// conditional update lands. Zero rows affected still means conflict.
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(userRows(5, "a@b.c", models.UserStatusPending))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := svc.Approve(5, 1)
	require.ErrorIs(err, ErrConflict)
	require.NoError(mock.ExpectationsWereMet())
}

func TestApproveNotFound(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Approve(999, 1)
	require.ErrorIs(err, ErrNotFound)
}

func TestApproveRetriesOnDuplicateID(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(userRows(5, "a@b.c", models.UserStatusPending))
	// First attempt collides on the unique_id index, second succeeds.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnError(&mockPgError{})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := svc.Approve(5, 1)
	require.NoError(err)
	require.NotNil(user.UniqueID)
	require.NoError(mock.ExpectationsWereMet())
}

type mockPgError struct{}

func (e *mockPgError) Error() string {
	return `ERROR: duplicate key value violates unique constraint "idx_users_unique_id" (SQLSTATE 23505)`
}

func TestRejectRequiresReason(t *testing.T) {
	assert := assert.New(t)
	svc, _ := newMockService(t)

	_, err := svc.Reject(5, 1, "")
	assert.ErrorIs(err, ErrReasonRequired)

	_, err = svc.Reject(5, 1, "   ")
	assert.ErrorIs(err, ErrReasonRequired)
}

func TestRejectPendingUser(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(userRows(5, "a@b.c", models.UserStatusPending))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := svc.Reject(5, 1, "incomplete bank details")
	require.NoError(err)
	require.Equal(models.UserStatusRejected, user.Status)
	require.Equal("incomplete bank details", user.RejectionReason)
	require.NoError(mock.ExpectationsWereMet())
}

func TestRejectAlreadyResolved(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(userRows(5, "a@b.c", models.UserStatusRejected))

	_, err := svc.Reject(5, 1, "duplicate account")
	require.ErrorIs(err, ErrConflict)
	require.NoError(mock.ExpectationsWereMet())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(userRows(5, "taken@example.com", models.UserStatusApproved))

	_, err := svc.Register(RegisterInput{
		Name:     "Someone",
		Email:    "Taken@Example.com",
		Password: "secret123",
	})
	require.ErrorIs(err, ErrEmailTaken)
}
