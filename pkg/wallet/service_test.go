package wallet

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
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

func paymentRows(id, userID uint, amount string, status models.PaymentStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "amount", "status", "created_at", "updated_at"}).
		AddRow(id, userID, amount, string(status), time.Now(), time.Now())
}

func withdrawalRows(id, userID uint, amount string, status models.WithdrawalStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "amount", "status", "created_at", "updated_at"}).
		AddRow(id, userID, amount, string(status), time.Now(), time.Now())
}

func TestVerifyPaymentCreditsBalance(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "payment_screenshots"`).
		WillReturnRows(paymentRows(7, 42, "500.00", models.PaymentStatusPending))
	mock.ExpectExec(`UPDATE "payment_screenshots" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	payment, err := svc.VerifyPayment(7, 1, "looks good")
	require.NoError(err)
	require.Equal(models.PaymentStatusVerified, payment.Status)
	require.NotNil(payment.VerifiedBy)
	require.Equal(uint(1), *payment.VerifiedBy)
	require.NoError(mock.ExpectationsWereMet())
}

func TestVerifyPaymentAlreadyResolved(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	// A payment that already left pending fails the transition check right
	// after the read: no update is issued and the tx rolls back.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "payment_screenshots"`).
		WillReturnRows(paymentRows(7, 42, "500.00", models.PaymentStatusVerified))
	mock.ExpectRollback()

	_, err := svc.VerifyPayment(7, 1, "again")
	require.ErrorIs(err, ErrConflict)
	require.NoError(mock.ExpectationsWereMet())
}

func TestVerifyPaymentConcurrentResolution(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	// The read sees pending but another admin resolves the payment before
	// the conditional update lands. Zero rows affected still means conflict.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "payment_screenshots"`).
		WillReturnRows(paymentRows(7, 42, "500.00", models.PaymentStatusPending))
	mock.ExpectExec(`UPDATE "payment_screenshots" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.VerifyPayment(7, 1, "again")
	require.ErrorIs(err, ErrConflict)
	require.NoError(mock.ExpectationsWereMet())
}

func TestVerifyPaymentNotFound(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "payment_screenshots"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := svc.VerifyPayment(999, 1, "")
	require.ErrorIs(err, ErrNotFound)
	require.NoError(mock.ExpectationsWereMet())
}

func TestRejectPaymentNoCredit(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	// Rejection flips the status but must never touch the users table.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "payment_screenshots"`).
		WillReturnRows(paymentRows(7, 42, "500.00", models.PaymentStatusPending))
	mock.ExpectExec(`UPDATE "payment_screenshots" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	payment, err := svc.RejectPayment(7, 1, "blurry screenshot")
	require.NoError(err)
	require.Equal(models.PaymentStatusRejected, payment.Status)
	require.Equal("blurry screenshot", payment.VerificationRemarks)
	require.NoError(mock.ExpectationsWereMet())
}

func TestRejectPaymentRequiresRemarks(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	// Empty or whitespace remarks never reach the database.
	_, err := svc.RejectPayment(7, 1, "")
	require.ErrorIs(err, ErrReasonRequired)

	_, err = svc.RejectPayment(7, 1, "   ")
	require.ErrorIs(err, ErrReasonRequired)

	require.NoError(mock.ExpectationsWereMet())
}

func TestRejectPaymentAlreadyResolved(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "payment_screenshots"`).
		WillReturnRows(paymentRows(7, 42, "500.00", models.PaymentStatusRejected))
	mock.ExpectRollback()

	_, err := svc.RejectPayment(7, 1, "duplicate submission")
	require.ErrorIs(err, ErrConflict)
	require.NoError(mock.ExpectationsWereMet())
}

func TestProcessWithdrawalDebitsBalance(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "withdrawal_requests"`).
		WillReturnRows(withdrawalRows(3, 42, "200.00", models.WithdrawalStatusPending))
	mock.ExpectExec(`UPDATE "withdrawal_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w, err := svc.ProcessWithdrawal(3, 1, "paid via NEFT")
	require.NoError(err)
	require.Equal(models.WithdrawalStatusProcessed, w.Status)
	require.NoError(mock.ExpectationsWereMet())
}

func TestProcessWithdrawalInsufficientBalance(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	// The debit update carries the balance guard; zero rows means the
	// balance was drained after the request, so everything rolls back.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "withdrawal_requests"`).
		WillReturnRows(withdrawalRows(3, 42, "200.00", models.WithdrawalStatusPending))
	mock.ExpectExec(`UPDATE "withdrawal_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.ProcessWithdrawal(3, 1, "")
	require.ErrorIs(err, ErrInsufficientFunds)
	require.NoError(mock.ExpectationsWereMet())
}

func TestProcessWithdrawalAlreadyResolved(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	// Already-processed withdrawals fail the transition check before any
	// update is attempted.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "withdrawal_requests"`).
		WillReturnRows(withdrawalRows(3, 42, "200.00", models.WithdrawalStatusProcessed))
	mock.ExpectRollback()

	_, err := svc.ProcessWithdrawal(3, 1, "")
	require.ErrorIs(err, ErrConflict)
	require.NoError(mock.ExpectationsWereMet())
}

func TestProcessWithdrawalConcurrentResolution(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "withdrawal_requests"`).
		WillReturnRows(withdrawalRows(3, 42, "200.00", models.WithdrawalStatusPending))
	mock.ExpectExec(`UPDATE "withdrawal_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.ProcessWithdrawal(3, 1, "")
	require.ErrorIs(err, ErrConflict)
	require.NoError(mock.ExpectationsWereMet())
}

func TestRejectWithdrawalNoDebit(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "withdrawal_requests"`).
		WillReturnRows(withdrawalRows(3, 42, "200.00", models.WithdrawalStatusPending))
	mock.ExpectExec(`UPDATE "withdrawal_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w, err := svc.RejectWithdrawal(3, 1, "bank details mismatch")
	require.NoError(err)
	require.Equal(models.WithdrawalStatusRejected, w.Status)
	require.NoError(mock.ExpectationsWereMet())
}

func TestRejectWithdrawalRequiresRemarks(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	_, err := svc.RejectWithdrawal(3, 1, "")
	require.ErrorIs(err, ErrReasonRequired)

	_, err = svc.RejectWithdrawal(3, 1, "\t ")
	require.ErrorIs(err, ErrReasonRequired)

	require.NoError(mock.ExpectationsWereMet())
}

func TestCreateWithdrawalChecksBalance(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "total_balance", "total_coins"}).
			AddRow(42, "100.00", "100.00"))

	err := svc.CreateWithdrawal(&models.WithdrawalRequest{
		UserID: 42,
		Amount: decimal.NewFromInt(500),
	})
	require.ErrorIs(err, ErrInsufficientFunds)
	require.NoError(mock.ExpectationsWereMet())
}

func TestCreateWithdrawalRejectsNonPositiveAmount(t *testing.T) {
	assert := assert.New(t)
	svc, _ := newMockService(t)

	err := svc.CreateWithdrawal(&models.WithdrawalRequest{UserID: 42, Amount: decimal.Zero})
	assert.ErrorIs(err, ErrInvalidAmount)

	err = svc.CreateWithdrawal(&models.WithdrawalRequest{UserID: 42, Amount: decimal.NewFromInt(-5)})
	assert.ErrorIs(err, ErrInvalidAmount)
}

func TestCreateDepositRejectsNonPositiveAmount(t *testing.T) {
	assert := assert.New(t)
	svc, _ := newMockService(t)

	err := svc.CreateDeposit(&models.PaymentScreenshot{UserID: 42, Amount: decimal.Zero})
	assert.ErrorIs(err, ErrInvalidAmount)
}

func TestBalance(t *testing.T) {
	require := require.New(t)
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"total_balance", "total_coins"}).
			AddRow("1234.56", "1234.56"))

	balance, coins, err := svc.Balance(42)
	require.NoError(err)
	require.Equal("1234.56", balance.StringFixed(2))
	require.Equal("1234.56", coins.StringFixed(2))
	require.NoError(mock.ExpectationsWereMet())
}
