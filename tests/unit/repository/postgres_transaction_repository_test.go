package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/minthive/nft-market/internal/models"
	repository "github.com/minthive/nft-market/internal/repository/postgres"
	pkgerrors "github.com/minthive/nft-market/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPostgresTransactionRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresTransactionRepository(db)
	ctx := context.Background()

	t.Run("NilTransaction", func(t *testing.T) {
		id, err := repo.Create(ctx, nil)
		assert.Equal(t, int32(0), id)
		assert.ErrorIs(t, err, pkgerrors.ErrNilTransaction)
	})

	t.Run("InvalidMode", func(t *testing.T) {
		tx := &models.Transaction{
			UserID: 1,
			NFTID:  1,
			Amount: decimal.RequireFromString("500"),
			Mode:   "BARTER",
			Status: models.StatusPending,
		}
		id, err := repo.Create(ctx, tx)
		assert.Equal(t, int32(0), id)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidPaymentMode)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		tx := &models.Transaction{
			UserID: 1,
			NFTID:  1,
			Amount: decimal.RequireFromString("500"),
			Mode:   models.ModeINR,
			Status: "unknown",
		}
		id, err := repo.Create(ctx, tx)
		assert.Equal(t, int32(0), id)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidTransactionStatus)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		tx := &models.Transaction{
			UserID: 1,
			NFTID:  1,
			Amount: decimal.Zero,
			Mode:   models.ModeINR,
			Status: models.StatusPending,
		}
		id, err := repo.Create(ctx, tx)
		assert.Equal(t, int32(0), id)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "amount must be positive")
	})

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		tx := &models.Transaction{
			UserID:   7,
			NFTID:    3,
			Amount:   decimal.RequireFromString("250.50"),
			Currency: "INR",
			Mode:     models.ModeINR,
			Status:   models.StatusPending,
		}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions (user_id, nft_id, amount, currency, payment_mode, payment_status) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`)).
			WithArgs(tx.UserID, tx.NFTID, tx.Amount, tx.Currency, tx.Mode, tx.Status).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(int32(482), now, now))

		id, err := repo.Create(ctx, tx)
		assert.NoError(t, err)
		assert.Equal(t, int32(482), id)
		assert.Equal(t, int32(482), tx.ID)
		assert.Equal(t, now, tx.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DatabaseError", func(t *testing.T) {
		tx := &models.Transaction{
			UserID:   7,
			NFTID:    3,
			Amount:   decimal.RequireFromString("250.50"),
			Currency: "INR",
			Mode:     models.ModeINR,
			Status:   models.StatusPending,
		}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
			WithArgs(tx.UserID, tx.NFTID, tx.Amount, tx.Currency, tx.Mode, tx.Status).
			WillReturnError(fmt.Errorf("database error"))

		id, err := repo.Create(ctx, tx)
		assert.Equal(t, int32(0), id)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTransactionRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresTransactionRepository(db)
	ctx := context.Background()

	query := regexp.QuoteMeta(`SELECT id, user_id, nft_id, amount, currency, payment_mode, payment_status, txn_ref, created_at, updated_at FROM transactions WHERE id = $1`)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(query).
			WithArgs(int32(482)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "nft_id", "amount", "currency", "payment_mode", "payment_status", "txn_ref", "created_at", "updated_at"}).
				AddRow(int32(482), int32(7), int32(3), "250.50", "INR", "INR", "pending", nil, now, now))

		tx, err := repo.GetByID(ctx, 482)
		assert.NoError(t, err)
		assert.Equal(t, int32(482), tx.ID)
		assert.Equal(t, models.StatusPending, tx.Status)
		assert.True(t, tx.Amount.Equal(decimal.RequireFromString("250.50")))
		assert.False(t, tx.TxnRef.Valid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(int32(482)).
			WillReturnError(sql.ErrNoRows)

		tx, err := repo.GetByID(ctx, 482)
		assert.Nil(t, tx)
		assert.ErrorIs(t, err, pkgerrors.ErrTransactionNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTransactionRepository_ListPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresTransactionRepository(db)
	ctx := context.Background()

	query := regexp.QuoteMeta(`SELECT id, user_id, nft_id, amount, currency, payment_mode, payment_status, txn_ref, created_at, updated_at FROM transactions WHERE payment_mode = $1 AND payment_status = ANY($2) AND created_at >= $3 ORDER BY created_at`)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		since := now.Add(-30 * time.Minute)
		mock.ExpectQuery(query).
			WithArgs(models.ModeINR, sqlmock.AnyArg(), since).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "nft_id", "amount", "currency", "payment_mode", "payment_status", "txn_ref", "created_at", "updated_at"}).
				AddRow(int32(1), int32(7), int32(3), "100", "INR", "INR", "pending", nil, now, now).
				AddRow(int32(2), int32(8), int32(4), "200.50", "INR", "INR", "awaiting_verification", "UTR1", now, now))

		transactions, err := repo.ListPending(ctx, models.ModeINR, models.SettleableStatuses, since)
		assert.NoError(t, err)
		assert.Len(t, transactions, 2)
		assert.Equal(t, int32(1), transactions[0].ID)
		assert.Equal(t, models.StatusAwaitingVerification, transactions[1].Status)
		assert.Equal(t, "UTR1", transactions[1].TxnRef.String)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty", func(t *testing.T) {
		since := time.Now().Add(-30 * time.Minute)
		mock.ExpectQuery(query).
			WithArgs(models.ModeINR, sqlmock.AnyArg(), since).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "nft_id", "amount", "currency", "payment_mode", "payment_status", "txn_ref", "created_at", "updated_at"}))

		transactions, err := repo.ListPending(ctx, models.ModeINR, models.SettleableStatuses, since)
		assert.NoError(t, err)
		assert.Empty(t, transactions)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DatabaseError", func(t *testing.T) {
		since := time.Now().Add(-30 * time.Minute)
		mock.ExpectQuery(query).
			WithArgs(models.ModeINR, sqlmock.AnyArg(), since).
			WillReturnError(fmt.Errorf("database error"))

		transactions, err := repo.ListPending(ctx, models.ModeINR, models.SettleableStatuses, since)
		assert.Nil(t, transactions)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list pending transactions")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTransactionRepository_Settle(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresTransactionRepository(db)
	ctx := context.Background()

	settleQuery := regexp.QuoteMeta(`UPDATE transactions SET payment_status = 'completed', txn_ref = COALESCE(NULLIF(txn_ref, ''), $1), updated_at = NOW() WHERE id = $2 AND payment_status IN ('pending', 'awaiting_verification') RETURNING txn_ref`)
	nftQuery := regexp.QuoteMeta(`UPDATE nfts SET is_sold = TRUE, is_reserved = FALSE, owner_id = $1, sold_at = $2 WHERE id = $3`)

	t.Run("NilTransaction", func(t *testing.T) {
		err := repo.Settle(ctx, nil, "UTR991", time.Now())
		assert.ErrorIs(t, err, pkgerrors.ErrNilTransaction)
	})

	t.Run("Success", func(t *testing.T) {
		soldAt := time.Now()
		tx := &models.Transaction{
			ID:     482,
			UserID: 7,
			NFTID:  3,
			Amount: decimal.RequireFromString("250.50"),
			Mode:   models.ModeINR,
			Status: models.StatusPending,
		}
		mock.ExpectBegin()
		mock.ExpectQuery(settleQuery).
			WithArgs("UTR991", tx.ID).
			WillReturnRows(sqlmock.NewRows([]string{"txn_ref"}).AddRow("UTR991"))
		mock.ExpectExec(nftQuery).
			WithArgs(tx.UserID, soldAt, tx.NFTID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Settle(ctx, tx, "UTR991", soldAt)
		assert.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, tx.Status)
		assert.Equal(t, "UTR991", tx.TxnRef.String)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("KeepsExistingRef", func(t *testing.T) {
		soldAt := time.Now()
		tx := &models.Transaction{ID: 482, UserID: 7, NFTID: 3, Status: models.StatusAwaitingVerification}
		mock.ExpectBegin()
		mock.ExpectQuery(settleQuery).
			WithArgs("LATE-REF", tx.ID).
			WillReturnRows(sqlmock.NewRows([]string{"txn_ref"}).AddRow("ORIGINAL"))
		mock.ExpectExec(nftQuery).
			WithArgs(tx.UserID, soldAt, tx.NFTID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Settle(ctx, tx, "LATE-REF", soldAt)
		assert.NoError(t, err)
		assert.Equal(t, "ORIGINAL", tx.TxnRef.String)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotSettleable", func(t *testing.T) {
		tx := &models.Transaction{ID: 482, UserID: 7, NFTID: 3, Status: models.StatusCompleted}
		mock.ExpectBegin()
		mock.ExpectQuery(settleQuery).
			WithArgs("UTR991", tx.ID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		err := repo.Settle(ctx, tx, "UTR991", time.Now())
		assert.ErrorIs(t, err, pkgerrors.ErrTransactionNotSettleable)
		assert.Equal(t, models.StatusCompleted, tx.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NFTUpdateFails", func(t *testing.T) {
		soldAt := time.Now()
		tx := &models.Transaction{ID: 482, UserID: 7, NFTID: 3, Status: models.StatusPending}
		mock.ExpectBegin()
		mock.ExpectQuery(settleQuery).
			WithArgs("UTR991", tx.ID).
			WillReturnRows(sqlmock.NewRows([]string{"txn_ref"}).AddRow("UTR991"))
		mock.ExpectExec(nftQuery).
			WithArgs(tx.UserID, soldAt, tx.NFTID).
			WillReturnError(fmt.Errorf("database error"))
		mock.ExpectRollback()

		err := repo.Settle(ctx, tx, "UTR991", soldAt)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to mark nft sold")
		assert.Equal(t, models.StatusPending, tx.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
