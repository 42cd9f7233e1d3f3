package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/minthive/nft-market/internal/infrastructure/observability"
	"github.com/minthive/nft-market/internal/models"
	pkgerrors "github.com/minthive/nft-market/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type PostgresTransactionRepository struct {
	db *sql.DB
}

func NewPostgresTransactionRepository(db *sql.DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

func (r *PostgresTransactionRepository) Create(ctx context.Context, tx *models.Transaction) (int32, error) {
	var err error
	tracer := otel.Tracer("transaction-repository")
	ctx, span := tracer.Start(ctx, "CreateTransaction")
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.RepositoryCalls.WithLabelValues("CreateTransaction", status).Inc()
		observability.RepositoryDuration.WithLabelValues("CreateTransaction").Observe(time.Since(start).Seconds())
	}()

	if tx == nil {
		err = pkgerrors.ErrNilTransaction
		slog.Error("failed to create transaction", "method", "Create", "error", err)
		return 0, err
	}

	if tx.Mode != models.ModeINR && tx.Mode != models.ModeUSD && tx.Mode != models.ModePayPal {
		err = pkgerrors.ErrInvalidPaymentMode
		slog.Error("invalid payment mode", "method", "Create", "mode", tx.Mode, "error", err)
		return 0, err
	}

	switch tx.Status {
	case models.StatusPending, models.StatusAwaitingVerification, models.StatusCompleted, models.StatusExpired, models.StatusFailed:
	default:
		err = pkgerrors.ErrInvalidTransactionStatus
		slog.Error("invalid transaction status", "method", "Create", "status", tx.Status, "error", err)
		return 0, err
	}

	if !tx.Amount.IsPositive() {
		err = fmt.Errorf("amount must be positive")
		slog.Error("amount must be positive", "method", "Create", "amount", tx.Amount, "error", err)
		return 0, err
	}

	span.SetAttributes(
		attribute.Int("user_id", int(tx.UserID)),
		attribute.Int("nft_id", int(tx.NFTID)),
		attribute.String("amount", tx.Amount.String()),
		attribute.String("mode", string(tx.Mode)),
		attribute.String("status", string(tx.Status)),
	)

	query := `INSERT INTO transactions (user_id, nft_id, amount, currency, payment_mode, payment_status) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`
	var txID int32
	var createdAt, updatedAt time.Time
	err = r.db.QueryRowContext(ctx, query, tx.UserID, tx.NFTID, tx.Amount, tx.Currency, tx.Mode, tx.Status).Scan(&txID, &createdAt, &updatedAt)
	if err != nil {
		slog.Error("failed to create transaction", "method", "Create", "user_id", tx.UserID, "nft_id", tx.NFTID, "mode", tx.Mode, "status", tx.Status, "error", err)
		return 0, fmt.Errorf("failed to create transaction: %w", err)
	}

	tx.ID = txID
	tx.CreatedAt = createdAt
	tx.UpdatedAt = updatedAt
	slog.Info("transaction created", "method", "Create", "id", tx.ID, "user_id", tx.UserID, "nft_id", tx.NFTID, "amount", tx.Amount, "status", tx.Status)
	return txID, nil
}

func (r *PostgresTransactionRepository) GetByID(ctx context.Context, id int32) (*models.Transaction, error) {
	var err error
	tracer := otel.Tracer("transaction-repository")
	ctx, span := tracer.Start(ctx, "GetTransactionByID")
	span.SetAttributes(attribute.Int("transaction_id", int(id)))
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.RepositoryCalls.WithLabelValues("GetTransactionByID", status).Inc()
		observability.RepositoryDuration.WithLabelValues("GetTransactionByID").Observe(time.Since(start).Seconds())
	}()

	var tx models.Transaction
	query := `SELECT id, user_id, nft_id, amount, currency, payment_mode, payment_status, txn_ref, created_at, updated_at FROM transactions WHERE id = $1`
	err = r.db.QueryRowContext(ctx, query, id).Scan(&tx.ID, &tx.UserID, &tx.NFTID, &tx.Amount, &tx.Currency, &tx.Mode, &tx.Status, &tx.TxnRef, &tx.CreatedAt, &tx.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		slog.Error("transaction not found", "method", "GetByID", "transaction_id", id, "error", err)
		return nil, pkgerrors.ErrTransactionNotFound
	}
	if err != nil {
		slog.Error("failed to get transaction by id", "method", "GetByID", "transaction_id", id, "error", err)
		return nil, fmt.Errorf("failed to get transaction by id: %w", err)
	}

	return &tx, nil
}

func (r *PostgresTransactionRepository) ListPending(ctx context.Context, mode models.PaymentMode, statuses []models.PaymentStatus, since time.Time) ([]models.Transaction, error) {
	var err error
	tracer := otel.Tracer("transaction-repository")
	ctx, span := tracer.Start(ctx, "ListPendingTransactions")
	span.SetAttributes(attribute.String("mode", string(mode)))
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.RepositoryCalls.WithLabelValues("ListPendingTransactions", status).Inc()
		observability.RepositoryDuration.WithLabelValues("ListPendingTransactions").Observe(time.Since(start).Seconds())
	}()

	statusValues := make([]string, 0, len(statuses))
	for _, s := range statuses {
		statusValues = append(statusValues, string(s))
	}

	query := `
		SELECT id, user_id, nft_id, amount, currency, payment_mode, payment_status, txn_ref, created_at, updated_at
		FROM transactions
		WHERE payment_mode = $1 AND payment_status = ANY($2) AND created_at >= $3
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, mode, pq.Array(statusValues), since)
	if err != nil {
		slog.Error("failed to list pending transactions", "method", "ListPending", "mode", mode, "error", err)
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err = rows.Scan(&tx.ID, &tx.UserID, &tx.NFTID, &tx.Amount, &tx.Currency, &tx.Mode, &tx.Status, &tx.TxnRef, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
			slog.Error("failed to scan pending transaction", "method", "ListPending", "error", err)
			return nil, fmt.Errorf("failed to scan pending transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending transactions: %w", err)
	}

	return transactions, nil
}

// Settle moves a transaction to completed and marks its NFT sold in one
// database transaction. The status guard makes it safe to call from both the
// reconciliation worker and the admin verify endpoint: whoever commits second
// sees no settleable row and gets ErrTransactionNotSettleable.
func (r *PostgresTransactionRepository) Settle(ctx context.Context, tx *models.Transaction, ref string, soldAt time.Time) error {
	var err error
	tracer := otel.Tracer("transaction-repository")
	ctx, span := tracer.Start(ctx, "SettleTransaction")
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.RepositoryCalls.WithLabelValues("SettleTransaction", status).Inc()
		observability.RepositoryDuration.WithLabelValues("SettleTransaction").Observe(time.Since(start).Seconds())
	}()

	if tx == nil {
		err = pkgerrors.ErrNilTransaction
		slog.Error("failed to settle transaction", "method", "Settle", "error", err)
		return err
	}

	span.SetAttributes(
		attribute.Int("transaction_id", int(tx.ID)),
		attribute.Int("nft_id", int(tx.NFTID)),
		attribute.Int("user_id", int(tx.UserID)),
	)

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "method", "Settle", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	settleQuery := `
		UPDATE transactions
		SET payment_status = 'completed', txn_ref = COALESCE(NULLIF(txn_ref, ''), $1), updated_at = NOW()
		WHERE id = $2 AND payment_status IN ('pending', 'awaiting_verification')
		RETURNING txn_ref
	`
	var finalRef sql.NullString
	err = dbTx.QueryRowContext(ctx, settleQuery, sql.NullString{String: ref, Valid: ref != ""}, tx.ID).Scan(&finalRef)
	if stderrors.Is(err, sql.ErrNoRows) {
		if rbErr := dbTx.Rollback(); rbErr != nil {
			slog.Error("rollback failed", "method", "Settle", "error", rbErr)
		}
		err = pkgerrors.ErrTransactionNotSettleable
		slog.Warn("transaction not settleable, skipping", "method", "Settle", "transaction_id", tx.ID)
		return err
	}
	if err != nil {
		if rbErr := dbTx.Rollback(); rbErr != nil {
			slog.Error("rollback failed", "method", "Settle", "error", rbErr)
		}
		slog.Error("failed to settle transaction", "method", "Settle", "transaction_id", tx.ID, "error", err)
		return fmt.Errorf("failed to settle transaction: %w", err)
	}

	nftQuery := `UPDATE nfts SET is_sold = TRUE, is_reserved = FALSE, owner_id = $1, sold_at = $2 WHERE id = $3`
	if _, err = dbTx.ExecContext(ctx, nftQuery, tx.UserID, soldAt, tx.NFTID); err != nil {
		if rbErr := dbTx.Rollback(); rbErr != nil {
			slog.Error("rollback failed", "method", "Settle", "error", rbErr)
		}
		slog.Error("failed to mark nft sold", "method", "Settle", "transaction_id", tx.ID, "nft_id", tx.NFTID, "error", err)
		return fmt.Errorf("failed to mark nft sold: %w", err)
	}

	if err = dbTx.Commit(); err != nil {
		slog.Error("failed to commit settlement", "method", "Settle", "transaction_id", tx.ID, "error", err)
		return fmt.Errorf("failed to commit settlement: %w", err)
	}

	tx.Status = models.StatusCompleted
	tx.TxnRef = finalRef
	slog.Info("transaction settled", "method", "Settle", "transaction_id", tx.ID, "nft_id", tx.NFTID, "user_id", tx.UserID, "txn_ref", finalRef.String)
	return nil
}
