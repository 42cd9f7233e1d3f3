package recon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/minthive/nft-market/internal/infrastructure/kafka"
	"github.com/minthive/nft-market/internal/infrastructure/mailer"
	"github.com/minthive/nft-market/internal/infrastructure/observability"
	"github.com/minthive/nft-market/internal/models"
	"github.com/minthive/nft-market/internal/repository"
	pkgerrors "github.com/minthive/nft-market/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	stderrors "errors"
)

// Reconciler runs one fetch-match-commit cycle over pending INR transactions.
// It owns no schedule; the Worker drives it.
type Reconciler struct {
	transactions repository.TransactionRepository
	users        repository.UserRepository
	source       Source
	mailer       mailer.Mailer
	producer     kafka.KafkaProducer
	lookback     time.Duration
}

func NewReconciler(
	transactions repository.TransactionRepository,
	users repository.UserRepository,
	source Source,
	m mailer.Mailer,
	producer kafka.KafkaProducer,
	lookback time.Duration,
) *Reconciler {
	return &Reconciler{
		transactions: transactions,
		users:        users,
		source:       source,
		mailer:       m,
		producer:     producer,
		lookback:     lookback,
	}
}

func (r *Reconciler) Tick(ctx context.Context) error {
	tracer := otel.Tracer("reconciler")
	ctx, span := tracer.Start(ctx, "ReconciliationTick")
	defer span.End()

	since := time.Now().UTC().Add(-r.lookback)
	pending, err := r.transactions.ListPending(ctx, models.ModeINR, models.SettleableStatuses, since)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list pending transactions")
		return fmt.Errorf("failed to list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}
	span.SetAttributes(attribute.Int("pending", len(pending)))

	payments, err := r.source.Payments(ctx, since, pending)
	if err != nil {
		// Source failures never abort the tick; unmatched transactions are
		// simply retried on the next one.
		span.RecordError(err)
		slog.Warn("payment source fetch failed, continuing with no candidates",
			"source", r.source.Name(),
			"error", err)
	}
	observability.ReconPaymentsFetched.WithLabelValues(r.source.Name()).Add(float64(len(payments)))
	span.SetAttributes(attribute.Int("candidates", len(payments)))

	matched := 0
	for _, tx := range pending {
		payment, ok := MatchPayment(tx, payments)
		if !ok {
			continue
		}
		if err := r.settle(ctx, tx, payment); err != nil {
			if stderrors.Is(err, pkgerrors.ErrTransactionNotSettleable) {
				slog.Info("transaction already settled elsewhere", "transaction_id", tx.ID)
				continue
			}
			slog.Error("failed to settle matched transaction", "transaction_id", tx.ID, "error", err)
			continue
		}
		matched++
	}

	slog.Info("reconciliation tick finished",
		"source", r.source.Name(),
		"pending", len(pending),
		"candidates", len(payments),
		"matched", matched)
	return nil
}

// settle commits the match, then fires the best-effort side effects. Receipt
// mail or event publishing going wrong never rolls back the committed state.
func (r *Reconciler) settle(ctx context.Context, tx models.Transaction, payment IncomingPayment) error {
	soldAt := time.Now().UTC()
	if err := r.transactions.Settle(ctx, &tx, payment.Ref, soldAt); err != nil {
		return err
	}
	observability.ReconMatches.Inc()
	slog.Info("reconciliation settled transaction",
		"transaction_id", tx.ID,
		"nft_id", tx.NFTID,
		"user_id", tx.UserID,
		"amount", tx.Amount,
		"txn_ref", tx.TxnRef.String)

	user, err := r.users.GetByID(ctx, tx.UserID)
	if err != nil {
		slog.Warn("failed to load buyer for receipt email", "transaction_id", tx.ID, "user_id", tx.UserID, "error", err)
	} else if user.Email != "" {
		if err := r.mailer.SendPaymentReceipt(ctx, user.Email, user.Name, tx); err != nil {
			slog.Warn("failed to send receipt email", "transaction_id", tx.ID, "error", err)
		}
	}

	event := map[string]interface{}{
		"event_type":     "payment_completed",
		"transaction_id": tx.ID,
		"nft_id":         tx.NFTID,
		"user_id":        tx.UserID,
		"amount":         tx.Amount.String(),
		"txn_ref":        tx.TxnRef.String,
		"completed_at":   soldAt.Format(time.RFC3339),
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal payment event", "transaction_id", tx.ID, "error", err)
		return nil
	}
	if err := r.producer.Send(ctx, "payments", int64(tx.ID), eventBytes); err != nil {
		slog.Warn("failed to send payment event", "transaction_id", tx.ID, "error", err)
	}
	return nil
}
