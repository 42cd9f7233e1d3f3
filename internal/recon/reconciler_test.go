package recon_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	kafkamocks "github.com/minthive/nft-market/internal/infrastructure/kafka/mocks"
	mailermocks "github.com/minthive/nft-market/internal/infrastructure/mailer/mocks"
	"github.com/minthive/nft-market/internal/models"
	"github.com/minthive/nft-market/internal/recon"
	reconmocks "github.com/minthive/nft-market/internal/recon/mocks"
	repomocks "github.com/minthive/nft-market/internal/repository/mocks"
	pkgerrors "github.com/minthive/nft-market/pkg/errors"
)

type reconcilerFixture struct {
	transactions *repomocks.MockTransactionRepository
	users        *repomocks.MockUserRepository
	source       *reconmocks.MockSource
	mailer       *mailermocks.MockMailer
	producer     *kafkamocks.MockKafkaProducer
	reconciler   *recon.Reconciler
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	ctrl := gomock.NewController(t)
	f := &reconcilerFixture{
		transactions: repomocks.NewMockTransactionRepository(ctrl),
		users:        repomocks.NewMockUserRepository(ctrl),
		source:       reconmocks.NewMockSource(ctrl),
		mailer:       mailermocks.NewMockMailer(ctrl),
		producer:     kafkamocks.NewMockKafkaProducer(ctrl),
	}
	f.source.EXPECT().Name().Return("mailbox").AnyTimes()
	f.reconciler = recon.NewReconciler(f.transactions, f.users, f.source, f.mailer, f.producer, 30*time.Minute)
	return f
}

func pendingTx(id int32, amount string) models.Transaction {
	return models.Transaction{
		ID:     id,
		UserID: 7,
		NFTID:  3,
		Amount: decimal.RequireFromString(amount),
		Mode:   models.ModeINR,
		Status: models.StatusPending,
	}
}

func TestReconcilerTick(t *testing.T) {
	ctx := context.Background()

	t.Run("settles matched transaction and fires side effects", func(t *testing.T) {
		f := newReconcilerFixture(t)
		tx := pendingTx(482, "250.50")

		f.transactions.EXPECT().
			ListPending(gomock.Any(), models.ModeINR, models.SettleableStatuses, gomock.Any()).
			Return([]models.Transaction{tx}, nil)
		f.source.EXPECT().
			Payments(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]recon.IncomingPayment{
				{Amount: decimal.RequireFromString("250.50"), Ref: "UTR991", Note: "NFT Purchase Transaction 482"},
			}, nil)
		f.transactions.EXPECT().
			Settle(gomock.Any(), gomock.Any(), "UTR991", gomock.Any()).
			Return(nil)
		f.users.EXPECT().
			GetByID(gomock.Any(), int32(7)).
			Return(&models.User{ID: 7, Name: "Asha", Email: "asha@example.com"}, nil)
		f.mailer.EXPECT().
			SendPaymentReceipt(gomock.Any(), "asha@example.com", "Asha", gomock.Any()).
			Return(nil)
		f.producer.EXPECT().
			Send(gomock.Any(), "payments", int64(482), gomock.Any()).
			Return(nil)

		assert.NoError(t, f.reconciler.Tick(ctx))
	})

	t.Run("no pending transactions skips the source", func(t *testing.T) {
		f := newReconcilerFixture(t)

		f.transactions.EXPECT().
			ListPending(gomock.Any(), models.ModeINR, models.SettleableStatuses, gomock.Any()).
			Return(nil, nil)

		assert.NoError(t, f.reconciler.Tick(ctx))
	})

	t.Run("source failure does not abort the tick", func(t *testing.T) {
		f := newReconcilerFixture(t)
		tx := pendingTx(1, "100")

		f.transactions.EXPECT().
			ListPending(gomock.Any(), models.ModeINR, models.SettleableStatuses, gomock.Any()).
			Return([]models.Transaction{tx}, nil)
		f.source.EXPECT().
			Payments(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("imap: connection refused"))

		assert.NoError(t, f.reconciler.Tick(ctx))
	})

	t.Run("unmatched transaction is left pending", func(t *testing.T) {
		f := newReconcilerFixture(t)
		tx := pendingTx(482, "250.50")

		f.transactions.EXPECT().
			ListPending(gomock.Any(), models.ModeINR, models.SettleableStatuses, gomock.Any()).
			Return([]models.Transaction{tx}, nil)
		f.source.EXPECT().
			Payments(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]recon.IncomingPayment{
				{Amount: decimal.RequireFromString("250.50"), Note: "no id in sight"},
			}, nil)

		assert.NoError(t, f.reconciler.Tick(ctx))
	})

	t.Run("already settled transaction gets no receipt or event", func(t *testing.T) {
		f := newReconcilerFixture(t)
		tx := pendingTx(482, "250.50")

		f.transactions.EXPECT().
			ListPending(gomock.Any(), models.ModeINR, models.SettleableStatuses, gomock.Any()).
			Return([]models.Transaction{tx}, nil)
		f.source.EXPECT().
			Payments(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]recon.IncomingPayment{
				{Amount: decimal.RequireFromString("250.50"), Ref: "UTR1", Note: "482"},
			}, nil)
		f.transactions.EXPECT().
			Settle(gomock.Any(), gomock.Any(), "UTR1", gomock.Any()).
			Return(pkgerrors.ErrTransactionNotSettleable)

		assert.NoError(t, f.reconciler.Tick(ctx))
	})

	t.Run("settle failure on one transaction does not stop the rest", func(t *testing.T) {
		f := newReconcilerFixture(t)
		first := pendingTx(10, "100")
		second := pendingTx(11, "200")

		f.transactions.EXPECT().
			ListPending(gomock.Any(), models.ModeINR, models.SettleableStatuses, gomock.Any()).
			Return([]models.Transaction{first, second}, nil)
		f.source.EXPECT().
			Payments(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]recon.IncomingPayment{
				{Amount: decimal.RequireFromString("100"), Ref: "A10", Note: "txn 10"},
				{Amount: decimal.RequireFromString("200"), Ref: "A11", Note: "txn 11"},
			}, nil)
		f.transactions.EXPECT().
			Settle(gomock.Any(), gomock.Any(), "A10", gomock.Any()).
			Return(errors.New("db: connection reset"))
		f.transactions.EXPECT().
			Settle(gomock.Any(), gomock.Any(), "A11", gomock.Any()).
			Return(nil)
		f.users.EXPECT().
			GetByID(gomock.Any(), int32(7)).
			Return(&models.User{ID: 7, Name: "Asha", Email: "asha@example.com"}, nil)
		f.mailer.EXPECT().
			SendPaymentReceipt(gomock.Any(), "asha@example.com", "Asha", gomock.Any()).
			Return(nil)
		f.producer.EXPECT().
			Send(gomock.Any(), "payments", int64(11), gomock.Any()).
			Return(nil)

		assert.NoError(t, f.reconciler.Tick(ctx))
	})

	t.Run("buyer lookup failure still publishes the event", func(t *testing.T) {
		f := newReconcilerFixture(t)
		tx := pendingTx(5, "75")

		f.transactions.EXPECT().
			ListPending(gomock.Any(), models.ModeINR, models.SettleableStatuses, gomock.Any()).
			Return([]models.Transaction{tx}, nil)
		f.source.EXPECT().
			Payments(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]recon.IncomingPayment{
				{Amount: decimal.RequireFromString("75"), Ref: "R5", Note: "txn 5"},
			}, nil)
		f.transactions.EXPECT().
			Settle(gomock.Any(), gomock.Any(), "R5", gomock.Any()).
			Return(nil)
		f.users.EXPECT().
			GetByID(gomock.Any(), int32(7)).
			Return(nil, pkgerrors.ErrUserNotFound)
		f.producer.EXPECT().
			Send(gomock.Any(), "payments", int64(5), gomock.Any()).
			Return(nil)

		assert.NoError(t, f.reconciler.Tick(ctx))
	})

	t.Run("list failure aborts the tick", func(t *testing.T) {
		f := newReconcilerFixture(t)

		f.transactions.EXPECT().
			ListPending(gomock.Any(), models.ModeINR, models.SettleableStatuses, gomock.Any()).
			Return(nil, errors.New("db: down"))

		assert.Error(t, f.reconciler.Tick(ctx))
	})
}
