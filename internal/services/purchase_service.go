package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	stderrors "errors"

	"github.com/minthive/nft-market/internal/infrastructure/kafka"
	"github.com/minthive/nft-market/internal/infrastructure/redis"
	"github.com/minthive/nft-market/internal/models"
	"github.com/minthive/nft-market/internal/repository"
	"github.com/minthive/nft-market/internal/upi"
	pkgerrors "github.com/minthive/nft-market/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

type PurchaseService interface {
	InitiatePurchase(ctx context.Context, userID, nftID int32, requestID string) (*models.Transaction, string, error)
	GetTransaction(ctx context.Context, id int32) (*models.Transaction, error)
	VerifyTransaction(ctx context.Context, id int32, ref string) (*models.Transaction, error)
}

type purchaseService struct {
	userRepo        repository.UserRepository
	nftRepo         repository.NFTRepository
	transactionRepo repository.TransactionRepository
	redisClient     redis.RedisClient
	producer        kafka.KafkaProducer
	upiID           string
	upiPayeeName    string
}

func NewPurchaseService(
	userRepo repository.UserRepository,
	nftRepo repository.NFTRepository,
	transactionRepo repository.TransactionRepository,
	redisClient redis.RedisClient,
	producer kafka.KafkaProducer,
	upiID string,
	upiPayeeName string,
) *purchaseService {
	return &purchaseService{
		userRepo:        userRepo,
		nftRepo:         nftRepo,
		transactionRepo: transactionRepo,
		redisClient:     redisClient,
		producer:        producer,
		upiID:           upiID,
		upiPayeeName:    upiPayeeName,
	}
}

func (s *purchaseService) InitiatePurchase(ctx context.Context, userID, nftID int32, requestID string) (*models.Transaction, string, error) {
	tracer := otel.Tracer("purchase-service")
	ctx, span := tracer.Start(ctx, "InitiatePurchase")
	defer span.End()

	if requestID == "" {
		span.SetStatus(codes.Error, "empty request id")
		return nil, "", pkgerrors.ErrInvalidInput
	}

	requestKey := fmt.Sprintf("request:%s", requestID)
	ok, err := s.redisClient.SetNX(ctx, requestKey, "pending", 24*time.Hour)
	if err != nil {
		slog.Error("failed to set request key", "request_id", requestID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set request key")
		return nil, "", err
	}
	if !ok {
		slog.Warn("request already processed", "request_id", requestID, "user_id", userID)
		span.SetStatus(codes.Error, "request already processed")
		return nil, "", pkgerrors.ErrRequestAlreadyProcessed
	}

	lockKey := fmt.Sprintf("nft:%d:lock", nftID)
	ok, err = s.redisClient.SetNX(ctx, lockKey, "locked", 10*time.Second)
	if err != nil || !ok {
		s.redisClient.Del(ctx, requestKey)
		slog.Warn("nft is locked by another purchase", "nft_id", nftID, "error", err)
		span.SetStatus(codes.Error, "nft is locked")
		return nil, "", pkgerrors.ErrNFTLocked
	}
	defer s.redisClient.Del(ctx, lockKey)

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.redisClient.Del(ctx, requestKey)
		slog.Error("buyer not found", "user_id", userID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "buyer not found")
		return nil, "", err
	}

	nft, err := s.nftRepo.GetByID(ctx, nftID)
	if err != nil {
		s.redisClient.Del(ctx, requestKey)
		slog.Error("nft not found", "nft_id", nftID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "nft not found")
		return nil, "", err
	}
	if nft.IsSold || nft.IsReserved {
		s.redisClient.Del(ctx, requestKey)
		slog.Warn("nft is unavailable", "nft_id", nftID, "is_sold", nft.IsSold, "is_reserved", nft.IsReserved)
		span.SetStatus(codes.Error, "nft is unavailable")
		return nil, "", pkgerrors.ErrNFTUnavailable
	}

	if err := s.nftRepo.Reserve(ctx, nftID, time.Now().UTC()); err != nil {
		s.redisClient.Del(ctx, requestKey)
		slog.Error("failed to reserve nft", "nft_id", nftID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reserve nft")
		return nil, "", err
	}

	tx := &models.Transaction{
		UserID:   userID,
		NFTID:    nftID,
		Amount:   nft.PriceINR,
		Currency: "INR",
		Mode:     models.ModeINR,
		Status:   models.StatusPending,
	}
	txID, err := s.transactionRepo.Create(ctx, tx)
	if err != nil {
		if relErr := s.nftRepo.Release(ctx, nftID); relErr != nil {
			slog.Error("failed to release nft reservation", "nft_id", nftID, "error", relErr)
		}
		s.redisClient.Del(ctx, requestKey)
		slog.Error("failed to create transaction", "user_id", userID, "nft_id", nftID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create transaction")
		return nil, "", err
	}

	link := upi.PaymentLink(s.upiID, s.upiPayeeName, *tx)

	event := map[string]interface{}{
		"event_type":     "purchase_initiated",
		"transaction_id": txID,
		"user_id":        userID,
		"nft_id":         nftID,
		"nft_title":      nft.Title,
		"amount":         tx.Amount.String(),
		"email":          user.Email,
		"name":           user.Name,
		"payment_link":   link,
		"request_id":     requestID,
		"created_at":     time.Now().UTC().Format(time.RFC3339),
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		slog.Error("failed to marshal purchase event", "transaction_id", txID, "error", err)
	} else if err := s.producer.Send(ctx, "purchases", int64(txID), eventBytes); err != nil {
		// The buyer still gets the link in the HTTP response; only the email
		// notification is lost.
		slog.Error("failed to send purchase event", "transaction_id", txID, "error", err)
	}

	slog.Info("purchase initiated", "transaction_id", txID, "user_id", userID, "nft_id", nftID, "amount", tx.Amount, "request_id", requestID)
	return tx, link, nil
}

func (s *purchaseService) GetTransaction(ctx context.Context, id int32) (*models.Transaction, error) {
	tracer := otel.Tracer("purchase-service")
	ctx, span := tracer.Start(ctx, "GetTransaction")
	defer span.End()

	tx, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return tx, nil
}

// VerifyTransaction is the manual settlement path for operators. It shares
// the guarded repository settle with the reconciliation worker, so the two
// racing on one transaction can never both complete it.
func (s *purchaseService) VerifyTransaction(ctx context.Context, id int32, ref string) (*models.Transaction, error) {
	tracer := otel.Tracer("purchase-service")
	ctx, span := tracer.Start(ctx, "VerifyTransaction")
	defer span.End()

	tx, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := s.transactionRepo.Settle(ctx, tx, ref, time.Now().UTC()); err != nil {
		if stderrors.Is(err, pkgerrors.ErrTransactionNotSettleable) {
			slog.Warn("transaction not settleable via admin verify", "transaction_id", id, "status", tx.Status)
			span.SetStatus(codes.Error, "transaction not settleable")
			return nil, err
		}
		slog.Error("failed to verify transaction", "transaction_id", id, "error", err)
		span.RecordError(err)
		return nil, err
	}

	event := map[string]interface{}{
		"event_type":     "payment_completed",
		"transaction_id": tx.ID,
		"nft_id":         tx.NFTID,
		"user_id":        tx.UserID,
		"amount":         tx.Amount.String(),
		"txn_ref":        tx.TxnRef.String,
		"verified_by":    "admin",
		"completed_at":   time.Now().UTC().Format(time.RFC3339),
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal payment event", "transaction_id", tx.ID, "error", err)
	} else if err := s.producer.Send(ctx, "payments", int64(tx.ID), eventBytes); err != nil {
		slog.Warn("failed to send payment event", "transaction_id", tx.ID, "error", err)
	}

	slog.Info("transaction verified by admin", "transaction_id", tx.ID, "txn_ref", tx.TxnRef.String)
	return tx, nil
}
