package repository

import (
	"context"
	"time"

	"github.com/minthive/nft-market/internal/models"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) (int32, error)
	GetByID(ctx context.Context, id int32) (*models.Transaction, error)
	ListPending(ctx context.Context, mode models.PaymentMode, statuses []models.PaymentStatus, since time.Time) ([]models.Transaction, error)
	Settle(ctx context.Context, tx *models.Transaction, ref string, soldAt time.Time) error
}
