package repository

import (
	"context"
	"time"

	"github.com/minthive/nft-market/internal/models"
)

type NFTRepository interface {
	GetByID(ctx context.Context, id int32) (*models.NFT, error)
	Reserve(ctx context.Context, id int32, reservedAt time.Time) error
	Release(ctx context.Context, id int32) error
}
