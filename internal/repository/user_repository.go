package repository

import (
	"context"

	"github.com/minthive/nft-market/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int32) (*models.User, error)
}
