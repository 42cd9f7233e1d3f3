package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/minthive/nft-market/internal/models"
	pkgerrors "github.com/minthive/nft-market/pkg/errors"
)

type PostgresNFTRepository struct {
	db *sql.DB
}

func NewPostgresNFTRepository(db *sql.DB) *PostgresNFTRepository {
	return &PostgresNFTRepository{db: db}
}

func (r *PostgresNFTRepository) GetByID(ctx context.Context, id int32) (*models.NFT, error) {
	query := `
			SELECT id, title, price_inr, is_sold, is_reserved, reserved_at, sold_at, owner_id, created_at
			FROM nfts
			WHERE id = $1
`
	var nft models.NFT
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&nft.ID,
		&nft.Title,
		&nft.PriceINR,
		&nft.IsSold,
		&nft.IsReserved,
		&nft.ReservedAt,
		&nft.SoldAt,
		&nft.OwnerID,
		&nft.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNFTNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get nft: %w", err)
	}
	return &nft, nil
}

func (r *PostgresNFTRepository) Reserve(ctx context.Context, id int32, reservedAt time.Time) error {
	query := `
		UPDATE nfts
		SET is_reserved = TRUE, reserved_at = $2
		WHERE id = $1 AND is_sold = FALSE AND is_reserved = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, id, reservedAt)
	if err != nil {
		return fmt.Errorf("failed to reserve nft: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to reserve nft: %w", err)
	}
	if affected == 0 {
		return pkgerrors.ErrNFTUnavailable
	}
	return nil
}

func (r *PostgresNFTRepository) Release(ctx context.Context, id int32) error {
	query := `UPDATE nfts SET is_reserved = FALSE, reserved_at = NULL WHERE id = $1 AND is_sold = FALSE`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to release nft reservation: %w", err)
	}
	return nil
}
