package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type NFT struct {
	ID         int32           `json:"id"`
	Title      string          `json:"title"`
	PriceINR   decimal.Decimal `json:"price_inr"`
	IsSold     bool            `json:"is_sold"`
	IsReserved bool            `json:"is_reserved"`
	ReservedAt sql.NullTime    `json:"reserved_at,omitempty"`
	SoldAt     sql.NullTime    `json:"sold_at,omitempty"`
	OwnerID    sql.NullInt32   `json:"owner_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
