package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID        int32           `json:"id"`
	UserID    int32           `json:"user_id"`
	NFTID     int32           `json:"nft_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Mode      PaymentMode     `json:"payment_mode"`
	Status    PaymentStatus   `json:"payment_status"`
	TxnRef    sql.NullString  `json:"txn_ref,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type PaymentMode string

const (
	ModeINR    PaymentMode = "INR"
	ModeUSD    PaymentMode = "USD"
	ModePayPal PaymentMode = "PAYPAL"
)

type PaymentStatus string

const (
	StatusPending              PaymentStatus = "pending"
	StatusAwaitingVerification PaymentStatus = "awaiting_verification"
	StatusCompleted            PaymentStatus = "completed"
	StatusExpired              PaymentStatus = "expired"
	StatusFailed               PaymentStatus = "failed"
)

// SettleableStatuses are the statuses a transaction may transition to
// completed from. Anything else has already been processed or written off.
var SettleableStatuses = []PaymentStatus{StatusPending, StatusAwaitingVerification}
