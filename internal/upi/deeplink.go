// Package upi builds NPCI-style upi://pay deep links for purchase payments.
//
// The tn (note) field embeds the literal decimal transaction id. Bank alert
// mail echoes the note back, and the reconciliation matcher relies on finding
// the id there; changing the note format breaks automatic reconciliation.
package upi

import (
	"fmt"
	"net/url"

	"github.com/minthive/nft-market/internal/models"
)

// PaymentNote returns the note text for a transaction's UPI payment.
func PaymentNote(txID int32) string {
	return fmt.Sprintf("NFT Purchase Transaction %d", txID)
}

// PaymentLink builds the upi://pay deep link for a pending transaction.
func PaymentLink(payeeVPA, payeeName string, tx models.Transaction) string {
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%s&cu=INR&tr=%d&tn=%s",
		payeeVPA,
		url.PathEscape(payeeName),
		tx.Amount.StringFixed(2),
		tx.ID,
		url.PathEscape(PaymentNote(tx.ID)),
	)
}
