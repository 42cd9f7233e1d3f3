package upi

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/minthive/nft-market/internal/models"
)

func TestPaymentNote(t *testing.T) {
	assert.Equal(t, "NFT Purchase Transaction 482", PaymentNote(482))
}

func TestPaymentLink(t *testing.T) {
	tx := models.Transaction{
		ID:     482,
		Amount: decimal.RequireFromString("250.5"),
	}

	link := PaymentLink("merchant@upi", "MintHive Marketplace", tx)

	assert.Equal(t,
		"upi://pay?pa=merchant@upi&pn=MintHive%20Marketplace&am=250.50&cu=INR&tr=482&tn=NFT%20Purchase%20Transaction%20482",
		link)
}

func TestPaymentLinkPadsAmount(t *testing.T) {
	tx := models.Transaction{ID: 1, Amount: decimal.RequireFromString("1000")}

	link := PaymentLink("merchant@upi", "Shop", tx)

	assert.Contains(t, link, "am=1000.00")
	assert.Contains(t, link, "tr=1")
}
