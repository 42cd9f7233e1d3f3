package recon

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/minthive/nft-market/internal/config"
	"github.com/minthive/nft-market/internal/models"
)

func TestNewSource(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{config.SourceMailbox, config.SourceMailbox},
		{config.SourceSynthetic, config.SourceSynthetic},
		{config.SourceDisabled, config.SourceDisabled},
		{"carrier-pigeon", config.SourceDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Recon.Source = tt.source
			assert.Equal(t, tt.want, NewSource(cfg).Name())
		})
	}
}

func TestDisabledSource(t *testing.T) {
	payments, err := DisabledSource{}.Payments(context.Background(), time.Now(), []models.Transaction{{ID: 1}})
	assert.NoError(t, err)
	assert.Empty(t, payments)
}

func TestSyntheticSource(t *testing.T) {
	pending := []models.Transaction{
		{ID: 482, Amount: decimal.RequireFromString("250.50")},
		{ID: 483, Amount: decimal.RequireFromString("99")},
	}

	payments, err := SyntheticSource{}.Payments(context.Background(), time.Now(), pending)
	assert.NoError(t, err)
	assert.Len(t, payments, 2)

	// every fabricated candidate must satisfy the matcher for its transaction
	for i, tx := range pending {
		got, ok := MatchPayment(tx, payments[i:i+1])
		assert.True(t, ok)
		assert.Equal(t, payments[i], got)
	}
}
