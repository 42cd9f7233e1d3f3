package recon

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/minthive/nft-market/internal/config"
	"github.com/minthive/nft-market/internal/models"
	"github.com/shopspring/decimal"
)

// IncomingPayment is a best-effort candidate extracted from a payment
// notification. It lives for one tick and is never persisted; the exact
// amount and identifier checks in the matcher are the real correctness gate.
type IncomingPayment struct {
	Amount decimal.Decimal
	Ref    string
	Note   string
	When   time.Time
}

// Source produces candidate payments observed since the lookback time.
// The pending set is passed through so synthetic sources can fabricate
// matching candidates; real sources ignore it.
type Source interface {
	Name() string
	Payments(ctx context.Context, since time.Time, pending []models.Transaction) ([]IncomingPayment, error)
}

// NewSource picks a source implementation from config. Disabled is the safe
// default for anything unrecognized.
func NewSource(cfg *config.Config) Source {
	switch cfg.Recon.Source {
	case config.SourceMailbox:
		return NewMailboxSource(cfg.IMAP)
	case config.SourceSynthetic:
		return SyntheticSource{}
	default:
		return DisabledSource{}
	}
}

var relevantKeywords = regexp.MustCompile(`(?i)UPI|credited|received|payment`)

const maxNoteLen = 500

// paymentFromText applies the coarse keyword filter and the extractor to one
// message blob. Messages with no recognizable amount are dropped.
func paymentFromText(text string, when time.Time) (IncomingPayment, bool) {
	if !relevantKeywords.MatchString(text) {
		return IncomingPayment{}, false
	}
	amount, ok := ExtractAmount(text)
	if !ok {
		return IncomingPayment{}, false
	}
	note := text
	if len(note) > maxNoteLen {
		note = note[:maxNoteLen]
	}
	return IncomingPayment{Amount: amount, Ref: ExtractRef(text), Note: note, When: when}, true
}

// DisabledSource never yields candidates.
type DisabledSource struct{}

func (DisabledSource) Name() string { return config.SourceDisabled }

func (DisabledSource) Payments(context.Context, time.Time, []models.Transaction) ([]IncomingPayment, error) {
	return nil, nil
}

// SyntheticSource fabricates one matching candidate per pending transaction.
// It exists to exercise the matching pipeline in development without live
// bank mail.
type SyntheticSource struct{}

func (SyntheticSource) Name() string { return config.SourceSynthetic }

func (SyntheticSource) Payments(_ context.Context, _ time.Time, pending []models.Transaction) ([]IncomingPayment, error) {
	payments := make([]IncomingPayment, 0, len(pending))
	for _, tx := range pending {
		payments = append(payments, IncomingPayment{
			Amount: tx.Amount,
			Ref:    fmt.Sprintf("SYN-%d", tx.ID),
			Note:   fmt.Sprintf("synthetic auto-match for transaction %d", tx.ID),
			When:   time.Now().UTC(),
		})
	}
	return payments, nil
}
