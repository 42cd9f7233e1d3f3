package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minthive/nft-market/internal/models"
	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email to buyers. Delivery is best-effort;
// callers decide what a failed send means for them.
type Mailer interface {
	SendPaymentRequest(ctx context.Context, to, name string, txID int32, amount decimal.Decimal, paymentLink string) error
	SendPaymentReceipt(ctx context.Context, to, name string, tx models.Transaction) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) SendPaymentRequest(_ context.Context, to, name string, txID int32, amount decimal.Decimal, paymentLink string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("UPI Payment for NFT Purchase - Transaction #%d", txID))
	body := fmt.Sprintf(`
		<html>
		<body>
		<p>Hi %s,</p>
		<p>Your NFT purchase is reserved. Pay <strong>&#8377;%s</strong> via UPI to complete it:</p>
		<p><a href="%s">%s</a></p>
		<p>Keep the payment note unchanged so we can confirm your payment automatically.</p>
		</body>
		</html>`, name, amount.StringFixed(2), paymentLink, paymentLink)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		slog.Error("failed to send payment request email", "to", to, "transaction_id", txID, "error", err)
		return fmt.Errorf("failed to send payment request email: %w", err)
	}
	slog.Info("payment request email sent", "to", to, "transaction_id", txID)
	return nil
}

func (m *SMTPMailer) SendPaymentReceipt(_ context.Context, to, name string, tx models.Transaction) error {
	ref := "N/A"
	if tx.TxnRef.Valid && tx.TxnRef.String != "" {
		ref = tx.TxnRef.String
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Payment confirmed - Transaction #%d", tx.ID))
	body := fmt.Sprintf(`
		<html>
		<body>
		<p>Hi %s,</p>
		<p>Your payment for transaction <strong>#%d</strong> has been confirmed.</p>
		<p>Amount: &#8377;%s<br>
		Reference: %s</p>
		<p>Thank you for your purchase.</p>
		</body>
		</html>`, name, tx.ID, tx.Amount.StringFixed(2), ref)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		slog.Error("failed to send payment receipt email", "to", to, "transaction_id", tx.ID, "error", err)
		return fmt.Errorf("failed to send payment receipt email: %w", err)
	}
	slog.Info("payment receipt email sent", "to", to, "transaction_id", tx.ID)
	return nil
}
