package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/minthive/nft-market/internal/infrastructure/mailer"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// Consumer reads purchase events and sends the buyer the UPI payment request
// email. Delivery is best-effort: a failed send is logged and the event is
// skipped; the transaction stays pending and the link remains available over
// the API.
type Consumer struct {
	reader *kafka.Reader
	mailer mailer.Mailer
}

func NewConsumer(brokers []string, topic, groupID string, m mailer.Mailer) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		}),
		mailer: m,
	}
}

func (c *Consumer) Consume(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("failed to read Kafka message", "topic", c.reader.Config().Topic, "error", err)
			continue
		}

		slog.Info("Kafka message received", "topic", msg.Topic, "key", string(msg.Key))

		var event struct {
			EventType     string `json:"event_type"`
			TransactionID int32  `json:"transaction_id"`
			Amount        string `json:"amount"`
			Email         string `json:"email"`
			Name          string `json:"name"`
			PaymentLink   string `json:"payment_link"`
		}
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			slog.Error("failed to unmarshal purchase event", "error", err)
			continue
		}
		if event.EventType != "purchase_initiated" {
			continue
		}
		if event.Email == "" || event.PaymentLink == "" {
			slog.Error("invalid purchase event: missing email or payment_link", "transaction_id", event.TransactionID)
			continue
		}

		amount, err := decimal.NewFromString(event.Amount)
		if err != nil {
			slog.Error("invalid amount in purchase event", "transaction_id", event.TransactionID, "amount", event.Amount, "error", err)
			continue
		}

		if err := c.mailer.SendPaymentRequest(ctx, event.Email, event.Name, event.TransactionID, amount, event.PaymentLink); err != nil {
			slog.Error("failed to send payment request email", "transaction_id", event.TransactionID, "error", err)
			continue
		}

		slog.Info("payment request sent", "transaction_id", event.TransactionID, "email", event.Email)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
