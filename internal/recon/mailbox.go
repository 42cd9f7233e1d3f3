package recon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/minthive/nft-market/internal/config"
	"github.com/minthive/nft-market/internal/models"
)

const defaultMailboxTimeout = 30 * time.Second

// MailboxSource polls an IMAP mailbox for bank/UPI payment alert mail.
// Every call opens a fresh connection; a hung server is bounded by the dial
// and read timeout rather than blocking the tick forever.
type MailboxSource struct {
	cfg     config.IMAPConfig
	timeout time.Duration
}

func NewMailboxSource(cfg config.IMAPConfig) *MailboxSource {
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	return &MailboxSource{cfg: cfg, timeout: defaultMailboxTimeout}
}

func (s *MailboxSource) Name() string { return config.SourceMailbox }

func (s *MailboxSource) Payments(ctx context.Context, since time.Time, _ []models.Transaction) ([]IncomingPayment, error) {
	if s.cfg.Username == "" || s.cfg.Password == "" {
		return nil, fmt.Errorf("mailbox credentials not configured")
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: s.timeout}
	c, err := client.DialWithDialerTLS(dialer, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial imap server %s: %w", addr, err)
	}
	c.Timeout = s.timeout
	defer c.Logout()

	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		return nil, fmt.Errorf("imap login failed: %w", err)
	}
	if _, err := c.Select(s.cfg.Folder, true); err != nil {
		return nil, fmt.Errorf("failed to select folder %s: %w", s.cfg.Folder, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap search failed: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	var payments []IncomingPayment
	for msg := range messages {
		text, when := messageText(msg, section)
		if p, ok := paymentFromText(text, when); ok {
			payments = append(payments, p)
		}
	}
	if err := <-done; err != nil {
		return payments, fmt.Errorf("imap fetch failed: %w", err)
	}

	slog.Info("mailbox scan finished", "messages", len(ids), "candidates", len(payments), "since", since)
	return payments, nil
}

// messageText concatenates the subject with every text-bearing body part
// (plain and HTML) into one blob for the extractor.
func messageText(msg *imap.Message, section *imap.BodySectionName) (string, time.Time) {
	var parts []string
	var when time.Time
	if msg.Envelope != nil {
		parts = append(parts, msg.Envelope.Subject)
		when = msg.Envelope.Date
	}

	body := msg.GetBody(section)
	if body == nil {
		return strings.Join(parts, "\n"), when
	}

	mr, err := mail.CreateReader(body)
	if err != nil {
		slog.Warn("failed to parse mail message, using subject only", "error", err)
		return strings.Join(parts, "\n"), when
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("failed to read mail part", "error", err)
			break
		}
		if h, ok := part.Header.(*mail.InlineHeader); ok {
			ctype, _, _ := h.ContentType()
			if ctype == "text/plain" || ctype == "text/html" {
				b, err := io.ReadAll(part.Body)
				if err != nil {
					continue
				}
				parts = append(parts, string(b))
			}
		}
	}
	return strings.Join(parts, "\n"), when
}
