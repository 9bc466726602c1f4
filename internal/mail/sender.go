// Package mail sends the transactional mail of the coaching flow: invitations
// and password setup links.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
)

// SendRequest contains the data needed to send an email via an external provider.
type SendRequest struct {
	To      []string
	From    string // falls back to the sender's default
	Subject string
	HTML    string
}

// SendResult contains the response from the email provider.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a ResendSender with the given API key and default from address.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	from := req.From
	if from == "" {
		from = s.from
	}
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
	})
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "to", req.To, "subject", req.Subject)
		return SendResult{}, fmt.Errorf("resend send failed: %w", err)
	}
	slog.Info("resend_sent", "message_id", sent.Id, "to", req.To, "subject", req.Subject)
	return SendResult{MessageID: sent.Id, SentAt: time.Now()}, nil
}

// LogSender only logs. It is used in development and when no provider is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	slog.Info("mail_not_sent", "reason", "log provider", "to", req.To, "subject", req.Subject)
	return SendResult{MessageID: "log-" + uuid.NewString(), SentAt: time.Now()}, nil
}

// RecordingSender keeps every request in memory. Tests read Sent().
type RecordingSender struct {
	mu   sync.Mutex
	sent []SendRequest
	Err  error
}

func (r *RecordingSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return SendResult{}, r.Err
	}
	r.sent = append(r.sent, req)
	return SendResult{MessageID: uuid.NewString(), SentAt: time.Now()}, nil
}

func (r *RecordingSender) Sent() []SendRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SendRequest, len(r.sent))
	copy(out, r.sent)
	return out
}
