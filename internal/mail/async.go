package mail

import (
	"context"
	"time"

	"alcyxob/coach-app/internal/dispatch"
)

// AsyncSender queues every message on a dispatcher and returns at once.
// Provider errors are logged and counted by the dispatcher.
type AsyncSender struct {
	dispatcher *dispatch.Dispatcher
	next       Sender
}

func NewAsyncSender(d *dispatch.Dispatcher, next Sender) *AsyncSender {
	return &AsyncSender{dispatcher: d, next: next}
}

// Send returns a result without a MessageID; the provider id is only logged.
func (s *AsyncSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	err := s.dispatcher.Submit("mail", func(ctx context.Context) error {
		_, err := s.next.Send(ctx, req)
		return err
	})
	if err != nil {
		return SendResult{}, err
	}
	return SendResult{SentAt: time.Now()}, nil
}
