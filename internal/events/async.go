package events

import (
	"context"

	"alcyxob/coach-app/internal/dispatch"
	"alcyxob/coach-app/internal/domain"
)

// AsyncPublisher hands events to a dispatcher so publishing never waits on
// the broker.
type AsyncPublisher struct {
	dispatcher *dispatch.Dispatcher
	next       Publisher
}

func NewAsyncPublisher(d *dispatch.Dispatcher, next Publisher) *AsyncPublisher {
	return &AsyncPublisher{dispatcher: d, next: next}
}

func (p *AsyncPublisher) Publish(ctx context.Context, evt domain.Event) error {
	return p.dispatcher.Submit("event", func(ctx context.Context) error {
		return p.next.Publish(ctx, evt)
	})
}

// Close closes the wrapped publisher. Close the dispatcher first so queued
// events are written before the writer goes away.
func (p *AsyncPublisher) Close() error {
	return p.next.Close()
}
