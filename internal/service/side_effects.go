package service

import (
	"context"
	"errors"
	"log/slog"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/events"
	"alcyxob/coach-app/internal/metrics"
	"alcyxob/coach-app/internal/repository"
)

// maxPositionAttempts bounds the retries of a "read siblings, pick next
// position, insert" unit that lost a race on the unique order index.
const maxPositionAttempts = 3

// withPositionRetry runs fn in a transaction and re-runs it when it fails on
// a unique order collision.
func withPositionRetry(ctx context.Context, tx repository.Transactor, collection string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxPositionAttempts; attempt++ {
		err = tx.WithinTransaction(ctx, fn)
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
		metrics.RecordOrderingConflict(collection)
		slog.Warn("position allocation conflict", "collection", collection, "attempt", attempt)
	}
	return err
}

// publish sends evt after commit. Failures are logged and counted, never returned.
func publish(ctx context.Context, publisher events.Publisher, evt domain.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, evt); err != nil {
		metrics.RecordSideEffectFailure("event")
		slog.Error("event publish failed", "type", evt.Type, "id", evt.ID, "error", err)
	}
}
