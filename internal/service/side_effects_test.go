package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/coach-app/internal/dispatch"
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/events"
	"alcyxob/coach-app/internal/mail"

	"github.com/stretchr/testify/require"
)

// blockingSender holds every Send until release is closed.
type blockingSender struct {
	release chan struct{}
	next    *mail.RecordingSender
}

func (s *blockingSender) Send(ctx context.Context, req mail.SendRequest) (mail.SendResult, error) {
	<-s.release
	return s.next.Send(ctx, req)
}

// blockingPublisher holds every Publish until release is closed.
type blockingPublisher struct {
	release chan struct{}
	next    *events.Recorder
}

func (p *blockingPublisher) Publish(ctx context.Context, evt domain.Event) error {
	<-p.release
	return p.next.Publish(ctx, evt)
}

func (p *blockingPublisher) Close() error { return nil }

func TestSlowProvidersDoNotDelayInvitations(t *testing.T) {
	h := newHarness(t)
	d := dispatch.New(dispatch.Options{Workers: 1})
	release := make(chan struct{})
	sent := &mail.RecordingSender{}
	rec := &events.Recorder{}

	mailer := mail.NewMailer(mail.NewAsyncSender(d, &blockingSender{release: release, next: sent}), "http://coach.test")
	publisher := events.NewAsyncPublisher(d, &blockingPublisher{release: release, next: rec})
	rels := NewRelationshipService(h.store, h.store.Users(), h.store.Relationships(), mailer, publisher)
	trainerID := h.trainer(t, "coach@example.com")

	begin := time.Now()
	res, err := rels.InviteClient(h.ctx, trainerID, InviteRequest{Email: "slow@example.com", FirstName: "Lento"})
	require.NoError(t, err)
	_, err = rels.AcceptInvitation(h.ctx, *res.Relationship.InvitationToken)
	require.NoError(t, err)
	require.Less(t, time.Since(begin), 500*time.Millisecond)

	require.Empty(t, sent.Sent(), "nothing is delivered while the provider is stuck")
	require.Empty(t, rec.Types())

	close(release)
	require.NoError(t, d.Close(context.Background()))
	require.Len(t, sent.Sent(), 2)
	require.Equal(t, []domain.EventType{domain.EventInvitationCreated, domain.EventInvitationAccepted}, rec.Types())
}
