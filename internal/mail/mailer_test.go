package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendInvitationRendersLinks(t *testing.T) {
	rec := &RecordingSender{}
	m := NewMailer(rec, "https://coach.example.com/")

	err := m.SendInvitation(context.Background(), Invitation{
		To:          "ana@example.com",
		ClientName:  "Ana",
		TrainerName: "Tomás",
		Token:       "tok_123",
	})
	require.NoError(t, err)

	sent := rec.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, []string{"ana@example.com"}, sent[0].To)
	require.Contains(t, sent[0].Subject, "Tomás")
	require.Contains(t, sent[0].HTML, `href="https://coach.example.com/api/v1/invitations/tok_123/accept"`)
	require.Contains(t, sent[0].HTML, `href="https://coach.example.com/api/v1/invitations/tok_123/reject"`)
	require.Contains(t, sent[0].HTML, "<strong>Tomás</strong>")
}

func TestSendInvitationEscapesNames(t *testing.T) {
	rec := &RecordingSender{}
	m := NewMailer(rec, "http://localhost")

	err := m.SendInvitation(context.Background(), Invitation{
		To:          "x@example.com",
		ClientName:  "<script>alert(1)</script>",
		TrainerName: "T",
		Token:       "t",
	})
	require.NoError(t, err)
	require.NotContains(t, rec.Sent()[0].HTML, "<script>")
}

func TestSendPasswordSetup(t *testing.T) {
	rec := &RecordingSender{}
	m := NewMailer(rec, "http://localhost:8080")

	require.NoError(t, m.SendPasswordSetup(context.Background(), "c@example.com", "Carla", "a b"))
	require.Contains(t, rec.Sent()[0].HTML, "http://localhost:8080/password/setup?token=a+b")
}

func TestSenderErrorPropagates(t *testing.T) {
	rec := &RecordingSender{Err: errors.New("provider down")}
	m := NewMailer(rec, "http://localhost")

	err := m.SendPasswordSetup(context.Background(), "c@example.com", "Carla", "tok")
	require.EqualError(t, err, "provider down")
}
