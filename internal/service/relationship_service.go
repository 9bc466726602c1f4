package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/events"
	"alcyxob/coach-app/internal/mail"
	"alcyxob/coach-app/internal/metrics"
	"alcyxob/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxNameLength = 255

// InviteStatus is the outcome of an invitation attempt.
type InviteStatus string

const (
	InviteCreated InviteStatus = "created"
	// InviteNeedsConfirmation means the email belongs to an existing account
	// and the trainer has to confirm before anything is written.
	InviteNeedsConfirmation InviteStatus = "needs_confirmation"
)

type InviteRequest struct {
	Email           string
	FirstName       string
	ConfirmExisting bool
}

type InviteResult struct {
	Status       InviteStatus
	User         domain.UserSummary
	Existing     bool // the email already had an account
	Relationship *domain.TrainerClientRelationship
}

// InvitationMailer is implemented by *mail.Mailer.
type InvitationMailer interface {
	SendInvitation(ctx context.Context, inv mail.Invitation) error
	SendPasswordSetup(ctx context.Context, to, name, token string) error
}

// RelationshipService runs the trainer/client invitation lifecycle.
type RelationshipService interface {
	InviteClient(ctx context.Context, trainerID primitive.ObjectID, req InviteRequest) (*InviteResult, error)
	AcceptInvitation(ctx context.Context, token string) (*domain.TrainerClientRelationship, error)
	RejectInvitation(ctx context.Context, token string) error
	RemoveClient(ctx context.Context, trainerID, clientID primitive.ObjectID) error
	ListClients(ctx context.Context, trainerID primitive.ObjectID) ([]domain.ClientListing, error)
}

type relationshipService struct {
	tx        repository.Transactor
	users     repository.UserRepository
	rels      repository.RelationshipRepository
	mailer    InvitationMailer
	publisher events.Publisher
	now       func() time.Time
}

// NewRelationshipService creates a new instance of relationshipService.
func NewRelationshipService(
	tx repository.Transactor,
	users repository.UserRepository,
	rels repository.RelationshipRepository,
	mailer InvitationMailer,
	publisher events.Publisher,
) RelationshipService {
	return &relationshipService{
		tx:        tx,
		users:     users,
		rels:      rels,
		mailer:    mailer,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func validateInvite(req InviteRequest) (email, firstName string, err error) {
	email = strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return "", "", invalid("email", "is required")
	}
	addr, perr := netmail.ParseAddress(email)
	if perr != nil || addr.Address != email {
		return "", "", invalid("email", "is not a valid address")
	}
	firstName = strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return "", "", invalid("firstName", "is required")
	}
	if utf8.RuneCountInString(firstName) > maxNameLength {
		return "", "", invalid("firstName", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	return email, firstName, nil
}

// InviteClient invites a client by email. An email that already has an
// account returns InviteNeedsConfirmation until the trainer confirms.
func (s *relationshipService) InviteClient(ctx context.Context, trainerID primitive.ObjectID, req InviteRequest) (*InviteResult, error) {
	email, firstName, err := validateInvite(req)
	if err != nil {
		return nil, err
	}

	trainer, err := s.users.GetByID(ctx, trainerID)
	if err != nil {
		return nil, translate("load trainer", err)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, translate("lookup invitee", err)
	}
	if existing != nil {
		if existing.ID == trainerID {
			return nil, invalid("email", "cannot invite yourself")
		}
		if !req.ConfirmExisting {
			metrics.RecordInvitation(string(InviteNeedsConfirmation))
			return &InviteResult{Status: InviteNeedsConfirmation, User: existing.Summary(), Existing: true}, nil
		}
	}

	var (
		client     domain.User
		rel        domain.TrainerClientRelationship
		setupToken string
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		setupToken = ""
		if existing != nil {
			client = *existing
			if _, err := s.rels.Get(ctx, trainerID, client.ID); err == nil {
				return ErrAlreadyClient
			} else if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		} else {
			token, err := newToken()
			if err != nil {
				return err
			}
			client = domain.User{
				Name:                   firstName,
				Email:                  email,
				Role:                   domain.RoleClient,
				PasswordSetupTokenHash: hashToken(token),
				Profile:                domain.Profile{FirstName: firstName},
			}
			id, err := s.users.Create(ctx, &client)
			if err != nil {
				return err
			}
			client.ID = id
			setupToken = token
		}

		token, err := newToken()
		if err != nil {
			return err
		}
		rel = domain.TrainerClientRelationship{
			TrainerID:       trainerID,
			ClientID:        client.ID,
			Status:          domain.RelationshipPending,
			InvitationToken: &token,
			InvitedAt:       s.now(),
		}
		id, err := s.rels.Create(ctx, &rel)
		if errors.Is(err, repository.ErrConflict) {
			return ErrAlreadyClient
		}
		if err != nil {
			return err
		}
		rel.ID = id
		return nil
	})
	if err != nil {
		return nil, translate("invite client", err)
	}

	slog.Info("client invited", "trainer_id", trainerID.Hex(), "client_id", client.ID.Hex(), "existing", existing != nil)
	metrics.RecordInvitation(string(InviteCreated))
	s.notifyInvitation(ctx, trainer, &client, *rel.InvitationToken, setupToken)
	publish(ctx, s.publisher, events.New(domain.EventInvitationCreated, trainerID, client.ID))

	return &InviteResult{Status: InviteCreated, User: client.Summary(), Existing: existing != nil, Relationship: &rel}, nil
}

func (s *relationshipService) notifyInvitation(ctx context.Context, trainer, client *domain.User, invitationToken, setupToken string) {
	if s.mailer == nil {
		return
	}
	err := s.mailer.SendInvitation(ctx, mail.Invitation{
		To:          client.Email,
		ClientName:  client.Summary().Name,
		TrainerName: trainer.Summary().Name,
		Token:       invitationToken,
	})
	if err != nil {
		metrics.RecordSideEffectFailure("mail")
		slog.Error("invitation mail failed", "client_id", client.ID.Hex(), "error", err)
	}
	if setupToken == "" {
		return
	}
	if err := s.mailer.SendPasswordSetup(ctx, client.Email, client.Summary().Name, setupToken); err != nil {
		metrics.RecordSideEffectFailure("mail")
		slog.Error("password setup mail failed", "client_id", client.ID.Hex(), "error", err)
	}
}

// AcceptInvitation activates the pending relationship holding token. The
// status flip, acceptedAt and token removal are one document write.
func (s *relationshipService) AcceptInvitation(ctx context.Context, token string) (*domain.TrainerClientRelationship, error) {
	if token == "" {
		return nil, ErrInvalidOrConsumedToken
	}
	rel, err := s.rels.AcceptByToken(ctx, token, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidOrConsumedToken
	}
	if err != nil {
		return nil, translate("accept invitation", err)
	}
	metrics.RecordInvitation("accepted")
	publish(ctx, s.publisher, events.New(domain.EventInvitationAccepted, rel.TrainerID, rel.ClientID))
	return rel, nil
}

// RejectInvitation deletes the pending relationship holding token.
func (s *relationshipService) RejectInvitation(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidOrConsumedToken
	}
	rel, err := s.rels.DeleteByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidOrConsumedToken
	}
	if err != nil {
		return translate("reject invitation", err)
	}
	metrics.RecordInvitation("rejected")
	publish(ctx, s.publisher, events.New(domain.EventInvitationRejected, rel.TrainerID, rel.ClientID))
	return nil
}

// RemoveClient deletes the relationship whatever its status. Workouts are kept.
func (s *relationshipService) RemoveClient(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	if err := s.rels.Delete(ctx, trainerID, clientID); err != nil {
		return translate("remove client", err)
	}
	slog.Info("client removed", "trainer_id", trainerID.Hex(), "client_id", clientID.Hex())
	publish(ctx, s.publisher, events.New(domain.EventClientRemoved, trainerID, clientID))
	return nil
}

// ListClients returns every relationship of the trainer joined with the client's user.
func (s *relationshipService) ListClients(ctx context.Context, trainerID primitive.ObjectID) ([]domain.ClientListing, error) {
	rels, err := s.rels.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, translate("list relationships", err)
	}
	ids := make([]primitive.ObjectID, 0, len(rels))
	for _, r := range rels {
		ids = append(ids, r.ClientID)
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, translate("load clients", err)
	}
	byID := make(map[primitive.ObjectID]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]domain.ClientListing, 0, len(rels))
	for _, r := range rels {
		u, ok := byID[r.ClientID]
		if !ok {
			slog.Warn("relationship without user", "relationship_id", r.ID.Hex(), "client_id", r.ClientID.Hex())
			continue
		}
		u.PasswordHash = ""
		out = append(out, domain.ClientListing{Relationship: r, Client: u})
	}
	return out, nil
}
