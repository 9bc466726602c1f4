package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/events"
	"alcyxob/coach-app/internal/mail"
	"alcyxob/coach-app/internal/repository/memory"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type harness struct {
	ctx    context.Context
	store  *memory.Store
	events *events.Recorder
	mail   *mail.RecordingSender
	files  *fakeStorage

	rels        RelationshipService
	workouts    WorkoutService
	composition CompositionService
	catalog     CatalogService
	auth        AuthService
	profiles    ProfileService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	rec := &events.Recorder{}
	sent := &mail.RecordingSender{}
	files := &fakeStorage{}
	mailer := mail.NewMailer(sent, "http://coach.test")

	return &harness{
		ctx:    context.Background(),
		store:  store,
		events: rec,
		mail:   sent,
		files:  files,
		rels:   NewRelationshipService(store, store.Users(), store.Relationships(), mailer, rec),
		workouts: NewWorkoutService(store, store.Relationships(), store.Workouts(), store.Sessions(),
			store.SessionExercises(), store.Sets(), rec),
		composition: NewCompositionService(store, store.Workouts(), store.Sessions(),
			store.SessionExercises(), store.Sets(), store.Exercises()),
		catalog:  NewCatalogService(store.Exercises(), store.SessionExercises(), files),
		auth:     NewAuthService(store.Users(), "test-secret", time.Hour),
		profiles: NewProfileService(store.Users(), store.Relationships()),
	}
}

func (h *harness) trainer(t *testing.T, email string) primitive.ObjectID {
	t.Helper()
	u := &domain.User{Name: "Trainer " + email, Email: email, Role: domain.RoleTrainer, PasswordHash: "x"}
	id, err := h.store.Users().Create(h.ctx, u)
	require.NoError(t, err)
	return id
}

// invite invites email as a new client and returns the client id and token.
func (h *harness) invite(t *testing.T, trainerID primitive.ObjectID, email string) (primitive.ObjectID, string) {
	t.Helper()
	res, err := h.rels.InviteClient(h.ctx, trainerID, InviteRequest{Email: email, FirstName: "Cliente"})
	require.NoError(t, err)
	require.Equal(t, InviteCreated, res.Status)
	client, err := h.store.Users().GetByEmail(h.ctx, email)
	require.NoError(t, err)
	return client.ID, *res.Relationship.InvitationToken
}

// activeClient returns a client with an accepted relationship to trainerID.
func (h *harness) activeClient(t *testing.T, trainerID primitive.ObjectID, email string) primitive.ObjectID {
	t.Helper()
	clientID, token := h.invite(t, trainerID, email)
	_, err := h.rels.AcceptInvitation(h.ctx, token)
	require.NoError(t, err)
	return clientID
}

// pair returns a trainer and an active client of theirs.
func (h *harness) pair(t *testing.T) (trainerID, clientID primitive.ObjectID) {
	t.Helper()
	trainerID = h.trainer(t, "coach@example.com")
	clientID = h.activeClient(t, trainerID, "client@example.com")
	return trainerID, clientID
}

func (h *harness) exercise(t *testing.T, name string) primitive.ObjectID {
	t.Helper()
	e, err := h.catalog.CreateExercise(h.ctx, CreateExerciseInput{Name: name})
	require.NoError(t, err)
	return e.ID
}

func (h *harness) status(t *testing.T, workoutID primitive.ObjectID) domain.WorkoutStatus {
	t.Helper()
	w, err := h.store.Workouts().GetByID(h.ctx, workoutID)
	require.NoError(t, err)
	return w.Status
}

type fakeStorage struct {
	deleted []string
}

func (f *fakeStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	return "https://s3.test/put/" + objectKey, nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return "https://s3.test/get/" + objectKey, nil
}

func (f *fakeStorage) DeleteObject(ctx context.Context, objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func ptr[T any](v T) *T { return &v }

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, field, ve.Field)
}
