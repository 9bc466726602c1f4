package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"alcyxob/coach-app/internal/repository/repotest"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStoreBehavior(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repotest.Repos {
		s := NewStore()
		return repotest.Repos{
			Tx:               s,
			Users:            s.Users(),
			Relationships:    s.Relationships(),
			Workouts:         s.Workouts(),
			Sessions:         s.Sessions(),
			SessionExercises: s.SessionExercises(),
			Sets:             s.Sets(),
			Exercises:        s.Exercises(),
		}
	}, true)
}

func TestRolledBackTransactionKeepsOutsideWrites(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	session := &domain.WorkoutSession{WorkoutID: primitive.NewObjectID(), SessionOrder: 1, Name: "Día 1"}
	_, err := store.Sessions().Create(ctx, session)
	require.NoError(t, err)

	token := "pending-token"
	_, err = store.Relationships().Create(ctx, &domain.TrainerClientRelationship{
		TrainerID:       primitive.NewObjectID(),
		ClientID:        primitive.NewObjectID(),
		Status:          domain.RelationshipPending,
		InvitationToken: &token,
	})
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	txErr := make(chan error, 1)
	go func() {
		txErr <- store.WithinTransaction(ctx, func(ctx context.Context) error {
			close(entered)
			<-release
			return errors.New("rolled back")
		})
	}()
	<-entered

	outside := make(chan error, 2)
	go func() {
		outside <- store.Sessions().Update(ctx, &domain.WorkoutSession{ID: session.ID, Name: "Pierna"})
	}()
	go func() {
		_, err := store.Relationships().AcceptByToken(ctx, token, time.Now())
		outside <- err
	}()

	select {
	case <-outside:
		t.Fatal("write ran while a transaction held the store")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.Error(t, <-txErr)
	require.NoError(t, <-outside)
	require.NoError(t, <-outside)

	got, err := store.Sessions().GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, "Pierna", got.Name)

	_, err = store.Relationships().AcceptByToken(ctx, token, time.Now())
	require.ErrorIs(t, err, repository.ErrNotFound, "an accepted token stays consumed")
}

func TestNestedTransactionJoinsOuter(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	workoutID := primitive.NewObjectID()

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := store.Sessions().Create(ctx, &domain.WorkoutSession{WorkoutID: workoutID, SessionOrder: 1})
		require.NoError(t, err)
		return store.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := store.Sessions().Create(ctx, &domain.WorkoutSession{WorkoutID: workoutID, SessionOrder: 1})
			return err
		})
	})
	require.ErrorIs(t, err, repository.ErrConflict)

	n, err := store.Sessions().CountByWorkout(ctx, workoutID)
	require.NoError(t, err)
	require.Zero(t, n, "the outer transaction rolls back the inner writes too")
}
