// Package repotest holds the behavior every repository implementation must
// share. The memory store runs it in unit tests and the mongo store in the
// integration tests.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ordering"
	"alcyxob/coach-app/internal/repository"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repos is one backing store, freshly emptied for each call of the factory.
type Repos struct {
	Tx               repository.Transactor
	Users            repository.UserRepository
	Relationships    repository.RelationshipRepository
	Workouts         repository.WorkoutRepository
	Sessions         repository.SessionRepository
	SessionExercises repository.SessionExerciseRepository
	Sets             repository.SetRepository
	Exercises        repository.ExerciseRepository
}

// Run executes the shared cases. rollback reports whether the store undoes
// writes of a failed transaction.
func Run(t *testing.T, newRepos func(t *testing.T) Repos, rollback bool) {
	t.Run("users", func(t *testing.T) { testUsers(t, newRepos(t)) })
	t.Run("relationships", func(t *testing.T) { testRelationships(t, newRepos(t)) })
	t.Run("workouts", func(t *testing.T) { testWorkouts(t, newRepos(t)) })
	t.Run("sessions", func(t *testing.T) { testSessions(t, newRepos(t)) })
	t.Run("sets", func(t *testing.T) { testSets(t, newRepos(t)) })
	t.Run("exercises", func(t *testing.T) { testExercises(t, newRepos(t)) })
	if rollback {
		t.Run("rollback", func(t *testing.T) { testRollback(t, newRepos(t)) })
	}
}

func testUsers(t *testing.T, r Repos) {
	ctx := context.Background()
	u := &domain.User{Name: "Ana", Email: "ana@example.com", Role: domain.RoleClient, PasswordSetupTokenHash: "hash"}
	id, err := r.Users.Create(ctx, u)
	require.NoError(t, err)

	_, err = r.Users.Create(ctx, &domain.User{Email: "ana@example.com", Role: domain.RoleTrainer})
	require.ErrorIs(t, err, repository.ErrConflict)

	got, err := r.Users.GetByPasswordSetupTokenHash(ctx, "hash")
	require.NoError(t, err)
	require.Equal(t, id, got.ID)

	require.NoError(t, r.Users.SetPassword(ctx, id, "bcrypt"))
	_, err = r.Users.GetByPasswordSetupTokenHash(ctx, "hash")
	require.ErrorIs(t, err, repository.ErrNotFound)

	got, err = r.Users.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, "bcrypt", got.PasswordHash)

	users, err := r.Users.GetByIDs(ctx, []primitive.ObjectID{id, primitive.NewObjectID()})
	require.NoError(t, err)
	require.Len(t, users, 1)

	first, gender := "Ana", domain.GenderFemale
	updated, err := r.Users.UpdateProfile(ctx, id, domain.ProfileUpdate{FirstName: &first, Gender: &gender})
	require.NoError(t, err)
	require.Equal(t, "Ana", updated.Profile.FirstName)
	require.Equal(t, domain.GenderFemale, updated.Profile.Gender)

	dob := time.Date(1990, time.May, 17, 0, 0, 0, 0, time.UTC)
	updated, err = r.Users.UpdateProfile(ctx, id, domain.ProfileUpdate{DateOfBirth: &dob})
	require.NoError(t, err)
	require.Equal(t, "Ana", updated.Profile.FirstName, "unset fields are kept")
	require.Equal(t, domain.GenderFemale, updated.Profile.Gender)
	require.True(t, dob.Equal(*updated.Profile.DateOfBirth))

	_, err = r.Users.UpdateProfile(ctx, primitive.NewObjectID(), domain.ProfileUpdate{FirstName: &first})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testRelationships(t *testing.T, r Repos) {
	ctx := context.Background()
	trainerID, clientID := primitive.NewObjectID(), primitive.NewObjectID()
	token := "tok-" + primitive.NewObjectID().Hex()

	_, err := r.Relationships.Create(ctx, &domain.TrainerClientRelationship{
		TrainerID: trainerID, ClientID: clientID, Status: domain.RelationshipPending,
		InvitationToken: &token, InvitedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	_, err = r.Relationships.Create(ctx, &domain.TrainerClientRelationship{
		TrainerID: trainerID, ClientID: clientID, Status: domain.RelationshipPending, InvitedAt: time.Now().UTC(),
	})
	require.ErrorIs(t, err, repository.ErrConflict)

	accepted, err := r.Relationships.AcceptByToken(ctx, token, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, domain.RelationshipActive, accepted.Status)
	require.Nil(t, accepted.InvitationToken)
	require.NotNil(t, accepted.AcceptedAt)

	_, err = r.Relationships.AcceptByToken(ctx, token, time.Now().UTC())
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = r.Relationships.DeleteByToken(ctx, token)
	require.ErrorIs(t, err, repository.ErrNotFound)

	list, err := r.Relationships.ListByTrainer(ctx, trainerID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, r.Relationships.Delete(ctx, trainerID, clientID))
	require.ErrorIs(t, r.Relationships.Delete(ctx, trainerID, clientID), repository.ErrNotFound)
}

func testWorkouts(t *testing.T, r Repos) {
	ctx := context.Background()
	trainerID, clientID := primitive.NewObjectID(), primitive.NewObjectID()
	create := func(name string, status domain.WorkoutStatus) primitive.ObjectID {
		id, err := r.Workouts.Create(ctx, &domain.Workout{Name: name, TrainerID: trainerID, ClientID: clientID, Status: status})
		require.NoError(t, err)
		return id
	}
	a := create("a", domain.WorkoutActive)
	b := create("b", domain.WorkoutDraft)
	other, err := r.Workouts.Create(ctx, &domain.Workout{Name: "other pair", TrainerID: primitive.NewObjectID(), ClientID: clientID, Status: domain.WorkoutActive})
	require.NoError(t, err)

	archived, err := r.Workouts.ArchiveOtherActive(ctx, clientID, trainerID, b)
	require.NoError(t, err)
	require.Equal(t, []primitive.ObjectID{a}, archived)
	require.NoError(t, r.Workouts.SetStatus(ctx, b, domain.WorkoutActive))

	active, err := r.Workouts.GetActive(ctx, clientID, trainerID)
	require.NoError(t, err)
	require.Equal(t, b, active.ID)

	untouched, err := r.Workouts.GetByID(ctx, other)
	require.NoError(t, err)
	require.Equal(t, domain.WorkoutActive, untouched.Status)

	list, err := r.Workouts.ListByClientAndTrainer(ctx, clientID, trainerID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, b, list[0].ID, "active first")

	require.NoError(t, r.Workouts.Rename(ctx, a, "renamed"))
	require.NoError(t, r.Workouts.Delete(ctx, a))
	_, err = r.Workouts.GetByID(ctx, a)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func sessionOrders(t *testing.T, r Repos, workoutID primitive.ObjectID) map[primitive.ObjectID]int {
	t.Helper()
	sessions, err := r.Sessions.ListByWorkout(context.Background(), workoutID)
	require.NoError(t, err)
	out := make(map[primitive.ObjectID]int, len(sessions))
	for _, s := range sessions {
		out[s.ID] = s.SessionOrder
	}
	return out
}

func testSessions(t *testing.T, r Repos) {
	ctx := context.Background()
	workoutID := primitive.NewObjectID()
	ids := make([]primitive.ObjectID, 3)
	for i := range ids {
		id, err := r.Sessions.Create(ctx, &domain.WorkoutSession{WorkoutID: workoutID, SessionOrder: i + 1, Name: domain.DefaultSessionName(i + 1)})
		require.NoError(t, err)
		ids[i] = id
	}
	_, err := r.Sessions.Create(ctx, &domain.WorkoutSession{WorkoutID: workoutID, SessionOrder: 2})
	require.ErrorIs(t, err, repository.ErrConflict)

	// swap 1 and 3
	require.NoError(t, r.Sessions.Reorder(ctx, workoutID, []ordering.Item{{ID: ids[0], Order: 3}, {ID: ids[2], Order: 1}}))
	require.Equal(t, map[primitive.ObjectID]int{ids[0]: 3, ids[1]: 2, ids[2]: 1}, sessionOrders(t, r, workoutID))

	// collides with ids[1], which is not in the payload
	before := sessionOrders(t, r, workoutID)
	err = r.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return r.Sessions.Reorder(ctx, workoutID, []ordering.Item{{ID: ids[0], Order: 2}})
	})
	require.ErrorIs(t, err, repository.ErrConflict)
	require.Equal(t, before, sessionOrders(t, r, workoutID))

	count, err := r.Sessions.CountByWorkout(ctx, workoutID)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	require.NoError(t, r.Sessions.Delete(ctx, ids[1]))
	orders := sessionOrders(t, r, workoutID)
	require.Equal(t, map[primitive.ObjectID]int{ids[0]: 3, ids[2]: 1}, orders, "sessions keep their gaps")
}

func testSets(t *testing.T, r Repos) {
	ctx := context.Background()
	seID := primitive.NewObjectID()
	ids := make([]primitive.ObjectID, 4)
	for i := range ids {
		reps := 10 - i
		id, err := r.Sets.Create(ctx, &domain.WorkoutSessionExerciseSet{
			WorkoutSessionExerciseID: seID,
			SetOrder:                 i + 1,
			SetTargets:               domain.SetTargets{TargetReps: &reps},
		})
		require.NoError(t, err)
		ids[i] = id
	}

	require.NoError(t, r.Sets.Delete(ctx, ids[1]))
	require.NoError(t, r.Sets.CloseGap(ctx, seID, 2))

	sets, err := r.Sets.ListBySessionExercise(ctx, seID)
	require.NoError(t, err)
	require.Len(t, sets, 3)
	for i, s := range sets {
		require.Equal(t, i+1, s.SetOrder)
	}
	require.Equal(t, []primitive.ObjectID{ids[0], ids[2], ids[3]}, []primitive.ObjectID{sets[0].ID, sets[1].ID, sets[2].ID})

	rpe := 8.5
	require.NoError(t, r.Sets.UpdateTargets(ctx, ids[2], domain.SetTargets{TargetRPE: &rpe}))
	got, err := r.Sets.GetByID(ctx, ids[2])
	require.NoError(t, err)
	require.Nil(t, got.TargetReps)
	require.Equal(t, 8.5, *got.TargetRPE)

	require.NoError(t, r.Sets.DeleteBySessionExercises(ctx, []primitive.ObjectID{seID}))
	sets, err = r.Sets.ListBySessionExercise(ctx, seID)
	require.NoError(t, err)
	require.Empty(t, sets)
}

func testExercises(t *testing.T, r Repos) {
	ctx := context.Background()
	e := &domain.Exercise{
		Slug: "press-de-banca",
		Name: "Press de banca",
		Names: []domain.ExerciseName{
			{Name: "Press de banca", NameNormalized: domain.NormalizeForSearch("Press de banca"), Locale: "es", IsPrimary: true},
		},
	}
	id, err := r.Exercises.Create(ctx, e)
	require.NoError(t, err)
	_, err = r.Exercises.Create(ctx, &domain.Exercise{Slug: "press-de-banca", Name: "dup"})
	require.ErrorIs(t, err, repository.ErrConflict)

	require.NoError(t, r.Exercises.AddName(ctx, id, domain.ExerciseName{
		Name: "Bench press", NameNormalized: "bench press", Locale: "en", IsPrimary: true,
	}))

	found, err := r.Exercises.Search(ctx, "bench", "en", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	found, err = r.Exercises.Search(ctx, "banca press", "es", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	found, err = r.Exercises.Search(ctx, "bench", "es", 10)
	require.NoError(t, err)
	require.Empty(t, found)

	bySlug, err := r.Exercises.GetBySlug(ctx, "press-de-banca")
	require.NoError(t, err)
	require.Equal(t, id, bySlug.ID)

	require.NoError(t, r.Exercises.Delete(ctx, id))
	_, err = r.Exercises.GetByID(ctx, id)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testRollback(t *testing.T, r Repos) {
	ctx := context.Background()
	workoutID := primitive.NewObjectID()
	boom := errors.New("boom")

	err := r.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := r.Sessions.Create(ctx, &domain.WorkoutSession{WorkoutID: workoutID, SessionOrder: 1, Name: "x"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	sessions, err := r.Sessions.ListByWorkout(ctx, workoutID)
	require.NoError(t, err)
	require.Empty(t, sessions)
}
