package service

import (
	"testing"

	"alcyxob/coach-app/internal/domain"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateWorkoutAddsFirstSession(t *testing.T) {
	h := newHarness(t)
	trainerID, clientID := h.pair(t)

	tree, err := h.workouts.CreateWorkout(h.ctx, trainerID, clientID, "  Fuerza  ")
	require.NoError(t, err)
	require.Equal(t, "Fuerza", tree.Workout.Name)
	require.Equal(t, domain.WorkoutDraft, tree.Workout.Status)
	require.Len(t, tree.Sessions, 1)
	require.Equal(t, 1, tree.Sessions[0].Session.SessionOrder)
	require.Equal(t, "Día 1", tree.Sessions[0].Session.Name)

	sessions, err := h.store.Sessions().ListByWorkout(h.ctx, tree.Workout.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "Día 1", sessions[0].Name)
}

func TestCreateWorkoutRequiresActiveRelationship(t *testing.T) {
	h := newHarness(t)
	trainerID := h.trainer(t, "coach@example.com")
	pendingID, _ := h.invite(t, trainerID, "pending@example.com")

	_, err := h.workouts.CreateWorkout(h.ctx, trainerID, pendingID, "W")
	require.ErrorIs(t, err, ErrOwnershipMismatch)

	_, err = h.workouts.CreateWorkout(h.ctx, trainerID, primitive.NewObjectID(), "W")
	require.ErrorIs(t, err, ErrOwnershipMismatch)

	_, err = h.workouts.CreateWorkout(h.ctx, trainerID, pendingID, " ")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestActivateArchivesPreviousActive(t *testing.T) {
	h := newHarness(t)
	trainerID, clientID := h.pair(t)

	a, err := h.workouts.CreateWorkout(h.ctx, trainerID, clientID, "A")
	require.NoError(t, err)
	b, err := h.workouts.CreateWorkout(h.ctx, trainerID, clientID, "B")
	require.NoError(t, err)

	_, err = h.workouts.Activate(h.ctx, trainerID, clientID, a.Workout.ID)
	require.NoError(t, err)
	require.Equal(t, domain.WorkoutActive, h.status(t, a.Workout.ID))
	require.Equal(t, domain.WorkoutDraft, h.status(t, b.Workout.ID))

	activated, err := h.workouts.Activate(h.ctx, trainerID, clientID, b.Workout.ID)
	require.NoError(t, err)
	require.Equal(t, domain.WorkoutActive, activated.Status)
	require.Equal(t, domain.WorkoutArchived, h.status(t, a.Workout.ID))
	require.Equal(t, domain.WorkoutActive, h.status(t, b.Workout.ID))

	evts := h.events.Events()
	last := evts[len(evts)-1]
	require.Equal(t, domain.EventWorkoutActivated, last.Type)
	require.Equal(t, []primitive.ObjectID{a.Workout.ID}, last.ArchivedIDs)

	current, err := h.workouts.GetCurrentForClient(h.ctx, trainerID, clientID)
	require.NoError(t, err)
	require.Equal(t, b.Workout.ID, current.ID)
}

func TestActivationIsScopedToThePair(t *testing.T) {
	h := newHarness(t)
	t1 := h.trainer(t, "t1@example.com")
	t2 := h.trainer(t, "t2@example.com")
	clientID := h.activeClient(t, t1, "c@example.com")
	_, err := h.rels.InviteClient(h.ctx, t2, InviteRequest{Email: "c@example.com", FirstName: "C", ConfirmExisting: true})
	require.NoError(t, err)
	rel, err := h.store.Relationships().Get(h.ctx, t2, clientID)
	require.NoError(t, err)
	_, err = h.rels.AcceptInvitation(h.ctx, *rel.InvitationToken)
	require.NoError(t, err)

	w1, err := h.workouts.CreateWorkout(h.ctx, t1, clientID, "From t1")
	require.NoError(t, err)
	w2, err := h.workouts.CreateWorkout(h.ctx, t2, clientID, "From t2")
	require.NoError(t, err)

	_, err = h.workouts.Activate(h.ctx, t1, clientID, w1.Workout.ID)
	require.NoError(t, err)
	_, err = h.workouts.Activate(h.ctx, t2, clientID, w2.Workout.ID)
	require.NoError(t, err)

	require.Equal(t, domain.WorkoutActive, h.status(t, w1.Workout.ID))
	require.Equal(t, domain.WorkoutActive, h.status(t, w2.Workout.ID))
}

func TestStatusTransitions(t *testing.T) {
	h := newHarness(t)
	trainerID, clientID := h.pair(t)
	w, err := h.workouts.CreateWorkout(h.ctx, trainerID, clientID, "W")
	require.NoError(t, err)
	id := w.Workout.ID

	_, err = h.workouts.Unarchive(h.ctx, trainerID, clientID, id)
	require.ErrorIs(t, err, ErrInvalidTransition, "draft cannot be unarchived")

	_, err = h.workouts.Activate(h.ctx, trainerID, clientID, id)
	require.NoError(t, err)
	_, err = h.workouts.Activate(h.ctx, trainerID, clientID, id)
	require.NoError(t, err, "activating an active workout is a no-op")

	archived, err := h.workouts.Archive(h.ctx, trainerID, clientID, id)
	require.NoError(t, err)
	require.Equal(t, domain.WorkoutArchived, archived.Status)
	_, err = h.workouts.Archive(h.ctx, trainerID, clientID, id)
	require.NoError(t, err)

	_, err = h.workouts.Activate(h.ctx, trainerID, clientID, id)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, domain.WorkoutArchived, h.status(t, id))

	draft, err := h.workouts.Unarchive(h.ctx, trainerID, clientID, id)
	require.NoError(t, err)
	require.Equal(t, domain.WorkoutDraft, draft.Status)

	_, err = h.workouts.GetCurrentForClient(h.ctx, trainerID, clientID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOwnershipGuards(t *testing.T) {
	h := newHarness(t)
	trainerID, clientID := h.pair(t)
	other := h.trainer(t, "other@example.com")
	w, err := h.workouts.CreateWorkout(h.ctx, trainerID, clientID, "W")
	require.NoError(t, err)

	_, err = h.workouts.Activate(h.ctx, other, clientID, w.Workout.ID)
	require.ErrorIs(t, err, ErrOwnershipMismatch)
	_, err = h.workouts.Activate(h.ctx, trainerID, primitive.NewObjectID(), w.Workout.ID)
	require.ErrorIs(t, err, ErrOwnershipMismatch)
	_, err = h.workouts.Archive(h.ctx, other, clientID, w.Workout.ID)
	require.ErrorIs(t, err, ErrOwnershipMismatch)
	_, err = h.workouts.Activate(h.ctx, trainerID, clientID, primitive.NewObjectID())
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, h.workouts.DeleteWorkout(h.ctx, other, clientID, w.Workout.ID), ErrOwnershipMismatch)

	_, err = h.composition.AddSession(h.ctx, other, w.Workout.ID, nil)
	require.ErrorIs(t, err, ErrOwnershipMismatch)
}

func TestListForClientPutsActiveFirst(t *testing.T) {
	h := newHarness(t)
	trainerID, clientID := h.pair(t)

	var ids []primitive.ObjectID
	for _, name := range []string{"one", "two", "three"} {
		w, err := h.workouts.CreateWorkout(h.ctx, trainerID, clientID, name)
		require.NoError(t, err)
		ids = append(ids, w.Workout.ID)
	}
	_, err := h.workouts.Activate(h.ctx, trainerID, clientID, ids[0])
	require.NoError(t, err)

	list, err := h.workouts.ListForClient(h.ctx, trainerID, clientID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []primitive.ObjectID{ids[0], ids[2], ids[1]}, []primitive.ObjectID{list[0].ID, list[1].ID, list[2].ID})
}

func TestRenameAndDeleteWorkoutCascades(t *testing.T) {
	h := newHarness(t)
	trainerID, clientID := h.pair(t)
	exerciseID := h.exercise(t, "Sentadilla")
	w, err := h.workouts.CreateWorkout(h.ctx, trainerID, clientID, "W")
	require.NoError(t, err)

	renamed, err := h.workouts.Rename(h.ctx, trainerID, clientID, w.Workout.ID, "Hipertrofia")
	require.NoError(t, err)
	require.Equal(t, "Hipertrofia", renamed.Name)

	sessionID := w.Sessions[0].Session.ID
	se, err := h.composition.AddSessionExercise(h.ctx, trainerID, sessionID, exerciseID, nil)
	require.NoError(t, err)
	_, err = h.composition.AddSet(h.ctx, trainerID, se.ID, domain.SetTargets{TargetReps: ptr(5)})
	require.NoError(t, err)

	require.NoError(t, h.workouts.DeleteWorkout(h.ctx, trainerID, clientID, w.Workout.ID))

	_, err = h.store.Workouts().GetByID(h.ctx, w.Workout.ID)
	require.Error(t, err)
	sessions, _ := h.store.Sessions().ListByWorkout(h.ctx, w.Workout.ID)
	require.Empty(t, sessions)
	ses, _ := h.store.SessionExercises().ListBySession(h.ctx, sessionID)
	require.Empty(t, ses)
	sets, _ := h.store.Sets().ListBySessionExercise(h.ctx, se.ID)
	require.Empty(t, sets)

	// the catalog entry is referenced, not owned
	_, err = h.catalog.GetExercise(h.ctx, exerciseID)
	require.NoError(t, err)
}
