package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ordering"
	"alcyxob/coach-app/internal/repository"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newWorkout(t *testing.T, h *harness) (trainerID primitive.ObjectID, tree *domain.WorkoutTree) {
	t.Helper()
	trainerID, clientID := h.pair(t)
	tree, err := h.workouts.CreateWorkout(h.ctx, trainerID, clientID, "W")
	require.NoError(t, err)
	return trainerID, tree
}

func sessionOrders(t *testing.T, h *harness, workoutID primitive.ObjectID) map[primitive.ObjectID]int {
	t.Helper()
	sessions, err := h.store.Sessions().ListByWorkout(h.ctx, workoutID)
	require.NoError(t, err)
	out := map[primitive.ObjectID]int{}
	for _, s := range sessions {
		out[s.ID] = s.SessionOrder
	}
	return out
}

func TestAddSessionDefaultsAndExplicitNames(t *testing.T) {
	h := newHarness(t)
	trainerID, tree := newWorkout(t, h)

	second, err := h.composition.AddSession(h.ctx, trainerID, tree.Workout.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 2, second.SessionOrder)
	require.Equal(t, "Día 2", second.Name)

	third, err := h.composition.AddSession(h.ctx, trainerID, tree.Workout.ID, ptr("Pierna"))
	require.NoError(t, err)
	require.Equal(t, 3, third.SessionOrder)
	require.Equal(t, "Pierna", third.Name)

	_, err = h.composition.AddSession(h.ctx, trainerID, tree.Workout.ID, ptr("   "))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestDeleteSessionKeepsGaps(t *testing.T) {
	h := newHarness(t)
	trainerID, tree := newWorkout(t, h)
	first := tree.Sessions[0].Session
	second, err := h.composition.AddSession(h.ctx, trainerID, tree.Workout.ID, nil)
	require.NoError(t, err)
	third, err := h.composition.AddSession(h.ctx, trainerID, tree.Workout.ID, nil)
	require.NoError(t, err)

	require.NoError(t, h.composition.DeleteSession(h.ctx, trainerID, second.ID))
	require.Equal(t, map[primitive.ObjectID]int{first.ID: 1, third.ID: 3}, sessionOrders(t, h, tree.Workout.ID))

	fourth, err := h.composition.AddSession(h.ctx, trainerID, tree.Workout.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 4, fourth.SessionOrder, "next position is max+1, holes are not reused")
	require.Equal(t, "Día 4", fourth.Name)
}

func TestDeleteLastSessionFails(t *testing.T) {
	h := newHarness(t)
	trainerID, tree := newWorkout(t, h)
	only := tree.Sessions[0].Session

	err := h.composition.DeleteSession(h.ctx, trainerID, only.ID)
	require.ErrorIs(t, err, ErrLastSession)

	count, err := h.store.Sessions().CountByWorkout(h.ctx, tree.Workout.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	_, err = h.store.Workouts().GetByID(h.ctx, tree.Workout.ID)
	require.NoError(t, err)
}

func TestDeleteSessionCascades(t *testing.T) {
	h := newHarness(t)
	trainerID, tree := newWorkout(t, h)
	exerciseID := h.exercise(t, "Remo")
	doomed, err := h.composition.AddSession(h.ctx, trainerID, tree.Workout.ID, nil)
	require.NoError(t, err)
	se, err := h.composition.AddSessionExercise(h.ctx, trainerID, doomed.ID, exerciseID, nil)
	require.NoError(t, err)
	_, err = h.composition.AddSet(h.ctx, trainerID, se.ID, domain.SetTargets{})
	require.NoError(t, err)

	require.NoError(t, h.composition.DeleteSession(h.ctx, trainerID, doomed.ID))

	_, err = h.store.SessionExercises().GetByID(h.ctx, se.ID)
	require.Error(t, err)
	sets, err := h.store.Sets().ListBySessionExercise(h.ctx, se.ID)
	require.NoError(t, err)
	require.Empty(t, sets)
}

func TestDeleteSetClosesGap(t *testing.T) {
	h := newHarness(t)
	trainerID, tree := newWorkout(t, h)
	exerciseID := h.exercise(t, "Press banca")
	se, err := h.composition.AddSessionExercise(h.ctx, trainerID, tree.Sessions[0].Session.ID, exerciseID, nil)
	require.NoError(t, err)

	var ids []primitive.ObjectID
	for reps := 1; reps <= 3; reps++ {
		set, err := h.composition.AddSet(h.ctx, trainerID, se.ID, domain.SetTargets{TargetReps: ptr(reps)})
		require.NoError(t, err)
		require.Equal(t, reps, set.SetOrder)
		ids = append(ids, set.ID)
	}

	require.NoError(t, h.composition.DeleteSet(h.ctx, trainerID, ids[1]))

	sets, err := h.store.Sets().ListBySessionExercise(h.ctx, se.ID)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	require.Equal(t, ids[0], sets[0].ID)
	require.Equal(t, 1, sets[0].SetOrder)
	require.Equal(t, ids[2], sets[1].ID)
	require.Equal(t, 2, sets[1].SetOrder)
	require.Equal(t, 3, *sets[1].TargetReps)

	next, err := h.composition.AddSet(h.ctx, trainerID, se.ID, domain.SetTargets{})
	require.NoError(t, err)
	require.Equal(t, 3, next.SetOrder)

	// deleting the first set renumbers everything after it
	require.NoError(t, h.composition.DeleteSet(h.ctx, trainerID, ids[0]))
	sets, err = h.store.Sets().ListBySessionExercise(h.ctx, se.ID)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, []int{sets[0].SetOrder, sets[1].SetOrder})
	require.Equal(t, []primitive.ObjectID{ids[2], next.ID}, []primitive.ObjectID{sets[0].ID, sets[1].ID})
}

func TestSessionExercisesKeepGaps(t *testing.T) {
	h := newHarness(t)
	trainerID, tree := newWorkout(t, h)
	sessionID := tree.Sessions[0].Session.ID
	exerciseID := h.exercise(t, "Dominadas")

	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		se, err := h.composition.AddSessionExercise(h.ctx, trainerID, sessionID, exerciseID, ptr("nota"))
		require.NoError(t, err)
		require.Equal(t, i+1, se.Position)
		ids = append(ids, se.ID)
	}
	require.NoError(t, h.composition.DeleteSessionExercise(h.ctx, trainerID, ids[0]))

	ses, err := h.store.SessionExercises().ListBySession(h.ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, []int{ses[0].Position, ses[1].Position})

	_, err = h.composition.AddSessionExercise(h.ctx, trainerID, sessionID, primitive.NewObjectID(), nil)
	require.ErrorIs(t, err, ErrNotFound, "exercise must exist in the catalog")

	updated, err := h.composition.UpdateSessionExercise(h.ctx, trainerID, ids[1], " 3x8 ")
	require.NoError(t, err)
	require.Equal(t, "3x8", updated.Notes)
}

func TestReorderSessions(t *testing.T) {
	h := newHarness(t)
	trainerID, tree := newWorkout(t, h)
	a := tree.Sessions[0].Session
	b, err := h.composition.AddSession(h.ctx, trainerID, tree.Workout.ID, nil)
	require.NoError(t, err)
	c, err := h.composition.AddSession(h.ctx, trainerID, tree.Workout.ID, nil)
	require.NoError(t, err)

	// swap a full permutation: 1,2,3 -> 3,1,2
	reordered, err := h.composition.ReorderSessions(h.ctx, trainerID, tree.Workout.ID, []ordering.Item{
		{ID: a.ID, Order: 3}, {ID: b.ID, Order: 1}, {ID: c.ID, Order: 2},
	})
	require.NoError(t, err)
	require.Equal(t, []primitive.ObjectID{b.ID, c.ID, a.ID}, []primitive.ObjectID{reordered[0].ID, reordered[1].ID, reordered[2].ID})

	// partial payload moving one session into a free slot
	_, err = h.composition.ReorderSessions(h.ctx, trainerID, tree.Workout.ID, []ordering.Item{{ID: a.ID, Order: 10}})
	require.NoError(t, err)
	require.Equal(t, map[primitive.ObjectID]int{a.ID: 10, b.ID: 1, c.ID: 2}, sessionOrders(t, h, tree.Workout.ID))

	// partial payload colliding with an untouched sibling
	_, err = h.composition.ReorderSessions(h.ctx, trainerID, tree.Workout.ID, []ordering.Item{{ID: a.ID, Order: 1}})
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, map[primitive.ObjectID]int{a.ID: 10, b.ID: 1, c.ID: 2}, sessionOrders(t, h, tree.Workout.ID))
}

func TestReorderRejectsBadPayloads(t *testing.T) {
	h := newHarness(t)
	trainerID, tree := newWorkout(t, h)
	a := tree.Sessions[0].Session
	b, err := h.composition.AddSession(h.ctx, trainerID, tree.Workout.ID, nil)
	require.NoError(t, err)

	cases := map[string][]ordering.Item{
		"empty":           nil,
		"zero order":      {{ID: a.ID, Order: 0}},
		"foreign id":      {{ID: primitive.NewObjectID(), Order: 5}},
		"duplicate id":    {{ID: a.ID, Order: 4}, {ID: a.ID, Order: 5}},
		"duplicate order": {{ID: a.ID, Order: 4}, {ID: b.ID, Order: 4}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.composition.ReorderSessions(h.ctx, trainerID, tree.Workout.ID, items)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, "items", ve.Field)
		})
	}
	require.Equal(t, map[primitive.ObjectID]int{a.ID: 1, b.ID: 2}, sessionOrders(t, h, tree.Workout.ID))
}

func TestReorderSessionExercises(t *testing.T) {
	h := newHarness(t)
	trainerID, tree := newWorkout(t, h)
	sessionID := tree.Sessions[0].Session.ID
	exerciseID := h.exercise(t, "Curl")
	x, err := h.composition.AddSessionExercise(h.ctx, trainerID, sessionID, exerciseID, nil)
	require.NoError(t, err)
	y, err := h.composition.AddSessionExercise(h.ctx, trainerID, sessionID, exerciseID, nil)
	require.NoError(t, err)

	out, err := h.composition.ReorderSessionExercises(h.ctx, trainerID, sessionID, []ordering.Item{{ID: x.ID, Order: 2}, {ID: y.ID, Order: 1}})
	require.NoError(t, err)
	require.Equal(t, y.ID, out[0].ID)
	require.Equal(t, x.ID, out[1].ID)
}

func TestSetTargetValidation(t *testing.T) {
	cases := []struct {
		name    string
		targets domain.SetTargets
		field   string
	}{
		{"ok", domain.SetTargets{TargetReps: ptr(8), TargetWeight: ptr(102.5), TargetRPE: ptr(8.5), RestSeconds: ptr(90), Tempo: ptr("3-1-1-0")}, ""},
		{"negative reps", domain.SetTargets{TargetReps: ptr(-1)}, "targetReps"},
		{"negative weight", domain.SetTargets{TargetWeight: ptr(-0.5)}, "targetWeight"},
		{"weight too large", domain.SetTargets{TargetWeight: ptr(1000000.0)}, "targetWeight"},
		{"weight three decimals", domain.SetTargets{TargetWeight: ptr(10.125)}, "targetWeight"},
		{"rpe too low", domain.SetTargets{TargetRPE: ptr(0.5)}, "targetRpe"},
		{"rpe too high", domain.SetTargets{TargetRPE: ptr(10.5)}, "targetRpe"},
		{"rpe two decimals", domain.SetTargets{TargetRPE: ptr(7.25)}, "targetRpe"},
		{"negative rest", domain.SetTargets{RestSeconds: ptr(-5)}, "restSeconds"},
		{"tempo too long", domain.SetTargets{Tempo: ptr("012345678901234567890")}, "tempo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSetTargets(tc.targets)
			if tc.field == "" {
				require.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestUpdateSetAndSession(t *testing.T) {
	h := newHarness(t)
	trainerID, tree := newWorkout(t, h)
	session := tree.Sessions[0].Session
	exerciseID := h.exercise(t, "Peso muerto")
	se, err := h.composition.AddSessionExercise(h.ctx, trainerID, session.ID, exerciseID, nil)
	require.NoError(t, err)
	set, err := h.composition.AddSet(h.ctx, trainerID, se.ID, domain.SetTargets{TargetReps: ptr(5)})
	require.NoError(t, err)

	updated, err := h.composition.UpdateSet(h.ctx, trainerID, set.ID, domain.SetTargets{TargetWeight: ptr(140.0)})
	require.NoError(t, err)
	require.Equal(t, 1, updated.SetOrder)
	stored, err := h.store.Sets().GetByID(h.ctx, set.ID)
	require.NoError(t, err)
	require.Nil(t, stored.TargetReps)
	require.Equal(t, 140.0, *stored.TargetWeight)

	renamed, err := h.composition.UpdateSession(h.ctx, trainerID, session.ID, ptr("Tirón"), ptr("calentar bien"))
	require.NoError(t, err)
	require.Equal(t, "Tirón", renamed.Name)
	require.Equal(t, "calentar bien", renamed.Notes)
	require.Equal(t, 1, renamed.SessionOrder)
}

func TestWorkoutTreeRoundTrip(t *testing.T) {
	h := newHarness(t)
	trainerID, tree := newWorkout(t, h)
	squat := h.exercise(t, "Sentadilla")
	bench := h.exercise(t, "Press banca")
	day1 := tree.Sessions[0].Session
	day2, err := h.composition.AddSession(h.ctx, trainerID, tree.Workout.ID, nil)
	require.NoError(t, err)

	// build day 2 before day 1 so insertion order differs from tree order
	for _, sessionID := range []primitive.ObjectID{day2.ID, day1.ID} {
		for _, exerciseID := range []primitive.ObjectID{squat, bench} {
			se, err := h.composition.AddSessionExercise(h.ctx, trainerID, sessionID, exerciseID, nil)
			require.NoError(t, err)
			for reps := 10; reps > 7; reps-- {
				_, err := h.composition.AddSet(h.ctx, trainerID, se.ID, domain.SetTargets{TargetReps: ptr(reps)})
				require.NoError(t, err)
			}
		}
	}
	_, err = h.composition.ReorderSessions(h.ctx, trainerID, tree.Workout.ID, []ordering.Item{{ID: day1.ID, Order: 5}})
	require.NoError(t, err)

	got, err := h.composition.GetWorkoutTree(h.ctx, trainerID, tree.Workout.ID)
	require.NoError(t, err)
	require.Len(t, got.Sessions, 2)
	require.Equal(t, day2.ID, got.Sessions[0].Session.ID)
	require.Equal(t, day1.ID, got.Sessions[1].Session.ID)
	for _, s := range got.Sessions {
		require.Len(t, s.Exercises, 2)
		require.Equal(t, squat, s.Exercises[0].SessionExercise.ExerciseID)
		require.Less(t, s.Exercises[0].SessionExercise.Position, s.Exercises[1].SessionExercise.Position)
		for _, e := range s.Exercises {
			require.Len(t, e.Sets, 3)
			for i, set := range e.Sets {
				require.Equal(t, i+1, set.SetOrder)
				require.Equal(t, 10-i, *set.TargetReps)
			}
		}
	}

	viaWorkouts, err := h.workouts.GetTree(h.ctx, trainerID, got.Workout.ClientID, tree.Workout.ID)
	require.NoError(t, err)
	require.Equal(t, got, viaWorkouts)
}

func TestConcurrentAppendsGetDistinctPositions(t *testing.T) {
	h := newHarness(t)
	trainerID, tree := newWorkout(t, h)
	exerciseID := h.exercise(t, "Remo")
	se, err := h.composition.AddSessionExercise(h.ctx, trainerID, tree.Sessions[0].Session.ID, exerciseID, nil)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := h.composition.AddSet(h.ctx, trainerID, se.ID, domain.SetTargets{})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := h.composition.AddSession(h.ctx, trainerID, tree.Workout.ID, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sets, err := h.store.Sets().ListBySessionExercise(h.ctx, se.ID)
	require.NoError(t, err)
	setOrders := make([]int, 0, len(sets))
	for _, set := range sets {
		setOrders = append(setOrders, set.SetOrder)
	}
	sort.Ints(setOrders)
	require.Equal(t, contiguous(n), setOrders)

	orders := make([]int, 0, n+1)
	for _, o := range sessionOrders(t, h, tree.Workout.ID) {
		orders = append(orders, o)
	}
	sort.Ints(orders)
	require.Equal(t, contiguous(n+1), orders)
}

func contiguous(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// collidingSets reports a unique-order collision for the first `collisions`
// creates, the way a concurrent writer winning the race would.
type collidingSets struct {
	repository.SetRepository
	mu         sync.Mutex
	collisions int
	attempts   int
}

func (c *collidingSets) Create(ctx context.Context, set *domain.WorkoutSessionExerciseSet) (primitive.ObjectID, error) {
	c.mu.Lock()
	c.attempts++
	collide := c.attempts <= c.collisions
	c.mu.Unlock()
	if collide {
		return primitive.NilObjectID, repository.ErrConflict
	}
	return c.SetRepository.Create(ctx, set)
}

func TestAddSetRetriesPositionConflicts(t *testing.T) {
	h := newHarness(t)
	trainerID, tree := newWorkout(t, h)
	exerciseID := h.exercise(t, "Remo")
	se, err := h.composition.AddSessionExercise(h.ctx, trainerID, tree.Sessions[0].Session.ID, exerciseID, nil)
	require.NoError(t, err)

	newComposition := func(sets repository.SetRepository) CompositionService {
		return NewCompositionService(h.store, h.store.Workouts(), h.store.Sessions(),
			h.store.SessionExercises(), sets, h.store.Exercises())
	}

	once := &collidingSets{SetRepository: h.store.Sets(), collisions: 1}
	set, err := newComposition(once).AddSet(h.ctx, trainerID, se.ID, domain.SetTargets{})
	require.NoError(t, err)
	require.Equal(t, 1, set.SetOrder)
	require.Equal(t, 2, once.attempts)

	always := &collidingSets{SetRepository: h.store.Sets(), collisions: maxPositionAttempts}
	_, err = newComposition(always).AddSet(h.ctx, trainerID, se.ID, domain.SetTargets{})
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, maxPositionAttempts, always.attempts)

	sets, err := h.store.Sets().ListBySessionExercise(h.ctx, se.ID)
	require.NoError(t, err)
	require.Len(t, sets, 1, "failed attempts leave nothing behind")
}
