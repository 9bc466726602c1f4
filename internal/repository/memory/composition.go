package memory

import (
	"context"
	"errors"
	"sort"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ordering"
	"alcyxob/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// reorder validates a batch against the current children of one parent and
// returns the id -> order map to write. Nothing is written on error.
func reorder(current map[primitive.ObjectID]int, items []ordering.Item) (map[primitive.ObjectID]int, error) {
	next := make(map[primitive.ObjectID]int, len(current))
	for id, o := range current {
		next[id] = o
	}
	for _, it := range items {
		if _, ok := current[it.ID]; !ok {
			return nil, repository.ErrNotFound
		}
		next[it.ID] = it.Order
	}
	seen := make(map[int]struct{}, len(next))
	for _, o := range next {
		if _, dup := seen[o]; dup {
			return nil, repository.ErrConflict
		}
		seen[o] = struct{}{}
	}
	return next, nil
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]struct{} {
	m := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// --- sessions ---

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	if session.WorkoutID == primitive.NilObjectID || session.SessionOrder < ordering.First {
		return primitive.NilObjectID, errors.New("session requires workoutId and a positive sessionOrder")
	}
	defer r.s.lock(ctx)()
	for _, other := range r.s.data.sessions {
		if other.WorkoutID == session.WorkoutID && other.SessionOrder == session.SessionOrder {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	session.ID = primitive.NewObjectID()
	r.s.data.sessions[session.ID] = *session
	return session.ID, nil
}

func (r *sessionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	defer r.s.rlock(ctx)()
	session, ok := r.s.data.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (r *sessionRepo) ListByWorkout(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	defer r.s.rlock(ctx)()
	out := []domain.WorkoutSession{}
	for _, session := range r.s.data.sessions {
		if session.WorkoutID == workoutID {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionOrder < out[j].SessionOrder })
	return out, nil
}

func (r *sessionRepo) CountByWorkout(ctx context.Context, workoutID primitive.ObjectID) (int64, error) {
	sessions, _ := r.ListByWorkout(ctx, workoutID)
	return int64(len(sessions)), nil
}

func (r *sessionRepo) Update(ctx context.Context, session *domain.WorkoutSession) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.data.sessions[session.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = session.Name
	stored.Notes = session.Notes
	r.s.data.sessions[session.ID] = stored
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.sessions, id)
	return nil
}

func (r *sessionRepo) DeleteByWorkout(ctx context.Context, workoutID primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	for id, session := range r.s.data.sessions {
		if session.WorkoutID == workoutID {
			delete(r.s.data.sessions, id)
		}
	}
	return nil
}

func (r *sessionRepo) Reorder(ctx context.Context, workoutID primitive.ObjectID, items []ordering.Item) error {
	defer r.s.lock(ctx)()
	current := map[primitive.ObjectID]int{}
	for id, session := range r.s.data.sessions {
		if session.WorkoutID == workoutID {
			current[id] = session.SessionOrder
		}
	}
	next, err := reorder(current, items)
	if err != nil {
		return err
	}
	for id, o := range next {
		session := r.s.data.sessions[id]
		session.SessionOrder = o
		r.s.data.sessions[id] = session
	}
	return nil
}

// --- session exercises ---

type sessionExerciseRepo struct{ s *Store }

func (r *sessionExerciseRepo) Create(ctx context.Context, se *domain.WorkoutSessionExercise) (primitive.ObjectID, error) {
	if se.WorkoutSessionID == primitive.NilObjectID || se.ExerciseID == primitive.NilObjectID || se.Position < ordering.First {
		return primitive.NilObjectID, errors.New("session exercise requires workoutSessionId, exerciseId and a positive position")
	}
	defer r.s.lock(ctx)()
	for _, other := range r.s.data.sessionExercises {
		if other.WorkoutSessionID == se.WorkoutSessionID && other.Position == se.Position {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	se.ID = primitive.NewObjectID()
	r.s.data.sessionExercises[se.ID] = *se
	return se.ID, nil
}

func (r *sessionExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSessionExercise, error) {
	defer r.s.rlock(ctx)()
	se, ok := r.s.data.sessionExercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &se, nil
}

func (r *sessionExerciseRepo) ListBySession(ctx context.Context, sessionID primitive.ObjectID) ([]domain.WorkoutSessionExercise, error) {
	return r.ListBySessions(ctx, []primitive.ObjectID{sessionID})
}

func (r *sessionExerciseRepo) ListBySessions(ctx context.Context, sessionIDs []primitive.ObjectID) ([]domain.WorkoutSessionExercise, error) {
	defer r.s.rlock(ctx)()
	want := idSet(sessionIDs)
	out := []domain.WorkoutSessionExercise{}
	for _, se := range r.s.data.sessionExercises {
		if _, ok := want[se.WorkoutSessionID]; ok {
			out = append(out, se)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WorkoutSessionID != out[j].WorkoutSessionID {
			return out[i].WorkoutSessionID.Hex() < out[j].WorkoutSessionID.Hex()
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (r *sessionExerciseRepo) CountByExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error) {
	defer r.s.rlock(ctx)()
	var n int64
	for _, se := range r.s.data.sessionExercises {
		if se.ExerciseID == exerciseID {
			n++
		}
	}
	return n, nil
}

func (r *sessionExerciseRepo) UpdateNotes(ctx context.Context, id primitive.ObjectID, notes string) error {
	defer r.s.lock(ctx)()
	se, ok := r.s.data.sessionExercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	se.Notes = notes
	r.s.data.sessionExercises[id] = se
	return nil
}

func (r *sessionExerciseRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.sessionExercises[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.sessionExercises, id)
	return nil
}

func (r *sessionExerciseRepo) DeleteBySessions(ctx context.Context, sessionIDs []primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	want := idSet(sessionIDs)
	for id, se := range r.s.data.sessionExercises {
		if _, ok := want[se.WorkoutSessionID]; ok {
			delete(r.s.data.sessionExercises, id)
		}
	}
	return nil
}

func (r *sessionExerciseRepo) Reorder(ctx context.Context, sessionID primitive.ObjectID, items []ordering.Item) error {
	defer r.s.lock(ctx)()
	current := map[primitive.ObjectID]int{}
	for id, se := range r.s.data.sessionExercises {
		if se.WorkoutSessionID == sessionID {
			current[id] = se.Position
		}
	}
	next, err := reorder(current, items)
	if err != nil {
		return err
	}
	for id, o := range next {
		se := r.s.data.sessionExercises[id]
		se.Position = o
		r.s.data.sessionExercises[id] = se
	}
	return nil
}

// --- sets ---

type setRepo struct{ s *Store }

func (r *setRepo) Create(ctx context.Context, set *domain.WorkoutSessionExerciseSet) (primitive.ObjectID, error) {
	if set.WorkoutSessionExerciseID == primitive.NilObjectID || set.SetOrder < ordering.First {
		return primitive.NilObjectID, errors.New("set requires workoutSessionExerciseId and a positive setOrder")
	}
	defer r.s.lock(ctx)()
	for _, other := range r.s.data.sets {
		if other.WorkoutSessionExerciseID == set.WorkoutSessionExerciseID && other.SetOrder == set.SetOrder {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	set.ID = primitive.NewObjectID()
	r.s.data.sets[set.ID] = *set
	return set.ID, nil
}

func (r *setRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSessionExerciseSet, error) {
	defer r.s.rlock(ctx)()
	set, ok := r.s.data.sets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &set, nil
}

func (r *setRepo) ListBySessionExercise(ctx context.Context, sessionExerciseID primitive.ObjectID) ([]domain.WorkoutSessionExerciseSet, error) {
	return r.ListBySessionExercises(ctx, []primitive.ObjectID{sessionExerciseID})
}

func (r *setRepo) ListBySessionExercises(ctx context.Context, sessionExerciseIDs []primitive.ObjectID) ([]domain.WorkoutSessionExerciseSet, error) {
	defer r.s.rlock(ctx)()
	want := idSet(sessionExerciseIDs)
	out := []domain.WorkoutSessionExerciseSet{}
	for _, set := range r.s.data.sets {
		if _, ok := want[set.WorkoutSessionExerciseID]; ok {
			out = append(out, set)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WorkoutSessionExerciseID != out[j].WorkoutSessionExerciseID {
			return out[i].WorkoutSessionExerciseID.Hex() < out[j].WorkoutSessionExerciseID.Hex()
		}
		return out[i].SetOrder < out[j].SetOrder
	})
	return out, nil
}

func (r *setRepo) UpdateTargets(ctx context.Context, id primitive.ObjectID, targets domain.SetTargets) error {
	defer r.s.lock(ctx)()
	set, ok := r.s.data.sets[id]
	if !ok {
		return repository.ErrNotFound
	}
	set.SetTargets = targets
	r.s.data.sets[id] = set
	return nil
}

func (r *setRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.sets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.sets, id)
	return nil
}

func (r *setRepo) CloseGap(ctx context.Context, sessionExerciseID primitive.ObjectID, removedOrder int) error {
	defer r.s.lock(ctx)()
	var remaining []domain.WorkoutSessionExerciseSet
	for _, set := range r.s.data.sets {
		if set.WorkoutSessionExerciseID == sessionExerciseID && set.SetOrder != removedOrder {
			remaining = append(remaining, set)
		}
	}
	orders := make([]int, len(remaining))
	for i, set := range remaining {
		orders[i] = set.SetOrder
	}
	for i, order := range ordering.CloseGap(orders, removedOrder) {
		set := remaining[i]
		set.SetOrder = order
		r.s.data.sets[set.ID] = set
	}
	return nil
}

func (r *setRepo) DeleteBySessionExercises(ctx context.Context, sessionExerciseIDs []primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	want := idSet(sessionExerciseIDs)
	for id, set := range r.s.data.sets {
		if _, ok := want[set.WorkoutSessionExerciseID]; ok {
			delete(r.s.data.sets, id)
		}
	}
	return nil
}
