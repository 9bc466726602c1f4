package memory

import (
	"context"
	"errors"
	"sort"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type workoutRepo struct{ s *Store }

func (r *workoutRepo) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.TrainerID == primitive.NilObjectID || workout.ClientID == primitive.NilObjectID || workout.Name == "" {
		return primitive.NilObjectID, errors.New("workout requires trainerId, clientId, and name")
	}
	if workout.Status == "" {
		workout.Status = domain.WorkoutDraft
	}
	defer r.s.lock(ctx)()

	workout.ID = primitive.NewObjectID()
	if workout.Status == domain.WorkoutActive && r.activeExists(workout.ClientID, workout.TrainerID, workout.ID) {
		return primitive.NilObjectID, repository.ErrConflict
	}
	workout.CreatedAt = r.s.now()
	workout.UpdatedAt = workout.CreatedAt
	r.s.data.workouts[workout.ID] = *workout
	return workout.ID, nil
}

func (r *workoutRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	defer r.s.rlock(ctx)()
	w, ok := r.s.data.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r *workoutRepo) GetActive(ctx context.Context, clientID, trainerID primitive.ObjectID) (*domain.Workout, error) {
	defer r.s.rlock(ctx)()
	for _, w := range r.s.data.workouts {
		if w.ClientID == clientID && w.TrainerID == trainerID && w.Status == domain.WorkoutActive {
			return &w, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *workoutRepo) ListByClientAndTrainer(ctx context.Context, clientID, trainerID primitive.ObjectID) ([]domain.Workout, error) {
	defer r.s.rlock(ctx)()
	out := []domain.Workout{}
	for _, w := range r.s.data.workouts {
		if w.ClientID == clientID && w.TrainerID == trainerID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].Status == domain.WorkoutActive, out[j].Status == domain.WorkoutActive
		if ai != aj {
			return ai
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *workoutRepo) SetStatus(ctx context.Context, id primitive.ObjectID, status domain.WorkoutStatus) error {
	defer r.s.lock(ctx)()
	w, ok := r.s.data.workouts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if status == domain.WorkoutActive && r.activeExists(w.ClientID, w.TrainerID, id) {
		return repository.ErrConflict
	}
	w.Status = status
	w.UpdatedAt = r.s.now()
	r.s.data.workouts[id] = w
	return nil
}

func (r *workoutRepo) ArchiveOtherActive(ctx context.Context, clientID, trainerID, excludeID primitive.ObjectID) ([]primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	var archived []primitive.ObjectID
	for id, w := range r.s.data.workouts {
		if id == excludeID || w.ClientID != clientID || w.TrainerID != trainerID || w.Status != domain.WorkoutActive {
			continue
		}
		w.Status = domain.WorkoutArchived
		w.UpdatedAt = r.s.now()
		r.s.data.workouts[id] = w
		archived = append(archived, id)
	}
	return archived, nil
}

func (r *workoutRepo) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	defer r.s.lock(ctx)()
	w, ok := r.s.data.workouts[id]
	if !ok {
		return repository.ErrNotFound
	}
	w.Name = name
	w.UpdatedAt = r.s.now()
	r.s.data.workouts[id] = w
	return nil
}

func (r *workoutRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.workouts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.workouts, id)
	return nil
}

// activeExists requires r.s.mu held.
func (r *workoutRepo) activeExists(clientID, trainerID, except primitive.ObjectID) bool {
	for id, w := range r.s.data.workouts {
		if id != except && w.ClientID == clientID && w.TrainerID == trainerID && w.Status == domain.WorkoutActive {
			return true
		}
	}
	return false
}
