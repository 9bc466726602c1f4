package service

import (
	"context"
	"errors"
	"log/slog"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/events"
	"alcyxob/coach-app/internal/metrics"
	"alcyxob/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutService manages workouts and their draft/active/archived lifecycle.
// Every method takes the trainer and the client the caller claims the
// workout belongs to; a mismatch is ErrOwnershipMismatch.
type WorkoutService interface {
	CreateWorkout(ctx context.Context, trainerID, clientID primitive.ObjectID, name string) (*domain.WorkoutTree, error)
	Activate(ctx context.Context, trainerID, clientID, workoutID primitive.ObjectID) (*domain.Workout, error)
	Archive(ctx context.Context, trainerID, clientID, workoutID primitive.ObjectID) (*domain.Workout, error)
	Unarchive(ctx context.Context, trainerID, clientID, workoutID primitive.ObjectID) (*domain.Workout, error)

	GetCurrentForClient(ctx context.Context, trainerID, clientID primitive.ObjectID) (*domain.Workout, error)
	ListForClient(ctx context.Context, trainerID, clientID primitive.ObjectID) ([]domain.Workout, error)
	GetTree(ctx context.Context, trainerID, clientID, workoutID primitive.ObjectID) (*domain.WorkoutTree, error)
	Rename(ctx context.Context, trainerID, clientID, workoutID primitive.ObjectID, name string) (*domain.Workout, error)
	DeleteWorkout(ctx context.Context, trainerID, clientID, workoutID primitive.ObjectID) error
}

type workoutService struct {
	tx               repository.Transactor
	rels             repository.RelationshipRepository
	workouts         repository.WorkoutRepository
	sessions         repository.SessionRepository
	sessionExercises repository.SessionExerciseRepository
	sets             repository.SetRepository
	publisher        events.Publisher
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	tx repository.Transactor,
	rels repository.RelationshipRepository,
	workouts repository.WorkoutRepository,
	sessions repository.SessionRepository,
	sessionExercises repository.SessionExerciseRepository,
	sets repository.SetRepository,
	publisher events.Publisher,
) WorkoutService {
	return &workoutService{
		tx:               tx,
		rels:             rels,
		workouts:         workouts,
		sessions:         sessions,
		sessionExercises: sessionExercises,
		sets:             sets,
		publisher:        publisher,
	}
}

func workoutName(name string) (string, error) {
	return cleanName("name", &name)
}

// requireClient fails with ErrOwnershipMismatch unless the pair has a
// relationship, accepted when activeOnly is set.
func (s *workoutService) requireClient(ctx context.Context, trainerID, clientID primitive.ObjectID, activeOnly bool) error {
	rel, err := s.rels.Get(ctx, trainerID, clientID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrOwnershipMismatch
	}
	if err != nil {
		return err
	}
	if activeOnly && rel.Status != domain.RelationshipActive {
		return ErrOwnershipMismatch
	}
	return nil
}

func (s *workoutService) load(ctx context.Context, trainerID, clientID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	w, err := s.workouts.GetByID(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	if !w.BelongsTo(trainerID, clientID) {
		return nil, ErrOwnershipMismatch
	}
	return w, nil
}

// CreateWorkout inserts a draft workout together with its first session.
func (s *workoutService) CreateWorkout(ctx context.Context, trainerID, clientID primitive.ObjectID, name string) (*domain.WorkoutTree, error) {
	n, err := workoutName(name)
	if err != nil {
		return nil, err
	}

	var (
		workout domain.Workout
		first   *domain.WorkoutSession
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireClient(ctx, trainerID, clientID, true); err != nil {
			return err
		}
		workout = domain.Workout{
			Name:      n,
			TrainerID: trainerID,
			ClientID:  clientID,
			Status:    domain.WorkoutDraft,
		}
		id, err := s.workouts.Create(ctx, &workout)
		if err != nil {
			return err
		}
		workout.ID = id
		first, err = appendSession(ctx, s.sessions, id, "")
		return err
	})
	if err != nil {
		return nil, translate("create workout", err)
	}

	slog.Info("workout created", "workout_id", workout.ID.Hex(), "trainer_id", trainerID.Hex(), "client_id", clientID.Hex())
	evt := events.New(domain.EventWorkoutCreated, trainerID, clientID)
	evt.WorkoutID = &workout.ID
	publish(ctx, s.publisher, evt)

	return &domain.WorkoutTree{
		Workout:  workout,
		Sessions: []domain.SessionNode{{Session: *first, Exercises: []domain.ExerciseNode{}}},
	}, nil
}

// Activate makes the workout the pair's only active one. Other active
// workouts of the same trainer and client are archived in the same transaction.
func (s *workoutService) Activate(ctx context.Context, trainerID, clientID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	var (
		workout  *domain.Workout
		archived []primitive.ObjectID
		changed  bool
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		archived, changed = nil, false
		w, err := s.load(ctx, trainerID, clientID, workoutID)
		if err != nil {
			return err
		}
		workout = w
		if w.Status == domain.WorkoutActive {
			return nil
		}
		if !w.Status.CanTransitionTo(domain.WorkoutActive) {
			return ErrInvalidTransition
		}
		archived, err = s.workouts.ArchiveOtherActive(ctx, clientID, trainerID, workoutID)
		if err != nil {
			return err
		}
		if err := s.workouts.SetStatus(ctx, workoutID, domain.WorkoutActive); err != nil {
			return err
		}
		workout.Status = domain.WorkoutActive
		changed = true
		return nil
	})
	if err != nil {
		return nil, translate("activate workout", err)
	}
	if changed {
		metrics.RecordWorkoutTransition(string(domain.WorkoutActive))
		slog.Info("workout activated", "workout_id", workoutID.Hex(), "archived", len(archived))
		evt := events.New(domain.EventWorkoutActivated, trainerID, clientID)
		evt.WorkoutID = &workoutID
		evt.ArchivedIDs = archived
		publish(ctx, s.publisher, evt)
	}
	return workout, nil
}

// Archive moves a draft or active workout to archived. Siblings are untouched.
func (s *workoutService) Archive(ctx context.Context, trainerID, clientID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	return s.transition(ctx, trainerID, clientID, workoutID, domain.WorkoutArchived, domain.EventWorkoutArchived)
}

// Unarchive moves an archived workout back to draft.
func (s *workoutService) Unarchive(ctx context.Context, trainerID, clientID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	return s.transition(ctx, trainerID, clientID, workoutID, domain.WorkoutDraft, domain.EventWorkoutUnarchived)
}

func (s *workoutService) transition(ctx context.Context, trainerID, clientID, workoutID primitive.ObjectID, to domain.WorkoutStatus, evtType domain.EventType) (*domain.Workout, error) {
	w, err := s.load(ctx, trainerID, clientID, workoutID)
	if err != nil {
		return nil, translate("load workout", err)
	}
	if w.Status == to {
		if to == domain.WorkoutDraft {
			// only archived workouts can be unarchived
			return nil, ErrInvalidTransition
		}
		return w, nil
	}
	if !w.Status.CanTransitionTo(to) {
		return nil, ErrInvalidTransition
	}
	if err := s.workouts.SetStatus(ctx, workoutID, to); err != nil {
		return nil, translate("set workout status", err)
	}
	w.Status = to
	metrics.RecordWorkoutTransition(string(to))
	evt := events.New(evtType, trainerID, clientID)
	evt.WorkoutID = &workoutID
	publish(ctx, s.publisher, evt)
	return w, nil
}

// GetCurrentForClient returns the pair's active workout or ErrNotFound.
func (s *workoutService) GetCurrentForClient(ctx context.Context, trainerID, clientID primitive.ObjectID) (*domain.Workout, error) {
	if err := s.requireClient(ctx, trainerID, clientID, false); err != nil {
		return nil, translate("check client", err)
	}
	w, err := s.workouts.GetActive(ctx, clientID, trainerID)
	if err != nil {
		return nil, translate("current workout", err)
	}
	return w, nil
}

// ListForClient lists the pair's workouts, the active one first, then newest first.
func (s *workoutService) ListForClient(ctx context.Context, trainerID, clientID primitive.ObjectID) ([]domain.Workout, error) {
	if err := s.requireClient(ctx, trainerID, clientID, false); err != nil {
		return nil, translate("check client", err)
	}
	ws, err := s.workouts.ListByClientAndTrainer(ctx, clientID, trainerID)
	if err != nil {
		return nil, translate("list workouts", err)
	}
	return ws, nil
}

func (s *workoutService) GetTree(ctx context.Context, trainerID, clientID, workoutID primitive.ObjectID) (*domain.WorkoutTree, error) {
	w, err := s.load(ctx, trainerID, clientID, workoutID)
	if err != nil {
		return nil, translate("load workout", err)
	}
	return buildTree(ctx, *w, s.sessions, s.sessionExercises, s.sets)
}

func (s *workoutService) Rename(ctx context.Context, trainerID, clientID, workoutID primitive.ObjectID, name string) (*domain.Workout, error) {
	n, err := workoutName(name)
	if err != nil {
		return nil, err
	}
	w, err := s.load(ctx, trainerID, clientID, workoutID)
	if err != nil {
		return nil, translate("load workout", err)
	}
	if err := s.workouts.Rename(ctx, workoutID, n); err != nil {
		return nil, translate("rename workout", err)
	}
	w.Name = n
	return w, nil
}

// DeleteWorkout removes the workout and everything under it in one transaction.
func (s *workoutService) DeleteWorkout(ctx context.Context, trainerID, clientID, workoutID primitive.ObjectID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.load(ctx, trainerID, clientID, workoutID); err != nil {
			return err
		}
		sessions, err := s.sessions.ListByWorkout(ctx, workoutID)
		if err != nil {
			return err
		}
		if len(sessions) > 0 {
			ids := make([]primitive.ObjectID, 0, len(sessions))
			for _, session := range sessions {
				ids = append(ids, session.ID)
			}
			if err := cascadeSessions(ctx, s.sessionExercises, s.sets, ids); err != nil {
				return err
			}
		}
		if err := s.sessions.DeleteByWorkout(ctx, workoutID); err != nil {
			return err
		}
		return s.workouts.Delete(ctx, workoutID)
	})
	if err != nil {
		return translate("delete workout", err)
	}
	evt := events.New(domain.EventWorkoutDeleted, trainerID, clientID)
	evt.WorkoutID = &workoutID
	publish(ctx, s.publisher, evt)
	return nil
}
