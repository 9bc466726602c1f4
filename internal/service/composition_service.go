package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ordering"
	"alcyxob/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxTempoLength = 20
	maxSetWeight   = 999999.99
	minRPE         = 1
	maxRPE         = 10
)

// CompositionService edits the Workout -> Session -> SessionExercise -> Set tree.
// Every method checks that the workout at the root belongs to trainerID.
type CompositionService interface {
	AddSession(ctx context.Context, trainerID, workoutID primitive.ObjectID, name *string) (*domain.WorkoutSession, error)
	UpdateSession(ctx context.Context, trainerID, sessionID primitive.ObjectID, name, notes *string) (*domain.WorkoutSession, error)
	DeleteSession(ctx context.Context, trainerID, sessionID primitive.ObjectID) error
	ReorderSessions(ctx context.Context, trainerID, workoutID primitive.ObjectID, items []ordering.Item) ([]domain.WorkoutSession, error)

	AddSessionExercise(ctx context.Context, trainerID, sessionID, exerciseID primitive.ObjectID, notes *string) (*domain.WorkoutSessionExercise, error)
	UpdateSessionExercise(ctx context.Context, trainerID, sessionExerciseID primitive.ObjectID, notes string) (*domain.WorkoutSessionExercise, error)
	DeleteSessionExercise(ctx context.Context, trainerID, sessionExerciseID primitive.ObjectID) error
	ReorderSessionExercises(ctx context.Context, trainerID, sessionID primitive.ObjectID, items []ordering.Item) ([]domain.WorkoutSessionExercise, error)

	AddSet(ctx context.Context, trainerID, sessionExerciseID primitive.ObjectID, targets domain.SetTargets) (*domain.WorkoutSessionExerciseSet, error)
	UpdateSet(ctx context.Context, trainerID, setID primitive.ObjectID, targets domain.SetTargets) (*domain.WorkoutSessionExerciseSet, error)
	DeleteSet(ctx context.Context, trainerID, setID primitive.ObjectID) error

	GetWorkoutTree(ctx context.Context, trainerID, workoutID primitive.ObjectID) (*domain.WorkoutTree, error)
}

type compositionService struct {
	tx               repository.Transactor
	workouts         repository.WorkoutRepository
	sessions         repository.SessionRepository
	sessionExercises repository.SessionExerciseRepository
	sets             repository.SetRepository
	exercises        repository.ExerciseRepository
}

// NewCompositionService creates a new instance of compositionService.
func NewCompositionService(
	tx repository.Transactor,
	workouts repository.WorkoutRepository,
	sessions repository.SessionRepository,
	sessionExercises repository.SessionExerciseRepository,
	sets repository.SetRepository,
	exercises repository.ExerciseRepository,
) CompositionService {
	return &compositionService{
		tx:               tx,
		workouts:         workouts,
		sessions:         sessions,
		sessionExercises: sessionExercises,
		sets:             sets,
		exercises:        exercises,
	}
}

// --- ownership walk ---

func (s *compositionService) ownedWorkout(ctx context.Context, trainerID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	w, err := s.workouts.GetByID(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	if w.TrainerID != trainerID {
		return nil, ErrOwnershipMismatch
	}
	return w, nil
}

func (s *compositionService) ownedSession(ctx context.Context, trainerID, sessionID primitive.ObjectID) (*domain.WorkoutSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedWorkout(ctx, trainerID, session.WorkoutID); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *compositionService) ownedSessionExercise(ctx context.Context, trainerID, id primitive.ObjectID) (*domain.WorkoutSessionExercise, error) {
	se, err := s.sessionExercises.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedSession(ctx, trainerID, se.WorkoutSessionID); err != nil {
		return nil, err
	}
	return se, nil
}

func (s *compositionService) ownedSet(ctx context.Context, trainerID, id primitive.ObjectID) (*domain.WorkoutSessionExerciseSet, error) {
	set, err := s.sets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedSessionExercise(ctx, trainerID, set.WorkoutSessionExerciseID); err != nil {
		return nil, err
	}
	return set, nil
}

// --- sessions ---

func cleanName(field string, name *string) (string, error) {
	if name == nil {
		return "", nil
	}
	n := strings.TrimSpace(*name)
	if n == "" {
		return "", invalid(field, "cannot be blank")
	}
	if utf8.RuneCountInString(n) > maxNameLength {
		return "", invalid(field, fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	return n, nil
}

// appendSession inserts a session at the next free order of the workout.
// Callers run it inside a transaction.
func appendSession(ctx context.Context, sessions repository.SessionRepository, workoutID primitive.ObjectID, name string) (*domain.WorkoutSession, error) {
	existing, err := sessions.ListByWorkout(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	orders := make([]int, 0, len(existing))
	for _, e := range existing {
		orders = append(orders, e.SessionOrder)
	}
	session := &domain.WorkoutSession{
		WorkoutID:    workoutID,
		SessionOrder: ordering.NextPosition(orders),
		Name:         name,
	}
	if session.Name == "" {
		session.Name = domain.DefaultSessionName(session.SessionOrder)
	}
	id, err := sessions.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ID = id
	return session, nil
}

// AddSession appends a session. Without a name it is called "Día {n}".
func (s *compositionService) AddSession(ctx context.Context, trainerID, workoutID primitive.ObjectID, name *string) (*domain.WorkoutSession, error) {
	n, err := cleanName("name", name)
	if err != nil {
		return nil, err
	}
	var created *domain.WorkoutSession
	err = withPositionRetry(ctx, s.tx, "workout_sessions", func(ctx context.Context) error {
		if _, err := s.ownedWorkout(ctx, trainerID, workoutID); err != nil {
			return err
		}
		created, err = appendSession(ctx, s.sessions, workoutID, n)
		return err
	})
	if err != nil {
		return nil, translate("add session", err)
	}
	return created, nil
}

func (s *compositionService) UpdateSession(ctx context.Context, trainerID, sessionID primitive.ObjectID, name, notes *string) (*domain.WorkoutSession, error) {
	n, err := cleanName("name", name)
	if err != nil {
		return nil, err
	}
	session, err := s.ownedSession(ctx, trainerID, sessionID)
	if err != nil {
		return nil, translate("load session", err)
	}
	if name != nil {
		session.Name = n
	}
	if notes != nil {
		session.Notes = strings.TrimSpace(*notes)
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, translate("update session", err)
	}
	return session, nil
}

// DeleteSession removes a session with its exercises and sets. The last
// session of a workout cannot be deleted. Remaining sessions keep their orders.
func (s *compositionService) DeleteSession(ctx context.Context, trainerID, sessionID primitive.ObjectID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session, err := s.ownedSession(ctx, trainerID, sessionID)
		if err != nil {
			return err
		}
		count, err := s.sessions.CountByWorkout(ctx, session.WorkoutID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return ErrLastSession
		}
		if err := s.deleteSessionChildren(ctx, []primitive.ObjectID{sessionID}); err != nil {
			return err
		}
		return s.sessions.Delete(ctx, sessionID)
	})
	return translate("delete session", err)
}

func (s *compositionService) deleteSessionChildren(ctx context.Context, sessionIDs []primitive.ObjectID) error {
	return cascadeSessions(ctx, s.sessionExercises, s.sets, sessionIDs)
}

// cascadeSessions deletes the exercises and sets under sessionIDs.
func cascadeSessions(ctx context.Context, ses repository.SessionExerciseRepository, sets repository.SetRepository, sessionIDs []primitive.ObjectID) error {
	children, err := ses.ListBySessions(ctx, sessionIDs)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		ids := make([]primitive.ObjectID, 0, len(children))
		for _, c := range children {
			ids = append(ids, c.ID)
		}
		if err := sets.DeleteBySessionExercises(ctx, ids); err != nil {
			return err
		}
	}
	return ses.DeleteBySessions(ctx, sessionIDs)
}

func reorderError(err error) error {
	return &ValidationError{Field: "items", Message: err.Error()}
}

// ReorderSessions applies {id, order} pairs as one batch and returns the
// sessions in their new order.
func (s *compositionService) ReorderSessions(ctx context.Context, trainerID, workoutID primitive.ObjectID, items []ordering.Item) ([]domain.WorkoutSession, error) {
	var result []domain.WorkoutSession
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.ownedWorkout(ctx, trainerID, workoutID); err != nil {
			return err
		}
		current, err := s.sessions.ListByWorkout(ctx, workoutID)
		if err != nil {
			return err
		}
		ids := make([]primitive.ObjectID, 0, len(current))
		for _, c := range current {
			ids = append(ids, c.ID)
		}
		if err := ordering.ValidateReorder(items, ids); err != nil {
			return reorderError(err)
		}
		if err := s.sessions.Reorder(ctx, workoutID, items); err != nil {
			return err
		}
		result, err = s.sessions.ListByWorkout(ctx, workoutID)
		return err
	})
	if err != nil {
		return nil, translate("reorder sessions", err)
	}
	return result, nil
}

// --- session exercises ---

func (s *compositionService) AddSessionExercise(ctx context.Context, trainerID, sessionID, exerciseID primitive.ObjectID, notes *string) (*domain.WorkoutSessionExercise, error) {
	var created *domain.WorkoutSessionExercise
	err := withPositionRetry(ctx, s.tx, "workout_session_exercises", func(ctx context.Context) error {
		if _, err := s.ownedSession(ctx, trainerID, sessionID); err != nil {
			return err
		}
		if _, err := s.exercises.GetByID(ctx, exerciseID); err != nil {
			return err
		}
		siblings, err := s.sessionExercises.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		positions := make([]int, 0, len(siblings))
		for _, sib := range siblings {
			positions = append(positions, sib.Position)
		}
		se := &domain.WorkoutSessionExercise{
			WorkoutSessionID: sessionID,
			ExerciseID:       exerciseID,
			Position:         ordering.NextPosition(positions),
		}
		if notes != nil {
			se.Notes = strings.TrimSpace(*notes)
		}
		id, err := s.sessionExercises.Create(ctx, se)
		if err != nil {
			return err
		}
		se.ID = id
		created = se
		return nil
	})
	if err != nil {
		return nil, translate("add session exercise", err)
	}
	return created, nil
}

func (s *compositionService) UpdateSessionExercise(ctx context.Context, trainerID, sessionExerciseID primitive.ObjectID, notes string) (*domain.WorkoutSessionExercise, error) {
	se, err := s.ownedSessionExercise(ctx, trainerID, sessionExerciseID)
	if err != nil {
		return nil, translate("load session exercise", err)
	}
	se.Notes = strings.TrimSpace(notes)
	if err := s.sessionExercises.UpdateNotes(ctx, se.ID, se.Notes); err != nil {
		return nil, translate("update session exercise", err)
	}
	return se, nil
}

// DeleteSessionExercise removes the exercise and its sets. Siblings keep their positions.
func (s *compositionService) DeleteSessionExercise(ctx context.Context, trainerID, sessionExerciseID primitive.ObjectID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.ownedSessionExercise(ctx, trainerID, sessionExerciseID); err != nil {
			return err
		}
		if err := s.sets.DeleteBySessionExercises(ctx, []primitive.ObjectID{sessionExerciseID}); err != nil {
			return err
		}
		return s.sessionExercises.Delete(ctx, sessionExerciseID)
	})
	return translate("delete session exercise", err)
}

func (s *compositionService) ReorderSessionExercises(ctx context.Context, trainerID, sessionID primitive.ObjectID, items []ordering.Item) ([]domain.WorkoutSessionExercise, error) {
	var result []domain.WorkoutSessionExercise
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.ownedSession(ctx, trainerID, sessionID); err != nil {
			return err
		}
		current, err := s.sessionExercises.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		ids := make([]primitive.ObjectID, 0, len(current))
		for _, c := range current {
			ids = append(ids, c.ID)
		}
		if err := ordering.ValidateReorder(items, ids); err != nil {
			return reorderError(err)
		}
		if err := s.sessionExercises.Reorder(ctx, sessionID, items); err != nil {
			return err
		}
		result, err = s.sessionExercises.ListBySession(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, translate("reorder session exercises", err)
	}
	return result, nil
}

// --- sets ---

// ValidateSetTargets enforces the ranges of the planned set columns.
func ValidateSetTargets(t domain.SetTargets) error {
	if t.TargetReps != nil && *t.TargetReps < 0 {
		return invalid("targetReps", "must be zero or more")
	}
	if t.TargetWeight != nil {
		w := *t.TargetWeight
		if w < 0 || w > maxSetWeight || math.IsNaN(w) {
			return invalid("targetWeight", fmt.Sprintf("must be between 0 and %.2f", maxSetWeight))
		}
		if !hasAtMostDecimals(w, 2) {
			return invalid("targetWeight", "allows at most 2 decimals")
		}
	}
	if t.TargetRPE != nil {
		r := *t.TargetRPE
		if r < minRPE || r > maxRPE || math.IsNaN(r) {
			return invalid("targetRpe", "must be between 1 and 10")
		}
		if !hasAtMostDecimals(r, 1) {
			return invalid("targetRpe", "allows at most 1 decimal")
		}
	}
	if t.RestSeconds != nil && *t.RestSeconds < 0 {
		return invalid("restSeconds", "must be zero or more")
	}
	if t.Tempo != nil && utf8.RuneCountInString(*t.Tempo) > maxTempoLength {
		return invalid("tempo", fmt.Sprintf("must be at most %d characters", maxTempoLength))
	}
	return nil
}

func hasAtMostDecimals(v float64, places int) bool {
	scale := math.Pow(10, float64(places))
	return math.Abs(v*scale-math.Round(v*scale)) < 1e-6
}

// AddSet appends a set at setOrder N+1.
func (s *compositionService) AddSet(ctx context.Context, trainerID, sessionExerciseID primitive.ObjectID, targets domain.SetTargets) (*domain.WorkoutSessionExerciseSet, error) {
	if err := ValidateSetTargets(targets); err != nil {
		return nil, err
	}
	var created *domain.WorkoutSessionExerciseSet
	err := withPositionRetry(ctx, s.tx, "workout_session_exercise_sets", func(ctx context.Context) error {
		if _, err := s.ownedSessionExercise(ctx, trainerID, sessionExerciseID); err != nil {
			return err
		}
		siblings, err := s.sets.ListBySessionExercise(ctx, sessionExerciseID)
		if err != nil {
			return err
		}
		orders := make([]int, 0, len(siblings))
		for _, sib := range siblings {
			orders = append(orders, sib.SetOrder)
		}
		set := &domain.WorkoutSessionExerciseSet{
			WorkoutSessionExerciseID: sessionExerciseID,
			SetOrder:                 ordering.NextPosition(orders),
			SetTargets:               targets,
		}
		id, err := s.sets.Create(ctx, set)
		if err != nil {
			return err
		}
		set.ID = id
		created = set
		return nil
	})
	if err != nil {
		return nil, translate("add set", err)
	}
	return created, nil
}

// UpdateSet replaces the targets of a set. Its order is unchanged.
func (s *compositionService) UpdateSet(ctx context.Context, trainerID, setID primitive.ObjectID, targets domain.SetTargets) (*domain.WorkoutSessionExerciseSet, error) {
	if err := ValidateSetTargets(targets); err != nil {
		return nil, err
	}
	set, err := s.ownedSet(ctx, trainerID, setID)
	if err != nil {
		return nil, translate("load set", err)
	}
	if err := s.sets.UpdateTargets(ctx, setID, targets); err != nil {
		return nil, translate("update set", err)
	}
	set.SetTargets = targets
	return set, nil
}

// DeleteSet removes a set and shifts the later sets down so orders stay 1..N.
func (s *compositionService) DeleteSet(ctx context.Context, trainerID, setID primitive.ObjectID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		set, err := s.ownedSet(ctx, trainerID, setID)
		if err != nil {
			return err
		}
		if err := s.sets.Delete(ctx, setID); err != nil {
			return err
		}
		return s.sets.CloseGap(ctx, set.WorkoutSessionExerciseID, set.SetOrder)
	})
	return translate("delete set", err)
}

// --- read model ---

// GetWorkoutTree loads the workout with every level sorted by its order column.
func (s *compositionService) GetWorkoutTree(ctx context.Context, trainerID, workoutID primitive.ObjectID) (*domain.WorkoutTree, error) {
	w, err := s.ownedWorkout(ctx, trainerID, workoutID)
	if err != nil {
		return nil, translate("load workout", err)
	}
	return buildTree(ctx, *w, s.sessions, s.sessionExercises, s.sets)
}

func buildTree(
	ctx context.Context,
	w domain.Workout,
	sessions repository.SessionRepository,
	sessionExercises repository.SessionExerciseRepository,
	sets repository.SetRepository,
) (*domain.WorkoutTree, error) {
	ss, err := sessions.ListByWorkout(ctx, w.ID)
	if err != nil {
		return nil, translate("list sessions", err)
	}
	sessionIDs := make([]primitive.ObjectID, 0, len(ss))
	for _, session := range ss {
		sessionIDs = append(sessionIDs, session.ID)
	}
	ses, err := sessionExercises.ListBySessions(ctx, sessionIDs)
	if err != nil {
		return nil, translate("list session exercises", err)
	}
	seIDs := make([]primitive.ObjectID, 0, len(ses))
	for _, se := range ses {
		seIDs = append(seIDs, se.ID)
	}
	allSets, err := sets.ListBySessionExercises(ctx, seIDs)
	if err != nil {
		return nil, translate("list sets", err)
	}

	// List calls return each parent's children already sorted, so grouping
	// in input order keeps that order.
	setsBySE := make(map[primitive.ObjectID][]domain.WorkoutSessionExerciseSet)
	for _, set := range allSets {
		setsBySE[set.WorkoutSessionExerciseID] = append(setsBySE[set.WorkoutSessionExerciseID], set)
	}
	exBySession := make(map[primitive.ObjectID][]domain.ExerciseNode)
	for _, se := range ses {
		sets := setsBySE[se.ID]
		if sets == nil {
			sets = []domain.WorkoutSessionExerciseSet{}
		}
		exBySession[se.WorkoutSessionID] = append(exBySession[se.WorkoutSessionID], domain.ExerciseNode{SessionExercise: se, Sets: sets})
	}

	tree := &domain.WorkoutTree{Workout: w, Sessions: make([]domain.SessionNode, 0, len(ss))}
	for _, session := range ss {
		exercises := exBySession[session.ID]
		if exercises == nil {
			exercises = []domain.ExerciseNode{}
		}
		tree.Sessions = append(tree.Sessions, domain.SessionNode{Session: session, Exercises: exercises})
	}
	return tree, nil
}
