// Package memory implements the repository interfaces in process memory.
// It backs the service tests and the server's "memory" database driver for
// local development. Unique constraints mirror the MongoDB indexes.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type tables struct {
	users            map[primitive.ObjectID]domain.User
	relationships    map[primitive.ObjectID]domain.TrainerClientRelationship
	workouts         map[primitive.ObjectID]domain.Workout
	sessions         map[primitive.ObjectID]domain.WorkoutSession
	sessionExercises map[primitive.ObjectID]domain.WorkoutSessionExercise
	sets             map[primitive.ObjectID]domain.WorkoutSessionExerciseSet
	exercises        map[primitive.ObjectID]domain.Exercise
}

func newTables() tables {
	return tables{
		users:            make(map[primitive.ObjectID]domain.User),
		relationships:    make(map[primitive.ObjectID]domain.TrainerClientRelationship),
		workouts:         make(map[primitive.ObjectID]domain.Workout),
		sessions:         make(map[primitive.ObjectID]domain.WorkoutSession),
		sessionExercises: make(map[primitive.ObjectID]domain.WorkoutSessionExercise),
		sets:             make(map[primitive.ObjectID]domain.WorkoutSessionExerciseSet),
		exercises:        make(map[primitive.ObjectID]domain.Exercise),
	}
}

// clone copies every table. Stored values are never mutated in place (slices
// inside exercises are copied on write), so copying the maps is enough.
func (t tables) clone() tables {
	return tables{
		users:            maps.Clone(t.users),
		relationships:    maps.Clone(t.relationships),
		workouts:         maps.Clone(t.workouts),
		sessions:         maps.Clone(t.sessions),
		sessionExercises: maps.Clone(t.sessionExercises),
		sets:             maps.Clone(t.sets),
		exercises:        maps.Clone(t.exercises),
	}
}

// Store holds every collection and implements repository.Transactor.
//
// A transaction holds mu for writing until it commits or rolls back, so calls
// made outside it wait and never see, or get rolled back with, its writes.
// Repository calls made with the transaction's context run under that lock.
type Store struct {
	mu   sync.RWMutex
	data tables
	last time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: newTables()}
}

var _ repository.Transactor = (*Store)(nil)

type txKey struct{}

func (s *Store) inTransaction(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// WithinTransaction runs fn under the store lock and restores the
// pre-transaction tables if fn fails. A nested call joins the outer
// transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTransaction(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// lock takes the store for writing unless ctx belongs to the running
// transaction, which already holds it.
func (s *Store) lock(ctx context.Context) (unlock func()) {
	if s.inTransaction(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock(ctx context.Context) (unlock func()) {
	if s.inTransaction(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

// now returns a strictly increasing UTC timestamp so "newest first" orderings
// are deterministic. Callers hold the write lock.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

func (s *Store) Relationships() repository.RelationshipRepository { return &relationshipRepo{s} }

func (s *Store) Workouts() repository.WorkoutRepository { return &workoutRepo{s} }

func (s *Store) Sessions() repository.SessionRepository { return &sessionRepo{s} }

func (s *Store) SessionExercises() repository.SessionExerciseRepository {
	return &sessionExerciseRepo{s}
}

func (s *Store) Sets() repository.SetRepository { return &setRepo{s} }

func (s *Store) Exercises() repository.ExerciseRepository { return &exerciseRepo{s} }
