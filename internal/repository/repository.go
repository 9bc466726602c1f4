package repository

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ordering"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("conflict: unique constraint violated")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Transactor runs fn as one atomic unit. Repository calls made with the ctx
// passed to fn take part in the transaction; calls made with any other ctx do not.
// Implementations may run fn more than once on transient failures, so fn must
// not have side effects outside the store.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	// Create returns ErrConflict when the email is taken.
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	GetByPasswordSetupTokenHash(ctx context.Context, tokenHash string) (*domain.User, error)
	// SetPassword stores the hash and clears any pending setup token.
	SetPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	// UpdateProfile writes only the fields set in update and returns the user.
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update domain.ProfileUpdate) (*domain.User, error)
}

// RelationshipRepository stores trainer/client coaching relationships.
type RelationshipRepository interface {
	// Create returns ErrConflict when the pair (or the token) already exists.
	Create(ctx context.Context, rel *domain.TrainerClientRelationship) (primitive.ObjectID, error)
	Get(ctx context.Context, trainerID, clientID primitive.ObjectID) (*domain.TrainerClientRelationship, error)
	ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TrainerClientRelationship, error)
	// AcceptByToken flips a pending row to active, stamps acceptedAt and
	// removes the token in a single write. ErrNotFound if no pending row has the token.
	AcceptByToken(ctx context.Context, token string, acceptedAt time.Time) (*domain.TrainerClientRelationship, error)
	// DeleteByToken removes the pending row holding token and returns it.
	DeleteByToken(ctx context.Context, token string) (*domain.TrainerClientRelationship, error)
	// Delete removes the pair's row whatever its status.
	Delete(ctx context.Context, trainerID, clientID primitive.ObjectID) error
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	// GetActive returns the active workout of the pair or ErrNotFound.
	GetActive(ctx context.Context, clientID, trainerID primitive.ObjectID) (*domain.Workout, error)
	// ListByClientAndTrainer sorts the active workout first, then newest first.
	ListByClientAndTrainer(ctx context.Context, clientID, trainerID primitive.ObjectID) ([]domain.Workout, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status domain.WorkoutStatus) error
	// ArchiveOtherActive archives every active workout of the pair except
	// excludeID and returns the ids it touched.
	ArchiveOtherActive(ctx context.Context, clientID, trainerID, excludeID primitive.ObjectID) ([]primitive.ObjectID, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// SessionRepository stores the ordered sessions of a workout.
type SessionRepository interface {
	// Create returns ErrConflict when sessionOrder is already used in the workout.
	Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error)
	ListByWorkout(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutSession, error)
	CountByWorkout(ctx context.Context, workoutID primitive.ObjectID) (int64, error)
	Update(ctx context.Context, session *domain.WorkoutSession) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByWorkout(ctx context.Context, workoutID primitive.ObjectID) error
	// Reorder applies every item as one batch. Collisions with siblings that
	// are not in items surface as ErrConflict.
	Reorder(ctx context.Context, workoutID primitive.ObjectID, items []ordering.Item) error
}

// SessionExerciseRepository stores the ordered exercises of a session.
type SessionExerciseRepository interface {
	Create(ctx context.Context, se *domain.WorkoutSessionExercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSessionExercise, error)
	ListBySession(ctx context.Context, sessionID primitive.ObjectID) ([]domain.WorkoutSessionExercise, error)
	ListBySessions(ctx context.Context, sessionIDs []primitive.ObjectID) ([]domain.WorkoutSessionExercise, error)
	CountByExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error)
	UpdateNotes(ctx context.Context, id primitive.ObjectID, notes string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteBySessions(ctx context.Context, sessionIDs []primitive.ObjectID) error
	Reorder(ctx context.Context, sessionID primitive.ObjectID, items []ordering.Item) error
}

// SetRepository stores the target sets of a session exercise.
type SetRepository interface {
	Create(ctx context.Context, set *domain.WorkoutSessionExerciseSet) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSessionExerciseSet, error)
	ListBySessionExercise(ctx context.Context, sessionExerciseID primitive.ObjectID) ([]domain.WorkoutSessionExerciseSet, error)
	ListBySessionExercises(ctx context.Context, sessionExerciseIDs []primitive.ObjectID) ([]domain.WorkoutSessionExerciseSet, error)
	UpdateTargets(ctx context.Context, id primitive.ObjectID, targets domain.SetTargets) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// CloseGap decrements setOrder of every sibling above removedOrder.
	CloseGap(ctx context.Context, sessionExerciseID primitive.ObjectID, removedOrder int) error
	DeleteBySessionExercises(ctx context.Context, sessionExerciseIDs []primitive.ObjectID) error
}

// ExerciseRepository defines the interface for interacting with the exercise catalog.
type ExerciseRepository interface {
	// Create returns ErrConflict when the slug is taken.
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Exercise, error)
	List(ctx context.Context, limit, offset int64) ([]domain.Exercise, error)
	// Search matches names of locale containing every word of normalizedQuery.
	Search(ctx context.Context, normalizedQuery, locale string, limit int64) ([]domain.Exercise, error)
	AddName(ctx context.Context, id primitive.ObjectID, name domain.ExerciseName) error
	AddMedia(ctx context.Context, id primitive.ObjectID, media domain.ExerciseMedia) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
