package domain

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultSessionName is the name given to a session added without one.
func DefaultSessionName(order int) string {
	return fmt.Sprintf("Día %d", order)
}

// WorkoutSession is one day of a workout. SessionOrder is unique within the
// workout and may have gaps after deletions.
type WorkoutSession struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutID    primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	SessionOrder int                `bson:"sessionOrder" json:"sessionOrder"`
	Name         string             `bson:"name" json:"name"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// WorkoutSessionExercise places a catalog exercise inside a session.
// Position is unique within the session and may have gaps after deletions.
type WorkoutSessionExercise struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutSessionID primitive.ObjectID `bson:"workoutSessionId" json:"workoutSessionId"`
	ExerciseID       primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Position         int                `bson:"position" json:"position"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// SetTargets are the planned values of a set. Every field is optional.
type SetTargets struct {
	TargetReps   *int     `bson:"targetReps,omitempty" json:"targetReps,omitempty"`
	TargetWeight *float64 `bson:"targetWeight,omitempty" json:"targetWeight,omitempty"` // kg, two decimals
	TargetRPE    *float64 `bson:"targetRpe,omitempty" json:"targetRpe,omitempty"`       // 1..10, one decimal
	RestSeconds  *int     `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
	Tempo        *string  `bson:"tempo,omitempty" json:"tempo,omitempty"` // e.g. "3-1-1-0"
}

// WorkoutSessionExerciseSet is a planned (not logged) set. SetOrder is
// always contiguous from 1 within its session exercise.
type WorkoutSessionExerciseSet struct {
	ID                       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutSessionExerciseID primitive.ObjectID `bson:"workoutSessionExerciseId" json:"workoutSessionExerciseId"`
	SetOrder                 int                `bson:"setOrder" json:"setOrder"`
	SetTargets               `bson:",inline"`
}

// --- Read model ---

// WorkoutTree is a workout with all of its descendants, each level sorted by
// its order column.
type WorkoutTree struct {
	Workout  Workout       `json:"workout"`
	Sessions []SessionNode `json:"sessions"`
}

type SessionNode struct {
	Session   WorkoutSession `json:"session"`
	Exercises []ExerciseNode `json:"exercises"`
}

type ExerciseNode struct {
	SessionExercise WorkoutSessionExercise      `json:"sessionExercise"`
	Sets            []WorkoutSessionExerciseSet `json:"sets"`
}
