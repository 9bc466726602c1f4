package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutStatus is the lifecycle state of a workout routine.
type WorkoutStatus string

const (
	WorkoutDraft    WorkoutStatus = "draft"
	WorkoutActive   WorkoutStatus = "active"
	WorkoutArchived WorkoutStatus = "archived"
)

// IsValid reports whether s is one of the known states.
func (s WorkoutStatus) IsValid() bool {
	switch s {
	case WorkoutDraft, WorkoutActive, WorkoutArchived:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is an allowed
// transition. Staying in the same state is always allowed and is a no-op.
//
//	draft    -> active | archived
//	active   -> archived
//	archived -> draft
func (s WorkoutStatus) CanTransitionTo(next WorkoutStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case WorkoutDraft:
		return next == WorkoutActive || next == WorkoutArchived
	case WorkoutActive:
		return next == WorkoutArchived
	case WorkoutArchived:
		return next == WorkoutDraft
	}
	return false
}

// Workout is a named routine authored by one trainer for one client.
// At most one workout per (ClientID, TrainerID) is active at a time.
type Workout struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	TrainerID primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	Status    WorkoutStatus      `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// BelongsTo reports whether the workout was written by trainerID for clientID.
func (w *Workout) BelongsTo(trainerID, clientID primitive.ObjectID) bool {
	return w.TrainerID == trainerID && w.ClientID == clientID
}
