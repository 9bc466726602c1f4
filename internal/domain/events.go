package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType names a domain event published after a successful write.
type EventType string

const (
	EventInvitationCreated  EventType = "invitation.created"
	EventInvitationAccepted EventType = "invitation.accepted"
	EventInvitationRejected EventType = "invitation.rejected"
	EventClientRemoved      EventType = "client.removed"
	EventWorkoutCreated     EventType = "workout.created"
	EventWorkoutActivated   EventType = "workout.activated"
	EventWorkoutArchived    EventType = "workout.archived"
	EventWorkoutUnarchived  EventType = "workout.unarchived"
	EventWorkoutDeleted     EventType = "workout.deleted"
)

// Event is the envelope handed to the event publisher. Key groups events of
// the same coaching relationship onto one partition.
type Event struct {
	ID          string               `json:"id"`
	Type        EventType            `json:"type"`
	OccurredAt  time.Time            `json:"occurredAt"`
	TrainerID   primitive.ObjectID   `json:"trainerId"`
	ClientID    primitive.ObjectID   `json:"clientId"`
	WorkoutID   *primitive.ObjectID  `json:"workoutId,omitempty"`
	ArchivedIDs []primitive.ObjectID `json:"archivedIds,omitempty"` // archived as a side effect of an activation
}

// Key returns the partition key of the event.
func (e Event) Key() string {
	return e.TrainerID.Hex() + ":" + e.ClientID.Hex()
}
