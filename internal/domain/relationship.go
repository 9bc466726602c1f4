package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RelationshipStatus is the lifecycle state of a coaching relationship.
type RelationshipStatus string

const (
	RelationshipPending RelationshipStatus = "pending"
	RelationshipActive  RelationshipStatus = "active"
	// RelationshipInactive is a valid stored state that no operation produces yet.
	RelationshipInactive RelationshipStatus = "inactive"
)

// IsValid reports whether s is one of the known states.
func (s RelationshipStatus) IsValid() bool {
	switch s {
	case RelationshipPending, RelationshipActive, RelationshipInactive:
		return true
	}
	return false
}

// MinInvitationTokenLength is the lower bound on invitation token length.
const MinInvitationTokenLength = 60

// TrainerClientRelationship links one trainer to one client.
// There is at most one row per (TrainerID, ClientID).
type TrainerClientRelationship struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	Status    RelationshipStatus `bson:"status" json:"status"`

	// Present only while Status is pending. Accepting unsets it, rejecting
	// deletes the whole row, so a consumed token never resolves again.
	InvitationToken *string `bson:"invitationToken,omitempty" json:"-"`

	InvitedAt  time.Time  `bson:"invitedAt" json:"invitedAt"`
	AcceptedAt *time.Time `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
}

// IsPending reports whether the invitation is still waiting for an answer.
func (r *TrainerClientRelationship) IsPending() bool {
	return r.Status == RelationshipPending
}

// ClientListing is a relationship joined with the client's user record.
type ClientListing struct {
	Relationship TrainerClientRelationship
	Client       User
}
