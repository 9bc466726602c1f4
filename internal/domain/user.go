package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleTrainer Role = "trainer"
	RoleClient  Role = "client"
)

// User represents a user in the system (either a Trainer or a Client).
// Coaching links live in TrainerClientRelationship, not on the user document.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"` // unique index
	PasswordHash string             `bson:"passwordHash,omitempty" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Set for clients provisioned through an invitation. Holds the SHA-256 of
	// the token mailed to them; cleared once they choose a password.
	PasswordSetupTokenHash string `bson:"passwordSetupTokenHash,omitempty" json:"-"`

	Profile Profile `bson:"profile" json:"profile"`
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Profile holds the personal details a trainer keeps about a client.
// DateOfBirth is a calendar date stored at midnight UTC.
type Profile struct {
	FirstName   string     `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName    string     `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Gender      Gender     `bson:"gender,omitempty" json:"gender,omitempty"`
	DateOfBirth *time.Time `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
}

// ProfileUpdate sets the non-nil fields of a profile and leaves the rest.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Gender      *Gender
	DateOfBirth *time.Time
}

// Apply returns p with the update's fields set.
func (u ProfileUpdate) Apply(p Profile) Profile {
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.DateOfBirth != nil {
		dob := *u.DateOfBirth
		p.DateOfBirth = &dob
	}
	return p
}

func (u *User) IsTrainer() bool {
	return u.Role == RoleTrainer
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// HasPassword reports whether the user can log in yet.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// UserSummary is the minimal view shown to a trainer when an invited email
// already belongs to an account.
type UserSummary struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Summary returns the user's display summary, falling back to the email when
// no name is stored.
func (u *User) Summary() UserSummary {
	name := u.Name
	if name == "" {
		name = u.Email
	}
	return UserSummary{Email: u.Email, Name: name}
}
