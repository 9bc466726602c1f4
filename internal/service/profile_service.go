package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// earliestBirthdate rejects typos like year 190.
var earliestBirthdate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// ProfileService reads and edits the personal details of a user. A user may
// edit their own profile; a trainer may edit the profile of any of their
// clients, whatever the relationship status.
type ProfileService interface {
	GetProfile(ctx context.Context, actorID, userID primitive.ObjectID) (*domain.User, error)
	UpdateName(ctx context.Context, actorID, userID primitive.ObjectID, firstName, lastName *string) (*domain.User, error)
	UpdateGender(ctx context.Context, actorID, userID primitive.ObjectID, gender domain.Gender) (*domain.User, error)
	UpdateBirthdate(ctx context.Context, actorID, userID primitive.ObjectID, birthdate time.Time) (*domain.User, error)
}

type profileService struct {
	users repository.UserRepository
	rels  repository.RelationshipRepository
	now   func() time.Time
}

func NewProfileService(users repository.UserRepository, rels repository.RelationshipRepository) ProfileService {
	return &profileService{
		users: users,
		rels:  rels,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *profileService) authorize(ctx context.Context, actorID, userID primitive.ObjectID) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	if actorID == userID {
		return nil
	}
	_, err := s.rels.Get(ctx, actorID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrOwnershipMismatch
	}
	return err
}

func (s *profileService) GetProfile(ctx context.Context, actorID, userID primitive.ObjectID) (*domain.User, error) {
	if err := s.authorize(ctx, actorID, userID); err != nil {
		return nil, translate("get profile", err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, translate("get profile", err)
	}
	return user, nil
}

func (s *profileService) update(ctx context.Context, op string, actorID, userID primitive.ObjectID, update domain.ProfileUpdate) (*domain.User, error) {
	if err := s.authorize(ctx, actorID, userID); err != nil {
		return nil, translate(op, err)
	}
	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, translate(op, err)
	}
	return user, nil
}

func profileName(field string, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	n := strings.TrimSpace(*v)
	if utf8.RuneCountInString(n) > maxNameLength {
		return nil, invalid(field, fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	return &n, nil
}

// UpdateName sets the non-nil names. An empty string clears a name.
func (s *profileService) UpdateName(ctx context.Context, actorID, userID primitive.ObjectID, firstName, lastName *string) (*domain.User, error) {
	if firstName == nil && lastName == nil {
		return nil, invalid("firstName", "firstName or lastName is required")
	}
	first, err := profileName("firstName", firstName)
	if err != nil {
		return nil, err
	}
	last, err := profileName("lastName", lastName)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, "update name", actorID, userID, domain.ProfileUpdate{FirstName: first, LastName: last})
}

func (s *profileService) UpdateGender(ctx context.Context, actorID, userID primitive.ObjectID, gender domain.Gender) (*domain.User, error) {
	if !gender.IsValid() {
		return nil, invalid("gender", "must be male, female or other")
	}
	return s.update(ctx, "update gender", actorID, userID, domain.ProfileUpdate{Gender: &gender})
}

// UpdateBirthdate stores the calendar date of birthdate. It must be before today.
func (s *profileService) UpdateBirthdate(ctx context.Context, actorID, userID primitive.ObjectID, birthdate time.Time) (*domain.User, error) {
	y, m, d := birthdate.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ty, tm, td := s.now().Date()
	today := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	if !date.Before(today) {
		return nil, invalid("dateOfBirth", "must be before today")
	}
	if date.Before(earliestBirthdate) {
		return nil, invalid("dateOfBirth", "is too far in the past")
	}
	return s.update(ctx, "update birthdate", actorID, userID, domain.ProfileUpdate{DateOfBirth: &date})
}
