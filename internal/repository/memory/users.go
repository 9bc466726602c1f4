package memory

import (
	"context"
	"errors"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email and role are required")
	}
	defer r.s.lock(ctx)()

	for _, u := range r.s.data.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	r.s.data.users[user.ID] = *user
	return user.ID, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(ctx, func(u domain.User) bool { return u.Email == email })
}

func (r *userRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	defer r.s.rlock(ctx)()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	defer r.s.rlock(ctx)()
	out := []domain.User{}
	for _, id := range ids {
		if u, ok := r.s.data.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *userRepo) GetByPasswordSetupTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	if tokenHash == "" {
		return nil, repository.ErrNotFound
	}
	return r.find(ctx, func(u domain.User) bool { return u.PasswordSetupTokenHash == tokenHash })
}

func (r *userRepo) SetPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	defer r.s.lock(ctx)()
	u, ok := r.s.data.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordSetupTokenHash = ""
	u.UpdatedAt = r.s.now()
	r.s.data.users[id] = u
	return nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, update domain.ProfileUpdate) (*domain.User, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Profile = update.Apply(u.Profile)
	u.UpdatedAt = r.s.now()
	r.s.data.users[id] = u
	return &u, nil
}

func (r *userRepo) find(ctx context.Context, match func(domain.User) bool) (*domain.User, error) {
	defer r.s.rlock(ctx)()
	for _, u := range r.s.data.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}
