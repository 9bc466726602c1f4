package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type relationshipRepo struct{ s *Store }

func (r *relationshipRepo) Create(ctx context.Context, rel *domain.TrainerClientRelationship) (primitive.ObjectID, error) {
	if rel.TrainerID == primitive.NilObjectID || rel.ClientID == primitive.NilObjectID || !rel.Status.IsValid() {
		return primitive.NilObjectID, errors.New("relationship requires trainerId, clientId and a valid status")
	}
	defer r.s.lock(ctx)()

	for _, existing := range r.s.data.relationships {
		if existing.TrainerID == rel.TrainerID && existing.ClientID == rel.ClientID {
			return primitive.NilObjectID, repository.ErrConflict
		}
		if rel.InvitationToken != nil && existing.InvitationToken != nil && *existing.InvitationToken == *rel.InvitationToken {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	rel.ID = primitive.NewObjectID()
	r.s.data.relationships[rel.ID] = *rel
	return rel.ID, nil
}

func (r *relationshipRepo) Get(ctx context.Context, trainerID, clientID primitive.ObjectID) (*domain.TrainerClientRelationship, error) {
	defer r.s.rlock(ctx)()
	for _, rel := range r.s.data.relationships {
		if rel.TrainerID == trainerID && rel.ClientID == clientID {
			return &rel, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *relationshipRepo) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TrainerClientRelationship, error) {
	defer r.s.rlock(ctx)()
	out := []domain.TrainerClientRelationship{}
	for _, rel := range r.s.data.relationships {
		if rel.TrainerID == trainerID {
			out = append(out, rel)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvitedAt.After(out[j].InvitedAt) })
	return out, nil
}

func (r *relationshipRepo) AcceptByToken(ctx context.Context, token string, acceptedAt time.Time) (*domain.TrainerClientRelationship, error) {
	defer r.s.lock(ctx)()
	id, ok := r.pendingByToken(token)
	if !ok {
		return nil, repository.ErrNotFound
	}
	rel := r.s.data.relationships[id]
	rel.Status = domain.RelationshipActive
	rel.AcceptedAt = &acceptedAt
	rel.InvitationToken = nil
	r.s.data.relationships[id] = rel
	return &rel, nil
}

func (r *relationshipRepo) DeleteByToken(ctx context.Context, token string) (*domain.TrainerClientRelationship, error) {
	defer r.s.lock(ctx)()
	id, ok := r.pendingByToken(token)
	if !ok {
		return nil, repository.ErrNotFound
	}
	rel := r.s.data.relationships[id]
	delete(r.s.data.relationships, id)
	return &rel, nil
}

func (r *relationshipRepo) Delete(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	for id, rel := range r.s.data.relationships {
		if rel.TrainerID == trainerID && rel.ClientID == clientID {
			delete(r.s.data.relationships, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

// pendingByToken requires r.s.mu held.
func (r *relationshipRepo) pendingByToken(token string) (primitive.ObjectID, bool) {
	for id, rel := range r.s.data.relationships {
		if rel.Status == domain.RelationshipPending && rel.InvitationToken != nil && *rel.InvitationToken == token {
			return id, true
		}
	}
	return primitive.NilObjectID, false
}
