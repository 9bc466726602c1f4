package memory

import (
	"context"
	"errors"
	"slices"
	"sort"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type exerciseRepo struct{ s *Store }

func (r *exerciseRepo) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || exercise.Slug == "" {
		return primitive.NilObjectID, errors.New("exercise name and slug are required")
	}
	defer r.s.lock(ctx)()
	for _, other := range r.s.data.exercises {
		if other.Slug == exercise.Slug {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	exercise.ID = primitive.NewObjectID()
	exercise.CreatedAt = r.s.now()
	exercise.UpdatedAt = exercise.CreatedAt
	stored := *exercise
	stored.Names = slices.Clone(exercise.Names)
	stored.Media = slices.Clone(exercise.Media)
	r.s.data.exercises[exercise.ID] = stored
	return exercise.ID, nil
}

func (r *exerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	defer r.s.rlock(ctx)()
	e, ok := r.s.data.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *exerciseRepo) GetBySlug(ctx context.Context, slug string) (*domain.Exercise, error) {
	defer r.s.rlock(ctx)()
	for _, e := range r.s.data.exercises {
		if e.Slug == slug {
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *exerciseRepo) List(ctx context.Context, limit, offset int64) ([]domain.Exercise, error) {
	all := r.sorted(ctx, func(domain.Exercise) bool { return true })
	return page(all, limit, offset), nil
}

func (r *exerciseRepo) Search(ctx context.Context, normalizedQuery, locale string, limit int64) ([]domain.Exercise, error) {
	hits := r.sorted(ctx, func(e domain.Exercise) bool { return e.MatchesSearch(normalizedQuery, locale) })
	return page(hits, limit, 0), nil
}

func (r *exerciseRepo) AddName(ctx context.Context, id primitive.ObjectID, name domain.ExerciseName) error {
	return r.update(ctx, id, func(e *domain.Exercise) {
		names := slices.Clone(e.Names)
		if name.IsPrimary {
			for i := range names {
				if names[i].Locale == name.Locale {
					names[i].IsPrimary = false
				}
			}
		}
		e.Names = append(names, name)
	})
}

func (r *exerciseRepo) AddMedia(ctx context.Context, id primitive.ObjectID, media domain.ExerciseMedia) error {
	return r.update(ctx, id, func(e *domain.Exercise) {
		e.Media = append(slices.Clone(e.Media), media)
	})
}

func (r *exerciseRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.exercises[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.exercises, id)
	return nil
}

func (r *exerciseRepo) update(ctx context.Context, id primitive.ObjectID, mutate func(*domain.Exercise)) error {
	defer r.s.lock(ctx)()
	e, ok := r.s.data.exercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	mutate(&e)
	e.UpdatedAt = r.s.now()
	r.s.data.exercises[id] = e
	return nil
}

func (r *exerciseRepo) sorted(ctx context.Context, keep func(domain.Exercise) bool) []domain.Exercise {
	defer r.s.rlock(ctx)()
	out := []domain.Exercise{}
	for _, e := range r.s.data.exercises {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func page(all []domain.Exercise, limit, offset int64) []domain.Exercise {
	if offset >= int64(len(all)) {
		return []domain.Exercise{}
	}
	all = all[offset:]
	if limit > 0 && limit < int64(len(all)) {
		all = all[:limit]
	}
	return all
}
