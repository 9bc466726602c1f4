package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"alcyxob/coach-app/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	mediaURLExpiry  = 30 * time.Minute
)

// ErrExerciseInUse is returned when a workout still references the exercise.
var ErrExerciseInUse = fmt.Errorf("%w: exercise is used by a workout", ErrConflict)

// CreateExerciseInput carries a new catalog entry. Name becomes the primary
// name in domain.DefaultLocale; Slug is derived from it when empty.
type CreateExerciseInput struct {
	Name         string
	Slug         string
	Description  string
	Names        []domain.ExerciseName
	Categories   []domain.ExerciseCategory
	Muscles      []domain.ExerciseMuscle
	Equipment    []string
	Tags         []string
	Media        []domain.ExerciseMedia
	Instructions []domain.ExerciseInstruction
}

// MediaUpload is a registered media entry and the URL to PUT its bytes to.
type MediaUpload struct {
	Media     domain.ExerciseMedia
	UploadURL string
	ExpiresAt time.Time
}

// ResolvedMedia is a media entry with a URL a browser can open.
type ResolvedMedia struct {
	domain.ExerciseMedia
	ResolvedURL string `json:"resolvedUrl"`
}

// CatalogService manages the shared exercise catalog.
type CatalogService interface {
	CreateExercise(ctx context.Context, in CreateExerciseInput) (*domain.Exercise, error)
	GetExercise(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	ListExercises(ctx context.Context, limit, offset int64) ([]domain.Exercise, error)
	SearchExercises(ctx context.Context, query, locale string, limit int64) ([]domain.Exercise, error)
	AddName(ctx context.Context, id primitive.ObjectID, name, locale string, primary bool) (*domain.Exercise, error)
	MediaUploadURL(ctx context.Context, id primitive.ObjectID, mediaType, fileName, contentType string) (*MediaUpload, error)
	MediaURLs(ctx context.Context, id primitive.ObjectID) ([]ResolvedMedia, error)
	DeleteExercise(ctx context.Context, id primitive.ObjectID) error
}

type catalogService struct {
	exercises        repository.ExerciseRepository
	sessionExercises repository.SessionExerciseRepository
	files            storage.FileStorage
}

// NewCatalogService creates a new instance of catalogService. files may be
// nil, in which case s3 media cannot be signed.
func NewCatalogService(
	exercises repository.ExerciseRepository,
	sessionExercises repository.SessionExerciseRepository,
	files storage.FileStorage,
) CatalogService {
	return &catalogService{exercises: exercises, sessionExercises: sessionExercises, files: files}
}

func newName(name, locale string, primary bool) domain.ExerciseName {
	return domain.ExerciseName{
		Name:           name,
		NameNormalized: domain.NormalizeForSearch(name),
		Locale:         locale,
		IsPrimary:      primary,
	}
}

func (s *catalogService) CreateExercise(ctx context.Context, in CreateExerciseInput) (*domain.Exercise, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, invalid("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	slug := domain.Slugify(in.Slug)
	if slug == "" {
		slug = domain.Slugify(name)
	}
	if slug == "" {
		return nil, invalid("slug", "cannot be derived from the name")
	}

	exercise := &domain.Exercise{
		Slug:         slug,
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		Categories:   in.Categories,
		Muscles:      in.Muscles,
		Equipment:    in.Equipment,
		Tags:         in.Tags,
		Media:        in.Media,
		Instructions: in.Instructions,
		Names:        []domain.ExerciseName{newName(name, domain.DefaultLocale, true)},
	}
	for _, n := range in.Names {
		if strings.TrimSpace(n.Name) == "" || n.Locale == "" {
			return nil, invalid("names", "every name needs text and a locale")
		}
		// The primary es name is the one created above.
		primary := n.IsPrimary && n.Locale != domain.DefaultLocale
		exercise.Names = append(exercise.Names, newName(strings.TrimSpace(n.Name), n.Locale, primary))
	}
	for _, m := range exercise.Media {
		if m.URL == "" {
			return nil, invalid("media", "every media entry needs a url")
		}
	}

	id, err := s.exercises.Create(ctx, exercise)
	if err != nil {
		return nil, translate("create exercise", err)
	}
	exercise.ID = id
	slog.Info("exercise created", "exercise_id", id.Hex(), "slug", slug)
	return exercise, nil
}

func (s *catalogService) GetExercise(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	e, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		return nil, translate("get exercise", err)
	}
	return e, nil
}

func pageSize(limit int64) int64 {
	switch {
	case limit <= 0:
		return defaultPageSize
	case limit > maxPageSize:
		return maxPageSize
	}
	return limit
}

func (s *catalogService) ListExercises(ctx context.Context, limit, offset int64) ([]domain.Exercise, error) {
	if offset < 0 {
		return nil, invalid("offset", "must be zero or more")
	}
	es, err := s.exercises.List(ctx, pageSize(limit), offset)
	if err != nil {
		return nil, translate("list exercises", err)
	}
	return es, nil
}

// SearchExercises normalizes query and returns exercises with a name in locale
// containing every query word of two or more characters.
func (s *catalogService) SearchExercises(ctx context.Context, query, locale string, limit int64) ([]domain.Exercise, error) {
	if locale == "" {
		locale = domain.DefaultLocale
	}
	normalized := domain.NormalizeForSearch(query)
	if len(domain.SearchWords(normalized)) == 0 {
		return []domain.Exercise{}, nil
	}
	es, err := s.exercises.Search(ctx, normalized, locale, pageSize(limit))
	if err != nil {
		return nil, translate("search exercises", err)
	}
	return es, nil
}

func (s *catalogService) AddName(ctx context.Context, id primitive.ObjectID, name, locale string, primary bool) (*domain.Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if locale == "" {
		return nil, invalid("locale", "is required")
	}
	if err := s.exercises.AddName(ctx, id, newName(name, locale, primary)); err != nil {
		return nil, translate("add exercise name", err)
	}
	return s.GetExercise(ctx, id)
}

// MediaUploadURL registers an s3 media entry for the exercise and returns a
// presigned PUT URL for its bytes.
func (s *catalogService) MediaUploadURL(ctx context.Context, id primitive.ObjectID, mediaType, fileName, contentType string) (*MediaUpload, error) {
	switch mediaType {
	case "image", "video", "gif":
	default:
		return nil, invalid("type", "must be image, video or gif")
	}
	if contentType == "" {
		return nil, invalid("contentType", "is required")
	}
	if s.files == nil {
		return nil, errors.New("media storage is not configured")
	}
	exercise, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		return nil, translate("get exercise", err)
	}

	media := domain.ExerciseMedia{
		Type:      mediaType,
		URL:       storage.ExerciseMediaKey(exercise.Slug, fileName),
		Provider:  domain.MediaProviderS3,
		IsPrimary: len(exercise.Media) == 0,
	}
	url, err := s.files.GeneratePresignedUploadURL(ctx, media.URL, contentType, mediaURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	if err := s.exercises.AddMedia(ctx, id, media); err != nil {
		return nil, translate("add exercise media", err)
	}
	return &MediaUpload{Media: media, UploadURL: url, ExpiresAt: time.Now().Add(mediaURLExpiry)}, nil
}

// MediaURLs signs s3 media and passes external URLs through unchanged.
func (s *catalogService) MediaURLs(ctx context.Context, id primitive.ObjectID) ([]ResolvedMedia, error) {
	exercise, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		return nil, translate("get exercise", err)
	}
	out := make([]ResolvedMedia, 0, len(exercise.Media))
	for _, m := range exercise.Media {
		resolved := ResolvedMedia{ExerciseMedia: m, ResolvedURL: m.URL}
		if m.Provider == domain.MediaProviderS3 {
			if s.files == nil {
				continue
			}
			url, err := s.files.GeneratePresignedDownloadURL(ctx, m.URL, mediaURLExpiry)
			if err != nil {
				return nil, fmt.Errorf("presign download: %w", err)
			}
			resolved.ResolvedURL = url
		}
		out = append(out, resolved)
	}
	return out, nil
}

// DeleteExercise removes an exercise no workout references, along with its s3 objects.
func (s *catalogService) DeleteExercise(ctx context.Context, id primitive.ObjectID) error {
	exercise, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		return translate("get exercise", err)
	}
	inUse, err := s.sessionExercises.CountByExercise(ctx, id)
	if err != nil {
		return translate("count exercise usage", err)
	}
	if inUse > 0 {
		return ErrExerciseInUse
	}
	if err := s.exercises.Delete(ctx, id); err != nil {
		return translate("delete exercise", err)
	}
	if s.files == nil {
		return nil
	}
	for _, m := range exercise.Media {
		if m.Provider != domain.MediaProviderS3 {
			continue
		}
		// best effort, the row is already gone
		if err := s.files.DeleteObject(ctx, m.URL); err != nil {
			slog.Warn("exercise media not deleted", "key", m.URL, "error", err)
		}
	}
	return nil
}
