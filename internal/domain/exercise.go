// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultLocale is the locale of names created together with an exercise.
const DefaultLocale = "es"

// Category type slugs used to pick an exercise's headline categories.
const (
	CategoryMuscleGroup     = "muscle_group"
	CategoryMovementPattern = "movement_pattern"
)

// Media providers. Only s3 media is signed by the storage layer.
const (
	MediaProviderS3       = "s3"
	MediaProviderExternal = "external"
)

// Exercise is a catalog entry. Everything that belonged to it in separate
// tables (names, categories, muscles, ...) is embedded in the one document.
type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug        string             `bson:"slug" json:"slug"` // unique
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	ImageKey    string             `bson:"imageKey,omitempty" json:"imageKey,omitempty"`

	Names        []ExerciseName        `bson:"names" json:"names"`
	Categories   []ExerciseCategory    `bson:"categories,omitempty" json:"categories,omitempty"`
	Muscles      []ExerciseMuscle      `bson:"muscles,omitempty" json:"muscles,omitempty"`
	Equipment    []string              `bson:"equipment,omitempty" json:"equipment,omitempty"` // equipment slugs
	Tags         []string              `bson:"tags,omitempty" json:"tags,omitempty"`           // tag slugs
	Media        []ExerciseMedia       `bson:"media,omitempty" json:"media,omitempty"`
	Instructions []ExerciseInstruction `bson:"instructions,omitempty" json:"instructions,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ExerciseName is one (possibly alternative) name in one locale.
// NameNormalized is what search matches against.
type ExerciseName struct {
	Name           string `bson:"name" json:"name"`
	NameNormalized string `bson:"nameNormalized" json:"-"`
	Locale         string `bson:"locale" json:"locale"`
	IsPrimary      bool   `bson:"isPrimary" json:"isPrimary"`
}

// ExerciseCategory is identified by (TypeSlug, NameSlug); Labels maps locale
// to display label.
type ExerciseCategory struct {
	TypeSlug string            `bson:"typeSlug" json:"typeSlug"`
	NameSlug string            `bson:"nameSlug" json:"nameSlug"`
	Labels   map[string]string `bson:"labels,omitempty" json:"labels,omitempty"`
}

// Label returns the label for locale, or the name slug when none is stored.
func (c ExerciseCategory) Label(locale string) string {
	if l, ok := c.Labels[locale]; ok && l != "" {
		return l
	}
	return c.NameSlug
}

// ExerciseMuscle pairs a muscle with its role ("primary", "secondary", "stabilizer").
type ExerciseMuscle struct {
	Muscle string `bson:"muscle" json:"muscle"`
	Role   string `bson:"role" json:"role"`
}

// ExerciseMedia points at an image or video. For s3 media URL holds the object key.
type ExerciseMedia struct {
	Type      string `bson:"type" json:"type"` // "image", "video", "gif"
	URL       string `bson:"url" json:"url"`
	Provider  string `bson:"provider,omitempty" json:"provider,omitempty"`
	IsPrimary bool   `bson:"isPrimary" json:"isPrimary"`
	Locale    string `bson:"locale,omitempty" json:"locale,omitempty"`
}

// ExerciseInstruction holds coaching text for one locale.
type ExerciseInstruction struct {
	Locale         string   `bson:"locale" json:"locale"`
	Setup          string   `bson:"setup,omitempty" json:"setup,omitempty"`
	ExecutionSteps []string `bson:"executionSteps,omitempty" json:"executionSteps,omitempty"`
	CommonMistakes string   `bson:"commonMistakes,omitempty" json:"commonMistakes,omitempty"`
	Cues           string   `bson:"cues,omitempty" json:"cues,omitempty"`
	Breathing      string   `bson:"breathing,omitempty" json:"breathing,omitempty"`
}

// PrimaryName returns the primary name for locale, if any.
func (e *Exercise) PrimaryName(locale string) (ExerciseName, bool) {
	for _, n := range e.Names {
		if n.Locale == locale && n.IsPrimary {
			return n, true
		}
	}
	return ExerciseName{}, false
}

// NamesFor returns every name stored for locale.
func (e *Exercise) NamesFor(locale string) []string {
	var out []string
	for _, n := range e.Names {
		if n.Locale == locale {
			out = append(out, n.Name)
		}
	}
	return out
}

// PrimaryCategories returns the muscle group labels of the exercise, or its
// movement pattern labels when it has no muscle group.
func (e *Exercise) PrimaryCategories(locale string) []string {
	labels := e.categoryLabels(CategoryMuscleGroup, locale)
	if len(labels) == 0 {
		labels = e.categoryLabels(CategoryMovementPattern, locale)
	}
	return labels
}

func (e *Exercise) categoryLabels(typeSlug, locale string) []string {
	var out []string
	for _, c := range e.Categories {
		if c.TypeSlug != typeSlug {
			continue
		}
		if l := c.Label(locale); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// MatchesSearch reports whether every word of a normalized query of at least
// two characters occurs in one normalized name for locale.
func (e *Exercise) MatchesSearch(normalizedQuery, locale string) bool {
	words := SearchWords(normalizedQuery)
	if len(words) == 0 {
		return false
	}
	for _, n := range e.Names {
		if n.Locale != locale {
			continue
		}
		if containsAll(n.NameNormalized, words) {
			return true
		}
	}
	return false
}
