package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWorkoutStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to WorkoutStatus
		ok       bool
	}{
		{WorkoutDraft, WorkoutActive, true},
		{WorkoutDraft, WorkoutArchived, true},
		{WorkoutActive, WorkoutArchived, true},
		{WorkoutActive, WorkoutDraft, false},
		{WorkoutArchived, WorkoutDraft, true},
		{WorkoutArchived, WorkoutActive, false},
		{WorkoutActive, WorkoutActive, true},
	}
	for _, tc := range cases {
		require.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestRelationshipStatusIsValid(t *testing.T) {
	require.True(t, RelationshipInactive.IsValid())
	require.False(t, RelationshipStatus("rejected").IsValid())
}

func TestNormalizeForSearch(t *testing.T) {
	cases := map[string]string{
		"Press Banca":             "press banca",
		"  Sentadilla   Búlgara ": "sentadilla bulgara",
		"Extensión de Tríceps!":   "extension de triceps",
		"Año pingüino":            "ano pinguino",
		"Curl (martillo) 21s":     "curl martillo 21s",
		"Push-up":                 "push-up",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeForSearch(in), in)
	}

	// marks outside the Spanish alphabet fold too
	for _, tc := range [][2]string{
		{"Développé couché à la barre", "developpe couche a la barre"},
		{"Élévation latérale", "elevation laterale"},
		{"Curl façon Zottman", "curl facon zottman"},
	} {
		require.Equal(t, tc[1], NormalizeForSearch(tc[0]), tc[0])
	}
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "press-banca-inclinado", Slugify("Press Banca Inclinado"))
	require.Equal(t, "push-up", Slugify("Push - Up"))
	require.Equal(t, "curl-facon-zottman", Slugify("Curl façon Zottman"))
}

func TestExerciseSearchAndCategories(t *testing.T) {
	ex := Exercise{
		Names: []ExerciseName{
			{Name: "Press de banca", NameNormalized: NormalizeForSearch("Press de banca"), Locale: "es", IsPrimary: true},
			{Name: "Bench press", NameNormalized: NormalizeForSearch("Bench press"), Locale: "en"},
		},
		Categories: []ExerciseCategory{
			{TypeSlug: CategoryMovementPattern, NameSlug: "push", Labels: map[string]string{"es": "Empuje"}},
		},
	}

	require.True(t, ex.MatchesSearch("banca press", "es"))
	require.False(t, ex.MatchesSearch("bench", "es"))
	require.True(t, ex.MatchesSearch("bench", "en"))
	require.False(t, ex.MatchesSearch("a", "es"), "single-letter words are ignored")

	require.Equal(t, []string{"Empuje"}, ex.PrimaryCategories("es"))
	ex.Categories = append(ex.Categories, ExerciseCategory{TypeSlug: CategoryMuscleGroup, NameSlug: "chest"})
	require.Equal(t, []string{"chest"}, ex.PrimaryCategories("es"))

	name, ok := ex.PrimaryName("es")
	require.True(t, ok)
	require.Equal(t, "Press de banca", name.Name)
}
