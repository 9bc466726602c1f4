package service

import (
	"strings"
	"testing"

	"alcyxob/coach-app/internal/domain"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateExerciseAddsPrimaryName(t *testing.T) {
	h := newHarness(t)

	e, err := h.catalog.CreateExercise(h.ctx, CreateExerciseInput{
		Name:  "Press de Banca Inclinado",
		Names: []domain.ExerciseName{{Name: "Incline Bench Press", Locale: "en", IsPrimary: true}},
	})
	require.NoError(t, err)
	require.Equal(t, "press-de-banca-inclinado", e.Slug)

	es, ok := e.PrimaryName("es")
	require.True(t, ok)
	require.Equal(t, "Press de Banca Inclinado", es.Name)
	require.Equal(t, "press de banca inclinado", es.NameNormalized)
	en, ok := e.PrimaryName("en")
	require.True(t, ok)
	require.Equal(t, "Incline Bench Press", en.Name)

	_, err = h.catalog.CreateExercise(h.ctx, CreateExerciseInput{Name: "Press de banca inclinado"})
	require.ErrorIs(t, err, ErrConflict, "slug is unique")

	_, err = h.catalog.CreateExercise(h.ctx, CreateExerciseInput{Name: " "})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestSearchExercises(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"Press de banca", "Press militar", "Sentadilla búlgara", "Remo con barra"} {
		h.exercise(t, name)
	}

	search := func(q string) []string {
		res, err := h.catalog.SearchExercises(h.ctx, q, "", 0)
		require.NoError(t, err)
		var names []string
		for _, e := range res {
			names = append(names, e.Name)
		}
		return names
	}

	require.Equal(t, []string{"Press de banca", "Press militar"}, search("press"))
	require.Equal(t, []string{"Press de banca"}, search("BANCA press"))
	require.Equal(t, []string{"Sentadilla búlgara"}, search("bulgara"))
	require.Equal(t, []string{"Sentadilla búlgara"}, search("búlgara"))
	require.Empty(t, search("a"), "single letter words are ignored")
	require.Empty(t, search("press sentadilla"))

	res, err := h.catalog.SearchExercises(h.ctx, "press", "en", 0)
	require.NoError(t, err)
	require.Empty(t, res, "no english names yet")
}

func TestAddNameReplacesPrimary(t *testing.T) {
	h := newHarness(t)
	id := h.exercise(t, "Dominadas")

	e, err := h.catalog.AddName(h.ctx, id, "Pull-up", "en", true)
	require.NoError(t, err)
	en, ok := e.PrimaryName("en")
	require.True(t, ok)
	require.Equal(t, "Pull-up", en.Name)

	e, err = h.catalog.AddName(h.ctx, id, "Chin-up", "en", true)
	require.NoError(t, err)
	en, _ = e.PrimaryName("en")
	require.Equal(t, "Chin-up", en.Name)
	require.ElementsMatch(t, []string{"Pull-up", "Chin-up"}, e.NamesFor("en"))

	res, err := h.catalog.SearchExercises(h.ctx, "pull", "en", 0)
	require.NoError(t, err)
	require.Len(t, res, 1)

	_, err = h.catalog.AddName(h.ctx, primitive.NewObjectID(), "x", "en", false)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListExercisesPages(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"C", "A", "B"} {
		h.exercise(t, name+" ejercicio")
	}

	page, err := h.catalog.ListExercises(h.ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.True(t, strings.HasPrefix(page[0].Name, "A"))

	page, err = h.catalog.ListExercises(h.ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.True(t, strings.HasPrefix(page[0].Name, "C"))
}

func TestMediaUploadAndResolve(t *testing.T) {
	h := newHarness(t)
	e, err := h.catalog.CreateExercise(h.ctx, CreateExerciseInput{
		Name:  "Hip thrust",
		Media: []domain.ExerciseMedia{{Type: "video", URL: "https://youtu.be/abc", Provider: domain.MediaProviderExternal}},
	})
	require.NoError(t, err)

	upload, err := h.catalog.MediaUploadURL(h.ctx, e.ID, "image", "foto.JPG", "image/jpeg")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(upload.Media.URL, "exercises/hip-thrust/"))
	require.Equal(t, "https://s3.test/put/"+upload.Media.URL, upload.UploadURL)
	require.False(t, upload.Media.IsPrimary)

	media, err := h.catalog.MediaURLs(h.ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, media, 2)
	require.Equal(t, "https://youtu.be/abc", media[0].ResolvedURL)
	require.Equal(t, "https://s3.test/get/"+upload.Media.URL, media[1].ResolvedURL)

	_, err = h.catalog.MediaUploadURL(h.ctx, e.ID, "pdf", "x.pdf", "application/pdf")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestDeleteExercise(t *testing.T) {
	h := newHarness(t)
	trainerID, tree := newWorkout(t, h)
	used := h.exercise(t, "Usado")
	unused, err := h.catalog.CreateExercise(h.ctx, CreateExerciseInput{Name: "Libre"})
	require.NoError(t, err)
	upload, err := h.catalog.MediaUploadURL(h.ctx, unused.ID, "image", "a.png", "image/png")
	require.NoError(t, err)

	_, err = h.composition.AddSessionExercise(h.ctx, trainerID, tree.Sessions[0].Session.ID, used, nil)
	require.NoError(t, err)

	require.ErrorIs(t, h.catalog.DeleteExercise(h.ctx, used), ErrConflict)
	require.NoError(t, h.catalog.DeleteExercise(h.ctx, unused.ID))
	require.Equal(t, []string{upload.Media.URL}, h.files.deleted)
	require.ErrorIs(t, h.catalog.DeleteExercise(h.ctx, unused.ID), ErrNotFound)
}
