package main

import (
	"bytes"
	"context"
	"os"
	"testing"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository/memory"
	"alcyxob/coach-app/internal/service"

	"github.com/stretchr/testify/require"
)

func TestParseSeed(t *testing.T) {
	data, err := os.ReadFile("testdata/catalog.yaml")
	require.NoError(t, err)

	inputs, err := parseSeed(data)
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	press := inputs[0]
	require.Equal(t, "Press de banca", press.Name)
	require.Equal(t, []string{"barra", "banco"}, press.Equipment)
	require.Equal(t, []domain.ExerciseName{{Name: "Bench press", Locale: "en", IsPrimary: true}}, press.Names)
	require.Equal(t, "Chest", press.Categories[0].Label("en"))
	require.Len(t, press.Muscles, 2)
	require.Equal(t, domain.MediaProviderExternal, press.Media[0].Provider)
	require.True(t, press.Media[0].IsPrimary)
	require.Len(t, press.Instructions[0].ExecutionSteps, 2)

	require.Equal(t, domain.CategoryMovementPattern, inputs[1].Categories[0].TypeSlug)
}

func TestParseSeedErrors(t *testing.T) {
	cases := map[string]string{
		"empty":      "  \n",
		"bad yaml":   "exercises: [",
		"name empty": "exercises:\n  - slug: x\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseSeed([]byte(data))
			require.Error(t, err)
		})
	}
}

func TestSeedCatalogSkipsExisting(t *testing.T) {
	data, err := os.ReadFile("testdata/catalog.yaml")
	require.NoError(t, err)
	inputs, err := parseSeed(data)
	require.NoError(t, err)

	store := memory.NewStore()
	catalog := service.NewCatalogService(store.Exercises(), store.SessionExercises(), nil)
	ctx := context.Background()

	var out bytes.Buffer
	created, skipped, err := seedCatalog(ctx, catalog, inputs, &out)
	require.NoError(t, err)
	require.Equal(t, 2, created)
	require.Equal(t, 0, skipped)
	require.Contains(t, out.String(), "created sentadilla-bulgara")

	created, skipped, err = seedCatalog(ctx, catalog, inputs, &out)
	require.NoError(t, err)
	require.Equal(t, 0, created)
	require.Equal(t, 2, skipped)

	found, err := catalog.SearchExercises(ctx, "bench", "en", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, []string{"Pecho"}, found[0].PrimaryCategories("es"))
}
