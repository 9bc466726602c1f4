//go:build integration

package mongo

import (
	"context"
	"testing"

	"alcyxob/coach-app/internal/config"
	"alcyxob/coach-app/internal/repository/repotest"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	mongocontainer "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMongoRepositories(t *testing.T) {
	ctx := context.Background()

	container, err := mongocontainer.Run(ctx, "mongo:7", mongocontainer.WithReplicaSet("rs0"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := ConnectDB(config.DatabaseConfig{URI: uri, Transactions: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = DisconnectDB(client) })

	repotest.Run(t, func(t *testing.T) repotest.Repos {
		db := client.Database("coach_test_" + primitive.NewObjectID().Hex())
		require.NoError(t, EnsureIndexes(ctx, db))
		t.Cleanup(func() { _ = db.Drop(context.Background()) })

		return repotest.Repos{
			Tx:               NewTransactor(client),
			Users:            NewMongoUserRepository(db),
			Relationships:    NewMongoRelationshipRepository(db),
			Workouts:         NewMongoWorkoutRepository(db),
			Sessions:         NewMongoSessionRepository(db),
			SessionExercises: NewMongoSessionExerciseRepository(db),
			Sets:             NewMongoSetRepository(db),
			Exercises:        NewMongoExerciseRepository(db),
		}
	}, true)
}
