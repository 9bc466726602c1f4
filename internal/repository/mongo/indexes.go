package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureIndexes creates every collection's indexes and stops at the first failure.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	steps := []struct {
		collection string
		ensure     func(context.Context, *mongo.Collection) error
	}{
		{userCollectionName, EnsureUserIndexes},
		{relationshipCollectionName, EnsureRelationshipIndexes},
		{workoutCollectionName, EnsureWorkoutIndexes},
		{sessionCollectionName, EnsureSessionIndexes},
		{sessionExerciseCollectionName, EnsureSessionExerciseIndexes},
		{setCollectionName, EnsureSetIndexes},
		{exerciseCollectionName, EnsureExerciseIndexes},
	}
	for _, s := range steps {
		if err := s.ensure(ctx, db.Collection(s.collection)); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", s.collection, err)
		}
	}
	return nil
}
