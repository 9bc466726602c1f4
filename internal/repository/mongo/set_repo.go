package mongo

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ordering"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const setCollectionName = "workout_session_exercise_sets"

type mongoSetRepository struct {
	collection *mongo.Collection
}

// NewMongoSetRepository creates a new WorkoutSessionExerciseSet repository.
func NewMongoSetRepository(db *mongo.Database) repository.SetRepository {
	return &mongoSetRepository{
		collection: db.Collection(setCollectionName),
	}
}

func (r *mongoSetRepository) Create(ctx context.Context, set *domain.WorkoutSessionExerciseSet) (primitive.ObjectID, error) {
	if set.WorkoutSessionExerciseID == primitive.NilObjectID || set.SetOrder < ordering.First {
		return primitive.NilObjectID, errors.New("set requires workoutSessionExerciseId and a positive setOrder")
	}
	set.ID = primitive.NewObjectID()

	result, err := r.collection.InsertOne(ctx, set)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

func (r *mongoSetRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSessionExerciseSet, error) {
	var set domain.WorkoutSessionExerciseSet
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&set); err != nil {
		return nil, mapFindError(err)
	}
	return &set, nil
}

func (r *mongoSetRepository) ListBySessionExercise(ctx context.Context, sessionExerciseID primitive.ObjectID) ([]domain.WorkoutSessionExerciseSet, error) {
	return r.ListBySessionExercises(ctx, []primitive.ObjectID{sessionExerciseID})
}

func (r *mongoSetRepository) ListBySessionExercises(ctx context.Context, sessionExerciseIDs []primitive.ObjectID) ([]domain.WorkoutSessionExerciseSet, error) {
	if len(sessionExerciseIDs) == 0 {
		return []domain.WorkoutSessionExerciseSet{}, nil
	}
	filter := bson.M{"workoutSessionExerciseId": bson.M{"$in": sessionExerciseIDs}}
	findOptions := options.Find().SetSort(bson.D{{Key: "workoutSessionExerciseId", Value: 1}, {Key: "setOrder", Value: 1}})
	return findAll[domain.WorkoutSessionExerciseSet](ctx, r.collection, filter, findOptions)
}

// UpdateTargets replaces the planned values; unset fields are removed.
func (r *mongoSetRepository) UpdateTargets(ctx context.Context, id primitive.ObjectID, t domain.SetTargets) error {
	set, unset := bson.M{}, bson.M{}
	put := func(key string, present bool, value interface{}) {
		if present {
			set[key] = value
		} else {
			unset[key] = ""
		}
	}
	put("targetReps", t.TargetReps != nil, t.TargetReps)
	put("targetWeight", t.TargetWeight != nil, t.TargetWeight)
	put("targetRpe", t.TargetRPE != nil, t.TargetRPE)
	put("restSeconds", t.RestSeconds != nil, t.RestSeconds)
	put("tempo", t.Tempo != nil, t.Tempo)

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoSetRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CloseGap shifts every set above removedOrder down by one. The first pass
// parks them at -(setOrder-1), the second flips them positive, so a multi-doc
// update never collides with the (parent, setOrder) unique index halfway.
func (r *mongoSetRepository) CloseGap(ctx context.Context, sessionExerciseID primitive.ObjectID, removedOrder int) error {
	park := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"setOrder": bson.M{"$multiply": bson.A{bson.M{"$subtract": bson.A{"$setOrder", 1}}, -1}},
	}}}}
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"workoutSessionExerciseId": sessionExerciseID, "setOrder": bson.M{"$gt": removedOrder}},
		park,
	)
	if err != nil {
		return mapWriteError(err)
	}

	_, err = r.collection.UpdateMany(ctx,
		bson.M{"workoutSessionExerciseId": sessionExerciseID, "setOrder": bson.M{"$lt": 0}},
		absOrder("setOrder"),
	)
	return mapWriteError(err)
}

func (r *mongoSetRepository) DeleteBySessionExercises(ctx context.Context, sessionExerciseIDs []primitive.ObjectID) error {
	if len(sessionExerciseIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"workoutSessionExerciseId": bson.M{"$in": sessionExerciseIDs}})
	return err
}

// EnsureSetIndexes creates the (workoutSessionExerciseId, setOrder) uniqueness constraint.
func EnsureSetIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workoutSessionExerciseId", Value: 1}, {Key: "setOrder", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
