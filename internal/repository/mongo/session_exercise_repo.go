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

const sessionExerciseCollectionName = "workout_session_exercises"

type mongoSessionExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionExerciseRepository creates a new WorkoutSessionExercise repository.
func NewMongoSessionExerciseRepository(db *mongo.Database) repository.SessionExerciseRepository {
	return &mongoSessionExerciseRepository{
		collection: db.Collection(sessionExerciseCollectionName),
	}
}

func (r *mongoSessionExerciseRepository) Create(ctx context.Context, se *domain.WorkoutSessionExercise) (primitive.ObjectID, error) {
	if se.WorkoutSessionID == primitive.NilObjectID || se.ExerciseID == primitive.NilObjectID || se.Position < ordering.First {
		return primitive.NilObjectID, errors.New("session exercise requires workoutSessionId, exerciseId and a positive position")
	}
	se.ID = primitive.NewObjectID()

	result, err := r.collection.InsertOne(ctx, se)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

func (r *mongoSessionExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSessionExercise, error) {
	var se domain.WorkoutSessionExercise
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&se); err != nil {
		return nil, mapFindError(err)
	}
	return &se, nil
}

func (r *mongoSessionExerciseRepository) ListBySession(ctx context.Context, sessionID primitive.ObjectID) ([]domain.WorkoutSessionExercise, error) {
	return r.ListBySessions(ctx, []primitive.ObjectID{sessionID})
}

// ListBySessions returns exercises of all given sessions sorted by (session, position).
func (r *mongoSessionExerciseRepository) ListBySessions(ctx context.Context, sessionIDs []primitive.ObjectID) ([]domain.WorkoutSessionExercise, error) {
	if len(sessionIDs) == 0 {
		return []domain.WorkoutSessionExercise{}, nil
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "workoutSessionId", Value: 1}, {Key: "position", Value: 1}})
	return findAll[domain.WorkoutSessionExercise](ctx, r.collection, bson.M{"workoutSessionId": bson.M{"$in": sessionIDs}}, findOptions)
}

// CountByExercise reports how many sessions reference a catalog exercise.
func (r *mongoSessionExerciseRepository) CountByExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"exerciseId": exerciseID})
}

func (r *mongoSessionExerciseRepository) UpdateNotes(ctx context.Context, id primitive.ObjectID, notes string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"notes": notes}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoSessionExerciseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoSessionExerciseRepository) DeleteBySessions(ctx context.Context, sessionIDs []primitive.ObjectID) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"workoutSessionId": bson.M{"$in": sessionIDs}})
	return err
}

func (r *mongoSessionExerciseRepository) Reorder(ctx context.Context, sessionID primitive.ObjectID, items []ordering.Item) error {
	return reorderChildren(ctx, r.collection, "workoutSessionId", sessionID, "position", items)
}

// EnsureSessionExerciseIndexes creates the (workoutSessionId, position) uniqueness constraint.
func EnsureSessionExerciseIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workoutSessionId", Value: 1}, {Key: "position", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "exerciseId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
