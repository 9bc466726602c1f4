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

const sessionCollectionName = "workout_sessions"

type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new WorkoutSession repository.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	if session.WorkoutID == primitive.NilObjectID || session.SessionOrder < ordering.First {
		return primitive.NilObjectID, errors.New("session requires workoutId and a positive sessionOrder")
	}
	session.ID = primitive.NewObjectID()

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session); err != nil {
		return nil, mapFindError(err)
	}
	return &session, nil
}

// ListByWorkout returns the workout's sessions ordered by sessionOrder.
func (r *mongoSessionRepository) ListByWorkout(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "sessionOrder", Value: 1}})
	return findAll[domain.WorkoutSession](ctx, r.collection, bson.M{"workoutId": workoutID}, findOptions)
}

func (r *mongoSessionRepository) CountByWorkout(ctx context.Context, workoutID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"workoutId": workoutID})
}

// Update writes name and notes. Order changes go through Reorder.
func (r *mongoSessionRepository) Update(ctx context.Context, session *domain.WorkoutSession) error {
	update := bson.M{"$set": bson.M{"name": session.Name, "notes": session.Notes}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": session.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoSessionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoSessionRepository) DeleteByWorkout(ctx context.Context, workoutID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"workoutId": workoutID})
	return err
}

func (r *mongoSessionRepository) Reorder(ctx context.Context, workoutID primitive.ObjectID, items []ordering.Item) error {
	return reorderChildren(ctx, r.collection, "workoutId", workoutID, "sessionOrder", items)
}

// EnsureSessionIndexes creates the (workoutId, sessionOrder) uniqueness constraint.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workoutId", Value: 1}, {Key: "sessionOrder", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
