// internal/repository/mongo/workout_repo.go
package mongo

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new workout.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.TrainerID == primitive.NilObjectID || workout.ClientID == primitive.NilObjectID || workout.Name == "" {
		return primitive.NilObjectID, errors.New("workout requires trainerId, clientId, and name")
	}
	if workout.Status == "" {
		workout.Status = domain.WorkoutDraft
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

// GetByID retrieves a single workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workout); err != nil {
		return nil, mapFindError(err)
	}
	return &workout, nil
}

// GetActive returns the pair's active workout.
func (r *mongoWorkoutRepository) GetActive(ctx context.Context, clientID, trainerID primitive.ObjectID) (*domain.Workout, error) {
	filter := bson.M{"clientId": clientID, "trainerId": trainerID, "status": domain.WorkoutActive}
	var workout domain.Workout
	if err := r.collection.FindOne(ctx, filter).Decode(&workout); err != nil {
		return nil, mapFindError(err)
	}
	return &workout, nil
}

// ListByClientAndTrainer lists the pair's workouts, active one first, then newest.
func (r *mongoWorkoutRepository) ListByClientAndTrainer(ctx context.Context, clientID, trainerID primitive.ObjectID) ([]domain.Workout, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"clientId": clientID, "trainerId": trainerID}}},
		{{Key: "$addFields", Value: bson.M{"isActive": bson.M{"$eq": bson.A{"$status", domain.WorkoutActive}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "isActive", Value: -1}, {Key: "createdAt", Value: -1}}}},
		{{Key: "$unset", Value: "isActive"}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	workouts := []domain.Workout{}
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, cursor.Err()
}

// SetStatus writes a new status. Transition rules live in the service.
func (r *mongoWorkoutRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status domain.WorkoutStatus) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return mapWriteError(err) // second active workout for the pair -> ErrConflict
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ArchiveOtherActive archives the pair's active workouts other than excludeID.
func (r *mongoWorkoutRepository) ArchiveOtherActive(ctx context.Context, clientID, trainerID, excludeID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"clientId":  clientID,
		"trainerId": trainerID,
		"status":    domain.WorkoutActive,
		"_id":       bson.M{"$ne": excludeID},
	}

	// Collect the ids first so the caller can report what was archived.
	others, err := findAll[domain.Workout](ctx, r.collection, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	if len(others) == 0 {
		return nil, nil
	}
	ids := make([]primitive.ObjectID, len(others))
	for i, w := range others {
		ids[i] = w.ID
	}

	update := bson.M{"$set": bson.M{"status": domain.WorkoutArchived, "updatedAt": time.Now().UTC()}}
	if _, err = r.collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, update); err != nil {
		return nil, err
	}
	return ids, nil
}

// Rename changes a workout's name.
func (r *mongoWorkoutRepository) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	update := bson.M{"$set": bson.M{"name": name, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the workout document only; descendants are removed by the service.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "trainerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// At most one active workout per coaching pair.
			Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "trainerId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("one_active_per_pair").
				SetPartialFilterExpression(bson.M{"status": domain.WorkoutActive}),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
