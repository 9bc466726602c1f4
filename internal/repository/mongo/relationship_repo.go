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

const relationshipCollectionName = "trainer_client_relationships"

// mongoRelationshipRepository implements repository.RelationshipRepository
type mongoRelationshipRepository struct {
	collection *mongo.Collection
}

// NewMongoRelationshipRepository creates a new relationship repository.
func NewMongoRelationshipRepository(db *mongo.Database) repository.RelationshipRepository {
	return &mongoRelationshipRepository{
		collection: db.Collection(relationshipCollectionName),
	}
}

// Create inserts a relationship row.
func (r *mongoRelationshipRepository) Create(ctx context.Context, rel *domain.TrainerClientRelationship) (primitive.ObjectID, error) {
	if rel.TrainerID == primitive.NilObjectID || rel.ClientID == primitive.NilObjectID || !rel.Status.IsValid() {
		return primitive.NilObjectID, errors.New("relationship requires trainerId, clientId and a valid status")
	}
	rel.ID = primitive.NewObjectID()

	result, err := r.collection.InsertOne(ctx, rel)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

// Get returns the row of one (trainer, client) pair.
func (r *mongoRelationshipRepository) Get(ctx context.Context, trainerID, clientID primitive.ObjectID) (*domain.TrainerClientRelationship, error) {
	var rel domain.TrainerClientRelationship
	err := r.collection.FindOne(ctx, bson.M{"trainerId": trainerID, "clientId": clientID}).Decode(&rel)
	if err != nil {
		return nil, mapFindError(err)
	}
	return &rel, nil
}

// ListByTrainer returns every relationship of a trainer, newest invitation first.
func (r *mongoRelationshipRepository) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TrainerClientRelationship, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "invitedAt", Value: -1}})
	return findAll[domain.TrainerClientRelationship](ctx, r.collection, bson.M{"trainerId": trainerID}, findOptions)
}

// AcceptByToken activates the pending row that holds token. Status, acceptedAt
// and the token removal land in one document update.
func (r *mongoRelationshipRepository) AcceptByToken(ctx context.Context, token string, acceptedAt time.Time) (*domain.TrainerClientRelationship, error) {
	filter := bson.M{"invitationToken": token, "status": domain.RelationshipPending}
	update := bson.M{
		"$set":   bson.M{"status": domain.RelationshipActive, "acceptedAt": acceptedAt},
		"$unset": bson.M{"invitationToken": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rel domain.TrainerClientRelationship
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rel); err != nil {
		return nil, mapFindError(err)
	}
	return &rel, nil
}

// DeleteByToken removes the pending row that holds token.
func (r *mongoRelationshipRepository) DeleteByToken(ctx context.Context, token string) (*domain.TrainerClientRelationship, error) {
	filter := bson.M{"invitationToken": token, "status": domain.RelationshipPending}

	var rel domain.TrainerClientRelationship
	if err := r.collection.FindOneAndDelete(ctx, filter).Decode(&rel); err != nil {
		return nil, mapFindError(err)
	}
	return &rel, nil
}

// Delete removes the pair's row regardless of status.
func (r *mongoRelationshipRepository) Delete(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"trainerId": trainerID, "clientId": clientID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureRelationshipIndexes creates the pair and token uniqueness constraints.
func EnsureRelationshipIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "clientId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Only rows that still carry a token take part; accepted rows have it unset.
			Keys: bson.D{{Key: "invitationToken", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"invitationToken": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
