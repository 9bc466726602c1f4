package mongo

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const exerciseCollectionName = "exercises"

// mongoExerciseRepository implements the repository.ExerciseRepository interface.
type mongoExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseRepository creates a new instance of mongoExerciseRepository.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		collection: db.Collection(exerciseCollectionName),
	}
}

// Create inserts a new catalog exercise.
func (r *mongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || exercise.Slug == "" {
		return primitive.NilObjectID, errors.New("exercise name and slug are required")
	}

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, exercise)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err) // duplicate slug
	}
	return insertedObjectID(result)
}

// GetByID retrieves an exercise by its ID.
func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise); err != nil {
		return nil, mapFindError(err)
	}
	return &exercise, nil
}

// GetBySlug retrieves an exercise by its slug.
func (r *mongoExerciseRepository) GetBySlug(ctx context.Context, slug string) (*domain.Exercise, error) {
	var exercise domain.Exercise
	if err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&exercise); err != nil {
		return nil, mapFindError(err)
	}
	return &exercise, nil
}

// List pages through the catalog alphabetically.
func (r *mongoExerciseRepository) List(ctx context.Context, limit, offset int64) ([]domain.Exercise, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)
	return findAll[domain.Exercise](ctx, r.collection, bson.M{}, findOptions)
}

// Search finds exercises with one name in locale containing every query word.
func (r *mongoExerciseRepository) Search(ctx context.Context, normalizedQuery, locale string, limit int64) ([]domain.Exercise, error) {
	words := domain.SearchWords(normalizedQuery)
	if len(words) == 0 {
		return []domain.Exercise{}, nil
	}

	clauses := bson.A{}
	for _, w := range words {
		clauses = append(clauses, bson.M{"nameNormalized": bson.M{"$regex": regexp.QuoteMeta(w)}})
	}
	filter := bson.M{"names": bson.M{"$elemMatch": bson.M{"locale": locale, "$and": clauses}}}

	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetLimit(limit)
	return findAll[domain.Exercise](ctx, r.collection, filter, findOptions)
}

// AddName appends a name to the exercise. A new primary name demotes the
// previous primary of the same locale.
func (r *mongoExerciseRepository) AddName(ctx context.Context, id primitive.ObjectID, name domain.ExerciseName) error {
	if name.IsPrimary {
		_, err := r.collection.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"names.$[n].isPrimary": false}},
			options.Update().SetArrayFilters(options.ArrayFilters{
				Filters: []interface{}{bson.M{"n.locale": name.Locale}},
			}),
		)
		if err != nil {
			return err
		}
	}
	return r.push(ctx, id, "names", name)
}

// AddMedia appends a media entry to the exercise.
func (r *mongoExerciseRepository) AddMedia(ctx context.Context, id primitive.ObjectID, media domain.ExerciseMedia) error {
	return r.push(ctx, id, "media", media)
}

func (r *mongoExerciseRepository) push(ctx context.Context, id primitive.ObjectID, field string, value interface{}) error {
	update := bson.M{
		"$push": bson.M{field: value},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
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

// Delete removes an exercise from the catalog.
func (r *mongoExerciseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureExerciseIndexes creates necessary indexes for the exercises collection.
func EnsureExerciseIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "names.locale", Value: 1}, {Key: "names.nameNormalized", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "categories.typeSlug", Value: 1}, {Key: "categories.nameSlug", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
