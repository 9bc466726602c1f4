package mongo

import (
	"alcyxob/coach-app/internal/ordering"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mapWriteError turns unique index violations into repository.ErrConflict.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrConflict
	}
	return err
}

// mapFindError turns mongo.ErrNoDocuments into repository.ErrNotFound.
func mapFindError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}

func insertedObjectID(result *mongo.InsertOneResult) (primitive.ObjectID, error) {
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return id, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, cursor.Err()
}

// absOrder is an update pipeline that flips a parked (negative) order back to positive.
func absOrder(field string) mongo.Pipeline {
	return mongo.Pipeline{{{Key: "$set", Value: bson.M{field: bson.M{"$abs": "$" + field}}}}}
}

// reorderChildren applies a reorder batch in two passes so swapping two
// siblings never trips the (parent, order) unique index: every listed child is
// first parked at -order, then all parked children are flipped back. It must
// run inside a transaction; a collision in the second pass leaves parked rows.
func reorderChildren(ctx context.Context, coll *mongo.Collection, parentField string, parentID primitive.ObjectID, orderField string, items []ordering.Item) error {
	models := make([]mongo.WriteModel, 0, len(items))
	for _, it := range items {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": it.ID, parentField: parentID}).
			SetUpdate(bson.M{"$set": bson.M{orderField: -it.Order}}))
	}

	res, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return mapWriteError(err)
	}
	if res.MatchedCount != int64(len(items)) {
		return repository.ErrNotFound
	}

	_, err = coll.UpdateMany(ctx,
		bson.M{parentField: parentID, orderField: bson.M{"$lt": 0}},
		absOrder(orderField),
	)
	return mapWriteError(err)
}
