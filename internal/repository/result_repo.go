package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ideogrid/internal/model"
)

// ResultRepo handles MongoDB operations for submitted results
type ResultRepo interface {
	Create(ctx context.Context, sub *model.Submission) (string, error)
	GetByID(ctx context.Context, id string) (*model.Result, error)
	CountByMacro(ctx context.Context) (map[model.MacroCode]int64, error)
}

type resultRepo struct {
	collection *mongo.Collection
}

// NewResultRepo creates a new result repository
func NewResultRepo(db *mongo.Database) ResultRepo {
	return &resultRepo{
		collection: db.Collection("results"),
	}
}

func (r *resultRepo) Create(ctx context.Context, sub *model.Submission) (string, error) {
	result, err := r.collection.InsertOne(ctx, sub)
	if err != nil {
		return "", fmt.Errorf("failed to insert result: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	return oid.Hex(), nil
}

// GetByID returns nil, nil for unknown or malformed ids
func (r *resultRepo) GetByID(ctx context.Context, id string) (*model.Result, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var res model.Result
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	res.ID = id
	return &res, nil
}

func (r *resultRepo) CountByMacro(ctx context.Context) (map[model.MacroCode]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$macro"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Macro model.MacroCode `bson:"_id"`
		Count int64           `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[model.MacroCode]int64, len(rows))
	for _, row := range rows {
		counts[row.Macro] = row.Count
	}
	return counts, nil
}
