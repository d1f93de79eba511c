package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mathduel/internal/model"
)

// ResultRepo stores finished duel records
type ResultRepo interface {
	Create(ctx context.Context, result *model.DuelResult) error
	GetByRoomID(ctx context.Context, roomID string) (*model.DuelResult, error)
	GetByPlayerID(ctx context.Context, playerID string, limit int) ([]*model.DuelResult, error)
}

type resultRepo struct {
	collection *mongo.Collection
}

// NewResultRepo creates a Mongo-backed result repository
func NewResultRepo(db *mongo.Database) ResultRepo {
	return &resultRepo{
		collection: db.Collection("duel_results"),
	}
}

func (r *resultRepo) Create(ctx context.Context, result *model.DuelResult) error {
	if result.EndedAt.IsZero() {
		result.EndedAt = time.Now()
	}

	res, err := r.collection.InsertOne(ctx, result)
	if err != nil {
		return err
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		result.ID = oid.Hex()
	}

	return nil
}

func (r *resultRepo) GetByRoomID(ctx context.Context, roomID string) (*model.DuelResult, error) {
	var result model.DuelResult
	err := r.collection.FindOne(ctx, bson.M{"roomId": roomID}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *resultRepo) GetByPlayerID(ctx context.Context, playerID string, limit int) ([]*model.DuelResult, error) {
	opts := options.Find().
		SetSort(bson.M{"endedAt": -1}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"players.playerId": playerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.DuelResult
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	return results, nil
}
