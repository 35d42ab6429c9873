package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nboulif/doctrack/internal/models"
	"github.com/nboulif/doctrack/internal/utils"
)

type TokenRepository interface {
	Create(ctx context.Context, t *models.ReviewToken) error
	GetByValue(ctx context.Context, value string) (*models.ReviewToken, error)
	// DeleteExpired is housekeeping only; expiry is enforced on read.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type tokenRepo struct {
	col *mongo.Collection
}

func NewTokenRepo(db *mongo.Database) TokenRepository {
	return &tokenRepo{col: db.Collection("tokens")}
}

func (r *tokenRepo) Create(ctx context.Context, t *models.ReviewToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, t)
	return err
}

func (r *tokenRepo) GetByValue(ctx context.Context, value string) (*models.ReviewToken, error) {
	var t models.ReviewToken
	err := r.col.FindOne(ctx, bson.M{"value": value}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
