package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nboulif/doctrack/internal/models"
	"github.com/nboulif/doctrack/internal/utils"
)

type CandidateRepository interface {
	Create(ctx context.Context, c *models.Candidate) error
	GetByID(ctx context.Context, id string) (*models.Candidate, error)
	GetByEmail(ctx context.Context, email string) (*models.Candidate, error)
	// GetByAnyEmail matches the primary email or any committee member email.
	GetByAnyEmail(ctx context.Context, email string) (*models.Candidate, error)
	FindAll(ctx context.Context) ([]models.Candidate, error)
	Update(ctx context.Context, id string, patch *models.CandidatePatch) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

type candidateRepo struct {
	col *mongo.Collection
}

func NewCandidateRepo(db *mongo.Database) CandidateRepository {
	return &candidateRepo{col: db.Collection("candidates")}
}

func (r *candidateRepo) Create(ctx context.Context, c *models.Candidate) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, c)
	if mongo.IsDuplicateKeyError(err) {
		return utils.ErrDuplicate
	}
	return err
}

func (r *candidateRepo) GetByID(ctx context.Context, id string) (*models.Candidate, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *candidateRepo) GetByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	return r.findOne(ctx, bson.M{"email": utils.NormalizeEmail(email)})
}

func (r *candidateRepo) GetByAnyEmail(ctx context.Context, email string) (*models.Candidate, error) {
	e := utils.NormalizeEmail(email)
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": e},
		bson.M{"member1.email": e},
		bson.M{"member2.email": e},
		bson.M{"additional_member.email": e},
	}})
}

func (r *candidateRepo) findOne(ctx context.Context, filter bson.M) (*models.Candidate, error) {
	var c models.Candidate
	err := r.col.FindOne(ctx, filter).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *candidateRepo) FindAll(ctx context.Context) ([]models.Candidate, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "last_name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Candidate
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a partial $set. Non-existing ids are a NotFound, never an
// upsert.
func (r *candidateRepo) Update(ctx context.Context, id string, patch *models.CandidatePatch) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": patch})
	if mongo.IsDuplicateKeyError(err) {
		return utils.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *candidateRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *candidateRepo) DeleteAll(ctx context.Context) error {
	_, err := r.col.DeleteMany(ctx, bson.M{})
	return err
}
