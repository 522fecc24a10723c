package articles

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"readlater/internal/models"
)

// ErrNotFound is returned when a delete targets an id with no document.
var ErrNotFound = errors.New("article not found")

// Repository is the persistence surface for saved articles. Records are
// immutable after Insert; Delete is the only mutation.
type Repository interface {
	Insert(ctx context.Context, a *models.Article) error
	Get(ctx context.Context, id string) (models.Article, error)
	Recent(ctx context.Context, limit int) ([]models.Article, error)
	List(ctx context.Context) ([]models.Article, error)
	Delete(ctx context.Context, id string) error
}

type mongoRepository struct {
	col    *mongo.Collection
	logger *zap.Logger
}

// NewMongoRepository builds the repository over the saved_articles collection
// and ensures the timeAdded index that backs listing and digest ordering.
func NewMongoRepository(db *mongo.Database, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	repo := &mongoRepository{
		col:    db.Collection("saved_articles"),
		logger: logger,
	}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *mongoRepository) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "timeAdded", Value: -1}},
		},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		r.logger.Warn("failed to create indexes", zap.Error(err))
	}
	return err
}

func (r *mongoRepository) Insert(ctx context.Context, a *models.Article) error {
	_, err := r.col.InsertOne(ctx, a)
	if err != nil {
		return err
	}
	r.logger.Info("article saved", zap.String("docId", a.ID), zap.String("url", a.URL))
	return nil
}

func (r *mongoRepository) Get(ctx context.Context, id string) (models.Article, error) {
	var a models.Article
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Article{}, ErrNotFound
	}
	if err != nil {
		return models.Article{}, err
	}
	return a, nil
}

// Recent returns at most limit articles ordered by timeAdded descending.
func (r *mongoRepository) Recent(ctx context.Context, limit int) ([]models.Article, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timeAdded", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, opts)
}

// List returns every article ordered by timeAdded descending.
func (r *mongoRepository) List(ctx context.Context) ([]models.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timeAdded", Value: -1}})
	return r.find(ctx, opts)
}

func (r *mongoRepository) find(ctx context.Context, opts *options.FindOptions) ([]models.Article, error) {
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := make([]models.Article, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	r.logger.Info("article deleted", zap.String("docId", id))
	return nil
}
