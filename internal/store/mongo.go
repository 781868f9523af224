// Package store is the MongoDB mirror of the upstream catalog: one
// collection per entity, upsert-by-id as the sole write path.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"valorant-companion/internal/catalog"
	"valorant-companion/internal/config"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by Get when no record carries the requested id.
var ErrNotFound = errors.New("record not found")

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger zerolog.Logger
}

func New(cfg *config.Config, logger zerolog.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &Store{
		client: client,
		db:     client.Database(cfg.MongoDatabase),
		logger: logger,
	}

	for _, coll := range catalog.Collections() {
		indexModel := mongo.IndexModel{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}
		if _, err := s.collection(coll).Indexes().CreateOne(ctx, indexModel); err != nil {
			logger.Warn().Err(err).Str("collection", string(coll)).Msg("failed to create id index")
		}
	}

	logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) collection(c catalog.Collection) *mongo.Collection {
	return s.db.Collection(string(c))
}

// BulkResult summarizes one bulk upsert.
type BulkResult struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
	Upserted int64 `json:"upserted"`
}

// BulkUpsert writes the batch as unordered upserts keyed by id, stamping
// modified_at on every document. Records without an id are skipped. The
// upserts are idempotent, so callers are free to retry chunks.
func (s *Store) BulkUpsert(ctx context.Context, coll catalog.Collection, batch []catalog.Record) (*BulkResult, error) {
	models := make([]mongo.WriteModel, 0, len(batch))
	now := time.Now().UTC()
	for _, rec := range batch {
		id, ok := rec.ID()
		if !ok {
			s.logger.Warn().Str("collection", string(coll)).Msg("skipping record without id")
			continue
		}
		doc := rec.Clone()
		delete(doc, "_id")
		doc["modified_at"] = now
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"id": id}).
			SetUpdate(bson.M{"$set": doc}).
			SetUpsert(true))
	}
	if len(models) == 0 {
		return &BulkResult{}, nil
	}

	res, err := s.collection(coll).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return nil, fmt.Errorf("bulk upsert %s: %w", coll, err)
	}
	return &BulkResult{
		Matched:  res.MatchedCount,
		Modified: res.ModifiedCount,
		Upserted: res.UpsertedCount,
	}, nil
}

// Clear removes every record in the collection.
func (s *Store) Clear(ctx context.Context, coll catalog.Collection) error {
	if _, err := s.collection(coll).DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear %s: %w", coll, err)
	}
	return nil
}

// List returns all records matching the shallow equality filter. Order is
// unspecified; callers sort if they care.
func (s *Store) List(ctx context.Context, coll catalog.Collection, filter map[string]string) ([]catalog.Record, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 0})
	cur, err := s.collection(coll).Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", coll, err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll, err)
	}

	recs := make([]catalog.Record, len(docs))
	for i, doc := range docs {
		recs[i] = normalizeDocument(doc)
	}
	return recs, nil
}

// Get returns the record with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, coll catalog.Collection, id int64) (catalog.Record, error) {
	opts := options.FindOne().SetProjection(bson.M{"_id": 0})
	var doc bson.M
	err := s.collection(coll).FindOne(ctx, bson.M{"id": id}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%d: %w", coll, id, err)
	}
	return normalizeDocument(doc), nil
}
