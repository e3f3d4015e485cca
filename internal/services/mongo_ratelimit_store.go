package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/swapin/backend/internal/models"
)

// MongoRateLimitStore keeps one document per (subject, action) key. The
// read-modify-write cycle in RateLimiter.Check is not atomic across
// replicas; see the RateLimiter doc comment.
type MongoRateLimitStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoRateLimitDoc struct {
	Key         string      `bson:"_id"`
	Requests    []time.Time `bson:"requests"`
	LastUpdated time.Time   `bson:"last_updated"`
}

func NewMongoRateLimitStore(ctx context.Context, mongoURI, dbName string) (*MongoRateLimitStore, error) {
	client, db, err := connectMongo(ctx, mongoURI, dbName)
	if err != nil {
		return nil, err
	}

	coll := db.Collection("rate_limits")

	// Stale keys expire on their own instead of accumulating forever.
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "last_updated", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(24 * 60 * 60),
	})

	log.Printf("MongoDB rate_limits collection ready: db=%s", dbName)
	return &MongoRateLimitStore{client: client, coll: coll}, nil
}

func (s *MongoRateLimitStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoRateLimitStore) Get(ctx context.Context, key string) (*models.RateLimitRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc mongoRateLimitDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &models.RateLimitRecord{
		Key:         doc.Key,
		Requests:    doc.Requests,
		LastUpdated: doc.LastUpdated,
	}, nil
}

func (s *MongoRateLimitStore) Put(ctx context.Context, record *models.RateLimitRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	doc := mongoRateLimitDoc{
		Key:         record.Key,
		Requests:    record.Requests,
		LastUpdated: record.LastUpdated,
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": record.Key}, doc, options.Replace().SetUpsert(true))
	return err
}
