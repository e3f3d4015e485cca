package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/swapin/backend/internal/models"
)

// Wishlist and cart share the same shape: a unique (user_id, item_id) pair
// with a creation time. Both Mongo services lean on the same doc layout.

type mongoEntryDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	ItemID    string    `bson:"item_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func newEntryCollection(ctx context.Context, mongoURI, dbName, collName string) (*mongo.Client, *mongo.Collection, error) {
	client, db, err := connectMongo(ctx, mongoURI, dbName)
	if err != nil {
		return nil, nil, err
	}

	coll := db.Collection(collName)

	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "item_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	log.Printf("MongoDB %s collection ready: db=%s", collName, dbName)
	return client, coll, nil
}

type MongoWishlistService struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoWishlistService(ctx context.Context, mongoURI, dbName string) (*MongoWishlistService, error) {
	client, coll, err := newEntryCollection(ctx, mongoURI, dbName, "wishlists")
	if err != nil {
		return nil, err
	}
	return &MongoWishlistService{client: client, coll: coll}, nil
}

func (s *MongoWishlistService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoWishlistService) Add(ctx context.Context, userID, itemID string) (*models.WishlistEntry, error) {
	doc, err := addEntry(ctx, s.coll, userID, itemID)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyInWishlist
		}
		return nil, err
	}
	return &models.WishlistEntry{ID: doc.ID, UserID: doc.UserID, ItemID: doc.ItemID, CreatedAt: doc.CreatedAt}, nil
}

func (s *MongoWishlistService) Remove(ctx context.Context, userID, itemID string) error {
	removed, err := removeEntry(ctx, s.coll, userID, itemID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrWishlistEntryNotFound
	}
	return nil
}

func (s *MongoWishlistService) List(ctx context.Context, userID string) ([]*models.WishlistEntry, error) {
	docs, err := listEntries(ctx, s.coll, userID)
	if err != nil {
		return nil, err
	}
	results := make([]*models.WishlistEntry, 0, len(docs))
	for _, d := range docs {
		results = append(results, &models.WishlistEntry{ID: d.ID, UserID: d.UserID, ItemID: d.ItemID, CreatedAt: d.CreatedAt})
	}
	return results, nil
}

type MongoCartService struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoCartService(ctx context.Context, mongoURI, dbName string) (*MongoCartService, error) {
	client, coll, err := newEntryCollection(ctx, mongoURI, dbName, "carts")
	if err != nil {
		return nil, err
	}
	return &MongoCartService{client: client, coll: coll}, nil
}

func (s *MongoCartService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoCartService) Add(ctx context.Context, userID, itemID string) (*models.CartEntry, error) {
	doc, err := addEntry(ctx, s.coll, userID, itemID)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyInCart
		}
		return nil, err
	}
	return &models.CartEntry{ID: doc.ID, UserID: doc.UserID, ItemID: doc.ItemID, CreatedAt: doc.CreatedAt}, nil
}

func (s *MongoCartService) Remove(ctx context.Context, userID, itemID string) error {
	removed, err := removeEntry(ctx, s.coll, userID, itemID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrCartEntryNotFound
	}
	return nil
}

func (s *MongoCartService) List(ctx context.Context, userID string) ([]*models.CartEntry, error) {
	docs, err := listEntries(ctx, s.coll, userID)
	if err != nil {
		return nil, err
	}
	results := make([]*models.CartEntry, 0, len(docs))
	for _, d := range docs {
		results = append(results, &models.CartEntry{ID: d.ID, UserID: d.UserID, ItemID: d.ItemID, CreatedAt: d.CreatedAt})
	}
	return results, nil
}

func addEntry(ctx context.Context, coll *mongo.Collection, userID, itemID string) (*mongoEntryDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	doc := mongoEntryDoc{
		ID:        uuid.New().String(),
		UserID:    userID,
		ItemID:    itemID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func removeEntry(ctx context.Context, coll *mongo.Collection, userID, itemID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := coll.DeleteOne(ctx, bson.M{"user_id": userID, "item_id": itemID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func listEntries(ctx context.Context, coll *mongo.Collection, userID string) ([]mongoEntryDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cur, err := coll.Find(
		ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []mongoEntryDoc
	for cur.Next(ctx) {
		var d mongoEntryDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, cur.Err()
}
