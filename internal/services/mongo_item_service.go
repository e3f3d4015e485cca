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

type MongoItemService struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoItemDoc struct {
	ID          string    `bson:"_id"`
	OwnerID     string    `bson:"owner_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Images      []string  `bson:"images,omitempty"`
	Category    string    `bson:"category"`
	Price       int64     `bson:"price"`
	Condition   string    `bson:"condition"`
	Status      string    `bson:"status"`
	Verified    bool      `bson:"verified"`
	Tags        []string  `bson:"tags,omitempty"`
	Views       int64     `bson:"views"`
	Likes       int64     `bson:"likes"`
	Offers      int64     `bson:"offers"`
	CreatedAt   time.Time `bson:"created_at"`
}

func NewMongoItemService(ctx context.Context, mongoURI, dbName string) (*MongoItemService, error) {
	client, db, err := connectMongo(ctx, mongoURI, dbName)
	if err != nil {
		return nil, err
	}

	coll := db.Collection("items")

	// Best-effort indexes.
	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})

	log.Printf("MongoDB items collection ready: db=%s", dbName)
	return &MongoItemService{client: client, coll: coll}, nil
}

func (s *MongoItemService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func itemDocToModel(d mongoItemDoc) *models.Item {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return &models.Item{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		Description: d.Description,
		Images:      images,
		Category:    d.Category,
		Price:       d.Price,
		Condition:   d.Condition,
		Status:      d.Status,
		Verified:    d.Verified,
		Tags:        d.Tags,
		Views:       d.Views,
		Likes:       d.Likes,
		Offers:      d.Offers,
		CreatedAt:   d.CreatedAt,
	}
}

func (s *MongoItemService) Create(ctx context.Context, ownerID string, req *models.CreateItemRequest) (*models.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	images := req.Images
	if images == nil {
		images = []string{}
	}

	doc := mongoItemDoc{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Images:      images,
		Category:    req.Category,
		Price:       req.Price,
		Condition:   req.Condition,
		Status:      models.ItemStatusActive,
		Tags:        req.Tags,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return itemDocToModel(doc), nil
}

func (s *MongoItemService) GetByID(ctx context.Context, itemID string) (*models.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc mongoItemDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": itemID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return itemDocToModel(doc), nil
}

func (s *MongoItemService) Update(ctx context.Context, ownerID, itemID string, req *models.UpdateItemRequest) (*models.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	set := bson.M{
		"title":       req.Title,
		"description": req.Description,
		"category":    req.Category,
		"price":       req.Price,
		"condition":   req.Condition,
		"tags":        req.Tags,
	}
	if req.Images != nil {
		set["images"] = req.Images
	}
	if req.Status != "" {
		set["status"] = req.Status
	}

	res := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": itemID, "owner_id": ownerID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated mongoItemDoc
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			// Distinguish not found vs not owner.
			var exists mongoItemDoc
			if err2 := s.coll.FindOne(ctx, bson.M{"_id": itemID}).Decode(&exists); err2 == mongo.ErrNoDocuments {
				return nil, ErrItemNotFound
			}
			return nil, ErrNotItemOwner
		}
		return nil, err
	}
	return itemDocToModel(updated), nil
}

func (s *MongoItemService) Delete(ctx context.Context, ownerID, itemID string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc mongoItemDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": itemID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrItemNotFound
		}
		return err
	}
	if doc.OwnerID != ownerID {
		return ErrNotItemOwner
	}

	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": itemID})
	return err
}

func (s *MongoItemService) ListActive(ctx context.Context, limit int) ([]*models.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if limit <= 0 || limit > 500 {
		limit = 500
	}

	cur, err := s.coll.Find(
		ctx,
		bson.M{"status": models.ItemStatusActive},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := make([]*models.Item, 0)
	for cur.Next(ctx) {
		var doc mongoItemDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		results = append(results, itemDocToModel(doc))
	}
	return results, cur.Err()
}

// Counter updates use $inc so concurrent increments are never lost.

func (s *MongoItemService) RecordView(ctx context.Context, itemID string) error {
	return s.incCounter(ctx, itemID, "views")
}

func (s *MongoItemService) RecordLike(ctx context.Context, itemID string) (*models.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": itemID},
		bson.M{"$inc": bson.M{"likes": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated mongoItemDoc
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return itemDocToModel(updated), nil
}

func (s *MongoItemService) RecordOffer(ctx context.Context, itemID string) error {
	return s.incCounter(ctx, itemID, "offers")
}

func (s *MongoItemService) incCounter(ctx context.Context, itemID, field string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": itemID}, bson.M{"$inc": bson.M{field: 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}
