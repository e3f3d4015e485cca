package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/swapin/backend/internal/models"
)

type MongoDeliveryStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDeliveryDoc struct {
	ID            string    `bson:"_id"`
	SwapID        string    `bson:"swap_id"`
	UserID        string    `bson:"user_id"`
	Courier       string    `bson:"courier"`
	PickupAddress string    `bson:"pickup_address"`
	DropAddress   string    `bson:"drop_address"`
	Status        string    `bson:"status"`
	TrackingURL   string    `bson:"tracking_url,omitempty"`
	CourierRef    string    `bson:"courier_ref,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func NewMongoDeliveryStore(ctx context.Context, mongoURI, dbName string) (*MongoDeliveryStore, error) {
	client, db, err := connectMongo(ctx, mongoURI, dbName)
	if err != nil {
		return nil, err
	}

	coll := db.Collection("deliveries")

	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "swap_id", Value: 1}},
	})

	log.Printf("MongoDB deliveries collection ready: db=%s", dbName)
	return &MongoDeliveryStore{client: client, coll: coll}, nil
}

func (s *MongoDeliveryStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoDeliveryStore) Create(ctx context.Context, d *models.Delivery) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	doc := mongoDeliveryDoc{
		ID:            d.ID,
		SwapID:        d.SwapID,
		UserID:        d.UserID,
		Courier:       d.Courier,
		PickupAddress: d.PickupAddress,
		DropAddress:   d.DropAddress,
		Status:        d.Status,
		TrackingURL:   d.TrackingURL,
		CourierRef:    d.CourierRef,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	_, err := s.coll.InsertOne(ctx, doc)
	return err
}

func (s *MongoDeliveryStore) GetByID(ctx context.Context, id string) (*models.Delivery, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc mongoDeliveryDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrDeliveryNotFound
		}
		return nil, err
	}
	return &models.Delivery{
		ID:            doc.ID,
		SwapID:        doc.SwapID,
		UserID:        doc.UserID,
		Courier:       doc.Courier,
		PickupAddress: doc.PickupAddress,
		DropAddress:   doc.DropAddress,
		Status:        doc.Status,
		TrackingURL:   doc.TrackingURL,
		CourierRef:    doc.CourierRef,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}, nil
}
