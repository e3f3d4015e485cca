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

type MongoPaymentStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoPaymentDoc struct {
	ID             string            `bson:"_id"`
	UserID         string            `bson:"user_id"`
	SwapID         string            `bson:"swap_id"`
	Amount         int64             `bson:"amount"`
	Currency       string            `bson:"currency"`
	Gateway        string            `bson:"gateway"`
	Status         string            `bson:"status"`
	GatewayOrderID string            `bson:"gateway_order_id,omitempty"`
	GatewayFields  map[string]string `bson:"gateway_fields,omitempty"`
	CreatedAt      time.Time         `bson:"created_at"`
	UpdatedAt      time.Time         `bson:"updated_at"`
}

func NewMongoPaymentStore(ctx context.Context, mongoURI, dbName string) (*MongoPaymentStore, error) {
	client, db, err := connectMongo(ctx, mongoURI, dbName)
	if err != nil {
		return nil, err
	}

	coll := db.Collection("payments")

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "swap_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})

	log.Printf("MongoDB payments collection ready: db=%s", dbName)
	return &MongoPaymentStore{client: client, coll: coll}, nil
}

func (s *MongoPaymentStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func paymentDocToModel(d mongoPaymentDoc) *models.Payment {
	return &models.Payment{
		ID:             d.ID,
		UserID:         d.UserID,
		SwapID:         d.SwapID,
		Amount:         d.Amount,
		Currency:       d.Currency,
		Gateway:        d.Gateway,
		Status:         d.Status,
		GatewayOrderID: d.GatewayOrderID,
		GatewayFields:  d.GatewayFields,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func (s *MongoPaymentStore) Create(ctx context.Context, p *models.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	doc := mongoPaymentDoc{
		ID:             p.ID,
		UserID:         p.UserID,
		SwapID:         p.SwapID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Gateway:        p.Gateway,
		Status:         p.Status,
		GatewayOrderID: p.GatewayOrderID,
		GatewayFields:  p.GatewayFields,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}

	_, err := s.coll.InsertOne(ctx, doc)
	return err
}

func (s *MongoPaymentStore) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc mongoPaymentDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return paymentDocToModel(doc), nil
}

// SetStatus performs the single pending -> completed|failed transition with a
// conditional update, so a payment that already left pending cannot be
// rewritten by a late or duplicate verify call.
func (s *MongoPaymentStore) SetStatus(ctx context.Context, id, status string, fields map[string]string) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	set := bson.M{"status": status, "updated_at": time.Now().UTC()}
	if fields != nil {
		set["gateway_fields"] = fields
	}

	res := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "status": models.PaymentStatusPending},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated mongoPaymentDoc
	if err := res.Decode(&updated); err != nil {
		if err != mongo.ErrNoDocuments {
			return nil, err
		}
		var existing mongoPaymentDoc
		if err2 := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&existing); err2 != nil {
			if err2 == mongo.ErrNoDocuments {
				return nil, ErrPaymentNotFound
			}
			return nil, err2
		}
		return nil, ErrPaymentClosed
	}
	return paymentDocToModel(updated), nil
}

func (s *MongoPaymentStore) CompletePendingForSwap(ctx context.Context, swapID string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := s.coll.UpdateMany(
		ctx,
		bson.M{"swap_id": swapID, "status": models.PaymentStatusPending},
		bson.M{"$set": bson.M{"status": models.PaymentStatusCompleted, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount > 0 {
		log.Printf("[payments] %d payment(s) completed via swap %s", res.ModifiedCount, swapID)
	}
	return nil
}
