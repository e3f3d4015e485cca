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

type MongoNotificationStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	outbox *mongo.Collection
}

type mongoNotificationDoc struct {
	ID         string            `bson:"_id"`
	FromUserID string            `bson:"from_user_id"`
	ToUserID   string            `bson:"to_user_id"`
	Type       string            `bson:"type"`
	Title      string            `bson:"title"`
	Message    string            `bson:"message"`
	Data       map[string]string `bson:"data,omitempty"`
	IsRead     bool              `bson:"is_read"`
	CreatedAt  time.Time         `bson:"created_at"`
}

type mongoOutboxDoc struct {
	ID             string    `bson:"_id"`
	NotificationID string    `bson:"notification_id"`
	Channel        string    `bson:"channel"`
	Recipient      string    `bson:"recipient"`
	Title          string    `bson:"title"`
	Body           string    `bson:"body"`
	Status         string    `bson:"status"`
	Attempts       int       `bson:"attempts"`
	LastError      string    `bson:"last_error,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func NewMongoNotificationStore(ctx context.Context, mongoURI, dbName string) (*MongoNotificationStore, error) {
	client, db, err := connectMongo(ctx, mongoURI, dbName)
	if err != nil {
		return nil, err
	}

	coll := db.Collection("notifications")
	outbox := db.Collection("notification_outbox")

	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "to_user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	_, _ = outbox.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
	})

	log.Printf("MongoDB notifications collections ready: db=%s", dbName)
	return &MongoNotificationStore{client: client, coll: coll, outbox: outbox}, nil
}

func (s *MongoNotificationStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	doc := mongoNotificationDoc{
		ID:         n.ID,
		FromUserID: n.FromUserID,
		ToUserID:   n.ToUserID,
		Type:       n.Type,
		Title:      n.Title,
		Message:    n.Message,
		Data:       n.Data,
		IsRead:     n.IsRead,
		CreatedAt:  n.CreatedAt,
	}
	_, err := s.coll.InsertOne(ctx, doc)
	return err
}

func (s *MongoNotificationStore) ListForUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if limit <= 0 || limit > 200 {
		limit = 200
	}

	cur, err := s.coll.Find(
		ctx,
		bson.M{"to_user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := make([]*models.Notification, 0)
	for cur.Next(ctx) {
		var doc mongoNotificationDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		results = append(results, &models.Notification{
			ID:         doc.ID,
			FromUserID: doc.FromUserID,
			ToUserID:   doc.ToUserID,
			Type:       doc.Type,
			Title:      doc.Title,
			Message:    doc.Message,
			Data:       doc.Data,
			IsRead:     doc.IsRead,
			CreatedAt:  doc.CreatedAt,
		})
	}
	return results, cur.Err()
}

func (s *MongoNotificationStore) MarkRead(ctx context.Context, userID, notificationID string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := s.coll.UpdateOne(
		ctx,
		bson.M{"_id": notificationID, "to_user_id": userID},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *MongoNotificationStore) EnqueueOutbox(ctx context.Context, e *models.OutboxEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.outbox.InsertOne(ctx, outboxModelToDoc(e))
	return err
}

func (s *MongoNotificationStore) PendingOutbox(ctx context.Context, limit int) ([]*models.OutboxEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 100
	}

	cur, err := s.outbox.Find(
		ctx,
		bson.M{"status": models.OutboxStatusPending},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := make([]*models.OutboxEntry, 0)
	for cur.Next(ctx) {
		var doc mongoOutboxDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		results = append(results, outboxDocToModel(doc))
	}
	return results, cur.Err()
}

func (s *MongoNotificationStore) UpdateOutbox(ctx context.Context, e *models.OutboxEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	doc := outboxModelToDoc(e)
	doc.UpdatedAt = time.Now().UTC()

	res, err := s.outbox.ReplaceOne(ctx, bson.M{"_id": e.ID}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func outboxModelToDoc(e *models.OutboxEntry) mongoOutboxDoc {
	return mongoOutboxDoc{
		ID:             e.ID,
		NotificationID: e.NotificationID,
		Channel:        e.Channel,
		Recipient:      e.Recipient,
		Title:          e.Title,
		Body:           e.Body,
		Status:         e.Status,
		Attempts:       e.Attempts,
		LastError:      e.LastError,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func outboxDocToModel(d mongoOutboxDoc) *models.OutboxEntry {
	return &models.OutboxEntry{
		ID:             d.ID,
		NotificationID: d.NotificationID,
		Channel:        d.Channel,
		Recipient:      d.Recipient,
		Title:          d.Title,
		Body:           d.Body,
		Status:         d.Status,
		Attempts:       d.Attempts,
		LastError:      d.LastError,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
