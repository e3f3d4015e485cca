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

type MongoSwapService struct {
	client *mongo.Client
	coll   *mongo.Collection
	items  ItemService
}

type mongoSwapDoc struct {
	ID                  string    `bson:"_id"`
	ItemOfferedID       string    `bson:"item_offered_id"`
	ItemRequestedID     string    `bson:"item_requested_id"`
	OfferedByUserID     string    `bson:"offered_by_user_id"`
	RequestedFromUserID string    `bson:"requested_from_user_id"`
	NetAmount           int64     `bson:"net_amount"`
	Status              string    `bson:"status"`
	CreatedAt           time.Time `bson:"created_at"`
	UpdatedAt           time.Time `bson:"updated_at"`
}

func NewMongoSwapService(ctx context.Context, mongoURI, dbName string, items ItemService) (*MongoSwapService, error) {
	client, db, err := connectMongo(ctx, mongoURI, dbName)
	if err != nil {
		return nil, err
	}

	coll := db.Collection("swaps")

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "offered_by_user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "requested_from_user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})

	log.Printf("MongoDB swaps collection ready: db=%s", dbName)
	return &MongoSwapService{client: client, coll: coll, items: items}, nil
}

func (s *MongoSwapService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func swapDocToModel(d mongoSwapDoc) *models.Swap {
	return &models.Swap{
		ID:                  d.ID,
		ItemOfferedID:       d.ItemOfferedID,
		ItemRequestedID:     d.ItemRequestedID,
		OfferedByUserID:     d.OfferedByUserID,
		RequestedFromUserID: d.RequestedFromUserID,
		NetAmount:           d.NetAmount,
		Status:              d.Status,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

func (s *MongoSwapService) Propose(ctx context.Context, actingUserID string, req *models.ProposeSwapRequest) (*models.Swap, error) {
	offered, err := s.items.GetByID(ctx, req.ItemOfferedID)
	if err != nil {
		return nil, err
	}
	requested, err := s.items.GetByID(ctx, req.ItemRequestedID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	doc := mongoSwapDoc{
		ID:                  uuid.New().String(),
		ItemOfferedID:       offered.ID,
		ItemRequestedID:     requested.ID,
		OfferedByUserID:     actingUserID,
		RequestedFromUserID: requested.OwnerID,
		NetAmount:           requested.Price - offered.Price,
		Status:              models.SwapStatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return swapDocToModel(doc), nil
}

func (s *MongoSwapService) Accept(ctx context.Context, actingUserID, swapID string) (*models.Swap, error) {
	return s.transition(ctx, actingUserID, swapID, models.SwapStatusAccepted)
}

func (s *MongoSwapService) Decline(ctx context.Context, actingUserID, swapID string) (*models.Swap, error) {
	return s.transition(ctx, actingUserID, swapID, models.SwapStatusDeclined)
}

// transition flips a pending swap in one conditional update so two racing
// decisions cannot both win.
func (s *MongoSwapService) transition(ctx context.Context, actingUserID, swapID, status string) (*models.Swap, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":                    swapID,
			"requested_from_user_id": actingUserID,
			"status":                 models.SwapStatusPending,
		},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated mongoSwapDoc
	if err := res.Decode(&updated); err != nil {
		if err != mongo.ErrNoDocuments {
			return nil, err
		}
		// Work out which precondition failed.
		var existing mongoSwapDoc
		if err2 := s.coll.FindOne(ctx, bson.M{"_id": swapID}).Decode(&existing); err2 != nil {
			if err2 == mongo.ErrNoDocuments {
				return nil, ErrSwapNotFound
			}
			return nil, err2
		}
		if existing.RequestedFromUserID != actingUserID {
			return nil, ErrNotSwapRecipient
		}
		return nil, ErrSwapClosed
	}
	return swapDocToModel(updated), nil
}

func (s *MongoSwapService) GetByID(ctx context.Context, swapID string) (*models.Swap, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc mongoSwapDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": swapID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSwapNotFound
		}
		return nil, err
	}
	return swapDocToModel(doc), nil
}

func (s *MongoSwapService) ListForUser(ctx context.Context, userID string) ([]*models.Swap, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cur, err := s.coll.Find(
		ctx,
		bson.M{"$or": []bson.M{
			{"offered_by_user_id": userID},
			{"requested_from_user_id": userID},
		}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := make([]*models.Swap, 0)
	for cur.Next(ctx) {
		var doc mongoSwapDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		results = append(results, swapDocToModel(doc))
	}
	return results, cur.Err()
}
