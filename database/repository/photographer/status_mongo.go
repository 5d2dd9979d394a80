package photographerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snapbook/apperr"
	"snapbook/database"
	"snapbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStatusRepo implements StatusRepository using MongoDB.
type MongoStatusRepo struct {
	coll *mongo.Collection
}

// NewMongoStatusRepo binds the "photographer_status" collection.
func NewMongoStatusRepo(db *mongo.Database) (StatusRepository, error) {
	repo := &MongoStatusRepo{coll: db.Collection("photographer_status")}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoStatusRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "photographerId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "availability", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}, Options: options.Index().SetSparse(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create photographer status indexes: %w", err)
	}
	return nil
}

func (r *MongoStatusRepo) Get(ctx context.Context, photographerID string) (*models.PhotographerStatus, error) {
	ctx, cancel := database.NewContext(ctx, database.OpTimeout)
	defer cancel()

	var status models.PhotographerStatus
	if err := r.coll.FindOne(ctx, bson.M{"photographerId": photographerID}).Decode(&status); err != nil {
		return nil, database.Classify("get photographer status "+photographerID, err)
	}
	return &status, nil
}

func (r *MongoStatusRepo) Create(ctx context.Context, status *models.PhotographerStatus) error {
	ctx, cancel := database.NewContext(ctx, database.OpTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, status); err != nil {
		return database.Classify("create photographer status "+status.PhotographerID, err)
	}
	return nil
}

func (r *MongoStatusRepo) CompareAndSet(ctx context.Context, photographerID string, cond StatusCondition, update StatusUpdate) (*models.PhotographerStatus, error) {
	ctx, cancel := database.NewContext(ctx, database.OpTimeout)
	defer cancel()

	filter := bson.M{"photographerId": photographerID}
	if len(cond.Availability) > 0 {
		filter["availability"] = bson.M{"$in": cond.Availability}
	}
	if cond.BookingID != nil {
		if *cond.BookingID == "" {
			filter["currentBookingId"] = bson.M{"$in": bson.A{nil, ""}}
		} else {
			filter["currentBookingId"] = *cond.BookingID
		}
	}
	if cond.Version != nil {
		filter["version"] = *cond.Version
	}

	set := bson.M{
		"availability":  update.Availability,
		"lastChangedAt": update.ChangedAt,
	}
	unset := bson.M{}
	if update.Location != nil {
		set["location"] = *update.Location
	}
	if update.ClearLocation {
		unset["location"] = ""
	}
	if update.CurrentBookingID != nil {
		if *update.CurrentBookingID == "" {
			unset["currentBookingId"] = ""
		} else {
			set["currentBookingId"] = *update.CurrentBookingID
		}
	}
	doc := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var status models.PhotographerStatus
	err := r.coll.FindOneAndUpdate(ctx, filter, doc, opts).Decode(&status)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := r.coll.CountDocuments(ctx, bson.M{"photographerId": photographerID})
		if cerr != nil {
			return nil, database.Classify("count photographer status "+photographerID, cerr)
		}
		if n == 0 {
			return nil, fmt.Errorf("photographer %s: %w", photographerID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("photographer %s: %w", photographerID, apperr.ErrConflict)
	}
	if err != nil {
		return nil, database.Classify("update photographer status "+photographerID, err)
	}
	return &status, nil
}

func (r *MongoStatusRepo) ListLive(ctx context.Context) ([]models.PhotographerStatus, error) {
	ctx, cancel := database.NewContext(ctx, 4*database.OpTimeout)
	defer cancel()

	filter := bson.M{"availability": bson.M{"$ne": models.AvailabilityOffline}}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, database.Classify("list live photographers", err)
	}
	defer cursor.Close(ctx)

	statuses := []models.PhotographerStatus{}
	if err := cursor.All(ctx, &statuses); err != nil {
		return nil, database.Classify("decode live photographers", err)
	}
	return statuses, nil
}
