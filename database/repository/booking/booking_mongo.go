package bookingRepo

import (
	"context"
	"errors"
	"fmt"

	"snapbook/apperr"
	"snapbook/database"
	"snapbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo binds the "bookings" collection and ensures its indexes.
func NewMongoBookingRepo(db *mongo.Database) (BookingRepository, error) {
	repo := &MongoBookingRepo{coll: db.Collection("bookings")}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := database.NewContext(ctx, database.OpTimeout)
	defer cancel()

	booking.Active = booking.Status.IsOutstanding()
	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return database.Classify("create booking "+booking.ID, err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := database.NewContext(ctx, database.OpTimeout)
	defer cancel()

	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		return nil, database.Classify("get booking "+id, err)
	}
	return &booking, nil
}

func (r *MongoBookingRepo) UpdateIfStatus(ctx context.Context, id string, expected []models.BookingStatus, update BookingUpdate) (*models.Booking, error) {
	ctx, cancel := database.NewContext(ctx, database.OpTimeout)
	defer cancel()

	filter := bson.M{
		"id":     id,
		"status": bson.M{"$in": expected},
	}
	set := bson.M{"updatedAt": update.UpdatedAt}
	if update.Status != nil {
		set["status"] = *update.Status
		set["active"] = update.Status.IsOutstanding()
	}
	if update.CompletedAt != nil {
		set["completedAt"] = *update.CompletedAt
	}
	if update.Rating != nil {
		set["rating"] = *update.Rating
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var booking models.Booking
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.missOrConflict(ctx, id)
	}
	if err != nil {
		return nil, database.Classify("update booking "+id, err)
	}
	return &booking, nil
}

// missOrConflict tells a lost compare-and-swap apart from an unknown id.
func (r *MongoBookingRepo) missOrConflict(ctx context.Context, id string) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"id": id})
	if err != nil {
		return database.Classify("count booking "+id, err)
	}
	if n == 0 {
		return fmt.Errorf("booking %s: %w", id, apperr.ErrNotFound)
	}
	return fmt.Errorf("booking %s: %w", id, apperr.ErrConflict)
}

func (r *MongoBookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	ctx, cancel := database.NewContext(ctx, 2*database.OpTimeout)
	defer cancel()

	query := bson.M{}
	if filter.ClientID != "" {
		query["clientId"] = filter.ClientID
	}
	if filter.PhotographerID != "" {
		query["photographerId"] = filter.PhotographerID
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	return r.find(ctx, query, opts)
}

func (r *MongoBookingRepo) ListActiveByPhotographer(ctx context.Context, photographerID string) ([]models.Booking, error) {
	ctx, cancel := database.NewContext(ctx, database.OpTimeout)
	defer cancel()

	return r.find(ctx, bson.M{"photographerId": photographerID, "active": true}, options.Find())
}

func (r *MongoBookingRepo) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.Booking, error) {
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, database.Classify("find bookings", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	for cursor.Next(ctx) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, database.Classify("booking cursor", err)
	}
	return bookings, nil
}
