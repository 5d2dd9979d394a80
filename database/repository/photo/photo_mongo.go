package photoRepo

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

// MongoPhotoRepo implements PhotoRepository using MongoDB.
type MongoPhotoRepo struct {
	coll *mongo.Collection
}

// NewMongoPhotoRepo binds the "photos" collection.
func NewMongoPhotoRepo(db *mongo.Database) (PhotoRepository, error) {
	repo := &MongoPhotoRepo{coll: db.Collection("photos")}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoPhotoRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "bookingId", Value: 1}, {Key: "uploadedAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "uploadedAt", Value: -1}}},
		{Keys: bson.D{{Key: "clientId", Value: 1}}},
		{Keys: bson.D{{Key: "photographerId", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create photo indexes: %w", err)
	}
	return nil
}

func (r *MongoPhotoRepo) Create(ctx context.Context, photo *models.Photo) error {
	ctx, cancel := database.NewContext(ctx, database.OpTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, photo); err != nil {
		return database.Classify("create photo "+photo.ID, err)
	}
	return nil
}

func (r *MongoPhotoRepo) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	ctx, cancel := database.NewContext(ctx, database.OpTimeout)
	defer cancel()

	var photo models.Photo
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&photo); err != nil {
		return nil, database.Classify("get photo "+id, err)
	}
	return &photo, nil
}

func (r *MongoPhotoRepo) CompareAndSet(ctx context.Context, id string, cond PhotoCondition, update PhotoUpdate) (*models.Photo, error) {
	ctx, cancel := database.NewContext(ctx, database.OpTimeout)
	defer cancel()

	filter := bson.M{"id": id}
	if cond.Version != nil {
		filter["version"] = *cond.Version
	}
	if len(cond.Statuses) > 0 {
		filter["status"] = bson.M{"$in": cond.Statuses}
	}

	set := bson.M{"updatedAt": update.UpdatedAt}
	unset := bson.M{}
	setOrUnset := func(field string, v *string) {
		if v == nil {
			return
		}
		if *v == "" {
			unset[field] = ""
			return
		}
		set[field] = *v
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.FileRef != nil {
		set["fileRef"] = *update.FileRef
	}
	if update.ThumbnailRef != nil {
		set["thumbnailRef"] = *update.ThumbnailRef
	}
	setOrUnset("rejectionReason", update.RejectionReason)
	setOrUnset("reviewedBy", update.ReviewedBy)
	if update.ClearEnhance {
		set["isEnhanced"] = false
		unset["enhancedRef"] = ""
		unset["enhanceSettings"] = ""
	}
	if update.IsEnhanced != nil {
		set["isEnhanced"] = *update.IsEnhanced
	}
	setOrUnset("enhancedRef", update.EnhancedRef)
	if update.EnhanceSettings != nil {
		set["enhanceSettings"] = *update.EnhanceSettings
	}

	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	if update.BumpVersion {
		doc["$inc"] = bson.M{"version": 1}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var photo models.Photo
	err := r.coll.FindOneAndUpdate(ctx, filter, doc, opts).Decode(&photo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := r.coll.CountDocuments(ctx, bson.M{"id": id})
		if cerr != nil {
			return nil, database.Classify("count photo "+id, cerr)
		}
		if n == 0 {
			return nil, fmt.Errorf("photo %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("photo %s: %w", id, apperr.ErrConflict)
	}
	if err != nil {
		return nil, database.Classify("update photo "+id, err)
	}
	return &photo, nil
}

func (r *MongoPhotoRepo) List(ctx context.Context, filter models.PhotoFilter) ([]models.Photo, error) {
	ctx, cancel := database.NewContext(ctx, 2*database.OpTimeout)
	defer cancel()

	query := bson.M{}
	if filter.BookingID != "" {
		query["bookingId"] = filter.BookingID
	}
	if filter.ClientID != "" {
		query["clientId"] = filter.ClientID
	}
	if filter.PhotographerID != "" {
		query["photographerId"] = filter.PhotographerID
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, database.Classify("find photos", err)
	}
	defer cursor.Close(ctx)

	photos := []models.Photo{}
	if err := cursor.All(ctx, &photos); err != nil {
		return nil, database.Classify("decode photos", err)
	}
	return photos, nil
}
