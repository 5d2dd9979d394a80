package deviceRepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"snapbook/apperr"
	"snapbook/database"
	"snapbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TokenRepository stores the latest FCM token per account.
type TokenRepository interface {
	Upsert(ctx context.Context, token *models.DeviceToken) error
	Get(ctx context.Context, ownerID string) (*models.DeviceToken, error)
}

// MongoTokenRepo implements TokenRepository using MongoDB.
type MongoTokenRepo struct {
	coll *mongo.Collection
}

func NewMongoTokenRepo(db *mongo.Database) (TokenRepository, error) {
	repo := &MongoTokenRepo{coll: db.Collection("device_tokens")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	idx := mongo.IndexModel{Keys: bson.D{{Key: "ownerId", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := repo.coll.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("failed to create device token index: %w", err)
	}
	return repo, nil
}

func (r *MongoTokenRepo) Upsert(ctx context.Context, token *models.DeviceToken) error {
	ctx, cancel := database.NewContext(ctx, database.OpTimeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"ownerId": token.OwnerID}, token, opts); err != nil {
		return database.Classify("upsert device token "+token.OwnerID, err)
	}
	return nil
}

func (r *MongoTokenRepo) Get(ctx context.Context, ownerID string) (*models.DeviceToken, error) {
	ctx, cancel := database.NewContext(ctx, database.OpTimeout)
	defer cancel()

	var token models.DeviceToken
	if err := r.coll.FindOne(ctx, bson.M{"ownerId": ownerID}).Decode(&token); err != nil {
		return nil, database.Classify("get device token "+ownerID, err)
	}
	return &token, nil
}

// MemoryTokenRepo is an in-process TokenRepository.
type MemoryTokenRepo struct {
	mu     sync.RWMutex
	tokens map[string]models.DeviceToken
}

func NewMemoryTokenRepo() *MemoryTokenRepo {
	return &MemoryTokenRepo{tokens: make(map[string]models.DeviceToken)}
}

func (r *MemoryTokenRepo) Upsert(_ context.Context, token *models.DeviceToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.OwnerID] = *token
	return nil
}

func (r *MemoryTokenRepo) Get(_ context.Context, ownerID string) (*models.DeviceToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[ownerID]
	if !ok {
		return nil, fmt.Errorf("device token %s: %w", ownerID, apperr.ErrNotFound)
	}
	return &t, nil
}
