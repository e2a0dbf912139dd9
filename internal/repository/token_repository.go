package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/roudbar/studio-reservation/internal/model"
)

// ErrInvalidRefresh is returned when a refresh token hash does not
// correspond to an active, unexpired token.
var ErrInvalidRefresh = errors.New("invalid refresh token")

// TokenRepo provides access to the `refresh_tokens` collection.
type TokenRepo struct {
	coll *mongo.Collection
}

// NewTokenRepo returns a TokenRepo bound to the given database.
func NewTokenRepo(db *mongo.Database) *TokenRepo {
	return &TokenRepo{coll: db.Collection("refresh_tokens")}
}

// StoreRefresh persists a hashed refresh token for a user.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	t := model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.coll.InsertOne(ctx, t)
	return err
}

// ValidateRefresh returns the owning user ID when the hash matches an
// unrevoked, unexpired token; otherwise ErrInvalidRefresh.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	filter := bson.M{
		"token_hash": tokenHash,
		"revoked_at": bson.M{"$exists": false},
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}
	var t model.RefreshToken
	if err := r.coll.FindOne(ctx, filter).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrInvalidRefresh
		}
		return "", err
	}
	return t.UserID, nil
}

// RevokeByHash marks a single token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	now := time.Now().UTC()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"token_hash": tokenHash},
		bson.M{"$set": bson.M{"revoked_at": now}})
	return err
}

// RevokeAllForUser revokes every active token of a user, logging them
// out of all sessions.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"user_id": userID, "revoked_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revoked_at": now}})
	return err
}
