package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/roudbar/studio-reservation/internal/model"
)

// QRIdentityRepo provides access to the `qr_identities` collection.
// Documents are insert-only: an identity is never mutated or deleted
// once issued.
type QRIdentityRepo struct {
	coll *mongo.Collection
}

// NewQRIdentityRepo returns a QRIdentityRepo bound to the given database.
func NewQRIdentityRepo(db *mongo.Database) *QRIdentityRepo {
	return &QRIdentityRepo{coll: db.Collection("qr_identities")}
}

// GetByUserID fetches the identity issued to a user.  Returns
// ErrQRIdentityNotFound when the user has no identity yet.
func (r *QRIdentityRepo) GetByUserID(ctx context.Context, userID string) (*model.QRIdentity, error) {
	var id model.QRIdentity
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrQRIdentityNotFound
		}
		return nil, err
	}
	return &id, nil
}

// GetByToken resolves a scanned token back to its identity.  Returns
// ErrQRIdentityNotFound for unknown tokens; callers treat that as an
// invalid QR, not a system error.
func (r *QRIdentityRepo) GetByToken(ctx context.Context, token string) (*model.QRIdentity, error) {
	var id model.QRIdentity
	err := r.coll.FindOne(ctx, bson.M{"token": token}).Decode(&id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrQRIdentityNotFound
		}
		return nil, err
	}
	return &id, nil
}

// Insert persists a freshly issued identity.
func (r *QRIdentityRepo) Insert(ctx context.Context, id *model.QRIdentity) error {
	_, err := r.coll.InsertOne(ctx, id)
	return err
}
