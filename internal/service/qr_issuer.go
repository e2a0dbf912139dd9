package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/roudbar/studio-reservation/internal/model"
	"github.com/roudbar/studio-reservation/internal/repository"
)

// qrImageSize is the side length in pixels of rendered QR images.
const qrImageSize = 256

// IdentityStore is the persistence surface the issuer needs.  The
// Mongo-backed repository.QRIdentityRepo implements it.
type IdentityStore interface {
	GetByUserID(ctx context.Context, userID string) (*model.QRIdentity, error)
	GetByToken(ctx context.Context, token string) (*model.QRIdentity, error)
	Insert(ctx context.Context, id *model.QRIdentity) error
}

// QRIssuer issues and resolves the durable scan identity each user
// carries.  One identity per user, created lazily on first booking,
// never mutated afterwards.
type QRIssuer struct {
	store IdentityStore
	now   func() time.Time
}

// NewQRIssuer constructs a QRIssuer over the given store.
func NewQRIssuer(store IdentityStore) *QRIssuer {
	return &QRIssuer{store: store, now: time.Now}
}

// ResolveOrCreate returns the user's identity, issuing one on first
// call.  Repeated calls return the same token: an existing document
// always wins, and a lost insert race falls back to re-reading the
// winner's document.
func (i *QRIssuer) ResolveOrCreate(ctx context.Context, userID string) (*model.QRIdentity, error) {
	existing, err := i.store.GetByUserID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrQRIdentityNotFound) {
		return nil, err
	}

	token := fmt.Sprintf("USER_%s_%d", userID, i.now().UnixMilli())
	image, err := renderQRImage(token)
	if err != nil {
		return nil, fmt.Errorf("render qr image: %w", err)
	}
	identity := &model.QRIdentity{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		Image:     image,
		CreatedAt: i.now().UTC(),
	}
	if err := i.store.Insert(ctx, identity); err != nil {
		// A concurrent first booking may have inserted already; the
		// unique index on user_id rejects ours, so return theirs.
		if winner, lookupErr := i.store.GetByUserID(ctx, userID); lookupErr == nil {
			return winner, nil
		}
		return nil, err
	}
	return identity, nil
}

// LookupByToken resolves a scanned token to its identity.  Unknown
// tokens yield repository.ErrQRIdentityNotFound, which check-in maps
// to the invalid_qr outcome rather than a failure.
func (i *QRIssuer) LookupByToken(ctx context.Context, token string) (*model.QRIdentity, error) {
	return i.store.GetByToken(ctx, token)
}

// renderQRImage encodes the token as a PNG QR code and wraps it in a
// base64 data URI for direct embedding in API responses.
func renderQRImage(token string) (string, error) {
	png, err := qrcode.Encode(token, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
