package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/roudbar/studio-reservation/internal/model"
	"github.com/roudbar/studio-reservation/internal/repository"
)

// fakeIdentityStore is an in-memory IdentityStore.
type fakeIdentityStore struct {
	byUser     map[string]*model.QRIdentity
	byToken    map[string]*model.QRIdentity
	failInsert error
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{
		byUser:  map[string]*model.QRIdentity{},
		byToken: map[string]*model.QRIdentity{},
	}
}

func (f *fakeIdentityStore) GetByUserID(_ context.Context, userID string) (*model.QRIdentity, error) {
	if id, ok := f.byUser[userID]; ok {
		return id, nil
	}
	return nil, repository.ErrQRIdentityNotFound
}

func (f *fakeIdentityStore) GetByToken(_ context.Context, token string) (*model.QRIdentity, error) {
	if id, ok := f.byToken[token]; ok {
		return id, nil
	}
	return nil, repository.ErrQRIdentityNotFound
}

func (f *fakeIdentityStore) Insert(_ context.Context, id *model.QRIdentity) error {
	if f.failInsert != nil {
		return f.failInsert
	}
	f.byUser[id.UserID] = id
	f.byToken[id.Token] = id
	return nil
}

func TestResolveOrCreateIssuesOnce(t *testing.T) {
	store := newFakeIdentityStore()
	issuer := NewQRIssuer(store)
	issuer.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	first, err := issuer.ResolveOrCreate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if first.Token != "USER_u1_1700000000000" {
		t.Fatalf("token = %q", first.Token)
	}
	if !strings.HasPrefix(first.Image, "data:image/png;base64,") {
		t.Fatalf("image is not a png data uri: %q", first.Image[:32])
	}

	// Later calls, even at a later time, return the original identity.
	issuer.now = func() time.Time { return time.UnixMilli(1_800_000_000_000) }
	second, err := issuer.ResolveOrCreate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if second.Token != first.Token {
		t.Fatalf("token changed: %q vs %q", second.Token, first.Token)
	}
}

func TestResolveOrCreateLostInsertRace(t *testing.T) {
	// A concurrent first booking wins the insert between our read and
	// our write: the unique index rejects our document and we must
	// return the winner's identity.
	winner := &model.QRIdentity{ID: "id1", UserID: "u1", Token: "USER_u1_1"}
	issuer := NewQRIssuer(&raceStore{winner: winner})

	got, err := issuer.ResolveOrCreate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("resolve after lost race: %v", err)
	}
	if got.Token != winner.Token {
		t.Fatalf("got %q, want winner's token %q", got.Token, winner.Token)
	}
}

// raceStore serves not-found on the first read and the winner on
// subsequent reads, with inserts always rejected.
type raceStore struct {
	winner *model.QRIdentity
	calls  int
}

func (r *raceStore) GetByUserID(ctx context.Context, userID string) (*model.QRIdentity, error) {
	r.calls++
	if r.calls == 1 {
		return nil, repository.ErrQRIdentityNotFound
	}
	return r.winner, nil
}

func (r *raceStore) GetByToken(ctx context.Context, token string) (*model.QRIdentity, error) {
	return nil, repository.ErrQRIdentityNotFound
}

func (r *raceStore) Insert(ctx context.Context, id *model.QRIdentity) error {
	return errors.New("duplicate key")
}

// wrappingStore decorates not-found errors the way a store adding
// context would.
type wrappingStore struct {
	inner *fakeIdentityStore
}

func (w *wrappingStore) GetByUserID(ctx context.Context, userID string) (*model.QRIdentity, error) {
	id, err := w.inner.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", userID, err)
	}
	return id, nil
}

func (w *wrappingStore) GetByToken(ctx context.Context, token string) (*model.QRIdentity, error) {
	return w.inner.GetByToken(ctx, token)
}

func (w *wrappingStore) Insert(ctx context.Context, id *model.QRIdentity) error {
	return w.inner.Insert(ctx, id)
}

func TestResolveOrCreateUnwrapsNotFound(t *testing.T) {
	issuer := NewQRIssuer(&wrappingStore{inner: newFakeIdentityStore()})

	identity, err := issuer.ResolveOrCreate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("resolve with wrapped not-found: %v", err)
	}
	if identity.Token == "" {
		t.Fatal("identity not issued")
	}
}

func TestLookupByTokenUnknown(t *testing.T) {
	issuer := NewQRIssuer(newFakeIdentityStore())
	_, err := issuer.LookupByToken(context.Background(), "USER_nobody_0")
	if !errors.Is(err, repository.ErrQRIdentityNotFound) {
		t.Fatalf("err = %v, want ErrQRIdentityNotFound", err)
	}
}
