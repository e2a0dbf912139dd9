package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Open connects to MongoDB and verifies the connection with a ping.
// The returned database handle is safe for concurrent use.  Individual
// document reads and writes are the only atomicity the store provides;
// nothing in this codebase relies on multi-document transactions.
func Open(uri, name string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(25).
		SetConnectTimeout(5*time.Second))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}
	db := client.Database(name)
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

// ensureIndexes creates the unique indexes the repositories rely on:
// duplicate registrations and concurrent first bookings are rejected by
// the store, not by application-level checks.  CreateOne is idempotent
// for an identical existing index.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := func(coll, field string) error {
		_, err := db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("index %s.%s: %w", coll, field, err)
		}
		return nil
	}
	if err := unique("users", "email"); err != nil {
		return err
	}
	if err := unique("qr_identities", "user_id"); err != nil {
		return err
	}
	if err := unique("qr_identities", "token"); err != nil {
		return err
	}
	if err := unique("refresh_tokens", "token_hash"); err != nil {
		return err
	}
	return nil
}

// Close disconnects the client backing the database handle.
func Close(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.Client().Disconnect(ctx)
}
