package model

import "time"

// QRIdentity is the durable scan identity issued once per user, stored
// in the `qr_identities` collection.  The token is opaque and never
// reused across users; the image is derived from the token and can be
// regenerated.  Identities are created lazily on first booking and are
// never mutated or deleted afterwards.
//
// Fields:
//  ID        – document identifier (uuid string).
//  UserID    – owning user; at most one identity per user.
//  Token     – opaque token, USER_<userId>_<unixMillis>.
//  Image     – rendered QR code as a base64 PNG data URI.
//  CreatedAt – timestamp of creation.
type QRIdentity struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Token     string    `bson:"token" json:"token"`
	Image     string    `bson:"image" json:"image"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
