package model

import "time"

// Role names stored on user documents and embedded in JWT claims.
const (
	RoleMember = "MEMBER"
	RoleCoach  = "COACH"
)

// User represents a studio account document in the `users` collection.
// Members book helmet reservations; coaches own courses and schedules.
//
// Fields:
//  ID           – document identifier (uuid string).
//  Email        – unique, normalized (lowercase) email address.
//  Name         – display name shown on reservations and scan results.
//  PasswordHash – bcrypt hashed password.
//  Role         – MEMBER or COACH.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name" json:"name"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	IsActive     bool      `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// RefreshToken models a document in the `refresh_tokens` collection.
// Only the SHA-256 hash of the token value is stored; the raw token is
// returned to the client once and never persisted.
//
// Fields:
//  ID        – document identifier (uuid string).
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp.
//  RevokedAt – when the token was revoked (nil if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        string     `bson:"_id" json:"id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	TokenHash string     `bson:"token_hash" json:"-"`
	ExpiresAt time.Time  `bson:"expires_at" json:"expires_at"`
	RevokedAt *time.Time `bson:"revoked_at,omitempty" json:"revoked_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
}
