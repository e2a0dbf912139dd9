package model

import "time"

// Course represents a dance course owned by a coach.  Schedules are
// concrete occurrences of a course; reservations reference both.
//
// Fields:
//  ID        – document identifier (uuid string).
//  Name      – course display name (e.g. "Beginner Hip-Hop").
//  CoachID   – user ID of the owning coach.
//  CoachName – denormalized coach display name.
//  Location  – default studio room for the course.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Course struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	CoachID   string    `bson:"coach_id" json:"coach_id"`
	CoachName string    `bson:"coach_name" json:"coach_name"`
	Location  string    `bson:"location" json:"location"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
