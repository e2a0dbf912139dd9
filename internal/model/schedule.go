package model

import "time"

// Schedule is one concrete time/location occurrence of a course.
// Schedules are created by coaches and referenced by reservations.
// StartTime is stored as a raw bson value because historical documents
// carry several shapes (native date, {seconds,...} maps, epoch numbers,
// strings); use utils.NormalizeTimestamp to obtain a time.Time.
//
// Fields:
//  ID        – document identifier (uuid string).
//  CourseID  – course this occurrence belongs to.
//  Title     – display title, defaults to the course name.
//  StartTime – raw start instant (multi-shape, see above).
//  EndTime   – raw end instant.
//  Location  – studio room.
//  CreatedBy – user ID of the coach who created the schedule.
//  CreatedAt – timestamp of creation.
type Schedule struct {
	ID        string      `bson:"_id" json:"id"`
	CourseID  string      `bson:"course_id" json:"course_id"`
	Title     string      `bson:"title" json:"title"`
	StartTime interface{} `bson:"start_time" json:"start_time"`
	EndTime   interface{} `bson:"end_time" json:"end_time"`
	Location  string      `bson:"location" json:"location"`
	CreatedBy string      `bson:"created_by" json:"created_by"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
}
