package model

import "time"

// Reservation status values.  booked is the initial state; checked_in
// and cancelled are terminal.
const (
	StatusBooked    = "booked"
	StatusCheckedIn = "checked_in"
	StatusCancelled = "cancelled"
)

// Reservation records a member's helmet booking for one schedule.
// User and course fields are snapshots taken at booking time so scan
// results render without extra lookups.  Status is mutated only by the
// check-in and cancel transitions in the reservation service.
//
// Fields:
//  ID              – document identifier (uuid string).
//  UserID          – member who booked.
//  UserName        – member display name snapshot.
//  UserEmail       – member email snapshot.
//  CourseID        – course of the booked schedule.
//  CourseName      – course name snapshot.
//  ScheduleID      – schedule being reserved.
//  CoachID         – coach owning the schedule's course.
//  ReservationDate – when the booking was made.
//  ClassDate       – calendar date of the class (YYYY-MM-DD).
//  StartTime       – class start, RFC3339.
//  EndTime         – class end, RFC3339.
//  Location        – studio room snapshot.
//  Status          – booked | checked_in | cancelled.
//  QRCode          – copy of the member's QR token at booking time.
//  CheckinTime     – set once when the reservation is checked in.
type Reservation struct {
	ID              string     `bson:"_id" json:"id"`
	UserID          string     `bson:"user_id" json:"user_id"`
	UserName        string     `bson:"user_name" json:"user_name"`
	UserEmail       string     `bson:"user_email" json:"user_email"`
	CourseID        string     `bson:"course_id" json:"course_id"`
	CourseName      string     `bson:"course_name" json:"course_name"`
	ScheduleID      string     `bson:"schedule_id" json:"schedule_id"`
	CoachID         string     `bson:"coach_id" json:"coach_id"`
	ReservationDate time.Time  `bson:"reservation_date" json:"reservation_date"`
	ClassDate       string     `bson:"class_date" json:"class_date"`
	StartTime       string     `bson:"start_time" json:"start_time"`
	EndTime         string     `bson:"end_time" json:"end_time"`
	Location        string     `bson:"location" json:"location"`
	Status          string     `bson:"status" json:"status"`
	QRCode          string     `bson:"qr_code" json:"qr_code"`
	CheckinTime     *time.Time `bson:"checkin_time,omitempty" json:"checkin_time,omitempty"`
}

// Active reports whether the reservation blocks a new booking for the
// same (user, schedule) pair.  Cancelled reservations do not.
func (r *Reservation) Active() bool {
	return r.Status == StatusBooked || r.Status == StatusCheckedIn
}
