// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationBookedEvent is published when a helmet reservation is
// created.  It carries enough information for downstream consumers to
// notify the member or feed analytics without querying the primary
// database.
type ReservationBookedEvent struct {
	ReservationID string `json:"reservation_id"`
	UserID        string `json:"user_id"`
	UserName      string `json:"user_name"`
	UserEmail     string `json:"user_email"`
	CourseName    string `json:"course_name"`
	ScheduleID    string `json:"schedule_id"`
	ClassDate     string `json:"class_date"`
	StartTime     string `json:"start_time"`
	Location      string `json:"location"`
	QRToken       string `json:"qr_token"`
	BookedAt      string `json:"booked_at"`
}
