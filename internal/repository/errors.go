// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by someone
// else, while ErrDuplicateReservation signals that a member already
// holds an active reservation for a schedule.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as cancelling a reservation that has
// already been checked in.
var ErrConflict = errors.New("conflict")

// ErrDuplicateReservation is returned when a member already has a
// reservation in booked or checked_in state for the same schedule.
var ErrDuplicateReservation = errors.New("duplicate reservation")

// Not-found sentinels, one per entity, so handlers can produce
// precise 404 messages.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCourseNotFound      = errors.New("course not found")
	ErrScheduleNotFound    = errors.New("schedule not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrQRIdentityNotFound  = errors.New("qr identity not found")
)

// ErrEmailExists is returned when registration collides with an
// existing account email.
var ErrEmailExists = errors.New("email already exists")
