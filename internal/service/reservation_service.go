package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/roudbar/studio-reservation/internal/model"
	"github.com/roudbar/studio-reservation/internal/notify"
	"github.com/roudbar/studio-reservation/internal/queue"
	"github.com/roudbar/studio-reservation/internal/repository"
	"github.com/roudbar/studio-reservation/internal/utils"
)

// Store surfaces consumed by the reservation service.  The Mongo-backed
// repositories implement them; tests substitute in-memory fakes.

type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type CourseStore interface {
	GetByID(ctx context.Context, id string) (*model.Course, error)
}

type ScheduleStore interface {
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
}

type ReservationStore interface {
	Insert(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetActive(ctx context.Context, userID, scheduleID string) (*model.Reservation, error)
	GetLatest(ctx context.Context, userID, scheduleID string) (*model.Reservation, error)
	UpdateStatus(ctx context.Context, id, status string, checkinTime *time.Time) error
	ListByUser(ctx context.Context, userID string) ([]model.Reservation, error)
}

// IdentityIssuer is the slice of QRIssuer the lifecycle needs.
type IdentityIssuer interface {
	ResolveOrCreate(ctx context.Context, userID string) (*model.QRIdentity, error)
	LookupByToken(ctx context.Context, token string) (*model.QRIdentity, error)
}

// ScanStatus names the possible outcomes of a check-in scan.  These are
// expected business results, not errors: every recognized outcome is
// reported as a value so the scanner UI can branch without exception
// handling.
type ScanStatus string

const (
	ScanInvalidQR        ScanStatus = "invalid_qr"
	ScanInvalidSchedule  ScanStatus = "invalid_schedule"
	ScanNoReservation    ScanStatus = "no_reservation"
	ScanAlreadyCheckedIn ScanStatus = "already_checked_in"
	ScanCancelled        ScanStatus = "cancelled"
	ScanSuccess          ScanStatus = "success"
)

// ScanResult is the tagged outcome of one check-in attempt.  Display
// fields are populated whenever a reservation was found so the venue
// screen can show who scanned, for which course, where.
type ScanResult struct {
	Status        ScanStatus `json:"status"`
	Valid         bool       `json:"valid"`
	Message       string     `json:"message"`
	ReservationID string     `json:"reservationId,omitempty"`
	UserName      string     `json:"userName,omitempty"`
	UserEmail     string     `json:"userEmail,omitempty"`
	CourseName    string     `json:"courseName,omitempty"`
	Location      string     `json:"location,omitempty"`
	CheckinTime   *time.Time `json:"checkinTime,omitempty"`
}

// ReservationService owns every mutation of reservation state.  Create
// books, CheckIn converts booked to checked_in, Cancel converts booked
// to cancelled.  checked_in and cancelled are terminal.  Each
// transition re-reads current state before acting; no reservation state
// is cached between requests.
type ReservationService struct {
	users        UserStore
	courses      CourseStore
	schedules    ScheduleStore
	reservations ReservationStore
	issuer       IdentityIssuer
	events       Publisher
	mailer       notify.Mailer
	now          func() time.Time
}

// NewReservationService wires the lifecycle controller.  events and
// mailer may be nil, in which case the corresponding side effect is
// skipped.
func NewReservationService(users UserStore, courses CourseStore, schedules ScheduleStore, reservations ReservationStore, issuer IdentityIssuer, events Publisher, mailer notify.Mailer) *ReservationService {
	if users == nil || courses == nil || schedules == nil || reservations == nil || issuer == nil {
		panic("nil store passed to NewReservationService")
	}
	return &ReservationService{
		users:        users,
		courses:      courses,
		schedules:    schedules,
		reservations: reservations,
		issuer:       issuer,
		events:       events,
		mailer:       mailer,
		now:          time.Now,
	}
}

// Create books a helmet for (userID, scheduleID).  Preconditions, in
// order: the user exists, the schedule exists, and the pair has no
// reservation in booked or checked_in state.  On success the member's
// QR identity is resolved (issued on first booking), user and schedule
// fields are snapshotted into the document, and the booked event and
// confirmation mail fire as side effects whose failure never rolls the
// booking back.
func (s *ReservationService) Create(ctx context.Context, userID, scheduleID string) (*model.Reservation, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sched, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.reservations.GetActive(ctx, userID, scheduleID); err == nil {
		return nil, repository.ErrDuplicateReservation
	} else if !errors.Is(err, repository.ErrReservationNotFound) {
		return nil, err
	}

	identity, err := s.issuer.ResolveOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve qr identity: %w", err)
	}

	courseName, coachID := sched.Title, sched.CreatedBy
	location := sched.Location
	if course, err := s.courses.GetByID(ctx, sched.CourseID); err == nil {
		courseName = course.Name
		coachID = course.CoachID
		if location == "" {
			location = course.Location
		}
	}

	classDate, startStr, endStr := formatClassTimes(sched)
	res := &model.Reservation{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		UserName:        user.Name,
		UserEmail:       user.Email,
		CourseID:        sched.CourseID,
		CourseName:      courseName,
		ScheduleID:      sched.ID,
		CoachID:         coachID,
		ReservationDate: s.now().UTC(),
		ClassDate:       classDate,
		StartTime:       startStr,
		EndTime:         endStr,
		Location:        location,
		Status:          model.StatusBooked,
		QRCode:          identity.Token,
	}
	if err := s.reservations.Insert(ctx, res); err != nil {
		return nil, err
	}

	if s.events != nil {
		ev := queue.ReservationBookedEvent{
			ReservationID: res.ID,
			UserID:        res.UserID,
			UserName:      res.UserName,
			UserEmail:     res.UserEmail,
			CourseName:    res.CourseName,
			ScheduleID:    res.ScheduleID,
			ClassDate:     res.ClassDate,
			StartTime:     res.StartTime,
			Location:      res.Location,
			QRToken:       res.QRCode,
			BookedAt:      res.ReservationDate.Format(time.RFC3339),
		}
		if err := s.events.PublishReservationBooked(ctx, ev); err != nil {
			log.Printf("reservation %s: booked event not published: %v", res.ID, err)
		}
	}
	if s.mailer != nil {
		subject := fmt.Sprintf("Helmet reserved for %s", res.CourseName)
		body := fmt.Sprintf("Hi %s,\n\nYour helmet is reserved for %s on %s at %s (%s).\nShow your QR code at the studio entrance to check in.\n",
			res.UserName, res.CourseName, res.ClassDate, res.StartTime, res.Location)
		if err := s.mailer.Send(res.UserEmail, subject, body); err != nil {
			log.Printf("reservation %s: confirmation mail not sent: %v", res.ID, err)
		}
	}
	return res, nil
}

// CheckIn processes one scan submission.  The branches short-circuit in
// a fixed order and every recognized outcome is a ScanResult value; an
// error escapes only when the store itself fails.
func (s *ReservationService) CheckIn(ctx context.Context, qrToken, scheduleID string) (ScanResult, error) {
	identity, err := s.issuer.LookupByToken(ctx, qrToken)
	if err != nil {
		if errors.Is(err, repository.ErrQRIdentityNotFound) {
			return ScanResult{
				Status:  ScanInvalidQR,
				Message: "QR code not recognized",
			}, nil
		}
		return ScanResult{}, err
	}

	if _, err := s.schedules.GetByID(ctx, scheduleID); err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return ScanResult{
				Status:  ScanInvalidSchedule,
				Message: "session not found",
			}, nil
		}
		return ScanResult{}, err
	}

	res, err := s.reservations.GetLatest(ctx, identity.UserID, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return ScanResult{
				Status:  ScanNoReservation,
				Message: "no reservation for this session",
			}, nil
		}
		return ScanResult{}, err
	}

	display := ScanResult{
		ReservationID: res.ID,
		UserName:      res.UserName,
		UserEmail:     res.UserEmail,
		CourseName:    res.CourseName,
		Location:      res.Location,
		CheckinTime:   res.CheckinTime,
	}

	switch res.Status {
	case model.StatusCheckedIn:
		// Idempotent: report current state, leave checkin_time alone.
		display.Status = ScanAlreadyCheckedIn
		display.Message = fmt.Sprintf("%s is already checked in", res.UserName)
		return display, nil
	case model.StatusCancelled:
		display.Status = ScanCancelled
		display.Message = "reservation was cancelled"
		return display, nil
	}

	checkin := s.now().UTC()
	if err := s.reservations.UpdateStatus(ctx, res.ID, model.StatusCheckedIn, &checkin); err != nil {
		return ScanResult{}, err
	}
	display.Status = ScanSuccess
	display.Valid = true
	display.CheckinTime = &checkin
	display.Message = fmt.Sprintf("Welcome %s! Checked in for %s.", res.UserName, res.CourseName)
	return display, nil
}

// Cancel moves a booked reservation to cancelled.  A checked-in
// reservation can never be cancelled (ErrConflict); cancelling an
// already-cancelled reservation is a no-op success, which keeps the
// coach bulk flow idempotent.
func (s *ReservationService) Cancel(ctx context.Context, reservationID string) error {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}
	switch res.Status {
	case model.StatusCheckedIn:
		return repository.ErrConflict
	case model.StatusCancelled:
		return nil
	}
	return s.reservations.UpdateStatus(ctx, reservationID, model.StatusCancelled, nil)
}

// ListForUser returns a member's reservations together with their QR
// identity, issuing the identity if the member has none yet.
func (s *ReservationService) ListForUser(ctx context.Context, userID string) ([]model.Reservation, *model.QRIdentity, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, nil, err
	}
	items, err := s.reservations.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	identity, err := s.issuer.ResolveOrCreate(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return items, identity, nil
}

// formatClassTimes renders the schedule's raw start/end values into the
// snapshot strings stored on a reservation.  Unparseable values produce
// empty strings rather than failing the booking.
func formatClassTimes(sched *model.Schedule) (classDate, start, end string) {
	if t, err := utils.NormalizeTimestamp(sched.StartTime); err == nil {
		classDate = t.Format("2006-01-02")
		start = t.Format(time.RFC3339)
	}
	if t, err := utils.NormalizeTimestamp(sched.EndTime); err == nil {
		end = t.Format(time.RFC3339)
	}
	return classDate, start, end
}
