package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/roudbar/studio-reservation/internal/model"
	"github.com/roudbar/studio-reservation/internal/repository"
	"github.com/roudbar/studio-reservation/internal/utils"
)

// ErrInvalidDateFilter is returned when a startDate/endDate filter is
// not a YYYY-MM-DD date.  Handlers map it to HTTP 400.
var ErrInvalidDateFilter = errors.New("invalid date filter")

// ScheduleBulkStore extends schedule lookup with the listing and
// deletion the bulk flow needs.
type ScheduleBulkStore interface {
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	ListAll(ctx context.Context) ([]model.Schedule, error)
	Delete(ctx context.Context, id string) error
}

// ReservationCascade is the slice of the lifecycle controller the saga
// uses: listing a schedule's reservations and cancelling one.
type ReservationCascade interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]model.Reservation, error)
}

// Canceller cancels a single reservation through the lifecycle rules.
type Canceller interface {
	Cancel(ctx context.Context, reservationID string) error
}

// BulkDeleteRequest carries the coach's filters.  CoachID is mandatory
// and at least one of CourseID, StartDate, EndDate must be set; the
// handler validates that before calling Run.
type BulkDeleteRequest struct {
	CoachID   string `json:"coachId"`
	CourseID  string `json:"courseId,omitempty"`
	StartDate string `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"endDate,omitempty"`   // YYYY-MM-DD
}

// BulkDeleteResult reports exactly how much of the batch succeeded.
// Success is false only for the empty-match case; per-item failures
// leave Success true and surface in Errors.
type BulkDeleteResult struct {
	Success                    bool     `json:"success"`
	DeletedCount               int      `json:"deletedCount"`
	CancelledReservationsCount int      `json:"cancelledReservationsCount"`
	Errors                     []string `json:"errors,omitempty"`
	Message                    string   `json:"message"`
}

// BulkDeleter removes a coach's schedules and cascades cancellation to
// their reservations.  The store has no multi-document transactions, so
// the flow is an explicit saga: cancel reservations, then delete the
// schedule, catching each schedule's failure individually so the rest
// of the batch still runs.
type BulkDeleter struct {
	courses      CourseStore
	schedules    ScheduleBulkStore
	reservations ReservationCascade
	lifecycle    Canceller
}

// NewBulkDeleter wires the deletion coordinator.
func NewBulkDeleter(courses CourseStore, schedules ScheduleBulkStore, reservations ReservationCascade, lifecycle Canceller) *BulkDeleter {
	if courses == nil || schedules == nil || reservations == nil || lifecycle == nil {
		panic("nil dependency passed to NewBulkDeleter")
	}
	return &BulkDeleter{
		courses:      courses,
		schedules:    schedules,
		reservations: reservations,
		lifecycle:    lifecycle,
	}
}

// Run executes the bulk deletion.  It returns an error only for
// ownership violations (repository.ErrForbidden,
// repository.ErrCourseNotFound) and for a failure to load the candidate
// set; everything past that point is reported in the result.
func (b *BulkDeleter) Run(ctx context.Context, req BulkDeleteRequest) (*BulkDeleteResult, error) {
	candidates, err := b.matchSchedules(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return &BulkDeleteResult{
			Success:      false,
			DeletedCount: 0,
			Message:      "no matching sessions found",
		}, nil
	}

	result := &BulkDeleteResult{Success: true}
	for _, sched := range candidates {
		cancelled, err := b.deleteOne(ctx, sched)
		result.CancelledReservationsCount += cancelled
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("schedule %s: %v", sched.ID, err))
			continue
		}
		result.DeletedCount++
	}
	result.Message = fmt.Sprintf("deleted %d session(s), cancelled %d reservation(s)",
		result.DeletedCount, result.CancelledReservationsCount)
	return result, nil
}

// DeleteSchedule removes one schedule after an ownership check,
// cancelling its open reservations first.  It returns the number of
// reservations cancelled.
func (b *BulkDeleter) DeleteSchedule(ctx context.Context, coachID, scheduleID string) (int, error) {
	sched, err := b.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return 0, err
	}
	if !b.ownedBy(ctx, *sched, coachID) {
		return 0, repository.ErrForbidden
	}
	return b.deleteOne(ctx, *sched)
}

// ownedBy reports whether the schedule belongs to the coach, either
// directly or through its course.
func (b *BulkDeleter) ownedBy(ctx context.Context, sched model.Schedule, coachID string) bool {
	if sched.CreatedBy == coachID {
		return true
	}
	if sched.CourseID == "" {
		return false
	}
	course, err := b.courses.GetByID(ctx, sched.CourseID)
	return err == nil && course.CoachID == coachID
}

// deleteOne cancels a schedule's open reservations and then deletes the
// schedule document.  A reservation that slipped into a terminal state
// between the list and the cancel (ErrConflict) is skipped; any other
// cancel failure aborts the schedule so no booked reservation is left
// pointing at a deleted document.  It returns the number of
// reservations cancelled even when the step that failed comes later.
func (b *BulkDeleter) deleteOne(ctx context.Context, sched model.Schedule) (int, error) {
	reservations, err := b.reservations.ListBySchedule(ctx, sched.ID)
	if err != nil {
		return 0, fmt.Errorf("list reservations: %w", err)
	}
	cancelled := 0
	for _, res := range reservations {
		if res.Status == model.StatusCheckedIn || res.Status == model.StatusCancelled {
			continue
		}
		if err := b.lifecycle.Cancel(ctx, res.ID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				log.Printf("bulk-delete: reservation %s checked in during deletion, kept", res.ID)
				continue
			}
			return cancelled, fmt.Errorf("cancel reservation %s: %w", res.ID, err)
		}
		cancelled++
	}
	if err := b.schedules.Delete(ctx, sched.ID); err != nil {
		return cancelled, fmt.Errorf("delete schedule: %w", err)
	}
	return cancelled, nil
}

// matchSchedules loads the candidate set and applies the coach's
// filters in memory.
func (b *BulkDeleter) matchSchedules(ctx context.Context, req BulkDeleteRequest) ([]model.Schedule, error) {
	all, err := b.schedules.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []model.Schedule
	if req.CourseID != "" {
		course, err := b.courses.GetByID(ctx, req.CourseID)
		if err != nil {
			return nil, err
		}
		if course.CoachID != req.CoachID {
			return nil, repository.ErrForbidden
		}
		for _, s := range all {
			if s.CourseID == req.CourseID {
				candidates = append(candidates, s)
			}
		}
	} else {
		ownership := make(map[string]bool) // courseID -> owned by coach
		for _, s := range all {
			owned := s.CreatedBy == req.CoachID
			if !owned && s.CourseID != "" {
				isOwner, seen := ownership[s.CourseID]
				if !seen {
					if course, err := b.courses.GetByID(ctx, s.CourseID); err == nil {
						isOwner = course.CoachID == req.CoachID
					}
					ownership[s.CourseID] = isOwner
				}
				owned = isOwner
			}
			if owned {
				candidates = append(candidates, s)
			}
		}
	}

	if req.StartDate == "" && req.EndDate == "" {
		return candidates, nil
	}
	from, to, err := dateRangeBounds(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	var filtered []model.Schedule
	for _, s := range candidates {
		start, err := utils.NormalizeTimestamp(s.StartTime)
		if err != nil {
			// Unknown start shape: exclude the schedule, never abort.
			log.Printf("bulk-delete: schedule %s has unparseable start time: %v", s.ID, err)
			continue
		}
		local := start.Local()
		if !from.IsZero() && local.Before(from) {
			continue
		}
		if !to.IsZero() && local.After(to) {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered, nil
}

// dateRangeBounds expands YYYY-MM-DD filter dates to the full local
// days they name: start to 00:00:00 and end to 23:59:59.999999999.
func dateRangeBounds(startDate, endDate string) (from, to time.Time, err error) {
	if startDate != "" {
		d, perr := time.ParseInLocation("2006-01-02", startDate, time.Local)
		if perr != nil {
			return from, to, fmt.Errorf("%w: startDate %q", ErrInvalidDateFilter, startDate)
		}
		from = d
	}
	if endDate != "" {
		d, perr := time.ParseInLocation("2006-01-02", endDate, time.Local)
		if perr != nil {
			return from, to, fmt.Errorf("%w: endDate %q", ErrInvalidDateFilter, endDate)
		}
		to = d.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}
