package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/roudbar/studio-reservation/internal/repository"
	"github.com/roudbar/studio-reservation/internal/service"
)

// ScheduleHandler serves the coach-facing course and session endpoints.
type ScheduleHandler struct {
	Users     *repository.UserRepo
	Courses   *repository.CourseRepo
	Schedules *repository.ScheduleRepo
	Bulk      *service.BulkDeleter
}

func NewScheduleHandler(users *repository.UserRepo, courses *repository.CourseRepo, schedules *repository.ScheduleRepo, bulk *service.BulkDeleter) *ScheduleHandler {
	return &ScheduleHandler{Users: users, Courses: courses, Schedules: schedules, Bulk: bulk}
}

type createCourseReq struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// CreateCourse registers a new course owned by the calling coach.
// POST /v1/courses
func (h *ScheduleHandler) CreateCourse(c echo.Context) error {
	coachID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createCourseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	coachName := ""
	if coach, err := h.Users.GetByID(ctx, coachID); err == nil {
		coachName = coach.Name
	}

	id, err := h.Courses.Create(ctx, req.Name, coachID, coachName, strings.TrimSpace(req.Location))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create course failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// ListCourses returns the calling coach's courses.
// GET /v1/courses
func (h *ScheduleHandler) ListCourses(c echo.Context) error {
	coachID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	courses, err := h.Courses.ListByCoach(ctx, coachID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"courses": courses})
}

type createScheduleReq struct {
	CourseID  string `json:"courseId"`
	Title     string `json:"title"`
	Location  string `json:"location"`
	StartTime string `json:"startTime"` // RFC 3339
	EndTime   string `json:"endTime"`   // RFC 3339
}

// CreateSchedule adds a session to one of the calling coach's courses.
// POST /v1/schedules
func (h *ScheduleHandler) CreateSchedule(c echo.Context) error {
	coachID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createScheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.CourseID = strings.TrimSpace(req.CourseID)
	if req.CourseID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "courseId is required"})
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "startTime must be RFC 3339"})
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "endTime must be RFC 3339"})
	}
	if !end.After(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "endTime must be after startTime"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if course.CoachID != coachID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your course"})
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = course.Name
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = course.Location
	}

	id, err := h.Schedules.Create(ctx, req.CourseID, title, location, coachID, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// ListSchedules returns sessions, optionally filtered by course.
// GET /v1/schedules?courseId=...
func (h *ScheduleHandler) ListSchedules(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	courseID := strings.TrimSpace(c.QueryParam("courseId"))
	var (
		schedules interface{}
		err       error
	)
	if courseID != "" {
		schedules, err = h.Schedules.ListByCourse(ctx, courseID)
	} else {
		schedules, err = h.Schedules.ListAll(ctx)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"schedules": schedules})
}

// DeleteSchedule removes one session owned by the calling coach,
// cancelling its open reservations first.
// DELETE /v1/schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c echo.Context) error {
	coachID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	cancelled, err := h.Bulk.DeleteSchedule(ctx, coachID, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrScheduleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "session belongs to another coach"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":                    true,
		"cancelledReservationsCount": cancelled,
	})
}

// BulkDelete removes every session matching the coach's filters and
// cancels the open reservations on them.  An empty match is a 200 with
// success=false, not an error.
// POST /v1/schedules/bulk-delete
func (h *ScheduleHandler) BulkDelete(c echo.Context) error {
	coachID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req service.BulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	// The caller's identity always wins over whatever coachId was sent.
	req.CoachID = coachID
	req.CourseID = strings.TrimSpace(req.CourseID)
	req.StartDate = strings.TrimSpace(req.StartDate)
	req.EndDate = strings.TrimSpace(req.EndDate)
	if req.CourseID == "" && req.StartDate == "" && req.EndDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one of courseId, startDate, endDate is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	result, err := h.Bulk.Run(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCourseNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "course belongs to another coach"})
		case errors.Is(err, service.ErrInvalidDateFilter):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bulk delete failed"})
		}
	}
	return c.JSON(http.StatusOK, result)
}
