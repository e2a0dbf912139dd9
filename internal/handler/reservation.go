package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/roudbar/studio-reservation/internal/model"
	"github.com/roudbar/studio-reservation/internal/repository"
	"github.com/roudbar/studio-reservation/internal/service"
)

// ReservationHandler serves the member-facing reservation endpoints.
type ReservationHandler struct {
	Svc *service.ReservationService
}

func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{Svc: svc}
}

type createReservationReq struct {
	UserID     string `json:"userId"`
	ScheduleID string `json:"scheduleId"`
}

// Create books a helmet for a user on a schedule.
// POST /v1/reservations
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.ScheduleID = strings.TrimSpace(req.ScheduleID)
	if req.UserID == "" || req.ScheduleID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "userId and scheduleId are required"})
	}

	// Members can only book for themselves; coaches may book on behalf
	// of a member (front-desk flow).
	if uid, err := getUserID(c); err == nil {
		if role, _ := c.Get("role").(string); role != model.RoleCoach && uid != req.UserID {
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "cannot book for another user"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Svc.Create(ctx, req.UserID, req.ScheduleID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "user not found"})
		case errors.Is(err, repository.ErrScheduleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "session not found"})
		case errors.Is(err, repository.ErrDuplicateReservation):
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "you already have a reservation for this session"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "booking failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"reservationId": res.ID,
		"qrCode":        res.QRCode,
		"message":       "reservation confirmed",
	})
}

// Cancel cancels a booked reservation.
// DELETE /v1/reservations/:id
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "reservation id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.Cancel(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "reservation not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "already checked in, cannot cancel"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "cancel failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "reservation cancelled"})
}

// ListForUser returns a member's reservation history plus their QR
// identity so the client can render the entry pass.
// GET /v1/reservations/user/:userId
func (h *ReservationHandler) ListForUser(c echo.Context) error {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "user id required"})
	}
	if uid, err := getUserID(c); err == nil {
		if role, _ := c.Get("role").(string); role != model.RoleCoach && uid != userID {
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "cannot view another user's reservations"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	items, identity, err := h.Svc.ListForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "query failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"reservations": items,
		"qrIdentity": echo.Map{
			"token": identity.Token,
			"image": identity.Image,
		},
	})
}
