package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/roudbar/studio-reservation/internal/service"
)

// ScanHandler serves the venue check-in endpoint used by the door
// scanner.
type ScanHandler struct {
	Svc *service.ReservationService
}

func NewScanHandler(svc *service.ReservationService) *ScanHandler {
	return &ScanHandler{Svc: svc}
}

type scanReq struct {
	QRCodeData string `json:"qrCodeData"`
	ScheduleID string `json:"scheduleId"`
}

// CheckIn processes one scanned QR code against a session.  Recognized
// business outcomes (unknown QR, cancelled reservation, repeat scan,
// ...) all come back as HTTP 200 with a tagged result so the scanner
// can display them; 4xx/5xx are reserved for malformed requests and
// storage failures.
// POST /v1/reservations/scan
func (h *ScanHandler) CheckIn(c echo.Context) error {
	var req scanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.QRCodeData = strings.TrimSpace(req.QRCodeData)
	req.ScheduleID = strings.TrimSpace(req.ScheduleID)
	if req.QRCodeData == "" || req.ScheduleID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qrCodeData and scheduleId are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	result, err := h.Svc.CheckIn(ctx, req.QRCodeData, req.ScheduleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
	}
	return c.JSON(http.StatusOK, result)
}
