package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/roudbar/studio-reservation/internal/model"
	"github.com/roudbar/studio-reservation/internal/repository"
	"github.com/roudbar/studio-reservation/internal/service"
)

// ----- in-memory stores implementing the service interfaces -----

type memUsers map[string]*model.User

func (m memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

type memCourses map[string]*model.Course

func (m memCourses) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m[id]; ok {
		return c, nil
	}
	return nil, repository.ErrCourseNotFound
}

type memSchedules map[string]*model.Schedule

func (m memSchedules) GetByID(_ context.Context, id string) (*model.Schedule, error) {
	if s, ok := m[id]; ok {
		return s, nil
	}
	return nil, repository.ErrScheduleNotFound
}

func (m memSchedules) ListAll(_ context.Context) ([]model.Schedule, error) {
	out := make([]model.Schedule, 0, len(m))
	for _, s := range m {
		out = append(out, *s)
	}
	return out, nil
}

func (m memSchedules) Delete(_ context.Context, id string) error {
	if _, ok := m[id]; !ok {
		return repository.ErrScheduleNotFound
	}
	delete(m, id)
	return nil
}

type memReservations struct {
	items map[string]*model.Reservation
	order []string
}

func (m *memReservations) Insert(_ context.Context, res *model.Reservation) error {
	cp := *res
	m.items[res.ID] = &cp
	m.order = append(m.order, res.ID)
	return nil
}

func (m *memReservations) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	if r, ok := m.items[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, repository.ErrReservationNotFound
}

func (m *memReservations) GetActive(_ context.Context, userID, scheduleID string) (*model.Reservation, error) {
	for _, r := range m.items {
		if r.UserID == userID && r.ScheduleID == scheduleID && r.Active() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrReservationNotFound
}

func (m *memReservations) GetLatest(_ context.Context, userID, scheduleID string) (*model.Reservation, error) {
	for i := len(m.order) - 1; i >= 0; i-- {
		r := m.items[m.order[i]]
		if r.UserID == userID && r.ScheduleID == scheduleID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrReservationNotFound
}

func (m *memReservations) UpdateStatus(_ context.Context, id, status string, checkinTime *time.Time) error {
	r, ok := m.items[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	r.Status = status
	if checkinTime != nil {
		r.CheckinTime = checkinTime
	}
	return nil
}

func (m *memReservations) ListByUser(_ context.Context, userID string) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range m.items {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReservations) ListBySchedule(_ context.Context, scheduleID string) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range m.items {
		if r.ScheduleID == scheduleID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type memIdentities struct {
	byUser  map[string]*model.QRIdentity
	byToken map[string]*model.QRIdentity
}

func (m *memIdentities) GetByUserID(_ context.Context, userID string) (*model.QRIdentity, error) {
	if id, ok := m.byUser[userID]; ok {
		return id, nil
	}
	return nil, repository.ErrQRIdentityNotFound
}

func (m *memIdentities) GetByToken(_ context.Context, token string) (*model.QRIdentity, error) {
	if id, ok := m.byToken[token]; ok {
		return id, nil
	}
	return nil, repository.ErrQRIdentityNotFound
}

func (m *memIdentities) Insert(_ context.Context, id *model.QRIdentity) error {
	m.byUser[id.UserID] = id
	m.byToken[id.Token] = id
	return nil
}

// newTestService wires a ReservationService over in-memory stores with
// one member, one course and one schedule.
func newTestService() *service.ReservationService {
	users := memUsers{"u1": {ID: "u1", Email: "sara@example.com", Name: "Sara", Role: model.RoleMember}}
	courses := memCourses{"c1": {ID: "c1", Name: "Salsa Beginners", CoachID: "coach1", Location: "Studio A"}}
	schedules := memSchedules{"s1": {
		ID:        "s1",
		CourseID:  "c1",
		StartTime: time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
		CreatedBy: "coach1",
	}}
	issuer := service.NewQRIssuer(&memIdentities{
		byUser:  map[string]*model.QRIdentity{},
		byToken: map[string]*model.QRIdentity{},
	})
	return service.NewReservationService(users, courses, schedules,
		&memReservations{items: map[string]*model.Reservation{}}, issuer, nil, nil)
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, path, body string, setup func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

// ----- scan endpoint -----

func TestScanEndpointMissingFields(t *testing.T) {
	h := NewScanHandler(newTestService())
	rec := doJSON(t, h.CheckIn, http.MethodPost, "/v1/reservations/scan",
		`{"qrCodeData":""}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestScanEndpointUnknownToken(t *testing.T) {
	h := NewScanHandler(newTestService())
	rec := doJSON(t, h.CheckIn, http.MethodPost, "/v1/reservations/scan",
		`{"qrCodeData":"USER_nobody_0","scheduleId":"s1"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (recognized outcome)", rec.Code)
	}
	var result service.ScanResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Status != service.ScanInvalidQR || result.Valid {
		t.Fatalf("result = %+v", result)
	}
}

func TestScanEndpointSuccess(t *testing.T) {
	svc := newTestService()
	res, err := svc.Create(context.Background(), "u1", "s1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	h := NewScanHandler(svc)
	rec := doJSON(t, h.CheckIn, http.MethodPost, "/v1/reservations/scan",
		`{"qrCodeData":"`+res.QRCode+`","scheduleId":"s1"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result service.ScanResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Status != service.ScanSuccess || !result.Valid {
		t.Fatalf("result = %+v", result)
	}
	if result.UserName != "Sara" || result.CourseName != "Salsa Beginners" {
		t.Fatalf("display fields = %+v", result)
	}
}

// ----- booking and cancel endpoints -----

func asUser(id, role string) func(echo.Context) {
	return func(c echo.Context) {
		c.Set("user_id", id)
		c.Set("role", role)
	}
}

func TestCreateEndpointDuplicate(t *testing.T) {
	svc := newTestService()
	h := NewReservationHandler(svc)

	rec := doJSON(t, h.Create, http.MethodPost, "/v1/reservations",
		`{"userId":"u1","scheduleId":"s1"}`, asUser("u1", model.RoleMember))
	if rec.Code != http.StatusOK {
		t.Fatalf("first booking status = %d, body %s", rec.Code, rec.Body)
	}
	rec = doJSON(t, h.Create, http.MethodPost, "/v1/reservations",
		`{"userId":"u1","scheduleId":"s1"}`, asUser("u1", model.RoleMember))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate booking status = %d, want 400", rec.Code)
	}
}

func TestCreateEndpointForOtherUserForbidden(t *testing.T) {
	h := NewReservationHandler(newTestService())
	rec := doJSON(t, h.Create, http.MethodPost, "/v1/reservations",
		`{"userId":"u1","scheduleId":"s1"}`, asUser("someone-else", model.RoleMember))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestCancelEndpoint(t *testing.T) {
	svc := newTestService()
	res, err := svc.Create(context.Background(), "u1", "s1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	h := NewReservationHandler(svc)

	cancelReq := func(id string) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodDelete, "/v1/reservations/"+id, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/reservations/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
		if err := h.Cancel(c); err != nil {
			t.Fatalf("handler: %v", err)
		}
		return rec
	}

	if rec := cancelReq("ghost"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id status = %d, want 404", rec.Code)
	}
	if rec := cancelReq(res.ID); rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, want 200", rec.Code)
	}
	// Cancelling again is a no-op success.
	if rec := cancelReq(res.ID); rec.Code != http.StatusOK {
		t.Fatalf("repeat cancel status = %d, want 200", rec.Code)
	}
}

func TestCancelEndpointCheckedInConflict(t *testing.T) {
	svc := newTestService()
	res, err := svc.Create(context.Background(), "u1", "s1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CheckIn(context.Background(), res.QRCode, "s1"); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	h := NewReservationHandler(svc)
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/reservations/"+res.ID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/reservations/:id")
	c.SetParamNames("id")
	c.SetParamValues(res.ID)
	if err := h.Cancel(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for checked-in reservation", rec.Code)
	}
}

// ----- bulk delete validation -----

func TestBulkDeleteEndpointRequiresFilter(t *testing.T) {
	h := &ScheduleHandler{} // validation fires before any dependency is touched

	rec := doJSON(t, h.BulkDelete, http.MethodPost, "/v1/schedules/bulk-delete",
		`{}`, asUser("coach1", model.RoleCoach))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without filters", rec.Code)
	}

	rec = doJSON(t, h.BulkDelete, http.MethodPost, "/v1/schedules/bulk-delete",
		`{"courseId":"c1"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without identity", rec.Code)
	}
}
