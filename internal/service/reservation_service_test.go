package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/roudbar/studio-reservation/internal/model"
	"github.com/roudbar/studio-reservation/internal/repository"
)

// ----- in-memory fakes shared by the service tests -----

type fakeUsers map[string]*model.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

type fakeCourses map[string]*model.Course

func (f fakeCourses) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := f[id]; ok {
		return c, nil
	}
	return nil, repository.ErrCourseNotFound
}

type fakeSchedules struct {
	items      map[string]*model.Schedule
	failDelete map[string]error
	deleted    []string
}

func (f *fakeSchedules) GetByID(_ context.Context, id string) (*model.Schedule, error) {
	if s, ok := f.items[id]; ok {
		return s, nil
	}
	return nil, repository.ErrScheduleNotFound
}

func (f *fakeSchedules) ListAll(_ context.Context) ([]model.Schedule, error) {
	out := make([]model.Schedule, 0, len(f.items))
	for _, s := range f.items {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSchedules) Delete(_ context.Context, id string) error {
	if err, ok := f.failDelete[id]; ok {
		return err
	}
	if _, ok := f.items[id]; !ok {
		return repository.ErrScheduleNotFound
	}
	delete(f.items, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeReservations struct {
	items map[string]*model.Reservation
	order []string // insertion order, newest last
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{items: map[string]*model.Reservation{}}
}

func (f *fakeReservations) Insert(_ context.Context, res *model.Reservation) error {
	cp := *res
	f.items[res.ID] = &cp
	f.order = append(f.order, res.ID)
	return nil
}

func (f *fakeReservations) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	if r, ok := f.items[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, repository.ErrReservationNotFound
}

func (f *fakeReservations) GetActive(_ context.Context, userID, scheduleID string) (*model.Reservation, error) {
	for _, r := range f.items {
		if r.UserID == userID && r.ScheduleID == scheduleID && r.Active() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrReservationNotFound
}

func (f *fakeReservations) GetLatest(_ context.Context, userID, scheduleID string) (*model.Reservation, error) {
	for i := len(f.order) - 1; i >= 0; i-- {
		r := f.items[f.order[i]]
		if r.UserID == userID && r.ScheduleID == scheduleID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrReservationNotFound
}

func (f *fakeReservations) UpdateStatus(_ context.Context, id, status string, checkinTime *time.Time) error {
	r, ok := f.items[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	r.Status = status
	if checkinTime != nil {
		r.CheckinTime = checkinTime
	}
	return nil
}

func (f *fakeReservations) ListByUser(_ context.Context, userID string) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range f.items {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReservations) ListBySchedule(_ context.Context, scheduleID string) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range f.items {
		if r.ScheduleID == scheduleID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// testEnv bundles a fully wired service over the fakes.
type testEnv struct {
	users        fakeUsers
	courses      fakeCourses
	schedules    *fakeSchedules
	reservations *fakeReservations
	svc          *ReservationService
}

func newTestEnv() *testEnv {
	classStart := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	env := &testEnv{
		users: fakeUsers{
			"u1": {ID: "u1", Email: "sara@example.com", Name: "Sara", Role: model.RoleMember},
		},
		courses: fakeCourses{
			"c1": {ID: "c1", Name: "Salsa Beginners", CoachID: "coach1", Location: "Studio A"},
		},
		schedules: &fakeSchedules{items: map[string]*model.Schedule{
			"s1": {
				ID:        "s1",
				CourseID:  "c1",
				Title:     "Salsa Beginners",
				StartTime: classStart,
				EndTime:   classStart.Add(time.Hour),
				Location:  "Studio A",
				CreatedBy: "coach1",
			},
		}},
		reservations: newFakeReservations(),
	}
	issuer := NewQRIssuer(newFakeIdentityStore())
	env.svc = NewReservationService(env.users, env.courses, env.schedules, env.reservations, issuer, nil, nil)
	return env
}

// ----- booking -----

func TestCreateSnapshotsBooking(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	res, err := env.svc.Create(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Status != model.StatusBooked {
		t.Fatalf("status = %q", res.Status)
	}
	if res.UserName != "Sara" || res.UserEmail != "sara@example.com" {
		t.Fatalf("user snapshot = %q/%q", res.UserName, res.UserEmail)
	}
	if res.CourseName != "Salsa Beginners" || res.CoachID != "coach1" {
		t.Fatalf("course snapshot = %q/%q", res.CourseName, res.CoachID)
	}
	if res.ClassDate != "2026-03-10" {
		t.Fatalf("class date = %q", res.ClassDate)
	}
	if res.QRCode == "" {
		t.Fatal("qr token not attached")
	}

	// The token on the booking is the member's durable identity.
	items, identity, err := env.svc.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || identity.Token != res.QRCode {
		t.Fatalf("identity token %q does not match booking token %q", identity.Token, res.QRCode)
	}
}

func TestCreateRejectsDuplicateActive(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, "u1", "s1"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := env.svc.Create(ctx, "u1", "s1")
	if !errors.Is(err, repository.ErrDuplicateReservation) {
		t.Fatalf("err = %v, want ErrDuplicateReservation", err)
	}
}

func TestCreateAllowedAfterCancel(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first, err := env.svc.Create(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.svc.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := env.svc.Create(ctx, "u1", "s1"); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
}

func TestCreateUnknownEntities(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, "ghost", "s1"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("unknown user: err = %v", err)
	}
	if _, err := env.svc.Create(ctx, "u1", "ghost"); !errors.Is(err, repository.ErrScheduleNotFound) {
		t.Fatalf("unknown schedule: err = %v", err)
	}
}

// ----- check-in -----

func TestCheckInOutcomes(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	res, err := env.svc.Create(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("invalid qr", func(t *testing.T) {
		got, err := env.svc.CheckIn(ctx, "USER_nobody_0", "s1")
		if err != nil {
			t.Fatalf("check-in: %v", err)
		}
		if got.Status != ScanInvalidQR || got.Valid {
			t.Fatalf("result = %+v", got)
		}
	})

	t.Run("invalid schedule", func(t *testing.T) {
		got, err := env.svc.CheckIn(ctx, res.QRCode, "ghost")
		if err != nil {
			t.Fatalf("check-in: %v", err)
		}
		if got.Status != ScanInvalidSchedule || got.Valid {
			t.Fatalf("result = %+v", got)
		}
	})

	t.Run("success", func(t *testing.T) {
		got, err := env.svc.CheckIn(ctx, res.QRCode, "s1")
		if err != nil {
			t.Fatalf("check-in: %v", err)
		}
		if got.Status != ScanSuccess || !got.Valid {
			t.Fatalf("result = %+v", got)
		}
		if got.ReservationID != res.ID || got.UserName != "Sara" {
			t.Fatalf("display fields = %+v", got)
		}
		if got.CheckinTime == nil {
			t.Fatal("checkin time not set")
		}
		stored, _ := env.reservations.GetByID(ctx, res.ID)
		if stored.Status != model.StatusCheckedIn {
			t.Fatalf("stored status = %q", stored.Status)
		}
	})

	t.Run("repeat scan is idempotent", func(t *testing.T) {
		before, _ := env.reservations.GetByID(ctx, res.ID)
		got, err := env.svc.CheckIn(ctx, res.QRCode, "s1")
		if err != nil {
			t.Fatalf("check-in: %v", err)
		}
		if got.Status != ScanAlreadyCheckedIn || got.Valid {
			t.Fatalf("result = %+v", got)
		}
		after, _ := env.reservations.GetByID(ctx, res.ID)
		if !after.CheckinTime.Equal(*before.CheckinTime) {
			t.Fatalf("checkin time changed: %v vs %v", after.CheckinTime, before.CheckinTime)
		}
	})
}

func TestCheckInNoReservation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// An identity exists (issued on listing) but nothing was booked.
	_, identity, err := env.svc.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got, err := env.svc.CheckIn(ctx, identity.Token, "s1")
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if got.Status != ScanNoReservation || got.Valid {
		t.Fatalf("result = %+v", got)
	}
}

func TestCheckInCancelledReservation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	res, err := env.svc.Create(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.svc.Cancel(ctx, res.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got, err := env.svc.CheckIn(ctx, res.QRCode, "s1")
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if got.Status != ScanCancelled || got.Valid {
		t.Fatalf("result = %+v", got)
	}

	// Rebooking replaces the cancelled entry as the latest, so the next
	// scan checks in normally.
	if _, err := env.svc.Create(ctx, "u1", "s1"); err != nil {
		t.Fatalf("rebook: %v", err)
	}
	got, err = env.svc.CheckIn(ctx, res.QRCode, "s1")
	if err != nil {
		t.Fatalf("check-in after rebook: %v", err)
	}
	if got.Status != ScanSuccess || !got.Valid {
		t.Fatalf("result = %+v", got)
	}
}

// ----- cancel -----

func TestCancelCheckedInConflicts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	res, err := env.svc.Create(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.CheckIn(ctx, res.QRCode, "s1"); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if err := env.svc.Cancel(ctx, res.ID); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestCancelTwiceIsNoop(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	res, err := env.svc.Create(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.svc.Cancel(ctx, res.ID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if err := env.svc.Cancel(ctx, res.ID); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
}

func TestCancelUnknownReservation(t *testing.T) {
	env := newTestEnv()
	err := env.svc.Cancel(context.Background(), "ghost")
	if !errors.Is(err, repository.ErrReservationNotFound) {
		t.Fatalf("err = %v, want ErrReservationNotFound", err)
	}
}
