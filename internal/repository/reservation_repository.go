package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roudbar/studio-reservation/internal/model"
)

// ReservationRepo provides access to the `reservations` collection.
// Status mutation goes through UpdateStatus so that every transition is
// a single-document update; that update is the only serialization point
// for concurrent check-in attempts on one reservation.
type ReservationRepo struct {
	coll *mongo.Collection
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *mongo.Database) *ReservationRepo {
	return &ReservationRepo{coll: db.Collection("reservations")}
}

// Insert persists a fully populated reservation document.
func (r *ReservationRepo) Insert(ctx context.Context, res *model.Reservation) error {
	_, err := r.coll.InsertOne(ctx, res)
	return err
}

// GetByID fetches a reservation by ID.  Returns ErrReservationNotFound
// when absent.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	var res model.Reservation
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// GetActive returns the reservation for (userID, scheduleID) whose
// status is booked or checked_in, or ErrReservationNotFound when the
// pair has no active reservation.  Cancelled reservations never match,
// so a cancelled booking does not block a new one.
func (r *ReservationRepo) GetActive(ctx context.Context, userID, scheduleID string) (*model.Reservation, error) {
	filter := bson.M{
		"user_id":     userID,
		"schedule_id": scheduleID,
		"status":      bson.M{"$in": []string{model.StatusBooked, model.StatusCheckedIn}},
	}
	var res model.Reservation
	err := r.coll.FindOne(ctx, filter).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// GetLatest returns the most recent reservation for (userID,
// scheduleID) regardless of status, or ErrReservationNotFound when the
// pair never booked.  Check-in uses this so a cancelled booking is
// reported as cancelled rather than as missing.
func (r *ReservationRepo) GetLatest(ctx context.Context, userID, scheduleID string) (*model.Reservation, error) {
	filter := bson.M{"user_id": userID, "schedule_id": scheduleID}
	opts := options.FindOne().SetSort(bson.M{"reservation_date": -1})
	var res model.Reservation
	err := r.coll.FindOne(ctx, filter, opts).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// UpdateStatus sets the reservation status and, when provided, the
// check-in time in one document update.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id, status string, checkinTime *time.Time) error {
	set := bson.M{"status": status}
	if checkinTime != nil {
		set["checkin_time"] = checkinTime.UTC()
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// ListByUser returns all reservations made by a user, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	opts := options.Find().SetSort(bson.M{"reservation_date": -1})
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	items := make([]model.Reservation, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListBySchedule returns all reservations for a schedule, regardless of
// status.  Used by the bulk-delete saga to cascade cancellations.
func (r *ReservationRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]model.Reservation, error) {
	cur, err := r.coll.Find(ctx, bson.M{"schedule_id": scheduleID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	items := make([]model.Reservation, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
