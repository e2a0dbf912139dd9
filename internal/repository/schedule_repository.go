package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roudbar/studio-reservation/internal/model"
)

// ScheduleRepo provides access to the `schedules` collection.  The
// bulk-delete flow loads the full candidate set and filters in memory
// because start times are stored in several historical shapes that the
// store cannot compare server-side.
type ScheduleRepo struct {
	coll *mongo.Collection
}

// NewScheduleRepo returns a ScheduleRepo bound to the given database.
func NewScheduleRepo(db *mongo.Database) *ScheduleRepo {
	return &ScheduleRepo{coll: db.Collection("schedules")}
}

// Create inserts a schedule and returns its ID.  Start and end are
// stored as native dates for documents created by this service.
func (r *ScheduleRepo) Create(ctx context.Context, courseID, title, location, createdBy string, start, end time.Time) (string, error) {
	s := model.Schedule{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		Title:     title,
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
		Location:  location,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		return "", err
	}
	return s.ID, nil
}

// GetByID fetches a schedule by ID.  Returns ErrScheduleNotFound when absent.
func (r *ScheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	var s model.Schedule
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListAll returns every schedule document, newest first.  The caller
// filters in memory (see BulkDeleter).
func (r *ScheduleRepo) ListAll(ctx context.Context) ([]model.Schedule, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	schedules := make([]model.Schedule, 0)
	if err := cur.All(ctx, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// ListByCourse returns schedules for one course, newest first.
func (r *ScheduleRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Schedule, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := r.coll.Find(ctx, bson.M{"course_id": courseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	schedules := make([]model.Schedule, 0)
	if err := cur.All(ctx, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// Delete removes a schedule document.  Returns ErrScheduleNotFound when
// no document matched.
func (r *ScheduleRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrScheduleNotFound
	}
	return nil
}
