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

// CourseRepo provides access to the `courses` collection.
type CourseRepo struct {
	coll *mongo.Collection
}

// NewCourseRepo returns a CourseRepo bound to the given database.
func NewCourseRepo(db *mongo.Database) *CourseRepo {
	return &CourseRepo{coll: db.Collection("courses")}
}

// Create inserts a course owned by the given coach and returns its ID.
func (r *CourseRepo) Create(ctx context.Context, name, coachID, coachName, location string) (string, error) {
	now := time.Now().UTC()
	course := model.Course{
		ID:        uuid.NewString(),
		Name:      name,
		CoachID:   coachID,
		CoachName: coachName,
		Location:  location,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, course); err != nil {
		return "", err
	}
	return course.ID, nil
}

// GetByID fetches a course by ID.  Returns ErrCourseNotFound when absent.
func (r *CourseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&course)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

// ListByCoach returns all courses owned by a coach, newest first.
func (r *CourseRepo) ListByCoach(ctx context.Context, coachID string) ([]model.Course, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := r.coll.Find(ctx, bson.M{"coach_id": coachID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	courses := make([]model.Course, 0)
	if err := cur.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}
