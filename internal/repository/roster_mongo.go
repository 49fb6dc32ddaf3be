package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/gema-classroom-api/internal/models"
)

const rosterQueryTimeout = 5 * time.Second

// EnrollmentsCollection is the collection holding roster documents.
const EnrollmentsCollection = "enrollments"

type mongoRosterRepository struct {
	enrollments *mongo.Collection
}

// NewMongoRosterRepository answers roster queries from an enrollments collection
// whose documents carry course_id, student_id and status.
func NewMongoRosterRepository(db *mongo.Database) RosterRepository {
	return &mongoRosterRepository{enrollments: db.Collection(EnrollmentsCollection)}
}

func (r *mongoRosterRepository) CountEnrolled(ctx context.Context, courseID uint) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, rosterQueryTimeout)
	defer cancel()

	count, err := r.enrollments.CountDocuments(queryCtx, bson.M{
		"course_id": int64(courseID),
		"status":    models.EnrollmentStatusEnrolled,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return count, nil
}

func (r *mongoRosterRepository) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	queryCtx, cancel := context.WithTimeout(ctx, rosterQueryTimeout)
	defer cancel()

	count, err := r.enrollments.CountDocuments(queryCtx, bson.M{
		"course_id":  int64(courseID),
		"student_id": int64(studentID),
		"status":     models.EnrollmentStatusEnrolled,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to look up enrollment: %w", err)
	}
	return count > 0, nil
}
