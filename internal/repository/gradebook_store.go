package repository

import (
	"context"

	"gorm.io/gorm"
)

// Gradebook bundles the repositories touched by a grading operation.
type Gradebook struct {
	Assignments AssignmentRepository
	Submissions SubmissionRepository
	Grades      GradeRepository
}

// GradebookStore runs grading writes inside one transaction so the grade,
// its submission and the assignment statistics commit or roll back together.
type GradebookStore interface {
	Gradebook() Gradebook
	WithinTransaction(ctx context.Context, fn func(Gradebook) error) error
}

type gradebookStore struct {
	db *gorm.DB
}

// NewGradebookStore constructs a GORM-backed gradebook store.
func NewGradebookStore(db *gorm.DB) GradebookStore {
	return &gradebookStore{db: db}
}

func (s *gradebookStore) Gradebook() Gradebook {
	return newGradebook(s.db)
}

// WithinTransaction hands fn repositories bound to a single transaction.
// Only those repositories may be used inside fn.
func (s *gradebookStore) WithinTransaction(ctx context.Context, fn func(Gradebook) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGradebook(tx))
	})
}

func newGradebook(db *gorm.DB) Gradebook {
	return Gradebook{
		Assignments: NewAssignmentRepository(db),
		Submissions: NewSubmissionRepository(db),
		Grades:      NewGradeRepository(db),
	}
}
