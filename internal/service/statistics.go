package service

import (
	"context"

	"github.com/noah-isme/gema-classroom-api/internal/grading"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

// recomputeGradeStatistics rescans every grade on the assignment and rewrites the
// graded count and average. It runs inside the grading transaction.
func recomputeGradeStatistics(ctx context.Context, book repository.Gradebook, assignmentID uint) error {
	aggregate, err := book.Grades.Aggregate(ctx, assignmentID)
	if err != nil {
		return err
	}

	average := 0.0
	if aggregate.Count > 0 {
		average = grading.Round(aggregate.Average, 2)
	}

	return book.Assignments.UpdateGradeStatistics(ctx, assignmentID, aggregate.Count, average)
}

// computeStatistics is the full rescan, including the extremes and the roster-based submission rate.
func computeStatistics(ctx context.Context, book repository.Gradebook, roster repository.RosterRepository, assignment models.Assignment) (models.AssignmentStatistics, error) {
	aggregate, err := book.Grades.Aggregate(ctx, assignment.ID)
	if err != nil {
		return models.AssignmentStatistics{}, err
	}

	submitters, err := book.Submissions.CountSubmitters(ctx, assignment.ID)
	if err != nil {
		return models.AssignmentStatistics{}, err
	}

	var enrolled int64
	if roster != nil {
		enrolled, err = roster.CountEnrolled(ctx, assignment.CourseID)
		if err != nil {
			return models.AssignmentStatistics{}, err
		}
	}

	stats := models.AssignmentStatistics{
		TotalSubmissions:  submitters,
		GradedSubmissions: aggregate.Count,
	}
	if aggregate.Count > 0 {
		stats.AverageGrade = grading.Round(aggregate.Average, 2)
		stats.HighestGrade = grading.Round(aggregate.Highest, 2)
		stats.LowestGrade = grading.Round(aggregate.Lowest, 2)
	}
	if enrolled > 0 {
		stats.SubmissionRate = grading.Round(float64(submitters)/float64(enrolled)*100, 2)
	}

	return stats, nil
}

// refreshStatistics runs the full rescan and stores the result on the assignment.
func refreshStatistics(ctx context.Context, book repository.Gradebook, roster repository.RosterRepository, assignment models.Assignment) (models.AssignmentStatistics, error) {
	stats, err := computeStatistics(ctx, book, roster, assignment)
	if err != nil {
		return models.AssignmentStatistics{}, err
	}
	if err := book.Assignments.UpdateStatistics(ctx, assignment.ID, stats); err != nil {
		return models.AssignmentStatistics{}, err
	}
	return stats, nil
}
