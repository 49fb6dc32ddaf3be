package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

const (
	testInstructorID uint = 10
	testStudentID    uint = 20
	testOtherStudent uint = 21
)

var (
	instructor = ActivityActor{ID: testInstructorID, Role: RoleTeacher}
	student    = ActivityActor{ID: testStudentID, Role: RoleStudent}
	admin      = ActivityActor{ID: 1, Role: RoleAdmin}
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

type gradebookFixture struct {
	db         *gorm.DB
	store      repository.GradebookStore
	roster     repository.RosterRepository
	course     models.Course
	assignment models.Assignment
}

func newGradebookFixture(t *testing.T) *gradebookFixture {
	t.Helper()
	db := setupTestDB(t)

	course := models.Course{Code: "CS101", Title: "Intro", InstructorID: testInstructorID, IsActive: true}
	require.NoError(t, db.Create(&course).Error)

	for _, studentID := range []uint{testStudentID, testOtherStudent} {
		enrollment := models.Enrollment{CourseID: course.ID, StudentID: studentID, Status: models.EnrollmentStatusEnrolled, EnrolledAt: time.Now()}
		require.NoError(t, db.Create(&enrollment).Error)
	}

	assignment := models.Assignment{
		CourseID:     course.ID,
		InstructorID: testInstructorID,
		Title:        "Essay 1",
		Type:         models.AssignmentTypeEssay,
		MaxGrade:     100,
		DueDate:      time.Now().Add(72 * time.Hour),
		IsActive:     true,
	}
	assignment.ApplyDefaults()
	require.NoError(t, db.Create(&assignment).Error)

	return &gradebookFixture{
		db:         db,
		store:      repository.NewGradebookStore(db),
		roster:     repository.NewRosterRepository(db),
		course:     course,
		assignment: assignment,
	}
}

func (f *gradebookFixture) submission(t *testing.T, studentID uint, attempt int, mutate func(*models.Submission)) models.Submission {
	t.Helper()
	submittedAt := time.Now()
	submission := models.Submission{
		AssignmentID:  f.assignment.ID,
		StudentID:     studentID,
		CourseID:      f.course.ID,
		AttemptNumber: attempt,
		Status:        models.SubmissionStatusSubmitted,
		SubmittedAt:   &submittedAt,
		Content:       models.SubmissionContent{Text: "answer"},
	}
	if mutate != nil {
		mutate(&submission)
	}
	require.NoError(t, f.db.Create(&submission).Error)
	return submission
}

func (f *gradebookFixture) reloadAssignment(t *testing.T) models.Assignment {
	t.Helper()
	var assignment models.Assignment
	require.NoError(t, f.db.First(&assignment, f.assignment.ID).Error)
	return assignment
}

func (f *gradebookFixture) reloadSubmission(t *testing.T, id uint) models.Submission {
	t.Helper()
	var submission models.Submission
	require.NoError(t, f.db.First(&submission, id).Error)
	return submission
}

type stubNotificationPublisher struct {
	calls []dto.NotificationCreateRequest
}

func (s *stubNotificationPublisher) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	s.calls = append(s.calls, payload)
	return dto.NotificationResponse{ID: uint(len(s.calls)), UserID: payload.UserID, Type: payload.Type, Message: payload.Message}, nil
}

type stubUploader struct {
	uploads []string
}

func (s *stubUploader) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	s.uploads = append(s.uploads, name)
	return "https://cdn.example.com/" + name, nil
}

func ptrFloat(v float64) *float64 { return &v }

func ptrString(v string) *string { return &v }

func newTestFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(int64(len(content))+1024))
	files := req.MultipartForm.File["file"]
	require.Len(t, files, 1)
	return files[0]
}
