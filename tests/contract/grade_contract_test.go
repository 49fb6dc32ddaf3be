package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/handler"
	"github.com/noah-isme/gema-classroom-api/internal/service"
)

type stubGradeService struct {
	service.GradeService
	response dto.GradeResponse
}

func (s stubGradeService) Get(context.Context, service.ActivityActor, uint) (dto.GradeResponse, error) {
	return s.response, nil
}

func TestGradeResponseContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "grade.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	gradedAt := time.Now().Add(-time.Hour).UTC()
	publishedAt := gradedAt.Add(10 * time.Minute)
	grade := dto.GradeResponse{
		ID:           7,
		StudentID:    3,
		AssignmentID: 11,
		SubmissionID: 21,
		CourseID:     1,
		InstructorID: 2,
		Scores: dto.GradeScoresResponse{
			Raw:            85,
			Adjusted:       80,
			Percentage:     80,
			PointsEarned:   80,
			PointsPossible: 100,
		},
		LetterGrade: "B-",
		GradePoints: 2.7,
		Penalties: []dto.GradeAdjustmentResponse{
			{Points: 5, Reason: "late", AppliedBy: 2, AppliedAt: publishedAt},
		},
		Bonuses:          []dto.GradeAdjustmentResponse{},
		Feedback:         "Solid work",
		Status:           "published",
		VisibleToStudent: true,
		Timeline: dto.GradeTimelineResponse{
			GradedAt:       gradedAt,
			PublishedAt:    &publishedAt,
			LastModifiedAt: publishedAt,
		},
		Comments: []dto.GradeCommentResponse{
			{ID: 1, GradeID: 7, AuthorID: 2, AuthorRole: "teacher", Content: "See rubric", CreatedAt: publishedAt},
		},
		CreatedAt: gradedAt,
		UpdatedAt: publishedAt,
	}

	gradeHandler := handler.NewGradeHandler(stubGradeService{response: grade}, validator.New(), zerolog.Nop())

	app := fiber.New()
	gradeHandler.Register(app.Group("/api/v1/grades"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/grades/7", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
