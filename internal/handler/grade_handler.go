package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/service"
	"github.com/noah-isme/gema-classroom-api/internal/utils"
)

// GradeHandler exposes the grading lifecycle.
type GradeHandler struct {
	service   service.GradeService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGradeHandler constructs the handler.
func NewGradeHandler(service service.GradeService, validator *validator.Validate, logger zerolog.Logger) *GradeHandler {
	return &GradeHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "grade_handler").Logger(),
	}
}

// Register attaches grade endpoints to the router group.
func (h *GradeHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/penalties", h.addPenalty)
	router.Post("/:id/bonuses", h.addBonus)
	router.Post("/:id/comments", h.addComment)
	router.Post("/:id/view", h.markViewed)
	router.Post("/:id/status", h.changeStatus)
}

func (h *GradeHandler) create(c *fiber.Ctx) error {
	var payload dto.GradeCreateRequest
	if err := parseBody(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	grade, err := h.service.Create(withRequestContext(c), activityActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "grade created", grade)
}

func (h *GradeHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	grade, err := h.service.Get(withRequestContext(c), activityActorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "grade retrieved", grade)
}

func (h *GradeHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeUpdateRequest
	if err := parseBody(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	grade, err := h.service.Update(withRequestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "grade updated", grade)
}

func (h *GradeHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(withRequestContext(c), activityActorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "grade deleted", fiber.Map{"id": id})
}

func (h *GradeHandler) addPenalty(c *fiber.Ctx) error {
	return h.adjust(c, "penalty applied", h.service.AddPenalty)
}

func (h *GradeHandler) addBonus(c *fiber.Ctx) error {
	return h.adjust(c, "bonus applied", h.service.AddBonus)
}

type adjustFunc func(ctx context.Context, actor service.ActivityActor, id uint, payload dto.GradeAdjustmentRequest) (dto.GradeResponse, error)

func (h *GradeHandler) adjust(c *fiber.Ctx, message string, fn adjustFunc) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeAdjustmentRequest
	if err := parseBody(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	grade, err := fn(withRequestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, message, grade)
}

func (h *GradeHandler) addComment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeCommentRequest
	if err := parseBody(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	comment, err := h.service.AddComment(withRequestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "comment added", comment)
}

func (h *GradeHandler) markViewed(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	grade, err := h.service.MarkViewed(withRequestContext(c), activityActorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "grade viewed", grade)
}

func (h *GradeHandler) changeStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeStatusRequest
	if err := parseBody(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	grade, err := h.service.ChangeStatus(withRequestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "grade status updated", grade)
}
