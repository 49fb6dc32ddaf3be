package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/service"
	"github.com/noah-isme/gema-classroom-api/internal/utils"
)

// DiscussionHandler provides HTTP endpoints for course discussion threads.
type DiscussionHandler struct {
	service   service.DiscussionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewDiscussionHandler constructs a handler instance.
func NewDiscussionHandler(service service.DiscussionService, validator *validator.Validate, logger zerolog.Logger) *DiscussionHandler {
	return &DiscussionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "discussion_handler").Logger(),
	}
}

// Register binds the discussion routes.
func (h *DiscussionHandler) Register(router fiber.Router) {
	router.Get("/threads", h.listThreads)
	router.Post("/threads", h.createThread)
	router.Get("/threads/:id", h.getThread)
	router.Patch("/threads/:id", h.updateThread)
	router.Delete("/threads/:id", h.deleteThread)
	router.Post("/threads/:id/replies", h.createReply)
}

func (h *DiscussionHandler) listThreads(c *fiber.Ctx) error {
	courseID, err := parseQueryUint(c, "course_id")
	if err != nil || courseID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "course_id is required")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	threads, err := h.service.ListThreads(withRequestContext(c), activityActorFromContext(c), courseID, limit, offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, threads, "threads", fiber.Map{"limit": limit, "offset": offset, "count": len(threads)})
}

func (h *DiscussionHandler) getThread(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	thread, err := h.service.GetThread(withRequestContext(c), activityActorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "thread", thread)
}

func (h *DiscussionHandler) createThread(c *fiber.Ctx) error {
	var payload dto.DiscussionThreadCreateRequest
	if err := parseBody(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	thread, err := h.service.CreateThread(withRequestContext(c), activityActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "thread created", thread)
}

func (h *DiscussionHandler) updateThread(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DiscussionThreadUpdateRequest
	if err := parseBody(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	thread, err := h.service.UpdateThread(withRequestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "thread updated", thread)
}

func (h *DiscussionHandler) deleteThread(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteThread(withRequestContext(c), activityActorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "thread deleted", fiber.Map{"id": id})
}

func (h *DiscussionHandler) createReply(c *fiber.Ctx) error {
	threadID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DiscussionReplyCreateRequest
	if err := parseBody(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	reply, err := h.service.CreateReply(withRequestContext(c), activityActorFromContext(c), threadID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reply created", reply)
}
