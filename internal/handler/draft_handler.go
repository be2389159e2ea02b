package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-mobile-core/internal/models"
	"github.com/noah-isme/gema-mobile-core/internal/service"
	"github.com/noah-isme/gema-mobile-core/internal/utils"
)

// DraftHandler manages locally persisted in-progress answers.
type DraftHandler struct {
	drafts service.DraftService
	logger zerolog.Logger
}

// NewDraftHandler builds a draft handler instance.
func NewDraftHandler(drafts service.DraftService, logger zerolog.Logger) *DraftHandler {
	return &DraftHandler{
		drafts: drafts,
		logger: logger.With().Str("component", "draft_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *DraftHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Delete("", h.clearAll)
	router.Get("/:assignmentId", h.get)
	router.Put("/:assignmentId", h.save)
	router.Delete("/:assignmentId", h.clear)
}

type draftRequest struct {
	TextAnswer string             `json:"text_answer"`
	Files      []models.LocalFile `json:"files"`
}

func (h *DraftHandler) list(c *fiber.Ctx) error {
	drafts, err := h.drafts.All(c.Context())
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "drafts retrieved", drafts)
}

func (h *DraftHandler) get(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	draft, err := h.drafts.Load(c.Context(), assignmentID)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	if draft == nil {
		return utils.SendError(c, fiber.StatusNotFound, "no draft for assignment")
	}

	return utils.SendSuccess(c, "draft retrieved", draft)
}

func (h *DraftHandler) save(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload draftRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.drafts.Save(c.Context(), assignmentID, payload.TextAnswer, payload.Files); err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "draft saved", nil)
}

func (h *DraftHandler) clear(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.drafts.Clear(c.Context(), assignmentID); err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "draft cleared", nil)
}

func (h *DraftHandler) clearAll(c *fiber.Ctx) error {
	if err := h.drafts.ClearAll(c.Context()); err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "drafts cleared", nil)
}
