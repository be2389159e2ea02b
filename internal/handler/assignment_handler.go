package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-mobile-core/internal/api"
	"github.com/noah-isme/gema-mobile-core/internal/display"
	"github.com/noah-isme/gema-mobile-core/internal/models"
	"github.com/noah-isme/gema-mobile-core/internal/utils"
	"github.com/noah-isme/gema-mobile-core/internal/validation"
)

// AssignmentHandler proxies assignment reads and convener mutations to the
// backend and attaches the presentation projection the UI renders from.
// Assignment mutations are direct calls: failures propagate to the caller
// rather than entering the offline queue.
type AssignmentHandler struct {
	client api.Client
	logger zerolog.Logger
}

// NewAssignmentHandler builds an assignment handler instance.
func NewAssignmentHandler(client api.Client, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		client: client,
		logger: logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

type assignmentRequest struct {
	LessonID     uint      `json:"lesson_id"`
	Title        string    `json:"title"`
	Instructions string    `json:"instructions"`
	DueDate      time.Time `json:"due_date"`
}

// assignmentView pairs the raw assignment with its derived display data.
type assignmentView struct {
	Assignment models.Assignment             `json:"assignment"`
	Display    display.AssignmentDisplayData `json:"display"`
	DueLabel   string                        `json:"due_label"`
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	assignments, err := h.client.ListStudentAssignments(c.Context())
	if err != nil {
		return handleError(c, h.logger, err)
	}

	views := make([]assignmentView, 0, len(assignments))
	for _, assignment := range assignments {
		views = append(views, newAssignmentView(assignment))
	}

	return utils.SendSuccess(c, "assignments retrieved", views)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.client.GetAssignment(c.Context(), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", newAssignmentView(assignment))
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload assignmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	form := validation.AssignmentForm{
		Title:        payload.Title,
		Instructions: payload.Instructions,
		DueDate:      payload.DueDate,
	}
	if errs := validation.ValidateAssignmentForm(form); len(errs) > 0 {
		return utils.SendValidationError(c, errs)
	}

	assignment, err := h.client.CreateAssignment(c.Context(), api.AssignmentRequest{
		LessonID:     payload.LessonID,
		Title:        payload.Title,
		Instructions: payload.Instructions,
		DueDate:      payload.DueDate,
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", newAssignmentView(assignment))
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload assignmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	form := validation.AssignmentForm{
		Title:        payload.Title,
		Instructions: payload.Instructions,
		DueDate:      payload.DueDate,
	}
	if errs := validation.ValidateAssignmentForm(form); len(errs) > 0 {
		return utils.SendValidationError(c, errs)
	}

	assignment, err := h.client.UpdateAssignment(c.Context(), id, api.AssignmentRequest{
		LessonID:     payload.LessonID,
		Title:        payload.Title,
		Instructions: payload.Instructions,
		DueDate:      payload.DueDate,
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment updated", newAssignmentView(assignment))
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.client.DeleteAssignment(c.Context(), id); err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment deleted", nil)
}

func newAssignmentView(assignment models.Assignment) assignmentView {
	return assignmentView{
		Assignment: assignment,
		Display:    display.GetAssignmentDisplayData(assignment),
		DueLabel:   display.FormatDueDate(assignment.DueDate),
	}
}
