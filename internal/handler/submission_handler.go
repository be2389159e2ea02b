package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-mobile-core/internal/models"
	"github.com/noah-isme/gema-mobile-core/internal/service"
	"github.com/noah-isme/gema-mobile-core/internal/utils"
	"github.com/noah-isme/gema-mobile-core/internal/validation"
)

// SubmissionHandler routes submission writes through the sync service, so
// the UI gets the same behavior online and offline.
type SubmissionHandler struct {
	sync   service.SyncService
	logger zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(sync service.SyncService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		sync:   sync,
		logger: logger.With().Str("component", "submission_handler").Logger(),
	}
}

// RegisterAssignmentRoutes attaches routes keyed by assignment.
func (h *SubmissionHandler) RegisterAssignmentRoutes(router fiber.Router) {
	router.Post("/:id/submission", h.submit)
}

// Register attaches routes keyed by submission.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Patch("/:id", h.update)
	router.Post("/:id/grade", h.grade)
}

type submitRequest struct {
	TextAnswer string             `json:"text_answer"`
	Files      []models.LocalFile `json:"files"`
}

type gradeRequest struct {
	GradingStatus string `json:"grading_status"`
	Feedback      string `json:"feedback"`
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload submitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if details := fileValidationDetails(payload.Files); len(details) > 0 {
		return utils.SendValidationError(c, details)
	}

	outcome, err := h.sync.SubmitAssignment(c.Context(), models.SubmitPayload{
		AssignmentID: assignmentID,
		TextAnswer:   payload.TextAnswer,
		Files:        payload.Files,
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}

	if outcome.Queued {
		return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "submission queued for sync", outcome)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", outcome)
}

func (h *SubmissionHandler) update(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload models.UpdatePayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	payload.SubmissionID = submissionID

	outcome, err := h.sync.UpdateSubmission(c.Context(), payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	if outcome.Queued {
		return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "update queued for sync", outcome)
	}

	return utils.SendSuccess(c, "submission updated", outcome)
}

func (h *SubmissionHandler) grade(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload gradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	outcome, err := h.sync.GradeSubmission(c.Context(), models.GradePayload{
		SubmissionID:  submissionID,
		GradingStatus: payload.GradingStatus,
		Feedback:      payload.Feedback,
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}

	if outcome.Queued {
		return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "grade queued for sync", outcome)
	}

	return utils.SendSuccess(c, "submission graded", outcome)
}

// fileValidationDetails maps each rejected file to its message, keyed by
// position, so the UI can render failures inline.
func fileValidationDetails(files []models.LocalFile) map[string]string {
	details := make(map[string]string)
	for i, result := range validation.ValidateFiles(files) {
		if !result.Valid {
			details[fmt.Sprintf("files[%d]", i)] = result.Error
		}
	}

	return details
}
