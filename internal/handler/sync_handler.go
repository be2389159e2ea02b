package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-mobile-core/internal/netstatus"
	"github.com/noah-isme/gema-mobile-core/internal/service"
	"github.com/noah-isme/gema-mobile-core/internal/utils"
)

// SyncHandler exposes queue status and the manual drain entry point.
type SyncHandler struct {
	sync    service.SyncService
	queue   service.QueueService
	drafts  service.DraftService
	monitor *netstatus.Monitor
	logger  zerolog.Logger
}

// NewSyncHandler builds a sync handler instance.
func NewSyncHandler(sync service.SyncService, queue service.QueueService, drafts service.DraftService, monitor *netstatus.Monitor, logger zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		sync:    sync,
		queue:   queue,
		drafts:  drafts,
		monitor: monitor,
		logger:  logger.With().Str("component", "sync_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SyncHandler) Register(router fiber.Router) {
	router.Get("/status", h.status)
	router.Post("", h.drain)
}

func (h *SyncHandler) status(c *fiber.Ctx) error {
	state := h.monitor.Current()

	queueLength, err := h.queue.Length(c.Context())
	if err != nil {
		return handleError(c, h.logger, err)
	}

	drafts, err := h.drafts.All(c.Context())
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "sync status", fiber.Map{
		"connected":    state.Connected,
		"reachable":    state.Reachable,
		"transport":    state.Transport,
		"queue_length": queueLength,
		"draft_count":  len(drafts),
	})
}

// drain is the user-initiated retry: the one drain trigger besides the
// reconnect transition.
func (h *SyncHandler) drain(c *fiber.Ctx) error {
	report, err := h.sync.Drain(c.Context(), "manual")
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "sync finished", report)
}
