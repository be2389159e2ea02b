package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-mobile-core/internal/api"
	"github.com/noah-isme/gema-mobile-core/internal/service"
	"github.com/noah-isme/gema-mobile-core/internal/utils"
)

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := c.Params(key)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}

	return uint(parsed), nil
}

// handleError maps service and backend failures onto local HTTP responses.
// Deliberate backend rejections keep their status; transport failures
// surface as bad gateway so the UI can distinguish "offline" from "denied".
func handleError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErrors validator.ValidationErrors
	var apiErr *api.APIError

	switch {
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.As(err, &apiErr):
		return utils.SendError(c, apiErr.StatusCode, apiErr.Message)
	case errors.Is(err, service.ErrDrainInProgress):
		return utils.SendError(c, fiber.StatusConflict, "sync already in progress")
	case api.IsTransportError(err):
		return utils.SendError(c, fiber.StatusBadGateway, "backend unreachable")
	default:
		logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
