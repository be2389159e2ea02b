package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-mobile-core/internal/config"
	"github.com/noah-isme/gema-mobile-core/internal/utils"
)

// HealthCheck reports daemon liveness.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "ok", fiber.Map{
			"app": cfg.AppName,
			"env": cfg.AppEnv,
		})
	}
}
