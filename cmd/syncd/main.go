package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-mobile-core/internal/api"
	"github.com/noah-isme/gema-mobile-core/internal/config"
	"github.com/noah-isme/gema-mobile-core/internal/handler"
	"github.com/noah-isme/gema-mobile-core/internal/netstatus"
	"github.com/noah-isme/gema-mobile-core/internal/router"
	"github.com/noah-isme/gema-mobile-core/internal/service"
	"github.com/noah-isme/gema-mobile-core/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}
	defer closeStore()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, sync notifications disabled")
		} else {
			defer natsConn.Close()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	client := api.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.HTTPTimeout, logger)

	draftService := service.NewDraftService(store, logger)
	queueService := service.NewQueueService(store, validate, logger)
	monitor := netstatus.NewMonitor(logger)
	syncService := service.NewSyncService(queueService, draftService, client, monitor, validate, natsConn, cfg.SyncSubject, logger)

	// Regaining connectivity is the only automatic drain trigger; manual
	// retries go through the HTTP surface.
	monitor.OnReconnect(func() {
		go func() {
			if _, err := syncService.Drain(context.Background(), "reconnect"); err != nil && err != service.ErrDrainInProgress {
				logger.Error().Err(err).Msg("reconnect drain failed")
			}
		}()
	})

	go monitor.RunProbe(ctx, cfg.ProbeInterval, func(ctx context.Context) netstatus.State {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		err := client.Ping(probeCtx)
		return netstatus.State{
			Connected: err == nil,
			Reachable: err == nil,
			Transport: "http",
		}
	})

	assignmentHandler := handler.NewAssignmentHandler(client, logger)
	submissionHandler := handler.NewSubmissionHandler(syncService, logger)
	syncHandler := handler.NewSyncHandler(syncService, queueService, draftService, monitor, logger)
	draftHandler := handler.NewDraftHandler(draftService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: assignmentHandler,
		SubmissionHandler: submissionHandler,
		SyncHandler:       syncHandler,
		DraftHandler:      draftHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(ctx, app)
}

// openStore prefers Redis and falls back to process memory when no URL is
// configured, which keeps drafts and the queue alive only for this run.
func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (storage.Store, func(), error) {
	if cfg.RedisURL == "" {
		logger.Warn().Msg("no redis url configured, using in-memory store")
		return storage.NewMemoryStore(), func() {}, nil
	}

	redisStore, err := storage.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	return redisStore, func() { _ = redisStore.Close() }, nil
}

func waitForShutdown(ctx context.Context, app *fiber.App) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
