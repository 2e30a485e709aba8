package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/metrics"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/scheduler"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/modules/admin/handlers"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/modules/admin/services"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/modules/admin/store"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/shared/config"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/shared/middleware"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/shared/utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	utils.InitLogger(cfg.LogLevel, cfg.Env)

	log.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Env).
		Str("store", cfg.StoreDriver).
		Msg("starting admin-api")

	// Init store
	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	st, err := store.Open(connectCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	// Init metrics
	m := metrics.NewManager(metrics.WithRuntimeCollectors())

	// Init services
	sectionOpts := services.SectionOptions{TopN: cfg.TopN, SampleSize: cfg.SampleSize}
	reportService := services.NewReportService(st.Repo, services.ReportOptions{
		Timeout: cfg.ReportTimeout,
		Section: sectionOpts,
		Pinger:  st.Pinger,
		Metrics: m,
	})
	widgetService, err := services.NewWidgetService(reportService, sectionOpts, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register widgets")
	}
	exportService := services.NewExportService(reportService, cfg.ExportMaxRows, m)

	// Health refresh job
	sched := scheduler.NewScheduler(cfg.ReportTimeout)
	if cfg.HealthRefreshSchedule != "" {
		err := sched.Add("health_refresh", cfg.HealthRefreshSchedule, func(ctx context.Context) error {
			health, err := reportService.RefreshHealth(ctx)
			if err != nil {
				return err
			}
			log.Debug().Int("score", health.Score).Str("status", health.Status).Msg("health refreshed")
			return nil
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to schedule health refresh")
		}
		if err := sched.RunNow("health_refresh"); err != nil {
			log.Warn().Err(err).Msg("initial health refresh failed")
		}
	}
	sched.Start()
	defer sched.Stop()

	// Init handlers
	h := handlers.Handlers{
		Health:    handlers.NewHealthHandler(st.Pinger),
		Dashboard: handlers.NewDashboardHandler(reportService, widgetService),
		Export:    handlers.NewExportHandler(exportService, reportService),
		Metrics:   m,
	}

	// Init Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "Resume Admin Reporting API",
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.Logger(&log.Logger, m))

	handlers.RegisterRoutes(app, h)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
