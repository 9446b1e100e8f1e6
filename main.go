package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bizdash/internal/client"
	"bizdash/internal/config"
	"bizdash/internal/export"
	"bizdash/internal/handlers"
	"bizdash/internal/metrics"
	"bizdash/internal/pipeline"
	"bizdash/internal/storage"
)

func main() {
	reportMode := flag.Bool("report", false, "run every pipeline once, print the monthly points as JSON and exit")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Initialize components
	calculator := metrics.NewCalculator(calculatorSettings(cfg.Tuning))
	store := storage.NewRunStore(storage.DefaultRunCapacity)
	svc := pipeline.New(pipeline.Options{
		SalesDir:    cfg.SalesDir,
		SupportDir:  cfg.SupportDir,
		SnapshotDir: cfg.SnapshotDir,
		Aliases:     cfg.Tuning.Aliases,
	}, calculator, store, logger)

	if *reportMode {
		logger.SetOutput(os.Stderr)
		if err := runReport(context.Background(), svc, os.Stdout, os.Stderr); err != nil {
			logger.WithError(err).Fatal("Report failed")
		}
		return
	}

	logger.Info("Starting bizdash metrics service")

	httpClient := client.NewHTTPClient(cfg, logger)
	exporter := export.NewExporter(cfg.SinkURL, cfg.SinkSecret, svc, httpClient, logger)

	var scheduler *export.Scheduler
	if cfg.ExportSchedule != "" {
		scheduler, err = export.NewScheduler(cfg.ExportSchedule, exporter, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to configure export schedule")
		}
		scheduler.Start()
	}

	handler := handlers.New(cfg, svc, store, exporter, logger)

	// Setup Gin router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	handler.Register(router)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"data_dir": cfg.DataDir,
		}).Info("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(ctx)
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func calculatorSettings(t config.Tuning) metrics.Settings {
	settings := metrics.DefaultSettings()
	settings.TopicShareThreshold = t.TopicShareThreshold
	if len(t.NPSRange) == 2 {
		settings.NPS = metrics.Range{Min: t.NPSRange[0], Max: t.NPSRange[1]}
	}
	if len(t.ChurnRange) == 2 {
		settings.Churn = metrics.Range{Min: t.ChurnRange[0], Max: t.ChurnRange[1]}
	}
	if t.SyntheticMonths > 0 {
		settings.SyntheticMonths = t.SyntheticMonths
	}
	return settings
}
