package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/llitton/liveschool-office-hours-sub005/internal/application"
	"github.com/llitton/liveschool-office-hours-sub005/internal/calendar"
	"github.com/llitton/liveschool-office-hours-sub005/internal/config"
	httptransport "github.com/llitton/liveschool-office-hours-sub005/internal/http"
	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(ctx, cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	idGenerator := func() string { return uuid.NewString() }
	now := time.Now

	provider := calendar.NewHTTPProvider(cfg.CalendarBaseURL, nil, cfg.CalendarTimeout)

	availabilityService := application.NewAvailabilityServiceWithLogger(
		storage.Events, storage.Hosts, storage.Patterns, storage.Intervals,
		storage.Slots, storage.Bookings, storage.Holidays, now, logger)
	bookingService := application.NewBookingServiceWithLogger(
		storage.Events, storage.Hosts, storage.Bookings, storage.Rotation,
		availabilityService, idGenerator, now, logger)
	syncService := application.NewSyncServiceWithLogger(
		storage.Hosts, storage.Intervals, provider,
		cfg.CalendarTimeout, cfg.SyncMaxParallel, now, logger)
	provisioningService := application.NewProvisioningServiceWithLogger(
		storage.Hosts, storage.Patterns, storage.Events, storage.Holidays,
		storage.Slots, idGenerator, now, logger)

	syncHorizon := time.Duration(cfg.SyncHorizonDays) * 24 * time.Hour

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Slots:      httptransport.NewSlotHandler(availabilityService, logger),
		Bookings:   httptransport.NewBookingHandler(bookingService, logger),
		Admin:      httptransport.NewAdminHandler(provisioningService, logger),
		Sync:       httptransport.NewSyncHandler(syncService, syncHorizon, logger),
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	go runSyncLoop(ctx, logger, syncService, cfg.SyncInterval, syncHorizon)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("office hours API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// runSyncLoop refreshes the busy-interval cache on a fixed interval until the
// context is cancelled. An initial pass runs immediately so availability is
// accurate from startup.
func runSyncLoop(ctx context.Context, logger *slog.Logger, service *application.SyncService, interval, horizon time.Duration) {
	if interval <= 0 {
		return
	}

	refresh := func() {
		report, err := service.RefreshBusyIntervals(ctx, horizon)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("busy-interval refresh failed", "error", err)
			}
			return
		}
		logger.Info("busy-interval refresh finished",
			"synced", report.Synced, "skipped", report.Skipped, "failed", report.Failed)
	}

	refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
