package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/frontdesk/internal/application"
	"github.com/example/frontdesk/internal/config"
	"github.com/example/frontdesk/internal/engine"
	httptransport "github.com/example/frontdesk/internal/http"
	"github.com/example/frontdesk/internal/logging"
	"github.com/example/frontdesk/internal/notify"
	"github.com/example/frontdesk/internal/persistence/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.Origin)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("front desk stopped with error", "error", err)
		os.Exit(1)
	}
}

// run serves the API until ctx is cancelled.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTPPort))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return app.Serve(ctx, listener)
}

// app is the wired front-desk process.
type app struct {
	logger   *slog.Logger
	store    *sqlite.Store
	channel  notify.Channel
	bookings *application.BookingService
	handler  http.Handler
	closers  []io.Closer
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	tariff, err := config.LoadTariff(cfg.TariffPath)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(tariff, cfg.Pricing)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	warnTariffGaps(ctx, logger, tariff, time.Now())

	store, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.DBPath))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a := &app{logger: logger, store: store, closers: []io.Closer{store}}

	if err := store.Migrate(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	if cfg.RedisEnabled() {
		client, err := notify.NewRedisClient(ctx, notify.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Channel:  cfg.RedisChannel,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client)
		a.channel = notify.NewRedisChannel(client, cfg.RedisChannel, logger)
		logger.Info("publishing changes through redis", "addr", cfg.RedisAddress, "channel", cfg.RedisChannel)
	} else {
		a.channel = notify.NewHub(64, logger)
	}

	a.bookings = application.NewBookingServiceWithLogger(
		store,
		store,
		eng,
		a.channel,
		uuid.NewString,
		time.Now,
		application.BookingOptions{
			CommitAttempts: cfg.CommitAttempts,
			SnapshotTTL:    cfg.SnapshotTTL,
			Origin:         cfg.Origin,
			MaxStayNights:  cfg.MaxStayNights,
		},
		logger,
	)

	rooms, err := config.LoadRooms(cfg.RoomsPath)
	if err != nil {
		a.Close()
		return nil, err
	}
	if len(rooms) > 0 {
		if err := a.bookings.ImportRooms(ctx, rooms); err != nil {
			a.Close()
			return nil, fmt.Errorf("import rooms: %w", err)
		}
	}

	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Bookings: httptransport.NewBookingHandler(a.bookings, logger),
		Health:   httptransport.NewHealthHandler(store, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Recoverer(logger),
		},
	})
	return a, nil
}

// warnTariffGaps logs the dates no seasonal period covers. Stays touching
// them cannot be priced. A tariff without a year is checked for the year of
// now.
func warnTariffGaps(ctx context.Context, logger *slog.Logger, tariff engine.Tariff, now time.Time) {
	year := tariff.Year
	if year == 0 {
		year = now.Year()
	}
	gaps := tariff.Gaps(year)
	if len(gaps) == 0 {
		return
	}
	logger.WarnContext(ctx, "tariff leaves dates without a seasonal period",
		"year", year,
		"uncovered_days", len(gaps),
		"first", gaps[0].Format(engine.DateLayout),
		"last", gaps[len(gaps)-1].Format(engine.DateLayout),
	)
}

// Serve watches change notifications and serves HTTP on listener until ctx
// is cancelled, then shuts the server down gracefully.
func (a *app) Serve(ctx context.Context, listener net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		if err := a.bookings.WatchChanges(ctx, a.channel); err != nil {
			a.logger.Error("change watcher stopped", "error", err)
		}
	}()

	server := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	a.logger.Info("front desk API listening", "addr", listener.Addr().String())
	err := server.Serve(listener)
	cancel()
	<-shutdownDone
	<-watchDone
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Close releases storage and broker connections in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Error("failed to close resource", "error", err)
		}
	}
	a.closers = nil
}
