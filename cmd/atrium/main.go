package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/atrium-app/atrium/internal/app"
	"github.com/atrium-app/atrium/internal/booking"
	"github.com/atrium-app/atrium/internal/buildings"
	"github.com/atrium-app/atrium/internal/dashboard"
	"github.com/atrium-app/atrium/internal/observability"
	"github.com/atrium-app/atrium/internal/platform/cache"
	"github.com/atrium-app/atrium/internal/platform/db"
	"github.com/atrium-app/atrium/internal/rooms"
	"github.com/atrium-app/atrium/internal/users"
	"github.com/atrium-app/atrium/jobs"
	"github.com/atrium-app/atrium/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(migrations.FS, ".", cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns, MaxConnLifetime: cfg.PGConnLifetime})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	metricsCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	notifier := jobs.NewReminderNotifier(jobClient, logger, time.Hour)

	bookingRepo := booking.NewRepository(pool)
	bookingService := booking.NewService(bookingRepo, notifier, metricsCache, cfg.CancelLead)
	bookingHandler := booking.NewHandler(logger, bookingService)

	dashboardRepo := dashboard.NewRepository(pool)
	dashboardService := dashboard.NewService(dashboardRepo, metricsCache)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	roomsRepo := rooms.NewRepository(pool)
	roomsService := rooms.NewService(roomsRepo)
	roomsHandler := rooms.NewHandler(logger, roomsService)

	buildingsRepo := buildings.NewRepository(pool)
	buildingsService := buildings.NewService(buildingsRepo)
	buildingsHandler := buildings.NewHandler(logger, buildingsService)

	tokenIssuer := users.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTTTL)
	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, tokenIssuer)
	usersHandler := users.NewHandler(logger, usersService)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		BookingHandler:   bookingHandler,
		DashboardHandler: dashboardHandler,
		RoomsHandler:     roomsHandler,
		BuildingsHandler: buildingsHandler,
		UsersHandler:     usersHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server run", slog.Any("error", err))
		os.Exit(1)
	}
}
