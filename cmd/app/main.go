package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-gate-bot/internal/application"
	"telegram-gate-bot/internal/config"
	"telegram-gate-bot/internal/domain/model"
	"telegram-gate-bot/internal/infra/adapters/telegram"
	"telegram-gate-bot/internal/infra/db/postgres"
	"telegram-gate-bot/internal/infra/logging"
	"telegram-gate-bot/internal/infra/metrics"
	red "telegram-gate-bot/internal/infra/redis"
	"telegram-gate-bot/internal/infra/sched"
	"telegram-gate-bot/internal/infra/web"
	"telegram-gate-bot/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dev := flag.Bool("dev", false, "run in dev mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ----- Infrastructure -----
	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 0)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()

	userRepo := postgres.NewPostgresUserRepo(pool)
	courseRepo := postgres.NewPostgresCourseRepo(pool)
	txManager := postgres.NewTxManager(pool)
	draftRepo := red.NewCourseDraftStateRepo(redisClient, cfg.Redis.TTL)
	rateLimiter := red.NewRateLimiter(redisClient)

	// ----- Telegram adapter -----
	// Built before the use cases: its oracle half feeds the verifier; the
	// facade is attached afterwards.
	botAdapter, err := telegram.NewRealTelegramBotAdapter(cfg, rateLimiter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram adapter init failed")
	}

	// ----- Use cases -----
	channels := make([]model.ChannelRequirement, 0, len(cfg.Gate.Channels))
	for _, ch := range cfg.Gate.Channels {
		channels = append(channels, model.ChannelRequirement{ID: ch.ID, URL: ch.URL})
	}

	userUC := usecase.NewUserUseCase(userRepo, txManager, logger)
	accessUC := usecase.NewAccessUseCase(channels, botAdapter, logger)
	issuer := usecase.NewTokenIssuer(cfg.Gate.Secret, logger)
	courseUC := usecase.NewCourseUseCase(courseRepo, logger)
	formUC := usecase.NewCourseFormUseCase(draftRepo, courseUC, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, courseRepo, logger)

	facade := application.NewBotFacade(userUC, accessUC, issuer, courseUC, formUC, statsUC)
	botAdapter.SetFacade(facade)

	// ----- Admin web server -----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.JWTTTL)
	adminServer := web.NewServer(courseUC, statsUC, auth, cfg.Admin.APIKey, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler:           adminServer.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// ----- Run -----
	errCh := make(chan error, 2)

	go func() {
		logger.Info().Str("mode", cfg.Bot.Mode).Msg("starting telegram polling")
		if err := botAdapter.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("telegram polling: %w", err)
		}
	}()

	if cfg.Admin.Port > 0 {
		go func() {
			logger.Info().Int("port", cfg.Admin.Port).Msg("starting admin server")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("admin server: %w", err)
			}
		}()
	}

	audit := sched.NewChannelAuditWorker(botAdapter, channels, botAdapter.SelfID(), cfg.Scheduler.ChannelAuditInterval, logger)
	go audit.Start(ctx)

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("component failed, shutting down")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("admin server shutdown failed")
	}
	botAdapter.StopPolling()
	logger.Info().Msg("shutdown complete")
}
