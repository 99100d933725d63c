package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/dhifafaz/birthday-reminder/internal/adapters/database"
	"github.com/dhifafaz/birthday-reminder/internal/adapters/notifier"
	"github.com/dhifafaz/birthday-reminder/internal/adapters/queue"
	"github.com/dhifafaz/birthday-reminder/internal/app"
	"github.com/dhifafaz/birthday-reminder/internal/config"
	"github.com/dhifafaz/birthday-reminder/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("connect to database failed", zap.Error(err))
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("connect to redis failed", zap.Error(err))
	}

	store := queue.NewRedisStore(redisClient)
	defer store.Close()

	userRepo := database.NewPostgresUserRepository(pool)
	emailNotifier := notifier.NewEmailNotifier(cfg.EmailServiceURL, cfg.EmailRateLimit, cfg.EmailRateBurst)

	schedulerService := app.NewSchedulerService(userRepo, store, log)
	dispatcherService := app.NewDispatcherService(store, store, userRepo, emailNotifier, log, cfg.SendTimeout)
	recoveryService := app.NewRecoveryService(store, userRepo, emailNotifier, log, cfg.SendTimeout)

	// The sweep marker lives in memory, so a fresh process re-attempts
	// yesterday's failures right away instead of waiting for the first tick.
	if err := recoveryService.RunSweep(ctx); err != nil {
		log.Error("startup recovery sweep failed", zap.Error(err))
	}

	runner := app.NewRunner(log)
	if err := runner.Add("schedule", cfg.ScheduleSpec, schedulerService.RunScheduleCycle); err != nil {
		log.Fatal("register schedule cycle failed", zap.Error(err))
	}
	if err := runner.Add("dispatch", cfg.DispatchSpec, dispatcherService.RunDispatchCycle); err != nil {
		log.Fatal("register dispatch cycle failed", zap.Error(err))
	}
	if err := runner.Add("recovery", cfg.RecoverySpec, recoveryService.RunSweep); err != nil {
		log.Fatal("register recovery sweep failed", zap.Error(err))
	}

	log.Info("birthday scheduler started",
		zap.String("scheduleSpec", cfg.ScheduleSpec),
		zap.String("dispatchSpec", cfg.DispatchSpec),
		zap.String("recoverySpec", cfg.RecoverySpec))

	if err := runner.Start(ctx); err != nil {
		log.Error("runner error", zap.Error(err))
	}

	log.Info("birthday scheduler stopped")
}
