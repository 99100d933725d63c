package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhifafaz/birthday-reminder/internal/adapters/database"
	httpAdapter "github.com/dhifafaz/birthday-reminder/internal/adapters/http"
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

	userRepo := database.NewPostgresUserRepository(pool)
	userService := app.NewUserService(userRepo)
	userHandler := httpAdapter.NewUserHandler(userService)

	router := gin.Default()

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "birthday-api-server",
		})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/user", userHandler.CreateUser)
		v1.GET("/users", userHandler.ListUsers)
		v1.GET("/user/:id", userHandler.GetUser)
		v1.DELETE("/user/:id", userHandler.DeleteUser)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info("birthday API server started", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Warn("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
