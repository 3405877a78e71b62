package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/familybicons/socios-server/internal/api"
	"github.com/familybicons/socios-server/internal/auth"
	"github.com/familybicons/socios-server/internal/config"
	"github.com/familybicons/socios-server/internal/metrics"
	"github.com/familybicons/socios-server/internal/repository"
	"github.com/familybicons/socios-server/internal/scheduler"
	"github.com/familybicons/socios-server/internal/service"
	"github.com/familybicons/socios-server/internal/session"
	"github.com/familybicons/socios-server/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration; a missing DB_URL stops the process here
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewLogger("info").Fatal("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)

	passwords, err := auth.SchemeByName(cfg.Auth.PasswordScheme)
	if err != nil {
		logger.Fatal("Invalid password scheme: %v", err)
	}

	// The connection is opened on first use; failure is remembered, not retried
	conn := config.NewConnector(cfg.Database.URL)
	defer conn.Close()

	repo := repository.NewPostgresRepository(conn, passwords)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(reg)

	svc := service.NewDefaultService(repo, logger, collector, service.Options{
		SharePrice:    cfg.Portal.SharePrice,
		MinLoanAmount: cfg.Portal.MinLoanAmount,
	})

	// Sessions
	ttl := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	var store session.Store
	if cfg.Redis.URL != "" {
		rdb, err := session.NewRedisClient(context.Background(), cfg.Redis.URL)
		if err != nil {
			logger.Fatal("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb, ttl)
		logger.Info("Using redis session store")
	} else {
		store = session.NewMemoryStore(ttl)
		logger.Info("Using in-memory session store")
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, ttl)
	limiter := api.NewLoginLimiter(cfg.Server.LoginRateLimit, time.Minute)

	// Housekeeping
	sched := scheduler.New(logger)
	if err := sched.Add("@every 5m", "session maintenance",
		scheduler.SessionMaintenance(store, limiter, collector, logger)); err != nil {
		logger.Fatal("Failed to schedule jobs: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))

	handler := api.NewHandler(svc, store, tokens, limiter, logger)
	handler.SetupRoutes(router, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
