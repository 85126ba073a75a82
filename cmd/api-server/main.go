package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clinicdesk/scheduling-engine/internal/api"
	"github.com/clinicdesk/scheduling-engine/internal/config"
	"github.com/clinicdesk/scheduling-engine/internal/db"
	"github.com/clinicdesk/scheduling-engine/internal/logger"
	redisclient "github.com/clinicdesk/scheduling-engine/internal/redis"
	"github.com/clinicdesk/scheduling-engine/internal/scheduling"
)

const version = "1.2.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("api-server starting up", zap.String("env", cfg.Env), zap.String("http_port", cfg.HTTPPort))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		zlog.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	zlog.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		zlog.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			zlog.Warn("error closing redis", zap.Error(err))
		}
	}()
	zlog.Info("connected to Redis")

	repo := scheduling.NewPgRepository(pgPool)
	exams := scheduling.NewPgExaminationGateway(pgPool)
	payments := scheduling.NewPgPaymentGateway(pgPool)
	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)
	svc := scheduling.NewService(repo, exams, payments, locker, zlog)

	router := api.NewRouter(api.RouterConfig{
		Service:     svc,
		Logger:      zlog,
		PgPool:      pgPool,
		Redis:       rdb,
		Env:         cfg.Env,
		Version:     version,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		zlog.Fatal("http server error", zap.Error(err))
	case <-rootCtx.Done():
	}

	zlog.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("graceful shutdown failed", zap.Error(err))
	}
}
