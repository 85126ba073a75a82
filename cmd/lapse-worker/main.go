package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clinicdesk/scheduling-engine/internal/config"
	"github.com/clinicdesk/scheduling-engine/internal/db"
	"github.com/clinicdesk/scheduling-engine/internal/logger"
	redisclient "github.com/clinicdesk/scheduling-engine/internal/redis"
	"github.com/clinicdesk/scheduling-engine/internal/scheduling"
)

// The lapse worker cancels pending appointments whose date has passed without
// a confirmation, so stale bookings stop showing up as active in reports.
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

	zlog.Info("lapse-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
	)

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

	repo := scheduling.NewPgRepository(pgPool)
	exams := scheduling.NewPgExaminationGateway(pgPool)
	payments := scheduling.NewPgPaymentGateway(pgPool)

	// The sweep only runs CAS updates; no cross-instance lock is needed, so
	// the worker runs without Redis.
	svc := scheduling.NewService(repo, exams, payments, redisclient.NewLocalLocker(), zlog)

	runOnce(rootCtx, svc, zlog)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			zlog.Info("shutdown signal received, stopping lapse worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, zlog)
		}
	}
}

func runOnce(ctx context.Context, svc *scheduling.Service, zlog *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	cancelled, err := svc.CancelLapsedPending(runCtx)
	if err != nil {
		zlog.Error("lapse sweep error", zap.Error(err))
		return
	}
	zlog.Info("lapse sweep complete",
		zap.Int("cancelled", cancelled),
		zap.Duration("took", time.Since(start)),
	)
}
