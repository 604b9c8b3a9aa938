package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	promclient "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/riveravet/clinic-api/internal/config"
	"github.com/riveravet/clinic-api/internal/email"
	"github.com/riveravet/clinic-api/internal/handler/health"
	"github.com/riveravet/clinic-api/internal/handler/prometheus"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/realtime"
	"github.com/riveravet/clinic-api/internal/repository/postgres"
	notificationService "github.com/riveravet/clinic-api/internal/service/notification"
	"github.com/riveravet/clinic-api/internal/service/stock"
	lowstock "github.com/riveravet/clinic-api/internal/worker"
	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/messaging/redis"
	"github.com/riveravet/clinic-api/pkg/metrics"
	"github.com/riveravet/clinic-api/pkg/timezone"
	"github.com/riveravet/clinic-api/pkg/worker"
)

const retentionInterval = time.Hour

// The worker process drains the email outbox, prunes delivered events and
// runs the periodic low stock sweep.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:   logger.ParseLevel(cfg.Log.Level),
		Output:  os.Stdout,
		Console: cfg.Log.Console,
	})
	hostname, _ := os.Hostname()
	log = log.WithFields(map[string]interface{}{"worker_id": fmt.Sprintf("worker-%s-%d", hostname, os.Getpid())})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := promclient.NewRegistry()
	m := metrics.NewMetrics(cfg.Monitoring.Namespace, registry)

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	// Low stock alerts raised here still reach connected staff through the
	// API process subscribed to the same broker.
	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), log)
	if err != nil {
		log.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()
	hub := realtime.NewHub(broker, log, m)

	sender, err := email.NewSender(cfg.Email, cfg.Secrets, log)
	if err != nil {
		log.Fatal(err, "Failed to create email sender")
	}

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	notifications := notificationService.NewService(notificationRepo, outboxRepo, hub, log)
	ledger := stock.NewService(postgres.NewTxManager(db), postgres.NewStockRepository(base), notificationRepo, notifications, stock.Config{
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
		Location:          timezone.Location(cfg.Clinic.Timezone),
	}, log, m)

	processor := worker.NewOutboxProcessor(outboxRepo, cfg.Outbox.ToWorkerConfig(), log, m)
	processor.Register(model.EventEmailSend, email.OutboxHandler(sender))

	retention := worker.NewRetentionWorker(outboxRepo, cfg.Outbox.Retention, retentionInterval, log)
	sweeper := lowstock.NewLowStockWorker(ledger, cfg.Workers.LowStockInterval, log)

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Monitoring.HealthPort),
		Handler:           healthEngine(db, prometheus.New(cfg.Monitoring.Namespace, registry)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		processor.Start(gctx)
		return nil
	})
	g.Go(func() error {
		retention.Start(gctx)
		return nil
	})
	g.Go(func() error {
		sweeper.Start(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("Starting health server", "port", cfg.Monitoring.HealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return healthSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error(err, "Worker exited with error")
	}
	log.Info("Worker stopped")
}

func healthEngine(db health.Pinger, metrics *prometheus.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(db, metrics.Handler()).RegisterRoutes(&engine.RouterGroup, nil)
	return engine
}
