package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	promclient "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/riveravet/clinic-api/internal/config"
	"github.com/riveravet/clinic-api/internal/handler"
	accountHandler "github.com/riveravet/clinic-api/internal/handler/account"
	activityHandler "github.com/riveravet/clinic-api/internal/handler/activity"
	appointmentHandler "github.com/riveravet/clinic-api/internal/handler/appointment"
	authHandler "github.com/riveravet/clinic-api/internal/handler/auth"
	availabilityHandler "github.com/riveravet/clinic-api/internal/handler/availability"
	catalogHandler "github.com/riveravet/clinic-api/internal/handler/catalog"
	chatHandler "github.com/riveravet/clinic-api/internal/handler/chat"
	consultationHandler "github.com/riveravet/clinic-api/internal/handler/consultation"
	contentHandler "github.com/riveravet/clinic-api/internal/handler/content"
	"github.com/riveravet/clinic-api/internal/handler/health"
	inventoryHandler "github.com/riveravet/clinic-api/internal/handler/inventory"
	medicalHandler "github.com/riveravet/clinic-api/internal/handler/medical"
	notificationHandler "github.com/riveravet/clinic-api/internal/handler/notification"
	orderHandler "github.com/riveravet/clinic-api/internal/handler/order"
	petHandler "github.com/riveravet/clinic-api/internal/handler/pet"
	"github.com/riveravet/clinic-api/internal/handler/prometheus"
	realtimeHandler "github.com/riveravet/clinic-api/internal/handler/realtime"
	receiptHandler "github.com/riveravet/clinic-api/internal/handler/receipt"
	reportHandler "github.com/riveravet/clinic-api/internal/handler/report"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/payment/paymongo"
	"github.com/riveravet/clinic-api/internal/realtime"
	"github.com/riveravet/clinic-api/internal/repository/postgres"
	"github.com/riveravet/clinic-api/internal/router"
	accountService "github.com/riveravet/clinic-api/internal/service/account"
	activityService "github.com/riveravet/clinic-api/internal/service/activity"
	authService "github.com/riveravet/clinic-api/internal/service/auth"
	availabilityService "github.com/riveravet/clinic-api/internal/service/availability"
	chatService "github.com/riveravet/clinic-api/internal/service/chat"
	consultationService "github.com/riveravet/clinic-api/internal/service/consultation"
	contentService "github.com/riveravet/clinic-api/internal/service/content"
	inventoryService "github.com/riveravet/clinic-api/internal/service/inventory"
	medicalService "github.com/riveravet/clinic-api/internal/service/medical"
	notificationService "github.com/riveravet/clinic-api/internal/service/notification"
	orderService "github.com/riveravet/clinic-api/internal/service/order"
	petService "github.com/riveravet/clinic-api/internal/service/pet"
	receiptService "github.com/riveravet/clinic-api/internal/service/receipt"
	reportService "github.com/riveravet/clinic-api/internal/service/report"
	"github.com/riveravet/clinic-api/internal/service/scheduler"
	"github.com/riveravet/clinic-api/internal/service/stock"
	"github.com/riveravet/clinic-api/internal/storage"
	jwtauth "github.com/riveravet/clinic-api/pkg/auth"
	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/messaging/redis"
	"github.com/riveravet/clinic-api/pkg/metrics"
	"github.com/riveravet/clinic-api/pkg/security"
	"github.com/riveravet/clinic-api/pkg/timezone"
)

func main() {
	// Load configuration
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := promclient.NewRegistry()
	m := metrics.NewMetrics(cfg.Monitoring.Namespace, registry)
	loc := timezone.Location(cfg.Clinic.Timezone)

	// Initialize database
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), log)
	if err != nil {
		log.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	s3Client, err := storage.NewS3Client(ctx, cfg.Storage)
	if err != nil {
		log.Fatal(err, "Failed to create S3 client")
	}
	objects := storage.NewStore(s3Client, cfg.Storage, log)

	// Initialize repositories
	base := postgres.NewBaseRepository(db)
	tx := postgres.NewTxManager(db)
	userRepo := postgres.NewUserRepository(base)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	availabilityRepo := postgres.NewAvailabilityRepository(base)
	inventoryRepo := postgres.NewInventoryRepository(base)
	stockRepo := postgres.NewStockRepository(base)
	orderRepo := postgres.NewOrderRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)
	consultationRepo := postgres.NewConsultationRepository(base)
	medicalRepo := postgres.NewMedicalRepository(base)
	reportRepo := postgres.NewReportRepository(base)
	petRepo := postgres.NewPetRepository(base)
	contentRepo := postgres.NewContentRepository(base)
	activityRepo := postgres.NewActivityRepository(base)
	receiptRepo := postgres.NewReceiptRepository(base)

	hub := realtime.NewHub(broker, log, m)

	// Initialize services
	jwt := jwtauth.NewJWTService(cfg.Secrets.JWTSecret, cfg.JWT.Issuer, cfg.JWT.Expiry)
	notifications := notificationService.NewService(notificationRepo, outboxRepo, hub, log)
	hasher := security.NewBcryptHasher(authService.BcryptCost)
	authSvc := authService.NewService(userRepo, jwt, hasher, notifications, authService.Config{
		ClinicName:     cfg.Clinic.Name,
		FrontendURL:    cfg.App.FrontendURL,
		GoogleClientID: cfg.Secrets.GoogleClientID,
	}, log)
	availabilitySvc := availabilityService.NewService(tx, availabilityRepo, userRepo, notifications, cfg.Clinic.Name, log)
	schedulerSvc := scheduler.NewService(tx, appointmentRepo, availabilitySvc, notifications, scheduler.Config{
		FullyBookedThreshold: cfg.Scheduler.FullyBookedThreshold,
		RejectDoubleBooking:  cfg.Scheduler.RejectDoubleBooking,
		EnforceDailyLimit:    cfg.Scheduler.EnforceDailyLimit,
		CacheTTL:             cfg.Scheduler.CacheTTL,
		Location:             loc,
	}, log, m)
	ledger := stock.NewService(tx, stockRepo, notificationRepo, notifications, stock.Config{
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
		Location:          loc,
	}, log, m)
	inventorySvc := inventoryService.NewService(tx, inventoryRepo, ledger, objects, log)
	payments := paymongo.NewClient(paymongo.Config{
		BaseURL:   cfg.Payment.BaseURL,
		SecretKey: cfg.Secrets.PayMongoSecret,
		Timeout:   cfg.Payment.Timeout,
	}, m)
	orderSvc := orderService.NewService(tx, orderRepo, inventoryRepo, ledger, payments, notifications, orderService.Config{
		RecordingPolicy: cfg.Orders.RecordingPolicy,
		ReturnURL:       cfg.App.FrontendURL + "/users/pet-products?payment=success",
		Location:        loc,
	}, log, m)
	consultationSvc := consultationService.NewService(consultationRepo, availabilitySvc, objects, notifications, log)
	medicalSvc := medicalService.NewService(medicalRepo, objects, loc, log)
	reportSvc := reportService.NewService(reportRepo, cfg.Inventory.LowStockThreshold, loc, log)
	activitySvc := activityService.NewService(activityRepo, log)
	accountSvc := accountService.NewService(userRepo, hasher, objects, notifications, activitySvc, accountService.Config{
		ClinicName:  cfg.Clinic.Name,
		FrontendURL: cfg.App.FrontendURL,
	}, log)
	petSvc := petService.NewService(petRepo, objects, log)
	contentSvc := contentService.NewService(contentRepo, activitySvc, loc, log)
	receiptSvc := receiptService.NewService(tx, receiptRepo, orderRepo, log)

	// Initialize handlers
	auth := middleware.NewAuthMiddleware(jwt)
	promHandler := prometheus.New(cfg.Monitoring.Namespace, registry)
	var metricsEndpoint gin.HandlerFunc
	if cfg.Monitoring.PrometheusEnabled {
		metricsEndpoint = promHandler.Handler()
	}

	routes := []handler.Routes{
		health.NewHandler(db, metricsEndpoint),
		authHandler.NewHandler(authSvc),
		catalogHandler.NewHandler(postgres.NewCatalogRepository(base)),
		appointmentHandler.NewHandler(schedulerSvc),
		availabilityHandler.NewHandler(availabilitySvc),
		inventoryHandler.NewHandler(inventorySvc, ledger),
		orderHandler.NewHandler(orderSvc),
		notificationHandler.NewHandler(notifications),
		consultationHandler.NewHandler(consultationSvc),
		medicalHandler.NewHandler(medicalSvc),
		reportHandler.NewHandler(reportSvc),
		accountHandler.NewHandler(accountSvc),
		petHandler.NewHandler(petSvc),
		contentHandler.NewHandler(contentSvc),
		activityHandler.NewHandler(activitySvc),
		receiptHandler.NewHandler(receiptSvc),
		realtimeHandler.NewHandler(
			realtime.NewUpgrader(hub, consultationSvc, cfg.Security.AllowedOrigins),
			auth.AuthenticateQuery("token"),
		),
	}

	if cfg.Secrets.GeminiAPIKey != "" {
		gemini, err := chatService.NewGemini(ctx, cfg.Secrets.GeminiAPIKey, cfg.Chat.Model)
		if err != nil {
			log.Fatal(err, "Failed to create Gemini client")
		}
		defer gemini.Close()

		chatSvc := chatService.NewService(gemini, chatService.Config{
			MaxAttempts: cfg.Chat.MaxAttempts,
			Backoff:     cfg.Chat.Backoff,
		}, log)
		limiter := middleware.NewClientRateLimiter(cfg.RateLimit.ChatPerMinute)
		routes = append(routes, chatHandler.NewHandler(chatSvc, limiter.RateLimit()))
	} else {
		log.Warn("GEMINI_API_KEY is not set, chat is disabled")
	}

	mode := gin.ReleaseMode
	if cfg.App.Environment == "development" {
		mode = gin.DebugMode
	}
	cors := middleware.DefaultCORSConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		cors.AllowOrigins = cfg.Security.AllowedOrigins
	}
	if len(cfg.Security.AllowedMethods) > 0 {
		cors.AllowMethods = cfg.Security.AllowedMethods
	}
	if len(cfg.Security.AllowedHeaders) > 0 {
		cors.AllowHeaders = cfg.Security.AllowedHeaders
	}

	r, err := router.NewRouter(router.Config{
		Mode:           mode,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RateLimit:      cfg.RateLimit.Enabled,
		RateLimitRPS:   cfg.RateLimit.RequestsPerSecond,
		RateBurst:      cfg.RateLimit.Burst,
		CORSConfig:     cors,
	}, log, auth, promHandler, routes...)
	if err != nil {
		log.Fatal(err, "Failed to build router")
	}
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		log.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error(err, "Server exited with error")
	}
	log.Info("Server exited properly")
}
