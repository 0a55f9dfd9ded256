package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	billingapp "github.com/hms/backend/internal/application/billing"
	patientapp "github.com/hms/backend/internal/application/patient"
	"github.com/hms/backend/internal/infrastructure/auth"
	"github.com/hms/backend/internal/infrastructure/cache"
	"github.com/hms/backend/internal/infrastructure/config"
	"github.com/hms/backend/internal/infrastructure/event"
	"github.com/hms/backend/internal/infrastructure/logger"
	"github.com/hms/backend/internal/infrastructure/persistence"
	"github.com/hms/backend/internal/infrastructure/telemetry"
	"github.com/hms/backend/internal/interfaces/http/handler"
	"github.com/hms/backend/internal/interfaces/http/middleware"
	"github.com/hms/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting HMS billing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing; a disabled config yields a no-op provider
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
	}()

	// Connect to the database with GORM logging routed through zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Repositories
	patientRepo := persistence.NewGormPatientRepository(db.DB)
	doctorRepo := persistence.NewGormDoctorRepository(db.DB)
	admissionRepo := persistence.NewGormAdmissionRepository(db.DB)
	appointmentRepo := persistence.NewGormAppointmentRepository(db.DB)
	billItemRepo := persistence.NewGormBillItemRepository(db.DB)
	advanceRepo := persistence.NewGormAdvanceRepository(db.DB)
	txnRepo := persistence.NewGormPaymentTransactionRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Idempotency store for payment submissions
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Warn("Failed to close idempotency store", zap.Error(err))
		}
	}()

	// Application services
	patientService := patientapp.NewPatientService(patientRepo, log)
	admissionService := patientapp.NewAdmissionService(admissionRepo, patientRepo, doctorRepo, log)
	appointmentService := patientapp.NewAppointmentService(appointmentRepo, patientRepo, doctorRepo, log)
	billingService := billingapp.NewBillingService(admissionRepo, billItemRepo, advanceRepo, txnRepo, log)
	paymentService := billingapp.NewPaymentService(
		admissionRepo, billItemRepo, advanceRepo, txnRepo,
		billingService, txManager, idempotencyStore, log,
	)
	paymentService.SetIdempotencyTTL(cfg.Idempotency.TTL)

	// Event bus: in-process dispatch with an audit-log subscriber
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = eventBus.Stop(stopCtx)
	}()

	patientService.SetEventPublisher(eventBus)
	admissionService.SetEventPublisher(eventBus)
	appointmentService.SetEventPublisher(eventBus)
	billingService.SetEventPublisher(eventBus)
	paymentService.SetEventPublisher(eventBus)

	// Admission scalar changes resync the derived bed and consultation lines
	admissionService.SetStayChargeSyncer(billingService)

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)

	// Handlers
	patientHandler := handler.NewPatientHandler(patientService)
	doctorHandler := handler.NewDoctorHandler(admissionService)
	admissionHandler := handler.NewAdmissionHandler(admissionService)
	appointmentHandler := handler.NewAppointmentHandler(appointmentService)
	billingHandler := handler.NewBillingHandler(billingService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	systemHandler := handler.NewSystemHandler()

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(1<<20),
	)

	engine.GET("/health", healthHandler(db, log))

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}))

	patientGroup := router.NewDomainGroup("patients", "/patients").
		POST("", patientHandler.Register).
		GET("", patientHandler.Search).
		GET("/:id", patientHandler.GetByID).
		PUT("/:id", patientHandler.Update).
		DELETE("/:id", patientHandler.Deactivate).
		GET("/:id/admissions", admissionHandler.ListByPatient).
		GET("/:id/appointments", appointmentHandler.ListByPatient)

	doctorGroup := router.NewDomainGroup("doctors", "/doctors").
		POST("", middleware.RequireRole(auth.RoleAdmin), doctorHandler.Create).
		GET("", doctorHandler.List).
		GET("/:id/schedule", appointmentHandler.DoctorSchedule)

	admissionGroup := router.NewDomainGroup("admissions", "/admissions").
		POST("", admissionHandler.Admit).
		GET("", admissionHandler.ListAdmitted).
		GET("/:id", admissionHandler.GetByID).
		PUT("/:id/rates", admissionHandler.UpdateRates).
		PUT("/:id/discount", middleware.RequireRole(auth.RoleBilling), admissionHandler.SetDiscount).
		POST("/:id/transfer", admissionHandler.Transfer).
		POST("/:id/discharge", middleware.RequireRole(auth.RoleBilling), admissionHandler.Discharge).
		GET("/:id/billing/summary", billingHandler.Summary).
		GET("/:id/billing/items", billingHandler.ListItems).
		GET("/:id/advances", paymentHandler.ListAdvances).
		GET("/:id/transactions", paymentHandler.ListTransactions)

	appointmentGroup := router.NewDomainGroup("appointments", "/appointments").
		POST("", appointmentHandler.Schedule).
		GET("/:id", appointmentHandler.GetByID).
		POST("/:id/reschedule", appointmentHandler.Reschedule).
		POST("/:id/complete", appointmentHandler.Complete).
		POST("/:id/cancel", appointmentHandler.Cancel).
		POST("/:id/no-show", appointmentHandler.NoShow)

	billingGroup := router.NewDomainGroup("billing", "/billing").
		POST("/items", billingHandler.PostItem).
		GET("/items/:id", billingHandler.GetItem).
		PUT("/items/:id", billingHandler.UpdateItem).
		PUT("/items/:id/discount", middleware.RequireRole(auth.RoleBilling), billingHandler.SetItemDiscount).
		POST("/items/:id/cancel", middleware.RequireRole(auth.RoleBilling), billingHandler.CancelItem)

	paymentGroup := router.NewDomainGroup("payments", "/payments").
		Use(middleware.RequireRole(auth.RoleBilling)).
		POST("/allocate", paymentHandler.Allocate).
		POST("/pay", paymentHandler.PaySingle).
		POST("/advances", paymentHandler.RecordAdvance)

	systemGroup := router.NewDomainGroup("system", "/system").
		GET("/info", systemHandler.GetSystemInfo).
		GET("/ping", systemHandler.Ping)

	r.Register(patientGroup).
		Register(doctorGroup).
		Register(admissionGroup).
		Register(appointmentGroup).
		Register(billingGroup).
		Register(paymentGroup).
		Register(systemGroup)

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// healthHandler reports process and database health for load balancers.
func healthHandler(db *persistence.Database, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": err.Error(),
				"time":     time.Now().Format(time.RFC3339),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "ok",
			"time":     time.Now().Format(time.RFC3339),
		})
	}
}
