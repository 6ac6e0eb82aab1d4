package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/attendance-portal/internal/config"
	"github.com/noah-isme/attendance-portal/internal/database"
	"github.com/noah-isme/attendance-portal/internal/handler"
	"github.com/noah-isme/attendance-portal/internal/middleware"
	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/repository"
	"github.com/noah-isme/attendance-portal/internal/router"
	"github.com/noah-isme/attendance-portal/internal/service"
	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.ActivityLog{}, &models.PortalSession{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis disabled, profile cache and redis events are off, sessions kept in the database")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	backend, err := appwrite.NewClient(appwrite.Config{
		Endpoint:   cfg.AppwriteEndpoint,
		ProjectID:  cfg.AppwriteProjectID,
		APIKey:     cfg.AppwriteAPIKey,
		Timeout:    cfg.AppwriteTimeout,
		SelfSigned: cfg.AppwriteSelfSigned,
	})
	if err != nil {
		log.Fatalf("failed to create backend client: %v", err)
	}
	account := appwrite.NewAccount(backend)
	documents := appwrite.NewDatabases(backend)

	sessionStore := repository.NewGormSessionStore(db)
	if redisClient != nil {
		sessionStore = repository.NewRedisSessionStore(redisClient)
	}

	tokens, err := middleware.NewSessionTokens(cfg.SessionSecret, cfg.SessionTTL, sessionStore)
	if err != nil {
		log.Fatalf("failed to configure sessions: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(documents, repository.Collection{DatabaseID: cfg.DatabaseID, CollectionID: cfg.StudentCollectionID})
	attendanceRepo := repository.NewAttendanceRepository(documents, repository.Collection{DatabaseID: cfg.DatabaseID, CollectionID: cfg.AttendanceCollectionID})
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	events := service.NewAttendanceEventPublisher(redisClient, natsConn, cfg.EventChannel, logger)
	authService := service.NewAuthService(account, validate, activityService, logger)
	studentService := service.NewStudentService(studentRepo, redisClient, cfg.ProfileCacheTTL, logger)
	attendanceService := service.NewAttendanceService(attendanceRepo, studentService, validate, activityService, events, logger)
	permissionService := service.NewPermissionService(studentRepo, studentService, activityService, logger)
	dashboardService := service.NewStudentDashboardService(studentService, logger)

	authHandler := handler.NewAuthHandler(authService, handler.AuthHandlerConfig{
		Tokens:       tokens,
		Portals:      router.Portals(),
		SecureCookie: cfg.SessionCookieSecure,
		LoginLimiter: middleware.RateLimit("login", cfg.LoginRateLimit, cfg.LoginRateWindow),
	}, logger)
	studentDashboardHandler := handler.NewStudentDashboardHandler(dashboardService, permissionService, logger)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, logger)
	adminStudentHandler := handler.NewAdminStudentHandler(permissionService, logger)
	adminActivityHandler := handler.NewAdminActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:         &logger,
		AllowedOrigins: cfg.AllowedOrigins,
		Tokens:         tokens,
	})
	router.Register(app, cfg, router.Dependencies{
		Identity:                authService,
		AuthHandler:             authHandler,
		StudentDashboardHandler: studentDashboardHandler,
		AttendanceHandler:       attendanceHandler,
		AdminStudentHandler:     adminStudentHandler,
		AdminActivityHandler:    adminActivityHandler,
		HealthProbes:            healthProbes(db, redisClient, natsConn),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) []handler.HealthProbe {
	probes := []handler.HealthProbe{{
		Name: "audit_store",
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}

	if redisClient != nil {
		probes = append(probes, handler.HealthProbe{
			Name:  "cache",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	if natsConn != nil {
		probes = append(probes, handler.HealthProbe{
			Name: "events",
			Check: func(context.Context) error {
				if !natsConn.IsConnected() {
					return nats.ErrConnectionClosed
				}
				return nil
			},
		})
	}
	return probes
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
