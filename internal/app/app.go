package app

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/loxigl/Rent-Pro/database"
	"github.com/loxigl/Rent-Pro/internal/auth"
	"github.com/loxigl/Rent-Pro/internal/cache"
	"github.com/loxigl/Rent-Pro/internal/config"
	"github.com/loxigl/Rent-Pro/internal/email"
	"github.com/loxigl/Rent-Pro/internal/handlers"
	"github.com/loxigl/Rent-Pro/internal/imageprocessor"
	"github.com/loxigl/Rent-Pro/internal/logger"
	"github.com/loxigl/Rent-Pro/internal/middleware"
	"github.com/loxigl/Rent-Pro/internal/repositories"
	"github.com/loxigl/Rent-Pro/internal/routes"
	"github.com/loxigl/Rent-Pro/internal/services"
	"github.com/loxigl/Rent-Pro/internal/storage"
	"github.com/loxigl/Rent-Pro/internal/taskqueue"
	"github.com/loxigl/Rent-Pro/internal/validator"
	"github.com/loxigl/Rent-Pro/internal/workers"
)

// Container holds everything both processes (API and worker) wire up.
type Container struct {
	Cfg    *config.Config
	DB     *gorm.DB
	Cache  *cache.Cache
	Store  *storage.Gateway
	Queue  *taskqueue.Enqueuer
	Events *services.EventService

	ApartmentService *services.ApartmentService
	PhotoService     *services.PhotoService
	BookingService   *services.BookingService
	AuthService      *services.AuthService
	UserService      *services.UserService
	SettingsService  *services.SettingsService

	TokenIssuer *auth.TokenIssuer
}

// BuildContainer connects the backing services and assembles the service
// layer.
func BuildContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	gormDB, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	store, err := storage.NewGateway(ctx, storage.Config{
		Endpoint:      cfg.Minio.Endpoint,
		AccessKey:     cfg.Minio.AccessKey,
		SecretKey:     cfg.Minio.SecretKey,
		Bucket:        cfg.Minio.Bucket,
		UseSSL:        cfg.Minio.UseSSL,
		PublicURL:     cfg.Minio.PublicURL,
		UploadRetries: cfg.Upload.UploadRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	logger.Info("Object store ready", "bucket", cfg.Minio.Bucket)

	cacheClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.CacheDB, cfg.CacheTTL())

	enqueuer := taskqueue.NewEnqueuer(taskqueue.Config{
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.QueueDB,
		TaskTimeout:   time.Duration(cfg.Upload.TaskTimeout) * time.Second,
		TaskRetries:   cfg.Upload.TaskRetries,
		Concurrency:   cfg.Worker.Concurrency,
	})

	apartmentRepo := repositories.NewApartmentRepository(gormDB)
	photoRepo := repositories.NewPhotoRepository(gormDB)
	bookingRepo := repositories.NewBookingRepository(gormDB)
	userRepo := repositories.NewUserRepository(gormDB)
	eventRepo := repositories.NewEventRepository(gormDB)
	settingsRepo := repositories.NewSettingsRepository(gormDB)

	var provider email.Provider
	if cfg.Email.Enabled {
		provider = email.NewSMTPProvider(email.SMTPConfig{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
		})
	} else {
		logger.Warn("Email disabled, notifications will be dropped")
		provider = email.NewNopProvider()
	}

	eventService := services.NewEventService(eventRepo)
	emailService := services.NewEmailService(provider, cfg.Email.AdminEmail)

	normalizer := imageprocessor.NewNormalizer()
	renderer := imageprocessor.NewRenderer(
		cfg.Upload.JPEGQuality,
		cfg.Upload.WebPQuality,
		time.Duration(cfg.Upload.RenderBudget)*time.Second,
	)

	apartmentService := services.NewApartmentService(apartmentRepo, photoRepo, cacheClient, store, eventService)
	photoService := services.NewPhotoService(
		apartmentRepo, photoRepo, store, enqueuer,
		normalizer, renderer, cacheClient, eventService,
		cfg.MaxUploadBytes(),
	)
	bookingService := services.NewBookingService(bookingRepo, apartmentRepo, settingsRepo, emailService, eventService)

	issuer := auth.NewTokenIssuer(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTTL)*time.Minute,
		time.Duration(cfg.JWT.RefreshTTL)*24*time.Hour,
	)
	authService := services.NewAuthService(userRepo, issuer, eventService)
	userService := services.NewUserService(userRepo, eventService)
	settingsService := services.NewSettingsService(settingsRepo, eventService)

	return &Container{
		Cfg:              cfg,
		DB:               gormDB,
		Cache:            cacheClient,
		Store:            store,
		Queue:            enqueuer,
		Events:           eventService,
		ApartmentService: apartmentService,
		PhotoService:     photoService,
		BookingService:   bookingService,
		AuthService:      authService,
		UserService:      userService,
		SettingsService:  settingsService,
		TokenIssuer:      issuer,
	}, nil
}

// Close releases the container's connections in reverse dependency order.
func (c *Container) Close() {
	c.Events.Close()
	if err := c.Queue.Close(); err != nil {
		logger.WithError(err).Warn("queue close")
	}
	if err := c.Cache.Close(); err != nil {
		logger.WithError(err).Warn("cache close")
	}
	if sqlDB, err := c.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

// Run starts the HTTP API.
func Run() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := BuildContainer(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to build application", "error", err)
	}
	defer container.Close()

	if err := container.UserService.SeedOwner(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Fatal("Failed to seed owner account", "error", err)
	}

	bookingWorker := workers.NewBookingWorker(container.BookingService)
	bookingWorker.Start(ctx)

	ginRouter := SetupRouter(container)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: address, Handler: ginRouter}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown")
	}
}

// SetupRouter builds the gin engine with middleware and all routes.
func SetupRouter(container *Container) *gin.Engine {
	if container.Cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(container.Cfg.CORS.AllowedOrigins))
	router.Use(middleware.DBMiddleware(container.DB))

	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	appHandlers := &handlers.AppHandlers{
		ApartmentHandler:      handlers.NewApartmentHandler(baseHandler, container.ApartmentService),
		BookingHandler:        handlers.NewBookingHandler(baseHandler, container.BookingService),
		AuthHandler:           handlers.NewAuthHandler(baseHandler, container.AuthService, container.UserService),
		AdminApartmentHandler: handlers.NewAdminApartmentHandler(baseHandler, container.ApartmentService, container.PhotoService),
		PhotoHandler:          handlers.NewPhotoHandler(baseHandler, container.PhotoService, container.Cfg.MaxUploadBytes()),
		AdminBookingHandler:   handlers.NewAdminBookingHandler(baseHandler, container.BookingService),
		UserHandler:           handlers.NewUserHandler(baseHandler, container.UserService),
		EventHandler:          handlers.NewEventHandler(baseHandler, container.Events),
		SettingsHandler:       handlers.NewSettingsHandler(baseHandler, container.SettingsService),
	}

	routes.RegisterRoutes(router, appHandlers, middleware.AuthMiddleware(container.TokenIssuer))
	return router
}
