package main

import (
	"fmt"
	"time"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

const (
	serviceName    = "Product Catalog API"
	serviceVersion = "1.0.0"
)

// NewApp wires repositories, services and handlers into a Fiber app. events
// may be nil to disable publishing. The returned cleanup releases the
// database connection.
func NewApp(cfg *config.Config, logger *zap.Logger, events services.EventPublisher) (*fiber.App, func() error, error) {
	productRepo, cleanup, err := newProductRepository(cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := services.NewTokenService(services.TokenConfig{
		Secret:      cfg.JWT.Secret,
		Algorithm:   cfg.JWT.Algorithm,
		DefaultTTL:  cfg.JWT.Expiry,
		Development: cfg.IsDevelopment(),
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	hasher, err := services.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}
	if cfg.Auth.AdminPasswordHash != "" && !services.LooksLikeHash(cfg.Auth.AdminPasswordHash) {
		logger.Warn("ADMIN_PASSWORD_HASH does not look like a bcrypt hash; admin login will fail")
	}

	authService := services.NewAuthService(tokens, hasher)
	productService := services.NewProductService(productRepo, events, logger, cfg.Catalog.LowStockThreshold)

	productHandler := handlers.NewProductHandler(productService, logger)
	authHandler := handlers.NewAuthHandler(authService, handlers.AdminAccount{
		Email:        cfg.Auth.AdminEmail,
		PasswordHash: cfg.Auth.AdminPasswordHash,
	}, cfg.IsDevelopment(), logger)

	app := fiber.New(fiber.Config{
		AppName:      serviceName,
		ErrorHandler: handlers.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":    serviceName,
			"version": serviceVersion,
			"health":  "/health",
			"api":     "/api/v1",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":      "healthy",
			"time":        time.Now().Format(time.RFC3339),
			"environment": cfg.Server.Env,
			"database":    cfg.Database.Driver,
			"events":      events != nil,
		})
	})

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1, middleware.AuthRequired(authService))

	return app, cleanup, nil
}

func newProductRepository(cfg config.DatabaseConfig, logger *zap.Logger) (repositories.ProductRepository, func() error, error) {
	if cfg.Driver == database.DriverMemory {
		logger.Info("using in-memory product repository; data is lost on restart")
		return repositories.NewInMemoryProductRepository(), func() error { return nil }, nil
	}

	db, err := database.Open(cfg.Driver, cfg.DSN, logger)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	logger.Info("connected to database", zap.String("driver", cfg.Driver))
	return repositories.NewGORMProductRepository(db), sqlDB.Close, nil
}
