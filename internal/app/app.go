// Package app wires configuration, stores, services and the HTTP server together.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"mafiamadness/internal/apperr"
	"mafiamadness/internal/config"
	"mafiamadness/internal/events"
	"mafiamadness/internal/handlers"
	"mafiamadness/internal/middleware"
	"mafiamadness/internal/services"
	"mafiamadness/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// App is a fully wired server.
type App struct {
	Fiber  *fiber.App
	Games  *services.GameService
	Auth   *services.AuthService
	Users  *services.UserService
	stores *Stores
	mq     *rabbitmq.Client
}

// NewApp builds stores, services and routes from cfg. Request logs go to logWriter
// (stderr when nil). Call Close when done.
func NewApp(ctx context.Context, cfg *config.Config, logWriter io.Writer) (*App, error) {
	if logWriter == nil {
		logWriter = os.Stderr
	}
	if cfg.JWTSecret == config.DevJWTSecret {
		slog.Warn("JWT_SECRET is not set; using the development secret")
	}

	stores, err := OpenStores(ctx, cfg, logWriter)
	if err != nil {
		return nil, err
	}
	a := &App{stores: stores}

	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		a.mq = mq
		publisher = events.NewPublisher(mq)
		if err := mq.Consume(events.ConsumerQueue, events.ConsumerPattern, events.HandleDelivery); err != nil {
			slog.Warn("game event consumer not started", slog.String("error", err.Error()))
		}
	}

	a.Auth = services.NewAuthService(stores.Users, services.AuthConfig{
		JWTSecret:       cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		BcryptCost:      cfg.BcryptCost,
	})
	a.Users = services.NewUserService(stores.Users, a.Auth)
	a.Games = services.NewGameService(stores.Users, stores.Games, publisher)

	authz, err := middleware.NewAuthorizer(middleware.DefaultPolicy)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Fiber = newFiber(cfg, logWriter)
	validate := handlers.NewValidator()

	api := a.Fiber.Group("/api")
	handlers.NewUserHandler(a.Auth, a.Users, authz, validate).RegisterRoutes(api)
	handlers.NewGameHandler(a.Games, validate).RegisterRoutes(api,
		middleware.AuthRequired(a.Auth),
		middleware.Authorize(authz),
	)

	a.Fiber.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"store":  cfg.DBDriver,
			"events": a.mq != nil,
		})
	})

	if cfg.StaticDir != "" {
		a.Fiber.Static("/", cfg.StaticDir)
	}

	a.Fiber.Use(func(c *fiber.Ctx) error {
		return apperr.NotFound("Could not find this route")
	})

	return a, nil
}

func newFiber(cfg *config.Config, logWriter io.Writer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Mafia Madness",
		ErrorHandler: middleware.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: logWriter}))
	app.Use(helmet.New(helmet.Config{
		XFrameOptions:         "DENY",
		ContentSecurityPolicy: "default-src 'self'",
	}))
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))
	return app
}

// Close shuts down the broker client and the store connection.
func (a *App) Close() error {
	var errs []error
	if a.mq != nil {
		errs = append(errs, a.mq.Close())
	}
	if a.stores != nil {
		errs = append(errs, a.stores.Close())
	}
	return errors.Join(errs...)
}
