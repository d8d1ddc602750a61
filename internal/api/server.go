package api

import (
	"context"
	"fmt"
	"log"

	"github.com/Lumos-Labs-HQ/datagen/internal/config"
	"github.com/Lumos-Labs-HQ/datagen/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	app      *fiber.App
	svc      *service.Services
	cfg      *config.Config
	storage  fiber.Storage
	limiters map[string]fiber.Handler
}

// Options tweaks server construction. The zero value is the production setup.
type Options struct {
	// Storage overrides the rate-limit store. When nil, Redis is used if a
	// URL is configured and process memory otherwise.
	Storage fiber.Storage
	// Quiet disables the access log.
	Quiet bool
}

func NewServer(svc *service.Services, cfg *config.Config, opts Options) (*Server, error) {
	storage := opts.Storage
	if storage == nil {
		if url := cfg.GetRedisURL(); url != "" {
			rs, err := NewRedisStorage(context.Background(), url, "datagen:ratelimit:")
			if err != nil {
				return nil, err
			}
			log.Printf("[SERVER] Rate limits stored in Redis")
			storage = rs
		}
	}

	app := fiber.New(fiber.Config{
		AppName:               "datagen",
		ErrorHandler:          errorHandler,
		BodyLimit:             cfg.Server.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if !opts.Quiet {
		app.Use(logger.New(logger.Config{
			Format: "[HTTP] ${time} ${status} ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type, Authorization, X-API-Key",
		AllowCredentials: cfg.Server.FrontendURL != "*",
	}))

	s := &Server{
		app:     app,
		svc:     svc,
		cfg:     cfg,
		storage: storage,
	}
	s.limiters = s.tierLimiters()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	s.app.Post("/auth/register", s.handleRegister)

	api := s.app.Group("/api", s.requireToken, s.rateLimit)

	users := api.Group("/users/me")
	users.Get("/", s.handleGetProfile)
	users.Put("/", s.handleUpdateProfile)
	users.Get("/stats", s.handleGetStats)
	users.Get("/api-key-status", s.handleAPIKeyStatus)
	users.Post("/api-key", s.handleGenerateAPIKey)
	users.Delete("/api-key", s.handleRevokeAPIKey)

	schemas := api.Group("/schemas")
	schemas.Post("/", s.handleCreateSchema)
	schemas.Get("/", s.handleListSchemas)
	schemas.Get("/:id", s.handleGetSchema)
	schemas.Put("/:id", s.handleUpdateSchema)
	schemas.Delete("/:id", s.handleDeleteSchema)

	datasets := api.Group("/datasets")
	datasets.Post("/generate", s.handleGenerateDataset)
	datasets.Get("/", s.handleListDatasets)
	datasets.Get("/:id", s.handleGetDataset)
	datasets.Delete("/:id", s.handleDeleteDataset)

	api.Post("/preview", s.handlePreview)

	s.app.Get("/data/:datasetId", s.requireAPIKey, s.rateLimit, s.handleGetData)

	s.app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": fmt.Sprintf("Cannot %s %s", c.Method(), c.Path()),
		})
	})
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	log.Printf("[SERVER] Listening on http://localhost%s", addr)
	log.Printf("[SERVER] Frontend URL: %s", s.cfg.Server.FrontendURL)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	if s.storage != nil {
		if cerr := s.storage.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
