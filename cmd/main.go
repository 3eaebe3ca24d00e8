package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tutorhub/tutorhub-api/internal/ai"
	"github.com/tutorhub/tutorhub-api/internal/cache"
	"github.com/tutorhub/tutorhub-api/internal/config"
	"github.com/tutorhub/tutorhub-api/internal/db"
	"github.com/tutorhub/tutorhub-api/internal/handlers"
	"github.com/tutorhub/tutorhub-api/internal/logger"
	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/services"
	"github.com/tutorhub/tutorhub-api/internal/storage"
)

// Room for ten 10MB files after multipart overhead, or base64 PDFs in JSON.
const bodyLimit = 110 << 20

func main() {
	cfg := config.Load()

	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	ctx := context.Background()

	// Store
	var store db.Store
	if cfg.MongoURI == "memory" {
		lg.Warn("using in-memory store, data is lost on restart")
		store = db.NewMemoryStore()
	} else {
		mongoStore, err := db.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			lg.Fatal("mongodb connection failed", "error", err)
		}
		defer mongoStore.Disconnect(context.Background())
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			lg.Warn("index creation failed", "error", err)
		}
		store = mongoStore
	}

	// Object storage is optional; uploads answer 503 without it.
	var objects services.ObjectStorage
	if cfg.Minio.Enabled() {
		objectStore, err := storage.NewObjectStore(ctx, cfg.Minio, lg)
		if err != nil {
			lg.Fatal("minio initialization failed", "error", err)
		}
		objects = objectStore
	} else {
		lg.Info("MINIO_ENDPOINT not set, material uploads disabled")
	}

	var listCache cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			lg.Warn("redis unavailable, reference lists are not cached", "error", err)
		} else {
			defer redisCache.Close()
			listCache = redisCache
		}
	}

	llm := ai.NewOpenRouter(ai.OpenRouterConfig{
		APIKey:     cfg.OpenRouterAPIKey,
		BaseURL:    cfg.OpenRouterBaseURL,
		Model:      cfg.OpenRouterModel,
		Structured: cfg.StructuredOutput,
		Timeout:    cfg.LLMTimeout,
		Title:      handlers.ServiceName,
	})
	if cfg.OpenRouterAPIKey == "" && cfg.ServesAI() {
		lg.Warn("OPENROUTER_API_KEY not set, quiz generation answers 503 and flashcards fall back")
	}
	pdf := ai.NewPDFExtractor(lg, 0)

	profiles := services.NewProfileService(store)
	h := handlers.New(handlers.Deps{
		Config:      cfg,
		Log:         lg,
		Auth:        services.NewAuthService(store, cfg.Admins, cfg.JWTSecret, cfg.JWTTTL, lg),
		Collections: services.NewCollectionService(store),
		Profiles:    profiles,
		Content:     services.NewContentService(store, lg),
		Instant:     services.NewInstantService(store),
		Dashboards:  services.NewDashboardService(store, profiles),
		Files:       services.NewFileService(store, objects, lg),
		Generator:   ai.NewGenerator(llm, pdf, lg, cfg.PDFContextLimit),
		PDF:         pdf,
		Cache:       listCache,
	})

	// Initialize Fiber
	app := fiber.New(fiber.Config{
		AppName:      handlers.ServiceName,
		BodyLimit:    bodyLimit,
		ErrorHandler: handlers.ErrorHandler(lg),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORS}))
	app.Use(middleware.RequestLogger(lg))

	h.Register(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		lg.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			lg.Error("shutdown failed", "error", err)
		}
	}()

	lg.Info("server starting", "port", cfg.Port, "serve", cfg.Serve, "shape", cfg.Shape)
	if err := app.Listen(":" + cfg.Port); err != nil {
		lg.Fatal("server stopped", "error", err)
	}
}
