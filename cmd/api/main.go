package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/math-agent/backend/internal/api/handlers"
	"github.com/math-agent/backend/internal/cache/redis"
	"github.com/math-agent/backend/internal/feedback"
	"github.com/math-agent/backend/internal/guardrail"
	"github.com/math-agent/backend/internal/ingestion"
	"github.com/math-agent/backend/internal/llm"
	"github.com/math-agent/backend/internal/metrics"
	"github.com/math-agent/backend/internal/middleware/ratelimit"
	"github.com/math-agent/backend/internal/middleware/security"
	"github.com/math-agent/backend/internal/retrieval"
	"github.com/math-agent/backend/internal/router"
	"github.com/math-agent/backend/internal/search/web"
	"github.com/math-agent/backend/internal/solver"
	"github.com/math-agent/backend/internal/storage/sqlite"
	"github.com/math-agent/backend/internal/vector/milvus"
	"github.com/math-agent/backend/pkg/config"
	appLogger "github.com/math-agent/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Math Agent API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	milvusClient, err := milvus.NewClient(
		cfg.Milvus.Endpoint,
		cfg.Milvus.CollectionName,
		cfg.Milvus.VectorDim,
	)
	if err != nil {
		appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
	}
	defer milvusClient.Close()

	err = milvusClient.EnsureCollection(context.Background())
	if err != nil {
		appLogger.Fatal("Failed to ensure collection", zap.Error(err))
	}

	llmClient := llm.NewClient(llm.Options{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,

		EmbeddingAPIKey:  cfg.Embedding.APIKey,
		EmbeddingBaseURL: cfg.Embedding.BaseURL,
		EmbeddingModel:   cfg.Embedding.Model,
		EmbeddingTimeout: time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
	})

	var embedder retrieval.Embedder = llmClient
	var answerCache router.AnswerCache

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without caching", zap.Error(err))
		} else {
			defer redisClient.Close()
			embedder = retrieval.NewCachedEmbedder(llmClient, redisClient)
			answerCache = redisClient
		}
	}

	var searcher router.Searcher
	if cfg.Search.TavilyAPIKey != "" {
		searcher = web.NewClient(cfg.Search.TavilyAPIKey, time.Duration(cfg.Search.TimeoutSec)*time.Second)
	} else {
		appLogger.Info("No Tavily API key configured, web search tier disabled")
	}

	chain := solver.NewChain(
		solver.Step{Solver: &solver.Arithmetic{}},
		solver.Step{Solver: &solver.Linear{}, Gate: router.NonLinearGate},
		solver.Step{Solver: &solver.Derivative{}},
	)

	ranker := retrieval.NewRanker(embedder, milvusClient)
	trainer := feedback.NewTrainer(sqliteClient, milvusClient, embedder)
	seeder := ingestion.NewSeeder(milvusClient, embedder)

	answerRouter := router.New(router.Options{
		Guard:       guardrail.New(),
		Solvers:     chain,
		Ranker:      ranker,
		Searcher:    searcher,
		Generator:   llmClient,
		Cache:       answerCache,
		SearchLimit: cfg.Search.MaxResults,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(120)
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(limiter.Middleware())

	askHandler := handlers.NewAskHandler(answerRouter)
	feedbackHandler := handlers.NewFeedbackHandler(trainer)
	adminHandler := handlers.NewAdminHandler(milvusClient, seeder)
	wsHandler := handlers.NewWebSocketHandler(answerRouter)

	app.Get("/", adminHandler.HandleRoot)
	app.Get("/metrics", metrics.MetricsHandler())

	app.Get("/api/debug", adminHandler.HandleDebug)
	app.Post("/api/setup_collection", adminHandler.HandleSetupCollection)
	app.Post("/api/ingest", adminHandler.HandleIngest)

	app.Post("/api/ask", askHandler.HandleAsk)

	app.Post("/api/feedback", feedbackHandler.HandleFeedback)
	app.Get("/api/feedback/all", feedbackHandler.HandleListFeedback)
	app.Post("/api/feedback/train", feedbackHandler.HandleTrain)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/ask", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
