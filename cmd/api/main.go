package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/neurowell/support-ai-platform/cmd/mainconfig"
	"github.com/neurowell/support-ai-platform/internal/api/router"
	"github.com/neurowell/support-ai-platform/internal/chat"
	appconfig "github.com/neurowell/support-ai-platform/internal/config"
	"github.com/neurowell/support-ai-platform/internal/observability/metrics"
	"github.com/neurowell/support-ai-platform/internal/rag"
	"github.com/neurowell/support-ai-platform/internal/report"
	"github.com/neurowell/support-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting neurowell support API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Chat history lives in Redis.
	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	history := chat.NewHistoryStore(redisClient)

	// Report metadata lives in Postgres.
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Escalation records and report blobs live in AWS.
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	s3Client := s3.NewFromConfig(awsCfg)

	// Completion clients.
	groqClient, err := chat.NewGroqClient(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.ChatModelID, cfg.ChatMaxTokens, float32(cfg.ChatTemperature))
	if err != nil {
		logger.Error("failed to create groq client", "error", err)
		os.Exit(1)
	}
	geminiClient, err := report.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		logger.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	defer geminiClient.Close()

	// Knowledge base: reopen the persisted index, or build it once.
	embedCfg := openai.DefaultConfig(cfg.GroqAPIKey)
	if cfg.GroqBaseURL != "" {
		embedCfg.BaseURL = cfg.GroqBaseURL
	}
	index, err := rag.BuildOrOpen(ctx, openai.NewClientWithConfig(embedCfg), rag.Options{
		KnowledgeDir: cfg.KnowledgeDir,
		IndexPath:    cfg.IndexPath,
		Model:        cfg.EmbeddingModelID,
	}, logger)
	if err != nil {
		logger.Error("failed to open vector index", "error", err)
		os.Exit(1)
	}
	logger.Info("vector index ready", "chunks", index.Len())

	chatMetrics := metrics.NewChatMetrics(nil)

	// Report pipeline.
	escalations := report.NewEscalationStore(dynamoClient, cfg.EscalationsTable, logger)
	synthesizer := report.NewSynthesizer(geminiClient, history, cfg.ReportWindowSize, logger)
	renderer := report.NewRenderer(logger)
	reportStore := report.NewStore(s3Client, cfg.ReportsBucket, pool, logger)
	pipeline := report.NewPipeline(synthesizer, renderer, reportStore, logger, chatMetrics)

	// Conversation routing.
	answerer := chat.NewAnswerer(groqClient, index, cfg.RetrievalTopK, logger)
	chatRouter := chat.NewRouter(history, escalations, pipeline, answerer, groqClient, cfg.ChatWindowSize, logger, chatMetrics)
	chatHandler := chat.NewHandler(chatRouter, logger)

	var corsOrigins []string
	if cfg.CORSAllowedOrigins != "" {
		corsOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	}
	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chatHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: corsOrigins,
		RateLimitPerSec:    cfg.ChatRateLimitPerSec,
		RateLimitBurst:     cfg.ChatRateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
