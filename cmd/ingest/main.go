// Command ingest builds the knowledge-base vector index offline so the API
// server can start without paying the embedding cost. An existing index is
// left untouched unless -force is set.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"

	appconfig "github.com/neurowell/support-ai-platform/internal/config"
	"github.com/neurowell/support-ai-platform/internal/rag"
	"github.com/neurowell/support-ai-platform/pkg/logging"
)

func main() {
	force := flag.Bool("force", false, "rebuild the index even if one exists")
	flag.Parse()

	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if *force {
		if err := os.Remove(cfg.IndexPath); err != nil && !os.IsNotExist(err) {
			logger.Error("failed to remove existing index", "path", cfg.IndexPath, "error", err)
			os.Exit(1)
		}
	}

	clientCfg := openai.DefaultConfig(cfg.GroqAPIKey)
	if cfg.GroqBaseURL != "" {
		clientCfg.BaseURL = cfg.GroqBaseURL
	}

	index, err := rag.BuildOrOpen(context.Background(), openai.NewClientWithConfig(clientCfg), rag.Options{
		KnowledgeDir: cfg.KnowledgeDir,
		IndexPath:    cfg.IndexPath,
		Model:        cfg.EmbeddingModelID,
	}, logger)
	if err != nil {
		logger.Error("index build failed", "error", err)
		os.Exit(1)
	}

	logger.Info("index ready", "path", cfg.IndexPath, "chunks", index.Len())
}
