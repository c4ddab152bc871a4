package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/askdoc/askdoc-go/internal/embedder"
	"github.com/askdoc/askdoc-go/internal/pipeline"
	"github.com/askdoc/askdoc-go/internal/provider"
	"github.com/askdoc/askdoc-go/internal/rag"
	"github.com/askdoc/askdoc-go/internal/server"
	"github.com/askdoc/askdoc-go/internal/store"
)

// buildPipeline wires the embedding provider, Qdrant store, and chat model
// into a ready pipeline. The returned close function releases the Qdrant
// connection and must be called when the pipeline is no longer needed.
func buildPipeline(ctx context.Context, log *slog.Logger) (*pipeline.Pipeline, *rag.QdrantStore, func(), error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialise embedding provider: %w", err)
	}

	qdrantStore, err := rag.NewQdrantStore(&rag.QdrantConfig{
		Host:   os.Getenv("QDRANT_HOST"),
		Port:   envInt("QDRANT_PORT", 0),
		APIKey: os.Getenv("QDRANT_API_KEY"),
		UseTLS: os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to qdrant: %w", err)
	}

	chatModel, err := provider.NewFromEnv(ctx)
	if err != nil {
		_ = qdrantStore.Close()
		return nil, nil, nil, fmt.Errorf("initialise model provider: %w", err)
	}

	p, err := pipeline.New(pipeline.Config{
		Embedder:         emb,
		Store:            qdrantStore,
		Chat:             provider.NewChat(chatModel),
		Collection:       os.Getenv("QDRANT_COLLECTION"),
		Fallback:         os.Getenv("PIPELINE_FALLBACK"),
		TopK:             envInt("PIPELINE_TOP_K", 0),
		ChunkSize:        envInt("PIPELINE_CHUNK_SIZE", 0),
		ChunkOverlap:     envInt("PIPELINE_CHUNK_OVERLAP", 0),
		MaxContextTokens: envInt("PIPELINE_MAX_CONTEXT_TOKENS", 0),
		Prompts: pipeline.PromptOverride{
			Classification: os.Getenv("PROMPT_CLASSIFICATION"),
			Response:       os.Getenv("PROMPT_RESPONSE"),
		},
		Logger: log,
	})
	if err != nil {
		_ = qdrantStore.Close()
		return nil, nil, nil, err
	}

	closeFn := func() { _ = qdrantStore.Close() }
	return p, qdrantStore, closeFn, nil
}

// buildPingers assembles the readiness probes for the serve command: the
// Qdrant health check plus a cheap HTTP probe of the Ollama status endpoint
// when an Ollama backend is in use.
func buildPingers(qdrantStore *rag.QdrantStore) []server.Pinger {
	pingers := []server.Pinger{server.NewStorePinger(qdrantStore, "qdrant")}

	usesOllama := embedder.Backend() == "ollama" ||
		envOrDefault("MODEL_PROVIDER", "ollama") == "ollama"
	if usesOllama {
		host := envOrDefault("OLLAMA_HOST", "http://localhost:11434")
		pingers = append(pingers, server.NewHTTPPinger(strings.TrimRight(host, "/")+"/api/tags", "ollama"))
	}

	return pingers
}

// openHistory opens the query history store. ASKDOC_HISTORY_DB overrides the
// default path (~/.askdoc/history.db); "disabled" turns recording off.
// Returns a nil store when history is unavailable — callers treat that as
// recording disabled, never as an error.
func openHistory(log *slog.Logger) (store.HistoryStore, func()) {
	dbPath := os.Getenv("ASKDOC_HISTORY_DB")
	if dbPath == "disabled" {
		log.Info("history: disabled via ASKDOC_HISTORY_DB=disabled")
		return nil, func() {}
	}

	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, func() {}
		}
	}

	hs, err := store.Open(dbPath)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil, func() {}
	}

	log.Info("history: store opened", slog.String("path", dbPath))
	return hs, func() { _ = hs.Close() }
}

// listenAddress resolves the serve bind address. An explicitly set flag wins;
// otherwise SERVER_HOST/SERVER_PORT apply (set directly or exported from the
// YAML server section by config.Load), falling back to the flag defaults.
func listenAddress(hostFlagSet bool, host string, portFlagSet bool, port int) (string, int) {
	if !hostFlagSet {
		host = envOrDefault("SERVER_HOST", host)
	}
	if !portFlagSet {
		port = envInt("SERVER_PORT", port)
	}
	return host, port
}

// envOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// envFloat returns the float64 value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
