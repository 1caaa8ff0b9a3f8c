package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dodam/internal/advice"
	"dodam/internal/cache"
	"dodam/internal/config"
	"dodam/internal/domain"
	embopenai "dodam/internal/embedding/openai"
	"dodam/internal/emotion"
	"dodam/internal/game"
	llmopenai "dodam/internal/llm/openai"
	"dodam/internal/retrieval"
	"dodam/internal/server"
	"dodam/internal/storage/postgres"
	"dodam/internal/vectorstore/memory"
	"dodam/internal/vectorstore/qdrant"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	embedder, err := embopenai.NewClient(embopenai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
		BatchSize: cfg.Embedder.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("build embedder: %w", err)
	}

	completer, err := llmopenai.NewClient(llmopenai.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKeyEnv:   cfg.LLM.APIKeyEnv,
		Model:       cfg.LLM.Model,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return fmt.Errorf("build completer: %w", err)
	}

	vectorStore, err := buildVectorStore(cfg)
	if err != nil {
		return err
	}

	var adviceCache advice.Cache
	if cfg.Redis.URL != "" {
		c, err := cache.New(cfg.Redis.URL, time.Duration(cfg.Redis.AdviceTTLSecs)*time.Second)
		if err != nil {
			return fmt.Errorf("build advice cache: %w", err)
		}
		defer c.Close()
		adviceCache = c
	}

	retriever := retrieval.NewRetriever(embedder, vectorStore, cfg.Retrieval.TopK)
	generator := advice.NewGenerator(completer)
	resolver := advice.NewSummaryResolver(store)
	advisor := advice.NewService(resolver, retriever, generator, adviceCache, cfg.Retrieval.DefaultSection, log)

	classifier := emotion.NewClient(emotion.Config{
		BaseURL: cfg.Classifier.URL,
		Timeout: time.Duration(cfg.Classifier.TimeoutSecs) * time.Second,
	})
	gate := emotion.Gate{Label: cfg.Classifier.NeutralLabel, Threshold: cfg.Classifier.NeutralGate}
	gameSvc := game.NewService(store)

	app := server.New(classifier, gate, store, advisor, gameSvc, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: app.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildVectorStore(cfg *config.AppConfig) (domain.VectorStore, error) {
	switch cfg.VectorStore.Type {
	case "memory":
		return memory.NewStorage(), nil
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, errors.New("vector_store.qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store type %q", cfg.VectorStore.Type)
	}
}
