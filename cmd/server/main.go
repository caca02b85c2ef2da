package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mbrennan/marginalia/internal/annotate"
	"github.com/mbrennan/marginalia/internal/api"
	"github.com/mbrennan/marginalia/internal/config"
	"github.com/mbrennan/marginalia/internal/llm"
	"github.com/mbrennan/marginalia/internal/logger"
	"github.com/mbrennan/marginalia/internal/metrics"
	"github.com/mbrennan/marginalia/internal/pipeline"
	"github.com/mbrennan/marginalia/internal/record"
	filestore "github.com/mbrennan/marginalia/internal/store/file"
	redisstore "github.com/mbrennan/marginalia/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	log := logger.L()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ollama := llm.NewOllama(cfg.OllamaURL, cfg.OllamaModel, cfg.LLMTimeout)
	intel := llm.NewService(ollama, llm.NewStats(cfg.StatsWindow), llm.Options{
		Retries:          cfg.LLMRetries,
		ChunkMaxChars:    cfg.ChunkMaxChars,
		SummarySentences: cfg.SummarySentences,
		KeywordCount:     cfg.KeywordCount,
	})
	log.Infow("model configured", "url", cfg.OllamaURL, "model", cfg.OllamaModel,
		"availability", ollama.Availability(ctx))

	m := metrics.New()
	annot := annotate.New(store, m, cfg.ContextLength)

	orch := pipeline.NewOrchestrator(intel, cfg.WorkerCount, cfg.MaxQueueSize, cfg.JobTTL)
	orch.Start(ctx)

	srv := api.NewServer(store, annot, intel, orch, m, cfg)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Infow("shutting down")

		// Drain HTTP handlers before stopping the pipeline they submit to.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		ollama.Close()
	}()

	log.Infow("starting marginalia", "port", cfg.Port, "store", cfg.StoreBackend)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// openStore builds the configured record store and a close func for its
// underlying connection, if any.
func openStore(cfg config.Config) (record.Store, func(), error) {
	switch cfg.StoreBackend {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return redisstore.New(client, cfg.RedisKey), func() { _ = client.Close() }, nil
	case "file":
		return filestore.New(cfg.StorePath), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
