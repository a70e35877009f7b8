package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docs-agent/internal/agent"
	"docs-agent/internal/chunker"
	"docs-agent/internal/config"
	"docs-agent/internal/embedding"
	"docs-agent/internal/llmservice"
	"docs-agent/internal/refresh"
	"docs-agent/internal/server"
	"docs-agent/internal/vectorstore"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Info().Str("mode", cfg.Mode).Str("provider", cfg.LLM.Provider).Msg("Starting docs agent")

	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	store := vectorstore.New(cfg.Store.Path, cfg.Store.Collection, embedder)

	llm, err := llmservice.New(context.Background(), &cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM")
	}

	helperAgent, err := agent.New(cfg, llm, store)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing agent")
	}

	splitter := chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	refresher := refresh.New(cfg, store, splitter)
	if last, err := refresher.LastRefreshedAt(); err == nil {
		log.Info().Time("last_refreshed_at", last).Msg("Documentation snapshot age")
	}
	refresher.Start()

	srv := server.NewServer(helperAgent, refresher, &cfg.Server)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case <-sig:
		log.Info().Msg("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			log.Error().Err(err).Msg("Error stopping server")
		}
		refresher.Stop()
	}
}
