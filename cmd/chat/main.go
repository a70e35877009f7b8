package main

import (
	"context"
	"flag"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docs-agent/internal/agent"
	"docs-agent/internal/config"
	"docs-agent/internal/embedding"
	"docs-agent/internal/llmservice"
	"docs-agent/internal/tui"
	"docs-agent/internal/vectorstore"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

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

	// the terminal belongs to the TUI from here on
	log.Logger = zerolog.Nop()

	p := tea.NewProgram(tui.New(helperAgent), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		os.Exit(1)
	}
}
