package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docs-agent/internal/chunker"
	"docs-agent/internal/config"
	"docs-agent/internal/embedding"
	"docs-agent/internal/loader"
	"docs-agent/internal/refresh"
	"docs-agent/internal/vectorstore"
)

const defaultConfigPath = "./configs/config.yaml"

// Ingestion builds the persisted vector index from the local snapshot
// files, optionally fetching fresh snapshots first. Extra local documents
// (txt, md, pdf, docx) passed as arguments are indexed alongside them.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	fetch := flag.Bool("fetch", false, "Fetch fresh snapshots before indexing")
	dryRun := flag.Bool("dry-run", false, "Print the chunks without touching the index")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()
	splitter := chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)

	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	store := vectorstore.New(cfg.Store.Path, cfg.Store.Collection, embedder)

	extraFiles := flag.Args()

	if *fetch {
		refresher := refresh.New(cfg, store, splitter)
		if err := refresher.RefreshAll(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error refreshing snapshots")
		}
		// RefreshAll already rebuilt the index from the snapshots
		if len(extraFiles) == 0 && !*dryRun {
			log.Info().Int("chunks", store.Count()).Msg("Ingestion complete")
			return
		}
	}

	names := make([]string, 0, len(cfg.Data.Snapshots))
	for _, snap := range cfg.Data.Snapshots {
		names = append(names, snap.Name)
	}
	docs := loader.LoadSnapshots(cfg.Data.Dir, names)

	for _, path := range extraFiles {
		doc, err := loader.LoadFile(path)
		if err != nil {
			log.Fatal().Err(err).Msg("Error loading document")
		}
		docs = append(docs, doc)
	}

	chunks, err := splitter.ChunkAll(docs)
	if err != nil {
		log.Fatal().Err(err).Msg("Error chunking documents")
	}

	if *dryRun {
		preview := chunks
		if len(preview) > 20 {
			preview = preview[:20]
		}
		pretty, err := json.MarshalIndent(preview, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("Error printing chunks")
		}
		fmt.Println(string(pretty))
		log.Info().Int("chunks", len(chunks)).Int("docs", len(docs)).Msg("Dry run, index untouched")
		return
	}

	if len(chunks) == 0 {
		log.Fatal().Msg("No content to ingest: fetch snapshots first with -fetch")
	}

	if err := store.Rebuild(ctx, chunks); err != nil {
		log.Fatal().Err(err).Msg("Error rebuilding index")
	}
	log.Info().Int("chunks", len(chunks)).Int("docs", len(docs)).Msg("Ingestion complete")
}
