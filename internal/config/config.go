package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLMConfig describes one LLM backend.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
}

// SearchConfig selects the web-search provider used in online mode.
type SearchConfig struct {
	Provider   string `yaml:"provider"`
	Key        string `yaml:"key"`
	MaxResults int    `yaml:"max_results"`
}

// RAGConfig tunes chunking and retrieval.
type RAGConfig struct {
	ChunkSize        int `yaml:"chunk_size"`
	ChunkOverlap     int `yaml:"chunk_overlap"`
	TopK             int `yaml:"top_k"`
	MaxContextChunks int `yaml:"max_context_chunks"`
}

// RefreshConfig controls the periodic documentation refresh.
type RefreshConfig struct {
	Frequency string `yaml:"frequency"` // weekly or monthly
	Hour      int    `yaml:"hour"`      // local hour of day the job fires
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig locates the persisted vector collection.
type StoreConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

// Snapshot is one named documentation file fetched from a fixed URL.
type Snapshot struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// DataConfig holds the snapshot directory and the set of tracked docs.
type DataConfig struct {
	Dir       string     `yaml:"dir"`
	Snapshots []Snapshot `yaml:"snapshots"`
}

type Config struct {
	Mode      string        `yaml:"agent_mode"`
	LLM       LLMConfig     `yaml:"llm"`
	Embedding LLMConfig     `yaml:"embedding"`
	Search    SearchConfig  `yaml:"search"`
	RAG       RAGConfig     `yaml:"rag"`
	Refresh   RefreshConfig `yaml:"refresh"`
	Server    ServerConfig  `yaml:"server"`
	Store     StoreConfig   `yaml:"store"`
	Data      DataConfig    `yaml:"data"`
}

// Supported provider names. Anything else is a fatal configuration error.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"

	EmbedProviderOllama = "ollama"
	EmbedProviderOpenAI = "openai"

	SearchProviderSerpAPI    = "serpapi"
	SearchProviderDuckDuckGo = "duckduckgo"
)

// Load reads the YAML config at path, falling back to defaults when the
// file does not exist, then applies environment overrides and validates.
// A .env file in the working directory is honored if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg)
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Mode: "offline",
		LLM: LLMConfig{
			Provider: ProviderGemini,
			Model:    "gemini-2.5-flash-lite",
			BaseURL:  "https://openrouter.ai/api/v1",
		},
		Embedding: LLMConfig{
			Provider: EmbedProviderOllama,
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		Search: SearchConfig{
			Provider:   SearchProviderSerpAPI,
			MaxResults: 5,
		},
		RAG: RAGConfig{
			ChunkSize:        800,
			ChunkOverlap:     100,
			TopK:             4,
			MaxContextChunks: 6,
		},
		Refresh: RefreshConfig{
			Frequency: "weekly",
			Hour:      2,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Store: StoreConfig{
			Path:       "vectorstore/chromem",
			Collection: "langgraph_docs",
		},
		Data: DataConfig{
			Dir: "data",
			Snapshots: []Snapshot{
				{Name: "langgraph-llms.txt", URL: "https://langchain-ai.github.io/langgraph/llms.txt"},
				{Name: "langgraph-llms-full.txt", URL: "https://langchain-ai.github.io/langgraph/llms-full.txt"},
				{Name: "langchain-llms.txt", URL: "https://docs.langchain.com/llms.txt"},
				{Name: "langchain-llms-full.txt", URL: "https://docs.langchain.com/llms-full.txt"},
			},
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 800
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 100
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 4
	}
	if cfg.RAG.MaxContextChunks == 0 {
		cfg.RAG.MaxContextChunks = 6
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 5
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "vectorstore/chromem"
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "langgraph_docs"
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}
}

// applyEnv keeps the original deployment's environment variable names.
func applyEnv(cfg *Config) {
	if v := os.Getenv("AGENT_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" && cfg.LLM.Provider == ProviderGemini {
		cfg.LLM.Key = v
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" && cfg.LLM.Provider == ProviderOpenRouter {
		cfg.LLM.Key = v
	}
	if v := os.Getenv("SERPAPI_API_KEY"); v != "" {
		cfg.Search.Key = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Embedding.Provider == EmbedProviderOpenAI && cfg.Embedding.Key == "" {
		cfg.Embedding.Key = v
	}
	if v := os.Getenv("DATA_REFRESH_FREQ"); v != "" {
		cfg.Refresh.Frequency = v
	}
}

// Validate enforces the construction-time contract: unknown providers,
// missing credentials and bad mode values must fail before serving starts.
func (c *Config) Validate() error {
	switch c.Mode {
	case "offline", "online":
	default:
		return fmt.Errorf("unsupported AGENT_MODE=%s, want offline or online", c.Mode)
	}

	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.Key == "" {
			return errors.New("gemini provider requires GOOGLE_API_KEY")
		}
	case ProviderOpenRouter:
		if c.LLM.Key == "" {
			return errors.New("openrouter provider requires OPENROUTER_API_KEY")
		}
		if c.LLM.BaseURL == "" {
			return errors.New("openrouter provider requires a base URL")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER=%s, want gemini or openrouter", c.LLM.Provider)
	}

	switch c.Embedding.Provider {
	case EmbedProviderOllama:
		if c.Embedding.BaseURL == "" {
			return errors.New("ollama embedder requires a server URL")
		}
	case EmbedProviderOpenAI:
		if c.Embedding.Key == "" {
			return errors.New("openai embedder requires an API key")
		}
	default:
		return fmt.Errorf("unsupported embedding provider %s, want ollama or openai", c.Embedding.Provider)
	}

	switch strings.ToLower(c.Refresh.Frequency) {
	case "weekly", "monthly":
	default:
		return fmt.Errorf("unsupported DATA_REFRESH_FREQ=%s, want weekly or monthly", c.Refresh.Frequency)
	}
	if c.Refresh.Hour < 0 || c.Refresh.Hour > 23 {
		return fmt.Errorf("refresh hour %d out of range 0-23", c.Refresh.Hour)
	}

	if len(c.Data.Snapshots) == 0 {
		return errors.New("no documentation snapshots configured")
	}
	return nil
}
