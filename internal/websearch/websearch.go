package websearch

import (
	"errors"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/tools"
	"github.com/tmc/langchaingo/tools/duckduckgo"
	"github.com/tmc/langchaingo/tools/serpapi"

	"docs-agent/internal/config"
)

const userAgent = "docs-agent/1.0 documentation assistant"

var (
	ErrMissingAPIKey   = errors.New("web search provider requires an API key")
	ErrUnknownProvider = errors.New("unknown web search provider")
)

// NewTools constructs the web-search capability for the online branch.
// Any error returned here means the capability is unavailable; callers
// degrade to a direct answer instead of failing the invocation.
func NewTools(cfg *config.SearchConfig) ([]tools.Tool, error) {
	switch cfg.Provider {
	case config.SearchProviderSerpAPI:
		if cfg.Key == "" {
			return nil, ErrMissingAPIKey
		}
		// serpapi in langchaingo v0.1.7 only reads the key from the
		// SERPAPI_API_KEY environment variable; there is no option to
		// pass it directly.
		if err := os.Setenv("SERPAPI_API_KEY", cfg.Key); err != nil {
			return nil, fmt.Errorf("failed to set serpapi API key: %w", err)
		}
		t, err := serpapi.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create serpapi tool: %w", err)
		}
		return []tools.Tool{t}, nil
	case config.SearchProviderDuckDuckGo:
		t, err := duckduckgo.New(cfg.MaxResults, userAgent)
		if err != nil {
			return nil, fmt.Errorf("failed to create duckduckgo tool: %w", err)
		}
		return []tools.Tool{t}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
