package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"docs-agent/internal/config"
	"docs-agent/internal/llmservice"
	"docs-agent/internal/models"
	"docs-agent/internal/vectorstore"
	"docs-agent/internal/websearch"
)

const maxAgentIterations = 5

// Retriever is the read-only view of the vector index the offline
// branch needs.
type Retriever interface {
	Query(ctx context.Context, question string, k int) ([]models.RetrievedChunk, error)
}

// Agent routes a conversation to the offline retrieval branch or the
// online search branch based on its configured mode. It keeps no
// conversation state across invocations; the thread id is an opaque
// correlation token.
type Agent struct {
	mode      string
	llm       llms.Model
	retriever Retriever
	cfg       *config.Config

	// searchTools is swappable so the degrade path is testable.
	searchTools func() ([]tools.Tool, error)
}

// New builds the agent. In offline mode a previously built, non-empty
// persisted index is a hard precondition; its absence is a construction
// error telling the operator to run ingestion first.
func New(cfg *config.Config, llm llms.Model, store *vectorstore.Store) (*Agent, error) {
	a := &Agent{
		mode: cfg.Mode,
		llm:  llm,
		cfg:  cfg,
		searchTools: func() ([]tools.Tool, error) {
			return websearch.NewTools(&cfg.Search)
		},
	}
	if cfg.Mode == models.ModeOffline {
		if store == nil {
			return nil, errors.New("offline mode requires a vector store")
		}
		if err := store.Open(); err != nil {
			return nil, fmt.Errorf("offline mode requires a built index: %w", err)
		}
		a.retriever = store
	}
	return a, nil
}

// Mode reports the configured answering mode.
func (a *Agent) Mode() string { return a.mode }

// Chat answers the conversation's most recent user turn. Routing depends
// only on the configured mode, never on message content. Generator
// failures propagate; they are not recovered by switching branches.
func (a *Agent) Chat(ctx context.Context, messages []models.ChatMessage, threadID string) (*models.ChatResult, error) {
	question := lastUserContent(messages)
	if question == "" {
		return nil, errors.New("conversation has no user message")
	}
	if threadID == "" {
		threadID = models.DefaultThreadID
	}
	log.Info().Str("mode", a.mode).Str("thread_id", threadID).Str("question", question).Msg("Answering")

	switch a.mode {
	case models.ModeOffline:
		return a.offlineAnswer(ctx, question)
	case models.ModeOnline:
		return a.onlineAnswer(ctx, question)
	default:
		return nil, fmt.Errorf("unsupported agent mode: %s", a.mode)
	}
}

// offlineAnswer retrieves the nearest chunks and answers strictly from
// them. Sources cite every retrieved chunk in similarity order, not just
// the ones that fit into the context window.
func (a *Agent) offlineAnswer(ctx context.Context, question string) (*models.ChatResult, error) {
	docs, err := a.retriever.Query(ctx, question, a.cfg.RAG.TopK)
	if err != nil {
		return nil, err
	}

	limit := a.cfg.RAG.MaxContextChunks
	if limit > len(docs) {
		limit = len(docs)
	}
	texts := make([]string, 0, limit)
	for _, doc := range docs[:limit] {
		texts = append(texts, doc.Text)
	}
	contextText := strings.Join(texts, "\n\n")
	log.Debug().Int("retrieved", len(docs)).Int("context_chunks", limit).Msg("Built retrieval context")

	prompt := fmt.Sprintf(models.OfflinePromptTemplate, contextText, question)
	answer, err := llmservice.Generate(ctx, a.llm, prompt)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	sources := make([]models.SourceRef, 0, len(docs))
	for _, doc := range docs {
		sources = append(sources, models.SourceRef{
			models.MetaSourceName:    doc.Source,
			models.MetaSequenceIndex: fmt.Sprintf("%d", doc.Sequence),
		})
	}
	return &models.ChatResult{Answer: answer, Mode: models.ModeOffline, Sources: sources}, nil
}

// onlineAnswer runs a tool-using search agent. If the search capability
// cannot be constructed the branch degrades to a direct answer with an
// empty source list rather than failing the invocation.
func (a *Agent) onlineAnswer(ctx context.Context, question string) (*models.ChatResult, error) {
	searchTools, err := a.searchTools()
	if err != nil {
		log.Warn().Err(err).Msg("No search tools available, answering directly")
		answer, err := llmservice.Generate(ctx, a.llm, fmt.Sprintf(models.DirectPromptTemplate, question))
		if err != nil {
			return nil, fmt.Errorf("generation failed: %w", err)
		}
		return &models.ChatResult{Answer: answer, Mode: models.ModeOnline, Sources: []models.SourceRef{}}, nil
	}

	log.Info().Int("tools", len(searchTools)).Msg("Running search agent")
	executor, err := agents.Initialize(a.llm, searchTools, agents.ZeroShotReactDescription,
		agents.WithMaxIterations(maxAgentIterations))
	if err != nil {
		return nil, fmt.Errorf("failed to create search agent: %w", err)
	}
	answer, err := chains.Run(ctx, executor, fmt.Sprintf(models.OnlineQuestionTemplate, question))
	if err != nil {
		return nil, fmt.Errorf("search agent failed: %w", err)
	}

	sources := []models.SourceRef{{"tool": "search", "query": question}}
	return &models.ChatResult{Answer: answer, Mode: models.ModeOnline, Sources: sources}, nil
}

// lastUserContent returns the content of the most recent user turn.
func lastUserContent(messages []models.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
