package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docs-agent/internal/config"
	"docs-agent/internal/models"
	"docs-agent/internal/refresh"
)

type stubChat struct {
	mode     string
	result   *models.ChatResult
	err      error
	messages []models.ChatMessage
	threadID string
}

func (s *stubChat) Chat(_ context.Context, messages []models.ChatMessage, threadID string) (*models.ChatResult, error) {
	s.messages = messages
	s.threadID = threadID
	return s.result, s.err
}

func (s *stubChat) Mode() string { return s.mode }

type stubRefresher struct {
	err    error
	called bool
}

func (s *stubRefresher) RefreshAll(context.Context) error {
	s.called = true
	return s.err
}

func newTestServer(agent ChatService, refresher RefreshTrigger) *Server {
	return NewServer(agent, refresher, &config.ServerConfig{Host: "127.0.0.1", Port: 8000})
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandleChat(t *testing.T) {
	agent := &stubChat{
		mode: models.ModeOffline,
		result: &models.ChatResult{
			Answer: "LangGraph uses a StateGraph to define nodes.",
			Mode:   models.ModeOffline,
			Sources: []models.SourceRef{
				{models.MetaSourceName: "langgraph-llms.txt", models.MetaSequenceIndex: "0"},
			},
		},
	}
	router := newTestServer(agent, nil).Router()

	rec := doRequest(t, router, http.MethodPost, "/chat",
		`{"messages":[{"role":"user","content":"What does LangGraph use to define nodes?"}],"thread_id":"t-42"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	assert.Equal(t, "LangGraph uses a StateGraph to define nodes.", body["answer"])
	assert.Equal(t, "offline", body["mode"])
	require.Len(t, body["sources"], 1)

	assert.Equal(t, "t-42", agent.threadID)
	require.Len(t, agent.messages, 1)
	assert.Equal(t, models.RoleUser, agent.messages[0].Role)
}

func TestHandleChatDefaultThreadID(t *testing.T) {
	agent := &stubChat{mode: models.ModeOffline, result: &models.ChatResult{Answer: "ok", Mode: models.ModeOffline}}
	router := newTestServer(agent, nil).Router()

	rec := doRequest(t, router, http.MethodPost, "/chat",
		`{"messages":[{"role":"user","content":"hi"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.DefaultThreadID, agent.threadID)
}

func TestHandleChatInvalidBody(t *testing.T) {
	router := newTestServer(&stubChat{mode: models.ModeOffline}, nil).Router()

	rec := doRequest(t, router, http.MethodPost, "/chat", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "invalid request body")
}

func TestHandleChatEmptyMessages(t *testing.T) {
	router := newTestServer(&stubChat{mode: models.ModeOffline}, nil).Router()

	rec := doRequest(t, router, http.MethodPost, "/chat", `{"messages":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "messages")
}

func TestHandleChatAgentError(t *testing.T) {
	agent := &stubChat{mode: models.ModeOffline, err: errors.New("generation failed: model overloaded")}
	router := newTestServer(agent, nil).Router()

	rec := doRequest(t, router, http.MethodPost, "/chat",
		`{"messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "generation failed")
}

func TestHandleHealth(t *testing.T) {
	router := newTestServer(&stubChat{mode: models.ModeOnline}, nil).Router()

	rec := doRequest(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "online", body["mode"])
}

func TestHandleRefreshCompleted(t *testing.T) {
	refresher := &stubRefresher{}
	router := newTestServer(&stubChat{mode: models.ModeOffline}, refresher).Router()

	rec := doRequest(t, router, http.MethodPost, "/admin/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "refresh_completed", decodeBody(t, rec)["status"])
	assert.True(t, refresher.called)
}

func TestHandleRefreshWithoutRefresher(t *testing.T) {
	router := newTestServer(&stubChat{mode: models.ModeOffline}, nil).Router()

	rec := doRequest(t, router, http.MethodPost, "/admin/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "refresher_not_running", decodeBody(t, rec)["status"])
}

func TestHandleRefreshAlreadyRunning(t *testing.T) {
	refresher := &stubRefresher{err: refresh.ErrRefreshInProgress}
	router := newTestServer(&stubChat{mode: models.ModeOffline}, refresher).Router()

	rec := doRequest(t, router, http.MethodPost, "/admin/refresh", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "refresh_in_progress", decodeBody(t, rec)["status"])
}

func TestHandleRefreshFailure(t *testing.T) {
	refresher := &stubRefresher{err: errors.New("failed to fetch langgraph-llms.txt: status 503")}
	router := newTestServer(&stubChat{mode: models.ModeOffline}, refresher).Router()

	rec := doRequest(t, router, http.MethodPost, "/admin/refresh", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "status 503")
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestServer(&stubChat{mode: models.ModeOffline}, nil).Router()

	rec := doRequest(t, router, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
