package models

// Conversation roles accepted by the chat surface.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Agent modes. Offline answers from the local index, online may search the web.
const (
	ModeOffline = "offline"
	ModeOnline  = "online"
)

const DefaultThreadID = "default"

// ChatMessage is a single conversation turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	ThreadID string        `json:"thread_id,omitempty"`
}

// SourceRef is a loosely typed citation record. Offline answers carry
// chunk provenance, online answers carry the search query performed.
type SourceRef map[string]string

// ChatResult is the normalized output of one answering invocation.
type ChatResult struct {
	Answer  string      `json:"answer"`
	Mode    string      `json:"mode"`
	Sources []SourceRef `json:"sources"`
}
