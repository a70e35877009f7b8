package models

// Metadata keys stored with every indexed chunk.
const (
	MetaSourceName    = "source_name"
	MetaSequenceIndex = "sequence_index"
)

var (
	// OfflinePromptTemplate takes the retrieved context and the question.
	OfflinePromptTemplate = `You are a LangGraph/LangChain helper.
Use ONLY the provided documentation.

Context:
%s

Question: %s

Answer:`

	// DirectPromptTemplate is the degraded online path, no external lookup.
	DirectPromptTemplate = `You are a LangGraph/LangChain expert. Answer: %s`

	// OnlineQuestionTemplate wraps the question handed to the tool-using agent.
	OnlineQuestionTemplate = `You are a LangGraph/LangChain expert. Use search tools for latest information. Provide code examples.

Question: %s`
)
