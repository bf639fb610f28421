// Package search defines the hybrid retrieval capability invoked by the
// Retriever agent, plus an in-memory policy index for local deployments and
// tests. Remote search services implement Searcher behind the same interface.
package search

import "context"

// Mode selects the retrieval strategy for one query.
type Mode string

const (
	ModeSemantic Mode = "semantic"
	ModeKeyword  Mode = "keyword"
	ModeHybrid   Mode = "hybrid"
)

// ParseMode maps a free-form mode string to a Mode, defaulting to hybrid.
// The Retriever agent's query-type classification feeds through here, so an
// unrecognized classification degrades to the most general strategy instead
// of failing the turn.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeSemantic, ModeKeyword, ModeHybrid:
		return Mode(s)
	default:
		return ModeHybrid
	}
}

// Candidate is one policy document returned by a search.
type Candidate struct {
	ID             string  `json:"id"`
	SourcePath     string  `json:"source_path"`
	ContentSnippet string  `json:"content_snippet"`
	Caption        string  `json:"caption"`
	Score          float64 `json:"score"`
}

// Searcher is the retrieval capability boundary. Implementations return
// candidates in descending relevance order.
type Searcher interface {
	Search(ctx context.Context, query string, mode Mode) ([]Candidate, error)
}

// Embedder produces a vector representation of text for semantic scoring.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EmbedFunc adapts a function to the Embedder interface.
type EmbedFunc func(ctx context.Context, text string) ([]float64, error)

func (f EmbedFunc) Embed(ctx context.Context, text string) ([]float64, error) {
	return f(ctx, text)
}
