package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/priorauth/autoauth/core/protocol"
	"github.com/priorauth/autoauth/llm"
	"github.com/priorauth/autoauth/search"
)

// RetrievalResult is the content of a Retriever message: the executed query,
// the mode the query was classified as, and the candidate documents found.
// An unavailable search capability yields an empty Candidates list with Note
// set, never a failed turn.
type RetrievalResult struct {
	Query      string             `json:"query"`
	Mode       search.Mode        `json:"mode"`
	Candidates []search.Candidate `json:"candidates"`
	Note       string             `json:"note,omitempty"`
}

// retrieverAgent classifies the Formulator's query and executes it against
// the policy search capability.
type retrieverAgent struct {
	base
	searcher search.Searcher
}

// NewRetriever creates the Retriever agent, resolving its search capability
// from the registry. Fails when the definition references an unregistered
// capability.
func NewRetriever(def Definition, completer llm.Completer, caps *Capabilities) (Agent, error) {
	name := CapabilityPolicySearch
	if len(def.Capabilities) > 0 {
		name = def.Capabilities[0]
	}
	searcher, err := caps.Searcher(name)
	if err != nil {
		return nil, err
	}

	return &retrieverAgent{
		base: base{
			identity:     Retriever,
			instructions: def.Instructions,
			generation:   def.Generation,
			capabilities: def.Capabilities,
			completer:    completer,
		},
		searcher: searcher,
	}, nil
}

// Respond executes the retrieval turn. A search capability failure is
// absorbed: the returned message carries zero candidates so the Evaluator can
// drive a retry, and the returned error is a *RetrievalFailure the loop
// records but does not escalate.
func (a *retrieverAgent) Respond(ctx context.Context, history protocol.History) (protocol.Message, error) {
	queryMsg, ok := history.LastBy(string(Formulator))
	if !ok {
		return protocol.Message{}, &GenerationFailure{
			Agent: Retriever,
			Err:   fmt.Errorf("no formulator query in history"),
		}
	}
	query := queryMsg.Content

	mode, err := a.classify(ctx, query)
	if err != nil {
		return protocol.Message{}, err
	}

	result := RetrievalResult{Query: query, Mode: mode, Candidates: []search.Candidate{}}

	candidates, searchErr := a.searcher.Search(ctx, query, mode)
	if searchErr != nil {
		result.Note = "search capability unavailable, no candidates retrieved"
	} else if candidates != nil {
		result.Candidates = candidates
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return protocol.Message{}, &GenerationFailure{Agent: Retriever, Err: err}
	}

	msg := protocol.NewAgentMessage(string(Retriever), string(payload))
	if searchErr != nil {
		return msg, &RetrievalFailure{Err: searchErr}
	}
	return msg, nil
}

// classify asks the model for the query type. Unexpected answers degrade to
// hybrid rather than failing the turn.
func (a *retrieverAgent) classify(ctx context.Context, query string) (search.Mode, error) {
	out, err := a.complete(ctx, []llm.ChatMessage{{Role: "user", Content: query}})
	if err != nil {
		return "", err
	}
	return search.ParseMode(strings.ToLower(strings.TrimSpace(out))), nil
}

// ParseRetrievalResult decodes a Retriever message content. Used by the
// Evaluator turn and by transcript consumers.
func ParseRetrievalResult(content string) (RetrievalResult, error) {
	var result RetrievalResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return RetrievalResult{}, fmt.Errorf("malformed retrieval result: %w", err)
	}
	return result, nil
}
