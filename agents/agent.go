// Package agents implements the three fixed AutoAuth retrieval agents:
// the Formulator turns clinical metadata into a search query, the Retriever
// classifies the query and executes hybrid policy search, and the Evaluator
// scores candidates and emits the structured verdict. The roster is closed:
// the three-stage cycle is the entire behavioral surface.
package agents

import (
	"context"

	"github.com/priorauth/autoauth/core/protocol"
	"github.com/priorauth/autoauth/llm"
)

// Identity names one of the three retrieval agents.
type Identity string

const (
	Formulator Identity = "formulator"
	Retriever  Identity = "retriever"
	Evaluator  Identity = "evaluator"
)

// Known reports whether id names a member of the fixed roster.
func (id Identity) Known() bool {
	return id == Formulator || id == Retriever || id == Evaluator
}

// Agent produces one response message given the full conversation history.
// Implementations are immutable for the lifetime of a session and hold no
// mutable state beyond their configuration; the returned message is appended
// to the conversation by the orchestration loop, never by the agent.
type Agent interface {
	Identity() Identity
	Respond(ctx context.Context, history protocol.History) (protocol.Message, error)
}

// base carries the configuration every agent variant shares.
type base struct {
	identity     Identity
	instructions string
	generation   llm.GenerationConfig
	capabilities []string
	completer    llm.Completer
}

func (b *base) Identity() Identity {
	return b.identity
}

// complete issues the agent's single completion call, wrapping failures in a
// GenerationFailure that identifies the agent.
func (b *base) complete(ctx context.Context, messages []llm.ChatMessage) (string, error) {
	out, err := b.completer.Complete(ctx, b.instructions, b.generation, messages)
	if err != nil {
		return "", &GenerationFailure{Agent: b.identity, Err: err}
	}
	return out, nil
}
