package agents

import (
	"fmt"

	"github.com/priorauth/autoauth/llm"
)

// Roster holds the three agents of one retrieval session, created once at
// session construction and immutable afterwards.
type Roster struct {
	Formulator Agent
	Retriever  Agent
	Evaluator  Agent
}

// NewRoster builds the closed three-agent roster from role definitions.
func NewRoster(defs map[Identity]Definition, completer llm.Completer, caps *Capabilities) (*Roster, error) {
	for _, id := range []Identity{Formulator, Retriever, Evaluator} {
		if _, ok := defs[id]; !ok {
			return nil, fmt.Errorf("missing definition for agent %s", id)
		}
	}

	retriever, err := NewRetriever(defs[Retriever], completer, caps)
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	return &Roster{
		Formulator: NewFormulator(defs[Formulator], completer),
		Retriever:  retriever,
		Evaluator:  NewEvaluator(defs[Evaluator], completer),
	}, nil
}

// Get returns the agent with the given identity.
func (r *Roster) Get(id Identity) (Agent, error) {
	switch id {
	case Formulator:
		return r.Formulator, nil
	case Retriever:
		return r.Retriever, nil
	case Evaluator:
		return r.Evaluator, nil
	default:
		return nil, fmt.Errorf("unknown agent identity %q", id)
	}
}
