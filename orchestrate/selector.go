package orchestrate

import (
	"fmt"

	"github.com/priorauth/autoauth/agents"
	"github.com/priorauth/autoauth/core/protocol"
)

// SelectNext chooses the agent that acts next, enforcing the fixed cycle
// Formulator → Retriever → Evaluator → Formulator. It is a pure function of
// the transcript: identical histories always yield the same choice, so turn
// order is replay-deterministic. On an empty or seed-only history it returns
// the Formulator. A transcript whose last message cannot be attributed to a
// known agent yields a *SelectionError, which is fatal for the session.
func SelectNext(history protocol.History) (agents.Identity, error) {
	last, ok := history.Last()
	if !ok || last.Role == protocol.RoleUser {
		return agents.Formulator, nil
	}

	switch agents.Identity(last.AuthorName) {
	case agents.Formulator:
		return agents.Retriever, nil
	case agents.Retriever:
		return agents.Evaluator, nil
	case agents.Evaluator:
		return agents.Formulator, nil
	default:
		return "", &SelectionError{
			Reason: fmt.Sprintf("last message authored by unknown agent %q", last.AuthorName),
		}
	}
}
