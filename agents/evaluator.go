package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/priorauth/autoauth/core/protocol"
	"github.com/priorauth/autoauth/llm"
)

// evaluatorAgent scores the retrieved candidates against the original query
// and clinical context, emitting the structured verdict JSON. Parsing and
// contract enforcement happen in the orchestration loop so a malformed
// verdict can be retried as the same turn.
type evaluatorAgent struct {
	base
}

// NewEvaluator creates the Evaluator agent from its role definition.
func NewEvaluator(def Definition, completer llm.Completer) Agent {
	return &evaluatorAgent{base: base{
		identity:     Evaluator,
		instructions: def.Instructions,
		generation:   def.Generation,
		capabilities: def.Capabilities,
		completer:    completer,
	}}
}

func (a *evaluatorAgent) Respond(ctx context.Context, history protocol.History) (protocol.Message, error) {
	queryMsg, ok := history.LastBy(string(Formulator))
	if !ok {
		return protocol.Message{}, &GenerationFailure{
			Agent: Evaluator,
			Err:   fmt.Errorf("no formulator query in history"),
		}
	}
	resultMsg, ok := history.LastBy(string(Retriever))
	if !ok {
		return protocol.Message{}, &GenerationFailure{
			Agent: Evaluator,
			Err:   fmt.Errorf("no retrieval result in history"),
		}
	}

	var b strings.Builder
	b.WriteString("Clinical information:\n")
	b.WriteString(history.Seed())
	b.WriteString("\n\nSearch query:\n")
	b.WriteString(queryMsg.Content)
	b.WriteString("\n\nCandidate policy documents:\n")
	b.WriteString(resultMsg.Content)

	out, err := a.complete(ctx, []llm.ChatMessage{{Role: "user", Content: b.String()}})
	if err != nil {
		return protocol.Message{}, err
	}

	return protocol.NewAgentMessage(string(Evaluator), out), nil
}
