package agents

import (
	"context"
	"strings"

	"github.com/priorauth/autoauth/core/protocol"
	"github.com/priorauth/autoauth/llm"
)

// formulatorAgent turns the seed clinical metadata into a concise retrieval
// query. On retry cycles it also sees the last Evaluator verdict so it can
// reformulate with different terminology.
type formulatorAgent struct {
	base
}

// NewFormulator creates the Formulator agent from its role definition.
func NewFormulator(def Definition, completer llm.Completer) Agent {
	return &formulatorAgent{base: base{
		identity:     Formulator,
		instructions: def.Instructions,
		generation:   def.Generation,
		capabilities: def.Capabilities,
		completer:    completer,
	}}
}

func (a *formulatorAgent) Respond(ctx context.Context, history protocol.History) (protocol.Message, error) {
	var b strings.Builder
	b.WriteString("Clinical information:\n")
	b.WriteString(history.Seed())

	if feedback, ok := history.LastBy(string(Evaluator)); ok {
		b.WriteString("\n\nThe previous search was rejected by the evaluator:\n")
		b.WriteString(feedback.Content)
		b.WriteString("\nFormulate a different query.")
	}

	query, err := a.complete(ctx, []llm.ChatMessage{{Role: "user", Content: b.String()}})
	if err != nil {
		return protocol.Message{}, err
	}

	return protocol.NewAgentMessage(string(Formulator), strings.TrimSpace(query)), nil
}
