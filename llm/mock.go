package llm

import "context"

// CompleteFunc adapts a function to the Completer interface, the common test
// seam for scripting agent responses.
type CompleteFunc func(ctx context.Context, instructions string, cfg GenerationConfig, messages []ChatMessage) (string, error)

func (f CompleteFunc) Complete(ctx context.Context, instructions string, cfg GenerationConfig, messages []ChatMessage) (string, error) {
	return f(ctx, instructions, cfg, messages)
}

// Script returns a Completer that replays canned responses in order, paired
// with per-call errors. Calls past the end of the script return the last
// response.
func Script(responses []string, errs []error) Completer {
	call := 0
	return CompleteFunc(func(ctx context.Context, instructions string, cfg GenerationConfig, messages []ChatMessage) (string, error) {
		i := call
		call++
		if i >= len(responses) {
			i = len(responses) - 1
		}
		var err error
		if i >= 0 && i < len(errs) {
			err = errs[i]
		}
		if i < 0 {
			return "", err
		}
		return responses[i], err
	})
}
