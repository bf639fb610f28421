package orchestrate

import "fmt"

// SelectionError reports a transcript the selector cannot attribute to a
// known agent. It indicates an internal invariant violation, is never
// retried, and aborts the session immediately.
type SelectionError struct {
	Reason string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("selection error: %s", e.Reason)
}
