package verdict

import "fmt"

// ParseError reports Evaluator output that violates the three-key verdict
// contract. The orchestration loop treats it as a retryable protocol error
// with a small fixed retry budget.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("verdict parse error: %s", e.Reason)
}
