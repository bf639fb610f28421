package agents

import (
	"errors"
	"fmt"
)

// ErrUnknownCapability is returned when an agent references a capability name
// that is not registered.
var ErrUnknownCapability = errors.New("unknown capability")

// GenerationFailure reports a failed or timed-out language-model completion
// call. It identifies the agent whose turn failed so the orchestration loop
// can attribute retries and aborts. Transient by design: the loop retries a
// bounded number of times before escalating.
type GenerationFailure struct {
	Agent Identity
	Err   error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generation failure in agent %s: %v", e.Agent, e.Err)
}

func (e *GenerationFailure) Unwrap() error {
	return e.Err
}

// RetrievalFailure reports an unavailable search capability. The Retriever
// turn still yields an empty-candidate message; the failure is surfaced so
// telemetry can record it, but it never aborts a session.
type RetrievalFailure struct {
	Err error
}

func (e *RetrievalFailure) Error() string {
	return fmt.Sprintf("retrieval failure: %v", e.Err)
}

func (e *RetrievalFailure) Unwrap() error {
	return e.Err
}
