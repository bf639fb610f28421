package orchestrate

import "github.com/priorauth/autoauth/observability"

// serviceName tags every span emitted by the retrieval core.
const serviceName = "autoauth-retrieval"

// Session event types emitted during the orchestration loop.
const (
	EventRunStart       observability.EventType = "session.run.start"
	EventRunComplete    observability.EventType = "session.run.complete"
	EventTurnStart      observability.EventType = "session.turn.start"
	EventTurnComplete   observability.EventType = "session.turn.complete"
	EventTurnRetry      observability.EventType = "session.turn.retry"
	EventVerdictInvalid observability.EventType = "session.verdict.invalid"
	EventSearchDegraded observability.EventType = "session.search.degraded"
	EventExhausted      observability.EventType = "session.iterations.exhausted"
	EventError          observability.EventType = "session.error"
)
