// Package orchestrate implements the turn-based retrieval loop at the heart
// of AutoAuth: a Formulator, a Retriever, and an Evaluator collaborate in a
// fixed cycle until the Evaluator is satisfied with the retrieved policies or
// the iteration budget runs out.
//
// The loop is strictly sequential: exactly one agent turn is in flight at a
// time. All session state is request-scoped, so independent sessions run
// concurrently without sharing anything mutable.
package orchestrate

import (
	"context"
	"errors"
	"time"

	"github.com/priorauth/autoauth/agents"
	"github.com/priorauth/autoauth/core/protocol"
	"github.com/priorauth/autoauth/core/verdict"
	"github.com/priorauth/autoauth/observability"
)

const (
	// DefaultMaxIterations caps formulate/retrieve/evaluate cycles per session.
	DefaultMaxIterations = 10
	// DefaultGenerationRetries is the number of re-attempts after a failed
	// completion call before the session aborts.
	DefaultGenerationRetries = 3
	// DefaultParseRetries is the number of times a malformed Evaluator
	// verdict is re-asked before the session aborts.
	DefaultParseRetries = 2
	// DefaultTurnTimeout bounds one agent turn attempt.
	DefaultTurnTimeout = 2 * time.Minute
)

// errExhausted signals internally that the iteration cap was consumed; it is
// translated into a degraded verdict, never surfaced to callers.
var errExhausted = errors.New("iteration budget exhausted")

// exhaustedReason is the explanatory entry carried by a degraded verdict.
const exhaustedReason = "maximum retrieval iterations reached without an approved policy"

// Result is the outcome of one retrieval session.
type Result struct {
	SessionID  string
	Verdict    verdict.Verdict
	Transcript []protocol.Message
	Iterations int
}

// GroupChat drives the retrieval conversation for Prior Authorization cases.
// It owns each session's conversation exclusively: agents receive read-only
// history and return new messages, which only the loop appends.
type GroupChat struct {
	roster            *agents.Roster
	termination       Termination
	observer          observability.Observer
	generationRetries int
	parseRetries      int
	turnTimeout       time.Duration
}

// Option configures a GroupChat after defaults are applied.
type Option func(*GroupChat)

// WithObserver injects a telemetry sink. The default is NoOpObserver.
func WithObserver(o observability.Observer) Option {
	return func(g *GroupChat) {
		if o != nil {
			g.observer = o
		}
	}
}

// WithMaxIterations overrides the iteration cap.
func WithMaxIterations(n int) Option {
	return func(g *GroupChat) {
		if n > 0 {
			g.termination.MaxIterations = n
		}
	}
}

// WithGenerationRetries overrides the completion retry budget.
func WithGenerationRetries(n int) Option {
	return func(g *GroupChat) {
		if n >= 0 {
			g.generationRetries = n
		}
	}
}

// WithParseRetries overrides the verdict parse retry budget.
func WithParseRetries(n int) Option {
	return func(g *GroupChat) {
		if n >= 0 {
			g.parseRetries = n
		}
	}
}

// WithTurnTimeout overrides the per-attempt turn timeout.
func WithTurnTimeout(d time.Duration) Option {
	return func(g *GroupChat) {
		if d > 0 {
			g.turnTimeout = d
		}
	}
}

// New creates a GroupChat over the given agent roster.
func New(roster *agents.Roster, opts ...Option) *GroupChat {
	g := &GroupChat{
		roster:            roster,
		termination:       Termination{MaxIterations: DefaultMaxIterations},
		observer:          observability.NoOpObserver{},
		generationRetries: DefaultGenerationRetries,
		parseRetries:      DefaultParseRetries,
		turnTimeout:       DefaultTurnTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RunRetrieval is the session entry point consumed by the downstream
// determination component: clinical metadata in, final verdict out.
func (g *GroupChat) RunRetrieval(ctx context.Context, clinicalMetadata string) (verdict.Verdict, error) {
	result, err := g.Run(ctx, clinicalMetadata)
	if err != nil {
		return verdict.Verdict{}, err
	}
	return result.Verdict, nil
}

// Run executes one retrieval session and returns the full outcome including
// the transcript. The caller always receives either a well-formed verdict
// (possibly degraded with retry=true) or an explicit error identifying the
// failed component, never a silent empty success.
func (g *GroupChat) Run(ctx context.Context, clinicalMetadata string) (*Result, error) {
	sess := newSession()
	sess.append(protocol.NewUserMessage("intake", clinicalMetadata))

	runStart := time.Now()
	g.emit(ctx, EventRunStart, observability.LevelInfo, map[string]any{
		"session_id":     sess.id,
		"max_iterations": g.termination.MaxIterations,
	})

	result, err := g.loop(ctx, sess)

	status := observability.SpanOK
	if err != nil {
		status = observability.SpanError
		g.emit(ctx, EventError, observability.LevelError, map[string]any{
			"session_id": sess.id,
			"error":      err.Error(),
		})
	} else {
		g.emit(ctx, EventRunComplete, observability.LevelInfo, map[string]any{
			"session_id": sess.id,
			"iterations": result.Iterations,
			"retry":      result.Verdict.Retry,
			"policies":   len(result.Verdict.Policies),
		})
	}
	g.span(ctx, "session.run", runStart, status, map[string]any{"session_id": sess.id})

	return result, err
}

// loop walks the session state machine: FORMULATING → RETRIEVING →
// EVALUATING, cycling back to FORMULATING until termination or exhaustion.
// Any fatal component error terminates the session with an error instead of
// a verdict.
func (g *GroupChat) loop(ctx context.Context, sess *session) (*Result, error) {
	for {
		// Cooperative cancellation, checked at every state transition.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := SelectNext(sess.history())
		if err != nil {
			return nil, err
		}
		agent, err := g.roster.Get(next)
		if err != nil {
			return nil, &SelectionError{Reason: err.Error()}
		}

		if next != agents.Evaluator {
			msg, err := g.respond(ctx, agent, sess)
			if err != nil {
				return nil, err
			}
			sess.append(msg)
			continue
		}

		v, msg, err := g.evaluate(ctx, agent, sess)
		if errors.Is(err, errExhausted) {
			return g.finish(sess, verdict.Degraded(exhaustedReason)), nil
		}
		if err != nil {
			return nil, err
		}

		sess.append(msg)
		sess.iterations++
		sess.lastVerdict = v

		if !g.termination.ShouldTerminate(v, sess.iterations) {
			continue
		}
		if v.Satisfied() {
			return g.finish(sess, v), nil
		}
		g.emit(ctx, EventExhausted, observability.LevelWarning, map[string]any{
			"session_id": sess.id,
			"iterations": sess.iterations,
		})
		return g.finish(sess, verdict.Degraded(exhaustedReason)), nil
	}
}

func (g *GroupChat) finish(sess *session, v verdict.Verdict) *Result {
	sess.terminated = true
	return &Result{
		SessionID:  sess.id,
		Verdict:    v,
		Transcript: sess.transcript(),
		Iterations: sess.iterations,
	}
}

// respond runs one agent turn with the bounded generation retry budget. A
// RetrievalFailure is absorbed: the empty-candidate message still enters the
// conversation so the Evaluator can drive a retry cycle.
func (g *GroupChat) respond(ctx context.Context, agent agents.Agent, sess *session) (protocol.Message, error) {
	var lastErr error
	attempts := 1 + g.generationRetries

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return protocol.Message{}, err
		}

		g.emit(ctx, EventTurnStart, observability.LevelVerbose, map[string]any{
			"session_id": sess.id,
			"agent":      string(agent.Identity()),
			"attempt":    attempt,
		})

		turnCtx, cancel := context.WithTimeout(ctx, g.turnTimeout)
		start := time.Now()
		msg, err := agent.Respond(turnCtx, sess.history())
		cancel()

		var retrieval *agents.RetrievalFailure
		if errors.As(err, &retrieval) {
			g.emit(ctx, EventSearchDegraded, observability.LevelWarning, map[string]any{
				"session_id": sess.id,
				"error":      retrieval.Error(),
			})
			err = nil
		}

		status := observability.SpanOK
		if err != nil {
			status = observability.SpanError
		}
		g.span(ctx, "session.turn", start, status, map[string]any{
			"session_id": sess.id,
			"agent":      string(agent.Identity()),
			"attempt":    attempt,
		})

		if err == nil {
			g.emit(ctx, EventTurnComplete, observability.LevelVerbose, map[string]any{
				"session_id": sess.id,
				"agent":      string(agent.Identity()),
			})
			return msg, nil
		}

		lastErr = err
		g.emit(ctx, EventTurnRetry, observability.LevelWarning, map[string]any{
			"session_id": sess.id,
			"agent":      string(agent.Identity()),
			"attempt":    attempt,
			"error":      err.Error(),
		})
	}

	return protocol.Message{}, lastErr
}

// evaluate runs the Evaluator turn and enforces the verdict contract. A
// malformed verdict is re-asked up to the parse retry budget; each failed
// attempt counts as a failed iteration toward the cap. Malformed output never
// enters the transcript.
func (g *GroupChat) evaluate(ctx context.Context, agent agents.Agent, sess *session) (verdict.Verdict, protocol.Message, error) {
	var lastParseErr error
	attempts := 1 + g.parseRetries

	for attempt := 1; attempt <= attempts; attempt++ {
		msg, err := g.respond(ctx, agent, sess)
		if err != nil {
			return verdict.Verdict{}, protocol.Message{}, err
		}

		v, parseErr := verdict.Parse(msg.Content)
		if parseErr == nil {
			return v, msg, nil
		}

		lastParseErr = parseErr
		sess.iterations++
		g.emit(ctx, EventVerdictInvalid, observability.LevelWarning, map[string]any{
			"session_id": sess.id,
			"attempt":    attempt,
			"error":      parseErr.Error(),
		})

		if g.termination.Exhausted(sess.iterations) {
			return verdict.Verdict{}, protocol.Message{}, errExhausted
		}
	}

	return verdict.Verdict{}, protocol.Message{}, lastParseErr
}

func (g *GroupChat) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	g.observer.OnEvent(ctx, observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "orchestrate",
		Data:      data,
	})
}

func (g *GroupChat) span(ctx context.Context, operation string, start time.Time, status observability.SpanStatus, attrs map[string]any) {
	g.observer.OnSpan(ctx, observability.Span{
		ServiceName: serviceName,
		Operation:   operation,
		Start:       start,
		End:         time.Now(),
		Status:      status,
		Attributes:  attrs,
	})
}
