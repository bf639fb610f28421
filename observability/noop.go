package observability

import "context"

// NoOpObserver discards all events and spans with zero overhead. It is the
// default sink wherever no observer is injected.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}

func (NoOpObserver) OnSpan(ctx context.Context, span Span) {}
