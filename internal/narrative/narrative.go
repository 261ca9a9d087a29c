// Package narrative wraps the narrative-evaluation capabilities: the fraud
// and AML signal evaluators and the explanation generator.
//
// The generative backend is opaque to the pipeline: any implementation of
// the evaluator interfaces (hosted model call, rule-based stub, test double)
// plugs in unchanged. Every invocation is gated by the corridor guardrail
// before the backend is called; rejection halts the transaction rather than
// proceeding with unvalidated input.
package narrative

import (
	"context"
	"errors"
	"time"

	"github.com/jlowen/riskgate/internal/circuitbreaker"
	"github.com/jlowen/riskgate/internal/decision"
	"github.com/jlowen/riskgate/internal/guardrail"
	"github.com/jlowen/riskgate/internal/metrics"
	"github.com/jlowen/riskgate/internal/retry"
)

// Guarded wraps a signal evaluator with the corridor guardrail, bounded
// retry, and a circuit breaker.
type Guarded struct {
	inner      decision.SignalEvaluator
	capability string
	corridors  []string
	attempts   int
	baseDelay  time.Duration
	breaker    *circuitbreaker.Breaker
}

// Guard wraps an evaluator. The capability name keys metrics and the
// circuit breaker; corridors is the guardrail allow-list.
func Guard(inner decision.SignalEvaluator, capability string, corridors []string) *Guarded {
	return &Guarded{
		inner:      inner,
		capability: capability,
		corridors:  corridors,
		attempts:   1,
	}
}

// WithRetry sets bounded retry for backend calls.
func (g *Guarded) WithRetry(attempts int, baseDelay time.Duration) *Guarded {
	g.attempts = attempts
	g.baseDelay = baseDelay
	return g
}

// WithBreaker wires a circuit breaker shared across capabilities.
func (g *Guarded) WithBreaker(b *circuitbreaker.Breaker) *Guarded {
	g.breaker = b
	return g
}

func (g *Guarded) Model() string { return g.inner.Model() }

// Evaluate validates the input, then invokes the backend with retry.
// A guardrail rejection surfaces as a *guardrail.RejectionError; backend
// failures surface as a *decision.CapabilityError.
func (g *Guarded) Evaluate(ctx context.Context, ev *decision.Evidence) (*decision.RiskSignal, error) {
	if err := g.precheck(ev.Corridor); err != nil {
		return nil, err
	}

	var signal *decision.RiskSignal
	err := g.invoke(ctx, func() error {
		var callErr error
		signal, callErr = g.inner.Evaluate(ctx, ev)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return signal, nil
}

func (g *Guarded) precheck(corridor string) error {
	err := guardrail.Run(
		guardrail.Required("corridor", corridor),
		guardrail.CorridorAllowed(corridor, g.corridors),
	)
	if err != nil {
		var rej *guardrail.RejectionError
		if errors.As(err, &rej) {
			metrics.GuardrailRejectionsTotal.WithLabelValues(rej.Check).Inc()
		}
		return err
	}
	return nil
}

func (g *Guarded) invoke(ctx context.Context, fn func() error) error {
	if g.breaker != nil && !g.breaker.Allow(g.capability) {
		metrics.CapabilityFailuresTotal.WithLabelValues(g.capability).Inc()
		return decision.NewCapabilityError(g.capability,
			errors.New("circuit open"))
	}

	err := retry.Do(ctx, g.attempts, g.baseDelay, fn)
	if err != nil {
		if g.breaker != nil {
			g.breaker.RecordFailure(g.capability)
		}
		metrics.CapabilityFailuresTotal.WithLabelValues(g.capability).Inc()
		return decision.NewCapabilityError(g.capability, err)
	}
	if g.breaker != nil {
		g.breaker.RecordSuccess(g.capability)
	}
	return nil
}

// GuardedExplainer applies the same guardrail/retry/breaker wrapping to the
// explanation capability.
type GuardedExplainer struct {
	g     *Guarded // reuses precheck/invoke plumbing
	inner decision.Explainer
}

// GuardExplainer wraps an explainer with the corridor guardrail.
func GuardExplainer(inner decision.Explainer, corridors []string) *GuardedExplainer {
	return &GuardedExplainer{
		g:     Guard(nil, decision.CapabilityExplainer, corridors),
		inner: inner,
	}
}

// WithRetry sets bounded retry for backend calls.
func (e *GuardedExplainer) WithRetry(attempts int, baseDelay time.Duration) *GuardedExplainer {
	e.g.WithRetry(attempts, baseDelay)
	return e
}

// WithBreaker wires a circuit breaker shared across capabilities.
func (e *GuardedExplainer) WithBreaker(b *circuitbreaker.Breaker) *GuardedExplainer {
	e.g.WithBreaker(b)
	return e
}

func (e *GuardedExplainer) Model() string { return e.inner.Model() }

// Explain validates the input, then invokes the backend with retry.
func (e *GuardedExplainer) Explain(ctx context.Context, ev *decision.ExplainEvidence) (*decision.Explanation, error) {
	if err := e.g.precheck(ev.Corridor); err != nil {
		return nil, err
	}

	var out *decision.Explanation
	err := e.g.invoke(ctx, func() error {
		var callErr error
		out, callErr = e.inner.Explain(ctx, ev)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
