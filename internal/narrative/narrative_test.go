package narrative

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlowen/riskgate/internal/circuitbreaker"
	"github.com/jlowen/riskgate/internal/decision"
	"github.com/jlowen/riskgate/internal/guardrail"
)

var corridors = []string{"US-IN", "UK-IN"}

type countingEvaluator struct {
	calls   int
	failFor int // fail the first N calls
	reasons []decision.ReasonCode
}

func (c *countingEvaluator) Evaluate(ctx context.Context, ev *decision.Evidence) (*decision.RiskSignal, error) {
	c.calls++
	if c.calls <= c.failFor {
		return nil, errors.New("backend unavailable")
	}
	return &decision.RiskSignal{Reasons: c.reasons, Narrative: "ok"}, nil
}

func (c *countingEvaluator) Model() string { return "eval_model" }

func evidence(corridor string) *decision.Evidence {
	return &decision.Evidence{Corridor: corridor, Features: &decision.FeatureSet{}}
}

func TestGuarded_AllowedCorridor(t *testing.T) {
	inner := &countingEvaluator{}
	g := Guard(inner, decision.CapabilityFraudEval, corridors)

	signal, err := g.Evaluate(context.Background(), evidence("US-IN"))
	require.NoError(t, err)
	assert.Equal(t, "ok", signal.Narrative)
	assert.Equal(t, 1, inner.calls)
}

func TestGuarded_RejectedCorridorNeverReachesBackend(t *testing.T) {
	inner := &countingEvaluator{}
	g := Guard(inner, decision.CapabilityFraudEval, corridors)

	for _, corridor := range []string{"US-MX", ""} {
		signal, err := g.Evaluate(context.Background(), evidence(corridor))
		assert.Nil(t, signal)
		require.Error(t, err)
		assert.ErrorIs(t, err, guardrail.ErrRejected)
	}
	assert.Equal(t, 0, inner.calls, "backend must not be invoked on rejection")
}

func TestGuarded_RetriesTransientFailure(t *testing.T) {
	inner := &countingEvaluator{failFor: 2}
	g := Guard(inner, decision.CapabilityFraudEval, corridors).
		WithRetry(3, time.Millisecond)

	signal, err := g.Evaluate(context.Background(), evidence("UK-IN"))
	require.NoError(t, err)
	assert.Equal(t, "ok", signal.Narrative)
	assert.Equal(t, 3, inner.calls)
}

func TestGuarded_ExhaustedRetriesSurfaceCapabilityError(t *testing.T) {
	inner := &countingEvaluator{failFor: 10}
	g := Guard(inner, decision.CapabilityAMLEval, corridors).
		WithRetry(2, time.Millisecond)

	_, err := g.Evaluate(context.Background(), evidence("US-IN"))
	require.Error(t, err)

	var ce *decision.CapabilityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, decision.CapabilityAMLEval, ce.Capability)
	assert.Equal(t, 2, inner.calls)
}

func TestGuarded_OpenBreakerShortCircuits(t *testing.T) {
	inner := &countingEvaluator{failFor: 100}
	breaker := circuitbreaker.New(2, time.Minute)
	g := Guard(inner, decision.CapabilityFraudEval, corridors).
		WithBreaker(breaker)

	// Two failures trip the breaker.
	for i := 0; i < 2; i++ {
		_, err := g.Evaluate(context.Background(), evidence("US-IN"))
		require.Error(t, err)
	}
	callsBefore := inner.calls

	_, err := g.Evaluate(context.Background(), evidence("US-IN"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, callsBefore, inner.calls, "open breaker must not invoke backend")
}

type countingExplainer struct {
	calls int
	err   error
}

func (c *countingExplainer) Explain(ctx context.Context, ev *decision.ExplainEvidence) (*decision.Explanation, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &decision.Explanation{Explanation: "because"}, nil
}

func (c *countingExplainer) Model() string { return "explain_model" }

func TestGuardedExplainer_AllowedCorridor(t *testing.T) {
	inner := &countingExplainer{}
	e := GuardExplainer(inner, corridors)

	out, err := e.Explain(context.Background(), &decision.ExplainEvidence{Corridor: "US-IN"})
	require.NoError(t, err)
	assert.Equal(t, "because", out.Explanation)
	assert.Equal(t, "explain_model", e.Model())
}

func TestGuardedExplainer_RejectedCorridor(t *testing.T) {
	inner := &countingExplainer{}
	e := GuardExplainer(inner, corridors)

	_, err := e.Explain(context.Background(), &decision.ExplainEvidence{Corridor: "US-MX"})
	require.Error(t, err)
	assert.ErrorIs(t, err, guardrail.ErrRejected)
	assert.Equal(t, 0, inner.calls)
}

func TestGuardedExplainer_BackendFailure(t *testing.T) {
	inner := &countingExplainer{err: errors.New("backend down")}
	e := GuardExplainer(inner, corridors).WithRetry(2, time.Millisecond)

	_, err := e.Explain(context.Background(), &decision.ExplainEvidence{Corridor: "UK-IN"})
	require.Error(t, err)

	var ce *decision.CapabilityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, decision.CapabilityExplainer, ce.Capability)
	assert.Equal(t, 2, inner.calls)
}

func TestStubEvaluator(t *testing.T) {
	s := NewStubEvaluator("fraud_model", "fraud")

	signal, err := s.Evaluate(context.Background(), evidence("US-IN"))
	require.NoError(t, err)
	assert.Empty(t, signal.Reasons)
	assert.NotEmpty(t, signal.Narrative)
	assert.Equal(t, "fraud_model", s.Model())
}
