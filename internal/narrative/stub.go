package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/jlowen/riskgate/internal/decision"
)

// StubEvaluator is a deterministic stand-in for a hosted narrative model.
// It echoes the deterministic evidence back as a short narrative and emits
// no reason codes of its own. Replace with a client for your generative
// backend; the Guarded wrapper stays in front either way.
type StubEvaluator struct {
	model string
	role  string // "fraud" or "aml", used in the canned narrative
}

// NewStubEvaluator creates a stub evaluator reporting the given model ID.
func NewStubEvaluator(model, role string) *StubEvaluator {
	return &StubEvaluator{model: model, role: role}
}

func (s *StubEvaluator) Model() string { return s.model }

func (s *StubEvaluator) Evaluate(_ context.Context, ev *decision.Evidence) (*decision.RiskSignal, error) {
	return &decision.RiskSignal{
		Reasons: []decision.ReasonCode{},
		Narrative: fmt.Sprintf("%s review of corridor %s: %d rule reasons, %d model reasons.",
			s.role, ev.Corridor, len(ev.RuleReasons), len(ev.ModelReasons)),
	}, nil
}

// StubExplainer is a deterministic stand-in for the explanation backend.
// It summarizes the assembled evidence without altering any scores.
type StubExplainer struct {
	model string
}

// NewStubExplainer creates a stub explainer reporting the given model ID.
func NewStubExplainer(model string) *StubExplainer {
	return &StubExplainer{model: model}
}

func (s *StubExplainer) Model() string { return s.model }

func (s *StubExplainer) Explain(_ context.Context, ev *decision.ExplainEvidence) (*decision.Explanation, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Transaction on corridor %s scored %.1f (%s), recommended action %s.",
		ev.Corridor, ev.Score, ev.RiskLevel, ev.Action)
	if len(ev.Rules.HardBlocks) > 0 {
		fmt.Fprintf(&b, " Hard blocks: %s.", strings.Join(ev.Rules.HardBlocks, ", "))
	}
	if len(ev.Reasons) > 0 {
		fmt.Fprintf(&b, " Contributing reasons: %s.", strings.Join(ev.Reasons, ", "))
	}
	return &decision.Explanation{Explanation: b.String()}, nil
}
