package decision

// Reason codes emitted by the deterministic rule set.
const (
	ReasonSanctionsMatch = "SANCTIONS_MATCH"
	ReasonVelocitySpike  = "VELOCITY_SPIKE_24H"
	ReasonCorridorRisk   = "CORRIDOR_RISK"

	HardBlockSanctions = "SANCTIONS_MATCH_CONFIDENCE>=0.9"
)

// Rule thresholds and score contributions.
const (
	sanctionsBlockConfidence = 0.9
	velocity24HLimit         = 10
	corridorRiskThreshold    = 0.7

	velocitySpikeScore = 15.0
	corridorRiskScore  = 10.0
	maxRuleScore       = 100.0
)

// Finding is the outcome of a single rule against a feature set.
type Finding struct {
	HardBlock string  // non-empty = terminal block signal
	Reason    string  // reason code to append
	Add       float64 // additive score contribution
	Pin       bool    // set the accumulated score to PinScore instead of adding
	PinScore  float64
}

// Rule is one deterministic policy check. Rules are evaluated independently
// and additively, in order; they are not mutually exclusive.
type Rule interface {
	Name() string
	Evaluate(f *FeatureSet) *Finding
}

// DefaultRules returns the policy rule set in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		&SanctionsRule{},
		&VelocityRule{},
		&CorridorRule{},
	}
}

// EvaluateRules applies the default rule set to a feature set.
// Pure function: same features, same evaluation.
func EvaluateRules(f *FeatureSet) RuleEvaluation {
	return EvaluateRuleSet(DefaultRules(), f)
}

// EvaluateRuleSet applies an ordered rule list to a feature set.
// A hard block does not stop evaluation: later rules still contribute their
// reason codes, only the blended score is overridden downstream.
func EvaluateRuleSet(rules []Rule, f *FeatureSet) RuleEvaluation {
	eval := RuleEvaluation{
		HardBlocks:  []string{},
		RuleReasons: []string{},
	}

	for _, rule := range rules {
		finding := rule.Evaluate(f)
		if finding == nil {
			continue
		}
		if finding.HardBlock != "" {
			eval.HardBlocks = append(eval.HardBlocks, finding.HardBlock)
		}
		if finding.Reason != "" {
			eval.RuleReasons = append(eval.RuleReasons, finding.Reason)
		}
		if finding.Pin {
			eval.RuleScore = finding.PinScore
		} else {
			eval.RuleScore += finding.Add
		}
	}

	if eval.RuleScore > maxRuleScore {
		eval.RuleScore = maxRuleScore
	}
	return eval
}

// SanctionsRule hard-blocks confirmed sanctions matches.
type SanctionsRule struct{}

func (r *SanctionsRule) Name() string { return "sanctions" }

func (r *SanctionsRule) Evaluate(f *FeatureSet) *Finding {
	if !f.SanctionsMatch || f.SanctionsConfidence < sanctionsBlockConfidence {
		return nil
	}
	return &Finding{
		HardBlock: HardBlockSanctions,
		Reason:    ReasonSanctionsMatch,
		Pin:       true,
		PinScore:  maxRuleScore,
	}
}

// VelocityRule flags senders with an elevated 24h transaction count.
type VelocityRule struct{}

func (r *VelocityRule) Name() string { return "velocity" }

func (r *VelocityRule) Evaluate(f *FeatureSet) *Finding {
	if f.Velocity24H <= velocity24HLimit {
		return nil
	}
	return &Finding{Reason: ReasonVelocitySpike, Add: velocitySpikeScore}
}

// CorridorRule flags transactions on high-risk corridors.
type CorridorRule struct{}

func (r *CorridorRule) Name() string { return "corridor" }

func (r *CorridorRule) Evaluate(f *FeatureSet) *Finding {
	if f.CorridorRiskScore < corridorRiskThreshold {
		return nil
	}
	return &Finding{Reason: ReasonCorridorRisk, Add: corridorRiskScore}
}
