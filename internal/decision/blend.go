package decision

// modelWeight is the model's contribution relative to its own [0,1] scale,
// additively layered on the rule score.
const modelWeight = 0.7

// maxFinalScore caps the blended score.
const maxFinalScore = 100.0

// Blend combines rule and model evaluations into one final score and one
// ordered reason list (rule reasons first, then model reasons, duplicates
// preserved).
//
// Any hard block is an absolute override: deterministic policy trumps
// probabilistic model output and the final score is pinned to 100.
func Blend(rules *RuleEvaluation, model *ModelEvaluation) (float64, []string) {
	reasons := make([]string, 0, len(rules.RuleReasons)+len(model.ModelReasons))
	reasons = append(reasons, rules.RuleReasons...)
	reasons = append(reasons, model.ModelReasons...)

	if len(rules.HardBlocks) > 0 {
		return maxFinalScore, reasons
	}

	score := rules.RuleScore + model.ModelScore*100.0*modelWeight
	if score > maxFinalScore {
		score = maxFinalScore
	}
	return score, reasons
}
