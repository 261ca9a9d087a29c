package decision

// Model reason bands. Absence of a code below the medium band is itself
// meaningful: no elevated model risk.
const (
	ReasonModelHighRisk   = "MODEL_HIGH_RISK"
	ReasonModelMediumRisk = "MODEL_MEDIUM_RISK"

	modelHighBand   = 0.8
	modelMediumBand = 0.5
)

// EvaluateModel wraps a raw model score in [0,1] into a structured
// evaluation with severity-banded reason codes.
func EvaluateModel(score float64, version string) ModelEvaluation {
	reasons := []string{}
	switch {
	case score >= modelHighBand:
		reasons = append(reasons, ReasonModelHighRisk)
	case score >= modelMediumBand:
		reasons = append(reasons, ReasonModelMediumRisk)
	}
	return ModelEvaluation{
		ModelScore:   score,
		ModelReasons: reasons,
		ModelVersion: version,
	}
}
