// Package decision implements the transaction risk decision pipeline.
//
// A TransactionContext flows through feature aggregation, deterministic rule
// evaluation, model evaluation, score blending, narrative signal aggregation,
// and decision assembly. Every stage returns a new immutable record; no stage
// mutates a predecessor's output. Hard blocks short-circuit blending to the
// maximum score and force a BLOCK action.
package decision

import (
	"context"
	"time"
)

// RiskLevel buckets a final score into coarse bands for reviewers.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Action is the recommended disposition for a transaction.
type Action string

const (
	ActionAllow Action = "ALLOW"
	ActionHold  Action = "HOLD_FOR_REVIEW"
	ActionBlock Action = "BLOCK"
)

// TransactionContext carries everything the caller knows about a transaction.
// Immutable once created; produced by the caller.
type TransactionContext struct {
	TransactionID      string         `json:"transaction_id"`
	Corridor           string         `json:"corridor"` // e.g. "US-IN", "UK-IN"
	Amount             float64        `json:"amount"`
	Currency           string         `json:"currency"`
	SenderID           string         `json:"sender_id"`
	RecipientID        string         `json:"recipient_id"`
	SenderCountry      string         `json:"sender_country"`
	RecipientCountry   string         `json:"recipient_country"`
	SenderKYCStatus    string         `json:"sender_kyc_status"`
	RecipientKYCStatus string         `json:"recipient_kyc_status"`
	DeviceID           string         `json:"device_id,omitempty"`
	IPAddress          string         `json:"ip_address,omitempty"`
	PaymentRail        string         `json:"payment_rail,omitempty"`
	CreatedAt          string         `json:"created_at"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// FeatureSet is the normalized signal record derived once per transaction.
// Confidence/score fields are in [0,1]; velocity and chargeback counters are
// unbounded counts >= 0. The provenance map records which data source
// produced each signal, for audit traceability.
type FeatureSet struct {
	SanctionsMatch           bool              `json:"sanctions_match"`
	SanctionsConfidence      float64           `json:"sanctions_confidence"`
	PEPMatch                 bool              `json:"pep_match"`
	AdverseMediaMatch        bool              `json:"adverse_media_match"`
	Velocity7D               int               `json:"velocity_7d"`
	Velocity24H              int               `json:"velocity_24h"`
	CorridorRiskScore        float64           `json:"corridor_risk_score"`
	DeviceReputationScore    float64           `json:"device_reputation_score"`
	KYCRiskScore             float64           `json:"kyc_risk_score"`
	HistoricalChargebacks90D int               `json:"historical_chargebacks_90d"`
	Provenance               map[string]string `json:"provenance"`
}

// Flat returns the numeric feature view handed to the model capability.
// Booleans are encoded as 0/1.
func (f *FeatureSet) Flat() map[string]float64 {
	return map[string]float64{
		"sanctions_match":            boolToFloat(f.SanctionsMatch),
		"sanctions_confidence":       f.SanctionsConfidence,
		"pep_match":                  boolToFloat(f.PEPMatch),
		"adverse_media_match":        boolToFloat(f.AdverseMediaMatch),
		"velocity_7d":                float64(f.Velocity7D),
		"velocity_24h":               float64(f.Velocity24H),
		"corridor_risk_score":        f.CorridorRiskScore,
		"device_reputation_score":    f.DeviceReputationScore,
		"kyc_risk_score":             f.KYCRiskScore,
		"historical_chargebacks_90d": float64(f.HistoricalChargebacks90D),
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// RuleEvaluation is the outcome of the deterministic policy rules.
// Hard blocks and the additive score are independent outputs: a hard block
// does not suppress other rules' reason codes, it forces the blended score
// to 100 downstream.
type RuleEvaluation struct {
	HardBlocks  []string `json:"hard_blocks"`
	RuleScore   float64  `json:"rule_score"` // clamped to [0,100]
	RuleReasons []string `json:"rule_reasons"`
}

// ModelEvaluation wraps an external fraud score in [0,1] with severity-banded
// reason codes and the model version that produced it.
type ModelEvaluation struct {
	ModelScore   float64  `json:"model_score"`
	ModelReasons []string `json:"model_reasons"`
	ModelVersion string   `json:"model_version"`
}

// ReasonCode is a machine-readable tag explaining a contribution to risk.
// Weight is a fixed nominal value per code, not derived from evidence
// strength.
type ReasonCode struct {
	Code   string  `json:"code"`
	Weight float64 `json:"weight"`
}

// ReasonWeight is the nominal weight assigned to every reason code.
const ReasonWeight = 0.1

// RiskSignal is a narrative evaluator's output: structured reason codes plus
// free text. The evaluator does not assign the final score.
type RiskSignal struct {
	Reasons   []ReasonCode `json:"reasons"`
	Narrative string       `json:"narrative"`
}

// Explanation is the final compliance narrative. It never alters scores.
type Explanation struct {
	Explanation string `json:"explanation"`
}

// DecisionOutput is the externally consumed decision artifact.
// Immutable once built. Duplicate reason codes across rule/model/narrative
// sources are preserved; order is rule, model, fraud signal, AML signal.
type DecisionOutput struct {
	TransactionID     string            `json:"transaction_id"`
	RiskScore         float64           `json:"risk_score"`
	RiskLevel         RiskLevel         `json:"risk_level"`
	RecommendedAction Action            `json:"recommended_action"`
	Reasons           []ReasonCode      `json:"reasons"`
	HardBlocks        []string          `json:"hard_blocks"`
	Explanation       string            `json:"explanation"`
	ModelVersions     map[string]string `json:"model_versions"` // rules / ml_model / llm
	Audit             map[string]string `json:"audit"`
}

// DecisionPackage is the full envelope retained for audit and replay.
type DecisionPackage struct {
	Input    TransactionContext `json:"input"`
	Features FeatureSet         `json:"features"`
	Rules    RuleEvaluation     `json:"rules"`
	Model    ModelEvaluation    `json:"model"`
	Output   DecisionOutput     `json:"output"`
}

// Evidence is the structured bundle handed to a narrative evaluator.
type Evidence struct {
	Corridor     string      `json:"corridor"`
	Features     *FeatureSet `json:"features"`
	RuleReasons  []string    `json:"rule_reasons"`
	ModelReasons []string    `json:"model_reasons"`
}

// ExplainEvidence is the full bundle handed to the explanation capability.
type ExplainEvidence struct {
	Corridor  string           `json:"corridor"`
	Score     float64          `json:"score"`
	RiskLevel RiskLevel        `json:"risk_level"`
	Action    Action           `json:"action"`
	Reasons   []string         `json:"reasons"`
	Features  *FeatureSet      `json:"features"`
	Rules     *RuleEvaluation  `json:"rules"`
	Model     *ModelEvaluation `json:"model"`
}

// FeatureBuilder aggregates raw screening signals into a FeatureSet.
type FeatureBuilder interface {
	Build(ctx context.Context, txn *TransactionContext) (*FeatureSet, error)
}

// ModelScorer is the external model inference capability.
type ModelScorer interface {
	Score(ctx context.Context, features map[string]float64) (float64, error)
	Version() string
}

// SignalEvaluator is a narrative evaluation capability (fraud or AML).
type SignalEvaluator interface {
	Evaluate(ctx context.Context, ev *Evidence) (*RiskSignal, error)
	Model() string
}

// Explainer produces the final compliance narrative from assembled evidence.
type Explainer interface {
	Explain(ctx context.Context, ev *ExplainEvidence) (*Explanation, error)
	Model() string
}

// Recorder persists decision packages for audit. Writes are best-effort and
// must not block or fail the pipeline.
type Recorder interface {
	Record(ctx context.Context, pkg *DecisionPackage) error
}

// Versions identifies the policy artifacts stamped into audit metadata.
type Versions struct {
	Rules    string
	Policy   string
	Features string
}

// auditTimestamp formats a wall-clock timestamp for the audit map.
func auditTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
