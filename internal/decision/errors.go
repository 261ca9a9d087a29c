package decision

import (
	"errors"
	"fmt"
)

// Capability names used in errors and metrics labels.
const (
	CapabilitySanctions = "sanctions_screen"
	CapabilityPEP       = "pep_screen"
	CapabilityAdverse   = "adverse_media_screen"
	CapabilityDevice    = "device_reputation"
	CapabilityKYC       = "kyc_risk"
	CapabilityModel     = "ml_fraud_score"
	CapabilityFraudEval = "fraud_evaluator"
	CapabilityAMLEval   = "aml_evaluator"
	CapabilityExplainer = "explainer"
)

// CapabilityError marks a failure of an external capability (screening
// lookup, model inference, narrative evaluation). The pipeline fails closed
// on these: a transaction is never scored against benign default values.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %s: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// NewCapabilityError wraps err with the capability that produced it.
func NewCapabilityError(capability string, err error) *CapabilityError {
	return &CapabilityError{Capability: capability, Err: err}
}

// IsCapabilityError reports whether err is (or wraps) a CapabilityError.
func IsCapabilityError(err error) bool {
	var ce *CapabilityError
	return errors.As(err, &ce)
}
