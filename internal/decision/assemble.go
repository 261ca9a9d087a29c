package decision

import "time"

// Risk level band edges. Bands are half-open: [0,30) LOW, [30,70) MEDIUM,
// [70,100] HIGH.
const (
	mediumBand = 30.0
	highBand   = 70.0
)

// LevelFor derives the risk level band for a final score.
func LevelFor(score float64) RiskLevel {
	switch {
	case score >= highBand:
		return RiskHigh
	case score >= mediumBand:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ActionFor derives the recommended action. A hard block forces BLOCK
// regardless of score. Both the MEDIUM and HIGH bands map to
// HOLD_FOR_REVIEW: there is no score-based auto-block, only hard blocks
// block. TODO(policy): confirm whether scores >= 70 without a hard block
// should auto-block instead of holding for review.
func ActionFor(score float64, hardBlocks []string) Action {
	if len(hardBlocks) > 0 {
		return ActionBlock
	}
	if score >= mediumBand {
		return ActionHold
	}
	return ActionAllow
}

// buildAudit assembles the audit metadata stamped into every decision.
func buildAudit(traceID string, v Versions, now time.Time) map[string]string {
	return map[string]string{
		"trace_id":         traceID,
		"policy_version":   v.Policy,
		"features_version": v.Features,
		"timestamp":        auditTimestamp(now),
	}
}

// wrapReasons converts raw reason code strings into weighted ReasonCodes,
// preserving order and duplicates.
func wrapReasons(codes []string) []ReasonCode {
	out := make([]ReasonCode, 0, len(codes))
	for _, code := range codes {
		out = append(out, ReasonCode{Code: code, Weight: ReasonWeight})
	}
	return out
}
