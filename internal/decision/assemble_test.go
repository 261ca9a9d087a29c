package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelFor_ExactBandEdges(t *testing.T) {
	tests := []struct {
		score float64
		level RiskLevel
	}{
		{0, RiskLow},
		{29.999, RiskLow},
		{30.0, RiskMedium},
		{69.999, RiskMedium},
		{70.0, RiskHigh},
		{100, RiskHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelFor(tt.score), "score=%v", tt.score)
	}
}

func TestActionFor_HardBlockAlwaysBlocks(t *testing.T) {
	blocks := []string{HardBlockSanctions}
	for _, score := range []float64{0, 29, 50, 100} {
		assert.Equal(t, ActionBlock, ActionFor(score, blocks))
	}
}

func TestActionFor_ScoreBands(t *testing.T) {
	assert.Equal(t, ActionAllow, ActionFor(0, nil))
	assert.Equal(t, ActionAllow, ActionFor(29.999, nil))
	assert.Equal(t, ActionHold, ActionFor(30, nil))
	assert.Equal(t, ActionHold, ActionFor(69.999, nil))
	// HIGH band holds for review too: no score-based auto-block.
	assert.Equal(t, ActionHold, ActionFor(70, nil))
	assert.Equal(t, ActionHold, ActionFor(100, nil))
}

func TestBuildAudit(t *testing.T) {
	now := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	audit := buildAudit("trace_abc", Versions{
		Rules:    "ruleset_v1.0",
		Policy:   "policy_2026_02",
		Features: "feat_v1.0",
	}, now)

	assert.Equal(t, "trace_abc", audit["trace_id"])
	assert.Equal(t, "policy_2026_02", audit["policy_version"])
	assert.Equal(t, "feat_v1.0", audit["features_version"])
	assert.Equal(t, "2026-02-14T09:30:00Z", audit["timestamp"])
}

func TestWrapReasons(t *testing.T) {
	wrapped := wrapReasons([]string{"A", "B", "A"})

	assert.Len(t, wrapped, 3)
	assert.Equal(t, ReasonCode{Code: "A", Weight: ReasonWeight}, wrapped[0])
	assert.Equal(t, ReasonCode{Code: "B", Weight: ReasonWeight}, wrapped[1])
	assert.Equal(t, ReasonCode{Code: "A", Weight: ReasonWeight}, wrapped[2])
}
