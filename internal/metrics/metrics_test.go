package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// gatherFamily returns the metric family by name, or nil.
func gatherFamily(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func counterValue(mf *dto.MetricFamily, label, value string) float64 {
	if mf == nil {
		return 0
	}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label && lp.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestDecisionsTotal_Registered(t *testing.T) {
	before := counterValue(gatherFamily(t, "riskgate_decisions_total"), "action", "ALLOW")
	DecisionsTotal.WithLabelValues("ALLOW").Inc()
	after := counterValue(gatherFamily(t, "riskgate_decisions_total"), "action", "ALLOW")

	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestBatchLinesTotal_Registered(t *testing.T) {
	before := counterValue(gatherFamily(t, "riskgate_batch_lines_total"), "result", "scored")
	BatchLinesTotal.WithLabelValues("scored").Inc()
	after := counterValue(gatherFamily(t, "riskgate_batch_lines_total"), "result", "scored")

	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestStageTimer(t *testing.T) {
	timer := StageTimer("features")
	timer.ObserveDuration()

	mf := gatherFamily(t, "riskgate_pipeline_stage_duration_seconds")
	if mf == nil {
		t.Fatal("stage duration histogram not registered")
	}
}

func TestStatusBucket(t *testing.T) {
	tests := map[int]string{
		100: "1xx",
		200: "2xx",
		301: "3xx",
		404: "4xx",
		422: "4xx",
		500: "5xx",
		502: "5xx",
	}
	for status, want := range tests {
		if got := statusBucket(status); got != want {
			t.Errorf("statusBucket(%d) = %q, want %q", status, got, want)
		}
	}
}
