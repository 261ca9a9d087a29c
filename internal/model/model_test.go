package model

import (
	"context"
	"testing"
)

func TestStubScorer(t *testing.T) {
	s := NewStubScorer("model_v3")
	if s.Version() != "model_v3" {
		t.Errorf("Version = %q, want model_v3", s.Version())
	}

	score, err := s.Score(context.Background(), map[string]float64{"velocity_24h": 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0 {
		t.Errorf("score = %v, want 0", score)
	}
}

func TestStubScorer_DefaultVersion(t *testing.T) {
	if NewStubScorer("").Version() != DefaultVersion {
		t.Error("empty version should fall back to the placeholder")
	}
}
