// Package model wraps the external fraud/AML model inference capability.
package model

import "context"

// DefaultVersion is the placeholder model identifier used until a real
// inference service is wired.
const DefaultVersion = "MODEL_VERSION_PLACEHOLDER"

// StubScorer is a deterministic stand-in for the model inference service.
// It scores every feature record as zero risk. Replace with a client for
// your inference endpoint; the pipeline fails closed if scoring errors.
type StubScorer struct {
	version string
}

// NewStubScorer creates a stub scorer reporting the given model version.
// An empty version falls back to DefaultVersion.
func NewStubScorer(version string) *StubScorer {
	if version == "" {
		version = DefaultVersion
	}
	return &StubScorer{version: version}
}

func (s *StubScorer) Score(_ context.Context, _ map[string]float64) (float64, error) {
	return 0, nil
}

func (s *StubScorer) Version() string { return s.version }
