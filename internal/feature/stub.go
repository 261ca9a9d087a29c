package feature

import "context"

// Deterministic zero-value providers. Each is a placeholder for a real
// provider integration (sanctions list vendor, device intelligence service,
// KYC platform). They return no-match / zero-risk results unconditionally,
// which is only safe because the builder fails closed on real provider
// errors. A wired provider replaces the stub wholesale.

// ZeroScreener reports no match with zero confidence for every entity.
type ZeroScreener struct{}

func (ZeroScreener) Screen(_ context.Context, _ string) (*ScreenResult, error) {
	return &ScreenResult{Match: 0, Confidence: 0}, nil
}

// ZeroDeviceReputation reports a zero reputation score for every device.
type ZeroDeviceReputation struct{}

func (ZeroDeviceReputation) Score(_ context.Context, _ string) (float64, error) {
	return 0, nil
}

// ZeroKYCRisk reports zero KYC risk for both parties.
type ZeroKYCRisk struct{}

func (ZeroKYCRisk) Score(_ context.Context, _, _ string) (*KYCScores, error) {
	return &KYCScores{}, nil
}

// ZeroHistory is the default historical-lookback source. Velocity and
// chargeback counters are always zero until a real transaction history
// store is wired in.
type ZeroHistory struct{}

func (ZeroHistory) Velocity(_ context.Context, _ string) (int, int, error) {
	return 0, 0, nil
}

func (ZeroHistory) Chargebacks90D(_ context.Context, _ string) (int, error) {
	return 0, nil
}

// ZeroProviders returns a builder wired entirely to stub providers.
func ZeroProviders() *Builder {
	return NewBuilder(ZeroScreener{}, ZeroScreener{}, ZeroScreener{},
		ZeroDeviceReputation{}, ZeroKYCRisk{})
}
