// Package feature aggregates raw screening signals into one normalized
// FeatureSet per transaction.
//
// Five independent lookup capabilities are consulted: sanctions, PEP,
// adverse media, device reputation, and KYC. Each is a swappable provider
// integration behind a small interface. A failure of any lookup fails the
// whole feature build: silently defaulting a screening signal to zero risk
// is a security-relevant event, so the builder fails closed instead.
package feature

import (
	"context"
	"log/slog"
	"time"

	"github.com/jlowen/riskgate/internal/decision"
	"github.com/jlowen/riskgate/internal/metrics"
	"github.com/jlowen/riskgate/internal/retry"
)

// matchThreshold converts a provider match value in [0,1] to a boolean flag.
const matchThreshold = 0.5

// Provenance source identifiers recorded per signal.
const (
	SourceSanctions = "PROVIDER_SANCTIONS"
	SourcePEP       = "PROVIDER_PEP"
	SourceAdverse   = "PROVIDER_ADVERSE"
	SourceDevice    = "PROVIDER_DEVICE"
	SourceKYC       = "PROVIDER_KYC"
)

// ScreenResult is a screening lookup outcome. Match and Confidence are
// provider-reported values in [0,1].
type ScreenResult struct {
	Match      float64
	Confidence float64
}

// Screener is a list-screening capability (sanctions, PEP, adverse media)
// keyed by an entity identifier.
type Screener interface {
	Screen(ctx context.Context, entityID string) (*ScreenResult, error)
}

// DeviceReputation looks up a device intelligence score in [0,1].
type DeviceReputation interface {
	Score(ctx context.Context, deviceID string) (float64, error)
}

// KYCScores carries per-party KYC risk sub-scores in [0,1].
type KYCScores struct {
	Sender    float64
	Recipient float64
}

// KYCRisk scores both parties of a transaction.
type KYCRisk interface {
	Score(ctx context.Context, senderID, recipientID string) (*KYCScores, error)
}

// History is a historical-lookback data source for velocity and chargeback
// counters. No real source is wired by default; see ZeroHistory.
type History interface {
	Velocity(ctx context.Context, senderID string) (last24h, last7d int, err error)
	Chargebacks90D(ctx context.Context, senderID string) (int, error)
}

// Builder assembles a FeatureSet from the five lookup capabilities.
type Builder struct {
	sanctions Screener
	pep       Screener
	adverse   Screener
	device    DeviceReputation
	kyc       KYCRisk
	history   History

	logger        *slog.Logger
	retryAttempts int
	retryDelay    time.Duration
}

// NewBuilder creates a feature builder over the given providers.
func NewBuilder(sanctions, pep, adverse Screener, device DeviceReputation, kyc KYCRisk) *Builder {
	return &Builder{
		sanctions:     sanctions,
		pep:           pep,
		adverse:       adverse,
		device:        device,
		kyc:           kyc,
		history:       ZeroHistory{},
		logger:        slog.Default(),
		retryAttempts: 1,
	}
}

// WithHistory wires a real historical-lookback source for velocity and
// chargeback counters. Without it they stay zero.
func (b *Builder) WithHistory(h History) *Builder {
	b.history = h
	return b
}

// WithRetry sets bounded retry for provider calls.
func (b *Builder) WithRetry(attempts int, baseDelay time.Duration) *Builder {
	b.retryAttempts = attempts
	b.retryDelay = baseDelay
	return b
}

// WithLogger sets the builder's logger.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build derives the feature set for one transaction. Any provider failure
// aborts the build with a CapabilityError: features are never silently
// defaulted to benign values.
func (b *Builder) Build(ctx context.Context, txn *decision.TransactionContext) (*decision.FeatureSet, error) {
	sanctions, err := b.screen(ctx, decision.CapabilitySanctions, b.sanctions, txn.SenderID)
	if err != nil {
		return nil, err
	}
	pep, err := b.screen(ctx, decision.CapabilityPEP, b.pep, txn.SenderID)
	if err != nil {
		return nil, err
	}
	adverse, err := b.screen(ctx, decision.CapabilityAdverse, b.adverse, txn.SenderID)
	if err != nil {
		return nil, err
	}

	deviceID := txn.DeviceID
	if deviceID == "" {
		deviceID = "unknown"
	}
	var deviceScore float64
	if err := b.call(ctx, decision.CapabilityDevice, func() error {
		var callErr error
		deviceScore, callErr = b.device.Score(ctx, deviceID)
		return callErr
	}); err != nil {
		return nil, err
	}

	var kyc *KYCScores
	if err := b.call(ctx, decision.CapabilityKYC, func() error {
		var callErr error
		kyc, callErr = b.kyc.Score(ctx, txn.SenderID, txn.RecipientID)
		return callErr
	}); err != nil {
		return nil, err
	}

	velocity24h, velocity7d, err := b.history.Velocity(ctx, txn.SenderID)
	if err != nil {
		return nil, decision.NewCapabilityError("history", err)
	}
	chargebacks, err := b.history.Chargebacks90D(ctx, txn.SenderID)
	if err != nil {
		return nil, decision.NewCapabilityError("history", err)
	}

	return &decision.FeatureSet{
		SanctionsMatch:      sanctions.Match > matchThreshold,
		SanctionsConfidence: sanctions.Confidence,
		PEPMatch:            pep.Match > matchThreshold,
		AdverseMediaMatch:   adverse.Match > matchThreshold,
		Velocity7D:          velocity7d,
		Velocity24H:         velocity24h,
		// Corridor risk requires a corridor risk table; zero until wired.
		CorridorRiskScore:        0,
		DeviceReputationScore:    deviceScore,
		KYCRiskScore:             max(kyc.Sender, kyc.Recipient), // worst-case policy: one risky party taints the transaction
		HistoricalChargebacks90D: chargebacks,
		Provenance: map[string]string{
			"sanctions": SourceSanctions,
			"pep":       SourcePEP,
			"adverse":   SourceAdverse,
			"device":    SourceDevice,
			"kyc":       SourceKYC,
		},
	}, nil
}

func (b *Builder) screen(ctx context.Context, capability string, s Screener, entityID string) (*ScreenResult, error) {
	var result *ScreenResult
	if err := b.call(ctx, capability, func() error {
		var callErr error
		result, callErr = s.Screen(ctx, entityID)
		return callErr
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// call runs one provider lookup with bounded retry and wraps failures.
func (b *Builder) call(ctx context.Context, capability string, fn func() error) error {
	err := retry.Do(ctx, b.retryAttempts, b.retryDelay, fn)
	if err != nil {
		metrics.CapabilityFailuresTotal.WithLabelValues(capability).Inc()
		b.logger.Error("screening lookup failed",
			"capability", capability, "error", err)
		return decision.NewCapabilityError(capability, err)
	}
	return nil
}
