package decision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jlowen/riskgate/internal/idgen"
	"github.com/jlowen/riskgate/internal/logging"
	"github.com/jlowen/riskgate/internal/metrics"
	"github.com/jlowen/riskgate/internal/retry"
	"github.com/jlowen/riskgate/internal/traces"
)

// recordTimeout bounds the asynchronous audit write.
const recordTimeout = 10 * time.Second

// Engine runs the per-transaction decision pipeline. The pipeline is
// strictly sequential per transaction; the engine itself holds no mutable
// per-transaction state and is safe for concurrent use across transactions.
type Engine struct {
	features  FeatureBuilder
	scorer    ModelScorer
	fraud     SignalEvaluator
	aml       SignalEvaluator
	explainer Explainer
	recorder  Recorder // optional, best-effort audit persistence
	versions  Versions
	logger    *slog.Logger

	timeout       time.Duration // per-capability call deadline, 0 = none
	retryAttempts int
	retryDelay    time.Duration
}

// Deps are the injected capabilities and configuration for an Engine.
// All external boundaries are explicit dependencies, never hidden globals.
type Deps struct {
	Features  FeatureBuilder
	Scorer    ModelScorer
	Fraud     SignalEvaluator
	AML       SignalEvaluator
	Explainer Explainer
	Recorder  Recorder
	Versions  Versions
	Logger    *slog.Logger

	CapabilityTimeout time.Duration
	RetryAttempts     int
	RetryBaseDelay    time.Duration
}

// NewEngine creates a decision engine from its dependencies.
func NewEngine(deps Deps) (*Engine, error) {
	if deps.Features == nil {
		return nil, fmt.Errorf("feature builder is required")
	}
	if deps.Scorer == nil {
		return nil, fmt.Errorf("model scorer is required")
	}
	if deps.Fraud == nil || deps.AML == nil {
		return nil, fmt.Errorf("fraud and AML evaluators are required")
	}
	if deps.Explainer == nil {
		return nil, fmt.Errorf("explainer is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attempts := deps.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &Engine{
		features:      deps.Features,
		scorer:        deps.Scorer,
		fraud:         deps.Fraud,
		aml:           deps.AML,
		explainer:     deps.Explainer,
		recorder:      deps.Recorder,
		versions:      deps.Versions,
		logger:        logger,
		timeout:       deps.CapabilityTimeout,
		retryAttempts: attempts,
		retryDelay:    deps.RetryBaseDelay,
	}, nil
}

// Score runs the full pipeline for one transaction and returns the audit
// envelope. Guardrail rejections and capability failures are terminal for
// the transaction and surface as typed errors, never as a default decision.
func (e *Engine) Score(ctx context.Context, txn *TransactionContext) (*DecisionPackage, error) {
	ctx, span := traces.StartSpan(ctx, "decision.score",
		traces.TransactionID(txn.TransactionID),
		traces.Corridor(txn.Corridor),
	)
	defer span.End()

	traceID := traces.SpanTraceID(ctx)
	if traceID == "" {
		traceID = idgen.WithPrefix("trace_")
	}
	ctx = logging.WithTraceID(ctx, traceID)
	ctx = logging.WithLogger(ctx, e.logger)
	log := logging.L(ctx).With("transaction_id", txn.TransactionID)

	features, err := e.buildFeatures(ctx, txn)
	if err != nil {
		// Fail closed: a missing screening signal is a security-relevant
		// event, not a zero-risk default.
		log.Error("feature build failed, failing closed", "error", err)
		return nil, err
	}

	ruleEval := EvaluateRules(features)

	modelScore, err := e.scoreModel(ctx, features)
	if err != nil {
		log.Error("model scoring failed", "error", err)
		return nil, err
	}
	modelEval := EvaluateModel(modelScore, e.scorer.Version())

	finalScore, blendedReasons := Blend(&ruleEval, &modelEval)

	evidence := &Evidence{
		Corridor:     txn.Corridor,
		Features:     features,
		RuleReasons:  ruleEval.RuleReasons,
		ModelReasons: modelEval.ModelReasons,
	}

	fraudSignal, err := e.evaluateSignal(ctx, e.fraud, evidence)
	if err != nil {
		log.Error("fraud signal evaluation failed", "error", err)
		return nil, err
	}
	amlSignal, err := e.evaluateSignal(ctx, e.aml, evidence)
	if err != nil {
		log.Error("aml signal evaluation failed", "error", err)
		return nil, err
	}

	// Combined order is load-bearing for audit: rule, model, fraud, AML.
	// Duplicates across sources are preserved.
	combined := make([]string, 0,
		len(blendedReasons)+len(fraudSignal.Reasons)+len(amlSignal.Reasons))
	combined = append(combined, blendedReasons...)
	for _, r := range fraudSignal.Reasons {
		combined = append(combined, r.Code)
	}
	for _, r := range amlSignal.Reasons {
		combined = append(combined, r.Code)
	}

	level := LevelFor(finalScore)
	action := ActionFor(finalScore, ruleEval.HardBlocks)
	span.SetAttributes(traces.RecommendedAction(string(action)))

	explanation, err := e.explain(ctx, &ExplainEvidence{
		Corridor:  txn.Corridor,
		Score:     finalScore,
		RiskLevel: level,
		Action:    action,
		Reasons:   combined,
		Features:  features,
		Rules:     &ruleEval,
		Model:     &modelEval,
	})
	if err != nil {
		log.Error("explanation failed", "error", err)
		return nil, err
	}

	output := DecisionOutput{
		TransactionID:     txn.TransactionID,
		RiskScore:         finalScore,
		RiskLevel:         level,
		RecommendedAction: action,
		Reasons:           wrapReasons(combined),
		HardBlocks:        ruleEval.HardBlocks,
		Explanation:       explanation.Explanation,
		ModelVersions: map[string]string{
			"rules":    e.versions.Rules,
			"ml_model": modelEval.ModelVersion,
			"llm":      e.explainer.Model(),
		},
		Audit: buildAudit(traceID, e.versions, time.Now()),
	}

	pkg := &DecisionPackage{
		Input:    *txn,
		Features: *features,
		Rules:    ruleEval,
		Model:    modelEval,
		Output:   output,
	}

	metrics.DecisionsTotal.WithLabelValues(string(action)).Inc()
	if len(ruleEval.HardBlocks) > 0 {
		metrics.HardBlocksTotal.Inc()
	}

	log.Info("decision assembled",
		"risk_score", finalScore,
		"risk_level", string(level),
		"action", string(action),
		"hard_blocks", len(ruleEval.HardBlocks),
		"reasons", len(combined),
	)

	// Persist asynchronously (best-effort audit trail). The write gets its
	// own bounded context so a hung store cannot leak the goroutine.
	if e.recorder != nil {
		go func() {
			recordCtx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			if err := e.recorder.Record(recordCtx, pkg); err != nil {
				e.logger.Warn("decision record failed",
					"transaction_id", pkg.Input.TransactionID, "error", err)
			}
		}()
	}

	return pkg, nil
}

func (e *Engine) buildFeatures(ctx context.Context, txn *TransactionContext) (*FeatureSet, error) {
	timer := metrics.StageTimer("features")
	defer timer.ObserveDuration()

	ctx, cancel := e.capabilityCtx(ctx)
	defer cancel()
	return e.features.Build(ctx, txn)
}

func (e *Engine) scoreModel(ctx context.Context, features *FeatureSet) (float64, error) {
	timer := metrics.StageTimer("model")
	defer timer.ObserveDuration()

	ctx, cancel := e.capabilityCtx(ctx)
	defer cancel()

	var score float64
	err := retry.Do(ctx, e.retryAttempts, e.retryDelay, func() error {
		var callErr error
		score, callErr = e.scorer.Score(ctx, features.Flat())
		return callErr
	})
	if err != nil {
		metrics.CapabilityFailuresTotal.WithLabelValues(CapabilityModel).Inc()
		return 0, NewCapabilityError(CapabilityModel, err)
	}
	if score < 0 || score > 1 {
		metrics.CapabilityFailuresTotal.WithLabelValues(CapabilityModel).Inc()
		return 0, NewCapabilityError(CapabilityModel,
			fmt.Errorf("model score %v outside [0,1]", score))
	}
	return score, nil
}

func (e *Engine) evaluateSignal(ctx context.Context, eval SignalEvaluator, ev *Evidence) (*RiskSignal, error) {
	timer := metrics.StageTimer("narrative")
	defer timer.ObserveDuration()

	ctx, cancel := e.capabilityCtx(ctx)
	defer cancel()
	return eval.Evaluate(ctx, ev)
}

func (e *Engine) explain(ctx context.Context, ev *ExplainEvidence) (*Explanation, error) {
	timer := metrics.StageTimer("explain")
	defer timer.ObserveDuration()

	ctx, cancel := e.capabilityCtx(ctx)
	defer cancel()
	return e.explainer.Explain(ctx, ev)
}

func (e *Engine) capabilityCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.timeout)
}
