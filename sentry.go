// Package sentry ties the heuristic, semantic, context, and decision
// layers into the public scanning engine: heuristic score first, then a
// conditional deeper semantic pass, then context adjustment and a final
// threshold cascade, following the state machine
// (INIT -> HEURISTIC -> {SEMANTIC|skip} -> CONTEXT -> DECISION -> EMIT).
package sentry

import (
	"context"
	"time"

	"github.com/TryMightyAI/sentry/internal/alert"
	sentctx "github.com/TryMightyAI/sentry/internal/context"
	"github.com/TryMightyAI/sentry/internal/config"
	"github.com/TryMightyAI/sentry/internal/decision"
	"github.com/TryMightyAI/sentry/internal/eventlog"
	"github.com/TryMightyAI/sentry/internal/heuristic"
	"github.com/TryMightyAI/sentry/internal/patterns"
	"github.com/TryMightyAI/sentry/internal/quarantine"
	"github.com/TryMightyAI/sentry/internal/semantic"
	"github.com/TryMightyAI/sentry/internal/sentrytype"
)

// Engine is the top-level scanning engine.
// A single instance owns all shared mutable state; construct one per
// process and reuse it across scans.
type Engine struct {
	cfg *config.Config

	registry   *patterns.Registry
	classifier *semantic.Classifier
	ctxEval    *sentctx.Evaluator
	resolver   *decision.Resolver
	logger     *eventlog.Logger
	quarantine *quarantine.Store // optional, nil unless cfg.QuarantineDSN is set
}

// New constructs an Engine, loading the pattern catalog from
// cfg.PatternsDir. Returns a *patterns.LoadError when the catalog fails to
// load, or the quarantine store's error when cfg.QuarantineDSN is set and
// opening the store fails.
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	reg, err := patterns.Load(cfg.PatternsDir)
	if err != nil {
		return nil, err
	}

	mode := semantic.ModeBestEffort
	if !cfg.SemanticEnabled {
		mode = semantic.ModeDisabled
	} else if cfg.RequireLLM {
		mode = semantic.ModeRequired
	}

	classifier := semantic.New(semantic.Config{
		Mode:     mode,
		Provider: cfg.LLMProvider,
		Endpoint: cfg.LLMEndpoint,
		Model:    cfg.LLMModel,
		APIKey:   cfg.APIKey,
	})

	ctxEval := sentctx.New(sentctx.Options{
		MaxHistorySize: cfg.MaxHistorySize,
		RateLimit:      cfg.RateLimit,
	})

	if cfg.RedisAddr != "" {
		ctxEval.WithRedisStore(sentctx.NewRedisStore(cfg.RedisAddr, 0))
	}

	resolver := decision.New(cfg.StrictMode)
	resolver.SetThresholds(cfg.EffectiveThresholds())
	for _, s := range cfg.AllowList {
		resolver.Allow(s)
	}
	for _, s := range cfg.BlockList {
		resolver.Block(s)
	}

	var qstore *quarantine.Store
	if cfg.QuarantineDSN != "" {
		q, err := quarantine.Open(context.Background(), cfg.QuarantineDSN)
		if err != nil {
			return nil, err
		}
		qstore = q
	}

	return &Engine{
		cfg:        cfg,
		registry:   reg,
		classifier: classifier,
		ctxEval:    ctxEval,
		resolver:   resolver,
		logger:     eventlog.New(nil),
		quarantine: qstore,
	}, nil
}

// ScanResult is the outcome of a full pipeline run.
type ScanResult struct {
	Decision  sentrytype.DecisionResult
	Heuristic sentrytype.HeuristicResult
	Semantic  *sentrytype.SemanticResult
	Context   sentrytype.ContextResult
}

// Scan runs the full 4-layer pipeline against one message. The returned
// error is non-nil only when the semantic layer was required and no LLM
// provider could be reached (semantic.ErrNoLLMProvider); the pipeline
// still runs to completion and the returned ScanResult carries a full
// decision even in that case, so the caller decides whether to act on
// the error or fall back to the decision as computed.
func (e *Engine) Scan(ctx context.Context, msg sentrytype.Message) (ScanResult, error) {
	msgCtx := msg.Ctx
	if msgCtx.Source == "" {
		msgCtx.Source = sentrytype.SourcePublic
	}

	// HEURISTIC
	hres := heuristic.Scan(e.registry, msg.Text, heuristic.Options{
		NormalizeUnicode: e.cfg.NormalizeUnicode,
		DecodePayloads:   e.cfg.DecodePayloads,
	})

	// SEMANTIC (conditional)
	var sres *sentrytype.SemanticResult
	var semErr error
	if e.cfg.SemanticEnabled && hres.RiskScore >= e.cfg.SemanticThreshold {
		r, err := e.classifier.Classify(ctx, msg.Text, hres.Flags)
		sres = &r
		semErr = err
	}

	// CONTEXT (always)
	intent := sentrytype.IntentBenign
	confidence := 1.0
	if sres != nil {
		intent = sres.Intent
		confidence = sres.Confidence
	}
	descriptions := make([]string, 0, len(hres.Matches))
	for _, m := range hres.Matches {
		descriptions = append(descriptions, m.Description)
	}
	cres := e.ctxEval.Evaluate(sentctx.Input{
		Ctx:           msgCtx,
		Intent:        intent,
		Confidence:    confidence,
		HeuristicRisk: hres.RiskScore,
		HasFlags:      len(hres.Flags) > 0,
		Descriptions:  descriptions,
		ContentHash:   sentctx.Hash32(msg.Text),
		Now:           time.Now(),
	})

	// DECISION (always)
	dres := e.resolver.Resolve(decision.Input{
		Source:    msgCtx.Source,
		SenderID:  msgCtx.SenderID,
		Heuristic: hres,
		Semantic:  sres,
		Context:   cres,
	})

	// EMIT
	e.logger.LogDecision(dres, msgCtx, msg.Text)
	if e.quarantine != nil && dres.Action == sentrytype.ActionQuarantine {
		_ = e.quarantine.Put(ctx, dres, msgCtx, msg.Text)
	}

	return ScanResult{
		Decision:  dres,
		Heuristic: hres,
		Semantic:  sres,
		Context:   cres,
	}, semErr
}

// QuickCheck runs only the fast heuristic pre-filter, skipping
// semantic/context/decision entirely.
func (e *Engine) QuickCheck(text string) heuristic.QuickResult {
	return heuristic.QuickCheck(e.registry, text)
}

// ScanWithAlert runs Scan and additionally renders human-readable alert
// text when the action is warn or above. The error return mirrors Scan's.
func (e *Engine) ScanWithAlert(ctx context.Context, msg sentrytype.Message) (ScanResult, string, error) {
	result, err := e.Scan(ctx, msg)
	if result.Decision.Action == sentrytype.ActionAllow {
		return result, "", err
	}
	return result, alert.Render(result.Decision, msg.Ctx.SenderID), err
}

// TrustSender marks a sender as trusted, halving its future adjusted
// risk.
func (e *Engine) TrustSender(senderID string) {
	e.ctxEval.TrustSender(senderID)
	e.logger.LogAdmin("trust_sender", senderID)
}

// BlockSender marks a sender as blocked, forcing future scans to block.
func (e *Engine) BlockSender(senderID string) {
	e.ctxEval.BlockSender(senderID)
	e.resolver.Block(senderID)
	e.logger.LogAdmin("block_sender", senderID)
}

// ConfigureOptions is the mutable subset of configuration exposed via
// Configure.
type ConfigureOptions struct {
	Thresholds     *sentrytype.Thresholds
	StrictMode     *bool
	SemanticEnabled *bool
}

// Configure applies a partial runtime reconfiguration.
func (e *Engine) Configure(opts ConfigureOptions) {
	if opts.StrictMode != nil {
		e.cfg.StrictMode = *opts.StrictMode
		e.resolver.SetStrictMode(*opts.StrictMode)
	}
	if opts.Thresholds != nil {
		e.cfg.Thresholds = *opts.Thresholds
		e.resolver.SetThresholds(*opts.Thresholds)
	}
	if opts.SemanticEnabled != nil {
		e.cfg.SemanticEnabled = *opts.SemanticEnabled
	}
	e.logger.LogAdmin("configure", "runtime configuration updated")
}

// Stats summarizes the engine's static configuration.
type Stats struct {
	PatternCount int
	Categories   []string
	Thresholds   sentrytype.Thresholds
	StrictMode   bool
}

// GetStats reports engine statistics.
func (e *Engine) GetStats() Stats {
	return Stats{
		PatternCount: e.registry.TotalPatterns(),
		Categories:   e.registry.CategoryNames(),
		Thresholds:   e.cfg.EffectiveThresholds(),
		StrictMode:   e.cfg.StrictMode,
	}
}

// Close releases any external resources held by the engine (quarantine
// store connection pool).
func (e *Engine) Close() {
	if e.quarantine != nil {
		e.quarantine.Close()
	}
}
