// Package decision implements the decision resolver: it takes the
// heuristic, semantic, and context layer outputs and derives a single
// final action via an allow/block-list check, a critical-intent
// shortcut, and a threshold cascade.
package decision

import (
	"sort"
	"sync"
	"time"

	"github.com/TryMightyAI/sentry/internal/sentrytype"
)

// Resolver holds the allow/block lists and threshold configuration. Safe
// for concurrent use.
type Resolver struct {
	mu         sync.RWMutex
	thresholds sentrytype.Thresholds
	strictMode bool
	allowList  map[string]bool
	blockList  map[string]bool
}

// New constructs a Resolver with the strict thresholds when strictMode is
// set and the default thresholds otherwise.
func New(strictMode bool) *Resolver {
	r := &Resolver{
		allowList: make(map[string]bool),
		blockList: make(map[string]bool),
	}
	r.strictMode = strictMode
	if strictMode {
		r.thresholds = sentrytype.StrictThresholds()
	} else {
		r.thresholds = sentrytype.DefaultThresholds()
	}
	return r
}

// SetThresholds overrides the active threshold table.
func (r *Resolver) SetThresholds(t sentrytype.Thresholds) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thresholds = t
}

// SetStrictMode toggles strict mode, resetting thresholds to the mode's
// default table unless an explicit SetThresholds call overrides them
// afterward.
func (r *Resolver) SetStrictMode(strict bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strictMode = strict
	if strict {
		r.thresholds = sentrytype.StrictThresholds()
	} else {
		r.thresholds = sentrytype.DefaultThresholds()
	}
}

// Allow adds a sender ID to the allow list. Allow and block lists are
// mutually exclusive per sender ID: adding to one removes it from the
// other.
func (r *Resolver) Allow(term string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blockList, term)
	r.allowList[term] = true
}

// Block adds a sender ID to the block list.
func (r *Resolver) Block(term string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.allowList, term)
	r.blockList[term] = true
}

// intentPriority is the fallback chain used when the semantic result is
// absent, benign, or outside the taxonomy: the highest-priority matching
// heuristic flag determines the final intent.
var intentPriority = []struct {
	flag   string
	intent sentrytype.Intent
}{
	{"command_injection", sentrytype.IntentCommandInjection},
	{"credential_theft", sentrytype.IntentCredentialTheft},
	{"data_exfiltration", sentrytype.IntentDataExfiltration},
	{"instruction_override", sentrytype.IntentInstructionOverride},
	{"prompt_leak", sentrytype.IntentPromptLeak},
	{"impersonation", sentrytype.IntentImpersonation},
	{"discovery", sentrytype.IntentDiscovery},
	{"encoding", sentrytype.IntentEncoding},
}

// Input bundles the layer outputs the resolver needs.
type Input struct {
	Source    sentrytype.Source
	SenderID  string
	Heuristic sentrytype.HeuristicResult
	Semantic  *sentrytype.SemanticResult // nil if semantic layer was skipped
	Context   sentrytype.ContextResult
}

// Resolve derives the final DecisionResult.
func (r *Resolver) Resolve(in Input) sentrytype.DecisionResult {
	start := time.Now()

	r.mu.RLock()
	thresholds := r.thresholds
	strict := r.strictMode
	allowed := r.allowList[in.SenderID]
	blocked := r.blockList[in.SenderID]
	r.mu.RUnlock()

	flags := append([]string(nil), in.Heuristic.Flags...)
	sort.Strings(flags)

	// Step 1: explicit allow/block list priority, checked before anything
	// derived from content.
	if blocked {
		return sentrytype.DecisionResult{
			Action:     sentrytype.ActionBlock,
			RiskScore:  1.0,
			Intent:     finalIntent(in, flags),
			Reason:     "sender is on the block list",
			Thresholds: thresholds,
			StrictMode: strict,
			Flags:      flags,
			Matches:    in.Heuristic.Matches,
			Elapsed:    time.Since(start),
		}
	}
	if allowed {
		return sentrytype.DecisionResult{
			Action:     sentrytype.ActionAllow,
			RiskScore:  in.Context.AdjustedRisk,
			Intent:     finalIntent(in, flags),
			Reason:     "sender is on the allow list",
			Thresholds: thresholds,
			StrictMode: strict,
			Flags:      flags,
			Matches:    in.Heuristic.Matches,
			Elapsed:    time.Since(start),
		}
	}

	intent := finalIntent(in, flags)
	risk := in.Context.AdjustedRisk

	var redFlags []string
	var confidence float64
	if in.Semantic != nil {
		redFlags = in.Semantic.RedFlags
		confidence = in.Semantic.Confidence
	}

	// Step 2: critical-intent shortcut — these intents always resolve to
	// block once the semantic classifier is confident enough, regardless
	// of threshold placement.
	if sentrytype.IsCritical(intent) && in.Semantic != nil && in.Semantic.Confidence > 0.7 {
		return sentrytype.DecisionResult{
			Action:     sentrytype.ActionBlock,
			RiskScore:  risk,
			Intent:     intent,
			Reason:     "critical intent " + string(intent) + " with high-confidence semantic classification",
			Thresholds: thresholds,
			StrictMode: strict,
			Confidence: confidence,
			Flags:      flags,
			Matches:    in.Heuristic.Matches,
			RedFlags:   redFlags,
			Elapsed:    time.Since(start),
		}
	}

	// Step 3: threshold cascade, highest action first.
	action := sentrytype.ActionAllow
	reason := "risk below warn threshold"
	switch {
	case risk >= thresholds.Quarantine:
		action = sentrytype.ActionQuarantine
		reason = "risk at or above quarantine threshold"
	case risk >= thresholds.Block:
		action = sentrytype.ActionBlock
		reason = "risk at or above block threshold"
	case risk >= thresholds.Warn:
		action = sentrytype.ActionWarn
		reason = "risk at or above warn threshold"
	}

	if in.Context.RateLimitViolation {
		reason += "; rate limit exceeded"
	}
	if in.Context.PatternRepetition {
		reason += "; matched pattern seen across multiple senders recently"
	}

	return sentrytype.DecisionResult{
		Action:     action,
		RiskScore:  risk,
		Intent:     intent,
		Reason:     reason,
		Thresholds: thresholds,
		StrictMode: strict,
		Confidence: confidence,
		Flags:      flags,
		Matches:    in.Heuristic.Matches,
		RedFlags:   redFlags,
		Elapsed:    time.Since(start),
	}
}

// finalIntent derives the resolved intent: semantic result wins when
// present, in taxonomy, and not benign, else the highest-priority matching
// heuristic flag, else benign. A benign semantic classification must not
// mask a heuristic-derived intent.
func finalIntent(in Input, flags []string) sentrytype.Intent {
	if in.Semantic != nil && in.Semantic.Intent != sentrytype.IntentBenign && sentrytype.InTaxonomy(in.Semantic.Intent) {
		return in.Semantic.Intent
	}

	flagSet := make(map[string]bool, len(flags))
	for _, f := range flags {
		flagSet[f] = true
	}
	for _, p := range intentPriority {
		if flagSet[p.flag] {
			return p.intent
		}
	}
	return sentrytype.IntentBenign
}
