// Package context implements the context-aware risk adjustment layer:
// sender history, source trust multipliers, rate limiting, and
// cross-sender pattern repetition, combined in a seven-step evaluation
// that produces a single adjusted risk score per message.
package context

import (
	"context"
	"sync"
	"time"

	"github.com/TryMightyAI/sentry/internal/sentrytype"
)

// senderState is the bookkeeping kept per sender ID.
type senderState struct {
	violations  int
	trusted     bool
	blocked     bool
	recentTimes []time.Time // ring of recent message timestamps, for rate limiting
}

// recentMessage is one entry in the global cross-sender history used for
// pattern-repetition detection.
type recentMessage struct {
	senderID     string
	descriptions []string
	at           time.Time
}

const globalHistorySize = 20

// Options configures an Evaluator.
type Options struct {
	MaxHistorySize int             // per-sender ring buffer size, default 50
	RateLimit      sentrytype.RateLimit
}

// Evaluator is the context layer. Safe for concurrent use.
type Evaluator struct {
	opts Options

	mu             sync.Mutex
	senders        map[string]*senderState
	recentMessages []recentMessage // global FIFO, capped at globalHistorySize, across all senders
	store          *RedisStore     // optional, mirrors sender flags/violations for multi-instance deployments
}

// New constructs an Evaluator, filling in defaults.
func New(opts Options) *Evaluator {
	if opts.MaxHistorySize <= 0 {
		opts.MaxHistorySize = 50
	}
	if opts.RateLimit.WindowMs <= 0 {
		opts.RateLimit.WindowMs = 60_000
	}
	if opts.RateLimit.Max <= 0 {
		opts.RateLimit.Max = 30
	}
	return &Evaluator{opts: opts, senders: make(map[string]*senderState)}
}

// WithRedisStore attaches an optional distributed store. Subsequent
// TrustSender/BlockSender calls mirror into it; unset by default, in
// which case the Evaluator is purely in-process.
func (e *Evaluator) WithRedisStore(store *RedisStore) *Evaluator {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = store
	return e
}

func (e *Evaluator) state(senderID string) *senderState {
	s, ok := e.senders[senderID]
	if !ok {
		s = &senderState{}
		e.senders[senderID] = s
	}
	return s
}

// Input bundles what Evaluate needs for one message.
type Input struct {
	Ctx sentrytype.ScanContext

	// Intent is the resolved intent (semantic if available, else
	// heuristic-derived) and Confidence is the semantic classifier's
	// confidence in it, 1.0 when no semantic result was produced.
	Intent     sentrytype.Intent
	Confidence float64

	HeuristicRisk float64
	// HasFlags reports whether the current message's heuristic result
	// matched any category. Sender-violation history must never raise
	// risk on its own for a message that is otherwise clean.
	HasFlags bool
	// Descriptions lists the matched pattern descriptions for the
	// current message, used for cross-sender repetition detection.
	Descriptions []string

	// ContentHash is the message's Hash32. Evaluate does not read it;
	// repetition detection uses Descriptions.
	ContentHash uint32
	Now         time.Time
}

// Evaluate runs the context layer's 7-step algorithm for one
// message and records the observation into sender and global history.
func (e *Evaluator) Evaluate(in Input) sentrytype.ContextResult {
	start := in.Now

	source := sentrytype.NormalizeSource(string(in.Ctx.Source))
	trust := sentrytype.SourceTrust(source)
	multiplier := sentrytype.SourceMultiplier(source)

	// Step 1: base risk from intent taxonomy scaled by semantic
	// confidence, falling back to the raw heuristic risk score for
	// out-of-taxonomy / unclassified intents.
	baseRisk := in.HeuristicRisk
	if sentrytype.InTaxonomy(in.Intent) {
		baseRisk = sentrytype.IntentRisk(in.Intent) * in.Confidence
		if in.HeuristicRisk > baseRisk {
			baseRisk = in.HeuristicRisk
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state(in.Ctx.SenderID)

	// Step 2: source trust multiplier.
	adjusted := baseRisk * multiplier

	// Step 3: sender violation risk — prior flagged messages raise risk
	// for this sender, but only when the current message itself matched
	// something; a clean current message never raises risk from history
	// alone.
	senderRisk := 0.0
	if in.HasFlags && st.violations > 2 {
		senderRisk = min(0.7, 0.2+0.05*float64(st.violations))
		adjusted = max(adjusted, senderRisk)
	}
	if st.trusted {
		adjusted *= 0.5
	}
	if st.blocked {
		adjusted = 1.0
	}

	// Step 4: rate limit check over the configured window.
	rateLimitViolation := e.checkRateLimit(st, in.Now)

	if rateLimitViolation {
		adjusted = sentrytype.Clamp01(adjusted + 0.2)
	}

	// Step 5: cross-sender repeat-pattern detection — does a pattern
	// description matched on this message also appear in the last
	// globalHistorySize messages from at least 3 distinct other senders.
	patternRepetition := e.patternRepeatsAcrossSenders(in.Ctx.SenderID, in.Descriptions)
	if patternRepetition {
		adjusted = sentrytype.Clamp01(adjusted + 0.1)
	}

	// Step 6: clamp to [0,1].
	adjusted = sentrytype.Clamp01(adjusted)

	// Step 7: record this observation into sender and global history.
	// The violation counter tracks layer-only risk, before rate-limit or
	// repetition adjustments.
	e.record(st, in.Now, in.Ctx.SenderID, in.Descriptions)
	if baseRisk > 0.7 {
		st.violations++
	}

	return sentrytype.ContextResult{
		BaseRisk:           baseRisk,
		AdjustedRisk:       adjusted,
		SourceTrust:        trust,
		SourceMultiplier:   multiplier,
		SenderRisk:         senderRisk,
		RateLimitViolation: rateLimitViolation,
		PatternRepetition:  patternRepetition,
		Elapsed:            time.Since(start),
	}
}

// patternRepeatsAcrossSenders reports whether any of descriptions appears
// in the global recent-message history attributed to at least 3 distinct
// senders other than senderID.
func (e *Evaluator) patternRepeatsAcrossSenders(senderID string, descriptions []string) bool {
	if len(descriptions) == 0 {
		return false
	}
	for _, d := range descriptions {
		others := make(map[string]bool)
		for _, m := range e.recentMessages {
			if m.senderID == senderID {
				continue
			}
			for _, md := range m.descriptions {
				if md == d {
					others[m.senderID] = true
					break
				}
			}
		}
		if len(others) >= 3 {
			return true
		}
	}
	return false
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// checkRateLimit prunes timestamps outside the window and reports whether
// the sender is already at or over the limit within the window.
func (e *Evaluator) checkRateLimit(st *senderState, now time.Time) bool {
	windowStart := now.Add(-time.Duration(e.opts.RateLimit.WindowMs) * time.Millisecond)
	kept := st.recentTimes[:0]
	for _, t := range st.recentTimes {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}
	st.recentTimes = kept
	return len(st.recentTimes) >= e.opts.RateLimit.Max
}

func (e *Evaluator) record(st *senderState, now time.Time, senderID string, descriptions []string) {
	st.recentTimes = append(st.recentTimes, now)
	if len(st.recentTimes) > e.opts.MaxHistorySize {
		st.recentTimes = st.recentTimes[len(st.recentTimes)-e.opts.MaxHistorySize:]
	}

	e.recentMessages = append(e.recentMessages, recentMessage{
		senderID:     senderID,
		descriptions: append([]string(nil), descriptions...),
		at:           now,
	})
	if len(e.recentMessages) > globalHistorySize {
		e.recentMessages = e.recentMessages[len(e.recentMessages)-globalHistorySize:]
	}
}

// TrustSender marks a sender as trusted, halving its adjusted risk on
// future evaluations.
func (e *Evaluator) TrustSender(senderID string) {
	e.mu.Lock()
	e.state(senderID).trusted = true
	store := e.store
	e.mu.Unlock()
	if store != nil {
		_ = store.SetFlag(context.Background(), senderID, "trusted")
	}
}

// BlockSender marks a sender as blocked, forcing adjusted risk to 1.0 on
// future evaluations.
func (e *Evaluator) BlockSender(senderID string) {
	e.mu.Lock()
	e.state(senderID).blocked = true
	store := e.store
	e.mu.Unlock()
	if store != nil {
		_ = store.SetFlag(context.Background(), senderID, "blocked")
	}
}

// SenderViolations reports the violation count recorded for a sender.
func (e *Evaluator) SenderViolations(senderID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.senders[senderID]
	if !ok {
		return 0
	}
	return s.violations
}

// Hash32 computes the FNV-1a hash of a message's text, used by the event
// log and by callers wanting to identify a message without retaining its
// raw text.
func Hash32(text string) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	h := uint32(offset32)
	for i := 0; i < len(text); i++ {
		h ^= uint32(text[i])
		h *= prime32
	}
	return h
}
