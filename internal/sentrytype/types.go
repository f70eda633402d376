// Package sentrytype holds the data model shared across every detection
// layer: sources, intents, actions, patterns, and the per-layer result
// records. Kept separate from the top-level sentry package so internal
// layer packages can depend on the model without importing the
// orchestrator that assembles them.
package sentrytype

import "time"

// Source identifies where a message originated. Unknown values fall back
// to Public at construction time (see NormalizeSource).
type Source string

const (
	SourceInternal      Source = "internal"
	SourceAuthenticated Source = "authenticated"
	SourceKnown         Source = "known"
	SourcePublic        Source = "public"
	SourceUntrusted     Source = "untrusted"
	SourceWebhook       Source = "webhook"
	SourceEmail         Source = "email"
	SourceAPI           Source = "api"
	SourceWeb           Source = "web"
)

// sourceProfile bundles the trust score (for reporting) and the risk
// multiplier (for computation) for a given Source.
type sourceProfile struct {
	Trust      float64
	Multiplier float64
}

var sourceProfiles = map[Source]sourceProfile{
	SourceInternal:      {Trust: 1.0, Multiplier: 0.5},
	SourceAuthenticated: {Trust: 0.8, Multiplier: 0.8},
	SourceKnown:         {Trust: 0.6, Multiplier: 1.0},
	SourcePublic:        {Trust: 0.3, Multiplier: 1.2},
	SourceUntrusted:     {Trust: 0.1, Multiplier: 1.0},
	SourceWebhook:       {Trust: 0.2, Multiplier: 1.2},
	SourceEmail:         {Trust: 0.3, Multiplier: 1.3},
	SourceAPI:           {Trust: 0.4, Multiplier: 1.1},
	SourceWeb:           {Trust: 0.2, Multiplier: 1.2},
}

const (
	defaultSourceTrust      = 0.3
	defaultSourceMultiplier = 1.0
)

// NormalizeSource maps unrecognized source strings to Public.
func NormalizeSource(s string) Source {
	src := Source(s)
	if _, ok := sourceProfiles[src]; ok {
		return src
	}
	if s == "" {
		return SourcePublic
	}
	return SourcePublic
}

// SourceTrust returns the reporting trust weight for a source.
func SourceTrust(s Source) float64 {
	if p, ok := sourceProfiles[s]; ok {
		return p.Trust
	}
	return defaultSourceTrust
}

// SourceMultiplier returns the computational risk multiplier for a source.
func SourceMultiplier(s Source) float64 {
	if p, ok := sourceProfiles[s]; ok {
		return p.Multiplier
	}
	return defaultSourceMultiplier
}

// Intent is the semantic-layer classification taxonomy plus the
// engine-internal "encoding" pseudo-intent (see DESIGN.md Open Questions).
type Intent string

const (
	IntentBenign              Intent = "benign"
	IntentCurious             Intent = "curious"
	IntentPromptLeak          Intent = "prompt_leak"
	IntentInstructionOverride Intent = "instruction_override"
	IntentCommandInjection    Intent = "command_injection"
	IntentCredentialTheft     Intent = "credential_theft"
	IntentDataExfiltration    Intent = "data_exfiltration"
	IntentImpersonation       Intent = "impersonation"
	IntentDiscovery           Intent = "discovery"
	IntentSocialEngineering   Intent = "social_engineering"
	IntentMultiStage          Intent = "multi_stage"

	// IntentEncoding has no semantic-taxonomy counterpart; it only ever
	// appears as a heuristic-derived final intent (see DESIGN.md).
	IntentEncoding Intent = "encoding"
)

var taxonomy = map[Intent]bool{
	IntentBenign: true, IntentCurious: true, IntentPromptLeak: true,
	IntentInstructionOverride: true, IntentCommandInjection: true,
	IntentCredentialTheft: true, IntentDataExfiltration: true,
	IntentImpersonation: true, IntentDiscovery: true,
	IntentSocialEngineering: true, IntentMultiStage: true,
}

// InTaxonomy reports whether i is a valid semantic-classifier intent.
// IntentEncoding deliberately returns false here.
func InTaxonomy(i Intent) bool {
	return taxonomy[i]
}

// intentRisk maps an intent to its base risk contribution, used by the
// context layer.
var intentRisk = map[Intent]float64{
	IntentBenign:              0,
	IntentCurious:             0.2,
	IntentDiscovery:           0.4,
	IntentPromptLeak:          0.5,
	IntentSocialEngineering:   0.6,
	IntentImpersonation:       0.7,
	IntentInstructionOverride: 0.85,
	IntentCredentialTheft:     0.9,
	IntentDataExfiltration:    0.9,
	IntentCommandInjection:    0.95,
	IntentMultiStage:          0.9,
}

// IntentRisk returns the base risk contribution of an intent, 0 for
// anything (including IntentEncoding) not in the table.
func IntentRisk(i Intent) float64 {
	return intentRisk[i]
}

// IsCritical reports whether an intent is one of the three that trigger
// the decision resolver's critical-intent shortcut.
func IsCritical(i Intent) bool {
	return i == IntentCommandInjection || i == IntentCredentialTheft || i == IntentDataExfiltration
}

// Action is the final disposition of a scan.
type Action string

const (
	ActionAllow      Action = "allow"
	ActionWarn       Action = "warn"
	ActionBlock      Action = "block"
	ActionQuarantine Action = "quarantine"
)

// DecodedFrom tags where a Match's decoded view originated, if any.
type DecodedFrom string

const (
	DecodedNone              DecodedFrom = ""
	DecodedBase64             DecodedFrom = "base64"
	DecodedURL                DecodedFrom = "url"
	DecodedHex                DecodedFrom = "hex"
	DecodedUnicode            DecodedFrom = "unicode"
	DecodedInvisible          DecodedFrom = "invisible"
	DecodedUnicodeNormalized  DecodedFrom = "unicode_normalized"
)

// Category is a named bundle of regex patterns loaded from a declarative
// pattern file.
type Category struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Risk        float64   `json:"risk"`
	Action      Action    `json:"action"`
	Patterns    []Pattern `json:"patterns"`
}

// Pattern is an immutable, compiled rule belonging to exactly one category.
// Regex is stored separately (internal/patterns owns *regexp.Regexp) so
// this struct stays JSON-round-trippable for the raw catalog file.
type Pattern struct {
	Regex       string   `json:"regex"`
	Description string   `json:"description"`
	Decoder     string   `json:"decoder,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// Match is produced by the heuristic layer for a single pattern hit.
type Match struct {
	Category    string      `json:"category"`
	Risk        float64     `json:"risk"`
	Description string      `json:"description"`
	Matched     string      `json:"matched"`
	DecodedFrom DecodedFrom `json:"decodedFrom,omitempty"`
}

const matchTruncateLen = 100

// TruncateMatch truncates a matched substring to a 100-char cap.
func TruncateMatch(s string) string {
	r := []rune(s)
	if len(r) <= matchTruncateLen {
		return s
	}
	return string(r[:matchTruncateLen])
}

// Message is the scan input: a UTF-8 string plus its scan-context.
type Message struct {
	Text string
	Ctx  ScanContext
}

// ScanContext accompanies a Message.
type ScanContext struct {
	Source   Source
	SenderID string
	Metadata map[string]string
}

// HeuristicResult is the output of the heuristic scanner.
type HeuristicResult struct {
	RiskScore       float64       `json:"riskScore"`
	Flags           []string      `json:"flags"`
	Matches         []Match       `json:"matches"`
	RequiresSemantic bool         `json:"requiresSemantic"`
	Elapsed         time.Duration `json:"elapsed"`
}

// HasFlag reports whether a category name is present in the flag set.
func (h *HeuristicResult) HasFlag(name string) bool {
	for _, f := range h.Flags {
		if f == name {
			return true
		}
	}
	return false
}

// SemanticResult is the output of the semantic classifier.
type SemanticResult struct {
	Intent             Intent        `json:"intent"`
	Confidence         float64       `json:"confidence"`
	Reasoning          string        `json:"reasoning"`
	RedFlags           []string      `json:"redFlags"`
	RecommendedAction  Action        `json:"recommendedAction"`
	Provider           string        `json:"provider"`
	Model              string        `json:"model"`
	Elapsed            time.Duration `json:"elapsed"`
	Error              string        `json:"error,omitempty"`
	ParseError         string        `json:"parseError,omitempty"`
}

// ContextResult is the output of the context evaluator.
type ContextResult struct {
	BaseRisk           float64       `json:"baseRisk"`
	AdjustedRisk       float64       `json:"adjustedRisk"`
	SourceTrust        float64       `json:"sourceTrust"`
	SourceMultiplier   float64       `json:"sourceMultiplier"`
	SenderRisk         float64       `json:"senderRisk"`
	RateLimitViolation bool          `json:"rateLimitViolation"`
	PatternRepetition  bool          `json:"patternRepetition"`
	Elapsed            time.Duration `json:"elapsed"`
}

// Thresholds holds the warn/block/quarantine risk cutoffs used by the
// decision resolver.
type Thresholds struct {
	Warn       float64 `json:"warn"`
	Block      float64 `json:"block"`
	Quarantine float64 `json:"quarantine"`
}

// DefaultThresholds returns the non-strict default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Warn: 0.4, Block: 0.8, Quarantine: 0.9}
}

// StrictThresholds returns the strict-mode thresholds.
func StrictThresholds() Thresholds {
	return Thresholds{Warn: 0.3, Block: 0.6, Quarantine: 0.8}
}

// DecisionResult is the output of the decision resolver.
type DecisionResult struct {
	Action     Action        `json:"action"`
	RiskScore  float64       `json:"riskScore"`
	Intent     Intent        `json:"intent"`
	Reason     string        `json:"reason"`
	Thresholds Thresholds    `json:"thresholds"`
	StrictMode bool          `json:"strictMode"`
	Confidence float64       `json:"confidence"`
	Flags      []string      `json:"flags"`
	Matches    []Match       `json:"matches"`
	RedFlags   []string      `json:"redFlags"`
	Elapsed    time.Duration `json:"elapsed"`
}

// RateLimit configures the context layer's per-sender request cap.
type RateLimit struct {
	WindowMs int `json:"window"`
	Max      int `json:"max"`
}

// Clamp01 clamps a float64 to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
