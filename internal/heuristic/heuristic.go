// Package heuristic implements the heuristic scanner: it runs the
// compiled pattern catalog over the original message plus every
// canonicalized view (Unicode-normalized, decoded), and aggregates the
// hits into a risk score and flag set.
package heuristic

import (
	"sort"
	"time"

	"github.com/TryMightyAI/sentry/internal/decode"
	"github.com/TryMightyAI/sentry/internal/patterns"
	"github.com/TryMightyAI/sentry/internal/sentrytype"
)

// Options configures a single Scan call.
type Options struct {
	NormalizeUnicode bool
	DecodePayloads   bool
}

// decoderDecodedFrom maps a decode.View's Type to the Match.DecodedFrom
// enum.
var decoderDecodedFrom = map[string]sentrytype.DecodedFrom{
	"base64":    sentrytype.DecodedBase64,
	"url":       sentrytype.DecodedURL,
	"hex":       sentrytype.DecodedHex,
	"unicode":   sentrytype.DecodedUnicode,
	"invisible": sentrytype.DecodedInvisible,
}

// Scan runs the full heuristic layer.
func Scan(reg *patterns.Registry, text string, opts Options) sentrytype.HeuristicResult {
	start := time.Now()

	var matches []sentrytype.Match
	flagSet := make(map[string]bool)

	matches = append(matches, scanView(reg, text, sentrytype.DecodedNone)...)

	if opts.NormalizeUnicode {
		normalized := decode.Normalize(text)
		if normalized != text {
			matches = append(matches, scanView(reg, normalized, sentrytype.DecodedUnicodeNormalized)...)
		}
	}

	if opts.DecodePayloads {
		for _, v := range decode.Auto(text) {
			if v.Decoded == text {
				continue
			}
			tag := decoderDecodedFrom[v.Type]
			matches = append(matches, scanView(reg, v.Decoded, tag)...)
		}
	}

	for _, m := range matches {
		flagSet[m.Category] = true
	}

	risk := 0.0
	for _, m := range matches {
		if m.Risk > risk {
			risk = m.Risk
		}
	}

	if len(matches) >= 3 && risk < 0.7 {
		risk = sentrytype.Clamp01(min(0.9, risk+0.1*float64(len(matches))))
		flagSet["multiple_indicators"] = true
	}

	flags := make([]string, 0, len(flagSet))
	for f := range flagSet {
		flags = append(flags, f)
	}
	sort.Strings(flags)

	risk = sentrytype.Clamp01(risk)

	return sentrytype.HeuristicResult{
		RiskScore:        risk,
		Flags:            flags,
		Matches:          matches,
		RequiresSemantic: risk > 0.3 && risk < 0.8,
		Elapsed:          time.Since(start),
	}
}

func scanView(reg *patterns.Registry, text string, decodedFrom sentrytype.DecodedFrom) []sentrytype.Match {
	var out []sentrytype.Match
	for _, p := range reg.All() {
		locs := p.Regex.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			out = append(out, sentrytype.Match{
				Category:    p.Category,
				Risk:        p.Risk,
				Description: p.Description,
				Matched:     sentrytype.TruncateMatch(text[loc[0]:loc[1]]),
				DecodedFrom: decodedFrom,
			})
		}
	}
	return out
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// QuickResult is the quickCheck fast-path result.
type QuickResult struct {
	Dangerous   bool
	Category    string
	Description string
}

// QuickCheck iterates only patterns whose owning category risk is >= 0.7
// and returns the first hit. It does not decode or normalize.
func QuickCheck(reg *patterns.Registry, text string) QuickResult {
	for _, p := range reg.HighRisk(0.7) {
		if p.Regex.MatchString(text) {
			return QuickResult{Dangerous: true, Category: p.Category, Description: p.Description}
		}
	}
	return QuickResult{Dangerous: false}
}
