package decision

import (
	"testing"

	"github.com/TryMightyAI/sentry/internal/sentrytype"
)

func baseInput(flags []string, risk float64) Input {
	return Input{
		Source:   sentrytype.SourcePublic,
		SenderID: "sender-1",
		Heuristic: sentrytype.HeuristicResult{
			RiskScore: risk,
			Flags:     flags,
		},
		Context: sentrytype.ContextResult{
			AdjustedRisk: risk,
		},
	}
}

func TestResolveAllowsLowRisk(t *testing.T) {
	r := New(false)
	d := r.Resolve(baseInput(nil, 0.1))
	if d.Action != sentrytype.ActionAllow {
		t.Errorf("Action = %v, want allow", d.Action)
	}
}

func TestResolveWarnBlockQuarantineThresholds(t *testing.T) {
	r := New(false)

	warn := r.Resolve(baseInput([]string{"discovery"}, 0.5))
	if warn.Action != sentrytype.ActionWarn {
		t.Errorf("Action = %v, want warn at risk 0.5", warn.Action)
	}

	block := r.Resolve(baseInput([]string{"impersonation"}, 0.85))
	if block.Action != sentrytype.ActionBlock {
		t.Errorf("Action = %v, want block at risk 0.85", block.Action)
	}

	quarantine := r.Resolve(baseInput([]string{"discovery"}, 0.95))
	if quarantine.Action != sentrytype.ActionQuarantine {
		t.Errorf("Action = %v, want quarantine at risk 0.95", quarantine.Action)
	}
}

func TestResolveCriticalIntentShortcut(t *testing.T) {
	r := New(false)
	in := baseInput([]string{"command_injection"}, 0.85)
	in.Semantic = &sentrytype.SemanticResult{Intent: sentrytype.IntentCommandInjection, Confidence: 0.9}
	d := r.Resolve(in)
	if d.Action != sentrytype.ActionBlock {
		t.Errorf("Action = %v, want block for critical intent with high-confidence semantic classification", d.Action)
	}
	if d.Intent != sentrytype.IntentCommandInjection {
		t.Errorf("Intent = %v, want command_injection", d.Intent)
	}
}

func TestResolveCriticalIntentWithoutConfidenceFallsThroughToThreshold(t *testing.T) {
	r := New(false)
	d := r.Resolve(baseInput([]string{"command_injection"}, 0.85))
	if d.Action != sentrytype.ActionBlock {
		t.Errorf("Action = %v, want block from the threshold cascade when no confident semantic result is present", d.Action)
	}
}

func TestResolveBlockListWins(t *testing.T) {
	r := New(false)
	r.Block("sender-1")
	d := r.Resolve(baseInput(nil, 0.0))
	if d.Action != sentrytype.ActionBlock {
		t.Errorf("Action = %v, want block for blocked sender regardless of risk", d.Action)
	}
}

func TestResolveAllowListOverridesRisk(t *testing.T) {
	r := New(false)
	r.Allow("sender-1")
	d := r.Resolve(baseInput([]string{"discovery"}, 0.95))
	if d.Action != sentrytype.ActionAllow {
		t.Errorf("Action = %v, want allow for allow-listed sender", d.Action)
	}
}

func TestAllowBlockListsMutuallyExclusive(t *testing.T) {
	r := New(false)
	r.Block("sender-1")
	r.Allow("sender-1")
	d := r.Resolve(baseInput(nil, 0.95))
	if d.Action != sentrytype.ActionAllow {
		t.Errorf("Action = %v, want allow after overriding a prior block", d.Action)
	}
}

func TestFinalIntentPrefersSemantic(t *testing.T) {
	r := New(false)
	sem := &sentrytype.SemanticResult{Intent: sentrytype.IntentSocialEngineering, Confidence: 0.9}
	in := baseInput([]string{"discovery"}, 0.5)
	in.Semantic = sem

	d := r.Resolve(in)
	if d.Intent != sentrytype.IntentSocialEngineering {
		t.Errorf("Intent = %v, want semantic result to take priority", d.Intent)
	}
}

func TestStrictModeUsesStricterThresholds(t *testing.T) {
	r := New(true)
	d := r.Resolve(baseInput([]string{"discovery"}, 0.35))
	if d.Action != sentrytype.ActionWarn {
		t.Errorf("Action = %v, want warn under strict thresholds at risk 0.35", d.Action)
	}
}
