package alert

import (
	"strings"
	"testing"

	"github.com/TryMightyAI/sentry/internal/sentrytype"
)

func TestRenderKnownTemplate(t *testing.T) {
	d := sentrytype.DecisionResult{Intent: sentrytype.IntentCommandInjection, Action: sentrytype.ActionBlock}
	got := Render(d, "agent-42")
	if !strings.Contains(got, "agent-42") || !strings.Contains(got, "command injection") {
		t.Errorf("Render(%+v) = %q, want sender id and intent mentioned", d, got)
	}
}

func TestRenderFallsBackToGenericAction(t *testing.T) {
	d := sentrytype.DecisionResult{Intent: sentrytype.IntentMultiStage, Action: sentrytype.ActionQuarantine}
	got := Render(d, "agent-7")
	if !strings.Contains(got, "agent-7") {
		t.Errorf("Render(%+v) = %q, want sender id mentioned", d, got)
	}
}

func TestRenderDefaultsSenderID(t *testing.T) {
	d := sentrytype.DecisionResult{Intent: sentrytype.IntentDiscovery, Action: sentrytype.ActionWarn}
	got := Render(d, "")
	if !strings.Contains(got, "unknown sender") {
		t.Errorf("Render(%+v, \"\") = %q, want unknown sender fallback", d, got)
	}
}
