// Package alert renders human-readable alert text for a decision: a
// static (intent x action) template table, with a generic per-action
// template for pairs the table lacks and a reason-based line for any
// action outside that set.
package alert

import (
	"fmt"

	"github.com/TryMightyAI/sentry/internal/sentrytype"
)

type key struct {
	intent sentrytype.Intent
	action sentrytype.Action
}

var templates = map[key]string{
	{sentrytype.IntentCommandInjection, sentrytype.ActionBlock}:     "Blocked a message attempting command injection from %s.",
	{sentrytype.IntentCommandInjection, sentrytype.ActionQuarantine}: "Quarantined a message attempting command injection from %s.",
	{sentrytype.IntentCredentialTheft, sentrytype.ActionBlock}:       "Blocked a message attempting credential theft from %s.",
	{sentrytype.IntentCredentialTheft, sentrytype.ActionQuarantine}:  "Quarantined a message attempting credential theft from %s.",
	{sentrytype.IntentDataExfiltration, sentrytype.ActionBlock}:      "Blocked a message attempting data exfiltration from %s.",
	{sentrytype.IntentDataExfiltration, sentrytype.ActionQuarantine}: "Quarantined a message attempting data exfiltration from %s.",
	{sentrytype.IntentInstructionOverride, sentrytype.ActionBlock}:   "Blocked an instruction-override attempt from %s.",
	{sentrytype.IntentInstructionOverride, sentrytype.ActionWarn}:    "Flagged a possible instruction-override attempt from %s.",
	{sentrytype.IntentPromptLeak, sentrytype.ActionWarn}:             "Flagged a possible system prompt extraction attempt from %s.",
	{sentrytype.IntentPromptLeak, sentrytype.ActionBlock}:            "Blocked a system prompt extraction attempt from %s.",
	{sentrytype.IntentImpersonation, sentrytype.ActionWarn}:          "Flagged a possible impersonation attempt from %s.",
	{sentrytype.IntentDiscovery, sentrytype.ActionWarn}:              "Flagged reconnaissance activity from %s.",
	{sentrytype.IntentSocialEngineering, sentrytype.ActionWarn}:      "Flagged a possible social engineering attempt from %s.",
	{sentrytype.IntentMultiStage, sentrytype.ActionWarn}:             "Flagged a message matching a multi-stage attack pattern from %s.",
	{sentrytype.IntentMultiStage, sentrytype.ActionBlock}:            "Blocked a message matching a multi-stage attack pattern from %s.",
}

// genericByAction is the fallback used when no (intent, action) template
// exists, keyed on action alone.
var genericByAction = map[sentrytype.Action]string{
	sentrytype.ActionWarn:       "Flagged a suspicious message from %s.",
	sentrytype.ActionBlock:      "Blocked a suspicious message from %s.",
	sentrytype.ActionQuarantine: "Quarantined a suspicious message from %s.",
	sentrytype.ActionAllow:      "Allowed a message from %s after review.",
}

// Render produces the alert text for a decision. senderID defaults to
// "an unknown sender" when empty.
func Render(d sentrytype.DecisionResult, senderID string) string {
	if senderID == "" {
		senderID = "an unknown sender"
	}

	if tmpl, ok := templates[key{d.Intent, d.Action}]; ok {
		return fmt.Sprintf(tmpl, senderID)
	}
	if tmpl, ok := genericByAction[d.Action]; ok {
		return fmt.Sprintf(tmpl, senderID)
	}
	return fmt.Sprintf("Reviewed a message from %s: %s.", senderID, d.Reason)
}
