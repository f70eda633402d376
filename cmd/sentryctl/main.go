// Command sentryctl is a one-shot CLI for the guardrail engine, offering
// scan and version subcommands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/TryMightyAI/sentry/internal/config"
	"github.com/TryMightyAI/sentry/internal/sentrytype"
	sentryengine "github.com/TryMightyAI/sentry"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scan":
		if len(os.Args) < 3 {
			fmt.Println("Usage: sentryctl scan <text> [--source=X] [--sender=Y] [--strict]")
			os.Exit(1)
		}
		runScan(os.Args[2:])
	case "version":
		fmt.Printf("sentryctl v%s\n", version)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("sentryctl v%s - guardrail engine CLI\n\n", version)
	fmt.Println("Usage:")
	fmt.Println("  sentryctl scan <text> [flags]   Scan text and print the decision as JSON")
	fmt.Println("  sentryctl version               Show version")
	fmt.Println("")
	fmt.Println("Flags:")
	fmt.Println("  --source=SOURCE    Sender source (internal, authenticated, public, untrusted, webhook, email, api, web)")
	fmt.Println("  --sender=ID        Sender identifier")
	fmt.Println("  --strict           Use strict thresholds")
}

func runScan(args []string) {
	var textParts []string
	source := ""
	sender := ""
	strict := false

	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "--source="):
			source = strings.TrimPrefix(a, "--source=")
		case strings.HasPrefix(a, "--sender="):
			sender = strings.TrimPrefix(a, "--sender=")
		case a == "--strict":
			strict = true
		default:
			textParts = append(textParts, a)
		}
	}
	text := strings.Join(textParts, " ")
	if text == "" {
		fmt.Println("sentryctl: no text provided")
		os.Exit(1)
	}

	var cfg *config.Config
	if strict {
		cfg = config.NewStrictConfig()
	} else {
		cfg = config.NewDefaultConfig()
	}

	engine, err := sentryengine.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sentryctl: failed to initialize engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	msg := sentrytype.Message{
		Text: text,
		Ctx: sentrytype.ScanContext{
			Source:   sentrytype.NormalizeSource(source),
			SenderID: sender,
		},
	}
	result, alertText, scanErr := engine.ScanWithAlert(context.Background(), msg)

	out := struct {
		Decision sentrytype.DecisionResult `json:"decision"`
		Alert    string                    `json:"alert,omitempty"`
		Warning  string                    `json:"warning,omitempty"`
	}{Decision: result.Decision, Alert: alertText}
	if scanErr != nil {
		out.Warning = scanErr.Error()
	}

	enc, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "sentryctl: failed to encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(enc))

	if result.Decision.Action == sentrytype.ActionBlock || result.Decision.Action == sentrytype.ActionQuarantine {
		os.Exit(2)
	}
}
