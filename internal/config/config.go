// Package config reifies the engine's configuration as an explicit record
// with documented defaults, built from environment variables at startup
// rather than parsing options at scan time.
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TryMightyAI/sentry/internal/sentrytype"
)

// Config is the engine's full configuration surface. Each field's comment
// documents its canonical camelCase name and default, for env-var and
// YAML-override lookups.
type Config struct {
	// SemanticEnabled ("semanticEnabled", default true).
	SemanticEnabled bool
	// SemanticThreshold ("semanticThreshold", default 0.3).
	SemanticThreshold float64
	// StrictMode ("strictMode", default false).
	StrictMode bool
	// Thresholds ("thresholds", default {warn:0.4, block:0.8, quarantine:0.9}).
	Thresholds sentrytype.Thresholds

	// LLMProvider ("llmProvider", default "auto").
	LLMProvider string
	// LLMEndpoint ("llmEndpoint").
	LLMEndpoint string
	// LLMModel ("llmModel", default "gpt-3.5-turbo").
	LLMModel string
	// APIKey ("apiKey").
	APIKey string
	// RequireLLM ("requireLLM", default true).
	RequireLLM bool

	// PatternsDir ("patternsDir").
	PatternsDir string
	// DecodePayloads ("decodePayloads", default true).
	DecodePayloads bool
	// NormalizeUnicode ("normalizeUnicode", default true).
	NormalizeUnicode bool
	// MaxDecodeDepth ("maxDecodeDepth", default 2). Accepted for forward
	// compatibility; the shipped decoder is depth-1 only (DESIGN.md).
	MaxDecodeDepth int

	// HistoryEnabled ("historyEnabled", default true).
	HistoryEnabled bool
	// MaxHistorySize ("maxHistorySize", default 1000).
	MaxHistorySize int
	// RateLimit ("rateLimit", default {window:60000, max:10}).
	RateLimit sentrytype.RateLimit

	// AllowList ("allowList", default []).
	AllowList []string
	// BlockList ("blockList", default []).
	BlockList []string

	// LogLevel ("logLevel", default "info").
	LogLevel string

	// RedisAddr enables the optional Redis-backed sender-history store;
	// empty disables it and the engine stays process-local.
	RedisAddr string

	// QuarantineDSN enables the optional pgx-backed quarantine sink; empty
	// disables it.
	QuarantineDSN string
}

// NewDefaultConfig builds a Config from environment variables, falling back
// to the documented defaults for anything unset.
func NewDefaultConfig() *Config {
	return &Config{
		SemanticEnabled:   GetEnvBool("SENTRY_SEMANTIC_ENABLED", true),
		SemanticThreshold: GetEnvFloat("SENTRY_SEMANTIC_THRESHOLD", 0.3),
		StrictMode:        GetEnvBool("SENTRY_STRICT_MODE", false),
		Thresholds:        sentrytype.DefaultThresholds(),

		LLMProvider: GetEnv("SENTRY_LLM_PROVIDER", "auto"),
		LLMEndpoint: GetEnv("SENTRY_LLM_ENDPOINT", ""),
		LLMModel:    GetEnv("SENTRY_LLM_MODEL", "gpt-3.5-turbo"),
		APIKey:      GetEnv("SENTRY_API_KEY", os.Getenv("OPENAI_API_KEY")),
		RequireLLM:  GetEnvBool("SENTRY_REQUIRE_LLM", true),

		PatternsDir:      GetEnv("SENTRY_PATTERNS_DIR", "patterns_data"),
		DecodePayloads:   GetEnvBool("SENTRY_DECODE_PAYLOADS", true),
		NormalizeUnicode: GetEnvBool("SENTRY_NORMALIZE_UNICODE", true),
		MaxDecodeDepth:   GetEnvInt("SENTRY_MAX_DECODE_DEPTH", 2),

		HistoryEnabled: GetEnvBool("SENTRY_HISTORY_ENABLED", true),
		MaxHistorySize: GetEnvInt("SENTRY_MAX_HISTORY_SIZE", 1000),
		RateLimit: sentrytype.RateLimit{
			WindowMs: GetEnvInt("SENTRY_RATE_LIMIT_WINDOW_MS", 60000),
			Max:      GetEnvInt("SENTRY_RATE_LIMIT_MAX", 10),
		},

		AllowList: GetEnvSlice("SENTRY_ALLOW_LIST", nil),
		BlockList: GetEnvSlice("SENTRY_BLOCK_LIST", nil),

		LogLevel: GetEnv("SENTRY_LOG_LEVEL", "info"),

		RedisAddr:     GetEnv("SENTRY_REDIS_ADDR", ""),
		QuarantineDSN: GetEnv("SENTRY_QUARANTINE_DSN", ""),
	}
}

// NewStrictConfig returns a Config tuned for maximum security.
func NewStrictConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.StrictMode = true
	cfg.Thresholds = sentrytype.StrictThresholds()
	cfg.RequireLLM = true
	return cfg
}

// yamlOverrides is the subset of Config fields an operator may override
// from a YAML file; fields left unset in the file keep their env/default
// value. Field names match Config's canonical camelCase names.
type yamlOverrides struct {
	SemanticEnabled   *bool    `yaml:"semanticEnabled"`
	SemanticThreshold *float64 `yaml:"semanticThreshold"`
	StrictMode        *bool    `yaml:"strictMode"`
	Thresholds        *struct {
		Warn       float64 `yaml:"warn"`
		Block      float64 `yaml:"block"`
		Quarantine float64 `yaml:"quarantine"`
	} `yaml:"thresholds"`
	LLMProvider      *string  `yaml:"llmProvider"`
	LLMEndpoint      *string  `yaml:"llmEndpoint"`
	LLMModel         *string  `yaml:"llmModel"`
	RequireLLM       *bool    `yaml:"requireLLM"`
	PatternsDir      *string  `yaml:"patternsDir"`
	DecodePayloads   *bool    `yaml:"decodePayloads"`
	NormalizeUnicode *bool    `yaml:"normalizeUnicode"`
	AllowList        []string `yaml:"allowList"`
	BlockList        []string `yaml:"blockList"`
	LogLevel         *string  `yaml:"logLevel"`
}

// LoadYAMLOverrides reads a YAML file of deployment-time overrides
// layered on top of the env-derived Config and applies any fields it sets.
func (c *Config) LoadYAMLOverrides(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var o yamlOverrides
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return err
	}

	if o.SemanticEnabled != nil {
		c.SemanticEnabled = *o.SemanticEnabled
	}
	if o.SemanticThreshold != nil {
		c.SemanticThreshold = *o.SemanticThreshold
	}
	if o.StrictMode != nil {
		c.StrictMode = *o.StrictMode
	}
	if o.Thresholds != nil {
		c.Thresholds = sentrytype.Thresholds{
			Warn:       o.Thresholds.Warn,
			Block:      o.Thresholds.Block,
			Quarantine: o.Thresholds.Quarantine,
		}
	}
	if o.LLMProvider != nil {
		c.LLMProvider = *o.LLMProvider
	}
	if o.LLMEndpoint != nil {
		c.LLMEndpoint = *o.LLMEndpoint
	}
	if o.LLMModel != nil {
		c.LLMModel = *o.LLMModel
	}
	if o.RequireLLM != nil {
		c.RequireLLM = *o.RequireLLM
	}
	if o.PatternsDir != nil {
		c.PatternsDir = *o.PatternsDir
	}
	if o.DecodePayloads != nil {
		c.DecodePayloads = *o.DecodePayloads
	}
	if o.NormalizeUnicode != nil {
		c.NormalizeUnicode = *o.NormalizeUnicode
	}
	if o.AllowList != nil {
		c.AllowList = o.AllowList
	}
	if o.BlockList != nil {
		c.BlockList = o.BlockList
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	return nil
}

// EffectiveThresholds returns the strict threshold set whenever
// cfg.StrictMode is true, and cfg.Thresholds otherwise. An explicit
// Thresholds override (from YAML or Engine.Configure) is stored in
// cfg.Thresholds and so only takes effect here while strict mode is off.
func (c *Config) EffectiveThresholds() sentrytype.Thresholds {
	if c.StrictMode {
		return sentrytype.StrictThresholds()
	}
	return c.Thresholds
}

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
