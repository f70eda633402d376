package patterns

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("writing test catalog: %v", err)
	}
}

func TestLoadValidCatalog(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "test_category.json", `{
		"name": "test_category",
		"description": "a test category",
		"risk": 0.75,
		"action": "block",
		"patterns": [
			{"regex": "ignore\\s+all\\s+instructions", "description": "override attempt"}
		]
	}`)

	reg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if reg.TotalPatterns() != 1 {
		t.Fatalf("TotalPatterns() = %d, want 1", reg.TotalPatterns())
	}
	if got := reg.CategoryNames(); len(got) != 1 || got[0] != "test_category" {
		t.Fatalf("CategoryNames() = %v, want [test_category]", got)
	}

	cat := reg.ByName("test_category")
	if cat == nil {
		t.Fatalf("ByName(test_category) = nil")
	}
	if cat.Risk != 0.75 {
		t.Errorf("category risk = %v, want 0.75", cat.Risk)
	}

	p := reg.All()[0]
	if !p.Regex.MatchString("please IGNORE ALL INSTRUCTIONS now") {
		t.Errorf("compiled regex should be case-insensitive")
	}
}

func TestLoadInvalidRegexFails(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "bad.json", `{
		"name": "bad",
		"description": "broken",
		"risk": 0.5,
		"action": "warn",
		"patterns": [
			{"regex": "(unclosed", "description": "broken regex"}
		]
	}`)

	_, err := Load(dir)
	if err == nil {
		t.Fatalf("Load with invalid regex should fail")
	}
	if _, ok := err.(*LoadError); !ok {
		t.Errorf("Load error = %T, want *LoadError", err)
	}
}

func TestLoadMissingDirFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatalf("Load on missing directory should fail")
	}
}

func TestHighRiskFiltersByThreshold(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "low.json", `{"name":"low","description":"d","risk":0.4,"action":"warn","patterns":[{"regex":"low-risk-term","description":"d"}]}`)
	writeCatalog(t, dir, "high.json", `{"name":"high","description":"d","risk":0.9,"action":"block","patterns":[{"regex":"high-risk-term","description":"d"}]}`)

	reg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	high := reg.HighRisk(0.7)
	if len(high) != 1 || high[0].Category != "high" {
		t.Errorf("HighRisk(0.7) = %+v, want only the high category", high)
	}
}

func TestSeededPatternCatalog(t *testing.T) {
	reg, err := Load("../../patterns_data")
	if err != nil {
		t.Fatalf("Load(patterns_data) returned error: %v", err)
	}
	if reg.TotalPatterns() == 0 {
		t.Fatalf("seeded pattern catalog has zero patterns")
	}
	for _, name := range []string{"command_injection", "credential_theft", "data_exfiltration", "encoding"} {
		if reg.ByName(name) == nil {
			t.Errorf("seeded catalog missing expected category %q", name)
		}
	}
}
