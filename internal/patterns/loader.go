// Package patterns loads the declarative pattern catalog from a directory
// of JSON category files and exposes a compiled, read-only registry: a
// compile-once-at-init registry guarded by sync.RWMutex, indexed by
// category for targeted scans, loaded from JSON files rather than
// hardcoded register() calls.
package patterns

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/TryMightyAI/sentry/internal/sentrytype"
)

// CompiledPattern pairs a loaded Pattern with its compiled, case-insensitive
// global-match regex.
type CompiledPattern struct {
	Category    string
	Risk        float64
	Description string
	Decoder     string
	Regex       *regexp.Regexp
}

// CompiledCategory is a Category with all of its patterns compiled.
type CompiledCategory struct {
	Name        string
	Description string
	Risk        float64
	Action      sentrytype.Action
	Patterns    []*CompiledPattern
}

// Registry is the read-only, compiled pattern catalog. Safe for concurrent
// reads from many goroutines; never mutated after Load returns.
type Registry struct {
	mu         sync.RWMutex
	categories []*CompiledCategory
	byName     map[string]*CompiledCategory
	all        []*CompiledPattern
}

// LoadError reports a catalog load failure: fatal at initialization,
// never partial.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("pattern catalog load failed at %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads every *.json file in dir, each defining one pattern category,
// and compiles all regexes. Any missing directory, malformed JSON, or
// regex compile failure is returned as a *LoadError and no partial
// registry is produced.
func Load(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Err: err}
	}

	r := &Registry{byName: make(map[string]*CompiledCategory)}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}

		var cat sentrytype.Category
		if err := json.Unmarshal(raw, &cat); err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}

		compiled := &CompiledCategory{
			Name:        cat.Name,
			Description: cat.Description,
			Risk:        cat.Risk,
			Action:      cat.Action,
		}
		for _, p := range cat.Patterns {
			re, err := regexp.Compile("(?i)" + p.Regex)
			if err != nil {
				return nil, &LoadError{Path: path, Err: fmt.Errorf("pattern %q: %w", p.Description, err)}
			}
			cp := &CompiledPattern{
				Category:    cat.Name,
				Risk:        cat.Risk,
				Description: p.Description,
				Decoder:     p.Decoder,
				Regex:       re,
			}
			compiled.Patterns = append(compiled.Patterns, cp)
			r.all = append(r.all, cp)
		}

		r.categories = append(r.categories, compiled)
		r.byName[cat.Name] = compiled
	}

	return r, nil
}

// All returns every compiled pattern across all categories.
func (r *Registry) All() []*CompiledPattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.all
}

// Categories returns every loaded category.
func (r *Registry) Categories() []*CompiledCategory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.categories
}

// ByName returns the category with the given name, or nil.
func (r *Registry) ByName(name string) *CompiledCategory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// HighRisk returns every compiled pattern belonging to a category whose
// risk is >= threshold — used by quickCheck.
func (r *Registry) HighRisk(threshold float64) []*CompiledPattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*CompiledPattern
	for _, c := range r.categories {
		if c.Risk >= threshold {
			out = append(out, c.Patterns...)
		}
	}
	return out
}

// TotalPatterns returns the total compiled pattern count.
func (r *Registry) TotalPatterns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}

// CategoryNames returns the names of every loaded category.
func (r *Registry) CategoryNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.categories))
	for _, c := range r.categories {
		names = append(names, c.Name)
	}
	return names
}
