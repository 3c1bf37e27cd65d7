package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/bookowl/bookowl/internal/model"
)

// Rule maps a disallowed term to a category-tagged replacement
type Rule struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
	Category    string `yaml:"category"`
}

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// Filter detects and neutralizes disallowed terms. Rules are compiled and
// validated once at construction; Apply is safe for concurrent use.
type Filter struct {
	rules []compiledRule

	mu    sync.Mutex
	stats map[string]int // Cumulative matches per category
}

// New compiles the rule set. Matches are whole-word and case-insensitive,
// never substrings inside unrelated words. A replacement that itself
// matches any rule would break idempotence, so that is rejected here.
func New(rules []Rule) (*Filter, error) {
	if len(rules) == 0 {
		return nil, &model.FilterConfigError{Err: fmt.Errorf("empty rule set")}
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Pattern) == "" {
			return nil, &model.FilterConfigError{Rule: r.Pattern, Err: fmt.Errorf("empty pattern")}
		}
		if r.Category == "" {
			return nil, &model.FilterConfigError{Rule: r.Pattern, Err: fmt.Errorf("missing category")}
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(r.Pattern) + `\b`)
		if err != nil {
			return nil, &model.FilterConfigError{Rule: r.Pattern, Err: err}
		}
		compiled = append(compiled, compiledRule{Rule: r, re: re})
	}

	// Idempotence check: filtering already-filtered text must be a no-op
	for _, r := range compiled {
		for _, other := range compiled {
			if other.re.MatchString(r.Replacement) {
				return nil, &model.FilterConfigError{
					Rule: r.Pattern,
					Err:  fmt.Errorf("replacement %q matches rule %q", r.Replacement, other.Pattern),
				}
			}
		}
	}

	return &Filter{
		rules: compiled,
		stats: make(map[string]int),
	}, nil
}

// Apply filters the text and returns it with the matched categories (in
// rule order, deduplicated) and the total match count.
func (f *Filter) Apply(text string) (string, []string, int) {
	if text == "" {
		return text, nil, 0
	}

	filtered := text
	matchCount := 0
	var categories []string
	seen := make(map[string]bool)

	for _, r := range f.rules {
		matches := r.re.FindAllString(filtered, -1)
		if len(matches) == 0 {
			continue
		}
		matchCount += len(matches)
		if !seen[r.Category] {
			seen[r.Category] = true
			categories = append(categories, r.Category)
		}
		filtered = r.re.ReplaceAllString(filtered, r.Replacement)

		f.mu.Lock()
		f.stats[r.Category] += len(matches)
		f.mu.Unlock()
	}

	return filtered, categories, matchCount
}

// Stats returns a copy of the cumulative per-category match counters.
// Counters reset only at process start.
func (f *Filter) Stats() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]int, len(f.stats))
	for k, v := range f.stats {
		out[k] = v
	}
	return out
}

// Categories returns the distinct rule categories, sorted
func (f *Filter) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range f.rules {
		if !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	sort.Strings(out)
	return out
}
