package filter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bookowl/bookowl/internal/model"
)

func mustFilter(t *testing.T, rules []Rule) *Filter {
	t.Helper()
	f, err := New(rules)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return f
}

func TestApply_ReplacesWholeWords(t *testing.T) {
	f := mustFilter(t, DefaultRules())

	filtered, categories, count := f.Apply("The text mentions sex explicitly.")
	if strings.Contains(filtered, "sex ") {
		t.Errorf("Term not replaced: %q", filtered)
	}
	if !strings.Contains(filtered, "intimate relations") {
		t.Errorf("Expected replacement in output: %q", filtered)
	}
	if count != 1 {
		t.Errorf("Expected 1 match, got %d", count)
	}
	if len(categories) != 1 || categories[0] != "sexual" {
		t.Errorf("Expected [sexual], got %v", categories)
	}
}

func TestApply_NoSubstringMatches(t *testing.T) {
	f := mustFilter(t, DefaultRules())

	// "Sussex" and "Essex" contain a filtered term as a substring but must
	// pass through untouched.
	in := "They travelled from Sussex to Essex."
	filtered, _, count := f.Apply(in)
	if filtered != in {
		t.Errorf("Clean text altered: %q", filtered)
	}
	if count != 0 {
		t.Errorf("Expected 0 matches, got %d", count)
	}
}

func TestApply_CaseInsensitive(t *testing.T) {
	f := mustFilter(t, DefaultRules())

	_, _, count := f.Apply("NAKED and Naked and naked")
	if count != 3 {
		t.Errorf("Expected 3 case-insensitive matches, got %d", count)
	}
}

func TestApply_Idempotent(t *testing.T) {
	f := mustFilter(t, DefaultRules())

	once, _, firstCount := f.Apply("A naked bastard shouted fuck during intercourse.")
	if firstCount != 4 {
		t.Fatalf("Expected 4 matches on first pass, got %d", firstCount)
	}

	twice, _, secondCount := f.Apply(once)
	if secondCount != 0 {
		t.Errorf("Second pass must match nothing, got %d matches", secondCount)
	}
	if twice != once {
		t.Errorf("Second pass changed the text:\n first: %q\nsecond: %q", once, twice)
	}
}

func TestApply_CleanTextUnchanged(t *testing.T) {
	f := mustFilter(t, DefaultRules())

	in := "Rama and Sita returned to Ayodhya after fourteen years of exile."
	filtered, categories, count := f.Apply(in)
	if filtered != in || count != 0 || categories != nil {
		t.Errorf("Clean text must pass through: %q (count %d, categories %v)", filtered, count, categories)
	}
}

func TestApply_EmptyText(t *testing.T) {
	f := mustFilter(t, DefaultRules())

	filtered, categories, count := f.Apply("")
	if filtered != "" || count != 0 || categories != nil {
		t.Errorf("Empty input must be a no-op")
	}
}

func TestStats_Accumulate(t *testing.T) {
	f := mustFilter(t, DefaultRules())

	f.Apply("naked")
	f.Apply("naked and nude")
	f.Apply("bastard")

	stats := f.Stats()
	if stats["sexual"] != 3 {
		t.Errorf("Expected 3 sexual matches, got %d", stats["sexual"])
	}
	if stats["profanity"] != 1 {
		t.Errorf("Expected 1 profanity match, got %d", stats["profanity"])
	}
}

func TestNew_RejectsEmptyRuleSet(t *testing.T) {
	_, err := New(nil)
	var cfgErr *model.FilterConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected FilterConfigError, got %v", err)
	}
}

func TestNew_RejectsSelfMatchingReplacement(t *testing.T) {
	rules := []Rule{
		{Pattern: "bad", Replacement: "very bad", Category: "profanity"},
	}
	_, err := New(rules)
	var cfgErr *model.FilterConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected FilterConfigError for replacement matching a rule, got %v", err)
	}
}

func TestNew_RejectsMissingCategory(t *testing.T) {
	_, err := New([]Rule{{Pattern: "bad", Replacement: "poor"}})
	var cfgErr *model.FilterConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected FilterConfigError for missing category, got %v", err)
	}
}

func TestDefaultRules_Valid(t *testing.T) {
	if _, err := New(DefaultRules()); err != nil {
		t.Fatalf("Built-in rules must compile and be idempotent: %v", err)
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `- pattern: villain
  replacement: antagonist
  category: custom
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}
	if len(rules) != 1 || rules[0].Pattern != "villain" || rules[0].Category != "custom" {
		t.Errorf("Unexpected rules: %+v", rules)
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	var cfgErr *model.FilterConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected FilterConfigError, got %v", err)
	}
}
