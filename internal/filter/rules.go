package filter

import (
	"fmt"
	"os"

	"github.com/bookowl/bookowl/internal/model"
	"gopkg.in/yaml.v3"
)

// DefaultRules returns the built-in rule set. Aimed at keeping answers
// about classical and religious texts in neutral, family-friendly
// language rather than at exhaustive moderation.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "rape", Replacement: "assault", Category: "violence"},
		{Pattern: "raped", Replacement: "assaulted", Category: "violence"},
		{Pattern: "raping", Replacement: "assaulting", Category: "violence"},
		{Pattern: "rapist", Replacement: "assailant", Category: "violence"},
		{Pattern: "fuck", Replacement: "damn", Category: "profanity"},
		{Pattern: "fucking", Replacement: "damned", Category: "profanity"},
		{Pattern: "shit", Replacement: "nonsense", Category: "profanity"},
		{Pattern: "bitch", Replacement: "individual", Category: "profanity"},
		{Pattern: "whore", Replacement: "individual", Category: "profanity"},
		{Pattern: "slut", Replacement: "individual", Category: "profanity"},
		{Pattern: "bastard", Replacement: "individual", Category: "profanity"},
		{Pattern: "cunt", Replacement: "individual", Category: "profanity"},
		{Pattern: "sex", Replacement: "intimate relations", Category: "sexual"},
		{Pattern: "sexual", Replacement: "intimate", Category: "sexual"},
		{Pattern: "intercourse", Replacement: "intimate relations", Category: "sexual"},
		{Pattern: "fornication", Replacement: "improper relations", Category: "sexual"},
		{Pattern: "prostitution", Replacement: "improper activities", Category: "sexual"},
		{Pattern: "porn", Replacement: "improper content", Category: "sexual"},
		{Pattern: "pornography", Replacement: "improper content", Category: "sexual"},
		{Pattern: "nude", Replacement: "unclothed", Category: "sexual"},
		{Pattern: "naked", Replacement: "unclothed", Category: "sexual"},
		{Pattern: "nudity", Replacement: "undress", Category: "sexual"},
	}
}

// LoadRules reads a YAML rules file. The file is a plain list:
//
//	- pattern: foo
//	  replacement: bar
//	  category: profanity
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.FilterConfigError{Rule: path, Err: err}
	}

	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, &model.FilterConfigError{Rule: path, Err: fmt.Errorf("parse rules: %w", err)}
	}
	if len(rules) == 0 {
		return nil, &model.FilterConfigError{Rule: path, Err: fmt.Errorf("no rules defined")}
	}
	return rules, nil
}

// FromConfig builds a filter from the configured rules file, falling back
// to the built-in rules when no path is set.
func FromConfig(cfg model.FilterConfig) (*Filter, error) {
	rules := DefaultRules()
	if cfg.RulesPath != "" {
		loaded, err := LoadRules(cfg.RulesPath)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	return New(rules)
}
