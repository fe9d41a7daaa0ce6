package moderation

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// RulesFile is the on-disk shape of a rules table.
type RulesFile struct {
	MinLength    int           `yaml:"min_length"`
	MaxLength    int           `yaml:"max_length"`
	ReplaceWords bool          `yaml:"replace_words"`
	BlockedWords []string      `yaml:"blocked_words"`
	Patterns     []PatternSpec `yaml:"patterns"`
}

// PatternSpec is a regex pattern declared in a rules file. Matches report
// GenericPatternReason.
type PatternSpec struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// LoadRules reads a YAML rules file and merges it over DefaultRules.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return Rules{}, fmt.Errorf("read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules merges a YAML rules document over DefaultRules.
// Words are appended unless replace_words is set; patterns are always
// appended after the built-in ones so the documented order is preserved.
func ParseRules(data []byte) (Rules, error) {
	var f RulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Rules{}, fmt.Errorf("parse rules: %w", err)
	}

	rules := DefaultRules()
	if f.MinLength > 0 {
		rules.MinLength = f.MinLength
	}
	if f.MaxLength > 0 {
		rules.MaxLength = f.MaxLength
	}
	if f.ReplaceWords {
		rules.BlockedWords = f.BlockedWords
	} else {
		rules.BlockedWords = append(rules.BlockedWords, f.BlockedWords...)
	}

	for _, ps := range f.Patterns {
		re, err := regexp.Compile(ps.Expr)
		if err != nil {
			return Rules{}, fmt.Errorf("pattern %q: %w", ps.Name, err)
		}
		rules.Patterns = append(rules.Patterns, Pattern{
			Name:    ps.Name,
			Reason:  GenericPatternReason,
			Matcher: re,
		})
	}
	return rules, nil
}
