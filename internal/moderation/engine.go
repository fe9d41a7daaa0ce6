// Package moderation implements the rule-based classifier that gates user comments.
package moderation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Verdict is the outcome of moderating one piece of text.
// Reason is empty iff Clean; FlaggedWords is set only for word-list violations.
type Verdict struct {
	Clean        bool
	Reason       string
	FlaggedWords []string
}

// Rejection reasons for the length and word-list rules.
const (
	ReasonTooShort      = "Comment is too short."
	ReasonInappropriate = "Comment contains inappropriate language"
)

type blockedWord struct {
	term string
	re   *regexp.Regexp
}

// Engine evaluates text against a compiled Rules table.
// It is immutable after New and safe for concurrent use.
type Engine struct {
	minLength int
	maxLength int
	words     []blockedWord
	patterns  []Pattern
}

// New compiles rules into an Engine.
func New(rules Rules) (*Engine, error) {
	if rules.MaxLength > 0 && rules.MinLength > rules.MaxLength {
		return nil, fmt.Errorf("min length %d exceeds max length %d", rules.MinLength, rules.MaxLength)
	}

	e := &Engine{
		minLength: rules.MinLength,
		maxLength: rules.MaxLength,
	}

	seen := make(map[string]bool, len(rules.BlockedWords))
	for _, raw := range rules.BlockedWords {
		term := strings.ToLower(strings.TrimSpace(raw))
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		re, err := compileWord(term)
		if err != nil {
			return nil, fmt.Errorf("blocked word %q: %w", term, err)
		}
		e.words = append(e.words, blockedWord{term: term, re: re})
	}

	for _, p := range rules.Patterns {
		if p.Matcher == nil {
			return nil, fmt.Errorf("pattern %q has no matcher", p.Name)
		}
		e.patterns = append(e.patterns, p)
	}
	return e, nil
}

// MustNew is like New but panics on an invalid table.
func MustNew(rules Rules) *Engine {
	e, err := New(rules)
	if err != nil {
		panic(err)
	}
	return e
}

// Default returns an Engine built from DefaultRules.
func Default() *Engine {
	return MustNew(DefaultRules())
}

// compileWord escapes term and wraps it in word boundaries. A boundary is only
// added on an edge that is a word character, so "a$$" still matches at the end
// of a sentence.
func compileWord(term string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`(?i)`)
	if isWordByte(term[0]) {
		b.WriteString(`\b`)
	}
	b.WriteString(regexp.QuoteMeta(term))
	if isWordByte(term[len(term)-1]) {
		b.WriteString(`\b`)
	}
	return regexp.Compile(b.String())
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// Moderate classifies content. Rules run in a fixed order and the first
// failure decides the verdict: length-low, length-high, blocked words, patterns.
func (e *Engine) Moderate(content string) Verdict {
	n := utf8.RuneCountInString(content)
	if n < e.minLength {
		return reject(ReasonTooShort)
	}
	if e.maxLength > 0 && n > e.maxLength {
		return reject(fmt.Sprintf("Comment is too long. Maximum %d characters allowed.", e.maxLength))
	}

	if flagged := e.FlaggedWords(content); len(flagged) > 0 {
		return Verdict{Reason: ReasonInappropriate, FlaggedWords: flagged}
	}

	if p, ok := e.matchPattern(content); ok {
		if p.Reason == "" {
			return reject(GenericPatternReason)
		}
		return reject(p.Reason)
	}

	return Verdict{Clean: true}
}

// FlaggedWords returns every blocked term found in content, lower-cased, in table order.
func (e *Engine) FlaggedWords(content string) []string {
	var flagged []string
	for _, w := range e.words {
		if w.re.MatchString(content) {
			flagged = append(flagged, w.term)
		}
	}
	return flagged
}

func (e *Engine) matchPattern(content string) (Pattern, bool) {
	for _, p := range e.patterns {
		if p.Matcher.MatchString(content) {
			return p, true
		}
	}
	return Pattern{}, false
}

func reject(reason string) Verdict {
	return Verdict{Reason: reason}
}
