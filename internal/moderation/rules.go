package moderation

import (
	"regexp"
	"unicode"
)

// Default length limits for comment-length content.
const (
	DefaultMinLength = 1
	DefaultMaxLength = 1000
)

// GenericPatternReason is reported when a pattern without its own reason matches.
const GenericPatternReason = "Content contains prohibited patterns."

// Matcher reports whether a pattern occurs in a string. *regexp.Regexp satisfies it.
type Matcher interface {
	MatchString(s string) bool
}

// Pattern is a structural rule evaluated after the word list.
type Pattern struct {
	Name    string
	Reason  string
	Matcher Matcher
}

// Rules is the static table an Engine is built from.
type Rules struct {
	MinLength    int
	MaxLength    int
	BlockedWords []string
	Patterns     []Pattern
}

// DefaultRules returns the out-of-the-box table. Each call returns fresh slices.
func DefaultRules() Rules {
	words := make([]string, len(defaultBlockedWords))
	copy(words, defaultBlockedWords)
	return Rules{
		MinLength:    DefaultMinLength,
		MaxLength:    DefaultMaxLength,
		BlockedWords: words,
		Patterns:     DefaultPatterns(),
	}
}

// DefaultPatterns returns the built-in structural patterns in evaluation order.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:    "repeated_chars",
			Reason:  "Excessive repeated characters detected.",
			Matcher: RepeatedRun(5),
		},
		{
			Name:    "excessive_caps",
			Reason:  "Excessive use of capital letters.",
			Matcher: regexp.MustCompile(`^[A-Z\s!?.]{50,}$`),
		},
		{
			Name:    "excessive_punctuation",
			Reason:  "Excessive punctuation.",
			Matcher: regexp.MustCompile(`[!?]{5,}`),
		},
		{
			Name:    "email",
			Reason:  "Email addresses are not allowed in comments.",
			Matcher: regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		},
		{
			Name:    "phone",
			Reason:  "Phone numbers are not allowed in comments.",
			Matcher: regexp.MustCompile(`(?:\+1[\s.-]?)?(?:\(\d{3}\)|\d{3})[\s.-]?\d{3}[\s.-]\d{4}\b`),
		},
	}
}

// RepeatedRun matches min or more consecutive copies of the same non-letter rune.
// Letters are exempt so long words and all-caps shouting fall through to the
// capitalisation rule instead.
type RepeatedRun int

// MatchString implements Matcher.
func (n RepeatedRun) MatchString(s string) bool {
	if n <= 1 {
		return s != ""
	}
	var prev rune
	count := 0
	for _, r := range s {
		if count > 0 && r == prev {
			count++
		} else {
			prev, count = r, 1
		}
		if count >= int(n) && !unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// Profanity, slurs and their punctuation or leetspeak spellings.
var defaultBlockedWords = []string{
	"ass",
	"a$$",
	"asshole",
	"a**hole",
	"bastard",
	"bitch",
	"b*tch",
	"b1tch",
	"bullshit",
	"crap",
	"damn",
	"dick",
	"d1ck",
	"dumbass",
	"fuck",
	"f*ck",
	"f**k",
	"fck",
	"fuk",
	"fuking",
	"fucking",
	"idiot",
	"moron",
	"motherfucker",
	"piss",
	"retard",
	"shit",
	"sh*t",
	"sh1t",
	"slut",
	"stfu",
	"whore",
	"wtf",
}
