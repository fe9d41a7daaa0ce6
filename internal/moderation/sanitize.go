package moderation

import (
	"regexp"
	"strings"
)

var (
	horizontalSpace = regexp.MustCompile(`[^\S\n]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// Sanitize normalises user input before moderation: CRLF becomes LF, NUL bytes
// are dropped, horizontal whitespace runs collapse to one space, three or more
// newlines collapse to two, and the result is trimmed. Sanitize is idempotent.
func Sanitize(content string) string {
	s := strings.ReplaceAll(content, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
