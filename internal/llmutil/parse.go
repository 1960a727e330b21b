// Package llmutil holds helpers for turning free-form model output into
// plain strings.
package llmutil

import (
	"regexp"
	"strings"
)

var (
	emphasis    = regexp.MustCompile(`\*\*|__`)
	headingMark = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	codeFence   = regexp.MustCompile("(?m)^[ \t]*```[a-zA-Z]*[ \t]*$")
)

// StripMarkdown removes bold/underline emphasis, heading markers and code
// fences that models like to wrap plain answers in.
func StripMarkdown(s string) string {
	s = codeFence.ReplaceAllString(s, "")
	s = headingMark.ReplaceAllString(s, "")
	s = emphasis.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Unquote trims whitespace and one pair of surrounding quotes.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
