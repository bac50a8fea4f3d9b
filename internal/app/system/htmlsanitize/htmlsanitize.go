// Package htmlsanitize strips markup from user-entered free text before it
// is stored. Request descriptions, notes and application messages are plain
// text; any HTML a client sends is removed rather than rendered.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Clean removes every tag (and the content of script/style elements) from s
// and trims surrounding whitespace. Entities are decoded so ordinary
// punctuation survives unchanged.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// CleanAll applies Clean to each element, dropping entries that end up empty.
func CleanAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if c := Clean(s); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
