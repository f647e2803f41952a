package store

import (
	"regexp"
	"strings"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\-_]`)
	slugHyphenRuns   = regexp.MustCompile(`--+`)
)

// Slug derives the cache key for a (locale, name) pair: lowercase
// "{locale}-{name}" with characters outside [a-z0-9_-] replaced by hyphens,
// hyphen runs collapsed, and leading/trailing hyphens trimmed. An empty locale
// yields the bare name form.
//
// Distinct (locale, name) pairs can normalize to the same slug (e.g. "a b" and
// "a-b"). Stored rows already depend on this algorithm, so it must not change.
func Slug(locale, name string) string {
	s := strings.ToLower(locale + "-" + name)
	s = slugInvalidChars.ReplaceAllString(s, "-")
	s = slugHyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
