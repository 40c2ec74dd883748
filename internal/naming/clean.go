package naming

import "strings"

// CleanStem applies the configured rename patterns to a filename stem:
// every occurrence of every pattern is removed, in configuration order and
// case-sensitively, then the separator runs left behind are collapsed (dot
// runs to a single dot, whitespace runs to a single space). A cleaning that
// deletes the whole stem falls back to the original so a file never ends up
// nameless.
func CleanStem(stem string, patterns []string) string {
	cleaned := stem
	for _, p := range patterns {
		if p == "" {
			continue
		}
		cleaned = strings.ReplaceAll(cleaned, p, "")
	}
	cleaned = collapseDots(cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return stem
	}
	return cleaned
}

// collapseDots reduces every run of consecutive dots to a single dot.
func collapseDots(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevDot := false
	for _, r := range s {
		if r == '.' {
			if prevDot {
				continue
			}
			prevDot = true
		} else {
			prevDot = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
