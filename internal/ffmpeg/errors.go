package ffmpeg

import (
	"regexp"
	"strings"
)

// reSubtitleUnsupported matches the stderr ffmpeg emits when a subtitle
// stream cannot be carried into the target container under stream copy.
// The match is informational: the engine logs it before falling back to the
// encode path, where the subtitle policy takes over.
var reSubtitleUnsupported = regexp.MustCompile(
	`(?i)Subtitle codec .* is not supported|` +
		`Could not find tag for codec \S*subtitle\S* in stream|` +
		`Subtitle encoding currently only possible from text to text or bitmap to bitmap`)

// MatchSubtitleUnsupported reports whether stderr contains a subtitle
// container-compatibility error.
func MatchSubtitleUnsupported(stderr string) bool {
	return reSubtitleUnsupported.MatchString(stderr)
}

// StderrTail returns the last n non-empty lines of stderr, for compact
// failure logging. ffmpeg repeats progress lines heavily; the tail is where
// the actual error lives.
func StderrTail(stderr string, n int) []string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	var kept []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return kept
}
