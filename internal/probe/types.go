package probe

import "fmt"

// SubtitleTrack describes one subtitle stream for plan display and logging.
type SubtitleTrack struct {
	Index    int
	Codec    string
	Language string // "und" when the stream carries no language tag.
	Title    string
}

// String renders the track as `#2 [eng] subrip "Signs"`; the title part is
// omitted when empty.
func (t SubtitleTrack) String() string {
	s := fmt.Sprintf("#%d [%s] %s", t.Index, t.Language, t.Codec)
	if t.Title != "" {
		s += fmt.Sprintf(" %q", t.Title)
	}
	return s
}
