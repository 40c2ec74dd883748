package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/backmassage/transmux/internal/display"
)

const summaryWidth = 60

// Text renders the human-readable session summary block. Failure bucket
// lines appear only when their bucket is non-empty.
func (s *Session) Text() string {
	var b strings.Builder
	thick := strings.Repeat("=", summaryWidth)
	thin := strings.Repeat("-", summaryWidth)

	fmt.Fprintln(&b, thick)
	fmt.Fprintln(&b, " CONVERSION SESSION SUMMARY")
	fmt.Fprintln(&b, thick)
	fmt.Fprintf(&b, "Session:   %s\n", s.ID)
	fmt.Fprintf(&b, "Mode:      %s\n", s.Mode)
	fmt.Fprintf(&b, "Started:   %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Finished:  %s\n", s.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Duration:  %s\n", display.FormatDuration(s.Duration()))
	fmt.Fprintln(&b, thin)
	fmt.Fprintf(&b, "Total files found:       %d\n", s.Total)
	fmt.Fprintf(&b, "Converted successfully:  %d", s.Converted)
	if s.Remuxed > 0 || s.Encoded > 0 {
		fmt.Fprintf(&b, " (%d remuxed, %d encoded)", s.Remuxed, s.Encoded)
	}
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Skipped (up to date):    %d\n", s.Skipped)
	fmt.Fprintf(&b, "Failed:                  %d\n", s.Failed)
	if s.AudioFailures > 0 {
		fmt.Fprintf(&b, "  audio validation:      %d\n", s.AudioFailures)
	}
	if s.RetryFailures > 0 {
		fmt.Fprintf(&b, "  retries exhausted:     %d\n", s.RetryFailures)
	}
	if s.GenericFailures > 0 {
		fmt.Fprintf(&b, "  other errors:          %d\n", s.GenericFailures)
	}
	if len(s.FailedFiles) > 0 {
		fmt.Fprintln(&b, thin)
		fmt.Fprintln(&b, "Failed files:")
		for _, f := range s.FailedFiles {
			fmt.Fprintf(&b, "  - %s (%s, %d attempts)\n", f.Path, f.Reason, f.Attempts)
		}
	}
	fmt.Fprintln(&b, thick)
	return b.String()
}

// WriteSummary atomically replaces path with the session summary text, so
// readers never observe a torn file.
func WriteSummary(path string, s *Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create summary directory: %w", err)
	}
	if err := renameio.WriteFile(path, []byte(s.Text()), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
