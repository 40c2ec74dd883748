package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSessionCounters(t *testing.T) {
	s := NewSession(ModeNormal)
	if s.ID == "" {
		t.Fatal("session must get an ID")
	}

	s.Total = 6
	s.AddConverted(true)
	s.AddConverted(true)
	s.AddConverted(false)
	s.AddSkipped()
	s.AddFailure("/in/a.mkv", ReasonAudioValidation, 2)
	s.AddFailure("/in/b.mkv", ReasonRetryExhausted, 3)

	if s.Converted != 3 || s.Remuxed != 2 || s.Encoded != 1 {
		t.Errorf("converted/remuxed/encoded = %d/%d/%d, want 3/2/1", s.Converted, s.Remuxed, s.Encoded)
	}
	if s.Skipped != 1 || s.Failed != 2 {
		t.Errorf("skipped/failed = %d/%d, want 1/2", s.Skipped, s.Failed)
	}
	if s.AudioFailures != 1 || s.RetryFailures != 1 || s.GenericFailures != 0 {
		t.Errorf("buckets = %d/%d/%d, want 1/1/0", s.AudioFailures, s.RetryFailures, s.GenericFailures)
	}
	if len(s.FailedFiles) != 2 || s.FailedFiles[0].Attempts != 2 {
		t.Errorf("failed files = %+v", s.FailedFiles)
	}
}

func TestSessionPlannedCountsAsConverted(t *testing.T) {
	s := NewSession(ModeDryRun)
	s.AddPlanned()
	s.AddPlanned()
	if s.Converted != 2 || s.Remuxed != 0 || s.Encoded != 0 {
		t.Errorf("planned must bump only the aggregate counter: %+v", s)
	}
}

func TestSessionText(t *testing.T) {
	s := NewSession(ModeNormal)
	s.StartedAt = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s.FinishedAt = s.StartedAt.Add(95 * time.Second)
	s.Total = 4
	s.AddConverted(true)
	s.AddConverted(false)
	s.AddSkipped()
	s.AddFailure("/in/broken.mkv", ReasonAudioValidation, 2)

	text := s.Text()
	for _, want := range []string{
		s.ID,
		"Mode:      normal",
		"Duration:  1m 35s",
		"Total files found:       4",
		"Converted successfully:  2 (1 remuxed, 1 encoded)",
		"Skipped (up to date):    1",
		"Failed:                  1",
		"audio validation:      1",
		"/in/broken.mkv (audio-validation, 2 attempts)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "retries exhausted") {
		t.Error("empty bucket line must be omitted")
	}
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "work", "summary.txt")

	s := NewSession(ModeNormal)
	s.Total = 1
	s.AddConverted(true)
	s.Finalize()

	if err := WriteSummary(path, s); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), s.ID) {
		t.Errorf("summary file missing session ID:\n%s", b)
	}

	// Overwriting an existing summary must succeed too.
	s2 := NewSession(ModeNormal)
	s2.Finalize()
	if err := WriteSummary(path, s2); err != nil {
		t.Fatal(err)
	}
	b, _ = os.ReadFile(path)
	if !strings.Contains(string(b), s2.ID) {
		t.Error("summary not replaced")
	}
}
