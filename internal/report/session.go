package report

import (
	"time"

	"github.com/google/uuid"
)

// Mode labels how a session was run.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeDryRun Mode = "dry-run"
)

// FailReason buckets a failed file for reporting.
type FailReason string

const (
	ReasonGeneric         FailReason = "generic"
	ReasonAudioValidation FailReason = "audio-validation"
	ReasonRetryExhausted  FailReason = "retry-exhausted"
)

// FailedFile records one file that could not be converted.
type FailedFile struct {
	Path     string
	Reason   FailReason
	Attempts int
}

// Session accumulates per-file outcomes for one batch run. Counters are
// mutated through the Add methods; Total is set once after discovery.
type Session struct {
	ID   string
	Mode Mode

	Total     int
	Converted int
	Remuxed   int
	Encoded   int
	Skipped   int
	Failed    int

	AudioFailures   int
	RetryFailures   int
	GenericFailures int

	FailedFiles []FailedFile

	StartedAt  time.Time
	FinishedAt time.Time
}

// NewSession starts a session of the given mode with a fresh ID.
func NewSession(mode Mode) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		StartedAt: time.Now(),
	}
}

// AddConverted records a successful conversion; viaRemux selects the
// strategy counter.
func (s *Session) AddConverted(viaRemux bool) {
	s.Converted++
	if viaRemux {
		s.Remuxed++
	} else {
		s.Encoded++
	}
}

// AddPlanned records a file a dry run would have converted. The strategy is
// unknown before ffmpeg runs, so only the aggregate counter moves.
func (s *Session) AddPlanned() { s.Converted++ }

// AddSkipped records a file that needed no work.
func (s *Session) AddSkipped() { s.Skipped++ }

// AddFailure records a failed file in its reason bucket.
func (s *Session) AddFailure(path string, reason FailReason, attempts int) {
	s.Failed++
	switch reason {
	case ReasonAudioValidation:
		s.AudioFailures++
	case ReasonRetryExhausted:
		s.RetryFailures++
	default:
		s.GenericFailures++
	}
	s.FailedFiles = append(s.FailedFiles, FailedFile{Path: path, Reason: reason, Attempts: attempts})
}

// Finalize stamps the end time.
func (s *Session) Finalize() { s.FinishedAt = time.Now() }

// Duration returns the session wall time, zero before Finalize.
func (s *Session) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
