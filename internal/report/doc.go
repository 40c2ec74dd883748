// Package report accumulates per-file outcomes into a session report and
// persists it: a human-readable summary block written atomically to the
// work directory, and a SQLite journal of past sessions for the history
// listing.
package report
