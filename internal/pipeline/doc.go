// Package pipeline orchestrates batch runs: discovery under the input
// root, the per-file needs-conversion gate, the sequential conversion loop,
// and session report accumulation. Plan mode prints the would-be work as a
// read-only table; watch mode schedules incremental batches from
// filesystem events.
package pipeline
