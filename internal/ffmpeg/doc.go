// Package ffmpeg builds argument lists for the external ffmpeg binary and
// runs it (and ffprobe) through a context-aware [Runner].
//
// The package is split into:
//   - builder.go: pure argument construction. [RemuxArgs] produces the
//     stream-copy command, [EncodeArgs] the re-encode command with the
//     standard or 4K parameter set and the configured subtitle policy.
//   - executor.go: [Runner] and its production implementation [ExecRunner],
//     which captures stdout and stderr and kills the child process when the
//     context is cancelled.
//   - errors.go: stderr classification helpers shared by the conversion
//     engine's logging.
//
// Builders never touch the filesystem or spawn processes; everything they
// emit is derived from the configuration and the input/output paths, so the
// exact command for any situation can be asserted in tests.
package ffmpeg
