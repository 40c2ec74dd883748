// Package check provides system diagnostics (--check mode) and pre-batch
// dependency validation for the external ffmpeg and ffprobe tools.
package check

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/backmassage/transmux/internal/config"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
)

// RunCheck runs the --check diagnostic flow: tool presence and versions,
// then libx264 and AAC self-tests through lavfi sources. Every step is
// logged; the return value is false when any step failed.
func RunCheck(cfg *config.Config, log zerolog.Logger) bool {
	ok := true
	ok = checkTool(log, cfg.FFmpegBin) && ok
	ok = checkTool(log, cfg.FFprobeBin) && ok
	ok = checkVideoEncoder(cfg, log) && ok
	ok = checkAudioEncoder(cfg, log) && ok
	return ok
}

// checkTool verifies bin is on PATH and logs its version string.
func checkTool(log zerolog.Logger, bin string) bool {
	path, err := exec.LookPath(bin)
	if err != nil {
		log.Error().Str("tool", bin).Msg("not found on PATH")
		return false
	}
	out, err := exec.Command(bin, "-version").Output()
	if err != nil {
		log.Warn().Err(err).Str("tool", bin).Msg("found but -version failed")
		return false
	}
	version := strings.TrimSpace(string(out))
	if idx := strings.Index(version, "\n"); idx > 0 {
		version = version[:idx]
	}
	log.Info().Str("path", path).Str("version", version).Msg("tool found")
	return true
}

// checkVideoEncoder runs a minimal libx264 encode to verify the re-encode
// strategy has a working video encoder.
func checkVideoEncoder(cfg *config.Config, log zerolog.Logger) bool {
	if runSilent(cfg.FFmpegBin, videoTestArgs()...) {
		log.Info().Msg("libx264 encoder works")
		return true
	}
	log.Error().Msg("libx264 test encode failed")
	return false
}

// checkAudioEncoder runs a minimal AAC encode.
func checkAudioEncoder(cfg *config.Config, log zerolog.Logger) bool {
	if runSilent(cfg.FFmpegBin, audioTestArgs()...) {
		log.Info().Msg("AAC encoder works")
		return true
	}
	log.Error().Msg("AAC encoder test failed")
	return false
}

// CheckDeps verifies before a batch that the configured ffmpeg and ffprobe
// binaries resolve on PATH. Encoder self-tests belong to --check.
func CheckDeps(cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.FFmpegBin); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := exec.LookPath(cfg.FFprobeBin); err != nil {
		return ErrFfprobeNotFound
	}
	return nil
}

// --- internal helpers ---

// videoTestArgs returns the ffmpeg arguments for a minimal libx264 test
// encode against a synthetic source.
func videoTestArgs() []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-c:v", "libx264",
		"-f", "null", "-",
	}
}

// audioTestArgs returns the ffmpeg arguments for a minimal AAC test encode.
func audioTestArgs() []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-c:a", "aac",
		"-f", "null", "-",
	}
}

// runSilent runs a command and returns true if it exits with status 0.
// Both stdout and stderr are discarded.
func runSilent(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}
