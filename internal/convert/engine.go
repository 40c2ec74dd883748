package convert

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/backmassage/transmux/internal/config"
	"github.com/backmassage/transmux/internal/ffmpeg"
	"github.com/backmassage/transmux/internal/probe"
)

// Strategy identifies which command produced an output.
type Strategy string

const (
	StrategyRemux  Strategy = "remux"
	StrategyEncode Strategy = "encode"
)

// FailKind classifies why a file could not be converted.
type FailKind int

const (
	FailNone  FailKind = iota
	FailTool           // ffmpeg exited nonzero on the final attempt
	FailAudio          // output kept failing audio validation
)

// String returns the report bucket label for the failure kind.
func (k FailKind) String() string {
	switch k {
	case FailTool:
		return "retry-exhausted"
	case FailAudio:
		return "audio-validation"
	default:
		return "none"
	}
}

// Outcome is the terminal result of converting one file.
type Outcome struct {
	Source        string
	Output        string
	Strategy      Strategy // strategy of the final attempt
	Attempts      int
	Converted     bool
	Fail          FailKind // FailNone when Converted
	SourceRemoved bool     // original deleted after success
	MovedTo       string   // failed-items location, when relocation succeeded
}

// Engine drives the per-file conversion state machine: remux first, encode
// fallback within the same attempt, post-run audio validation, and bounded
// retries. Each retry cycle starts over at remux, so a transient failure
// never permanently demotes a file to the slow path.
type Engine struct {
	cfg    *config.Config
	run    ffmpeg.Runner
	prober *probe.Prober
	log    zerolog.Logger
}

// New returns an Engine using run for ffmpeg and prober for validation.
func New(cfg *config.Config, run ffmpeg.Runner, prober *probe.Prober, log zerolog.Logger) *Engine {
	return &Engine{cfg: cfg, run: run, prober: prober, log: log}
}

// Convert processes one file. The output path must already be resolved and
// collision-checked. Convert never returns an error: every failure mode is
// folded into the Outcome so the batch can continue.
func (e *Engine) Convert(ctx context.Context, source, output string) Outcome {
	out := Outcome{Source: source, Output: output}
	base := filepath.Base(source)

	maxAttempts := 1 + e.cfg.MaxRetries
	var lastFail FailKind

	for out.Attempts < maxAttempts {
		out.Attempts++
		strategy, ok := e.attempt(ctx, source, output, out.Attempts, &lastFail)
		out.Strategy = strategy
		if ok {
			out.Converted = true
			break
		}
		if ctx.Err() != nil {
			// The in-flight command was killed; further cycles would only
			// burn attempts against a dead context.
			break
		}
		if out.Attempts < maxAttempts {
			e.log.Warn().Str("file", base).
				Int("attempt", out.Attempts).Int("max", maxAttempts).
				Msg("attempt failed, retrying")
		}
	}

	if !out.Converted {
		out.Fail = lastFail
		e.log.Error().Str("file", base).
			Int("attempts", out.Attempts).Str("reason", lastFail.String()).
			Msg("conversion failed")
		moved, err := e.relocateFailed(source)
		if err != nil {
			e.log.Error().Err(err).Str("file", base).Msg("could not move source to failed items")
		} else {
			out.MovedTo = moved
			e.log.Info().Str("file", base).Str("to", moved).Msg("moved to failed items")
		}
		return out
	}

	e.log.Info().Str("file", base).
		Str("strategy", string(out.Strategy)).Int("attempts", out.Attempts).
		Msg("converted")

	if e.cfg.DeleteOriginal {
		if err := os.Remove(source); err != nil {
			e.log.Warn().Err(err).Str("file", base).Msg("could not delete original")
		} else {
			out.SourceRemoved = true
			e.log.Debug().Str("file", base).Msg("deleted original")
		}
	}
	return out
}

// attempt runs one remux-then-encode cycle. It reports the strategy of the
// last command in the cycle and whether the cycle ended with a validated
// output on disk.
func (e *Engine) attempt(ctx context.Context, source, output string, n int, lastFail *FailKind) (Strategy, bool) {
	base := filepath.Base(source)

	strategy := StrategyRemux
	e.log.Debug().Str("file", base).Int("attempt", n).Msg("trying remux")
	res := e.run.Run(ctx, e.cfg.FFmpegBin, ffmpeg.RemuxArgs(e.cfg, source, output))
	if res.Err != nil {
		if ffmpeg.MatchSubtitleUnsupported(res.Stderr) {
			e.log.Info().Str("file", base).Msg("container rejected subtitle stream under copy")
		}
		e.log.Debug().Str("file", base).Int("attempt", n).Msg("remux failed, trying encode")
		e.removeArtifact(output)

		strategy = StrategyEncode
		uhd := e.wantsUHD(ctx, source)
		if uhd {
			e.log.Debug().Str("file", base).Msg("using 4K encode parameters")
		}
		res = e.run.Run(ctx, e.cfg.FFmpegBin, ffmpeg.EncodeArgs(e.cfg, source, output, uhd))
	}

	if res.Err != nil {
		*lastFail = FailTool
		for _, line := range ffmpeg.StderrTail(res.Stderr, 5) {
			e.log.Debug().Str("file", base).Msg(line)
		}
		e.removeArtifact(output)
		return strategy, false
	}

	if e.cfg.ValidateAudio && !e.prober.HasAudio(ctx, output) {
		*lastFail = FailAudio
		e.log.Warn().Str("file", base).Int("attempt", n).Msg("output has no audio stream, discarding")
		e.removeArtifact(output)
		return strategy, false
	}

	return strategy, true
}

// wantsUHD reports whether the 4K parameter set applies: the toggle must be
// on and the probed source height must reach the threshold. With the toggle
// off the height probe is skipped entirely.
func (e *Engine) wantsUHD(ctx context.Context, source string) bool {
	if !e.cfg.HighQuality4K {
		return false
	}
	return e.prober.Height(ctx, source) >= e.cfg.UHDMinHeight
}

// removeArtifact deletes a partial or invalid output left by a failed
// cycle.
func (e *Engine) removeArtifact(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		e.log.Debug().Err(err).Str("path", path).Msg("could not remove partial output")
	}
}
