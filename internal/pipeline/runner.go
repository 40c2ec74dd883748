package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/backmassage/transmux/internal/config"
	"github.com/backmassage/transmux/internal/convert"
	"github.com/backmassage/transmux/internal/ffmpeg"
	"github.com/backmassage/transmux/internal/logging"
	"github.com/backmassage/transmux/internal/naming"
	"github.com/backmassage/transmux/internal/probe"
	"github.com/backmassage/transmux/internal/report"
)

// Deps bundles the collaborators the batch loop drives. Tests substitute
// scripted runners; production wiring comes from [NewDeps].
type Deps struct {
	Runner   ffmpeg.Runner
	Prober   *probe.Prober
	Engine   *convert.Engine
	Resolver *naming.Resolver
	Log      zerolog.Logger
}

// NewDeps wires the production collaborators from cfg.
func NewDeps(cfg *config.Config, log zerolog.Logger) Deps {
	run := &ffmpeg.ExecRunner{Verbose: cfg.Verbose}
	prober := probe.New(cfg, run, logging.WithComponent(log, "probe"))
	return Deps{
		Runner:   run,
		Prober:   prober,
		Engine:   convert.New(cfg, run, prober, logging.WithComponent(log, "convert")),
		Resolver: naming.NewResolver(cfg),
		Log:      logging.WithComponent(log, "pipeline"),
	}
}

// Run executes one batch: discover candidates, process them sequentially,
// and return the accumulated session report. Cancellation is honored
// between files; the file in flight is killed by its CommandContext. Run
// itself never prints or persists anything, that is the entrypoint's job.
func Run(ctx context.Context, cfg *config.Config, deps Deps) *report.Session {
	mode := report.ModeNormal
	if cfg.DryRun {
		mode = report.ModeDryRun
	}
	s := report.NewSession(mode)
	defer s.Finalize()

	if !cfg.DryRun {
		if err := os.MkdirAll(cfg.FailedDir(), 0o755); err != nil {
			deps.Log.Error().Err(err).Str("dir", cfg.FailedDir()).Msg("cannot create work directory")
			return s
		}
	}

	files, err := Discover(cfg)
	if err != nil {
		deps.Log.Error().Err(err).Str("input", cfg.InputDir).Msg("file discovery failed")
		return s
	}

	s.Total = len(files)
	deps.Log.Info().Int("files", s.Total).Str("input", cfg.InputDir).Str("mode", string(mode)).Msg("batch start")

	for i, path := range files {
		if ctx.Err() != nil {
			deps.Log.Warn().Msg("interrupted")
			break
		}
		processFile(ctx, cfg, deps, s, path, i+1)
	}

	deps.Log.Info().
		Int("converted", s.Converted).Int("skipped", s.Skipped).Int("failed", s.Failed).
		Msg("batch done")
	return s
}

// processFile handles one candidate: resolve the output path, apply the
// needs-conversion gate, then convert. Every failure is recorded on the
// session; nothing stops the batch.
func processFile(ctx context.Context, cfg *config.Config, deps Deps, s *report.Session, path string, n int) {
	base := filepath.Base(path)
	log := deps.Log.With().Str("file", base).Logger()
	log.Info().Int("n", n).Int("of", s.Total).Msg("processing")

	output, err := deps.Resolver.Preview(path)
	if err != nil {
		log.Error().Err(err).Msg("cannot resolve output path")
		s.AddFailure(path, report.ReasonGeneric, 0)
		return
	}

	if !needsConversion(cfg, path, output) {
		log.Info().Str("output", filepath.Base(output)).Msg("skip, output exists")
		s.AddSkipped()
		return
	}

	if cfg.DryRun {
		log.Info().Str("output", output).Msg("would convert")
		s.AddPlanned()
		return
	}

	// Same path as the preview; Resolve additionally creates the output
	// directory now that work is certain.
	if output, err = deps.Resolver.Resolve(path); err != nil {
		log.Error().Err(err).Msg("cannot create output directory")
		s.AddFailure(path, report.ReasonGeneric, 0)
		return
	}

	out := deps.Engine.Convert(ctx, path, output)
	if !out.Converted {
		s.AddFailure(path, failReason(out.Fail), out.Attempts)
		return
	}
	s.AddConverted(out.Strategy == convert.StrategyRemux)
}

// needsConversion decides whether source still requires work: the extension
// must be in the candidate set and the resolved output must not already
// exist unless overwriting. Discovery already filters by extension, but the
// check is repeated so paths arriving from watch events get the same gate.
func needsConversion(cfg *config.Config, source, output string) bool {
	if !cfg.ExtensionSet()[strings.ToLower(filepath.Ext(source))] {
		return false
	}
	if cfg.Overwrite {
		return true
	}
	_, err := os.Stat(output)
	return err != nil
}

// failReason maps an engine failure kind onto its report bucket.
func failReason(k convert.FailKind) report.FailReason {
	switch k {
	case convert.FailAudio:
		return report.ReasonAudioValidation
	case convert.FailTool:
		return report.ReasonRetryExhausted
	default:
		return report.ReasonGeneric
	}
}
