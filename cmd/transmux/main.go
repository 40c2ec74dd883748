// Command transmux is the CLI entrypoint for the transmux batch video
// converter. It parses flags, validates configuration and paths, and runs
// one of the modes: batch conversion (default), --dry-run, --plan, --watch,
// --check, or --history.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/backmassage/transmux/internal/check"
	"github.com/backmassage/transmux/internal/config"
	"github.com/backmassage/transmux/internal/display"
	"github.com/backmassage/transmux/internal/logging"
	"github.com/backmassage/transmux/internal/notify"
	"github.com/backmassage/transmux/internal/pipeline"
	"github.com/backmassage/transmux/internal/report"
)

// historyLimit caps the --history listing.
const historyLimit = 20

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr. Once Configure succeeds, all output goes through
	// the logger for consistent formatting and log-file capture.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "transmux: %v\n", err)
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "transmux: %v\n", err)
		return 2
	}

	log, closeLog, err := logging.Configure(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transmux: %v\n", err)
		return 2
	}
	defer closeLog()

	display.PrintBanner()
	log.Info().Str("version", config.Version()).Msg("transmux starting")

	if cfg.CheckOnly {
		if !check.RunCheck(&cfg, log) {
			return 1
		}
		return 0
	}
	if cfg.HistoryOnly {
		return runHistory(&cfg, log)
	}

	// Phase 2: resolve and validate paths. The input must exist; in
	// mirrored placement the output root is created and must live outside
	// the input tree.
	inputAbs, err := absPath(cfg.InputDir)
	if err != nil {
		log.Error().Str("dir", cfg.InputDir).Msg("input directory not found")
		return 2
	}
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			log.Error().Err(err).Str("dir", cfg.OutputDir).Msg("cannot create output directory")
			return 2
		}
		outputAbs, err := absPath(cfg.OutputDir)
		if err != nil {
			log.Error().Str("dir", cfg.OutputDir).Msg("cannot resolve output path")
			return 2
		}
		if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
			log.Error().Err(err).Str("input", cfg.InputDir).Msg("refusing to run")
			return 2
		}
	}

	logSessionConfig(log, &cfg)

	// Fail fast when the external tools are unavailable. A dry run makes
	// no tool invocations, so it skips the gate.
	if !cfg.DryRun {
		if err := check.CheckDeps(&cfg); err != nil {
			log.Error().Err(err).Msg("dependency check failed")
			return 1
		}
	}

	// Phase 3: signal handling. Cancel the context on SIGINT/SIGTERM so
	// the batch stops between files without leaving partial output.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn().Msg("interrupt received, stopping after the current file")
		cancel()
	}()

	deps := pipeline.NewDeps(&cfg, log)

	if cfg.PlanOnly {
		if err := pipeline.Plan(ctx, &cfg, deps); err != nil {
			log.Error().Err(err).Msg("plan failed")
			return 1
		}
		return 0
	}

	// finish prints and persists one session report: summary text to
	// stdout and summary.txt, a history row, and (outside dry runs) the
	// webhook notification.
	notifier := notify.New(cfg.WebhookURL, logging.WithComponent(log, "notify"))
	finish := func(s *report.Session) {
		fmt.Print(s.Text())

		if err := report.WriteSummary(cfg.SummaryPath(), s); err != nil {
			log.Warn().Err(err).Msg("could not write summary file")
		}
		if h, err := report.OpenHistory(cfg.HistoryPath()); err != nil {
			log.Warn().Err(err).Msg("could not open history")
		} else {
			if err := h.Record(s); err != nil {
				log.Warn().Err(err).Msg("could not record session")
			}
			h.Close()
		}

		if cfg.DryRun || cfg.NoWebhook {
			return
		}
		// Delivery outlives ctx so an interrupted batch still reports.
		if err := notifier.Send(context.Background(), s); err != nil {
			log.Warn().Err(err).Msg("webhook delivery failed")
		}
	}

	// Phase 4: run the selected mode.
	if cfg.Watch {
		if err := pipeline.Watch(ctx, &cfg, deps, finish); err != nil {
			log.Error().Err(err).Msg("watch failed")
			return 1
		}
		return 0
	}

	s := pipeline.Run(ctx, &cfg, deps)
	finish(s)

	if s.Failed > 0 {
		return 1
	}
	return 0
}

// runHistory prints the most recent recorded sessions for the target and
// exits.
func runHistory(cfg *config.Config, log zerolog.Logger) int {
	h, err := report.OpenHistory(cfg.HistoryPath())
	if err != nil {
		log.Error().Err(err).Str("db", cfg.HistoryPath()).Msg("cannot open history")
		return 1
	}
	defer h.Close()

	sessions, err := h.Recent(historyLimit)
	if err != nil {
		log.Error().Err(err).Msg("cannot read history")
		return 1
	}
	if len(sessions) == 0 {
		log.Info().Str("db", cfg.HistoryPath()).Msg("no recorded sessions")
		return 0
	}

	fmt.Printf("  %-19s  %-8s  %5s  %9s  %7s  %6s\n",
		"Started", "Mode", "Total", "Converted", "Skipped", "Failed")
	for _, s := range sessions {
		fmt.Printf("  %-19s  %-8s  %5d  %9d  %7d  %6d\n",
			s.StartedAt.Format("2006-01-02 15:04:05"), s.Mode,
			s.Total, s.Converted, s.Skipped, s.Failed)
	}
	return 0
}

// logSessionConfig echoes the effective run settings once at startup.
func logSessionConfig(log zerolog.Logger, cfg *config.Config) {
	ev := log.Info().
		Str("input", cfg.InputDir).
		Str("container", string(cfg.Container)).
		Str("placement", string(cfg.Placement)).
		Int("max_retries", cfg.MaxRetries)
	if cfg.OutputDir != "" {
		ev = ev.Str("output", cfg.OutputDir)
	}
	if cfg.ProfilePath != "" {
		ev = ev.Str("profile", cfg.ProfilePath)
	}
	ev.Msg("session configuration")

	if cfg.DryRun {
		log.Warn().Msg("dry run: nothing will be converted")
	}
	if cfg.DeleteOriginal {
		log.Warn().Msg("originals will be deleted after successful conversion")
	}
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs output directory hierarchies.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
