package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/backmassage/transmux/internal/config"
	"github.com/backmassage/transmux/internal/display"
	"github.com/backmassage/transmux/internal/probe"
	"github.com/backmassage/transmux/internal/term"
)

// planRow holds the probed per-file data for the plan table.
type planRow struct {
	Name   string
	Size   string
	Action string // convert, skip, or error
	Height string
	Audio  string
	Subs   string
	Tracks []probe.SubtitleTrack
}

// Plan probes every candidate and prints a read-only table of the work a
// batch would perform: resolved action, source height, audio presence, and
// subtitle tracks. Nothing is converted and nothing on disk changes.
func Plan(ctx context.Context, cfg *config.Config, deps Deps) error {
	files, err := Discover(cfg)
	if err != nil {
		return fmt.Errorf("file discovery failed: %w", err)
	}
	if len(files) == 0 {
		deps.Log.Warn().Str("input", cfg.InputDir).Msg("no media files found")
		return nil
	}

	total := len(files)
	deps.Log.Info().Int("files", total).Str("input", cfg.InputDir).Msg("planning")

	isTTY := term.IsTerminal(os.Stdout)
	rows := make([]planRow, 0, total)
	for i, path := range files {
		if ctx.Err() != nil {
			clearProgress(isTTY)
			deps.Log.Warn().Msg("interrupted")
			return ctx.Err()
		}
		printProgress(isTTY, i+1, total, filepath.Base(path))
		rows = append(rows, planFile(ctx, cfg, deps, path))
	}
	clearProgress(isTTY)

	printPlanTable(rows)
	printSubtitleDetail(rows)

	var convertN, skipN int
	for _, r := range rows {
		switch r.Action {
		case "convert":
			convertN++
		case "skip":
			skipN++
		}
	}
	deps.Log.Info().Int("convert", convertN).Int("skip", skipN).Msg("plan complete")
	return nil
}

// planFile probes one candidate and fills its table row.
func planFile(ctx context.Context, cfg *config.Config, deps Deps, path string) planRow {
	row := planRow{Name: filepath.Base(path)}

	if fi, err := os.Stat(path); err == nil {
		row.Size = display.FormatBytes(fi.Size())
	} else {
		row.Size = "n/a"
	}

	output, err := deps.Resolver.Preview(path)
	switch {
	case err != nil:
		row.Action = "error"
	case needsConversion(cfg, path, output):
		row.Action = "convert"
	default:
		row.Action = "skip"
	}

	if h := deps.Prober.Height(ctx, path); h > 0 {
		row.Height = strconv.Itoa(h)
	} else {
		row.Height = "n/a"
	}

	if deps.Prober.HasAudio(ctx, path) {
		row.Audio = "yes"
	} else {
		row.Audio = "no"
	}

	row.Tracks = deps.Prober.Subtitles(ctx, path)
	if len(row.Tracks) == 0 {
		row.Subs = "none"
	} else {
		row.Subs = strconv.Itoa(len(row.Tracks))
	}
	return row
}

func printPlanTable(rows []planRow) {
	nameW := len("File")
	sizeW := len("Size")
	actW := len("Action")
	hW := len("Height")
	aW := len("Audio")
	sW := len("Subs")

	for _, r := range rows {
		if len(r.Name) > nameW {
			nameW = len(r.Name)
		}
		if len(r.Size) > sizeW {
			sizeW = len(r.Size)
		}
		if len(r.Action) > actW {
			actW = len(r.Action)
		}
		if len(r.Height) > hW {
			hW = len(r.Height)
		}
		if len(r.Audio) > aW {
			aW = len(r.Audio)
		}
		if len(r.Subs) > sW {
			sW = len(r.Subs)
		}
	}

	if nameW > 50 {
		nameW = 50
	}

	header := fmt.Sprintf("  %-*s  %-*s  %-*s  %-*s  %-*s  %-*s",
		nameW, "File",
		sizeW, "Size",
		actW, "Action",
		hW, "Height",
		aW, "Audio",
		sW, "Subs",
	)
	separator := "  " + strings.Repeat("─", len(header)-2)

	fmt.Println(header)
	fmt.Println(separator)

	for _, r := range rows {
		name := r.Name
		if len(name) > nameW {
			name = name[:nameW-1] + "…"
		}

		// Pad the plain text first, then wrap in ANSI color. This avoids
		// the alignment bug where %-*s counts escape bytes as visible width.
		actCell := colorAction(r.Action, actW)

		fmt.Printf("  %-*s  %-*s  %s  %-*s  %-*s  %-*s\n",
			nameW, name,
			sizeW, r.Size,
			actCell,
			hW, r.Height,
			aW, r.Audio,
			sW, r.Subs,
		)
	}
	fmt.Println()
}

func colorAction(action string, width int) string {
	padded := fmt.Sprintf("%-*s", width, action)
	switch action {
	case "convert":
		return term.Green + padded + term.NC
	case "skip":
		return term.Yellow + padded + term.NC
	case "error":
		return term.Red + padded + term.NC
	default:
		return padded
	}
}

// printSubtitleDetail lists the probed subtitle tracks for files that have
// any, one indented line per track.
func printSubtitleDetail(rows []planRow) {
	printed := false
	for _, r := range rows {
		if len(r.Tracks) == 0 {
			continue
		}
		fmt.Printf("  %s\n", r.Name)
		for _, tr := range r.Tracks {
			fmt.Printf("    %s\n", tr)
		}
		printed = true
	}
	if printed {
		fmt.Println()
	}
}

// printProgress shows a live probe counter. On a TTY it writes an inline
// \r-overwritten line; otherwise it is a no-op (piped output already gets
// the log breadcrumbs).
func printProgress(isTTY bool, current, total int, name string) {
	if !isTTY {
		return
	}
	pct := current * 100 / total
	status := fmt.Sprintf("  Probing [%d/%d] %d%% ", current, total, pct)

	maxName := 40
	if len(name) > maxName {
		name = name[:maxName-1] + "…"
	}
	status += name

	// Pad to 80 chars to overwrite previous longer lines, then \r.
	if len(status) < 80 {
		status += strings.Repeat(" ", 80-len(status))
	}
	fmt.Fprintf(os.Stdout, "\r%s", status)
}

// clearProgress erases the inline progress line on a TTY.
func clearProgress(isTTY bool) {
	if !isTTY {
		return
	}
	fmt.Fprintf(os.Stdout, "\r%s\r", strings.Repeat(" ", 80))
}
