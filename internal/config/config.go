// Package config holds runtime configuration: defaults, the optional YAML
// profile file, environment overrides, CLI flag parsing, and validation.
// Precedence is defaults < profile file < environment < explicit flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// --- Enum types for validated string fields ---

// Container is the output container format.
type Container string

const (
	ContainerMP4 Container = "mp4" // MP4 (default; subtitles converted to mov_text).
	ContainerMKV Container = "mkv" // Matroska (subtitle streams copied as-is).
)

// Placement controls where output files are written.
type Placement string

const (
	PlacementMirrored Placement = "mirrored" // Mirror the input tree under the output root (default).
	PlacementSameDir  Placement = "same-dir" // Write next to the source file.
)

// SubtitleMode controls subtitle handling on the encode path.
type SubtitleMode string

const (
	SubsNone SubtitleMode = "none" // Drop subtitle streams (default).
	SubsKeep SubtitleMode = "keep" // Re-multiplex subtitle streams into the output.
	SubsBurn SubtitleMode = "burn" // Rasterize subtitles into the video plane.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// EncodeParams holds the ffmpeg parameter lists for the re-encode strategy,
// split into standard and 4K variants. Each list is injected verbatim into
// the encode command between the input and the stream maps.
type EncodeParams struct {
	Video    []string // Default: -c:v libx264 -preset slow -crf 18.
	Audio    []string // Default: -c:a aac.
	VideoUHD []string // Default: -c:v libx264 -preset slow -crf 16.
	AudioUHD []string // Default: -c:a aac -b:a 640k.
}

// Named extension profiles selecting which files are conversion candidates.
var extensionProfiles = map[string][]string{
	"plex":     {".m4v", ".mp4", ".mov", ".mkv"},
	"archival": {".mkv", ".mov"},
}

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then layered by [ParseFlags] (profile file, environment, CLI flags) before
// being passed (by pointer) to packages that need it. It is never mutated
// after startup.
type Config struct {
	// Paths (set from positional args).
	InputDir  string
	OutputDir string // Empty in same-dir placement.

	// Housekeeping directory for summary.txt, history.db, and failed/.
	// Resolved by Validate when empty: <OutputDir>/.transmux, or
	// <InputDir>/.transmux in same-dir placement.
	WorkDir string

	// Conversion policy.
	Container      Container
	Placement      Placement
	Subtitles      SubtitleMode
	MaxRetries     int  // Additional attempts beyond the first. Default: 1.
	ValidateAudio  bool // Default: true. Cleared by --no-validate-audio.
	HighQuality4K  bool // Select the 4K encode parameter set for UHD sources.
	UHDMinHeight   int  // Default: 2160.
	DeleteOriginal bool // Remove the source after a successful conversion.
	Overwrite      bool // Default: false (existing outputs are skipped). Set by --force.

	// Naming: substrings stripped from output stems, in order.
	RenamePatterns []string

	// Discovery.
	ExtProfile string   // Named extension profile. Default: "plex".
	Extensions []string // Explicit extension list; overrides ExtProfile when set.

	// External binaries.
	FFmpegBin  string // Default: "ffmpeg". Env: FFMPEG_BINARY.
	FFprobeBin string // Default: "ffprobe". Env: FFPROBE_BINARY.

	// Encode parameter sets.
	Encode EncodeParams

	// Notifications.
	WebhookURL string // Empty disables delivery. Env: TRANSMUX_WEBHOOK_URL.
	NoWebhook  bool   // Suppress delivery even when a URL is configured.

	// Run modes.
	DryRun      bool
	PlanOnly    bool
	Watch       bool
	CheckOnly   bool
	HistoryOnly bool

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode
	LogFile   string // Optional JSON log file path.

	// Profile file path (--profile). Recorded for the startup banner.
	ProfilePath string
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// [ParseFlags] layers the profile file, environment, and CLI overrides.
func DefaultConfig() Config {
	return Config{
		Container:      ContainerMP4,
		Placement:      PlacementMirrored,
		Subtitles:      SubsNone,
		MaxRetries:     1,
		ValidateAudio:  true,
		HighQuality4K:  false,
		UHDMinHeight:   2160,
		DeleteOriginal: false,
		Overwrite:      false,
		ExtProfile:     "plex",
		FFmpegBin:      "ffmpeg",
		FFprobeBin:     "ffprobe",
		Encode: EncodeParams{
			Video:    []string{"-c:v", "libx264", "-preset", "slow", "-crf", "18"},
			Audio:    []string{"-c:a", "aac"},
			VideoUHD: []string{"-c:v", "libx264", "-preset", "slow", "-crf", "16"},
			AudioUHD: []string{"-c:a", "aac", "-b:a", "640k"},
		},
		ColorMode: ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and numeric bounds, normalizes the extension
// list, and resolves the work directory. --check relaxes the positional path
// requirements; --history keeps them because the history DB lives in the
// target's work directory.
func (c *Config) Validate() error {
	switch c.Container {
	case ContainerMP4, ContainerMKV:
		// valid
	default:
		return errors.New("invalid container (use 'mp4' or 'mkv')")
	}

	switch c.Placement {
	case PlacementMirrored, PlacementSameDir:
		// valid
	default:
		return errors.New("invalid placement (use 'mirrored' or 'same-dir')")
	}

	switch c.Subtitles {
	case SubsNone, SubsKeep, SubsBurn:
		// valid
	default:
		return errors.New("invalid subtitle mode (use 'none', 'keep' or 'burn')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0 (got %d)", c.MaxRetries)
	}
	if c.UHDMinHeight <= 0 {
		return fmt.Errorf("4K height threshold must be positive (got %d)", c.UHDMinHeight)
	}
	if c.FFmpegBin == "" || c.FFprobeBin == "" {
		return errors.New("ffmpeg and ffprobe binary names must not be empty")
	}
	if len(c.Encode.Video) == 0 || len(c.Encode.Audio) == 0 ||
		len(c.Encode.VideoUHD) == 0 || len(c.Encode.AudioUHD) == 0 {
		return errors.New("encode parameter sets must not be empty")
	}

	exts, err := c.resolveExtensions()
	if err != nil {
		return err
	}
	c.Extensions = exts

	if c.CheckOnly {
		return nil
	}
	if c.InputDir == "" {
		return errors.New("need an input_dir")
	}
	if c.Placement == PlacementSameDir {
		if c.OutputDir != "" {
			return errors.New("same-dir placement takes no output_dir")
		}
	} else if c.OutputDir == "" {
		return errors.New("need an output_dir (or --same-dir)")
	}

	if c.WorkDir == "" {
		base := c.OutputDir
		if c.Placement == PlacementSameDir {
			base = c.InputDir
		}
		c.WorkDir = filepath.Join(base, ".transmux")
	}
	return nil
}

// resolveExtensions returns the normalized candidate extension list: the
// explicit Extensions field when set, otherwise the named profile.
func (c *Config) resolveExtensions() ([]string, error) {
	src := c.Extensions
	if len(src) == 0 {
		profile, ok := extensionProfiles[c.ExtProfile]
		if !ok {
			return nil, fmt.Errorf("unknown extension profile %q (use 'plex' or 'archival')", c.ExtProfile)
		}
		src = profile
	}

	out := make([]string, 0, len(src))
	for _, e := range src {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, errors.New("extension list must not be empty")
	}
	return out, nil
}

// ExtensionSet returns the candidate extensions as a lookup map.
func (c *Config) ExtensionSet() map[string]bool {
	set := make(map[string]bool, len(c.Extensions))
	for _, e := range c.Extensions {
		set[e] = true
	}
	return set
}

// OutputExt returns the canonical extension for the target container,
// including the leading dot.
func (c *Config) OutputExt() string {
	return "." + string(c.Container)
}

// FailedDir is where sources that exhausted their retries are moved.
func (c *Config) FailedDir() string { return filepath.Join(c.WorkDir, "failed") }

// SummaryPath is the on-disk location of the session summary text.
func (c *Config) SummaryPath() string { return filepath.Join(c.WorkDir, "summary.txt") }

// HistoryPath is the on-disk location of the run-history database.
func (c *Config) HistoryPath() string { return filepath.Join(c.WorkDir, "history.db") }

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved input directory, which would make the pipeline discover
// its own output files. Both arguments must be absolute, symlink-resolved
// paths. Same-dir placement skips the check: outputs beside inputs is the
// requested layout there, and the collision rule keeps re-runs safe.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	if c.Placement == PlacementSameDir {
		return nil
	}
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}
