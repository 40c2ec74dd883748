package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into conversion, output, naming, modes, display, and utility.
// The profile file and environment are layered before Parse so that explicit
// flags always win; negated flags (e.g. --no-validate-audio) are applied after
// Parse so Config defaults hold unless set.

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// version is shown in --version and help; override at build time with -ldflags "-X ...config.version=...".
var version = "1.0.0-dev"

// Version reports the build version string.
func Version() string { return version }

// ParseFlags layers the profile file, environment, and CLI flags onto cfg, in
// that order. On --help or --version it prints and exits. On error it returns
// non-nil (e.g. unknown flag, bad profile file, missing positional args).
func ParseFlags(cfg *Config) error {
	// The profile file must load before flag values land in cfg, so the
	// --profile path is peeked from the raw arguments first.
	if path := peekProfilePath(os.Args[1:]); path != "" {
		if err := LoadProfile(cfg, path); err != nil {
			return err
		}
		cfg.ProfilePath = path
	}
	ApplyEnv(cfg)

	fs := flag.NewFlagSet("transmux", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	var negated negatedFlags

	defineConversionFlags(fs, cfg, &negated)
	defineOutputFlags(fs, cfg, &negated)
	defineModeFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, cfg, &negated)

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(fs)
		os.Exit(0)
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "transmux v"+version)
		os.Exit(0)
	}

	return parsePositionalArgs(fs, cfg)
}

// peekProfilePath scans raw args for --profile/-P without a full parse.
// Handles both "--profile path" and "--profile=path" forms.
func peekProfilePath(args []string) string {
	for i, a := range args {
		name, inline, hasInline := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || (name != "profile" && name != "P") {
			continue
		}
		if hasInline {
			return inline
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// negatedFlags holds boolean flags that are applied after Parse.
// These either invert a default (e.g. noValidateAudio -> ValidateAudio=false)
// or trigger exit (showHelp, showVersion).
type negatedFlags struct {
	noValidateAudio bool
	force           bool
	forceColor      bool
	noColor         bool
	showVersion     bool
	showHelp        bool
}

// defineConversionFlags registers container, subtitle, retry, and 4K flags.
func defineConversionFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.Var(&containerValue{&cfg.Container}, "container", "Output container: mp4 | mkv")
	fs.Var(&subtitleModeValue{&cfg.Subtitles}, "subs", "Subtitle mode: none | keep | burn")
	fs.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "Extra attempts after the first failure")
	fs.BoolVar(&cfg.HighQuality4K, "high-quality-4k", cfg.HighQuality4K, "Use the 4K parameter set for UHD sources")
	fs.BoolVar(&n.noValidateAudio, "no-validate-audio", false, "Skip the audio check on converted output")
}

// defineOutputFlags registers placement, overwrite, delete, naming, and discovery flags.
func defineOutputFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.Var(&placementValue{&cfg.Placement}, "placement", "Output placement: mirrored | same-dir")
	fs.BoolVar(&n.force, "force", false, "Overwrite existing output files")
	fs.BoolVar(&n.force, "f", false, "Same as --force")
	fs.BoolVar(&cfg.DeleteOriginal, "delete-original", cfg.DeleteOriginal, "Remove the source after successful conversion")
	fs.Var(&patternsValue{&cfg.RenamePatterns}, "strip", "Comma-separated substrings removed from output names")
	fs.StringVar(&cfg.ExtProfile, "ext-profile", cfg.ExtProfile, "Extension profile: plex | archival")
	fs.StringVar(&cfg.WorkDir, "work-dir", cfg.WorkDir, "Housekeeping directory (reports, failed items)")
	fs.StringVar(&cfg.WebhookURL, "webhook-url", cfg.WebhookURL, "Webhook endpoint for the session report")
	fs.BoolVar(&cfg.NoWebhook, "no-webhook", cfg.NoWebhook, "Do not deliver the report even if a URL is set")
}

// defineModeFlags registers the run mode flags (dry-run, plan, watch).
func defineModeFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Preview only; do not convert or touch files")
	fs.BoolVar(&cfg.DryRun, "d", false, "Same as --dry-run")
	fs.BoolVar(&cfg.PlanOnly, "plan", false, "Probe and list planned work, then exit")
	fs.BoolVar(&cfg.Watch, "watch", false, "Keep running and convert new files as they appear")
	fs.BoolVar(&cfg.Watch, "w", false, "Same as --watch")
}

// defineDisplayFlags registers --color, --no-color, verbose, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.StringVar(&cfg.LogFile, "log", "", "Append JSON logs to file")
	fs.StringVar(&cfg.LogFile, "l", "", "Same as --log")
}

// defineUtilityFlags registers --profile, --check, --history, --version, --help.
func defineUtilityFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	// --profile is consumed by peekProfilePath before Parse; registered here
	// so the flag package accepts it and help lists it.
	fs.StringVar(&cfg.ProfilePath, "profile", cfg.ProfilePath, "YAML profile file")
	fs.StringVar(&cfg.ProfilePath, "P", cfg.ProfilePath, "Same as --profile")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.BoolVar(&cfg.HistoryOnly, "history", false, "Show recent sessions for the target and exit")
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noValidateAudio {
		cfg.ValidateAudio = false
	}
	if n.force {
		cfg.Overwrite = true
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets InputDir (and OutputDir in mirrored placement)
// from the positional args. Utility modes take no positionals beyond the
// usual target directories; --check takes none at all.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly {
		return nil
	}
	if cfg.Placement == PlacementSameDir {
		if len(args) != 1 {
			return fmt.Errorf("same-dir placement needs exactly input_dir")
		}
		cfg.InputDir = NormalizeDirArg(args[0])
		return nil
	}
	if len(args) != 2 {
		return fmt.Errorf("need exactly input_dir and output_dir")
	}
	cfg.InputDir = NormalizeDirArg(args[0])
	cfg.OutputDir = NormalizeDirArg(args[1])
	return nil
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(fs *flag.FlagSet) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "transmux v" + version + " — remux-first batch video converter"},
		{"", ""},
		{"  transmux [OPTIONS] <input_dir> <output_dir>", ""},
		{"  transmux [OPTIONS] --placement same-dir <input_dir>", ""},
		{"", ""},
		{"Conversion", ""},
		{"  --container <mp4|mkv>", "Output container (default: mp4)"},
		{"  --subs <none|keep|burn>", "Subtitle mode on the encode path (default: none)"},
		{"  --max-retries <n>", "Extra attempts after the first failure (default: 1)"},
		{"  --high-quality-4k", "Use the 4K parameter set for UHD sources"},
		{"  --no-validate-audio", "Skip the audio check on converted output"},
		{"", ""},
		{"Output & naming", ""},
		{"  --placement <mode>", "mirrored (default) or same-dir"},
		{"  -f, --force", "Overwrite existing output files"},
		{"  --delete-original", "Remove the source after successful conversion"},
		{"  --strip <a,b,...>", "Substrings removed from output names, in order"},
		{"  --ext-profile <name>", "Candidate extensions: plex (default) | archival"},
		{"  --work-dir <path>", "Housekeeping dir (default: <output>/.transmux)"},
		{"", ""},
		{"Modes", ""},
		{"  -d, --dry-run", "Preview only; do not convert or touch files"},
		{"  --plan", "Probe and list planned work, then exit"},
		{"  -w, --watch", "Keep running; convert new files as they appear"},
		{"", ""},
		{"Notifications", ""},
		{"  --webhook-url <url>", "Webhook endpoint for the session report"},
		{"  --no-webhook", "Do not deliver the report even if a URL is set"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -P, --profile <path>", "YAML profile file"},
		{"  -l, --log <path>", "Append JSON logs to file"},
		{"  -c, --check", "System diagnostics (ffmpeg, ffprobe, x264, AAC)"},
		{"  --history", "Show recent sessions for the target and exit"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use enum types (Container, Placement, SubtitleMode) with flag.Var.

type containerValue struct{ p *Container }

func (c *containerValue) String() string {
	if c.p == nil {
		return ""
	}
	return string(*c.p)
}
func (c *containerValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "mp4":
		*c.p = ContainerMP4
	case "mkv":
		*c.p = ContainerMKV
	default:
		return fmt.Errorf("invalid container %q (use 'mp4' or 'mkv')", s)
	}
	return nil
}

type placementValue struct{ p *Placement }

func (p *placementValue) String() string {
	if p.p == nil {
		return ""
	}
	return string(*p.p)
}
func (p *placementValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "mirrored":
		*p.p = PlacementMirrored
	case "same-dir":
		*p.p = PlacementSameDir
	default:
		return fmt.Errorf("invalid placement %q (use 'mirrored' or 'same-dir')", s)
	}
	return nil
}

type subtitleModeValue struct{ p *SubtitleMode }

func (v *subtitleModeValue) String() string {
	if v.p == nil {
		return ""
	}
	return string(*v.p)
}
func (v *subtitleModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "none":
		*v.p = SubsNone
	case "keep":
		*v.p = SubsKeep
	case "burn", "burn-in":
		*v.p = SubsBurn
	default:
		return fmt.Errorf("invalid subtitle mode %q (use 'none', 'keep' or 'burn')", s)
	}
	return nil
}

// patternsValue parses a comma-separated list into the rename-pattern slice,
// preserving order and replacing any previously configured list.
type patternsValue struct{ p *[]string }

func (v *patternsValue) String() string {
	if v.p == nil {
		return ""
	}
	return strings.Join(*v.p, ",")
}
func (v *patternsValue) Set(s string) error {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*v.p = out
	return nil
}
