package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/backmassage/transmux/internal/config"
)

// Resolver computes collision-safe output paths from the conversion
// profile. Resolution is deterministic: the same source and an unchanged
// configuration always map to the same output path.
type Resolver struct {
	cfg *config.Config
}

// NewResolver returns a Resolver bound to cfg.
func NewResolver(cfg *config.Config) *Resolver { return &Resolver{cfg: cfg} }

// Resolve returns the output path for source and guarantees its base
// directory exists. The returned path is never the source itself: when the
// candidate and the source canonicalize to the same file (same-directory
// placement with an unchanged name), a "_converted" suffix is appended to
// the stem until they differ.
func (r *Resolver) Resolve(source string) (string, error) {
	baseDir, err := r.baseDir(source)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return r.resolveIn(baseDir, source)
}

// Preview computes the same path as Resolve without creating directories.
// Dry-run and plan modes use it to keep the filesystem untouched.
func (r *Resolver) Preview(source string) (string, error) {
	baseDir, err := r.baseDir(source)
	if err != nil {
		return "", err
	}
	return r.resolveIn(baseDir, source)
}

func (r *Resolver) resolveIn(baseDir, source string) (string, error) {
	stem := CleanStem(stemOf(source), r.cfg.RenamePatterns)
	ext := r.cfg.OutputExt()

	candidate := filepath.Join(baseDir, stem+ext)
	for {
		same, err := SamePath(candidate, source)
		if err != nil {
			return "", fmt.Errorf("compare output path with source: %w", err)
		}
		if !same {
			return candidate, nil
		}
		stem += "_converted"
		candidate = filepath.Join(baseDir, stem+ext)
	}
}

// baseDir picks the directory the output lands in: the source's own
// directory for same-dir placement, otherwise the source's position under
// the input root transplanted onto the output root.
func (r *Resolver) baseDir(source string) (string, error) {
	if r.cfg.Placement == config.PlacementSameDir {
		return filepath.Dir(source), nil
	}
	rel, err := filepath.Rel(r.cfg.InputDir, filepath.Dir(source))
	if err != nil {
		return "", fmt.Errorf("source %s is outside the input root: %w", source, err)
	}
	return filepath.Join(r.cfg.OutputDir, rel), nil
}

// stemOf returns the file name without its final extension.
func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
