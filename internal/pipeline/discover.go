package pipeline

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/backmassage/transmux/internal/config"
)

// Discover walks the input root and collects files matching the configured
// extension set. Hidden directories (dot-prefixed, which includes the work
// directory) are pruned. Results are sorted lexicographically for
// deterministic processing order.
func Discover(cfg *config.Config) ([]string, error) {
	exts := cfg.ExtensionSet()

	var files []string
	err := filepath.WalkDir(cfg.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != cfg.InputDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if exts[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
