package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// relocateFailed moves source into the failed-items directory, creating it
// on demand, and returns the new location.
func (e *Engine) relocateFailed(source string) (string, error) {
	dir := e.cfg.FailedDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create failed-items directory: %w", err)
	}
	target := filepath.Join(dir, filepath.Base(source))
	if err := moveFile(source, target); err != nil {
		return "", fmt.Errorf("move %s: %w", filepath.Base(source), err)
	}
	return target, nil
}

// moveFile renames src to dst, falling back to copy+remove when the rename
// fails (typically a cross-filesystem move).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
