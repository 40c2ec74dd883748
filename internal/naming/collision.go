package naming

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// SamePath reports whether candidate and existing refer to the same file
// once both are made absolute and symlinks are resolved. The candidate may
// not exist yet; its unresolvable trailing components are compared verbatim
// on top of their deepest existing ancestor.
func SamePath(candidate, existing string) (bool, error) {
	c, err := canonicalPath(candidate)
	if err != nil {
		return false, err
	}
	e, err := canonicalPath(existing)
	if err != nil {
		return false, err
	}
	return c == e, nil
}

// canonicalPath returns path made absolute with symlinks resolved.
// Components that do not exist are kept verbatim and rejoined onto their
// deepest existing ancestor, so a not-yet-written output can still be
// compared against a real file.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	dir := abs
	var tail []string
	for {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Nothing along the path exists; compare textually.
			return abs, nil
		}
		tail = append(tail, filepath.Base(dir))
		dir = parent
	}
}
