// Package security keeps generated files inside the configured output
// directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFilePerm is used for generated documents
const DefaultFilePerm = 0o640

// OutputGuard validates and writes paths under a single directory
type OutputGuard struct {
	dir string
}

// NewOutputGuard creates a guard for dir
func NewOutputGuard(dir string) (*OutputGuard, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	return &OutputGuard{dir: filepath.Clean(abs)}, nil
}

// Directory returns the guarded directory
func (g *OutputGuard) Directory() string {
	return g.dir
}

// SanitizeFileName replaces path separators and NUL so that name cannot
// escape the output directory.
func SanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
	if name == "." || name == ".." {
		return strings.Repeat("_", len(name))
	}
	return name
}

// Resolve returns the absolute path of name. Relative names are taken
// relative to the output directory; any result outside it is rejected.
func (g *OutputGuard) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(g.dir, name)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if !g.IsWithin(abs) {
		return "", fmt.Errorf("path is outside output directory: %s", name)
	}
	return abs, nil
}

// IsWithin reports whether path lies inside the output directory, also after
// resolving symlinks of either side.
func (g *OutputGuard) IsWithin(path string) bool {
	cleanPath := filepath.Clean(path)
	realPath := cleanPath
	if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
		realPath = resolved
	}

	realDir := g.dir
	if resolved, err := filepath.EvalSymlinks(g.dir); err == nil {
		realDir = resolved
	}

	within := func(p string) bool {
		for _, d := range []string{g.dir, realDir} {
			if p == d || strings.HasPrefix(p, d+string(filepath.Separator)) {
				return true
			}
		}
		return false
	}
	return within(cleanPath) && within(realPath)
}

// WriteFile writes data to name inside the output directory. The file is
// written to a temporary sibling first and renamed into place.
func (g *OutputGuard) WriteFile(name string, data []byte) (string, error) {
	target, err := g.Resolve(SanitizeFileName(name))
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(g.dir, ".sign-form-*")
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(DefaultFilePerm); err != nil {
		tmp.Close()
		return "", fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("moving document into place: %w", err)
	}
	return target, nil
}
