// Package pathutil confines file operations requested by MCP clients to
// known directories.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Within resolves name against root and returns the absolute, symlink-free
// path if it stays inside root. A relative name is taken relative to root.
// Neither root nor name needs to exist yet.
func Within(root, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("path contains null byte")
	}
	if root == "" {
		return "", fmt.Errorf("no root directory configured")
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(root, name)
	}

	base, err := resolve(root)
	if err != nil {
		return "", err
	}
	target, err := resolve(name)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q is outside %s", Redact(target), Redact(base))
	}
	return target, nil
}

// Confine returns the resolved path if it lies inside any of roots, else
// the error of the first root.
func Confine(path string, roots ...string) (string, error) {
	if len(roots) == 0 {
		return "", fmt.Errorf("no allowed directories configured")
	}
	var firstErr error
	for _, root := range roots {
		resolved, err := Within(root, path)
		if err == nil {
			return resolved, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", firstErr
}

// resolve makes path absolute and evaluates symlinks on its deepest existing
// ancestor, keeping the missing tail as written.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", Redact(path), err)
	}

	var tail []string
	for dir := abs; ; {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("cannot resolve %s", Redact(abs))
		}
		tail = append([]string{filepath.Base(dir)}, tail...)
		dir = parent
	}
}

// Redact shortens path to its parent and base name for error messages, so
// "/home/user/.ratingsim/runs.db" reads ".../.ratingsim/runs.db".
func Redact(path string) string {
	if path == "" {
		return ""
	}
	path = filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(path))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(path)
	}
	return ".../" + parent + "/" + filepath.Base(path)
}
