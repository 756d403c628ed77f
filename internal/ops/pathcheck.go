package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hpungsan/medmastery/internal/config"
	"github.com/hpungsan/medmastery/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // import: .jsonl or .xlsx
	PathCheckWrite                      // export: .jsonl
)

func (m PathCheckMode) extensions() []string {
	if m == PathCheckRead {
		return []string{".jsonl", ".xlsx"}
	}
	return []string{".jsonl"}
}

// ValidatePath checks an import or export path:
// no ".." components, an accepted extension, a parent directory that is
// exactly exportsDir or an allowed_paths entry, and no symlink at the parent
// or the file itself.
//
// Files must sit directly in an allowed directory so no intermediate
// component can be swapped for a symlink between this check and the
// O_NOFOLLOW open. allow_unsafe_paths lifts the directory rule only.
func ValidatePath(path string, mode PathCheckMode, cfg *config.Config, exportsDir string) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	exts := mode.extensions()
	if !slices.Contains(exts, strings.ToLower(filepath.Ext(cleaned))) {
		return errors.NewInvalidRequest(fmt.Sprintf("path must have one of the extensions %v", exts))
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		allowedDirs, err := getAllowedDirs(cfg, exportsDir)
		if err != nil {
			return err
		}
		parentDir := filepath.Dir(absPath)
		if !slices.Contains(allowedDirs, parentDir) {
			return errors.NewInvalidRequest(
				fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v", allowedDirs))
		}
		if isSymlink(parentDir) {
			return errors.NewInvalidRequest("parent directory must not be a symlink")
		}
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
	}
	if isSymlink(absPath) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// getAllowedDirs returns exportsDir plus the absolute allowed_paths entries,
// cleaned. Entries that are symlinks are resolved to their targets.
func getAllowedDirs(cfg *config.Config, exportsDir string) ([]string, error) {
	dirs := []string{exportsDir}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				dirs = append(dirs, p)
			}
		}
	}

	result := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if isSymlink(abs) {
			resolved, err := filepath.EvalSymlinks(abs)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
			abs = resolved
		}
		result = append(result, abs)
	}
	return result, nil
}

// containsTraversal reports whether any component of path is "..",
// splitting on both the OS separator and '/'.
func containsTraversal(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}

// SanitizeForFilename makes s safe to embed in an export file name.
func SanitizeForFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ' ':
			return '-'
		case r < 32 || r == 127:
			return -1
		}
		return r
	}, strings.ToLower(s))
	s = strings.ReplaceAll(s, "..", "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-.")
	if s == "" {
		return "unnamed"
	}
	return s
}
