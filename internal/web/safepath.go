package web

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SafePath resolves userPath against the artifacts base directory and rejects
// any result that escapes it. Screenshot and report destinations can come from
// suite files or CLI flags, so they are never trusted as-is.
func SafePath(base, userPath string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	var resolved string
	if filepath.IsAbs(userPath) {
		resolved = filepath.Clean(userPath)
	} else {
		resolved = filepath.Clean(filepath.Join(absBase, userPath))
	}

	// Ensure resolved path is within or equal to base
	if !strings.HasPrefix(resolved, absBase+string(filepath.Separator)) && resolved != absBase {
		return "", fmt.Errorf("path %q escapes base directory %q", userPath, absBase)
	}

	return resolved, nil
}
