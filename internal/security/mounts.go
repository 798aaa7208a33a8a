package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DeniedPaths are never bind-mounted into the NWChem container
var DeniedPaths = []string{
	"~/.gnupg",
	"~/.netrc",
	"~/.ssh",
	"~/.docker/config.json",
	"~/.kube/config",
	"~/.aws/credentials",
}

// ExpandPath expands ~ to the user's home directory, makes the path
// absolute and resolves symlinks. Paths that do not exist yet are returned
// cleaned but unresolved.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = expandTilde(path, home)
	}

	path = filepath.Clean(path)
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		path = abs
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	return resolved, nil
}

// ValidateMountPath checks if a host path is allowed to be mounted
func ValidateMountPath(path string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	for _, denied := range DeniedPaths {
		if pathMatches(path, expandTilde(denied, home)) {
			return fmt.Errorf("path is in denied list: %s", denied)
		}
	}

	return nil
}

// pathMatches checks if path is equal to or a child of target
func pathMatches(path, target string) bool {
	if path == target {
		return true
	}

	rel, err := filepath.Rel(target, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func expandTilde(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		return home
	}
	return path
}
