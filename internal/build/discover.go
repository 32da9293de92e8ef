package build

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// shouldSkipDirectory checks if a directory should be skipped during file discovery.
// Returns true for hidden directories (starting with .) and common build/dependency directories.
func shouldSkipDirectory(info os.FileInfo) bool {
	if !info.IsDir() {
		return false
	}

	// Skip hidden directories
	if strings.HasPrefix(info.Name(), ".") {
		return true
	}

	// Skip common build/dependency directories
	skipDirs := []string{"node_modules", "dist", "build"}
	return slices.Contains(skipDirs, info.Name())
}

// matchesAnyPattern checks if a file path matches any of the given glob patterns.
// Returns true if the file matches at least one pattern.
func matchesAnyPattern(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		// doublestar.Match expects forward slashes, but Windows paths use backslashes
		matched, err := doublestar.Match(pattern, filepath.ToSlash(relPath))
		if err == nil && matched {
			return true
		}
	}
	return false
}

// Discover returns the root-relative paths of files under root matching
// include and not exclude, in lexical order. Directories in skip (absolute
// paths) are not entered.
func Discover(root string, include, exclude []string, skip ...string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}

		if path != root && (shouldSkipDirectory(info) || (info.IsDir() && slices.Contains(skip, path))) {
			return filepath.SkipDir
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if matchesAnyPattern(relPath, include) && !matchesAnyPattern(relPath, exclude) {
			files = append(files, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	return files, nil
}
