package requestfile

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// Expand resolves glob patterns (including ** for any depth) to a sorted,
// de-duplicated list of files. A pattern that matches nothing is an error.
//
// Example:
//
//	files, err := requestfile.Expand([]string{"requests/**/*.yaml"})
func Expand(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
		matches, err := doublestar.Glob(os.DirFS(base), rest, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		for _, m := range matches {
			files = append(files, filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m)))
		}
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}
