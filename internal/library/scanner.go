package library

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir walks root and returns the absolute paths of all PDF files below it,
// sorted. Hidden directories are skipped.
func ScanDir(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		files = append(files, abs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
