package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiscoverInputs lists the files directly inside inputDir whose extension is in exts
// (lowercased, without '.'; nil -> constants.SupportedExtensions). Hidden files and
// subdirectories are skipped. The returned order is the directory listing order.
func DiscoverInputs(inputDir string, exts map[string]struct{}) ([]string, error) {
	if strings.TrimSpace(inputDir) == "" {
		return nil, errors.New("input dir is required")
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if IsHidden(e.Name()) {
			continue
		}
		if !isRegular(inputDir, e) {
			continue
		}
		if !allowed(e.Name(), exts) {
			continue
		}
		files = append(files, filepath.Join(inputDir, e.Name()))
	}
	return files, nil
}

// isRegular follows symlinks so a link to an image counts, a link to a directory does not.
func isRegular(dir string, e os.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	st, err := os.Stat(filepath.Join(dir, e.Name()))
	return err == nil && st.Mode().IsRegular()
}
