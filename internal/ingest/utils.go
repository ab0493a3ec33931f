package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/bg-batch/constants"
)

// AllowedExt checks if a file extension is in the supported input set.
func AllowedExt(ext string) bool {
	return constants.IsSupportedExt(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

func allowed(name string, exts map[string]struct{}) bool {
	ext := constants.NormalizeExt(filepath.Ext(name))
	if ext == "" {
		return false
	}
	if exts == nil {
		return AllowedExt(ext)
	}
	_, ok := exts[ext]
	return ok
}
