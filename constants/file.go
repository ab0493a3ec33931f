package constants

import "strings"

// SupportedExtensions holds the input image extensions picked up by discovery (lowercase, without '.').
var SupportedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"bmp":  {},
	"tiff": {},
}

// OutputExtensions holds every extension an existing output file may carry for numbering purposes.
var OutputExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"bmp":  {},
	"tiff": {},
	"tif":  {},
}

// OutputPrefix is the stem prefix of every generated output file.
const OutputPrefix = "img_"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsSupportedExt reports whether ext (with or without '.') is a discoverable input extension.
func IsSupportedExt(ext string) bool {
	_, ok := SupportedExtensions[NormalizeExt(ext)]
	return ok
}

// IsOutputExt reports whether ext (with or without '.') can belong to a numbered output.
func IsOutputExt(ext string) bool {
	_, ok := OutputExtensions[NormalizeExt(ext)]
	return ok
}
