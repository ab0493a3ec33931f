package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/joseph-ayodele/bg-batch/constants"
)

var reOutputName = regexp.MustCompile(`^` + regexp.QuoteMeta(constants.OutputPrefix) + `([0-9]+)\.([A-Za-z]+)$`)

// ComputeStartNumber returns one past the highest img_<digits>.<ext> number found in
// outputDir, or 1 when there is none. A missing or unreadable directory counts as empty.
// Names that do not match or do not parse are skipped.
func ComputeStartNumber(outputDir string) int {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return 1
	}

	highest := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n, ok := ParseOutputNumber(e.Name())
		if !ok {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1
}

// ParseOutputNumber extracts the sequence number from an output file name.
func ParseOutputNumber(name string) (int, bool) {
	m := reOutputName.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, false
	}
	if !constants.IsOutputExt(m[2]) {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// OutputName renders the file name for an assigned number: img_0007.jpg.
func OutputName(number int, format constants.OutputFormat) string {
	return fmt.Sprintf("%s%04d%s", constants.OutputPrefix, number, format.Ext())
}
