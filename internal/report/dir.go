// Package report writes session artifacts: the numbered session
// directory, the saved data file and the markdown summary.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CreateSessionDir creates the next numbered session directory under
// base, named NNN_YYYYMMDD_HHMMSS. Numbering continues from the highest
// existing prefix.
func CreateSessionDir(base string, now time.Time) (string, error) {
	if err := os.MkdirAll(base, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", base, err)
	}

	next := nextSequence(base)
	name := fmt.Sprintf("%03d_%s", next, now.Format("20060102_150405"))
	dir := filepath.Join(base, name)
	if err := os.Mkdir(dir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}

func nextSequence(base string) int {
	entries, err := os.ReadDir(base)
	if err != nil {
		return 1
	}

	var seqs []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(prefix); err == nil {
			seqs = append(seqs, n)
		}
	}
	if len(seqs) == 0 {
		return 1
	}
	sort.Ints(seqs)
	return seqs[len(seqs)-1] + 1
}
