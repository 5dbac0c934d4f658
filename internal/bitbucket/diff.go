package bitbucket

import (
	"fmt"
	"strings"
)

// FilterDiffByFile keeps only the file sections of a unified diff whose
// "diff --git" header mentions path.
func FilterDiffByFile(diff, path string) string {
	var out []string
	keep := false
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "diff --git") {
			keep = strings.Contains(line, path)
		}
		if keep {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// LimitLines truncates text to max lines and notes how many were dropped.
func LimitLines(text string, max int) string {
	lines := strings.Split(text, "\n")
	if max < 0 || len(lines) <= max {
		return text
	}
	return strings.Join(lines[:max], "\n") + fmt.Sprintf("\n... (%d more lines)", len(lines)-max)
}
