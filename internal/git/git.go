package git

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

type ChangedFile struct {
	Path         string
	ChangedLines []int
}

var chunkHeader = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// GetChangedFiles runs git diff in dir against baseRef and returns the changed
// files with the line numbers touched in their new version.
func GetChangedFiles(dir, baseRef string) ([]ChangedFile, error) {
	cmd := exec.Command("git", "diff", "-U0", baseRef)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}

	return parseDiff(output)
}

func parseDiff(output []byte) ([]ChangedFile, error) {
	var changes []ChangedFile
	current := -1

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "diff --git "):
			// diff --git a/<old> b/<new>
			fields := strings.Fields(line)
			if len(fields) < 4 {
				continue
			}
			changes = append(changes, ChangedFile{Path: strings.TrimPrefix(fields[3], "b/"), ChangedLines: []int{}})
			current = len(changes) - 1
		case strings.HasPrefix(line, "@@") && current >= 0:
			if lines, ok := hunkLines(line); ok {
				changes[current].ChangedLines = append(changes[current].ChangedLines, lines...)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read git diff: %w", err)
	}
	return changes, nil
}

// hunkLines returns the new-file lines covered by a hunk header. A pure
// deletion covers no line; the line it follows marks the change instead.
func hunkLines(header string) ([]int, bool) {
	m := chunkHeader.FindStringSubmatch(header)
	if m == nil {
		return nil, false
	}
	start, _ := strconv.Atoi(m[1])
	count := 1
	if m[2] != "" {
		count, _ = strconv.Atoi(m[2])
	}
	if count == 0 {
		return []int{start}, true
	}
	lines := make([]int, count)
	for i := range lines {
		lines[i] = start + i
	}
	return lines, true
}
