package types

import (
	"regexp"
	"strings"
)

// ProcessTable is the parsed payload of `container top`'s column-aligned
// text output: a header row of titles followed by one row per process,
// in the same "textual, not JSON" family as Builder (spec §4.F).
type ProcessTable struct {
	Titles    []string
	Processes [][]string
}

var processTableWord = regexp.MustCompile(`\S+`)

// ParseProcessTable parses `container top`'s output: a header line of
// space-separated column titles (UID, PID, PPID, C, STIME, TTY, TIME, CMD,
// ...), followed by data rows padded to align under those titles. The last
// column (CMD) is taken verbatim from its start offset to end of line,
// since it may itself contain internal spaces.
func ParseProcessTable(text string) ProcessTable {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if strings.TrimSpace(raw) != "" {
			lines = append(lines, raw)
		}
	}
	if len(lines) == 0 {
		return ProcessTable{}
	}

	starts := headerStarts(lines[0])
	titles := fieldsAtStarts(lines[0], starts)

	var rows [][]string
	for _, line := range lines[1:] {
		rows = append(rows, fieldsAtStarts(line, starts))
	}
	return ProcessTable{Titles: titles, Processes: rows}
}

func headerStarts(header string) []int {
	locs := processTableWord.FindAllStringIndex(header, -1)
	starts := make([]int, len(locs))
	for i, l := range locs {
		starts[i] = l[0]
	}
	return starts
}

func fieldsAtStarts(line string, starts []int) []string {
	out := make([]string, 0, len(starts))
	for i, start := range starts {
		if start >= len(line) {
			out = append(out, "")
			continue
		}
		end := len(line)
		if i+1 < len(starts) && starts[i+1] <= len(line) {
			end = starts[i+1]
		}
		out = append(out, strings.TrimSpace(line[start:end]))
	}
	return out
}
