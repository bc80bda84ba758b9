package types

import "strings"

// Builder is the materialized payload for a buildx builder instance.
// Unlike every other entity kind, `buildx inspect` emits a textual
// key-colon-value block rather than JSON (spec §4.F), so Builder is parsed
// by ParseBuilder instead of encoding/json.
type Builder struct {
	Name   string
	Driver string
	Nodes  []BuilderNode
}

type BuilderNode struct {
	Name      string
	Endpoint  string
	Status    string
	Platforms []string
}

// ParseBuilder parses the textual block produced by `buildx inspect`: a
// leading "Name:"/"Driver:" header, then a "Nodes:" separator introducing
// one or more node sub-blocks, each starting its own "Name:" line (spec
// §4.F, worked example in spec §8 scenario 7).
func ParseBuilder(text string) Builder {
	var b Builder
	var node *BuilderNode
	inNodes := false

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		if line == "Nodes:" {
			inNodes = true
			continue
		}

		key, val, ok := splitColon(line)
		if !ok {
			continue
		}

		if !inNodes {
			switch key {
			case "Name":
				b.Name = val
			case "Driver":
				b.Driver = val
			}
			continue
		}

		switch key {
		case "Name":
			if node != nil {
				b.Nodes = append(b.Nodes, *node)
			}
			node = &BuilderNode{Name: val}
		case "Endpoint":
			if node != nil {
				node.Endpoint = val
			}
		case "Status":
			if node != nil {
				node.Status = val
			}
		case "Platforms":
			if node != nil {
				node.Platforms = splitCommaList(val)
			}
		}
	}
	if node != nil {
		b.Nodes = append(b.Nodes, *node)
	}
	return b
}

func splitColon(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

func splitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
