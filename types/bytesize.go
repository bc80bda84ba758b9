package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var byteUnits = map[string]float64{
	"B":   1,
	"KB":  1000,
	"KIB": 1024,
	"MB":  1000 * 1000,
	"MIB": 1024 * 1024,
	"GB":  1000 * 1000 * 1000,
	"GIB": 1024 * 1024 * 1024,
	"TB":  1000 * 1000 * 1000 * 1000,
	"TIB": 1024 * 1024 * 1024 * 1024,
}

// ParseByteSize parses a human byte size like "1.5GB" or "512MiB" emitted
// by `container stats`/`system df` (spec §4.F) into a byte count.
func ParseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	i := 0
	for i < len(s) && (s[i] == '.' || s[i] == '-' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	numPart := s[:i]
	unitPart := strings.ToUpper(strings.TrimSpace(s[i:]))
	if numPart == "" {
		return 0, fmt.Errorf("no numeric prefix in byte size %q", s)
	}

	n, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing byte size %q: %w", s, err)
	}
	if unitPart == "" {
		return int64(n), nil
	}
	mult, ok := byteUnits[unitPart]
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit %q in %q", unitPart, s)
	}
	return int64(math.Round(n * mult)), nil
}

// ParsePercent strips a trailing "%" and parses the remainder as a float.
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, fmt.Errorf("empty percent value")
	}
	return strconv.ParseFloat(s, 64)
}

// ParseSlashPair splits an "A / B" string (spec §4.F: BlockIO/MemUsage/NetIO
// in `container stats`) into its two byte-size halves.
func ParseSlashPair(s string) (a, b int64, err error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected \"A / B\" pair, got %q", s)
	}
	a, err = ParseByteSize(parts[0])
	if err != nil {
		return 0, 0, err
	}
	b, err = ParseByteSize(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
