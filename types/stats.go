package types

import "strconv"

// ContainerStatsLine is one JSON object from `container stats
// --no-stream --format '{{json .}}'`, emitted one per line per container
// (spec §4.F). Fields arrive as pre-formatted display strings, not raw
// numbers, matching the engine's own --format json output.
type ContainerStatsLine struct {
	Container string `json:"Container"`
	Name      string `json:"Name"`
	ID        string `json:"ID"`
	CPUPerc   string `json:"CPUPerc"`
	MemUsage  string `json:"MemUsage"`
	MemPerc   string `json:"MemPerc"`
	NetIO     string `json:"NetIO"`
	BlockIO   string `json:"BlockIO"`
	PIDs      string `json:"PIDs"`
}

// ContainerStats is ContainerStatsLine with its display strings decoded
// into numeric fields.
type ContainerStats struct {
	Container    string
	Name         string
	ID           string
	CPUPercent   float64
	MemUsedBytes int64
	MemLimitBytes int64
	MemPercent   float64
	NetRxBytes   int64
	NetTxBytes   int64
	BlockReadBytes  int64
	BlockWriteBytes int64
	PIDs         int
}

// DecodeContainerStats converts the raw display-string line into the
// numeric ContainerStats, tolerating any field that fails to parse by
// leaving its decoded value at zero.
func DecodeContainerStats(line ContainerStatsLine) ContainerStats {
	s := ContainerStats{
		Container: line.Container,
		Name:      line.Name,
		ID:        line.ID,
	}
	if v, err := ParsePercent(line.CPUPerc); err == nil {
		s.CPUPercent = v
	}
	if v, err := ParsePercent(line.MemPerc); err == nil {
		s.MemPercent = v
	}
	if used, limit, err := ParseSlashPair(line.MemUsage); err == nil {
		s.MemUsedBytes, s.MemLimitBytes = used, limit
	}
	if rx, tx, err := ParseSlashPair(line.NetIO); err == nil {
		s.NetRxBytes, s.NetTxBytes = rx, tx
	}
	if r, w, err := ParseSlashPair(line.BlockIO); err == nil {
		s.BlockReadBytes, s.BlockWriteBytes = r, w
	}
	if n, err := strconv.Atoi(line.PIDs); err == nil {
		s.PIDs = n
	}
	return s
}
