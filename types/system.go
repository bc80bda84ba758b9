package types

import (
	"strconv"
	"strings"
	"time"
)

// SystemInfo is the `system info` / `info` payload.
type SystemInfo struct {
	ID                string `json:"ID"`
	Containers        int    `json:"Containers"`
	ContainersRunning int    `json:"ContainersRunning"`
	ContainersPaused  int    `json:"ContainersPaused"`
	ContainersStopped int    `json:"ContainersStopped"`
	Images            int    `json:"Images"`
	Driver            string `json:"Driver"`
	ServerVersion     string `json:"ServerVersion"`
	OperatingSystem   string `json:"OperatingSystem"`
	Architecture      string `json:"Architecture"`
	NCPU              int    `json:"NCPU"`
	MemTotal          int64  `json:"MemTotal"`
	SwarmState        string `json:"-"` // flattened from Swarm.LocalNodeState by NormalizeSystemInfo
	Swarm             struct {
		LocalNodeState string `json:"LocalNodeState"`
	} `json:"Swarm"`
}

func NormalizeSystemInfo(info *SystemInfo) {
	info.SwarmState = info.Swarm.LocalNodeState
}

// DiskUsageLine is one JSON object from `system df --format '{{json .}}'`,
// one per category (Images, Containers, Local Volumes, Build Cache).
type DiskUsageLine struct {
	Type        string `json:"Type"`
	TotalCount  string `json:"TotalCount"`
	Active      string `json:"Active"`
	Size        string `json:"Size"`
	Reclaimable string `json:"Reclaimable"`
}

// DiskUsage is DiskUsageLine with Size/Reclaimable decoded into bytes and
// the reclaimable percentage split out (spec §4.F: "the Reclaimable field
// is split into a byte-size part and an optional percent part in
// parentheses; when no percent is present, 100% is assumed").
type DiskUsage struct {
	Type               string
	TotalCount         int
	Active             int
	SizeBytes          int64
	ReclaimableBytes   int64
	ReclaimablePercent float64
}

func DecodeDiskUsage(line DiskUsageLine) DiskUsage {
	d := DiskUsage{Type: line.Type}
	if n, err := strconv.Atoi(strings.TrimSpace(line.TotalCount)); err == nil {
		d.TotalCount = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(line.Active)); err == nil {
		d.Active = n
	}
	if v, err := ParseByteSize(line.Size); err == nil {
		d.SizeBytes = v
	}

	reclaim, pct := splitReclaimable(line.Reclaimable)
	if v, err := ParseByteSize(reclaim); err == nil {
		d.ReclaimableBytes = v
	}
	if pct == "" {
		d.ReclaimablePercent = 100
	} else if v, err := ParsePercent(pct); err == nil {
		d.ReclaimablePercent = v
	}
	return d
}

// splitReclaimable splits "1.2GB (80%)" into ("1.2GB", "80%"), or returns
// the whole string with an empty percent when no parenthesized part is
// present.
func splitReclaimable(s string) (size, percent string) {
	s = strings.TrimSpace(s)
	open := strings.Index(s, "(")
	if open < 0 {
		return s, ""
	}
	close := strings.Index(s, ")")
	if close < open {
		return strings.TrimSpace(s[:open]), ""
	}
	return strings.TrimSpace(s[:open]), strings.TrimSpace(s[open+1 : close])
}

// Event is one line of `system events --format '{{json .}}'`.
type Event struct {
	Type   string            `json:"Type"`
	Action string            `json:"Action"`
	Actor  EventActor        `json:"Actor"`
	Time   int64             `json:"time"`
	TimeNano int64           `json:"timeNano"`
}

type EventActor struct {
	ID         string            `json:"ID"`
	Attributes map[string]string `json:"Attributes"`
}

func (e Event) Timestamp() time.Time {
	return time.Unix(e.Time, 0)
}

// ContextInfo is the `context inspect` payload.
type ContextInfo struct {
	Name     string            `json:"Name"`
	Metadata map[string]any    `json:"Metadata"`
	Endpoints map[string]struct {
		Host          string `json:"Host"`
		SkipTLSVerify bool   `json:"SkipTLSVerify"`
	} `json:"Endpoints"`
}

// Plugin is one entry of `plugin ls --format '{{json .}}'`.
type Plugin struct {
	ID      string `json:"ID"`
	Name    string `json:"Name"`
	Enabled bool   `json:"Enabled"`
}
