package types

import "testing"

func TestDecodeContainerStats(t *testing.T) {
	line := ContainerStatsLine{
		Container: "abc123",
		Name:      "web",
		CPUPerc:   "3.21%",
		MemUsage:  "100MiB / 1GiB",
		MemPerc:   "9.77%",
		NetIO:     "1.2kB / 3.4kB",
		BlockIO:   "0B / 4.1MB",
		PIDs:      "7",
	}

	got := DecodeContainerStats(line)

	if got.CPUPercent != 3.21 {
		t.Errorf("CPUPercent = %v", got.CPUPercent)
	}
	if got.MemUsedBytes != 100*1024*1024 {
		t.Errorf("MemUsedBytes = %v", got.MemUsedBytes)
	}
	if got.MemLimitBytes != 1024*1024*1024 {
		t.Errorf("MemLimitBytes = %v", got.MemLimitBytes)
	}
	if got.PIDs != 7 {
		t.Errorf("PIDs = %v", got.PIDs)
	}
	if got.BlockWriteBytes != 4100000 {
		t.Errorf("BlockWriteBytes = %v", got.BlockWriteBytes)
	}
}

func TestDecodeContainerStatsToleratesUnparseableFields(t *testing.T) {
	line := ContainerStatsLine{CPUPerc: "n/a", PIDs: "n/a"}
	got := DecodeContainerStats(line)
	if got.CPUPercent != 0 || got.PIDs != 0 {
		t.Errorf("expected zero values for unparseable fields, got %+v", got)
	}
}
