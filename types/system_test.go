package types

import "testing"

func TestDecodeDiskUsageWithPercent(t *testing.T) {
	line := DiskUsageLine{
		Type:        "Images",
		TotalCount:  "12",
		Active:      "5",
		Size:        "1.2GB",
		Reclaimable: "800MB (66%)",
	}
	got := DecodeDiskUsage(line)

	if got.TotalCount != 12 || got.Active != 5 {
		t.Errorf("counts = %+v", got)
	}
	if got.ReclaimablePercent != 66 {
		t.Errorf("ReclaimablePercent = %v, want 66", got.ReclaimablePercent)
	}
	if got.ReclaimableBytes != 800*1000*1000 {
		t.Errorf("ReclaimableBytes = %v", got.ReclaimableBytes)
	}
}

func TestDecodeDiskUsageDefaultsToFullPercentWithoutParens(t *testing.T) {
	line := DiskUsageLine{Type: "Build Cache", Size: "2GB", Reclaimable: "2GB"}
	got := DecodeDiskUsage(line)
	if got.ReclaimablePercent != 100 {
		t.Errorf("ReclaimablePercent = %v, want 100 when absent", got.ReclaimablePercent)
	}
}

func TestNormalizeSystemInfoFlattensSwarmState(t *testing.T) {
	info := &SystemInfo{}
	info.Swarm.LocalNodeState = "active"
	NormalizeSystemInfo(info)
	if info.SwarmState != "active" {
		t.Errorf("SwarmState = %q", info.SwarmState)
	}
}
