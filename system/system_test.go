package system

import "testing"

func TestParseEventLines(t *testing.T) {
	output := `{"Type":"container","Action":"start","Actor":{"ID":"abc123","Attributes":{"name":"web"}},"time":1690000000}
{"Type":"container","Action":"die","Actor":{"ID":"abc123","Attributes":{"name":"web"}},"time":1690000005}
`
	events, err := parseEventLines(output)
	if err != nil {
		t.Fatalf("parseEventLines() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Action != "start" || events[1].Action != "die" {
		t.Fatalf("unexpected actions: %+v", events)
	}
	if events[0].Actor.Attributes["name"] != "web" {
		t.Fatalf("unexpected actor attributes: %+v", events[0].Actor)
	}
}

func TestParseEventLinesEmpty(t *testing.T) {
	events, err := parseEventLines("")
	if err != nil {
		t.Fatalf("parseEventLines() error = %v", err)
	}
	if events != nil {
		t.Fatalf("events = %+v, want nil", events)
	}
}

func TestParseDiskUsageLines(t *testing.T) {
	output := `{"Type":"Images","TotalCount":"10","Active":"3","Size":"1.2GB","Reclaimable":"900MB (75%)"}
{"Type":"Containers","TotalCount":"5","Active":"2","Size":"300MB","Reclaimable":"100MB"}
`
	usages, err := parseDiskUsageLines(output)
	if err != nil {
		t.Fatalf("parseDiskUsageLines() error = %v", err)
	}
	if len(usages) != 2 {
		t.Fatalf("len(usages) = %d, want 2", len(usages))
	}
	if usages[0].ReclaimablePercent != 75 {
		t.Fatalf("usages[0].ReclaimablePercent = %v, want 75", usages[0].ReclaimablePercent)
	}
	if usages[1].ReclaimablePercent != 100 {
		t.Fatalf("usages[1].ReclaimablePercent = %v, want 100 (no parens means full)", usages[1].ReclaimablePercent)
	}
}

func TestParseDiskUsageLinesEmpty(t *testing.T) {
	usages, err := parseDiskUsageLines("")
	if err != nil {
		t.Fatalf("parseDiskUsageLines() error = %v", err)
	}
	if usages != nil {
		t.Fatalf("usages = %+v, want nil", usages)
	}
}
