package types

import (
	"reflect"
	"testing"
)

func TestParseProcessTable(t *testing.T) {
	text := "UID                 PID                 PPID                C                   STIME               TTY                 TIME                CMD\n" +
		"root                12345               12300               0                   10:32               ?                   00:00:01            nginx -g daemon off;\n" +
		"root                12378               12345               0                   10:33               ?                   00:00:00            sleep 100\n"

	got := ParseProcessTable(text)
	wantTitles := []string{"UID", "PID", "PPID", "C", "STIME", "TTY", "TIME", "CMD"}
	if !reflect.DeepEqual(got.Titles, wantTitles) {
		t.Fatalf("Titles = %v, want %v", got.Titles, wantTitles)
	}
	if len(got.Processes) != 2 {
		t.Fatalf("len(Processes) = %d, want 2", len(got.Processes))
	}
	if got.Processes[0][0] != "root" || got.Processes[0][1] != "12345" {
		t.Errorf("Processes[0] = %v", got.Processes[0])
	}
	if got.Processes[0][len(got.Processes[0])-1] != "nginx -g daemon off;" {
		t.Errorf("CMD column = %q, want %q", got.Processes[0][7], "nginx -g daemon off;")
	}
}

func TestParseProcessTableEmpty(t *testing.T) {
	got := ParseProcessTable("")
	if got.Titles != nil || got.Processes != nil {
		t.Errorf("ParseProcessTable(\"\") = %+v, want zero value", got)
	}
}
