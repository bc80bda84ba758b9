package stack

import (
	"reflect"
	"testing"
)

func TestSplitIDLines(t *testing.T) {
	got := splitIDLines("task1\ntask2\ntask3\n")
	want := []string{"task1", "task2", "task3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitIDLines() = %v, want %v", got, want)
	}
}

func TestSplitIDLinesEmpty(t *testing.T) {
	if got := splitIDLines(""); got != nil {
		t.Fatalf("splitIDLines(\"\") = %v, want nil", got)
	}
}
