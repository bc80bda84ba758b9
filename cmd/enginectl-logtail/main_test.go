package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestHandleWritesMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	h := newHandler(buf)

	err := h.handle(map[string]any{
		"level": "INFO",
		"time":  "2026-07-30T10:00:00Z",
		"msg":   "enginectl starting",
		"engine": "docker",
	})
	if err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if !strings.Contains(buf.String(), "enginectl starting") {
		t.Errorf("output %q missing message", buf.String())
	}
	if !strings.Contains(buf.String(), "docker") {
		t.Errorf("output %q missing attrs", buf.String())
	}
}

func TestHandleUnknownLevelDefaultsToInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	h := newHandler(buf)

	if err := h.handle(map[string]any{"msg": "no level given"}); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if !strings.Contains(buf.String(), "no level given") {
		t.Errorf("output %q missing message", buf.String())
	}
	if !strings.Contains(buf.String(), colorize(cyan, ":")) {
		t.Errorf("output %q does not use the info level color", buf.String())
	}
}
