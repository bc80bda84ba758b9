package container

import (
	"context"
	"reflect"
	"testing"

	"github.com/banksean/enginectl/argv"
)

func TestCreateOptionsApply(t *testing.T) {
	opts := CreateOptions{
		Name:    "web",
		Command: []string{"sleep", "infinity"},
		Env:     map[string]string{"FOO": "bar"},
		Labels:  map[string]string{"team": "core"},
		Publish: []argv.PortMapping{{HostPort: "8080", Container: "80"}},
		WorkDir: "/app",
		TTY:     true,
		Remove:  true,
	}
	cmd := argv.New("docker", "container", "create")
	opts.apply(cmd, "nginx:latest")

	got := cmd.Args()
	want := []string{
		"docker", "container", "create",
		"--name", "web",
		"--env", "FOO=bar",
		"--label", "team=core",
		"--publish", "8080:80",
		"--workdir", "/app",
		"--tty",
		"--rm",
		"nginx:latest",
		"sleep", "infinity",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseDiffOutput(t *testing.T) {
	out := parseDiffOutput("A /some_path\nA /some_file\nD /tmp\n")
	want := map[string]string{"/some_path": "A", "/some_file": "A", "/tmp": "D"}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestParseDiffOutputEmpty(t *testing.T) {
	out := parseDiffOutput("")
	if len(out) != 0 {
		t.Errorf("expected empty map, got %v", out)
	}
}

func TestParseIDLines(t *testing.T) {
	got := parseIDLines("abc123\ndef456\n")
	want := []string{"abc123", "def456"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseIDLinesEmptyOutput(t *testing.T) {
	if got := parseIDLines(""); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestCopyEndpointBytes(t *testing.T) {
	e := CopyEndpoint{Bytes: true}
	got, err := e.String(context.Background())
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got != "-" {
		t.Errorf("got %q, want \"-\"", got)
	}
}

func TestCopyEndpointLocalPath(t *testing.T) {
	e := CopyEndpoint{Path: "/tmp/out"}
	got, err := e.String(context.Background())
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got != "/tmp/out" {
		t.Errorf("got %q", got)
	}
}

func TestRunRejectsStreamWithDetach(t *testing.T) {
	c := &Client{}
	_, err := c.Run(context.Background(), "busybox", CreateOptions{Detach: true}, true)
	if err == nil {
		t.Fatal("expected UserInputError when combining stream and detach")
	}
}

func TestRunRejectsStreamWithTTY(t *testing.T) {
	c := &Client{}
	_, err := c.Run(context.Background(), "busybox", CreateOptions{TTY: true}, true)
	if err == nil {
		t.Fatal("expected UserInputError when combining stream and tty")
	}
}
