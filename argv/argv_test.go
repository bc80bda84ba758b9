package argv

import (
	"reflect"
	"testing"
	"time"
)

func TestCommandBuilders(t *testing.T) {
	tests := map[string]struct {
		build    func() *Command
		expected []string
	}{
		"flag on": {
			build:    func() *Command { return New("container").AddFlag("--all", true) },
			expected: []string{"container", "--all"},
		},
		"flag off is a no-op": {
			build:    func() *Command { return New("container").AddFlag("--all", false) },
			expected: []string{"container"},
		},
		"simple arg present": {
			build:    func() *Command { return New("container", "run").AddSimpleArg("--name", "box") },
			expected: []string{"container", "run", "--name", "box"},
		},
		"simple arg absent": {
			build:    func() *Command { return New("container", "run").AddSimpleArg("--name", "") },
			expected: []string{"container", "run"},
		},
		"iterable preserves order": {
			build: func() *Command {
				return New("container", "run").AddArgsIterable("--volume", []string{"/a:/a", "/b:/b"})
			},
			expected: []string{"container", "run", "--volume", "/a:/a", "--volume", "/b:/b"},
		},
		"mapping sorted by key": {
			build: func() *Command {
				return New("run").AddArgsMapping("--label", map[string]string{"b": "2", "a": "1"})
			},
			expected: []string{"run", "--label", "a=1", "--label", "b=2"},
		},
		"flag equals true": {
			build:    func() *Command { return New("build").AddFlagEquals("--sbom", true, true) },
			expected: []string{"build", "--sbom=true"},
		},
		"flag equals unset": {
			build:    func() *Command { return New("build").AddFlagEquals("--sbom", true, false) },
			expected: []string{"build"},
		},
		"terminator": {
			build:    func() *Command { return New("exec", "ctr").AddTerminator().Append("echo") },
			expected: []string{"exec", "ctr", "--", "echo"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := tc.build().Args()
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("got %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestAddArgsIterableOrSingle(t *testing.T) {
	tests := map[string]struct {
		one      string
		many     []string
		expected []string
	}{
		"single only":   {one: "busybox", expected: []string{"busybox"}},
		"many only":     {many: []string{"a", "b"}, expected: []string{"a", "b"}},
		"neither":       {expected: nil},
		"many wins tie": {one: "a", many: []string{"b", "c"}, expected: []string{"b", "c"}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := AddArgsIterableOrSingle(tc.one, tc.many)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("got %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestFormatters(t *testing.T) {
	if got := Seconds(90 * time.Second); got != "90" {
		t.Errorf("Seconds: got %q", got)
	}
	if got := SecondsFlag(90 * time.Second); got != "90s" {
		t.Errorf("SecondsFlag: got %q", got)
	}
	if got := Signal("9"); got != "9" {
		t.Errorf("Signal numeric: got %q", got)
	}
	if got := Signal("SIGKILL"); got != "SIGKILL" {
		t.Errorf("Signal name: got %q", got)
	}

	pm := PortMapping{HostPort: "8080", Container: "80"}
	if got := pm.String(); got != "8080:80" {
		t.Errorf("PortMapping: got %q", got)
	}
	pmProto := PortMapping{IP: "127.0.0.1", HostPort: "8080", Container: "80", Proto: "udp"}
	if got := pmProto.String(); got != "127.0.0.1:8080:80/udp" {
		t.Errorf("PortMapping with proto: got %q", got)
	}
	pmRandom := PortMapping{Container: "80"}
	if got := pmRandom.String(); got != "80" {
		t.Errorf("PortMapping random host port: got %q", got)
	}

	mt := MountTriple{Source: "/src", Destination: "/dst"}
	if got := mt.String(); got != "/src:/dst" {
		t.Errorf("MountTriple: got %q", got)
	}
	mtMode := MountTriple{Source: "/src", Destination: "/dst", Mode: "ro"}
	if got := mtMode.String(); got != "/src:/dst:ro" {
		t.Errorf("MountTriple with mode: got %q", got)
	}

	ah := AddHost{Host: "db", IP: "10.0.0.1"}
	if got := ah.String(); got != "db:10.0.0.1" {
		t.Errorf("AddHost: got %q", got)
	}

	if got := LabelMap(map[string]string{"b": "2", "a": "1"}); !reflect.DeepEqual(got, []string{"a=1", "b=2"}) {
		t.Errorf("LabelMap: got %v", got)
	}
}
