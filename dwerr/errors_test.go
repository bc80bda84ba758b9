package dwerr

import (
	"errors"
	"reflect"
	"testing"
)

func TestRedact(t *testing.T) {
	tests := map[string]struct {
		in       []string
		expected []string
	}{
		"no secret": {
			in:       []string{"docker", "login"},
			expected: []string{"docker", "login"},
		},
		"password redacted": {
			in:       []string{"docker", "login", "--password", "hunter2", "-u", "bob"},
			expected: []string{"docker", "login", "--password", "***", "-u", "bob"},
		},
		"trailing flag with no value": {
			in:       []string{"docker", "login", "--password"},
			expected: []string{"docker", "login", "--password"},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := Redact(tc.in)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("got %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		stderr   string
		wantType any
	}{
		"no such container":  {"Error: No such container: abc123", &NoSuchContainer{}},
		"no such image":      {"Error: no such image: busybox:latest", &NoSuchImage{}},
		"no such volume":     {"Error: no such volume: myvol", &NoSuchVolume{}},
		"no such pod":        {"Error: no such pod: mypod", &NoSuchPod{}},
		"not swarm manager":  {"Error: this node is not a swarm manager", &NotASwarmManager{}},
		"service not found":  {"Error: service foo not found", &NoSuchService{}},
		"unmatched generic":  {"Error: something else entirely", &EngineError{}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := Classify([]string{"docker", "inspect", "x"}, 1, "", tc.stderr)
			if reflect.TypeOf(err) != reflect.TypeOf(tc.wantType) {
				t.Errorf("got %T, want %T", err, tc.wantType)
			}
		})
	}
}

func TestClassifyRedactsArgv(t *testing.T) {
	err := Classify([]string{"docker", "login", "--password", "hunter2"}, 1, "", "no such container")
	var nsc *NoSuchContainer
	if !errors.As(err, &nsc) {
		t.Fatalf("expected *NoSuchContainer, got %T", err)
	}
	for _, tok := range nsc.EngineError.Argv {
		if tok == "hunter2" {
			t.Fatalf("argv leaked secret: %v", nsc.EngineError.Argv)
		}
	}
}
