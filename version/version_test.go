package version

import (
	"context"
	"testing"

	"github.com/banksean/enginectl"
)

type fakeResolver struct{ path string }

func (r fakeResolver) Resolve(ctx context.Context) (string, error) { return r.path, nil }

func TestResolveFillsEngineFields(t *testing.T) {
	cfg := enginectl.NewClientConfig(enginectl.Docker, enginectl.WithBinaryResolver(fakeResolver{path: "/usr/bin/docker"}))
	v, err := Info{GitCommit: "abc123"}.Resolve(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if v.EngineKind != "docker" {
		t.Errorf("EngineKind = %q, want docker", v.EngineKind)
	}
	if v.EnginePath != "/usr/bin/docker" {
		t.Errorf("EnginePath = %q, want /usr/bin/docker", v.EnginePath)
	}
	if v.GitCommit != "abc123" {
		t.Errorf("GitCommit = %q, want abc123 (Resolve must not disturb existing fields)", v.GitCommit)
	}
}

func TestEqualIgnoresEngineFields(t *testing.T) {
	v1 := Info{GitCommit: "abc123", EngineKind: "docker", EnginePath: "/usr/bin/docker"}
	v2 := Info{GitCommit: "abc123", EngineKind: "podman", EnginePath: "/usr/bin/podman"}
	if !v1.Equal(v2) {
		t.Errorf("Equal() = false, want true: engine fields shouldn't affect build identity")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name     string
		v1       Info
		v2       Info
		expected bool
	}{
		{
			name:     "both empty",
			v1:       Info{},
			v2:       Info{},
			expected: true,
		},
		{
			name:     "same commit",
			v1:       Info{GitCommit: "abc123"},
			v2:       Info{GitCommit: "abc123"},
			expected: true,
		},
		{
			name:     "different commits",
			v1:       Info{GitCommit: "abc123"},
			v2:       Info{GitCommit: "def456"},
			expected: false,
		},
		{
			name:     "one empty one set",
			v1:       Info{GitCommit: "abc123"},
			v2:       Info{},
			expected: false,
		},
		{
			name:     "same commit different build time",
			v1:       Info{GitCommit: "abc123", BuildTime: "2024-01-01"},
			v2:       Info{GitCommit: "abc123", BuildTime: "2024-01-02"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.v1.Equal(tt.v2)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}
