package network

import (
	"context"
	"testing"

	"github.com/banksean/enginectl"
)

type fakeResolver struct{ path string }

func (r fakeResolver) Resolve(ctx context.Context) (string, error) { return r.path, nil }

func TestFromTrustedIDIsZeroCost(t *testing.T) {
	cfg := enginectl.NewClientConfig(enginectl.Docker, enginectl.WithBinaryResolver(fakeResolver{path: "/usr/bin/docker"}))
	c := New(cfg)

	n := c.FromTrustedID("net123")
	id, err := n.ID(context.Background())
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if id != "net123" {
		t.Errorf("got %q, want %q", id, "net123")
	}
}
