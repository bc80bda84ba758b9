package volume

import (
	"context"
	"testing"

	"github.com/banksean/enginectl"
)

type fakeResolver struct{ path string }

func (r fakeResolver) Resolve(ctx context.Context) (string, error) { return r.path, nil }

func TestFromTrustedNameIsZeroCost(t *testing.T) {
	cfg := enginectl.NewClientConfig(enginectl.Docker, enginectl.WithBinaryResolver(fakeResolver{path: "/usr/bin/docker"}))
	c := New(cfg)

	v := c.FromTrustedName("my-volume")
	id, err := v.ID(context.Background())
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if id != "my-volume" {
		t.Errorf("got %q, want %q", id, "my-volume")
	}
}
