package enginectl

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"
)

type countingResolver struct {
	calls atomic.Int32
	path  string
}

func (r *countingResolver) Resolve(ctx context.Context) (string, error) {
	r.calls.Add(1)
	return r.path, nil
}

func TestBinaryPathMemoizedSingleFlight(t *testing.T) {
	res := &countingResolver{path: "/usr/bin/docker"}
	cfg := NewClientConfig(Docker, WithBinaryResolver(res))

	for i := 0; i < 10; i++ {
		path, err := cfg.BinaryPath(context.Background())
		if err != nil {
			t.Fatalf("BinaryPath: %v", err)
		}
		if path != "/usr/bin/docker" {
			t.Errorf("got %q", path)
		}
	}
	if res.calls.Load() != 1 {
		t.Errorf("resolver should be called exactly once, got %d calls", res.calls.Load())
	}
}

func TestPrefixBuildsGlobalFlags(t *testing.T) {
	res := &countingResolver{path: "/usr/bin/docker"}
	cfg := NewClientConfig(Docker,
		WithBinaryResolver(res),
		WithContext("prod"),
		WithDebug(true),
		WithHost("tcp://1.2.3.4:2376"),
		WithTLS(TLSConfig{Enabled: true, CACert: "/ca.pem", Verify: true}),
	)

	cmd, err := cfg.Prefix(context.Background())
	if err != nil {
		t.Fatalf("Prefix: %v", err)
	}
	got := cmd.Args()
	want := []string{
		"/usr/bin/docker",
		"--context", "prod",
		"--debug",
		"--host", "tcp://1.2.3.4:2376",
		"--tls",
		"--tlscacert", "/ca.pem",
		"--tlsverify",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestClientKeyDistinguishesHostAndContext(t *testing.T) {
	res := &countingResolver{path: "/usr/bin/docker"}
	a := NewClientConfig(Docker, WithBinaryResolver(res), WithContext("a"))
	b := NewClientConfig(Docker, WithBinaryResolver(res), WithContext("b"))
	if a.Key() == b.Key() {
		t.Error("different contexts should produce different client keys")
	}
}
