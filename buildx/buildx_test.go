package buildx

import "testing"

func TestIsLoadableLoadTrue(t *testing.T) {
	o := BuildOptions{Load: true}
	if !o.IsLoadable("kubernetes") {
		t.Fatalf("load=true must always be loadable regardless of driver")
	}
}

func TestIsLoadablePushTrue(t *testing.T) {
	o := BuildOptions{Push: true}
	if o.IsLoadable("docker") {
		t.Fatalf("push=true must never be loadable")
	}
}

func TestIsLoadableOutputDockerNoDest(t *testing.T) {
	o := BuildOptions{Output: map[string]string{"type": "docker"}}
	if !o.IsLoadable("kubernetes") {
		t.Fatalf("type=docker output with no dest must be loadable")
	}
}

func TestIsLoadableOutputDockerWithDest(t *testing.T) {
	o := BuildOptions{Output: map[string]string{"type": "docker", "dest": "/tmp/out.tar"}}
	if o.IsLoadable("docker") {
		t.Fatalf("type=docker output with a dest writes a file, not loadable")
	}
}

func TestIsLoadableOutputOtherType(t *testing.T) {
	o := BuildOptions{Output: map[string]string{"type": "local", "dest": "/tmp/out"}}
	if o.IsLoadable("docker") {
		t.Fatalf("non-docker output type must not be loadable")
	}
}

func TestIsLoadableFallsBackToDriver(t *testing.T) {
	o := BuildOptions{}
	if !o.IsLoadable("docker") {
		t.Fatalf("docker-driver builder with no load/push/output is loadable")
	}
	if o.IsLoadable("kubernetes") {
		t.Fatalf("non-docker-driver builder with no load/push/output is not loadable")
	}
}

func TestKVJoinSortsKeys(t *testing.T) {
	got := kvJoin(map[string]string{"type": "docker", "dest": "/tmp/out.tar"})
	want := "dest=/tmp/out.tar,type=docker"
	if got != want {
		t.Fatalf("kvJoin() = %q, want %q", got, want)
	}
}

func TestKVJoinEmpty(t *testing.T) {
	if got := kvJoin(nil); got != "" {
		t.Fatalf("kvJoin(nil) = %q, want empty string", got)
	}
}
