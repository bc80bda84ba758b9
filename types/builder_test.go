package types

import "testing"

func TestParseBuilderWorkedExample(t *testing.T) {
	text := "Name:   blissful_swartz\nDriver: docker-container\n\nNodes:\nName:      blissful_swartz0\nEndpoint:  unix:///var/run/docker.sock\nStatus:    running\nPlatforms: linux/amd64, linux/arm64\n"

	b := ParseBuilder(text)

	if b.Name != "blissful_swartz" {
		t.Errorf("Name = %q", b.Name)
	}
	if b.Driver != "docker-container" {
		t.Errorf("Driver = %q", b.Driver)
	}
	if len(b.Nodes) != 1 {
		t.Fatalf("len(Nodes) = %d, want 1", len(b.Nodes))
	}
	n := b.Nodes[0]
	if n.Name != "blissful_swartz0" {
		t.Errorf("node Name = %q", n.Name)
	}
	if n.Status != "running" {
		t.Errorf("node Status = %q", n.Status)
	}
	if n.Endpoint != "unix:///var/run/docker.sock" {
		t.Errorf("node Endpoint = %q", n.Endpoint)
	}
	want := []string{"linux/amd64", "linux/arm64"}
	if len(n.Platforms) != len(want) {
		t.Fatalf("Platforms = %v", n.Platforms)
	}
	for i := range want {
		if n.Platforms[i] != want[i] {
			t.Errorf("Platforms[%d] = %q, want %q", i, n.Platforms[i], want[i])
		}
	}
}

func TestParseBuilderMultipleNodes(t *testing.T) {
	text := "Name:   multi\nDriver: kubernetes\n\nNodes:\nName:   n0\nStatus: running\n\nName:   n1\nStatus: inactive\n"

	b := ParseBuilder(text)

	if len(b.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(b.Nodes))
	}
	if b.Nodes[0].Name != "n0" || b.Nodes[0].Status != "running" {
		t.Errorf("node 0 = %+v", b.Nodes[0])
	}
	if b.Nodes[1].Name != "n1" || b.Nodes[1].Status != "inactive" {
		t.Errorf("node 1 = %+v", b.Nodes[1])
	}
}
