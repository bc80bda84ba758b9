package compose

import (
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSplitIDLines(t *testing.T) {
	got := splitIDLines("abc123\ndef456\n")
	want := []string{"abc123", "def456"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitIDLines() = %v, want %v", got, want)
	}
}

func TestSplitIDLinesEmpty(t *testing.T) {
	if got := splitIDLines(""); got != nil {
		t.Fatalf("splitIDLines(\"\") = %v, want nil", got)
	}
}

func TestProjectYAMLUnmarshal(t *testing.T) {
	doc := `
name: myapp
services:
  web:
    image: nginx:latest
    ports:
      - "8080:80"
    environment:
      FOO: bar
`
	var p Project
	if err := yaml.Unmarshal([]byte(doc), &p); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if p.Name != "myapp" {
		t.Fatalf("p.Name = %q, want myapp", p.Name)
	}
	svc, ok := p.Services["web"]
	if !ok {
		t.Fatalf("missing service %q in %+v", "web", p.Services)
	}
	if svc.Image != "nginx:latest" {
		t.Fatalf("svc.Image = %q, want nginx:latest", svc.Image)
	}
	if svc.Environment["FOO"] != "bar" {
		t.Fatalf("svc.Environment[FOO] = %q, want bar", svc.Environment["FOO"])
	}
}
