package image

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseLoadedTags(t *testing.T) {
	stdout := "Loaded image: busybox:1\nLoaded image: hello-world:latest\nsome other line\n"
	got := parseLoadedTags(stdout)
	want := []string{"busybox:1", "hello-world:latest"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseLoadedTagsNoMatches(t *testing.T) {
	if got := parseLoadedTags("nothing relevant\n"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestDedupeLines(t *testing.T) {
	seen := map[string]bool{}
	got := dedupeLines("abc\nabc\ndef\n", seen)
	want := []string{"abc", "def"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDedupeLinesAcrossCalls(t *testing.T) {
	seen := map[string]bool{}
	first := dedupeLines("abc\n", seen)
	second := dedupeLines("abc\ndef\n", seen)
	if !reflect.DeepEqual(first, []string{"abc"}) {
		t.Errorf("first = %v", first)
	}
	if !reflect.DeepEqual(second, []string{"def"}) {
		t.Errorf("second = %v", second)
	}
}

func TestValidateRefAccepts(t *testing.T) {
	for _, ref := range []string{"nginx", "nginx:latest", "library/nginx:1.27", "ghcr.io/acme/widget@sha256:" + strings.Repeat("a", 64)} {
		if err := validateRef(ref); err != nil {
			t.Errorf("validateRef(%q) = %v, want nil", ref, err)
		}
	}
}

func TestValidateRefRejectsMalformed(t *testing.T) {
	if err := validateRef("UPPERCASE_NOT_ALLOWED"); err == nil {
		t.Errorf("validateRef() = nil, want error for an invalid repository name")
	}
}
