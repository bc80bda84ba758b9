package types

import "testing"

func TestParseByteSize(t *testing.T) {
	tests := map[string]struct {
		in   string
		want int64
	}{
		"zero":         {"0", 0},
		"empty":        {"", 0},
		"bytes":        {"512B", 512},
		"kib":          {"1KiB", 1024},
		"mib lowercase unit": {"1.5mib", int64(1.5 * 1024 * 1024)},
		"gb decimal":   {"1.2GB", int64(1.2 * 1000 * 1000 * 1000)},
		"no unit":      {"42", 42},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseByteSize(tc.in)
			if err != nil {
				t.Fatalf("ParseByteSize(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseByteSize(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseByteSizeUnknownUnit(t *testing.T) {
	if _, err := ParseByteSize("5XB"); err == nil {
		t.Error("expected error for unknown unit")
	}
}

func TestParsePercent(t *testing.T) {
	got, err := ParsePercent("12.34%")
	if err != nil {
		t.Fatalf("ParsePercent: %v", err)
	}
	if got != 12.34 {
		t.Errorf("got %v, want 12.34", got)
	}
}

func TestParseSlashPair(t *testing.T) {
	a, b, err := ParseSlashPair("1.2MiB / 3.4GiB")
	if err != nil {
		t.Fatalf("ParseSlashPair: %v", err)
	}
	wantA := int64(1258291)    // 1.2 * 1024^2 = 1258291.2, rounded
	wantB := int64(3650722202) // 3.4 * 1024^3 = 3650722201.6, rounded
	if a != wantA || b != wantB {
		t.Errorf("got (%d, %d), want (%d, %d)", a, b, wantA, wantB)
	}
}

func TestParseSlashPairMalformed(t *testing.T) {
	if _, _, err := ParseSlashPair("not-a-pair"); err == nil {
		t.Error("expected error for malformed pair")
	}
}
