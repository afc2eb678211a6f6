package util

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"10MB", 10 * 1024 * 1024},
		{"512KB", 512 * 1024},
		{"2GB", 2 * 1024 * 1024 * 1024},
		{"1024", 1024},
		{"64B", 64},
		{"  10MB  ", 10 * 1024 * 1024},
		{"10 mb", 10 * 1024 * 1024},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseSize(tc.input)
			if err != nil {
				t.Fatalf("ParseSize(%q) error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseSize_Invalid(t *testing.T) {
	for _, in := range []string{"", "MB", "ten", "-1KB", "1.5MB"} {
		if _, err := ParseSize(in); err == nil {
			t.Errorf("ParseSize(%q) expected error", in)
		}
	}
}

func TestParseSizeOr(t *testing.T) {
	const def = 5 * 1024 * 1024
	if got := ParseSizeOr("", def); got != def {
		t.Errorf("expected default %d, got %d", def, got)
	}
	if got := ParseSizeOr("invalid", def); got != def {
		t.Errorf("expected default %d for invalid input, got %d", def, got)
	}
	if got := ParseSizeOr("1KB", def); got != 1024 {
		t.Errorf("expected 1024, got %d", got)
	}
}
