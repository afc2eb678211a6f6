package util

import (
	"fmt"
	"strconv"
	"strings"
)

var sizeUnits = []struct {
	suffix string
	mult   int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ParseSize parses a byte size such as "10MB", "512KB" or "1024".
// Units are binary and case-insensitive.
func ParseSize(s string) (int64, error) {
	in := strings.ToUpper(strings.TrimSpace(s))
	if in == "" {
		return 0, fmt.Errorf("empty size")
	}

	mult := int64(1)
	for _, u := range sizeUnits {
		if rest, ok := strings.CutSuffix(in, u.suffix); ok {
			in, mult = strings.TrimSpace(rest), u.mult
			break
		}
	}

	n, err := strconv.ParseInt(in, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}

// ParseSizeOr is ParseSize returning def for empty or invalid input.
func ParseSizeOr(s string, def int64) int64 {
	n, err := ParseSize(s)
	if err != nil {
		return def
	}
	return n
}
