package config

import (
	"fmt"
	"strconv"
	"strings"
)

// sizeSuffixes maps size suffixes to byte multipliers. IEC suffixes are
// listed before SI ones so "MiB" is not mistaken for "B".
var sizeSuffixes = []struct {
	suffix     string
	multiplier float64
}{
	{"TIB", 1 << 40},
	{"GIB", 1 << 30},
	{"MIB", 1 << 20},
	{"KIB", 1 << 10},
	{"TB", 1e12},
	{"GB", 1e9},
	{"MB", 1e6},
	{"KB", 1e3},
	{"B", 1},
}

// ParseSize converts a human-readable size ("50MiB", "1.5GB", "4096") to
// bytes. Empty string and "0" mean no limit and return 0.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	upper := strings.ToUpper(s)
	multiplier := 1.0
	num := s

	for _, sf := range sizeSuffixes {
		if strings.HasSuffix(upper, sf.suffix) {
			multiplier = sf.multiplier
			num = strings.TrimSpace(s[:len(s)-len(sf.suffix)])

			break
		}
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: must be non-negative", s)
	}

	return int64(n * multiplier), nil
}
