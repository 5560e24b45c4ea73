// pkg/sampler/format.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sampler

import "strconv"

// formatFloat renders v losslessly. When exact is true it uses Go's
// hexadecimal floating-point syntax (bit-exact, base 2); otherwise it
// uses scientific notation with 16 digits after the decimal point (17
// significant digits), which also round-trips every float64 exactly and
// stays human-readable.
// Both forms round-trip through strconv.ParseFloat, which auto-detects
// the "0x" hex prefix.
func formatFloat(v float64, exact bool) string {
	if exact {
		return strconv.FormatFloat(v, 'x', -1, 64)
	}
	return strconv.FormatFloat(v, 'e', 16, 64)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
