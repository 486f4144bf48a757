// Package parse converts the capacity and allocation strings reported by
// cluster APIs into canonical numeric units.
package parse

import (
	"fmt"
	"strconv"
	"strings"
)

// Binary unit multipliers as used in node capacity strings
const (
	Ki = 1024
	Mi = 1024 * Ki
	Gi = 1024 * Mi
	Ti = 1024 * Gi
)

// ParseMemory converts a memory string (e.g. "16Gi", "65867836Ki", "1048576")
// to bytes. Values without a recognized suffix are treated as raw bytes.
// Malformed input yields 0 — callers treat a zero capacity as "no data".
func ParseMemory(s string) float64 {
	mult := 1.0
	num := s

	switch {
	case strings.HasSuffix(s, "Ki"):
		mult, num = Ki, s[:len(s)-2]
	case strings.HasSuffix(s, "Mi"):
		mult, num = Mi, s[:len(s)-2]
	case strings.HasSuffix(s, "Gi"):
		mult, num = Gi, s[:len(s)-2]
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	return v * mult
}

// ParseCPU converts a CPU string to cores. A trailing "m" means integer
// millicores ("15500m" -> 15.5); anything else is parsed as whole or
// fractional cores. Malformed input yields 1.0: a non-zero default so that
// downstream capacity ratios never divide by zero. The value is an
// intentional fallback, not a measurement.
func ParseCPU(s string) float64 {
	if strings.HasSuffix(s, "m") {
		milli, err := strconv.Atoi(s[:len(s)-1])
		if err != nil {
			return 1.0
		}
		return float64(milli) / 1000.0
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 1.0
	}
	return v
}

// FormatMemoryBytes converts bytes to human-readable format (Ti, Gi, Mi, Ki)
func FormatMemoryBytes(bytes float64) string {
	switch {
	case bytes >= Ti:
		return fmt.Sprintf("%.2fTi", bytes/Ti)
	case bytes >= Gi:
		return fmt.Sprintf("%.2fGi", bytes/Gi)
	case bytes >= Mi:
		return fmt.Sprintf("%.2fMi", bytes/Mi)
	case bytes >= Ki:
		return fmt.Sprintf("%.2fKi", bytes/Ki)
	}
	return fmt.Sprintf("%.0fB", bytes)
}

// FormatPercent renders a percentage with one decimal place.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// FormatCores renders a core count, dropping trailing zeros for whole values.
func FormatCores(cores float64) string {
	if cores == float64(int64(cores)) {
		return fmt.Sprintf("%d", int64(cores))
	}
	return fmt.Sprintf("%.3g", cores)
}
