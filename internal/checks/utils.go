package checks

import (
	"math"
	"strings"
	"time"
)

func minutes(d time.Duration) float64 {
	return d.Minutes()
}

// roundMinutes rounds half away from zero, as an operator reads "5 min".
func roundMinutes(d time.Duration) int64 {
	return int64(math.Round(d.Minutes()))
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}
