package utils

import (
	"fmt"
	"strings"
)

func PrettyTime(sec int) string {
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// HumanDuration spells out a duration in seconds, e.g. "1 hour, 3 minutes,
// 2 seconds". Zero units are left out; zero itself is "0 seconds".
func HumanDuration(sec int) string {
	if sec <= 0 {
		return "0 seconds"
	}
	units := []struct {
		name string
		size int
	}{
		{"day", 86400},
		{"hour", 3600},
		{"minute", 60},
		{"second", 1},
	}
	parts := make([]string, 0, len(units))
	for _, u := range units {
		n := sec / u.size
		sec %= u.size
		if n == 0 {
			continue
		}
		if n == 1 {
			parts = append(parts, "1 "+u.name)
		} else {
			parts = append(parts, fmt.Sprintf("%d %ss", n, u.name))
		}
	}
	return strings.Join(parts, ", ")
}
