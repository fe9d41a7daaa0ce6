package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseMinutesArg parses an optional window argument in minutes.
// An empty argument yields def.
func ParseMinutesArg(args string, def float64) (float64, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return def, nil
	}
	if len(fields) > 1 {
		return 0, fmt.Errorf("expected a single number of minutes, got %q", args)
	}
	mins, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || math.IsNaN(mins) || math.IsInf(mins, 0) {
		return 0, fmt.Errorf("invalid minutes %q", fields[0])
	}
	if mins <= 0 {
		return 0, fmt.Errorf("minutes must be positive, got %v", mins)
	}
	return mins, nil
}
