package execctx

import (
	"fmt"
	"strings"
	"time"
)

// ClockEnvVar selects the clock used by contexts created at the boundary.
//
// Supported values are "system" (the default) and "fixed:<RFC3339 time>".
const ClockEnvVar = "EXTREG_CLOCK"

// LoadClock resolves the clock configured in the environment. lookup is
// usually os.LookupEnv.
func LoadClock(lookup func(string) (string, bool)) (func() time.Time, error) {
	raw, ok := lookup(ClockEnvVar)
	if !ok || raw == "" || raw == "system" {
		return time.Now, nil
	}

	kind, value, _ := strings.Cut(raw, ":")
	switch kind {
	case "fixed":
		at, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", ClockEnvVar, raw, err)
		}
		return func() time.Time { return at }, nil
	default:
		return nil, fmt.Errorf("unsupported %s value %q: expected 'system' or 'fixed:<RFC3339>'", ClockEnvVar, raw)
	}
}
