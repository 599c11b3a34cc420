package fps

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// maxMetadataColumns bounds how many metadata lines are scanned. Metadata
// providers expose hundreds of columns; anything past this range never holds
// a frame rate.
const maxMetadataColumns = 320

// milliFPSThreshold: some metadata providers report frame rate in
// thousandths (29970 for 29.97). A bare, unit-less integer above this value
// is treated as milli-fps and divided by 1000. Heuristic, not physically
// derived; no real video exceeds 300 whole frames per second here.
const milliFPSThreshold = 300

var valueFPSPattern = regexp.MustCompile(`(?i)([0-9]+(?:[.,][0-9]+)?)\s*fps`)

// metadataStrategy shells out to an OS metadata tool (mediainfo by default)
// and scans its "name : value" columns. Best-effort: the tool may be absent
// in headless environments.
func metadataStrategy(binary string) Strategy {
	return Strategy{
		Name: "metadata",
		Probe: func(ctx context.Context, path string) (float64, bool) {
			binary = strings.TrimSpace(binary)
			if binary == "" {
				return 0, false
			}
			if _, err := exec.LookPath(binary); err != nil {
				return 0, false
			}
			cmd := exec.CommandContext(ctx, binary, "--", path)
			output, err := cmd.Output()
			if err != nil {
				return 0, false
			}
			return rateFromMetadata(string(output))
		},
	}
}

// rateFromMetadata scans up to maxMetadataColumns lines. A column whose name
// matches "frame rate" or "fps" wins; otherwise column values are scanned for
// a "<number> fps" pattern.
func rateFromMetadata(output string) (float64, bool) {
	lines := strings.Split(output, "\n")
	if len(lines) > maxMetadataColumns {
		lines = lines[:maxMetadataColumns]
	}

	var valueMatch float64
	var haveValueMatch bool
	for _, line := range lines {
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)

		if strings.Contains(name, "frame rate") || strings.Contains(name, "fps") {
			if rate, ok := rateFromColumnValue(value); ok {
				return rate, true
			}
			continue
		}
		if !haveValueMatch {
			if m := valueFPSPattern.FindStringSubmatch(value); m != nil {
				if rate, ok := parseRateToken(m[1]); ok {
					valueMatch = rate
					haveValueMatch = true
				}
			}
		}
	}
	if haveValueMatch {
		return valueMatch, true
	}
	return 0, false
}

// rateFromColumnValue extracts the first usable numeric token from a matched
// column value, applying the milli-fps heuristic to bare integers.
func rateFromColumnValue(value string) (float64, bool) {
	for _, field := range strings.Fields(value) {
		token := strings.Trim(field, "()")
		rate, ok := parseRateToken(token)
		if !ok {
			continue
		}
		if isBareInteger(token) && rate > milliFPSThreshold {
			rate /= 1000
		}
		return rate, true
	}
	return 0, false
}

func isBareInteger(token string) bool {
	if _, err := strconv.Atoi(strings.TrimSpace(token)); err != nil {
		return false
	}
	return true
}
