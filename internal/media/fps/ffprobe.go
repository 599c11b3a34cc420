package fps

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// ffprobeStrategy asks ffprobe for the average and nominal frame-rate fields
// of the first video stream. Output tokens are fractions ("30000/1001") or
// decimals, possibly locale-formatted and suffixed with a unit marker.
func ffprobeStrategy(binary string) Strategy {
	return Strategy{
		Name: "ffprobe",
		Probe: func(ctx context.Context, path string) (float64, bool) {
			binary = strings.TrimSpace(binary)
			if binary == "" {
				binary = "ffprobe"
			}
			if _, err := exec.LookPath(binary); err != nil {
				return 0, false
			}
			cmd := exec.CommandContext(ctx, binary,
				"-v", "0",
				"-of", "csv=p=0",
				"-select_streams", "v:0",
				"-show_entries", "stream=avg_frame_rate,r_frame_rate",
				"--", path)
			output, err := cmd.Output()
			if err != nil {
				return 0, false
			}
			for _, token := range splitRateTokens(string(output)) {
				if rate, ok := parseRateToken(token); ok {
					return rate, true
				}
			}
			return 0, false
		},
	}
}

func splitRateTokens(output string) []string {
	return strings.FieldsFunc(output, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})
}

// parseRateToken accepts a fraction "N/D" or a decimal, normalizing a comma
// decimal separator and stripping an optional trailing "fps" unit marker.
// Only strictly positive values are usable.
func parseRateToken(token string) (float64, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}
	lower := strings.ToLower(token)
	if strings.HasSuffix(lower, "fps") {
		token = strings.TrimSpace(token[:len(token)-len("fps")])
	}
	token = strings.ReplaceAll(token, ",", ".")
	if token == "" {
		return 0, false
	}

	if num, den, found := strings.Cut(token, "/"); found {
		n, errN := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, errD := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if errN != nil || errD != nil || d == 0 {
			return 0, false
		}
		rate := n / d
		if rate <= 0 {
			return 0, false
		}
		return rate, true
	}

	rate, err := strconv.ParseFloat(token, 64)
	if err != nil || rate <= 0 {
		return 0, false
	}
	return rate, true
}
