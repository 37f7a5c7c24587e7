package pipeline

import (
	"regexp"
	"strings"
)

var (
	numberedBulletRe = regexp.MustCompile(`^\d+[.)]\s`)
	bulletStripRe    = regexp.MustCompile(`^[-•·\d.)]+\s*`)
)

// ExtractAssumptions scans a notes page for assumption and exclusion
// bullets. A heading line containing "assumption" or "exclusion" opens the
// respective section; bulleted lines under it are collected until the other
// heading appears.
func ExtractAssumptions(text string) (assumptions, exclusions []string) {
	inAssumptions := false
	inExclusions := false

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		lower := strings.ToLower(stripped)

		if strings.Contains(lower, "assumption") {
			inAssumptions, inExclusions = true, false
			continue
		}
		if strings.Contains(lower, "exclusion") {
			inExclusions, inAssumptions = true, false
			continue
		}

		if stripped == "" || !isBullet(stripped) {
			continue
		}
		clean := strings.TrimSpace(bulletStripRe.ReplaceAllString(stripped, ""))
		if clean == "" {
			continue
		}
		if inAssumptions {
			assumptions = append(assumptions, clean)
		} else if inExclusions {
			exclusions = append(exclusions, clean)
		}
	}
	return assumptions, exclusions
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "-") ||
		strings.HasPrefix(line, "•") ||
		strings.HasPrefix(line, "·") ||
		numberedBulletRe.MatchString(line)
}

// dedupe keeps the first occurrence of each string, preserving order.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
