package pipeline

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Dimension grammar. Drawings mix plain inches (36"), fractions (36 1/2"),
// feet-inches (3'-6") and WxH pairs (3'-0" x 6'-8"), with unicode primes
// thrown in by some CAD exports.

const (
	// DimensionMin and DimensionMax bound what a labeled callout may carry.
	// Values outside are treated as noise (sheet numbers, scales).
	DimensionMin = 3.0
	DimensionMax = 240.0
)

var (
	feetInchesRe    = regexp.MustCompile(`^(\d+)\s*'\s*-?\s*(\d+(?:\s*\d+/\d+)?)\s*"*`)
	wholeFractionRe = regexp.MustCompile(`^(\d+)\s*[-\s]\s*(\d+)/(\d+)`)
	fractionRe      = regexp.MustCompile(`^(\d+)/(\d+)`)

	// pairRe matches schedule-style WxH entries.
	pairRe = regexp.MustCompile(
		`(\d+'?\s*-?\s*\d*(?:\s*\d+/\d+)?["']?)\s*[xX×]\s*(\d+'?\s*-?\s*\d*(?:\s*\d+/\d+)?["']?)`)
)

// dimensionLabels maps dimension keys to their surface forms on drawings.
// Keys are tried in a fixed order and forms longest first, so "width: 36"
// never half-matches through a shorter label.
var dimensionLabels = []struct {
	key   string
	forms []string
}{
	{"width", []string{"width", "w:", "w ="}},
	{"height", []string{"height", "h:", "h ="}},
	{"depth", []string{"depth", "d:", "d =", "return"}},
}

var labeledRes = buildLabeledRes()

func buildLabeledRes() map[string][]*regexp.Regexp {
	out := make(map[string][]*regexp.Regexp, len(dimensionLabels))
	for _, entry := range dimensionLabels {
		forms := append([]string(nil), entry.forms...)
		sort.Slice(forms, func(i, j int) bool { return len(forms[i]) > len(forms[j]) })
		for _, form := range forms {
			re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(form) +
				`\s*[:=]?\s*(\d+'?\s*-?\s*\d*(?:\s*\d+/\d+)?["']?)`)
			out[entry.key] = append(out[entry.key], re)
		}
	}
	return out
}

func normalizePrimes(s string) string {
	s = strings.ReplaceAll(s, "′", "'")
	s = strings.ReplaceAll(s, "″", `"`)
	return s
}

// ParseDimensionInches parses a single dimension string to decimal inches.
// Returns (0, false) when the string carries no parseable dimension.
func ParseDimensionInches(text string) (float64, bool) {
	text = normalizePrimes(strings.TrimSpace(text))

	if m := feetInchesRe.FindStringSubmatch(text); m != nil {
		feet, _ := strconv.Atoi(m[1])
		if inches, ok := parseInches(strings.TrimSpace(m[2])); ok {
			return float64(feet)*12 + inches, true
		}
	}

	trimmed := strings.TrimSpace(strings.TrimRight(strings.TrimRight(text, `"`), "'"))
	return parseInches(trimmed)
}

// parseInches parses forms like "36", "36 1/2", "36-1/2" and "1/2".
func parseInches(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	if m := wholeFractionRe.FindStringSubmatch(text); m != nil {
		whole, _ := strconv.Atoi(m[1])
		num, _ := strconv.Atoi(m[2])
		den, _ := strconv.Atoi(m[3])
		if den == 0 {
			return 0, false
		}
		return float64(whole) + float64(num)/float64(den), true
	}

	if m := fractionRe.FindStringSubmatch(text); m != nil {
		num, _ := strconv.Atoi(m[1])
		den, _ := strconv.Atoi(m[2])
		if den == 0 {
			return 0, false
		}
		return float64(num) / float64(den), true
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ExtractDimensions pulls width/height/depth out of a text block. A WxH pair
// wins outright; otherwise labeled callouts are collected, range-checked
// against [DimensionMin, DimensionMax].
func ExtractDimensions(text string) map[string]*float64 {
	dims := map[string]*float64{"width": nil, "height": nil, "depth": nil}

	if m := pairRe.FindStringSubmatch(normalizePrimes(text)); m != nil {
		if w, ok := ParseDimensionInches(m[1]); ok {
			dims["width"] = &w
		}
		if h, ok := ParseDimensionInches(m[2]); ok {
			dims["height"] = &h
		}
		return dims
	}

	for _, entry := range dimensionLabels {
		for _, re := range labeledRes[entry.key] {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			v, ok := ParseDimensionInches(m[1])
			if ok && v >= DimensionMin && v <= DimensionMax {
				val := v
				dims[entry.key] = &val
				break
			}
		}
	}
	return dims
}
