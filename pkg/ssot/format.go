package ssot

import "fmt"

// FormatDimension renders a value for drawings: feet-inches at a foot and
// above, plain inches below, "TBV" for unknown.
func FormatDimension(value *float64) string {
	if value == nil {
		return "TBV"
	}
	v := *value

	if v >= 12 {
		feet := int(v / 12)
		inches := v - float64(feet)*12
		if inches == 0 {
			return fmt.Sprintf(`%d'-0"`, feet)
		}
		if inches == float64(int(inches)) {
			return fmt.Sprintf(`%d'-%d"`, feet, int(inches))
		}
		return fmt.Sprintf(`%d'-%.1f"`, feet, inches)
	}

	if v == float64(int(v)) {
		return fmt.Sprintf(`%d"`, int(v))
	}
	return fmt.Sprintf(`%.1f"`, v)
}
