package ssot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDimension(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		value *float64
		want  string
	}{
		{"nil is TBV", nil, "TBV"},
		{"whole feet", f(36), `3'-0"`},
		{"feet and inches", f(42), `3'-6"`},
		{"fractional inches above a foot", f(36.5), `3'-0.5"`},
		{"under a foot", f(11), `11"`},
		{"fractional under a foot", f(11.5), `11.5"`},
		{"exactly a foot", f(12), `1'-0"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDimension(tt.value))
		})
	}
}
