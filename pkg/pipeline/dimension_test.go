package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDimensionInches(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{`36"`, 36, true},
		{`36`, 36, true},
		{`36 1/2"`, 36.5, true},
		{`36-1/2`, 36.5, true},
		{`1/2"`, 0.5, true},
		{`3'-6"`, 42, true},
		{`3' - 6 1/2"`, 42.5, true},
		{`3′-6″`, 42, true},
		{`shower`, 0, false},
		{``, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDimensionInches(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.001)
			}
		})
	}
}

func TestExtractDimensions(t *testing.T) {
	t.Run("wxh pair", func(t *testing.T) {
		dims := ExtractDimensions(`SHOWER ENCLOSURE 36" x 72" TEMPERED`)
		require.NotNil(t, dims["width"])
		require.NotNil(t, dims["height"])
		assert.InDelta(t, 36, *dims["width"], 0.001)
		assert.InDelta(t, 72, *dims["height"], 0.001)
	})

	t.Run("pair wins over labels", func(t *testing.T) {
		dims := ExtractDimensions("30 x 60\nwidth: 99")
		require.NotNil(t, dims["width"])
		assert.InDelta(t, 30, *dims["width"], 0.001)
	})

	t.Run("labeled callouts", func(t *testing.T) {
		dims := ExtractDimensions("width: 34\nheight: 76\nreturn: 12")
		require.NotNil(t, dims["width"])
		require.NotNil(t, dims["height"])
		require.NotNil(t, dims["depth"])
		assert.InDelta(t, 34, *dims["width"], 0.001)
		assert.InDelta(t, 76, *dims["height"], 0.001)
		assert.InDelta(t, 12, *dims["depth"], 0.001)
	})

	t.Run("out of range label rejected", func(t *testing.T) {
		dims := ExtractDimensions("width: 400")
		assert.Nil(t, dims["width"])
	})

	t.Run("no dimensions", func(t *testing.T) {
		dims := ExtractDimensions("frameless glass, hardware chrome")
		assert.Nil(t, dims["width"])
		assert.Nil(t, dims["height"])
		assert.Nil(t, dims["depth"])
	})
}
