package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/ssot"
)

func TestDetectCategory(t *testing.T) {
	assert.Equal(t, ssot.CategoryShowerEnclosure, DetectCategory("FRAMELESS SHOWER ENCLOSURE"))
	assert.Equal(t, ssot.CategoryVanityMirror, DetectCategory("VANITY MIRROR AT POWDER ROOM"))
	// Shower keywords win when a block mentions both.
	assert.Equal(t, ssot.CategoryShowerEnclosure, DetectCategory("shower door opposite the mirror"))
	assert.Equal(t, "", DetectCategory("steel stud framing"))
}

func TestDetectConfiguration(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"inline panel and door", "inline-panel"}, // first match in slug order
		{"90 degree corner unit", "90-degree-corner"},
		{"neo-angle enclosure", "neo-angle"},
		{"bypass shower", "frameless-sliding"},
		{"tub panel at unit B", "bathtub-fixed-panel"},
		{"rectangular mirror", "vanity-mirror"},
		{"no known phrasing", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectConfiguration(tt.text), tt.text)
	}
}

func TestDetectGlassType(t *testing.T) {
	assert.Equal(t, "3/8 clear tempered", DetectGlassType("glass panel"))
	assert.Equal(t, "1/2 clear tempered", DetectGlassType(`1/2" glass`))
	assert.Equal(t, "3/8 frosted tempered", DetectGlassType("frosted glass"))
	assert.Equal(t, "3/8 low iron tempered", DetectGlassType("starphire glass"))
	assert.Equal(t, "1/2 low iron tempered", DetectGlassType(`1/2" low iron glass`))
}

func TestExtractItemsFromPage(t *testing.T) {
	text := "DOOR SCHEDULE\n\n" +
		"FRAMELESS SHOWER ENCLOSURE\nINLINE PANEL AND DOOR\n36\" x 72\"\n\n" +
		"VANITY MIRROR\n30 x 36"
	items := extractItemsFromPage(3, text)
	require.Len(t, items, 2)

	shower := items[0]
	assert.Equal(t, ssot.CategoryShowerEnclosure, shower.Category)
	assert.Equal(t, "inline-panel", shower.Configuration)
	require.NotNil(t, shower.Dimensions["width"].Value)
	require.NotNil(t, shower.Dimensions["height"].Value)
	assert.InDelta(t, 36, *shower.Dimensions["width"].Value, 0.001)
	assert.InDelta(t, 72, *shower.Dimensions["height"].Value, 0.001)
	assert.Equal(t, ssot.SourceDimensionCallout, shower.Dimensions["width"].Source)
	assert.Empty(t, shower.Flags)
	assert.Equal(t, []int{3}, shower.SourcePages)

	mirror := items[1]
	assert.Equal(t, ssot.CategoryVanityMirror, mirror.Category)
	assert.Equal(t, "vanity-mirror", mirror.Configuration)
	require.NotNil(t, mirror.Dimensions["width"].Value)
	assert.InDelta(t, 30, *mirror.Dimensions["width"].Value, 0.001)
}

func TestExtractItemsFromPageMissingDims(t *testing.T) {
	items := extractItemsFromPage(1, "FRAMELESS SHOWER ENCLOSURE\nFIELD VERIFY")
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Dimensions["width"].Value)
	assert.Equal(t, ssot.SourceFieldVerify, items[0].Dimensions["width"].Source)
	assert.True(t, items[0].HasFlag(ssot.FlagNeedsReview))
}
