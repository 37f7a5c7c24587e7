package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/ssot"
)

func TestClassifyPage(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		pageNum   int
		wantClass string
		wantConf  float64
	}{
		{
			name:      "cover sheet on page zero",
			text:      "COVER SHEET - SHEET INDEX",
			pageNum:   0,
			wantClass: ssot.ClassTitle,
			wantConf:  0.85,
		},
		{
			// Two of six SCHEDULE keywords hit: 0.4 + (2/6)*0.6 = 0.6.
			name:      "door schedule",
			text:      "DOOR SCHEDULE",
			pageNum:   3,
			wantClass: ssot.ClassSchedule,
			wantConf:  0.6,
		},
		{
			name:      "elevation sheet",
			text:      "INTERIOR ELEVATION - MASTER BATH",
			pageNum:   4,
			wantClass: ssot.ClassElevation,
			wantConf:  0.64,
		},
		{
			name:      "no keywords",
			text:      "lorem ipsum",
			pageNum:   5,
			wantClass: ssot.ClassIrrelevant,
			wantConf:  0.3,
		},
		{
			name:      "empty page",
			text:      "",
			pageNum:   2,
			wantClass: ssot.ClassIrrelevant,
			wantConf:  0.3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, conf := ClassifyPage(tt.text, tt.pageNum, 10)
			assert.Equal(t, tt.wantClass, class)
			assert.InDelta(t, tt.wantConf, conf, 0.001)
		})
	}
}

func TestDetectRelevance(t *testing.T) {
	assert.Equal(t, []string{"showers"},
		DetectRelevance("FRAMELESS SHOWER ENCLOSURE PER PLAN"))
	assert.Equal(t, []string{"showers", "mirrors"},
		DetectRelevance("shower door and vanity mirror"))
	assert.Equal(t, []string{"assumptions"},
		DetectRelevance("see general notes for scope"))
	assert.Empty(t, DetectRelevance("structural steel framing"))
}
