package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
)

func TestAnalyzeTrialText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.DisruptionSimulationParams
	}{
		{
			name: "imp delay with named drug",
			text: "Site 002 IMP Delay Drug B critical shortage",
			want: models.DisruptionSimulationParams{SiteID: "002", DisruptionType: DisruptionIMPDelay, Severity: models.LevelHigh, Product: "Drug B"},
		},
		{
			name: "site closure",
			text: "Site 7 closure: the site will close and suspend activity",
			want: models.DisruptionSimulationParams{SiteID: "007", DisruptionType: DisruptionSiteClosure, Severity: models.LevelMedium, Product: DefaultProduct},
		},
		{
			name: "staff shortage",
			text: "Site 12 staff shortage, personnel unavailable",
			want: models.DisruptionSimulationParams{SiteID: "012", DisruptionType: DisruptionStaffShortage, Severity: models.LevelMedium, Product: DefaultProduct},
		},
		{
			name: "minor issue",
			text: "A minor and slight issue with Product C",
			want: models.DisruptionSimulationParams{SiteID: DefaultSiteID, DisruptionType: DisruptionIMPDelay, Severity: models.LevelLow, Product: "Drug C"},
		},
		{
			name: "balanced severity",
			text: "high and low",
			want: models.DisruptionSimulationParams{SiteID: DefaultSiteID, DisruptionType: DisruptionIMPDelay, Severity: models.LevelMedium, Product: DefaultProduct},
		},
		{
			name: "imp name when nothing better",
			text: "IMP X shipment late at site 1234",
			want: models.DisruptionSimulationParams{SiteID: "1234", DisruptionType: DisruptionIMPDelay, Severity: models.LevelMedium, Product: "Drug X"},
		},
		{
			name: "empty text",
			text: "",
			want: DefaultSimulationParams(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeTrialText(tt.text))
		})
	}
}

func TestDisruptionTieFallsBackToIMPDelay(t *testing.T) {
	assert.Equal(t, DisruptionIMPDelay, disruptionType("closure and staff"))
	assert.Equal(t, DisruptionIMPDelay, disruptionType("supply closure"))
}

func TestSeverityNeedsTwiceAsManyHighTerms(t *testing.T) {
	assert.Equal(t, models.LevelMedium, severity("critical urgent minor"))
	assert.Equal(t, models.LevelHigh, severity("critical urgent severe minor"))
}

func TestPadSiteID(t *testing.T) {
	assert.Equal(t, "005", padSiteID("5"))
	assert.Equal(t, "042", padSiteID("42"))
	assert.Equal(t, "123", padSiteID("123"))
	assert.Equal(t, "1234", padSiteID("1234"))
}

func TestAnalyzeTrialTextIsDeterministic(t *testing.T) {
	text := "Site 3 supply delay for Drug Q, urgent"
	assert.Equal(t, AnalyzeTrialText(text), AnalyzeTrialText(text))
}

func TestIsDefaultBearing(t *testing.T) {
	assert.True(t, isDefaultBearing(DefaultSimulationParams()))

	p := DefaultSimulationParams()
	p.Severity = models.LevelHigh
	assert.True(t, isDefaultBearing(p))

	p.SiteID = "002"
	assert.False(t, isDefaultBearing(p))
}
