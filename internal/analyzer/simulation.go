package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
)

const (
	DisruptionIMPDelay      = "IMP Delay"
	DisruptionSiteClosure   = "Site Closure"
	DisruptionStaffShortage = "Staff Shortage"

	DefaultSiteID  = "001"
	DefaultProduct = "Drug A"
)

var (
	firstSiteRx = re(`site\s+(\d+)`)

	impDelayRx      = re(`delay|shipment|supply|inventory`)
	siteClosureRx   = re(`closure|close|shut|suspend`)
	staffShortageRx = re(`staff|personnel|shortage|resource`)

	highSeverityRx = re(`critical|severe|urgent|high|major`)
	lowSeverityRx  = re(`minor|low|slight|minimal`)

	// "IMP Delay" is common prose, so an explicit drug or product name wins
	// over an IMP mention.
	productLetterRxs = []*regexp.Regexp{
		re(`drug\s+([A-Za-z])`),
		re(`product\s+([A-Za-z])`),
		re(`imp\s+([A-Za-z])`),
	}
)

// DefaultSimulationParams is the parameter set used when text carries no signal.
func DefaultSimulationParams() models.DisruptionSimulationParams {
	return models.DisruptionSimulationParams{
		SiteID:         DefaultSiteID,
		DisruptionType: DisruptionIMPDelay,
		Severity:       models.LevelMedium,
		Product:        DefaultProduct,
	}
}

// AnalyzeTrialText maps free text to disruption simulation parameters.
func AnalyzeTrialText(text string) models.DisruptionSimulationParams {
	params := DefaultSimulationParams()

	if m := firstSiteRx.FindStringSubmatch(text); m != nil {
		params.SiteID = padSiteID(m[1])
	}

	params.DisruptionType = disruptionType(text)
	params.Severity = severity(text)

	for _, rx := range productLetterRxs {
		if m := rx.FindStringSubmatch(text); m != nil {
			params.Product = fmt.Sprintf("Drug %s", m[1])
			break
		}
	}

	return params
}

func disruptionType(text string) string {
	impDelay := countMatches(impDelayRx, text)
	closure := countMatches(siteClosureRx, text)
	staff := countMatches(staffShortageRx, text)

	switch {
	case closure > impDelay && closure > staff:
		return DisruptionSiteClosure
	case staff > impDelay && staff > closure:
		return DisruptionStaffShortage
	default:
		return DisruptionIMPDelay
	}
}

func severity(text string) models.Level {
	high := countMatches(highSeverityRx, text)
	low := countMatches(lowSeverityRx, text)

	switch {
	case high > low*2:
		return models.LevelHigh
	case low > high:
		return models.LevelLow
	default:
		return models.LevelMedium
	}
}

func padSiteID(id string) string {
	if len(id) >= 3 {
		return id
	}
	return strings.Repeat("0", 3-len(id)) + id
}

func countMatches(rx *regexp.Regexp, text string) int {
	return len(rx.FindAllStringIndex(text, -1))
}

// isDefaultBearing reports whether params carry nothing beyond the defaults
// in the fields that identify a site and product.
func isDefaultBearing(p models.DisruptionSimulationParams) bool {
	return p.SiteID == DefaultSiteID && p.Product == DefaultProduct
}
