package analyzer

import (
	"regexp"
	"slices"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
)

type keywordField int

const (
	fieldSites keywordField = iota
	fieldProducts
	fieldDates
	fieldProcedures
	fieldRegulatoryBodies
	fieldCountries
)

// keywordRule maps every match of pattern to one entry of field, taken from
// capture group group (0 is the whole match).
type keywordRule struct {
	name    string
	pattern *regexp.Regexp
	group   int
	field   keywordField
}

var keywordRules = []keywordRule{
	{name: "site-id", pattern: regexp.MustCompile(`(?i)site\s+(\d+)`), group: 1, field: fieldSites},
	{name: "product-name", pattern: regexp.MustCompile(`(?i)(drug|product|imp|medication)\s+([A-Za-z0-9-]+)`), group: 2, field: fieldProducts},
	{name: "calendar-date", pattern: regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`), field: fieldDates},
	{name: "week-timepoint", pattern: regexp.MustCompile(`(?i)week\s+\d+`), field: fieldDates},
	{name: "day-timepoint", pattern: regexp.MustCompile(`(?i)day\s+-?\d+`), field: fieldDates},
	{name: "procedure", pattern: regexp.MustCompile(`(?i)\b(?:blood draw|biopsy|scan|mri|ct|questionnaire|assessment)`), field: fieldProcedures},
	{name: "regulatory-body", pattern: regexp.MustCompile(`(?i)\b(?:FDA|EMA|MHRA|PMDA|Health Canada|TGA|NMPA|ANVISA|Swissmedic|CDSCO|IRB|IEC|Ethics Committee)\b`), field: fieldRegulatoryBodies},
	{name: "country", pattern: regexp.MustCompile(`(?i)\b(?:United States|USA|Canada|Mexico|Brazil|Argentina|United Kingdom|UK|Germany|France|Spain|Italy|Netherlands|Belgium|Poland|Switzerland|Sweden|Japan|China|India|South Korea|Australia|South Africa)\b`), field: fieldCountries},
}

// ExtractKeywords scans text with every keyword rule. Empty text yields an
// empty set, never an error.
func ExtractKeywords(text string) models.KeywordSet {
	found := make(map[keywordField][]string, 6)
	for _, rule := range keywordRules {
		for _, m := range rule.pattern.FindAllStringSubmatch(text, -1) {
			if rule.group < len(m) && m[rule.group] != "" {
				found[rule.field] = append(found[rule.field], m[rule.group])
			}
		}
	}

	return models.KeywordSet{
		Sites:            uniqueSorted(found[fieldSites]),
		Products:         uniqueSorted(found[fieldProducts]),
		Dates:            uniqueSorted(found[fieldDates]),
		Procedures:       uniqueSorted(found[fieldProcedures]),
		RegulatoryBodies: uniqueSorted(found[fieldRegulatoryBodies]),
		Countries:        uniqueSorted(found[fieldCountries]),
	}
}

// UnionKeywords merges keyword sets field by field.
func UnionKeywords(sets ...models.KeywordSet) models.KeywordSet {
	var out models.KeywordSet
	for _, s := range sets {
		out.Sites = append(out.Sites, s.Sites...)
		out.Products = append(out.Products, s.Products...)
		out.Dates = append(out.Dates, s.Dates...)
		out.Procedures = append(out.Procedures, s.Procedures...)
		out.RegulatoryBodies = append(out.RegulatoryBodies, s.RegulatoryBodies...)
		out.Countries = append(out.Countries, s.Countries...)
	}
	return models.KeywordSet{
		Sites:            uniqueSorted(out.Sites),
		Products:         uniqueSorted(out.Products),
		Dates:            uniqueSorted(out.Dates),
		Procedures:       uniqueSorted(out.Procedures),
		RegulatoryBodies: uniqueSorted(out.RegulatoryBodies),
		Countries:        uniqueSorted(out.Countries),
	}
}

func uniqueSorted(values []string) []string {
	out := slices.Clone(values)
	if out == nil {
		return []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
