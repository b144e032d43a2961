package analyzer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
)

const previewLength = 500

var (
	lineSplitRx = regexp.MustCompile(`[\n\r]+|\.\s+`)

	logisticsLineRx = re(`site\s+(\d+)\D*?(?:drug|product|imp)\s+([A-Za-z0-9-]+).*?inventory\D*?(\d+).*?reorder(?:\s+point)?\D*?(\d+)`)
	enrollmentRx    = re(`site\s+(\d+).*?enrolled\D*?(\d+)\s*(?:of|/|out of)\s*(\d+)`)
	enrollRateRx    = re(`(\d+(?:\.\d+)?)\s*(?:patients\s*)?(?:per|/)\s*month`)
	predictedEndRx  = re(`(?:predicted|projected|expected)\s+(?:end|completion)\D*?(\d{4}-\d{2}-\d{2}|\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`)
	isoDateRx       = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`)

	requirementRx = re(`approval|submission|inspection|reporting|documentation|amendment|renewal`)
	complianceRx  = re(`non-compliant|non-compliance|at[- ]risk|pending|overdue|compliant|approved`)
	stageRx       = re(`screening|enrollment|treatment|follow-up|close-out`)

	financeCategoryRx = re(`(personnel|equipment|medication|patient compensation|site costs?|regulatory fees|monitoring|laboratory|travel)\D*?([$€£])?\s*(\d[\d,]*(?:\.\d+)?)`)
	overBudgetRx      = re(`over[- ]?budget|exceed`)
	underBudgetRx     = re(`under[- ]?budget|saving`)
	financeFileRx     = re(`finance|budget|cost|expense`)
	actualFileRx      = re(`actual|report`)
)

// documentRecords is the structured output of one document.
type documentRecords struct {
	data     models.ExtractedData
	insights models.SectorInsights
}

// ExtractRecords pulls structured logistics, enrollment, regulatory and
// finance records out of one document. Finance lines are only read from
// documents whose name marks them as financial.
func ExtractRecords(doc models.RawDocument, keywords models.KeywordSet) models.ExtractedData {
	return extractRecords(doc, keywords).data
}

func extractRecords(doc models.RawDocument, keywords models.KeywordSet) documentRecords {
	lines := splitLines(doc.Text)
	finance := isFinanceDocument(doc.Name)

	data := models.ExtractedData{
		Logistics:  []models.LogisticsData{},
		Enrollment: []models.EnrollmentData{},
		Regulatory: []models.RegulatoryData{},
		Finance:    []models.FinanceData{},
	}

	for _, line := range lines {
		if rec, ok := parseLogisticsLine(line); ok {
			data.Logistics = append(data.Logistics, rec)
		}
		if rec, ok := parseEnrollmentLine(line); ok {
			data.Enrollment = append(data.Enrollment, rec)
		}
		if rec, ok := parseRegulatoryLine(line, len(data.Regulatory)+1); ok {
			data.Regulatory = append(data.Regulatory, rec)
		}
		if finance {
			if rec, ok := parseFinanceLine(line, doc.Name); ok {
				data.Finance = append(data.Finance, rec)
			}
		}
	}

	return documentRecords{
		data:     data,
		insights: sectorInsights(doc, data, keywords, finance),
	}
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range lineSplitRx.Split(text, -1) {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func parseLogisticsLine(line string) (models.LogisticsData, bool) {
	m := logisticsLineRx.FindStringSubmatch(line)
	if m == nil {
		return models.LogisticsData{}, false
	}
	inventory, err1 := strconv.Atoi(m[3])
	reorder, err2 := strconv.Atoi(m[4])
	if err1 != nil || err2 != nil {
		return models.LogisticsData{}, false
	}
	return models.NewLogisticsData(siteCode(m[1]), "Drug "+m[2], inventory, reorder), true
}

func parseEnrollmentLine(line string) (models.EnrollmentData, bool) {
	m := enrollmentRx.FindStringSubmatch(line)
	if m == nil {
		return models.EnrollmentData{}, false
	}
	actual, err1 := strconv.Atoi(m[2])
	target, err2 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil {
		return models.EnrollmentData{}, false
	}

	rec := models.EnrollmentData{SiteID: siteCode(m[1]), Actual: actual, Target: target}
	if r := enrollRateRx.FindStringSubmatch(line); r != nil {
		rec.Rate, _ = strconv.ParseFloat(r[1], 64)
	}
	if p := predictedEndRx.FindStringSubmatch(line); p != nil {
		rec.PredictedEnd = p[1]
	}
	return rec, true
}

func parseRegulatoryLine(line string, seq int) (models.RegulatoryData, bool) {
	body := firstRuleMatch(fieldRegulatoryBodies, line)
	requirement := strings.ToLower(requirementRx.FindString(line))
	if body == "" || requirement == "" {
		return models.RegulatoryData{}, false
	}

	rec := models.RegulatoryData{
		ID:              fmt.Sprintf("REG%03d", seq),
		Country:         firstRuleMatch(fieldCountries, line),
		RegulatoryBody:  body,
		RequirementType: requirement,
		Stage:           strings.ToLower(stageRx.FindString(line)),
		Status:          complianceStatus(line),
		DueDate:         isoDateRx.FindString(line),
		Description:     truncate(line, 200),
		Impact:          severity(line),
	}
	if m := firstSiteRx.FindStringSubmatch(line); m != nil {
		rec.SiteID = siteCode(m[1])
	}
	if len(body) <= 6 {
		rec.RegulatoryBody = strings.ToUpper(body)
	}
	return rec, true
}

func complianceStatus(line string) string {
	switch s := strings.ToLower(complianceRx.FindString(line)); s {
	case "non-compliant", "non-compliance", "overdue":
		return "non-compliant"
	case "at risk", "at-risk":
		return "at-risk"
	case "compliant", "approved":
		return "compliant"
	default:
		return "pending"
	}
}

func parseFinanceLine(line, fileName string) (models.FinanceData, bool) {
	m := financeCategoryRx.FindStringSubmatch(line)
	if m == nil {
		return models.FinanceData{}, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(m[3], ",", ""))
	if err != nil {
		return models.FinanceData{}, false
	}

	category := titleCase(m[1])
	rec := models.FinanceData{
		Category:     category,
		Description:  fmt.Sprintf("%s costs for clinical trial", category),
		Amount:       amount,
		Currency:     currencyFor(m[2]),
		Date:         isoDateRx.FindString(line),
		Status:       "projected",
		BudgetImpact: "neutral",
	}
	if s := firstSiteRx.FindStringSubmatch(line); s != nil {
		rec.SiteID = siteCode(s[1])
	}
	if actualFileRx.MatchString(filepath.Base(fileName)) {
		rec.Status = "actual"
	}
	switch {
	case overBudgetRx.MatchString(line):
		rec.Status = "overbudget"
		rec.BudgetImpact = "negative"
	case underBudgetRx.MatchString(line):
		rec.BudgetImpact = "positive"
	}
	return rec, true
}

func sectorInsights(doc models.RawDocument, data models.ExtractedData, keywords models.KeywordSet, finance bool) models.SectorInsights {
	insights := models.SectorInsights{
		Logistics:  []string{},
		CRO:        []string{},
		Regulatory: []string{},
		Finance:    []string{},
	}

	if n := len(data.Logistics); n > 0 {
		insights.Logistics = append(insights.Logistics, fmt.Sprintf("%d inventory records identified", n))
		low := 0
		for _, r := range data.Logistics {
			if r.Status != models.InventoryOK {
				low++
			}
		}
		if low > 0 {
			insights.Logistics = append(insights.Logistics, fmt.Sprintf("%d records at or below reorder point", low))
		}
	}
	if coldChainTerms.MatchString(doc.Text) {
		insights.Logistics = append(insights.Logistics, "Cold chain requirements detected")
	}
	if len(keywords.Products) > 0 {
		insights.Logistics = append(insights.Logistics, fmt.Sprintf("Products referenced: %s", strings.Join(keywords.Products, ", ")))
	}

	if n := len(data.Enrollment); n > 0 {
		insights.CRO = append(insights.CRO, fmt.Sprintf("Enrollment figures found for %d sites", n))
	}
	if len(keywords.Dates) > 0 {
		insights.CRO = append(insights.CRO, fmt.Sprintf("%d visit timepoints or dates detected", len(keywords.Dates)))
	}
	if len(keywords.Procedures) > 0 {
		insights.CRO = append(insights.CRO, fmt.Sprintf("Procedures referenced: %s", strings.Join(keywords.Procedures, ", ")))
	}

	if n := len(data.Regulatory); n > 0 {
		insights.Regulatory = append(insights.Regulatory, fmt.Sprintf("%d regulatory requirements detected", n))
	}
	if len(keywords.RegulatoryBodies) > 0 {
		insights.Regulatory = append(insights.Regulatory, fmt.Sprintf("Regulatory bodies: %s", strings.Join(keywords.RegulatoryBodies, ", ")))
	}

	if finance {
		if n := len(data.Finance); n > 0 {
			insights.Finance = append(insights.Finance, fmt.Sprintf("%d budget line items identified", n))
		}
		for _, r := range data.Finance {
			if r.Status == "overbudget" {
				insights.Finance = append(insights.Finance, fmt.Sprintf("%s is over budget", r.Category))
			}
		}
	}

	return insights
}

func firstRuleMatch(field keywordField, text string) string {
	for _, rule := range keywordRules {
		if rule.field != field {
			continue
		}
		if m := rule.pattern.FindStringSubmatch(text); m != nil {
			return m[rule.group]
		}
	}
	return ""
}

func isFinanceDocument(name string) bool {
	return financeFileRx.MatchString(filepath.Base(name))
}

func siteCode(digits string) string {
	return "SITE" + padSiteID(digits)
}

func currencyFor(symbol string) string {
	switch symbol {
	case "€":
		return "EUR"
	case "£":
		return "GBP"
	default:
		return "USD"
	}
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func contentPreview(text string) string {
	return truncate(strings.TrimSpace(text), previewLength)
}
