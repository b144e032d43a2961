package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
)

type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat maps a query value to a Format. Empty means markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Render produces the report of an analysis in the requested format.
func Render(analysisID string, res *models.MultiDocumentAnalysisResult, format Format) ([]byte, error) {
	md := Markdown(analysisID, res)
	if format != FormatHTML {
		return []byte(md), nil
	}
	return HTML(analysisID, md)
}

// Markdown writes a narrative summary of an analysis.
func Markdown(analysisID string, res *models.MultiDocumentAnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Protocol analysis %s\n\n", analysisID)
	fmt.Fprintf(&b, "Analyzed %d document(s) with %s %s", res.Model.DocumentCount, res.Model.Name, res.Model.Version)
	if !res.Model.AnalyzedAt.IsZero() {
		fmt.Fprintf(&b, " on %s", res.Model.AnalyzedAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	b.WriteString(".\n\n")

	p := res.CombinedSimulationParams
	b.WriteString("## Disruption simulation parameters\n\n")
	b.WriteString("| Site | Disruption | Severity | Product |\n|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %s | %s | %s | %s |\n\n", cell(p.SiteID), cell(p.DisruptionType), p.Severity, cell(p.Product))

	pa := res.ProtocolAnalysis
	b.WriteString("## Protocol complexity\n\n")
	b.WriteString("| Measure | Score |\n|---|---|\n")
	fmt.Fprintf(&b, "| Overall complexity | %.2f |\n", pa.Complexity)
	fmt.Fprintf(&b, "| Visit schedule (%d visits, %d weeks) | %.2f |\n", pa.CRO.VisitSchedule.VisitCount, pa.CRO.VisitSchedule.DurationWeeks, pa.CRO.VisitSchedule.Complexity)
	fmt.Fprintf(&b, "| Procedures | %.2f |\n", pa.CRO.ProcedureComplexity)
	fmt.Fprintf(&b, "| Staffing | %.2f |\n", pa.CRO.StaffingRequirements.Complexity)
	fmt.Fprintf(&b, "| Patient burden | %.2f |\n\n", pa.CRO.PatientBurden)

	fmt.Fprintf(&b, "Storage: %s. Estimated demand: %s.\n\n", pa.Logistics.StorageConditions, pa.Logistics.EstimatedDemand.Estimate)
	bulletSection(&b, "### Supply requirements", pa.Logistics.SupplyRequirements)
	bulletSection(&b, "### Distribution challenges", pa.Logistics.DistributionChallenges)
	bulletSection(&b, "### Protocol challenges", pa.ProtocolChallenges)

	ra := res.RiskAssessment
	b.WriteString("## Risk assessment\n\n")
	fmt.Fprintf(&b, "Risk score **%.2f**. %s\n\n", ra.Overall.RiskScore, ra.Overall.Summary)
	risks := [][]models.Risk{ra.Logistics, ra.CRO, ra.Regulatory}
	sectors := []string{"Logistics", "CRO", "Regulatory"}
	if len(ra.Logistics)+len(ra.CRO)+len(ra.Regulatory) > 0 {
		b.WriteString("| Sector | Category | Severity | Probability | Mitigation |\n|---|---|---|---|---|\n")
		for i, list := range risks {
			for _, r := range list {
				fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", sectors[i], cell(r.Category), r.Severity, r.Probability, cell(r.Mitigation))
			}
		}
		b.WriteString("\n")
	}
	bulletSection(&b, "### Mitigation strategies", ra.Overall.MitigationStrategies)

	data := res.ExtractedData
	b.WriteString("## Extracted records\n\n")
	fmt.Fprintf(&b, "- Logistics: %d\n- Enrollment: %d\n- Regulatory: %d\n- Finance: %d\n\n",
		len(data.Logistics), len(data.Enrollment), len(data.Regulatory), len(data.Finance))

	if len(res.Sources) > 0 {
		b.WriteString("## Documents\n\n")
		for _, src := range res.Sources {
			fmt.Fprintf(&b, "### %s\n\n", src.FileName)
			fmt.Fprintf(&b, "Type %s, %d bytes, %d records.\n\n", src.FileType, src.FileSize, src.ExtractedData.Len())
			var insights []string
			for _, list := range [][]string{src.SectorInsights.Logistics, src.SectorInsights.CRO, src.SectorInsights.Regulatory, src.SectorInsights.Finance} {
				insights = append(insights, list...)
			}
			for _, in := range insights {
				fmt.Fprintf(&b, "- %s\n", in)
			}
			if len(insights) > 0 {
				b.WriteString("\n")
			}
		}
	}

	if len(res.Skipped) > 0 {
		b.WriteString("## Skipped documents\n\n")
		for _, s := range res.Skipped {
			fmt.Fprintf(&b, "- %s: %s\n", s.FileName, s.Reason)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders markdown into a standalone HTML page.
func HTML(analysisID, markdown string) ([]byte, error) {
	var content bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return nil, fmt.Errorf("markdown convert: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!doctype html><html><head><meta charset='utf-8'><title>Protocol analysis ")
	page.WriteString(html.EscapeString(analysisID))
	page.WriteString("</title><style>body{font-family:sans-serif;max-width:960px;margin:0 auto;padding:1rem;} table{border-collapse:collapse;} th,td{border:1px solid #ccc;padding:0.3rem 0.5rem;text-align:left;}</style></head><body>")
	page.Write(content.Bytes())
	page.WriteString("</body></html>")
	return page.Bytes(), nil
}

func bulletSection(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(heading)
	b.WriteString("\n\n")
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
