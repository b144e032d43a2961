package analyzer

import (
	"strings"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
)

const (
	SummaryHighRisk   = "High risk profile: the protocol combines demanding logistics and site burden that require active mitigation before activation."
	SummaryMediumRisk = "Medium risk profile: several protocol features need targeted monitoring and contingency planning."
	SummaryLowRisk    = "Low to moderate risk profile: standard trial oversight should be sufficient."
)

var (
	highRiskMitigations = []string{
		"Establish backup depots and qualified alternate suppliers for the IMP",
		"Add site monitoring visits and dedicated coordinator support at high-burden sites",
		"Engage regulators early on invasive procedures and protocol amendments",
	}
	mediumRiskMitigations = []string{
		"Track inventory against reorder points weekly at every site",
		"Review visit schedules with sites to reduce avoidable patient burden",
		"Prepare contingency plans for the highest-rated risks",
	}
	lowRiskMitigations = []string{
		"Maintain routine risk-based monitoring",
		"Reassess risks at each protocol amendment",
	}
)

// riskRule appends risk to bucket when applies holds.
type riskRule struct {
	bucket  func(*models.RiskAssessment) *[]models.Risk
	applies func(models.ProtocolAnalysisResult, models.KeywordSet) bool
	risk    models.Risk
}

func logisticsBucket(a *models.RiskAssessment) *[]models.Risk  { return &a.Logistics }
func croBucket(a *models.RiskAssessment) *[]models.Risk        { return &a.CRO }
func regulatoryBucket(a *models.RiskAssessment) *[]models.Risk { return &a.Regulatory }

var riskRules = []riskRule{
	{
		bucket: logisticsBucket,
		applies: func(p models.ProtocolAnalysisResult, _ models.KeywordSet) bool {
			return p.Logistics.StorageConditions == StorageColdChain
		},
		risk: models.Risk{
			Category:    "Cold Chain",
			Description: "Temperature excursions during storage or shipment of cold chain product",
			Severity:    models.LevelHigh,
			Probability: models.LevelMedium,
			Impact:      "Loss of IMP stock and missed dosing visits",
			Mitigation:  "Use validated shippers with continuous temperature logging and excursion procedures",
		},
	},
	{
		bucket: logisticsBucket,
		applies: func(p models.ProtocolAnalysisResult, _ models.KeywordSet) bool {
			return len(p.Logistics.DistributionChallenges) > 2
		},
		risk: models.Risk{
			Category:    "Distribution",
			Description: "Multiple concurrent distribution challenges across the supply network",
			Severity:    models.LevelMedium,
			Probability: models.LevelHigh,
			Impact:      "Delayed resupply to sites",
			Mitigation:  "Set up regional depots and increase safety stock at remote sites",
		},
	},
	{
		bucket: croBucket,
		applies: func(p models.ProtocolAnalysisResult, _ models.KeywordSet) bool {
			return p.CRO.ProcedureComplexity > 7
		},
		risk: models.Risk{
			Category:    "Procedures",
			Description: "Complex procedure schedule increases the chance of protocol deviations",
			Severity:    models.LevelMedium,
			Probability: models.LevelHigh,
			Impact:      "Data quality issues and site workload",
			Mitigation:  "Provide procedure training and visit checklists to sites",
		},
	},
	{
		bucket: croBucket,
		applies: func(p models.ProtocolAnalysisResult, _ models.KeywordSet) bool {
			return p.CRO.PatientBurden > 6
		},
		risk: models.Risk{
			Category:    "Patient Retention",
			Description: "High patient burden may reduce enrollment and increase dropouts",
			Severity:    models.LevelHigh,
			Probability: models.LevelMedium,
			Impact:      "Enrollment shortfall and timeline extension",
			Mitigation:  "Offer travel support, flexible visit windows and home visits where possible",
		},
	},
	{
		bucket: regulatoryBucket,
		applies: func(_ models.ProtocolAnalysisResult, k models.KeywordSet) bool {
			for _, p := range k.Procedures {
				if strings.Contains(strings.ToLower(p), "biopsy") {
					return true
				}
			}
			return false
		},
		risk: models.Risk{
			Category:    "Ethics Review",
			Description: "Invasive biopsy procedures attract additional ethics and regulatory scrutiny",
			Severity:    models.LevelMedium,
			Probability: models.LevelMedium,
			Impact:      "Longer approval cycles",
			Mitigation:  "Justify biopsy timepoints in the protocol and prepare consent materials early",
		},
	},
}

// AssessRisks applies the risk rules to a protocol analysis and scores the result.
func AssessRisks(protocol models.ProtocolAnalysisResult, keywords models.KeywordSet) models.RiskAssessment {
	assessment := models.RiskAssessment{
		Logistics:  []models.Risk{},
		CRO:        []models.Risk{},
		Regulatory: []models.Risk{},
	}
	for _, rule := range riskRules {
		if rule.applies(protocol, keywords) {
			bucket := rule.bucket(&assessment)
			*bucket = append(*bucket, rule.risk)
		}
	}

	score := RiskScore(assessment)
	assessment.Overall = models.OverallRisk{RiskScore: score}
	switch {
	case score > 2.5:
		assessment.Overall.Summary = SummaryHighRisk
		assessment.Overall.MitigationStrategies = append([]string(nil), highRiskMitigations...)
	case score > 1.5:
		assessment.Overall.Summary = SummaryMediumRisk
		assessment.Overall.MitigationStrategies = append([]string(nil), mediumRiskMitigations...)
	default:
		assessment.Overall.Summary = SummaryLowRisk
		assessment.Overall.MitigationStrategies = append([]string(nil), lowRiskMitigations...)
	}
	return assessment
}

// RiskScore is the mean severity weight of all risks, or 0 when there are none.
func RiskScore(a models.RiskAssessment) float64 {
	total, count := 0, 0
	for _, list := range [][]models.Risk{a.Logistics, a.CRO, a.Regulatory} {
		for _, r := range list {
			total += r.Severity.Weight()
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}
