package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
)

func TestAssessRisksNoRisks(t *testing.T) {
	a := AssessRisks(models.ProtocolAnalysisResult{}, models.KeywordSet{})

	assert.NotNil(t, a.Logistics)
	assert.NotNil(t, a.CRO)
	assert.NotNil(t, a.Regulatory)
	assert.Zero(t, a.Overall.RiskScore)
	assert.Equal(t, SummaryLowRisk, a.Overall.Summary)
	assert.Len(t, a.Overall.MitigationStrategies, 2)
}

func TestAssessRisksColdChainOnly(t *testing.T) {
	p := models.ProtocolAnalysisResult{
		Logistics: models.LogisticsAnalysis{StorageConditions: StorageColdChain},
	}

	a := AssessRisks(p, models.KeywordSet{})

	require.Len(t, a.Logistics, 1)
	assert.Equal(t, "Cold Chain", a.Logistics[0].Category)
	assert.Empty(t, a.CRO)
	assert.Empty(t, a.Regulatory)
	assert.Equal(t, 3.0, a.Overall.RiskScore)
	assert.Equal(t, SummaryHighRisk, a.Overall.Summary)
	assert.Len(t, a.Overall.MitigationStrategies, 3)
}

func TestAssessRisksMixedTier(t *testing.T) {
	p := models.ProtocolAnalysisResult{
		Logistics: models.LogisticsAnalysis{StorageConditions: StorageColdChain},
		CRO: models.CROAnalysis{
			ProcedureComplexity: 8,
			PatientBurden:       7,
		},
	}
	kw := models.KeywordSet{Procedures: []string{"Biopsy"}}

	a := AssessRisks(p, kw)

	require.Len(t, a.CRO, 2)
	assert.Equal(t, "Procedures", a.CRO[0].Category)
	assert.Equal(t, "Patient Retention", a.CRO[1].Category)
	require.Len(t, a.Regulatory, 1)
	assert.Equal(t, "Ethics Review", a.Regulatory[0].Category)

	// (3 + 2 + 3 + 2) / 4 sits on the boundary and stays medium.
	assert.InDelta(t, 2.5, a.Overall.RiskScore, 1e-9)
	assert.Equal(t, SummaryMediumRisk, a.Overall.Summary)
}

func TestAssessRisksDistribution(t *testing.T) {
	p := models.ProtocolAnalysisResult{
		Logistics: models.LogisticsAnalysis{
			DistributionChallenges: []string{DistributionShelfLife, DistributionMultipleSites, DistributionInternational},
		},
	}

	a := AssessRisks(p, models.KeywordSet{})

	require.Len(t, a.Logistics, 1)
	assert.Equal(t, "Distribution", a.Logistics[0].Category)
	assert.Equal(t, models.LevelMedium, a.Logistics[0].Severity)
	assert.Equal(t, 2.0, a.Overall.RiskScore)
	assert.Equal(t, SummaryMediumRisk, a.Overall.Summary)
}

func TestAssessRisksThresholdsAreStrict(t *testing.T) {
	p := models.ProtocolAnalysisResult{
		Logistics: models.LogisticsAnalysis{
			DistributionChallenges: []string{DistributionShelfLife, DistributionMultipleSites},
		},
		CRO: models.CROAnalysis{ProcedureComplexity: 7, PatientBurden: 6},
	}

	a := AssessRisks(p, models.KeywordSet{})

	assert.Empty(t, a.Logistics)
	assert.Empty(t, a.CRO)
}

func TestRiskScoreMatchesSeverities(t *testing.T) {
	a := models.RiskAssessment{
		Logistics: []models.Risk{{Severity: models.LevelLow}},
		CRO:       []models.Risk{{Severity: models.LevelHigh}},
	}
	assert.Equal(t, 2.0, RiskScore(a))
	assert.Zero(t, RiskScore(models.RiskAssessment{}))
}

func TestMitigationsAreCopies(t *testing.T) {
	a := AssessRisks(models.ProtocolAnalysisResult{}, models.KeywordSet{})
	a.Overall.MitigationStrategies[0] = "changed"

	b := AssessRisks(models.ProtocolAnalysisResult{}, models.KeywordSet{})
	assert.NotEqual(t, "changed", b.Overall.MitigationStrategies[0])
}
