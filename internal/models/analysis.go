package models

import "time"

// Level is the ordinal used for risk severity, probability and disruption severity.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Weight returns the numeric weight used in aggregate risk scoring.
func (l Level) Weight() int {
	switch l {
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	case LevelLow:
		return 1
	}
	return 0
}

// KeywordSet holds the signals found in a document. Each list is sorted and
// free of duplicates.
type KeywordSet struct {
	Sites            []string `json:"sites"`
	Products         []string `json:"products"`
	Dates            []string `json:"dates"`
	Procedures       []string `json:"procedures"`
	RegulatoryBodies []string `json:"regulatory_bodies"`
	Countries        []string `json:"countries"`
}

type DemandEstimate struct {
	High     bool   `json:"high"`
	Estimate string `json:"estimate"`
}

type LogisticsAnalysis struct {
	SupplyRequirements     []string       `json:"supply_requirements"`
	StorageConditions      string         `json:"storage_conditions"`
	DistributionChallenges []string       `json:"distribution_challenges"`
	EstimatedDemand        DemandEstimate `json:"estimated_demand"`
}

type VisitSchedule struct {
	VisitCount    int     `json:"visit_count"`
	DurationWeeks int     `json:"duration_weeks"`
	Complexity    float64 `json:"complexity"`
}

type StaffingRequirements struct {
	Staff      []string `json:"staff"`
	Complexity float64  `json:"complexity"`
}

type CROAnalysis struct {
	VisitSchedule        VisitSchedule        `json:"visit_schedule"`
	ProcedureComplexity  float64              `json:"procedure_complexity"`
	StaffingRequirements StaffingRequirements `json:"staffing_requirements"`
	PatientBurden        float64              `json:"patient_burden"`
}

type ProtocolAnalysisResult struct {
	Logistics          LogisticsAnalysis `json:"logistics"`
	CRO                CROAnalysis       `json:"cro"`
	ProtocolChallenges []string          `json:"protocol_challenges"`
	Complexity         float64           `json:"complexity"`
}

type Risk struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    Level  `json:"severity"`
	Probability Level  `json:"probability"`
	Impact      string `json:"impact"`
	Mitigation  string `json:"mitigation"`
}

type OverallRisk struct {
	RiskScore            float64  `json:"risk_score"`
	Summary              string   `json:"summary"`
	MitigationStrategies []string `json:"mitigation_strategies"`
}

type RiskAssessment struct {
	Logistics  []Risk      `json:"logistics"`
	CRO        []Risk      `json:"cro"`
	Regulatory []Risk      `json:"regulatory"`
	Overall    OverallRisk `json:"overall"`
}

// DisruptionSimulationParams is the handoff to the disruption simulation layer.
type DisruptionSimulationParams struct {
	SiteID         string `json:"site_id" validate:"required,max=32"`
	DisruptionType string `json:"disruption_type" validate:"required,oneof='IMP Delay' 'Site Closure' 'Staff Shortage'"`
	Severity       Level  `json:"severity" validate:"required,oneof=low medium high"`
	Product        string `json:"product,omitempty" validate:"max=64"`
}

type SectorInsights struct {
	Logistics  []string `json:"logistics"`
	CRO        []string `json:"cro"`
	Regulatory []string `json:"regulatory"`
	Finance    []string `json:"finance"`
}

// DocumentSource is the per-document analysis envelope.
type DocumentSource struct {
	FileName         string                     `json:"file_name"`
	FileType         FileType                   `json:"file_type"`
	FileSize         int64                      `json:"file_size"`
	ExtractedContent string                     `json:"extracted_content"`
	SectorInsights   SectorInsights             `json:"sector_insights"`
	ExtractedData    ExtractedData              `json:"extracted_data"`
	Keywords         KeywordSet                 `json:"keywords"`
	SimulationParams DisruptionSimulationParams `json:"simulation_params"`
	ProtocolAnalysis ProtocolAnalysisResult     `json:"protocol_analysis"`
	RiskAssessment   RiskAssessment             `json:"risk_assessment"`
}

// SkippedDocument records a document excluded from a batch.
type SkippedDocument struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

type ModelInfo struct {
	Name          string    `json:"name"`
	Version       string    `json:"version"`
	Deterministic bool      `json:"deterministic"`
	DocumentCount int       `json:"document_count"`
	AnalyzedAt    time.Time `json:"analyzed_at,omitempty"`
}

type MultiDocumentAnalysisResult struct {
	CombinedSimulationParams DisruptionSimulationParams `json:"combined_simulation_params"`
	ProtocolAnalysis         ProtocolAnalysisResult     `json:"protocol_analysis"`
	RiskAssessment           RiskAssessment             `json:"risk_assessment"`
	Sources                  []DocumentSource           `json:"sources"`
	Keywords                 KeywordSet                 `json:"keywords"`
	ExtractedData            ExtractedData              `json:"extracted_data"`
	Model                    ModelInfo                  `json:"model"`
	Skipped                  []SkippedDocument          `json:"skipped"`
}
