package simulation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/analyzer"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
)

// ErrInvalidParams wraps validation failures of simulation parameters.
var ErrInvalidParams = errors.New("invalid simulation parameters")

// severityProfile holds the severity-dependent parts of a trigger response.
type severityProfile struct {
	estimatedImpact     string
	confidence          float64
	predictedDelay      string
	logisticsConfidence float64
	enrollmentAction    string
}

var severityProfiles = map[models.Level]severityProfile{
	models.LevelHigh:   {"72+ hours", 0.95, "72h", 0.92, "Pause enrollment"},
	models.LevelMedium: {"48 hours", 0.85, "48h", 0.82, "Reduce enrollment rate"},
	models.LevelLow:    {"24 hours", 0.75, "24h", 0.72, "Monitor enrollment"},
}

type disruptionProfile struct {
	proposedAction string
	rationale      string
}

var disruptionProfiles = map[string]disruptionProfile{
	analyzer.DisruptionIMPDelay:      {"Reroute supplies from backup depot", "Insufficient product available for new patients"},
	analyzer.DisruptionSiteClosure:   {"Temporarily redistribute patients to nearby sites", "Site temporarily unable to process new patients"},
	analyzer.DisruptionStaffShortage: {"Adjust patient visit schedule", "Staffing constraints may impact patient management"},
}

// Simulator turns disruption parameters into a trigger response. The response
// depends only on the parameters apart from the generated trigger ID.
type Simulator struct {
	validate *validator.Validate
	newID    func() string
}

func NewSimulator() *Simulator {
	return &Simulator{
		validate: validator.New(),
		newID:    newTriggerID,
	}
}

func newTriggerID() string {
	return "TRIG-" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *Simulator) Validate(params models.DisruptionSimulationParams) error {
	if err := s.validate.Struct(params); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func (s *Simulator) Trigger(params models.DisruptionSimulationParams) (*models.TriggerResponse, error) {
	if err := s.Validate(params); err != nil {
		return nil, err
	}

	sev := severityProfiles[params.Severity]
	dis := disruptionProfiles[params.DisruptionType]

	return &models.TriggerResponse{
		TriggerID: s.newID(),
		Message:   fmt.Sprintf("%s at Site %s with %s severity", params.DisruptionType, params.SiteID, params.Severity),
		Details: models.TriggerDetails{
			AffectedEntity:  "Site " + params.SiteID,
			ImpactType:      params.DisruptionType,
			EstimatedImpact: sev.estimatedImpact,
			Confidence:      sev.confidence,
			ProposedAction:  dis.proposedAction,
		},
		ModulesTriggered: models.ModulesTriggered{
			Logistics: models.LogisticsModule{
				PredictedDelay: sev.predictedDelay,
				Confidence:     sev.logisticsConfidence,
			},
			CRO: models.CROModule{
				EnrollmentAction: sev.enrollmentAction,
				Rationale:        dis.rationale,
			},
		},
	}, nil
}
