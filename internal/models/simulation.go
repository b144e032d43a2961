package models

// TriggerResponse is the outcome of a disruption simulation.
type TriggerResponse struct {
	TriggerID        string           `json:"trigger_id"`
	Message          string           `json:"message"`
	Details          TriggerDetails   `json:"details"`
	ModulesTriggered ModulesTriggered `json:"modules_triggered"`
}

type TriggerDetails struct {
	AffectedEntity  string  `json:"affected_entity"`
	ImpactType      string  `json:"impact_type"`
	EstimatedImpact string  `json:"estimated_impact"`
	Confidence      float64 `json:"confidence"`
	ProposedAction  string  `json:"proposed_action"`
}

type ModulesTriggered struct {
	Logistics LogisticsModule `json:"logistics"`
	CRO       CROModule       `json:"cro"`
}

type LogisticsModule struct {
	PredictedDelay string  `json:"predicted_delay"`
	Confidence     float64 `json:"confidence"`
}

type CROModule struct {
	EnrollmentAction string `json:"enrollment_action"`
	Rationale        string `json:"rationale"`
}
