package models

import "github.com/shopspring/decimal"

type InventoryStatus string

const (
	InventoryOK       InventoryStatus = "ok"
	InventoryWarning  InventoryStatus = "warning"
	InventoryCritical InventoryStatus = "critical"
)

type LogisticsData struct {
	SiteID       string          `json:"site_id"`
	Product      string          `json:"product"`
	Inventory    int             `json:"inventory"`
	ReorderPoint int             `json:"reorder_point"`
	Status       InventoryStatus `json:"status"`
}

// NewLogisticsData builds a record whose status agrees with its inventory
// and reorder point.
func NewLogisticsData(siteID, product string, inventory, reorderPoint int) LogisticsData {
	return LogisticsData{
		SiteID:       siteID,
		Product:      product,
		Inventory:    inventory,
		ReorderPoint: reorderPoint,
		Status:       InventoryStatusFor(inventory, reorderPoint),
	}
}

func InventoryStatusFor(inventory, reorderPoint int) InventoryStatus {
	switch {
	case inventory > reorderPoint:
		return InventoryOK
	case float64(inventory) > float64(reorderPoint)*0.5:
		return InventoryWarning
	default:
		return InventoryCritical
	}
}

type EnrollmentData struct {
	SiteID       string  `json:"site_id"`
	Actual       int     `json:"actual"`
	Target       int     `json:"target"`
	Rate         float64 `json:"rate"`
	PredictedEnd string  `json:"predicted_end"`
}

type RegulatoryData struct {
	ID              string `json:"id"`
	SiteID          string `json:"site_id"`
	Country         string `json:"country"`
	RegulatoryBody  string `json:"regulatory_body"`
	RequirementType string `json:"requirement_type"`
	Stage           string `json:"stage"`
	Status          string `json:"status"`
	DueDate         string `json:"due_date"`
	Description     string `json:"description"`
	Impact          Level  `json:"impact"`
}

type FinanceData struct {
	SiteID       string          `json:"site_id"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Date         string          `json:"date"`
	Status       string          `json:"status"`
	BudgetImpact string          `json:"budget_impact"`
}

// ExtractedData groups the structured records pulled out of documents.
// Lists from different documents are concatenated, never deduplicated.
type ExtractedData struct {
	Logistics  []LogisticsData  `json:"logistics"`
	Enrollment []EnrollmentData `json:"enrollment"`
	Regulatory []RegulatoryData `json:"regulatory"`
	Finance    []FinanceData    `json:"finance"`
}

// Len is the total number of records across all collections.
func (d ExtractedData) Len() int {
	return len(d.Logistics) + len(d.Enrollment) + len(d.Regulatory) + len(d.Finance)
}
