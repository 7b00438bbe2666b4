/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Deal inputs and
  results are returned as the engine's own JSON (deals.*Inputs,
  deals.*Result); the types here wrap them with host metadata.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Deals:
    DealTypeDTO, AnalyzeResponse, CompareResponse, ComparisonRow

  Analyses:
    SaveAnalysisRequest

  Distress:
    ScoreRequest, RunRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done by factory.Validate, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/deal.go: DealJSON envelope
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/dealforge/deal-engine/deals"
	"github.com/dealforge/deal-engine/distress"
	"github.com/dealforge/deal-engine/finance"
	"github.com/dealforge/deal-engine/waterfall"
)

// =============================================================================
// DEALS
// =============================================================================

// DealTypeDTO describes one supported deal type.
type DealTypeDTO struct {
	Type  deals.DealType `json:"type"`
	Label string         `json:"label"`
}

// PresetResponse is the default inputs for a deal type.
type PresetResponse struct {
	Type             deals.DealType     `json:"type"`
	Inputs           deals.Inputs       `json:"inputs"`
	WaterfallPresets []waterfall.Preset `json:"waterfall_presets,omitempty"`
}

// AnalyzeResponse is the result of analyzing one deal.
type AnalyzeResponse struct {
	Type    deals.DealType    `json:"type"`
	Name    string            `json:"name,omitempty"`
	Inputs  deals.Inputs      `json:"inputs"`
	Result  json.RawMessage   `json:"result"`
	Summary deals.Summary     `json:"summary"`
	Grades  map[string]string `json:"grades,omitempty"`
	Cached  bool              `json:"cached"`
}

// ComparisonRow is one deal in a comparison.
type ComparisonRow struct {
	Name string `json:"name,omitempty"`
	deals.Summary
}

// CompareResponse lines up several deals on shared metrics.
type CompareResponse struct {
	Deals []ComparisonRow `json:"deals"`
	// AverageCashOnCash is over the finite returns only.
	AverageCashOnCash finance.Return `json:"average_cash_on_cash"`
	InfiniteReturns   int            `json:"infinite_returns"`
	BestCashFlow      string         `json:"best_cash_flow,omitempty"`
	BestCapRate       string         `json:"best_cap_rate,omitempty"`
}

// =============================================================================
// ANALYSES
// =============================================================================

// SaveAnalysisRequest wraps a deal envelope with an optional ID.
type SaveAnalysisRequest struct {
	ID string `json:"id,omitempty"`
	// Deal is a factory.DealJSON envelope.
	Deal json.RawMessage `json:"deal"`
}

// =============================================================================
// DISTRESS
// =============================================================================

// ScoreRequest scores an ad-hoc lien aggregate. AsOf defaults to now.
type ScoreRequest struct {
	distress.LienAggregate
	AsOf *time.Time `json:"as_of,omitempty"`
}

// RunRequest triggers a distress batch.
type RunRequest struct {
	County string `json:"county,omitempty"`
	DryRun bool   `json:"dry_run,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Parks       int    `json:"parks"`
	Liens       int    `json:"liens"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}
