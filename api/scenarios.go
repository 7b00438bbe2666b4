/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with parks and
	tax liens so the distress endpoints have something to rank. Lien dates
	are relative to the load time, so recency factors stay meaningful.

AVAILABLE SCENARIOS:

	central-texas:  Six parks across Travis and Bexar with mixed lien histories
	clean-slate:    Three parks and only released liens (every score is zero)

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create parks
 3. Create liens keyed by payer address and city
 4. Run the distress batch so scores are populated

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "central-texas"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: RunDistressBatch
  - store/sqlite/sqlite.go: Lien matching rules
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dealforge/deal-engine/distress"
	"github.com/dealforge/deal-engine/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	build func(now time.Time) ([]sqlite.Park, []sqlite.Lien)
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "central-texas",
			Name:        "Central Texas",
			Description: "Six parks in Travis and Bexar counties with mixed lien histories",
		},
		build: centralTexas,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "clean-slate",
			Name:        "Clean Slate",
			Description: "Parks whose liens have all been released",
		},
		build: cleanSlate,
	},
}

func monthsAgo(now time.Time, n int) *time.Time {
	t := now.AddDate(0, -n, 0).Truncate(24 * time.Hour)
	return &t
}

func centralTexas(now time.Time) ([]sqlite.Park, []sqlite.Lien) {
	parks := []sqlite.Park{
		{ID: "park-oak-hollow", Name: "Oak Hollow MHC", Address: "4100 Ranch Road 620 N", City: "Austin", County: "Travis", LotCount: 48},
		{ID: "park-pecan-grove", Name: "Pecan Grove Estates", Address: "1810 Pecan Grove Ln", City: "Austin", County: "Travis", LotCount: 22},
		{ID: "park-lakeview", Name: "Lakeview Village", Address: "900 Lakeshore Blvd", City: "Austin", County: "Travis", LotCount: 110},
		{ID: "park-mission", Name: "Mission Trails MHP", Address: "7300 Mission Road", City: "San Antonio", County: "Bexar", LotCount: 64},
		{ID: "park-riverside", Name: "Riverside Manor", Address: "215 River Bend Dr", City: "San Antonio", County: "Bexar", LotCount: 35},
		{ID: "park-sunrise", Name: "Sunrise Acres", Address: "12 Sunrise Trail", City: "San Antonio", County: "Bexar", LotCount: 18},
	}

	var liens []sqlite.Lien
	add := func(park sqlite.Park, suffix string, year int, amount float64, age int, status string) {
		liens = append(liens, sqlite.Lien{
			ID:           fmt.Sprintf("%s-%d-%s", park.ID, year, suffix),
			PayerName:    park.Name,
			PayerAddress: park.Address + " " + suffix,
			PayerCity:    park.City,
			County:       park.County,
			TaxYear:      year,
			TaxAmount:    amount,
			LienDate:     monthsAgo(now, age),
			Status:       status,
		})
	}

	y := now.Year()

	// Chronic and recent: liens across four tax years, newest two months old.
	oak := parks[0]
	for i := 0; i < 4; i++ {
		add(oak, fmt.Sprintf("LOT %d", i+1), y-1-i, 2400+float64(i)*300, 2+i*12, sqlite.LienStatusActive)
	}
	add(oak, "LOT 9", y-1, 1800, 3, sqlite.LienStatusActive)
	add(oak, "LOT 12", y-2, 2100, 14, sqlite.LienStatusActive)

	// Small park, heavy burden: many liens relative to lots.
	pecan := parks[1]
	for i := 0; i < 8; i++ {
		add(pecan, fmt.Sprintf("SPC %d", i+1), y-1, 3100, 8, sqlite.LienStatusActive)
	}

	// Large park, one stale lien.
	add(parks[2], "UNIT 40", y-3, 950, 30, sqlite.LienStatusActive)

	// Mixed: some released.
	mission := parks[3]
	add(mission, "LOT 3", y-1, 4200, 5, sqlite.LienStatusActive)
	add(mission, "LOT 7", y-2, 3900, 16, "released")
	add(mission, "LOT 8", y-2, 2600, 18, sqlite.LienStatusActive)

	// Riverside has a lien in another city on the same street name.
	liens = append(liens, sqlite.Lien{
		ID: "riverside-decoy", PayerName: "Unrelated LLC", PayerAddress: "215 River Bend Dr",
		PayerCity: "New Braunfels", County: "Comal", TaxYear: y - 1, TaxAmount: 5000,
		LienDate: monthsAgo(now, 1), Status: sqlite.LienStatusActive,
	})

	return parks, liens
}

func cleanSlate(now time.Time) ([]sqlite.Park, []sqlite.Lien) {
	parks := []sqlite.Park{
		{ID: "park-bluebonnet", Name: "Bluebonnet Meadows", Address: "300 Bluebonnet Way", City: "Round Rock", County: "Williamson", LotCount: 40},
		{ID: "park-cedar", Name: "Cedar Ridge", Address: "88 Cedar Ridge Rd", City: "Georgetown", County: "Williamson", LotCount: 26},
		{ID: "park-prairie", Name: "Prairie Wind", Address: "5 Prairie Wind Ct", City: "Taylor", County: "Williamson", LotCount: 55},
	}
	var liens []sqlite.Lien
	for i, p := range parks {
		liens = append(liens, sqlite.Lien{
			ID: fmt.Sprintf("%s-released", p.ID), PayerName: p.Name, PayerAddress: p.Address,
			PayerCity: p.City, County: p.County, TaxYear: now.Year() - 2, TaxAmount: 1200 + float64(i)*100,
			LienDate: monthsAgo(now, 20), Status: "released",
		})
	}
	return parks, liens
}

func init() {
	now := time.Now()
	for i := range scenarios {
		parks, liens := scenarios[i].build(now)
		scenarios[i].Parks = len(parks)
		scenarios[i].Liens = len(liens)
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s.ScenarioDTO)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	summary, err := h.LoadScenarioByID(r.Context(), req.ScenarioID)
	if err != nil {
		writeErrorFor(w, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": req.ScenarioID,
		"run":      summary,
	})
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "reset"})
}

// LoadScenarioByID resets the store, loads the scenario and scores it.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) (distress.RunSummary, error) {
	var found *scenario
	for i := range scenarios {
		if scenarios[i].ID == id {
			found = &scenarios[i]
			break
		}
	}
	if found == nil {
		return distress.RunSummary{}, fmt.Errorf("%w: unknown scenario %q", sqlite.ErrNotFound, id)
	}

	if err := h.Store.Reset(ctx); err != nil {
		return distress.RunSummary{}, fmt.Errorf("failed to reset database: %w", err)
	}

	parks, liens := found.build(time.Now())
	for _, p := range parks {
		if err := h.Store.SavePark(ctx, p); err != nil {
			return distress.RunSummary{}, err
		}
	}
	for _, l := range liens {
		if err := h.Store.SaveLien(ctx, l); err != nil {
			return distress.RunSummary{}, err
		}
	}

	summary, err := h.RunDistressBatch(ctx, "", false)
	if err != nil {
		return summary, err
	}

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
	return summary, nil
}
