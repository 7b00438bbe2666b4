/*
handlers.go - HTTP API handlers for deal analysis and distress scoring

PURPOSE:
  Exposes the deal calculators and the distress scorer via REST API.
  Handles HTTP request/response, JSON serialization, validation and
  caching, and delegates the math to the engine packages.

ENDPOINTS:
  Deals:
    GET    /api/deal-types                 Supported deal types
    GET    /api/presets/{type}             Default inputs for a type
    POST   /api/deals/analyze              Analyze a deal envelope (JSON or YAML)
    POST   /api/deals/{type}/analyze       Analyze bare inputs (?preset=true overlays)
    POST   /api/deals/compare              Compare a list of envelopes

  Analyses:
    GET    /api/analyses                   Saved analyses (?type=)
    POST   /api/analyses                   Analyze and save
    GET    /api/analyses/{id}              One saved analysis
    DELETE /api/analyses/{id}              Remove a saved analysis

  Distress:
    POST   /api/distress/score             Score an ad-hoc lien aggregate
    GET    /api/parks                      Parks (?county=)
    GET    /api/parks/distressed           Highest scores (?limit=)
    GET    /api/parks/{id}                 One park with its factors

  Admin:
    POST   /api/admin/distress/run         Run the distress batch now
    GET    /api/admin/distress/runs        Batch history

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Parks, liens, runs and saved analyses
  - Cache: Analysis results keyed by deal type + inputs

REQUEST FLOW:
  1. Parse the envelope (factory.ParseDeal)
  2. Validate input (factory.Validate)
  3. Look up the cache, else call deals.Calculate
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, unknown deal types, malformed bodies
  - 404: Resource not found
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo park/lien loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dealforge/deal-engine/cache"
	"github.com/dealforge/deal-engine/deals"
	"github.com/dealforge/deal-engine/distress"
	"github.com/dealforge/deal-engine/factory"
	"github.com/dealforge/deal-engine/finance"
	"github.com/dealforge/deal-engine/store/sqlite"
	"github.com/dealforge/deal-engine/waterfall"
)

const (
	maxBodyBytes    = 1 << 20
	defaultCacheTTL = 15 * time.Minute
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Cache    cache.Cache
	CacheTTL time.Duration
	// Workers bounds distress batch parallelism; zero means GOMAXPROCS.
	Workers int

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store and an in-memory
// analysis cache.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Cache:    cache.NewMemory(),
		CacheTTL: defaultCacheTTL,
	}
}

var dealTypeLabels = map[deals.DealType]string{
	deals.TypeRental:      "Long-term rental",
	deals.TypeBRRRR:       "BRRRR",
	deals.TypeFlip:        "Fix and flip",
	deals.TypeHouseHack:   "House hack",
	deals.TypeMultifamily: "Multifamily",
	deals.TypeSyndication: "Syndication",
	deals.TypeMhPark:      "Manufactured housing park",
}

// =============================================================================
// DEAL HANDLERS
// =============================================================================

// ListDealTypes returns the supported deal types.
// GET /api/deal-types
func (h *Handler) ListDealTypes(w http.ResponseWriter, r *http.Request) {
	dtos := make([]DealTypeDTO, len(deals.AllTypes))
	for i, t := range deals.AllTypes {
		dtos[i] = DealTypeDTO{Type: t, Label: dealTypeLabels[t]}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPreset returns the default inputs for a deal type.
// GET /api/presets/{type}
func (h *Handler) GetPreset(w http.ResponseWriter, r *http.Request) {
	t := deals.DealType(chi.URLParam(r, "type"))
	in, err := deals.Preset(t)
	if err != nil {
		writeErrorFor(w, "Unknown deal type", err)
		return
	}

	resp := PresetResponse{Type: t, Inputs: in}
	if t == deals.TypeSyndication {
		resp.WaterfallPresets = waterfall.Presets()
	}
	writeJSON(w, http.StatusOK, resp)
}

// AnalyzeDeal analyzes one deal envelope. YAML bodies are accepted when the
// content type says so.
// POST /api/deals/analyze
func (h *Handler) AnalyzeDeal(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var d factory.Deal
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		d, err = factory.ParseDealYAML(body)
	} else {
		d, err = factory.ParseDeal(body)
	}
	if err != nil {
		writeErrorFor(w, "Invalid deal", err)
		return
	}

	resp, err := h.analyze(r.Context(), d)
	if err != nil {
		writeErrorFor(w, "Failed to analyze deal", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AnalyzeDealType analyzes bare inputs for the type in the path.
// POST /api/deals/{type}/analyze?preset=true
func (h *Handler) AnalyzeDealType(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	seed, _ := strconv.ParseBool(r.URL.Query().Get("preset"))
	d, err := factory.FromJSON(factory.DealJSON{
		Type:   chi.URLParam(r, "type"),
		Preset: seed,
		Inputs: body,
	})
	if err != nil {
		writeErrorFor(w, "Invalid deal", err)
		return
	}

	resp, err := h.analyze(r.Context(), d)
	if err != nil {
		writeErrorFor(w, "Failed to analyze deal", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CompareDeals analyzes several deals and lines up their shared metrics.
// POST /api/deals/compare
func (h *Handler) CompareDeals(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	list, err := factory.ParseDealList(body)
	if err != nil {
		writeErrorFor(w, "Invalid deal list", err)
		return
	}
	if len(list) == 0 {
		writeError(w, http.StatusBadRequest, "At least one deal is required", nil)
		return
	}

	resp := CompareResponse{Deals: make([]ComparisonRow, 0, len(list))}
	returns := make([]float64, 0, len(list))
	var bestFlow, bestCap *ComparisonRow
	for i, d := range list {
		a, err := h.analyze(r.Context(), d)
		if err != nil {
			writeErrorFor(w, fmt.Sprintf("Failed to analyze deal %d", i), err)
			return
		}
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("%s #%d", a.Type, i+1)
		}
		resp.Deals = append(resp.Deals, ComparisonRow{Name: name, Summary: a.Summary})
		returns = append(returns, float64(a.Summary.CashOnCash))
	}
	for i := range resp.Deals {
		row := &resp.Deals[i]
		if bestFlow == nil || row.AnnualCashFlow > bestFlow.AnnualCashFlow {
			bestFlow = row
		}
		if bestCap == nil || row.CapRate > bestCap.CapRate {
			bestCap = row
		}
	}

	mean, infinite := finance.MeanReturn(returns...)
	resp.AverageCashOnCash = finance.Return(mean)
	resp.InfiniteReturns = infinite
	resp.BestCashFlow = bestFlow.Name
	resp.BestCapRate = bestCap.Name
	writeJSON(w, http.StatusOK, resp)
}

// cachedAnalysis is what the cache stores for one set of inputs.
type cachedAnalysis struct {
	Result  json.RawMessage   `json:"result"`
	Summary deals.Summary     `json:"summary"`
	Grades  map[string]string `json:"grades,omitempty"`
}

// analyze validates and calculates a deal, going through the cache.
func (h *Handler) analyze(ctx context.Context, d factory.Deal) (AnalyzeResponse, error) {
	if err := factory.Validate(d.Inputs); err != nil {
		return AnalyzeResponse{}, err
	}

	t := d.Inputs.Type()
	resp := AnalyzeResponse{Type: t, Name: d.Name, Inputs: d.Inputs}

	inputsJSON, err := json.Marshal(d.Inputs)
	if err != nil {
		return resp, fmt.Errorf("failed to encode inputs: %w", err)
	}
	key := cache.Key(t, inputsJSON)

	if h.Cache != nil {
		if data, err := h.Cache.Get(ctx, key); err == nil {
			var c cachedAnalysis
			if err := json.Unmarshal(data, &c); err == nil {
				resp.Result, resp.Summary, resp.Grades = c.Result, c.Summary, c.Grades
				resp.Cached = true
				return resp, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			log.Printf("[Cache] Get failed, calculating: %v", err)
		}
	}

	res, err := deals.Calculate(d.Inputs)
	if err != nil {
		return resp, err
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return resp, fmt.Errorf("failed to encode result: %w", err)
	}
	c := cachedAnalysis{Result: raw, Summary: deals.Summarize(res), Grades: grades(res)}
	resp.Result, resp.Summary, resp.Grades = c.Result, c.Summary, c.Grades

	if h.Cache != nil {
		if data, err := json.Marshal(c); err == nil {
			if err := h.Cache.Set(ctx, key, data, h.CacheTTL); err != nil {
				log.Printf("[Cache] Set failed: %v", err)
			}
		}
	}
	return resp, nil
}

// =============================================================================
// SAVED ANALYSES
// =============================================================================

// ListAnalyses returns saved analyses.
// GET /api/analyses?type=rental
func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	t := deals.DealType(r.URL.Query().Get("type"))
	if t != "" && !t.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown deal type", fmt.Errorf("%w: %q", deals.ErrUnknownDealType, t))
		return
	}

	analyses, err := h.Store.ListAnalyses(r.Context(), t)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list analyses", err)
		return
	}
	if analyses == nil {
		analyses = []sqlite.Analysis{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": analyses})
}

// SaveAnalysis analyzes a deal and stores inputs and result together.
// POST /api/analyses
func (h *Handler) SaveAnalysis(w http.ResponseWriter, r *http.Request) {
	var req SaveAnalysisRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	d, err := factory.ParseDeal(req.Deal)
	if err != nil {
		writeErrorFor(w, "Invalid deal", err)
		return
	}
	resp, err := h.analyze(r.Context(), d)
	if err != nil {
		writeErrorFor(w, "Failed to analyze deal", err)
		return
	}

	inputs, err := json.Marshal(d.Inputs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode inputs", err)
		return
	}

	a := sqlite.Analysis{
		ID:        req.ID,
		Name:      d.Name,
		DealType:  resp.Type,
		Inputs:    inputs,
		Result:    resp.Result,
		CreatedAt: time.Now().UTC(),
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if err := h.Store.SaveAnalysis(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save analysis", err)
		return
	}

	writeJSON(w, http.StatusCreated, a)
}

// GetAnalysis returns one saved analysis.
// GET /api/analyses/{id}
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.GetAnalysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErrorFor(w, "Failed to get analysis", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAnalysis removes a saved analysis.
// DELETE /api/analyses/{id}
func (h *Handler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteAnalysis(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErrorFor(w, "Failed to delete analysis", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// DISTRESS HANDLERS
// =============================================================================

// ScoreDistress scores one lien aggregate without touching the store.
// POST /api/distress/score
func (h *Handler) ScoreDistress(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ActiveLienCount < 0 || req.TotalTaxOwed < 0 || req.LotCount < 0 || req.DistinctTaxYearsWithLiens < 0 {
		writeError(w, http.StatusBadRequest, "Counts and amounts must not be negative", nil)
		return
	}

	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}
	writeJSON(w, http.StatusOK, distress.Evaluate(req.LienAggregate, asOf))
}

// ListParks returns parks, optionally for one county.
// GET /api/parks?county=travis
func (h *Handler) ListParks(w http.ResponseWriter, r *http.Request) {
	parks, err := h.Store.ListParks(r.Context(), r.URL.Query().Get("county"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list parks", err)
		return
	}
	if parks == nil {
		parks = []sqlite.Park{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"parks": parks})
}

// ListDistressedParks returns the highest-scoring parks.
// GET /api/parks/distressed?limit=10
func (h *Handler) ListDistressedParks(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", distress.TopN)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	parks, err := h.Store.TopDistressed(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list distressed parks", err)
		return
	}
	if parks == nil {
		parks = []sqlite.Park{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"parks": parks})
}

// GetPark returns one park.
// GET /api/parks/{id}
func (h *Handler) GetPark(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetPark(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErrorFor(w, "Failed to get park", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// TriggerDistressRun runs the distress batch synchronously.
// POST /api/admin/distress/run
func (h *Handler) TriggerDistressRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	summary, err := h.RunDistressBatch(r.Context(), req.County, req.DryRun)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Distress run failed", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ListDistressRuns returns recent batch runs.
// GET /api/admin/distress/runs?limit=20
func (h *Handler) ListDistressRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list distress runs", err)
		return
	}
	if runs == nil {
		runs = []distress.RunSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// RunDistressBatch scores every park in county (all when empty) and
// records the run.
func (h *Handler) RunDistressBatch(ctx context.Context, county string, dryRun bool) (distress.RunSummary, error) {
	runner := &distress.Runner{
		Source:  h.Store,
		Sink:    h.Store,
		Workers: h.Workers,
		DryRun:  dryRun,
	}

	summary, err := runner.Run(ctx, county)
	if err != nil {
		log.Printf("[Distress] Run failed: %v", err)
		return summary, err
	}
	if err := h.Store.SaveRun(ctx, summary); err != nil {
		return summary, fmt.Errorf("failed to record run: %w", err)
	}

	log.Printf("[Distress] Run %s: %d parks, %d scored, %d zeroed (dry run: %v)",
		summary.ID, summary.Parks, summary.Scored, summary.Zeroed, summary.DryRun)
	return summary, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, v)
	}
	return n, nil
}
