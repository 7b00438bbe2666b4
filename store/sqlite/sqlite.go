/*
Package sqlite provides SQLite-based persistence for parks, tax liens,
distress runs and saved deal analyses.

PURPOSE:
  The deal and distress engines are pure. This package is the host-side
  storage they are fed from and written back to: it builds the lien
  aggregates the distress scorer consumes and stores the resulting scores.

KEY TABLES:
  mh_communities:  Manufactured housing parks, with the latest distress
                   score and its factor breakdown (JSON)
  mh_tax_liens:    Tax liens keyed by payer address and city, as published
                   by the county. Not linked to parks by foreign key.
  distress_runs:   One row per batch scoring run (counts + top parks JSON)
  analyses:        Saved deal analyses (inputs + result JSON)

LIEN MATCHING:
  Lien records carry the payer's mailing address, not a park ID. A lien
  belongs to a park when the upper-cased payer address contains the first
  20 characters of the park address and the payer city equals the park
  city. Counts, totals and distinct tax years only consider active liens;
  the newest lien date considers every matched lien.

INDEXES:
  - idx_parks_county: ListParks / ParkAggregates county filter
  - idx_parks_score: TopDistressed
  - idx_liens_city: narrows the address match to one city

CONCURRENCY:
  A sync.RWMutex guards the handle. Reads take RLock, writes Lock. SaveScore
  is called from many runner goroutines at once and serializes here.

WAL MODE:
  The database is opened with journal_mode=WAL so API reads are not
  blocked by a running distress batch.

USAGE:
  store, err := sqlite.New("./deals.db")
  defer store.Close()

  runner := &distress.Runner{Source: store, Sink: store}
  summary, err := runner.Run(ctx, "TRAVIS")
  _ = store.SaveRun(ctx, summary)

SEE ALSO:
  - distress/runner.go: Source and Sink interfaces implemented here
  - api/handlers.go: HTTP endpoints backed by this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dealforge/deal-engine/deals"
	"github.com/dealforge/deal-engine/distress"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// addressPrefixLen is how much of a park address must appear in a lien's
// payer address for the two to match.
const addressPrefixLen = 20

// LienStatusActive marks an unreleased lien.
const LienStatusActive = "active"

// Store implements persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// :memory: databases are per-connection.
	if strings.HasPrefix(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS mh_communities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		county TEXT NOT NULL DEFAULT '',
		lot_count INTEGER NOT NULL DEFAULT 0,
		distress_score REAL NOT NULL DEFAULT 0,
		distress_factors TEXT,
		distress_updated_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_parks_county ON mh_communities(county);
	CREATE INDEX IF NOT EXISTS idx_parks_score ON mh_communities(distress_score DESC);

	CREATE TABLE IF NOT EXISTS mh_tax_liens (
		id TEXT PRIMARY KEY,
		payer_name TEXT NOT NULL DEFAULT '',
		payer_address TEXT NOT NULL,
		payer_city TEXT NOT NULL,
		county TEXT NOT NULL DEFAULT '',
		tax_year INTEGER NOT NULL,
		tax_amount REAL NOT NULL DEFAULT 0,
		lien_date TEXT,
		status TEXT NOT NULL DEFAULT 'active'
	);

	CREATE INDEX IF NOT EXISTS idx_liens_city ON mh_tax_liens(payer_city);

	CREATE TABLE IF NOT EXISTS distress_runs (
		id TEXT PRIMARY KEY,
		county TEXT NOT NULL DEFAULT '',
		dry_run INTEGER NOT NULL DEFAULT 0,
		parks INTEGER NOT NULL DEFAULT 0,
		scored INTEGER NOT NULL DEFAULT 0,
		zeroed INTEGER NOT NULL DEFAULT 0,
		top_json TEXT NOT NULL DEFAULT '[]',
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON distress_runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		deal_type TEXT NOT NULL,
		inputs_json TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_type ON analyses(deal_type, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PARK STORE
// =============================================================================

// Park is a manufactured housing community.
type Park struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Address           string            `json:"address"`
	City              string            `json:"city"`
	County            string            `json:"county"`
	LotCount          int               `json:"lot_count"`
	DistressScore     float64           `json:"distress_score"`
	DistressFactors   *distress.Factors `json:"distress_factors,omitempty"`
	DistressUpdatedAt *time.Time        `json:"distress_updated_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// SavePark inserts or updates a park. Distress columns are left alone on
// update; only SaveScore writes them.
func (s *Store) SavePark(ctx context.Context, p Park) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO mh_communities (id, name, address, city, county, lot_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			city = excluded.city,
			county = excluded.county,
			lot_count = excluded.lot_count
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Address, p.City, strings.ToUpper(p.County), p.LotCount,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save park: %w", err)
	}
	return nil
}

const parkColumns = `id, name, address, city, county, lot_count,
	distress_score, distress_factors, distress_updated_at, created_at`

// GetPark retrieves a park by ID.
func (s *Store) GetPark(ctx context.Context, id string) (*Park, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+parkColumns+" FROM mh_communities WHERE id = ?", id)
	p, err := scanPark(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("park %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get park: %w", err)
	}
	return p, nil
}

// ListParks returns parks ordered by name. An empty county means all.
func (s *Store) ListParks(ctx context.Context, county string) ([]Park, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + parkColumns + " FROM mh_communities"
	var args []any
	if county != "" {
		query += " WHERE county = ?"
		args = append(args, strings.ToUpper(county))
	}
	query += " ORDER BY name"

	return s.queryParks(ctx, query, args...)
}

// TopDistressed returns the highest-scoring parks with a non-zero score.
func (s *Store) TopDistressed(ctx context.Context, limit int) ([]Park, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = distress.TopN
	}
	query := "SELECT " + parkColumns + ` FROM mh_communities
		WHERE distress_score > 0
		ORDER BY distress_score DESC, id
		LIMIT ?`
	return s.queryParks(ctx, query, limit)
}

func (s *Store) queryParks(ctx context.Context, query string, args ...any) ([]Park, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query parks: %w", err)
	}
	defer rows.Close()

	var parks []Park
	for rows.Next() {
		p, err := scanPark(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan park: %w", err)
		}
		parks = append(parks, *p)
	}
	return parks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPark(row scanner) (*Park, error) {
	var p Park
	var factors, updatedAt sql.NullString
	var createdAt string
	if err := row.Scan(
		&p.ID, &p.Name, &p.Address, &p.City, &p.County, &p.LotCount,
		&p.DistressScore, &factors, &updatedAt, &createdAt,
	); err != nil {
		return nil, err
	}

	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if updatedAt.Valid {
		t, _ := time.Parse(time.RFC3339, updatedAt.String)
		p.DistressUpdatedAt = &t
	}
	if factors.Valid {
		var f distress.Factors
		if err := json.Unmarshal([]byte(factors.String), &f); err != nil {
			return nil, fmt.Errorf("failed to decode distress factors for %s: %w", p.ID, err)
		}
		p.DistressFactors = &f
	}
	return &p, nil
}

// =============================================================================
// LIEN STORE
// =============================================================================

// Lien is a county tax lien.
type Lien struct {
	ID           string     `json:"id"`
	PayerName    string     `json:"payer_name"`
	PayerAddress string     `json:"payer_address"`
	PayerCity    string     `json:"payer_city"`
	County       string     `json:"county"`
	TaxYear      int        `json:"tax_year"`
	TaxAmount    float64    `json:"tax_amount"`
	LienDate     *time.Time `json:"lien_date,omitempty"`
	Status       string     `json:"status"`
}

// SaveLien inserts or updates a lien. An empty status is stored as active.
func (s *Store) SaveLien(ctx context.Context, l Lien) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := l.Status
	if status == "" {
		status = LienStatusActive
	}

	query := `
		INSERT INTO mh_tax_liens (id, payer_name, payer_address, payer_city, county,
			tax_year, tax_amount, lien_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payer_name = excluded.payer_name,
			payer_address = excluded.payer_address,
			payer_city = excluded.payer_city,
			county = excluded.county,
			tax_year = excluded.tax_year,
			tax_amount = excluded.tax_amount,
			lien_date = excluded.lien_date,
			status = excluded.status
	`
	_, err := s.db.ExecContext(ctx, query,
		l.ID, l.PayerName, l.PayerAddress, l.PayerCity, strings.ToUpper(l.County),
		l.TaxYear, l.TaxAmount, nullTime(l.LienDate), status,
	)
	if err != nil {
		return fmt.Errorf("failed to save lien: %w", err)
	}
	return nil
}

// LienAggregate matches liens to a park by address and summarizes them.
func (s *Store) LienAggregate(ctx context.Context, parkID string) (distress.LienAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var address, city string
	var lots int
	err := s.db.QueryRowContext(ctx,
		"SELECT address, city, lot_count FROM mh_communities WHERE id = ?", parkID,
	).Scan(&address, &city, &lots)
	if err == sql.ErrNoRows {
		return distress.LienAggregate{}, fmt.Errorf("park %s: %w", parkID, ErrNotFound)
	}
	if err != nil {
		return distress.LienAggregate{}, fmt.Errorf("failed to get park: %w", err)
	}

	return s.lienAggregate(ctx, address, city, lots)
}

func (s *Store) lienAggregate(ctx context.Context, address, city string, lots int) (distress.LienAggregate, error) {
	agg := distress.LienAggregate{LotCount: lots}

	prefix := addressPrefix(address)
	if prefix == "" {
		return agg, nil
	}

	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'active' THEN tax_amount ELSE 0 END), 0),
			MAX(lien_date),
			COUNT(DISTINCT CASE WHEN status = 'active' THEN tax_year END)
		FROM mh_tax_liens
		WHERE instr(UPPER(payer_address), ?) > 0
			AND UPPER(TRIM(payer_city)) = ?
	`
	var newest sql.NullString
	err := s.db.QueryRowContext(ctx, query, prefix, strings.ToUpper(strings.TrimSpace(city))).Scan(
		&agg.ActiveLienCount, &agg.TotalTaxOwed, &newest, &agg.DistinctTaxYearsWithLiens,
	)
	if err != nil {
		return agg, fmt.Errorf("failed to aggregate liens: %w", err)
	}
	if newest.Valid {
		t, err := time.Parse(time.RFC3339, newest.String)
		if err != nil {
			return agg, fmt.Errorf("failed to parse lien date %q: %w", newest.String, err)
		}
		agg.MostRecentLienDate = &t
	}
	return agg, nil
}

func addressPrefix(address string) string {
	a := strings.ToUpper(strings.TrimSpace(address))
	if len(a) > addressPrefixLen {
		a = a[:addressPrefixLen]
	}
	return a
}

// =============================================================================
// DISTRESS SOURCE / SINK
// =============================================================================

// ParkAggregates loads every park with an address and its lien aggregate.
// It implements distress.Source.
func (s *Store) ParkAggregates(ctx context.Context, county string) ([]distress.ParkAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, name, address, city, county, lot_count FROM mh_communities WHERE address != ''"
	var args []any
	if county != "" {
		query += " AND county = ?"
		args = append(args, strings.ToUpper(county))
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query parks: %w", err)
	}

	type parkRow struct {
		id, name, address, city, county string
		lots                            int
	}
	var parks []parkRow
	for rows.Next() {
		var p parkRow
		if err := rows.Scan(&p.id, &p.name, &p.address, &p.city, &p.county, &p.lots); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan park: %w", err)
		}
		parks = append(parks, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]distress.ParkAggregate, 0, len(parks))
	for _, p := range parks {
		agg, err := s.lienAggregate(ctx, p.address, p.city, p.lots)
		if err != nil {
			return nil, fmt.Errorf("park %s: %w", p.id, err)
		}
		out = append(out, distress.ParkAggregate{
			ParkID: p.id,
			Name:   p.name,
			County: p.county,
			Liens:  agg,
		})
	}
	return out, nil
}

// SaveScore writes a park's score. A score without factors clears any
// stored breakdown. It implements distress.Sink.
func (s *Store) SaveScore(ctx context.Context, score distress.ParkScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var factors sql.NullString
	if score.Factors != nil {
		data, err := json.Marshal(score.Factors)
		if err != nil {
			return fmt.Errorf("failed to encode distress factors: %w", err)
		}
		factors = sql.NullString{String: string(data), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE mh_communities
		SET distress_score = ?, distress_factors = ?, distress_updated_at = ?
		WHERE id = ?`,
		score.Score, factors, score.ScoredAt.UTC().Format(time.RFC3339), score.ParkID,
	)
	if err != nil {
		return fmt.Errorf("failed to save distress score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("park %s: %w", score.ParkID, ErrNotFound)
	}
	return nil
}

// =============================================================================
// DISTRESS RUNS
// =============================================================================

// SaveRun records a batch run summary.
func (s *Store) SaveRun(ctx context.Context, run distress.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	top, err := json.Marshal(run.Top)
	if err != nil {
		return fmt.Errorf("failed to encode top parks: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO distress_runs (id, county, dry_run, parks, scored, zeroed, top_json, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.County, run.DryRun, run.Parks, run.Scored, run.Zeroed, string(top),
		run.StartedAt.UTC().Format(time.RFC3339), run.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save distress run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]distress.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, county, dry_run, parks, scored, zeroed, top_json, started_at, finished_at
		FROM distress_runs
		ORDER BY started_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query distress runs: %w", err)
	}
	defer rows.Close()

	var runs []distress.RunSummary
	for rows.Next() {
		var r distress.RunSummary
		var top, startedAt, finishedAt string
		if err := rows.Scan(&r.ID, &r.County, &r.DryRun, &r.Parks, &r.Scored, &r.Zeroed,
			&top, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan distress run: %w", err)
		}
		if err := json.Unmarshal([]byte(top), &r.Top); err != nil {
			return nil, fmt.Errorf("failed to decode top parks for run %s: %w", r.ID, err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finishedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// SAVED ANALYSES
// =============================================================================

// Analysis is a saved deal analysis. Inputs and Result are stored as the
// JSON the API returned.
type Analysis struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	DealType  deals.DealType  `json:"deal_type"`
	Inputs    json.RawMessage `json:"inputs"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// SaveAnalysis inserts or replaces an analysis.
func (s *Store) SaveAnalysis(ctx context.Context, a Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, name, deal_type, inputs_json, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			deal_type = excluded.deal_type,
			inputs_json = excluded.inputs_json,
			result_json = excluded.result_json`,
		a.ID, a.Name, string(a.DealType), string(a.Inputs), string(a.Result),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

const analysisColumns = "id, name, deal_type, inputs_json, result_json, created_at"

// GetAnalysis retrieves an analysis by ID.
func (s *Store) GetAnalysis(ctx context.Context, id string) (*Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := scanAnalysis(s.db.QueryRowContext(ctx,
		"SELECT "+analysisColumns+" FROM analyses WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

// ListAnalyses returns saved analyses, newest first. An empty deal type
// means all.
func (s *Store) ListAnalyses(ctx context.Context, dealType deals.DealType) ([]Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + analysisColumns + " FROM analyses"
	var args []any
	if dealType != "" {
		query += " WHERE deal_type = ?"
		args = append(args, string(dealType))
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// DeleteAnalysis removes an analysis.
func (s *Store) DeleteAnalysis(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanAnalysis(row scanner) (*Analysis, error) {
	var a Analysis
	var dealType, inputs, result, createdAt string
	if err := row.Scan(&a.ID, &a.Name, &dealType, &inputs, &result, &createdAt); err != nil {
		return nil, err
	}
	a.DealType = deals.DealType(dealType)
	a.Inputs = json.RawMessage(inputs)
	a.Result = json.RawMessage(result)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"analyses", "distress_runs", "mh_tax_liens", "mh_communities"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}
