package distress

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// TopN is how many parks a run reports as most distressed.
const TopN = 10

// ErrNoSource is returned when a Runner has nothing to read from.
var ErrNoSource = errors.New("distress runner has no source")

// ParkAggregate is one park's lien aggregate as loaded by a Source.
type ParkAggregate struct {
	ParkID string        `json:"park_id"`
	Name   string        `json:"name"`
	County string        `json:"county"`
	Liens  LienAggregate `json:"liens"`
}

// ParkScore is the outcome for one park. Factors is nil for parks without
// active liens; their score is zero and any stored factors are cleared.
type ParkScore struct {
	ParkID   string    `json:"park_id"`
	Name     string    `json:"name"`
	County   string    `json:"county"`
	Score    float64   `json:"score"`
	Factors  *Factors  `json:"factors,omitempty"`
	ScoredAt time.Time `json:"scored_at"`
}

// Factors is the persisted explanation of a non-zero score.
type Factors struct {
	Breakdown
	ActiveLienCount   int     `json:"active_lien_count"`
	TotalTaxOwed      float64 `json:"total_tax_owed"`
	TaxYearsWithLiens int     `json:"tax_years_with_liens"`
}

// Source loads park aggregates. An empty county means every county.
type Source interface {
	ParkAggregates(ctx context.Context, county string) ([]ParkAggregate, error)
}

// Sink stores park scores.
type Sink interface {
	SaveScore(ctx context.Context, score ParkScore) error
}

// RunSummary describes one batch run.
type RunSummary struct {
	ID         string      `json:"id"`
	County     string      `json:"county,omitempty"`
	DryRun     bool        `json:"dry_run"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Parks      int         `json:"parks"`
	Scored     int         `json:"scored"`
	Zeroed     int         `json:"zeroed"`
	Top        []ParkScore `json:"top"`
}

// Runner scores every park from Source in parallel and writes the results
// to Sink. Each park is independent, so ordering is irrelevant.
type Runner struct {
	Source  Source
	Sink    Sink
	Workers int
	DryRun  bool
	Now     func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run executes one batch. The first Sink error cancels the remaining work.
func (r *Runner) Run(ctx context.Context, county string) (RunSummary, error) {
	if r.Source == nil {
		return RunSummary{}, ErrNoSource
	}

	summary := RunSummary{
		ID:        uuid.New().String(),
		County:    county,
		DryRun:    r.DryRun || r.Sink == nil,
		StartedAt: r.now(),
	}

	aggs, err := r.Source.ParkAggregates(ctx, county)
	if err != nil {
		return summary, fmt.Errorf("load aggregates: %w", err)
	}
	summary.Parks = len(aggs)

	asOf := summary.StartedAt
	scores := make([]ParkScore, len(aggs))

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, agg := range aggs {
		i, agg := i, agg
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = scorePark(agg, asOf)
			if summary.DryRun {
				return nil
			}
			if err := r.Sink.SaveScore(gctx, scores[i]); err != nil {
				return fmt.Errorf("save score for park %s: %w", agg.ParkID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	for _, s := range scores {
		if s.Factors != nil {
			summary.Scored++
		} else {
			summary.Zeroed++
		}
	}
	summary.Top = topScores(scores, TopN)
	summary.FinishedAt = r.now()
	return summary, nil
}

func scorePark(agg ParkAggregate, asOf time.Time) ParkScore {
	ps := ParkScore{
		ParkID:   agg.ParkID,
		Name:     agg.Name,
		County:   agg.County,
		ScoredAt: asOf,
	}
	if agg.Liens.ActiveLienCount <= 0 {
		return ps
	}

	b := Evaluate(agg.Liens, asOf)
	ps.Score = b.Score
	ps.Factors = &Factors{
		Breakdown:         b,
		ActiveLienCount:   agg.Liens.ActiveLienCount,
		TotalTaxOwed:      agg.Liens.TotalTaxOwed,
		TaxYearsWithLiens: agg.Liens.DistinctTaxYearsWithLiens,
	}
	return ps
}

// topScores returns up to n non-zero scores, highest first.
func topScores(scores []ParkScore, n int) []ParkScore {
	top := make([]ParkScore, 0, n)
	for _, s := range scores {
		if s.Score > 0 {
			top = append(top, s)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Score != top[j].Score {
			return top[i].Score > top[j].Score
		}
		return top[i].ParkID < top[j].ParkID
	})
	if len(top) > n {
		top = top[:n]
	}
	return top
}
