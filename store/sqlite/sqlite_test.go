package sqlite_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealforge/deal-engine/deals"
	"github.com/dealforge/deal-engine/distress"
	"github.com/dealforge/deal-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func seedShadyOaks(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.SavePark(ctx, sqlite.Park{
		ID: "p1", Name: "Shady Oaks", Address: "1200 Old Mill Road Lot Office",
		City: "Austin", County: "travis", LotCount: 20,
	}))

	liens := []sqlite.Lien{
		{ID: "l1", PayerAddress: "1200 old mill road lot 4", PayerCity: "AUSTIN", TaxYear: 2022, TaxAmount: 1500, LienDate: date(2023, 3, 1)},
		{ID: "l2", PayerAddress: "1200 OLD MILL ROAD LOT 9", PayerCity: "Austin", TaxYear: 2023, TaxAmount: 2500, LienDate: date(2024, 2, 10)},
		{ID: "l3", PayerAddress: "1200 OLD MILL ROAD LOT 9", PayerCity: "Austin", TaxYear: 2023, TaxAmount: 1000, LienDate: date(2024, 1, 5)},
		// Released: dated later but excluded from counts.
		{ID: "l4", PayerAddress: "1200 OLD MILL ROAD LOT 2", PayerCity: "Austin", TaxYear: 2021, TaxAmount: 9000, LienDate: date(2024, 5, 1), Status: "released"},
		// Same street, other city.
		{ID: "l5", PayerAddress: "1200 OLD MILL ROAD LOT 1", PayerCity: "Round Rock", TaxYear: 2023, TaxAmount: 700, LienDate: date(2024, 6, 1)},
		// Other street.
		{ID: "l6", PayerAddress: "77 RIVER BEND", PayerCity: "Austin", TaxYear: 2023, TaxAmount: 400, LienDate: date(2024, 6, 1)},
	}
	for _, l := range liens {
		require.NoError(t, store.SaveLien(ctx, l))
	}
}

// =============================================================================
// PARKS
// =============================================================================

func TestStore_ParkCRUD(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// GIVEN: Two parks in different counties
	require.NoError(t, store.SavePark(ctx, sqlite.Park{ID: "a", Name: "Bluebonnet", Address: "1 A St", City: "Austin", County: "Travis", LotCount: 40}))
	require.NoError(t, store.SavePark(ctx, sqlite.Park{ID: "b", Name: "Alamo Acres", Address: "2 B St", City: "San Antonio", County: "Bexar", LotCount: 60}))

	// WHEN: Fetching and listing
	p, err := store.GetPark(ctx, "a")
	require.NoError(t, err)
	all, err := store.ListParks(ctx, "")
	require.NoError(t, err)
	travis, err := store.ListParks(ctx, "travis")
	require.NoError(t, err)

	// THEN: County is normalized and filters case-insensitively
	assert.Equal(t, "TRAVIS", p.County)
	assert.Equal(t, 40, p.LotCount)
	assert.Nil(t, p.DistressFactors)
	require.Len(t, all, 2)
	assert.Equal(t, "Alamo Acres", all[0].Name)
	require.Len(t, travis, 1)
	assert.Equal(t, "a", travis[0].ID)

	_, err = store.GetPark(ctx, "missing")
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}

// =============================================================================
// LIEN MATCHING
// =============================================================================

func TestStore_LienAggregate(t *testing.T) {
	store := newStore(t)
	seedShadyOaks(t, store)

	// WHEN: Aggregating liens for the park
	agg, err := store.LienAggregate(context.Background(), "p1")
	require.NoError(t, err)

	// THEN: Only active liens at the park's address and city are counted
	assert.Equal(t, 3, agg.ActiveLienCount)
	assert.InDelta(t, 5000.0, agg.TotalTaxOwed, 1e-9)
	assert.Equal(t, 2, agg.DistinctTaxYearsWithLiens)
	assert.Equal(t, 20, agg.LotCount)

	// AND: The newest date considers every matched lien, released included
	require.NotNil(t, agg.MostRecentLienDate)
	assert.Equal(t, *date(2024, 5, 1), *agg.MostRecentLienDate)
}

func TestStore_LienAggregate_NoMatches(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.SavePark(ctx, sqlite.Park{ID: "p", Name: "Quiet", Address: "9 Calm Ct", City: "Austin", LotCount: 10}))

	agg, err := store.LienAggregate(ctx, "p")
	require.NoError(t, err)
	assert.Zero(t, agg.ActiveLienCount)
	assert.Zero(t, agg.TotalTaxOwed)
	assert.Nil(t, agg.MostRecentLienDate)

	_, err = store.LienAggregate(ctx, "nope")
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}

// =============================================================================
// DISTRESS SOURCE / SINK
// =============================================================================

func TestStore_DistressRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedShadyOaks(t, store)
	require.NoError(t, store.SavePark(ctx, sqlite.Park{ID: "p2", Name: "Clean Slate", Address: "5 Elm", City: "Austin", County: "Travis", LotCount: 30}))
	require.NoError(t, store.SavePark(ctx, sqlite.Park{ID: "p3", Name: "No Address", County: "Travis", LotCount: 30}))

	// GIVEN: A runner reading from and writing to the store
	now := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	runner := &distress.Runner{Source: store, Sink: store, Workers: 2, Now: func() time.Time { return now }}

	// WHEN: Running the batch for the county
	summary, err := runner.Run(ctx, "Travis")
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(ctx, summary))

	// THEN: Parks without an address are skipped, one park scores
	assert.Equal(t, 2, summary.Parks)
	assert.Equal(t, 1, summary.Scored)
	assert.Equal(t, 1, summary.Zeroed)

	p, err := store.GetPark(ctx, "p1")
	require.NoError(t, err)
	assert.Greater(t, p.DistressScore, 0.0)
	require.NotNil(t, p.DistressFactors)
	assert.Equal(t, 3, p.DistressFactors.ActiveLienCount)
	assert.Equal(t, p.DistressScore, p.DistressFactors.Score)
	require.NotNil(t, p.DistressUpdatedAt)
	assert.Equal(t, now, *p.DistressUpdatedAt)

	top, err := store.TopDistressed(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "p1", top[0].ID)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.ID, runs[0].ID)
	require.Len(t, runs[0].Top, 1)
	assert.Equal(t, "Shady Oaks", runs[0].Top[0].Name)
}

func TestStore_SaveScore_ClearsFactors(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.SavePark(ctx, sqlite.Park{ID: "p", Name: "P", Address: "1 St", City: "X", LotCount: 10}))

	// GIVEN: A park with a stored score
	scored := distress.ParkScore{ParkID: "p", Score: 42, Factors: &distress.Factors{ActiveLienCount: 2}, ScoredAt: time.Now()}
	require.NoError(t, store.SaveScore(ctx, scored))

	// WHEN: Its liens are released and it is rescored
	require.NoError(t, store.SaveScore(ctx, distress.ParkScore{ParkID: "p", ScoredAt: time.Now()}))

	// THEN: Score and factors are cleared
	p, err := store.GetPark(ctx, "p")
	require.NoError(t, err)
	assert.Zero(t, p.DistressScore)
	assert.Nil(t, p.DistressFactors)

	err = store.SaveScore(ctx, distress.ParkScore{ParkID: "ghost"})
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}

// =============================================================================
// ANALYSES
// =============================================================================

func TestStore_Analyses(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	in, err := deals.Preset(deals.TypeRental)
	require.NoError(t, err)
	res, err := deals.Calculate(in)
	require.NoError(t, err)
	inputsJSON, _ := json.Marshal(in)
	resultJSON, _ := json.Marshal(res)

	// GIVEN: Two saved analyses
	require.NoError(t, store.SaveAnalysis(ctx, sqlite.Analysis{
		ID: "a1", Name: "Elm St", DealType: deals.TypeRental,
		Inputs: inputsJSON, Result: resultJSON,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.SaveAnalysis(ctx, sqlite.Analysis{
		ID: "a2", Name: "Flip", DealType: deals.TypeFlip,
		Inputs: json.RawMessage(`{}`), Result: json.RawMessage(`{}`),
		CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}))

	// WHEN: Reading them back
	got, err := store.GetAnalysis(ctx, "a1")
	require.NoError(t, err)
	all, err := store.ListAnalyses(ctx, "")
	require.NoError(t, err)
	rentals, err := store.ListAnalyses(ctx, deals.TypeRental)
	require.NoError(t, err)

	// THEN: JSON survives and listing is newest first
	assert.JSONEq(t, string(resultJSON), string(got.Result))
	require.Len(t, all, 2)
	assert.Equal(t, "a2", all[0].ID)
	require.Len(t, rentals, 1)

	require.NoError(t, store.DeleteAnalysis(ctx, "a1"))
	_, err = store.GetAnalysis(ctx, "a1")
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
	assert.ErrorIs(t, store.DeleteAnalysis(ctx, "a1"), sqlite.ErrNotFound)
}

func TestStore_Reset(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedShadyOaks(t, store)

	require.NoError(t, store.Reset(ctx))

	parks, err := store.ListParks(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, parks)
}
