package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealforge/deal-engine/cli"
	"github.com/dealforge/deal-engine/distress"
	"github.com/dealforge/deal-engine/store/sqlite"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestAnalyze_JSONFile(t *testing.T) {
	// GIVEN: A rental preset envelope on disk
	path := writeFile(t, "elm.json", `{"type": "rental", "name": "Elm", "preset": true}`)

	// WHEN: Analyzing it
	out, err := run(t, "", "analyze", path)

	// THEN: One result with the rental NOI
	require.NoError(t, err)
	var got struct {
		Name    string `json:"name"`
		Type    string `json:"type"`
		Summary struct {
			NOI float64 `json:"noi"`
		} `json:"summary"`
		Result map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Elm", got.Name)
	assert.Equal(t, "rental", got.Type)
	assert.InDelta(t, 12600.0, got.Summary.NOI, 0.01)
	assert.Contains(t, got.Result, "monthly_mortgage")
}

func TestAnalyze_YAMLAndListFromStdin(t *testing.T) {
	yamlPath := writeFile(t, "park.yaml", "type: mh_park\npreset: true\n")

	out, err := run(t, `[{"type": "flip", "preset": true}, {"type": "brrrr", "preset": true}]`,
		"analyze", "--summary", yamlPath, "-")

	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "mh_park", got[0]["type"])
	assert.NotContains(t, got[0], "result")
}

func TestAnalyze_Errors(t *testing.T) {
	bad := writeFile(t, "bad.json", `{"type": "rental", "preset": true, "inputs": {"vacancy_rate": 101}}`)

	_, err := run(t, "", "analyze", bad)
	assert.ErrorContains(t, err, "vacancy_rate")

	_, err = run(t, "", "analyze", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = run(t, "", "analyze")
	assert.Error(t, err)
}

func TestPresets_RoundTripThroughAnalyze(t *testing.T) {
	// GIVEN: The printed syndication preset
	out, err := run(t, "", "presets", "syndication")
	require.NoError(t, err)
	path := writeFile(t, "synd.json", out)

	// WHEN: Feeding it back
	_, err = run(t, "", "analyze", path)

	// THEN: It is a valid envelope
	assert.NoError(t, err)

	out, err = run(t, "", "presets")
	require.NoError(t, err)
	var all []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	assert.Len(t, all, 7)

	out, err = run(t, "", "presets", "--waterfall")
	require.NoError(t, err)
	assert.Contains(t, out, "aggressive")

	_, err = run(t, "", "presets", "timeshare")
	assert.Error(t, err)
}

func TestScore(t *testing.T) {
	out, err := run(t, "", "score",
		"--liens", "25", "--tax-owed", "125000", "--lots", "50", "--years", "2",
		"--last-lien", "2024-03-01", "--as-of", "2024-06-01")

	require.NoError(t, err)
	var b distress.Breakdown
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, 52.5, b.Score)

	_, err = run(t, "", "score", "--last-lien", "March")
	assert.Error(t, err)
	_, err = run(t, "", "score", "--lots", "-1")
	assert.Error(t, err)
}

func TestDistress(t *testing.T) {
	// GIVEN: A database with one park and one matching lien
	dbPath := filepath.Join(t.TempDir(), "deals.db")
	store, err := sqlite.New(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.SavePark(ctx, sqlite.Park{ID: "p", Name: "Shady Oaks", Address: "10 Elm St", City: "Tyler", County: "Smith", LotCount: 10}))
	require.NoError(t, store.SaveLien(ctx, sqlite.Lien{ID: "l", PayerAddress: "10 ELM ST SPC 3", PayerCity: "Tyler", TaxYear: 2023, TaxAmount: 900}))
	require.NoError(t, store.Close())

	// WHEN: Running the batch
	out, err := run(t, "", "distress", "--db", dbPath, "--county", "smith", "--debug")

	// THEN: The park is scored and the run recorded
	require.NoError(t, err)
	var summary distress.RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 1, summary.Scored)
	require.Len(t, summary.Top, 1)
	assert.Equal(t, "Shady Oaks", summary.Top[0].Name)

	store, err = sqlite.New(dbPath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
