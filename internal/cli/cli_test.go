package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CutStock/internal/engine"
	"github.com/piwi3910/CutStock/internal/model"
	"github.com/piwi3910/CutStock/internal/project"
)

const smallConfig = `[policy]
algorithm = "greedy"

[policy.annealing]
max_iterations = 10

[env]
num_stocks = 3
min_stock_width = 6
min_stock_height = 6
max_stock_width = 8
max_stock_height = 8
max_product_types = 3
max_product_per_type = 3
max_product_size = 2
max_steps = 200
`

// execute runs the command tree with args and returns its result output.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(&out, io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", filepath.Join(dir, "config.toml")}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(smallConfig), 0644))
	return dir
}

func TestImportThenDecide(t *testing.T) {
	dir := writeConfig(t)
	products := filepath.Join(dir, "products.csv")
	require.NoError(t, os.WriteFile(products, []byte("Label,Width,Height,Quantity\nPeg,1,1,2\nShelf,3,2,1\n"), 0644))
	snapPath := filepath.Join(dir, "snap.json")

	out, err := execute(t, dir, "import", products, "--sheets", "2", "--width", "5", "--height", "5", "-o", snapPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Snapshot saved")

	snap, err := project.LoadSnapshot(snapPath)
	require.NoError(t, err)
	assert.Len(t, snap.Observation.Stocks, 2)
	assert.Equal(t, 3, snap.Observation.RemainingUnits())

	out, err = execute(t, dir, "decide", "--snapshot", snapPath)
	require.NoError(t, err)

	var p model.Placement
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, model.Placement{StockIndex: 0, Size: model.Size{Width: 3, Height: 2}}, p)
}

func TestImport_WithStockList(t *testing.T) {
	dir := writeConfig(t)
	products := filepath.Join(dir, "products.csv")
	stocks := filepath.Join(dir, "stocks.csv")
	require.NoError(t, os.WriteFile(products, []byte("Shelf,3,2,1\n"), 0644))
	require.NoError(t, os.WriteFile(stocks, []byte("Sheet,Width,Height,Qty\nBirch,4,4,2\n"), 0644))

	_, err := execute(t, dir, "import", products, "--stocks", stocks)
	require.NoError(t, err)

	snap, err := project.LoadSnapshot(filepath.Join(dir, "products.snapshot.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Birch #1", "Birch #2"}, snap.StockLabels)
}

func TestImport_BadRows(t *testing.T) {
	dir := writeConfig(t)
	products := filepath.Join(dir, "products.csv")
	require.NoError(t, os.WriteFile(products, []byte("Label,Width,Height,Quantity\nShelf,x,2,1\n"), 0644))

	_, err := execute(t, dir, "import", products)
	assert.ErrorContains(t, err, "1 error(s)")
}

func TestRun_WritesExports(t *testing.T) {
	dir := writeConfig(t)
	report := filepath.Join(dir, "report.pdf")
	labels := filepath.Join(dir, "labels.pdf")
	drawing := filepath.Join(dir, "layout.dxf")
	log := filepath.Join(dir, "log.xlsx")

	out, err := execute(t, dir, "run", "--episodes", "2", "--seed", "3",
		"--report", report, "--labels", labels, "--dxf", drawing, "--log", log)
	require.NoError(t, err)

	assert.Contains(t, out, "2 episode(s), greedy")
	assert.Contains(t, out, "2/2")
	for _, path := range []string{report, labels, drawing, log} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Greater(t, info.Size(), int64(0), path)
	}
}

func TestRun_Snapshot(t *testing.T) {
	dir := writeConfig(t)
	obs := model.Observation{
		Stocks:   []model.Stock{model.NewStock(4, 4, 4, 4)},
		Products: []model.Product{model.NewProduct("Tile", 2, 2, 1), model.NewProduct("Big", 5, 5, 1)},
	}
	snapPath := filepath.Join(dir, "snap.json")
	require.NoError(t, project.SaveSnapshot(snapPath, project.NewSnapshot(obs, nil)))

	out, err := execute(t, dir, "run", "--snapshot", snapPath, "--algorithm", "annealing")
	require.NoError(t, err)
	assert.Contains(t, out, "annealing")
	assert.Contains(t, out, "placed 1")
	assert.Contains(t, out, "remaining 1")
	assert.Contains(t, out, "stuck")
}

func TestRun_InvalidAlgorithm(t *testing.T) {
	dir := writeConfig(t)

	_, err := execute(t, dir, "run", "--algorithm", "tabu")
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
}

func TestCompare_DefaultScenarios(t *testing.T) {
	dir := writeConfig(t)

	out, err := execute(t, dir, "compare", "--episodes", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "3 scenario(s), 2 episode(s) each")
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, "Simulated Annealing")
}

func TestCompare_Profiles(t *testing.T) {
	dir := writeConfig(t)
	path := filepath.Join(dir, "profiles.json")
	hot := model.DefaultSettings()
	hot.Algorithm = model.AlgorithmAnnealing
	hot.Annealing.MaxIterations = 5
	require.NoError(t, project.SaveProfiles(path, []project.Profile{
		{Name: "plain", Settings: model.DefaultSettings()},
		{Name: "hot", Settings: hot},
	}))

	out, err := execute(t, dir, "compare", "--episodes", "1", "--profiles", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 scenario(s)")
	assert.Contains(t, out, "plain")
	assert.Contains(t, out, "hot")
}

func TestDecide_RequiresSnapshot(t *testing.T) {
	dir := writeConfig(t)

	_, err := execute(t, dir, "decide")
	assert.Error(t, err)
}

func TestRun_ServesMetrics(t *testing.T) {
	dir := writeConfig(t)

	out, err := execute(t, dir, "run", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "1/1")
}
