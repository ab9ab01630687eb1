package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CutStock/internal/model"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveAndLoadConfig(t *testing.T) {
	for _, name := range []string{"config.json", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := DefaultConfig()
			cfg.Policy.Algorithm = model.AlgorithmAnnealing
			cfg.Policy.Seed = 7
			cfg.Policy.Annealing.Restarts = 3
			cfg.Env.NumStocks = 4
			require.NoError(t, SaveConfig(path, cfg))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			if diff := cmp.Diff(cfg, loaded); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSaveConfig_TOMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveConfig(path, DefaultConfig()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[policy]")
	assert.Contains(t, string(data), `algorithm = "greedy"`)
	assert.Contains(t, string(data), "[env]")
}

func TestLoadConfig_PartialTOMLKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[policy]\nalgorithm = \"annealing\"\n\n[policy.annealing]\nmax_iterations = 250\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, model.AlgorithmAnnealing, cfg.Policy.Algorithm)
	assert.Equal(t, 250, cfg.Policy.Annealing.MaxIterations)
	assert.Equal(t, 0.99, cfg.Policy.Annealing.CoolingRate)
	assert.Equal(t, int64(42), cfg.Policy.Seed)
	assert.Equal(t, 10, cfg.Env.NumStocks)
}

func TestLoadConfig_PartialJSONKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"env": {"max_steps": 5}}`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Env.MaxSteps)
	assert.Equal(t, 100, cfg.Env.MaxStockWidth)
	assert.Equal(t, model.AlgorithmGreedy, cfg.Policy.Algorithm)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	bad := map[string]string{"bad.json": "{not json", "bad.toml": "policy = ["}
	for name, content := range bad {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		_, err := LoadConfig(path)
		assert.Error(t, err, name)
	}
}

func TestDefaultPaths(t *testing.T) {
	assert.True(t, strings.HasSuffix(DefaultConfigDir(), ".cutstock"))
	assert.Equal(t, "config.toml", filepath.Base(DefaultConfigPath()))
	assert.Equal(t, DefaultConfigDir(), filepath.Dir(DefaultProfilesPath()))
}

func TestSaveAndLoadProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")

	long := model.DefaultSettings()
	long.Algorithm = model.AlgorithmAnnealing
	long.Annealing.MaxIterations = 1000
	profiles := []Profile{
		{Name: "fast", Settings: model.DefaultSettings()},
		{Name: "thorough", Description: "long anneal", Settings: long},
	}
	require.NoError(t, SaveProfiles(path, profiles))

	loaded, err := LoadProfiles(path)
	require.NoError(t, err)
	if diff := cmp.Diff(profiles, loaded); diff != "" {
		t.Errorf("profiles mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProfiles_DefaultsAndErrors(t *testing.T) {
	dir := t.TempDir()

	loaded, err := LoadProfiles(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, loaded)

	path := filepath.Join(dir, "partial.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "hot", "settings": {"algorithm": "annealing"}}]`), 0644))
	loaded, err = LoadProfiles(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, model.AlgorithmAnnealing, loaded[0].Settings.Algorithm)
	assert.Equal(t, 1000.0, loaded[0].Settings.Annealing.InitialTemperature)

	require.NoError(t, os.WriteFile(path, []byte(`[{"settings": {}}]`), 0644))
	_, err = LoadProfiles(path)
	assert.Error(t, err)
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	stock := model.NewStock(3, 2, 4, 4)
	require.NoError(t, stock.Fill(model.Point{}, model.Size{Width: 1, Height: 2}, 0))
	obs := model.Observation{
		Stocks:   []model.Stock{stock},
		Products: []model.Product{model.NewProduct("leg", 1, 2, 3)},
	}
	path := filepath.Join(t.TempDir(), "snap", "obs.json")

	require.NoError(t, SaveSnapshot(path, NewSnapshot(obs, []string{"Pine"})))

	snap, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.NotEmpty(t, snap.CreatedAt)
	assert.Equal(t, []string{"Pine"}, snap.StockLabels)
	if diff := cmp.Diff(obs, snap.Observation); diff != "" {
		t.Errorf("observation mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSnapshot_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSnapshot(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(dir, "noversion.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"observation": {}}`), 0644))
	_, err = LoadSnapshot(path)
	assert.ErrorContains(t, err, "missing version")
}
