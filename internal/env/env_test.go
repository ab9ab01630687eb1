package env

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/piwi3910/CutStock/internal/engine"
	"github.com/piwi3910/CutStock/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() Config {
	return Config{
		NumStocks:         3,
		MinStockWidth:     5,
		MinStockHeight:    5,
		MaxStockWidth:     8,
		MaxStockHeight:    8,
		MaxProductTypes:   3,
		MaxProductPerType: 3,
		MaxProductSize:    3,
		MaxSteps:          100,
	}
}

func newTestEnv(t *testing.T, cfg Config) *Env {
	t.Helper()
	e, err := New(cfg, nil)
	require.NoError(t, err)
	return e
}

func TestReset_GeneratesConsistentEpisode(t *testing.T) {
	cfg := smallConfig()
	e := newTestEnv(t, cfg)

	obs := e.Reset(42)

	require.Len(t, obs.Stocks, cfg.NumStocks)
	for _, s := range obs.Stocks {
		assert.Equal(t, cfg.MaxStockWidth, s.GridWidth())
		assert.Equal(t, cfg.MaxStockHeight, s.GridHeight())
		u := s.UsableSize()
		assert.GreaterOrEqual(t, u.Width, cfg.MinStockWidth)
		assert.LessOrEqual(t, u.Width, cfg.MaxStockWidth)
		assert.GreaterOrEqual(t, u.Height, cfg.MinStockHeight)
		assert.Equal(t, u.Area(), s.FreeArea())
	}
	require.NotEmpty(t, obs.Products)
	assert.LessOrEqual(t, len(obs.Products), cfg.MaxProductTypes)
	for _, p := range obs.Products {
		assert.GreaterOrEqual(t, p.Size.Width, 1)
		assert.LessOrEqual(t, p.Size.Width, cfg.MaxProductSize)
		assert.GreaterOrEqual(t, p.Quantity, 1)
		assert.LessOrEqual(t, p.Quantity, cfg.MaxProductPerType)
	}
	assert.NotEmpty(t, e.ID())
}

func TestReset_SameSeedSameEpisode(t *testing.T) {
	a := newTestEnv(t, smallConfig()).Reset(7)
	b := newTestEnv(t, smallConfig()).Reset(7)

	assert.Equal(t, a.Stocks, b.Stocks)
	require.Len(t, b.Products, len(a.Products))
	for i := range a.Products {
		assert.Equal(t, a.Products[i].Size, b.Products[i].Size)
		assert.Equal(t, a.Products[i].Quantity, b.Products[i].Quantity)
	}
}

func loadedEnv(t *testing.T) *Env {
	t.Helper()
	e := newTestEnv(t, smallConfig())
	require.NoError(t, e.Load(model.Observation{
		Stocks:   []model.Stock{model.NewStock(4, 4, 6, 6)},
		Products: []model.Product{{Label: "A", Size: model.Size{Width: 2, Height: 1}, Quantity: 2}},
	}))
	return e
}

func TestStep_AppliesPlacement(t *testing.T) {
	e := loadedEnv(t)

	obs, res, err := e.Step(model.Placement{StockIndex: 0, Size: model.Size{Width: 2, Height: 1}})
	require.NoError(t, err)

	assert.Equal(t, 1, obs.Products[0].Quantity)
	c, err := obs.Stocks[0].At(1, 0)
	require.NoError(t, err)
	assert.Equal(t, model.Cell(0), c)
	assert.False(t, res.Terminated)
	assert.Equal(t, 1, res.Info.Steps)
	assert.Equal(t, 1.0, res.Info.FilledRatio)
	assert.InDelta(t, 14.0/16.0, res.Info.TrimLoss, 1e-9)

	applied := e.Applied()
	require.Len(t, applied, 1)
	assert.Equal(t, "A", applied[0].Label)
}

func TestStep_AcceptsRotatedSize(t *testing.T) {
	e := loadedEnv(t)
	_, _, err := e.Step(model.Placement{Size: model.Size{Width: 1, Height: 2}, Position: model.Point{X: 3, Y: 2}, Rotated: true})
	require.NoError(t, err)
	assert.Equal(t, 1, e.Observation().Products[0].Quantity)
}

func TestStep_TerminatesWhenDemandMet(t *testing.T) {
	e := loadedEnv(t)

	_, _, err := e.Step(model.Placement{Size: model.Size{Width: 2, Height: 1}})
	require.NoError(t, err)
	_, res, err := e.Step(model.Placement{Size: model.Size{Width: 2, Height: 1}, Position: model.Point{X: 2, Y: 0}})
	require.NoError(t, err)

	assert.True(t, res.Terminated)
	assert.InDelta(t, -12.0/16.0, res.Reward, 1e-9)

	_, _, err = e.Step(model.NoPlacement)
	assert.ErrorIs(t, err, ErrEpisodeDone)
}

func TestStep_RejectsInvalidPlacements(t *testing.T) {
	cases := map[string]model.Placement{
		"stock out of range": {StockIndex: 3, Size: model.Size{Width: 2, Height: 1}},
		"unknown size":       {Size: model.Size{Width: 3, Height: 3}},
		"outside sheet":      {Size: model.Size{Width: 2, Height: 1}, Position: model.Point{X: 3, Y: 0}},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			e := loadedEnv(t)
			before := e.Observation()

			_, _, err := e.Step(p)
			assert.ErrorIs(t, err, ErrInvalidAction)
			assert.Equal(t, before.Stocks, e.Observation().Stocks)
			assert.Equal(t, 0, e.Info().Steps)
		})
	}
}

func TestStep_RejectsOverlap(t *testing.T) {
	e := loadedEnv(t)
	_, _, err := e.Step(model.Placement{Size: model.Size{Width: 2, Height: 1}})
	require.NoError(t, err)

	_, _, err = e.Step(model.Placement{Size: model.Size{Width: 2, Height: 1}, Position: model.Point{X: 1, Y: 0}})
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestStep_SentinelIsNoop(t *testing.T) {
	e := loadedEnv(t)
	obs, res, err := e.Step(model.NoPlacement)
	require.NoError(t, err)
	assert.Equal(t, 2, obs.Products[0].Quantity)
	assert.Equal(t, 1, res.Info.Steps)
	assert.Empty(t, e.Applied())
}

func TestStep_TruncatesAtMaxSteps(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxSteps = 2
	e := newTestEnv(t, cfg)
	e.Reset(1)

	_, res, err := e.Step(model.NoPlacement)
	require.NoError(t, err)
	assert.False(t, res.Truncated)
	_, res, err = e.Step(model.NoPlacement)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
}

func TestStep_BeforeReset(t *testing.T) {
	e := newTestEnv(t, smallConfig())
	_, _, err := e.Step(model.NoPlacement)
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestObservationIsACopy(t *testing.T) {
	e := loadedEnv(t)
	obs := e.Observation()
	obs.Products[0].Quantity = 0
	require.NoError(t, obs.Stocks[0].Fill(model.Point{}, model.Size{Width: 4, Height: 4}, 0))

	fresh := e.Observation()
	assert.Equal(t, 2, fresh.Products[0].Quantity)
	assert.Equal(t, 16, fresh.Stocks[0].FreeArea())
}

func TestLoad_RejectsMalformedSnapshot(t *testing.T) {
	e := newTestEnv(t, smallConfig())
	err := e.Load(model.Observation{})
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}

func TestGreedyEpisodeRunsToCompletion(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxProductSize = 2
	e := newTestEnv(t, cfg)
	obs := e.Reset(3)
	policy, err := engine.New(model.DefaultSettings())
	require.NoError(t, err)

	var res StepResult
	for i := 0; i < 200; i++ {
		p, err := policy.Decide(obs)
		require.NoError(t, err)
		require.False(t, p.IsNone(), "demand fits the generated stocks")
		obs, res, err = e.Step(p)
		require.NoError(t, err)
		if res.Terminated {
			break
		}
	}
	assert.True(t, res.Terminated)
	assert.Equal(t, 0, obs.RemainingUnits())
	assert.Greater(t, res.Info.FilledRatio, 0.0)
}

func TestNew_LogsToProvidedLogger(t *testing.T) {
	var buf bytes.Buffer
	e, err := New(smallConfig(), log.New(&buf))
	require.NoError(t, err)
	e.Reset(5)
	assert.Contains(t, buf.String(), "episode reset")
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := []func(*Config){
		func(c *Config) { c.NumStocks = 0 },
		func(c *Config) { c.MinStockWidth = 0 },
		func(c *Config) { c.MaxStockHeight = c.MinStockHeight - 1 },
		func(c *Config) { c.MaxProductTypes = 0 },
		func(c *Config) { c.MaxProductPerType = 0 },
		func(c *Config) { c.MaxProductSize = 0 },
		func(c *Config) { c.MaxSteps = -1 },
	}
	for i, mutate := range bad {
		c := DefaultConfig()
		mutate(&c)
		assert.Error(t, c.Validate(), "case %d", i)
		_, err := New(c, nil)
		assert.Error(t, err, "case %d", i)
	}
}

func TestUsage(t *testing.T) {
	used := model.NewStock(2, 2, 2, 2)
	require.NoError(t, used.Fill(model.Point{}, model.Size{Width: 1, Height: 2}, 0))
	filled, loss := Usage([]model.Stock{used, model.NewStock(3, 3, 3, 3)})
	assert.Equal(t, 0.5, filled)
	assert.Equal(t, 0.5, loss)

	filled, loss = Usage(nil)
	assert.Zero(t, filled)
	assert.Zero(t, loss)
}
