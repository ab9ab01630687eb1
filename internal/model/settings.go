package model

// Algorithm selects the placement strategy used by the decision facade.
type Algorithm string

const (
	AlgorithmGreedy    Algorithm = "greedy"    // Largest-first, first fitting position (deterministic)
	AlgorithmAnnealing Algorithm = "annealing" // Simulated annealing over complete layouts
)

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	return a == AlgorithmGreedy || a == AlgorithmAnnealing
}

// AnnealingConfig holds parameters for the simulated annealing optimizer.
type AnnealingConfig struct {
	InitialTemperature float64 `json:"initial_temperature" toml:"initial_temperature"`
	CoolingRate        float64 `json:"cooling_rate" toml:"cooling_rate"`           // Multiplier applied after each iteration, in (0, 1)
	MaxIterations      int     `json:"max_iterations" toml:"max_iterations"`       // Iterations per restart
	MaxSeedAttempts    int     `json:"max_seed_attempts" toml:"max_seed_attempts"` // Random draws per piece before the exhaustive scan
	Restarts           int     `json:"restarts" toml:"restarts"`                   // Independent runs; the best layout wins
}

// DefaultAnnealingConfig returns the parameters used when none are configured.
func DefaultAnnealingConfig() AnnealingConfig {
	return AnnealingConfig{
		InitialTemperature: 1000,
		CoolingRate:        0.99,
		MaxIterations:      100,
		MaxSeedAttempts:    1000,
		Restarts:           1,
	}
}

// Settings holds the policy configuration.
type Settings struct {
	Algorithm Algorithm       `json:"algorithm" toml:"algorithm"`
	Seed      int64           `json:"seed" toml:"seed"` // Seed for the annealing random source
	Annealing AnnealingConfig `json:"annealing" toml:"annealing"`
}

func DefaultSettings() Settings {
	return Settings{
		Algorithm: AlgorithmGreedy,
		Seed:      42,
		Annealing: DefaultAnnealingConfig(),
	}
}
