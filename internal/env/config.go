package env

import "fmt"

// Config controls how episodes are generated.
type Config struct {
	NumStocks         int `json:"num_stocks" toml:"num_stocks"`
	MinStockWidth     int `json:"min_stock_width" toml:"min_stock_width"`
	MinStockHeight    int `json:"min_stock_height" toml:"min_stock_height"`
	MaxStockWidth     int `json:"max_stock_width" toml:"max_stock_width"` // Also the grid width every stock is padded to
	MaxStockHeight    int `json:"max_stock_height" toml:"max_stock_height"`
	MaxProductTypes   int `json:"max_product_types" toml:"max_product_types"`
	MaxProductPerType int `json:"max_product_per_type" toml:"max_product_per_type"`
	MaxProductSize    int `json:"max_product_size" toml:"max_product_size"`
	MaxSteps          int `json:"max_steps" toml:"max_steps"` // 0 disables truncation
}

func DefaultConfig() Config {
	return Config{
		NumStocks:         10,
		MinStockWidth:     50,
		MinStockHeight:    50,
		MaxStockWidth:     100,
		MaxStockHeight:    100,
		MaxProductTypes:   10,
		MaxProductPerType: 10,
		MaxProductSize:    25,
		MaxSteps:          1000,
	}
}

// Validate reports the first inconsistent field.
func (c Config) Validate() error {
	switch {
	case c.NumStocks < 1:
		return fmt.Errorf("num_stocks must be at least 1, got %d", c.NumStocks)
	case c.MinStockWidth < 1 || c.MinStockHeight < 1:
		return fmt.Errorf("minimum stock size must be positive, got %dx%d", c.MinStockWidth, c.MinStockHeight)
	case c.MaxStockWidth < c.MinStockWidth || c.MaxStockHeight < c.MinStockHeight:
		return fmt.Errorf("maximum stock size %dx%d is below minimum %dx%d",
			c.MaxStockWidth, c.MaxStockHeight, c.MinStockWidth, c.MinStockHeight)
	case c.MaxProductTypes < 1:
		return fmt.Errorf("max_product_types must be at least 1, got %d", c.MaxProductTypes)
	case c.MaxProductPerType < 1:
		return fmt.Errorf("max_product_per_type must be at least 1, got %d", c.MaxProductPerType)
	case c.MaxProductSize < 1:
		return fmt.Errorf("max_product_size must be at least 1, got %d", c.MaxProductSize)
	case c.MaxSteps < 0:
		return fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps)
	}
	return nil
}
