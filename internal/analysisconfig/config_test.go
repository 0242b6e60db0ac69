package analysisconfig

import (
	"math"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	if cfg.Valuation.RequiredReturn() != 0.035+0.065 {
		t.Errorf("expected required return 0.10, got %f", cfg.Valuation.RequiredReturn())
	}

	mw := cfg.Simulation.ModelWeights()
	sum := 0.0
	for _, w := range mw {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("model weights must sum to 1, got %f", sum)
	}
}

func TestValidateDegenerateValuation(t *testing.T) {
	cfg := Default()
	// r == g 설정은 기동 시점에 차단되어야 함
	cfg.Valuation.GrowthRate = cfg.Valuation.RequiredReturn()

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error when required return equals growth rate")
	}
}

func TestValidateNegativeLookback(t *testing.T) {
	cfg := Default()
	cfg.Whale.LookbackDays = -5

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative lookback")
	}
}

func TestValidateCompositeWeights(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "weights sum above 1",
			mutate:  func(c *Config) { c.Composite.WeightValue = 0.5 },
			wantErr: true,
		},
		{
			name:    "negative weight",
			mutate:  func(c *Config) { c.Composite.WeightFlow = -0.1; c.Composite.WeightValue = 0.7 },
			wantErr: true,
		},
		{
			name: "redistributed but valid",
			mutate: func(c *Config) {
				c.Composite.WeightValue = 0.4
				c.Composite.WeightFlow = 0.2
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateSimulation(t *testing.T) {
	cfg := Default()
	cfg.Simulation.Horizons = nil
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty horizons")
	}

	cfg = Default()
	cfg.Simulation.WeightGBM = 0.5
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for model weights not summing to 1")
	}

	cfg = Default()
	cfg.Simulation.Heston.Rho = -1.5
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for rho outside [-1, 1]")
	}
}

func TestHashDeterministic(t *testing.T) {
	a, err := Hash(Default())
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := Hash(Default())
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if a != b {
		t.Error("hash must be reproducible for identical configs")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(a))
	}

	cfg := Default()
	cfg.Whale.LookbackDays = 30
	c, _ := Hash(cfg)
	if c == a {
		t.Error("hash must change when parameters change")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault("does/not/exist.yaml")
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if cfg.Meta.ConfigID != "whaleback_default" {
		t.Errorf("expected default config, got %s", cfg.Meta.ConfigID)
	}
}
