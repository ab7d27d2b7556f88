package config

import (
	"strings"
	"testing"
)

func defaultedConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func TestValidate_DefaultsPass(t *testing.T) {
	if err := defaultedConfig().Validate(); err != nil {
		t.Fatalf("defaulted config failed validation: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "take profit level below floor",
			mutate:  func(c *Config) { c.Signals.TakeProfitLevels = []float64{1, 3, 4} },
			wantMsg: "take_profit_levels",
		},
		{
			name:    "negative take profit level",
			mutate:  func(c *Config) { c.Signals.TakeProfitLevels = []float64{-2} },
			wantMsg: "take_profit_levels",
		},
		{
			name:    "unknown timeframe",
			mutate:  func(c *Config) { c.Scanner.Timeframes = []string{"7m"} },
			wantMsg: "timeframe",
		},
		{
			name:    "non-positive initial capital",
			mutate:  func(c *Config) { c.Backtesting.InitialCapital = -1 },
			wantMsg: "initial_capital",
		},
		{
			name:    "risk percent out of range",
			mutate:  func(c *Config) { c.RiskManagement.MaxRiskPerTradePercent = 150 },
			wantMsg: "max_risk_per_trade_percent",
		},
		{
			name:    "email enabled without sender",
			mutate:  func(c *Config) { c.Notifications.Email.Enabled = true; c.Notifications.Email.RecipientEmail = "dev@example.com" },
			wantMsg: "sender_email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultedConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}
