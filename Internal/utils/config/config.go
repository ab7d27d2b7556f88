package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/tradelab/fvgscanner/Internal/utils/timeframes"
)

type Config struct {
	Patterns struct {
		FairValueGap FVGConfig `yaml:"fair_value_gap"`
	} `yaml:"patterns"`

	Signals SignalConfig `yaml:"signals"`

	RiskManagement RiskConfig `yaml:"risk_management"`

	Backtesting BacktestConfig `yaml:"backtesting"`

	Scanner ScannerConfig `yaml:"scanner"`

	Notifications struct {
		Email EmailConfig `yaml:"email"`
	} `yaml:"notifications"`
}

type FVGConfig struct {
	Enabled          bool    `yaml:"enabled"`
	MinGapPercentage float64 `yaml:"min_gap_percentage"`
	LookbackCandles  int     `yaml:"lookback_candles"`
}

type SignalConfig struct {
	MinRiskReward         float64   `yaml:"min_risk_reward"`
	StopLossATRMultiplier float64   `yaml:"stop_loss_atr_multiplier"`
	TakeProfitLevels      []float64 `yaml:"take_profit_levels"`
}

type RiskConfig struct {
	MaxRiskPerTradePercent float64 `yaml:"max_risk_per_trade_percent"`
	AccountSize            float64 `yaml:"account_size"`
}

type BacktestConfig struct {
	InitialCapital    float64 `yaml:"initial_capital"`
	CommissionPercent float64 `yaml:"commission_percent"`
	SlippagePercent   float64 `yaml:"slippage_percent"`
	StartDate         string  `yaml:"start_date"`
	EndDate           string  `yaml:"end_date"`
}

type ScannerConfig struct {
	Symbols             []string `yaml:"symbols"`
	Timeframes          []string `yaml:"timeframes"`
	ScanIntervalSeconds int      `yaml:"scan_interval_seconds"`
	Workers             int      `yaml:"workers"`
}

type EmailConfig struct {
	Enabled        bool   `yaml:"enabled"`
	SMTPServer     string `yaml:"smtp_server"`
	SMTPPort       int    `yaml:"smtp_port"`
	SenderEmail    string `yaml:"sender_email"`
	RecipientEmail string `yaml:"recipient_email"`
}

func LoadConfig() (*Config, error) {
	// Resolve path relative to this file first
	_, filePath, _, ok := runtime.Caller(0)
	var basePath string
	if ok {
		basePath = filepath.Dir(filePath)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	// Try multiple paths to find config.yaml
	possiblePaths := []string{}
	if basePath != "" {
		possiblePaths = append(possiblePaths, filepath.Join(basePath, "config.yaml"))
	}
	possiblePaths = append(possiblePaths,
		filepath.Join(cwd, "config.yaml"),
		"config.yaml",
		"../config.yaml",
		"../../config.yaml",
	)

	var data []byte
	for _, path := range possiblePaths {
		data, err = os.ReadFile(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("config.yaml not found: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Patterns.FairValueGap.MinGapPercentage == 0 {
		c.Patterns.FairValueGap.MinGapPercentage = 0.1
	}
	if c.Patterns.FairValueGap.LookbackCandles == 0 {
		c.Patterns.FairValueGap.LookbackCandles = 100
	}
	if c.Signals.MinRiskReward == 0 {
		c.Signals.MinRiskReward = 2.0
	}
	if c.Signals.StopLossATRMultiplier == 0 {
		c.Signals.StopLossATRMultiplier = 1.5
	}
	if len(c.Signals.TakeProfitLevels) == 0 {
		c.Signals.TakeProfitLevels = []float64{2, 3, 4}
	}
	if c.RiskManagement.MaxRiskPerTradePercent == 0 {
		c.RiskManagement.MaxRiskPerTradePercent = 1.0
	}
	if c.RiskManagement.AccountSize == 0 {
		c.RiskManagement.AccountSize = 10000
	}
	if c.Backtesting.InitialCapital == 0 {
		c.Backtesting.InitialCapital = 10000
	}
	if c.Backtesting.CommissionPercent == 0 {
		c.Backtesting.CommissionPercent = 0.1
	}
	if c.Backtesting.SlippagePercent == 0 {
		c.Backtesting.SlippagePercent = 0.05
	}
	if len(c.Scanner.Timeframes) == 0 {
		c.Scanner.Timeframes = []string{"5m", "15m", "1h", "4h", "1d"}
	}
	if c.Scanner.ScanIntervalSeconds == 0 {
		c.Scanner.ScanIntervalSeconds = 60
	}
	if c.Scanner.Workers == 0 {
		c.Scanner.Workers = 4
	}
}

// Validate rejects configuration the pipeline cannot run with. Errors
// here are fatal at startup, never recovered mid-run.
func (c *Config) Validate() error {
	for _, tf := range c.Scanner.Timeframes {
		if _, err := timeframes.ToMinutes(tf); err != nil {
			return fmt.Errorf("scanner timeframe %q: %w", tf, err)
		}
		if err := timeframes.ValidateAggregationTarget(tf); err != nil {
			return fmt.Errorf("scanner timeframe %q: %w", tf, err)
		}
	}

	if c.Backtesting.InitialCapital <= 0 {
		return fmt.Errorf("backtesting initial_capital must be positive, got %v", c.Backtesting.InitialCapital)
	}
	if c.RiskManagement.AccountSize <= 0 {
		return fmt.Errorf("risk_management account_size must be positive, got %v", c.RiskManagement.AccountSize)
	}
	if c.RiskManagement.MaxRiskPerTradePercent <= 0 || c.RiskManagement.MaxRiskPerTradePercent > 100 {
		return fmt.Errorf("risk_management max_risk_per_trade_percent out of range: %v", c.RiskManagement.MaxRiskPerTradePercent)
	}
	for _, level := range c.Signals.TakeProfitLevels {
		if level < 1.5 {
			return fmt.Errorf("signals take_profit_levels must be at least 1.5, got %v", level)
		}
	}

	if c.Notifications.Email.Enabled {
		if c.Notifications.Email.SenderEmail == "" {
			return fmt.Errorf("notifications email enabled but sender_email not configured")
		}
		if c.Notifications.Email.RecipientEmail == "" {
			return fmt.Errorf("notifications email enabled but recipient_email not configured")
		}
	}

	return nil
}

func SaveConfig(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile("config.yaml", data, 0644)
}
