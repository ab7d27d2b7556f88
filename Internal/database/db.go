package datafeed

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

var DB *sql.DB

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func InitDatabase() error {
	config := DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"), // Required - no default
		DBName:   getEnvOrDefault("DB_NAME", "fvgscanner"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err = initializeSchema(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	fmt.Println("Database connected successfully!")
	return nil
}

// initializeSchema creates scanner tables if they don't exist
func initializeSchema() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS ohlcv (
		id SERIAL PRIMARY KEY,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		open DOUBLE PRECISION NOT NULL,
		high DOUBLE PRECISION NOT NULL,
		low DOUBLE PRECISION NOT NULL,
		close DOUBLE PRECISION NOT NULL,
		volume DOUBLE PRECISION NOT NULL,
		UNIQUE(symbol, timeframe, timestamp)
	);

	CREATE TABLE IF NOT EXISTS patterns (
		id SERIAL PRIMARY KEY,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		pattern_type TEXT NOT NULL,
		direction TEXT NOT NULL,
		start_timestamp TIMESTAMPTZ NOT NULL,
		end_timestamp TIMESTAMPTZ NOT NULL,
		price_high NUMERIC NOT NULL,
		price_low NUMERIC NOT NULL,
		gap_size NUMERIC NOT NULL,
		gap_percentage REAL NOT NULL,
		confidence_score REAL NOT NULL,
		is_filled BOOLEAN NOT NULL DEFAULT FALSE,
		detected_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS signals (
		id SERIAL PRIMARY KEY,
		pattern_id INTEGER REFERENCES patterns(id),
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		direction TEXT NOT NULL,
		entry_price NUMERIC NOT NULL,
		stop_loss NUMERIC NOT NULL,
		take_profit_1 NUMERIC NOT NULL,
		take_profit_2 NUMERIC,
		take_profit_3 NUMERIC,
		risk_reward_ratio REAL NOT NULL,
		risk_amount NUMERIC NOT NULL,
		position_size NUMERIC NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		valid_until TIMESTAMPTZ NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL,
		notes TEXT
	);

	CREATE TABLE IF NOT EXISTS backtest_trades (
		id SERIAL PRIMARY KEY,
		run_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		entry_price NUMERIC NOT NULL,
		exit_price NUMERIC NOT NULL,
		entry_time TIMESTAMPTZ NOT NULL,
		exit_time TIMESTAMPTZ NOT NULL,
		exit_reason TEXT NOT NULL,
		position_size NUMERIC NOT NULL,
		pnl NUMERIC NOT NULL,
		pnl_percent REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ohlcv_lookup ON ohlcv(symbol, timeframe, timestamp);
	CREATE INDEX IF NOT EXISTS idx_patterns_symbol ON patterns(symbol, timeframe);
	CREATE INDEX IF NOT EXISTS idx_signals_status ON signals(status);
	CREATE INDEX IF NOT EXISTS idx_backtest_trades_run ON backtest_trades(run_id);
	`

	_, err := DB.Exec(schemaSQL)
	return err
}

func CloseDatabase() {
	if DB != nil {
		DB.Close()
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
