package datafeed

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradelab/fvgscanner/Internal/types"
)

// SaveCandles upserts a batch of candles for one symbol/timeframe,
// replacing rows that already exist for a timestamp.
func SaveCandles(ctx context.Context, symbol, timeframe string, candles []types.Candle) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ohlcv (symbol, timeframe, timestamp, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, timeframe, timestamp)
		DO UPDATE SET open = EXCLUDED.open, high = EXCLUDED.high,
			low = EXCLUDED.low, close = EXCLUDED.close, volume = EXCLUDED.volume`)
	if err != nil {
		return fmt.Errorf("failed to prepare candle insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, symbol, timeframe, c.Timestamp,
			c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("failed to insert candle: %w", err)
		}
	}

	return tx.Commit()
}

// GetCandles returns up to limit most recent candles ordered ascending
// by timestamp. A limit of 0 returns the whole series.
func GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]types.Candle, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT timestamp, open, high, low, close, volume
		FROM (
			SELECT timestamp, open, high, low, close, volume
			FROM ohlcv
			WHERE symbol = $1 AND timeframe = $2
			ORDER BY timestamp DESC
			LIMIT CASE WHEN $3 > 0 THEN $3 ELSE NULL END
		) recent
		ORDER BY timestamp ASC`

	rows, err := DB.QueryContext(ctx, query, symbol, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles: %w", err)
	}
	defer rows.Close()

	var candles []types.Candle
	for rows.Next() {
		var c types.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// GetLatestCandleTime returns the newest stored timestamp for a
// symbol/timeframe, or the zero time when no rows exist.
func GetLatestCandleTime(ctx context.Context, symbol, timeframe string) (time.Time, error) {
	if DB == nil {
		return time.Time{}, fmt.Errorf("database not initialized")
	}

	var ts sql.NullTime
	err := DB.QueryRowContext(ctx,
		`SELECT MAX(timestamp) FROM ohlcv WHERE symbol = $1 AND timeframe = $2`,
		symbol, timeframe).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch latest candle time: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return ts.Time, nil
}

// SavePattern stores a detected pattern and assigns its ID.
func SavePattern(ctx context.Context, pattern *types.Pattern) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := DB.QueryRowContext(ctx, `
		INSERT INTO patterns (symbol, timeframe, pattern_type, direction,
			start_timestamp, end_timestamp, price_high, price_low,
			gap_size, gap_percentage, confidence_score, is_filled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		pattern.Symbol, pattern.Timeframe, pattern.PatternType, pattern.Direction,
		pattern.StartTimestamp, pattern.EndTimestamp,
		decimal.NewFromFloat(pattern.PriceHigh).String(),
		decimal.NewFromFloat(pattern.PriceLow).String(),
		decimal.NewFromFloat(pattern.GapSize).String(),
		pattern.GapPercentage, pattern.Confidence, pattern.IsFilled,
	).Scan(&pattern.ID)
	if err != nil {
		return fmt.Errorf("failed to save pattern: %w", err)
	}
	return nil
}

// SaveSignal stores a trade signal linked to its pattern and assigns
// its ID.
func SaveSignal(ctx context.Context, signal *types.Signal) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	var tp2, tp3 sql.NullString
	if signal.TakeProfit2 != nil {
		tp2 = sql.NullString{String: decimal.NewFromFloat(*signal.TakeProfit2).String(), Valid: true}
	}
	if signal.TakeProfit3 != nil {
		tp3 = sql.NullString{String: decimal.NewFromFloat(*signal.TakeProfit3).String(), Valid: true}
	}

	var patternID sql.NullInt64
	if signal.PatternID != 0 {
		patternID = sql.NullInt64{Int64: signal.PatternID, Valid: true}
	}

	err := DB.QueryRowContext(ctx, `
		INSERT INTO signals (pattern_id, symbol, timeframe, direction,
			entry_price, stop_loss, take_profit_1, take_profit_2, take_profit_3,
			risk_reward_ratio, risk_amount, position_size, status,
			valid_until, generated_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`,
		patternID, signal.Symbol, signal.Timeframe, signal.Direction,
		decimal.NewFromFloat(signal.EntryPrice).String(),
		decimal.NewFromFloat(signal.StopLoss).String(),
		decimal.NewFromFloat(signal.TakeProfit1).String(),
		tp2, tp3,
		signal.RiskRewardRatio,
		decimal.NewFromFloat(signal.RiskAmount).String(),
		decimal.NewFromFloat(signal.PositionSize).String(),
		signal.Status, signal.ValidUntil, signal.GeneratedAt, signal.Notes,
	).Scan(&signal.ID)
	if err != nil {
		return fmt.Errorf("failed to save signal: %w", err)
	}
	return nil
}

// GetRecentPatterns returns the newest patterns, optionally filtered by
// symbol.
func GetRecentPatterns(ctx context.Context, symbol string, limit int) ([]types.Pattern, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := DB.QueryContext(ctx, `
		SELECT id, symbol, timeframe, pattern_type, direction,
			start_timestamp, end_timestamp, price_high, price_low,
			gap_size, gap_percentage, confidence_score, is_filled, detected_at
		FROM patterns
		WHERE $1 = '' OR symbol = $1
		ORDER BY detected_at DESC
		LIMIT $2`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patterns: %w", err)
	}
	defer rows.Close()

	var patterns []types.Pattern
	for rows.Next() {
		var p types.Pattern
		var priceHigh, priceLow, gapSize string
		if err := rows.Scan(&p.ID, &p.Symbol, &p.Timeframe, &p.PatternType, &p.Direction,
			&p.StartTimestamp, &p.EndTimestamp, &priceHigh, &priceLow,
			&gapSize, &p.GapPercentage, &p.Confidence, &p.IsFilled, &p.DetectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		p.PriceHigh = mustFloat(priceHigh)
		p.PriceLow = mustFloat(priceLow)
		p.GapSize = mustFloat(gapSize)
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// GetActiveSignals returns pending and active signals newest first.
func GetActiveSignals(ctx context.Context) ([]types.Signal, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := DB.QueryContext(ctx, `
		SELECT id, COALESCE(pattern_id, 0), symbol, timeframe, direction,
			entry_price, stop_loss, take_profit_1, take_profit_2, take_profit_3,
			risk_reward_ratio, risk_amount, position_size, status,
			valid_until, generated_at, COALESCE(notes, '')
		FROM signals
		WHERE status IN ('pending', 'active')
		ORDER BY generated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signals: %w", err)
	}
	defer rows.Close()

	var signals []types.Signal
	for rows.Next() {
		var s types.Signal
		var entry, stop, tp1, riskAmount, positionSize string
		var tp2, tp3 sql.NullString
		if err := rows.Scan(&s.ID, &s.PatternID, &s.Symbol, &s.Timeframe, &s.Direction,
			&entry, &stop, &tp1, &tp2, &tp3,
			&s.RiskRewardRatio, &riskAmount, &positionSize, &s.Status,
			&s.ValidUntil, &s.GeneratedAt, &s.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		s.EntryPrice = mustFloat(entry)
		s.StopLoss = mustFloat(stop)
		s.TakeProfit1 = mustFloat(tp1)
		s.RiskAmount = mustFloat(riskAmount)
		s.PositionSize = mustFloat(positionSize)
		if tp2.Valid {
			v := mustFloat(tp2.String)
			s.TakeProfit2 = &v
		}
		if tp3.Valid {
			v := mustFloat(tp3.String)
			s.TakeProfit3 = &v
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

// UpdateSignalStatus transitions one signal to a new status.
func UpdateSignalStatus(ctx context.Context, signalID int64, status string) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	result, err := DB.ExecContext(ctx,
		`UPDATE signals SET status = $1 WHERE id = $2`, status, signalID)
	if err != nil {
		return fmt.Errorf("failed to update signal status: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("signal %d not found", signalID)
	}
	return nil
}

// SaveBacktestTrades persists the closed trades of one backtest run.
func SaveBacktestTrades(ctx context.Context, runID string, trades []types.Trade) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO backtest_trades (run_id, symbol, direction, entry_price,
			exit_price, entry_time, exit_time, exit_reason, position_size, pnl, pnl_percent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return fmt.Errorf("failed to prepare trade insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.ExecContext(ctx, runID, t.Symbol, t.Direction,
			decimal.NewFromFloat(t.EntryPrice).String(),
			decimal.NewFromFloat(t.ExitPrice).String(),
			t.EntryTime, t.ExitTime, t.ExitReason,
			decimal.NewFromFloat(t.PositionSize).String(),
			decimal.NewFromFloat(t.PnL).String(),
			t.PnLPercent); err != nil {
			return fmt.Errorf("failed to insert backtest trade: %w", err)
		}
	}

	return tx.Commit()
}

// ScannerStats summarizes stored rows for the API stats endpoint.
type ScannerStats struct {
	TotalPatterns  int `json:"total_patterns"`
	TotalSignals   int `json:"total_signals"`
	PendingSignals int `json:"pending_signals"`
	CandleRows     int `json:"candle_rows"`
}

func GetScannerStats(ctx context.Context) (ScannerStats, error) {
	var stats ScannerStats
	if DB == nil {
		return stats, fmt.Errorf("database not initialized")
	}

	err := DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM patterns),
			(SELECT COUNT(*) FROM signals),
			(SELECT COUNT(*) FROM signals WHERE status = 'pending'),
			(SELECT COUNT(*) FROM ohlcv)`).
		Scan(&stats.TotalPatterns, &stats.TotalSignals, &stats.PendingSignals, &stats.CandleRows)
	if err != nil {
		return stats, fmt.Errorf("failed to fetch stats: %w", err)
	}
	return stats, nil
}

func mustFloat(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
