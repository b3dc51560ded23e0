package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/epeers/marketsync/internal/models"
	"github.com/epeers/marketsync/internal/syncerr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PriceRepository handles intraday ticks, daily bars and top-mover stats
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new PriceRepository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// maxTime runs a single-value MAX query. A NULL result (no rows yet) is a nil watermark.
func (r *PriceRepository) maxTime(ctx context.Context, op, query string, args ...any) (*time.Time, error) {
	var t *time.Time
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&t); err != nil {
		return nil, Classify(op, fmt.Errorf("failed to read watermark: %w", err))
	}
	return t, nil
}

// MaxIntradayTimestamp returns the newest stored tick time for sid, or nil.
func (r *PriceRepository) MaxIntradayTimestamp(ctx context.Context, sid int64) (*time.Time, error) {
	return r.maxTime(ctx, "max intraday", `SELECT max(tstamp) FROM intradayprices WHERE sid = $1`, sid)
}

// MaxDailyDate returns the newest stored bar date for sid, or nil.
func (r *PriceRepository) MaxDailyDate(ctx context.Context, sid int64) (*time.Time, error) {
	return r.maxTime(ctx, "max daily", `SELECT max(date) FROM summaryprices WHERE sid = $1`, sid)
}

// MaxTopStatDate returns the newest stored top-mover snapshot time, or nil.
func (r *PriceRepository) MaxTopStatDate(ctx context.Context) (*time.Time, error) {
	return r.maxTime(ctx, "max topstat", `SELECT max(date) FROM topstats`)
}

// insertRow runs an INSERT ... ON CONFLICT DO NOTHING RETURNING eventid.
// No returned row means the row already existed.
func (r *PriceRepository) insertRow(ctx context.Context, op, query string, args ...any) error {
	var id int64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return syncerr.New(syncerr.Duplicate, op, errors.New("row already stored"))
	}
	if err != nil {
		return Classify(op, err)
	}
	return nil
}

// InsertIntraday stores one 1-minute bar.
func (r *PriceRepository) InsertIntraday(ctx context.Context, t models.IntradayTick) error {
	query := `
		INSERT INTO intradayprices (tstamp, sid, symbol, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (sid, tstamp) DO NOTHING
		RETURNING eventid
	`
	return r.insertRow(ctx, "insert intraday", query,
		t.Timestamp, t.SID, t.Symbol, t.Open, t.High, t.Low, t.Close, t.Volume)
}

// InsertDaily stores one end-of-day bar.
func (r *PriceRepository) InsertDaily(ctx context.Context, b models.DailyBar) error {
	query := `
		INSERT INTO summaryprices (date, sid, symbol, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (sid, date) DO NOTHING
		RETURNING eventid
	`
	return r.insertRow(ctx, "insert daily", query,
		b.Date, b.SID, b.Symbol, b.Open, b.High, b.Low, b.Close, b.Volume)
}

// InsertTopStat stores one gainer/loser/most-active entry.
func (r *PriceRepository) InsertTopStat(ctx context.Context, s models.TopStat) error {
	query := `
		INSERT INTO topstats (date, event_type, sid, symbol, price, change_val, change_pct, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (date, event_type, sid) DO NOTHING
		RETURNING eventid
	`
	return r.insertRow(ctx, "insert topstat", query,
		s.Date, s.EventType, s.SID, s.Symbol, s.Price, s.ChangeVal, s.ChangePct, s.Volume)
}
