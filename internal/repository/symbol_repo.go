package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/epeers/marketsync/internal/models"
	"github.com/epeers/marketsync/internal/secid"
	"github.com/epeers/marketsync/internal/syncerr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SymbolRepository handles database operations for the symbols table
type SymbolRepository struct {
	pool *pgxpool.Pool
}

// NewSymbolRepository creates a new SymbolRepository
func NewSymbolRepository(pool *pgxpool.Pool) *SymbolRepository {
	return &SymbolRepository{pool: pool}
}

// InsertSymbol inserts a symbol if neither its sid nor its ticker exist yet.
// A conflict is reported as a syncerr.Duplicate.
func (r *SymbolRepository) InsertSymbol(ctx context.Context, s models.Security) (int64, error) {
	query := `
		INSERT INTO symbols (sid, symbol, name, sec_type, region, marketopen, marketclose, timezone, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
		RETURNING sid
	`
	var sid int64
	err := r.pool.QueryRow(ctx, query,
		s.SID, s.Symbol, s.Name, s.SecType, s.Region, s.MarketOpen, s.MarketClose, s.Timezone, s.Currency,
	).Scan(&sid)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict occurred, symbol already exists
		return 0, syncerr.New(syncerr.Duplicate, "insert symbol", fmt.Errorf("%s already exists", s.Symbol))
	}
	if err != nil {
		return 0, Classify("insert symbol", fmt.Errorf("failed to insert symbol %s: %w", s.Symbol, err))
	}
	return sid, nil
}

// LoadSymbolMap returns ticker → sid for every stored symbol.
func (r *SymbolRepository) LoadSymbolMap(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT symbol, sid FROM symbols`)
	if err != nil {
		return nil, Classify("load symbols", fmt.Errorf("failed to query symbols: %w", err))
	}
	defer rows.Close()

	symbols := make(map[string]int64)
	for rows.Next() {
		var symbol string
		var sid int64
		if err := rows.Scan(&symbol, &sid); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols[symbol] = sid
	}
	return symbols, rows.Err()
}

// GetBySymbol retrieves a symbol row by ticker
func (r *SymbolRepository) GetBySymbol(ctx context.Context, symbol string) (*models.Security, error) {
	query := `
		SELECT sid, symbol, name, sec_type, region, marketopen, marketclose, timezone, currency,
		       overview, intraday, summary, c_time, m_time
		FROM symbols
		WHERE symbol = $1
	`
	s := &models.Security{}
	err := r.pool.QueryRow(ctx, query, symbol).Scan(
		&s.SID, &s.Symbol, &s.Name, &s.SecType, &s.Region, &s.MarketOpen, &s.MarketClose, &s.Timezone, &s.Currency,
		&s.Overview, &s.Intraday, &s.Summary, &s.CTime, &s.MTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSymbolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol: %w", err)
	}
	return s, nil
}

// ListSymbols returns the symbols a sync should visit, ordered by sid.
// When missing is set only symbols whose flag is still false are returned.
func (r *SymbolRepository) ListSymbols(ctx context.Context, sel models.SyncSelection, missing models.SymbolFlag) ([]models.SymbolRef, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if sel.Region != "" {
		where = append(where, "region = "+arg(sel.Region))
	}
	if len(sel.SecTypes) > 0 {
		where = append(where, "sec_type = ANY("+arg(sel.SecTypes)+")")
	}
	if len(sel.Symbols) > 0 {
		where = append(where, "symbol = ANY("+arg(sel.Symbols)+")")
	}
	switch missing {
	case models.FlagOverview, models.FlagIntraday, models.FlagSummary:
		where = append(where, "NOT "+string(missing))
	case "":
	default:
		return nil, fmt.Errorf("unknown symbol flag %q", missing)
	}

	query := `SELECT sid, symbol FROM symbols`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sid"
	if sel.Limit > 0 {
		query += " LIMIT " + arg(sel.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, Classify("list symbols", fmt.Errorf("failed to query symbols: %w", err))
	}
	defer rows.Close()

	var refs []models.SymbolRef
	for rows.Next() {
		var ref models.SymbolRef
		if err := rows.Scan(&ref.SID, &ref.Symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// SetFlag marks that data of the given kind has been stored for sid.
func (r *SymbolRepository) SetFlag(ctx context.Context, sid int64, flag models.SymbolFlag) error {
	switch flag {
	case models.FlagOverview, models.FlagIntraday, models.FlagSummary:
	default:
		return fmt.Errorf("unknown symbol flag %q", flag)
	}
	query := `UPDATE symbols SET ` + string(flag) + ` = TRUE, m_time = now() WHERE sid = $1 AND NOT ` + string(flag)
	if _, err := r.pool.Exec(ctx, query, sid); err != nil {
		return Classify("set flag", fmt.Errorf("failed to set %s flag: %w", flag, err))
	}
	return nil
}

// MaxSequences returns the highest sequence in use for each category that has
// at least one symbol.
func (r *SymbolRepository) MaxSequences(ctx context.Context) (map[secid.Category]uint32, error) {
	rows, err := r.pool.Query(ctx, `SELECT sid FROM symbols`)
	if err != nil {
		return nil, Classify("max sid", fmt.Errorf("failed to query sids: %w", err))
	}
	defer rows.Close()

	seqs := make(map[secid.Category]uint32)
	for rows.Next() {
		var sid int64
		if err := rows.Scan(&sid); err != nil {
			return nil, fmt.Errorf("failed to scan sid: %w", err)
		}
		key, ok := secid.Decode(sid)
		if !ok {
			continue
		}
		if key.Sequence > seqs[key.Category] {
			seqs[key.Category] = key.Sequence
		}
	}
	return seqs, rows.Err()
}
