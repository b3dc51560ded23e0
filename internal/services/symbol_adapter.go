package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/epeers/marketsync/internal/alphavantage"
	"github.com/epeers/marketsync/internal/cache"
	"github.com/epeers/marketsync/internal/listing"
	"github.com/epeers/marketsync/internal/models"
	"github.com/epeers/marketsync/internal/secid"
	"github.com/epeers/marketsync/internal/syncerr"
)

// sequencer hands out the next sequence number per category, seeded once
// per run from the highest sid already stored.
type sequencer struct {
	store SymbolStore
	last  map[secid.Category]uint32
}

func (s *sequencer) next(ctx context.Context, cat secid.Category) (int64, uint32, error) {
	if s.last == nil {
		last, err := s.store.MaxSequences(ctx)
		if err != nil {
			return 0, 0, err
		}
		if last == nil {
			last = make(map[secid.Category]uint32)
		}
		s.last = last
	}
	seq := s.last[cat] + 1
	sid, err := secid.EncodeChecked(cat, seq)
	if err != nil {
		return 0, 0, syncerr.New(syncerr.StoreFatal, "allocate sid", err)
	}
	return sid, seq, nil
}

// commit marks seq as used. Sequences are burned on duplicates too, so a sid
// that collided is never handed out again in the same run.
func (s *sequencer) commit(cat secid.Category, seq uint32) {
	if seq > s.last[cat] {
		s.last[cat] = seq
	}
}

// insert allocates a sid for sec and stores it, registering the ticker in
// the run's symbol map on success.
func (s *sequencer) insert(ctx context.Context, rc *RunContext, cat secid.Category, sec models.Security) error {
	sid, seq, err := s.next(ctx, cat)
	if err != nil {
		return err
	}
	sec.SID = sid
	sec.SecType = cat.String()

	_, err = s.store.InsertSymbol(ctx, sec)
	if err == nil || syncerr.Is(err, syncerr.Duplicate) {
		s.commit(cat, seq)
	}
	if syncerr.Is(err, syncerr.Duplicate) {
		// Stored by an earlier or concurrent run; cache its sid so later
		// kinds in this run can resolve the ticker.
		if stored, lookupErr := s.store.GetBySymbol(ctx, sec.Symbol); lookupErr == nil {
			rc.Registry.Set(cache.Symbols, sec.Symbol, stored.SID)
		} else {
			rc.Log.Debugf("Duplicate %s not resolved: %v", sec.Symbol, lookupErr)
		}
	}
	if err != nil {
		return err
	}
	rc.Registry.Set(cache.Symbols, sec.Symbol, sid)
	return nil
}

// skipKnown keeps the symbols not yet stored nor seen earlier in this run.
func skipKnown[R any](rc *RunContext, rows []R, symbolOf func(R) string) ([]R, int) {
	var kept []R
	skipped := 0
	for _, row := range rows {
		sym := symbolOf(row)
		if _, stored := rc.Registry.Lookup(cache.Symbols, sym); stored || !rc.Registry.MarkSeenOrSkip(sym) {
			skipped++
			continue
		}
		kept = append(kept, row)
	}
	return kept, skipped
}

// symbolAdapter registers securities found by SYMBOL_SEARCH or listed by
// LISTING_STATUS.
type symbolAdapter struct {
	dropCounter
	fetch func(ctx context.Context, item string) ([]byte, error)
	parse func(payload []byte) ([]alphavantage.SymbolMatch, int, error)
	// exact keeps only the match whose ticker equals the item, used when the
	// items are tickers from a listing file rather than free keywords.
	exact bool
	seq   *sequencer
}

func newSymbolSearchAdapter(p Provider, store SymbolStore, exact bool) *symbolAdapter {
	return &symbolAdapter{
		fetch: p.SymbolSearch,
		parse: alphavantage.ParseSymbolSearch,
		exact: exact,
		seq:   &sequencer{store: store},
	}
}

func newListingStatusAdapter(p Provider, store SymbolStore) *symbolAdapter {
	return &symbolAdapter{
		fetch: p.GetListingStatus,
		parse: alphavantage.ParseListingStatus,
		seq:   &sequencer{store: store},
	}
}

func (a *symbolAdapter) Kind() Kind { return models.SyncSymbols }

func (a *symbolAdapter) Label(item string) string { return item }

func (a *symbolAdapter) Fetch(ctx context.Context, item string) ([]byte, error) {
	return a.fetch(ctx, item)
}

func (a *symbolAdapter) Parse(item string, payload []byte) ([]alphavantage.SymbolMatch, error) {
	matches, dropped, err := a.parse(payload)
	a.drop(dropped)
	if err != nil || !a.exact {
		return matches, err
	}
	for _, m := range matches {
		if strings.EqualFold(m.Symbol, item) {
			return []alphavantage.SymbolMatch{m}, nil
		}
	}
	return nil, syncerr.NoDataf("symbol_search", "no exact match for %s", item)
}

func (a *symbolAdapter) Filter(_ context.Context, rc *RunContext, _ string, rows []alphavantage.SymbolMatch) ([]alphavantage.SymbolMatch, int, error) {
	kept, skipped := skipKnown(rc, rows, func(m alphavantage.SymbolMatch) string { return m.Symbol })
	return kept, skipped, nil
}

func (a *symbolAdapter) Persist(ctx context.Context, rc *RunContext, _ string, m alphavantage.SymbolMatch) error {
	cat := secid.Classify(m.Type, m.Name)
	return a.seq.insert(ctx, rc, cat, models.Security{
		Symbol:      m.Symbol,
		Name:        m.Name,
		Region:      secid.NormalizeRegion(m.Region),
		MarketOpen:  m.MarketOpen,
		MarketClose: m.MarketClose,
		Timezone:    m.Timezone,
		Currency:    m.Currency,
	})
}

// digitalSymbolAdapter registers crypto assets from a "SYMBOL,Name" list.
// There is nothing to request: the list row is the payload.
type digitalSymbolAdapter struct {
	seq *sequencer
}

func newDigitalSymbolAdapter(store SymbolStore) *digitalSymbolAdapter {
	return &digitalSymbolAdapter{seq: &sequencer{store: store}}
}

func (a *digitalSymbolAdapter) local() {}

func (a *digitalSymbolAdapter) Kind() Kind { return models.SyncDigitalSymbols }

func (a *digitalSymbolAdapter) Label(item listing.Entry) string { return item.Symbol }

func (a *digitalSymbolAdapter) Fetch(_ context.Context, item listing.Entry) ([]byte, error) {
	return []byte(item.Symbol + "," + item.Name), nil
}

func (a *digitalSymbolAdapter) Parse(item listing.Entry, _ []byte) ([]models.Security, error) {
	if strings.TrimSpace(item.Symbol) == "" {
		return nil, syncerr.Parsef("digital symbol", "empty symbol in row %q", item.Name)
	}
	name := item.Name
	if name == "" {
		name = alphavantage.MissingString
	}
	return []models.Security{{
		Symbol:      strings.ToUpper(strings.TrimSpace(item.Symbol)),
		Name:        name,
		Region:      "USA",
		MarketOpen:  "00:00",
		MarketClose: "23:59",
		Timezone:    "UTC-04",
		Currency:    "USD",
	}}, nil
}

func (a *digitalSymbolAdapter) Filter(_ context.Context, rc *RunContext, _ listing.Entry, rows []models.Security) ([]models.Security, int, error) {
	kept, skipped := skipKnown(rc, rows, func(s models.Security) string { return s.Symbol })
	return kept, skipped, nil
}

func (a *digitalSymbolAdapter) Persist(ctx context.Context, rc *RunContext, _ listing.Entry, sec models.Security) error {
	if err := a.seq.insert(ctx, rc, secid.Crypto, sec); err != nil {
		return fmt.Errorf("crypto %s: %w", sec.Symbol, err)
	}
	return nil
}
