package services

import (
	"context"
	"time"

	"github.com/epeers/marketsync/internal/alphavantage"
	"github.com/epeers/marketsync/internal/cache"
	"github.com/epeers/marketsync/internal/models"
	"github.com/epeers/marketsync/internal/secid"
	"github.com/epeers/marketsync/internal/syncerr"
	"github.com/epeers/marketsync/internal/util"
	"github.com/epeers/marketsync/internal/watermark"
)

// flagOnce sets a symbol flag the first time a row for sid is stored in a run.
type flagOnce struct {
	store SymbolStore
	flag  models.SymbolFlag
	done  map[int64]bool
}

func (f *flagOnce) mark(ctx context.Context, sid int64) error {
	if f.done[sid] {
		return nil
	}
	if err := f.store.SetFlag(ctx, sid, f.flag); err != nil {
		return err
	}
	if f.done == nil {
		f.done = make(map[int64]bool)
	}
	f.done[sid] = true
	return nil
}

// flagAfterStore handles the flag update that follows a stored row. A
// failure is logged and warned about but the row still counts as created;
// only a fatal store error is returned.
func flagAfterStore(ctx context.Context, rc *RunContext, item models.SymbolRef, flag models.SymbolFlag, err error) error {
	if err == nil {
		return nil
	}
	if syncerr.IsFatal(err) {
		return err
	}
	rc.Log.WithField("item", item.Symbol).Warnf("Row stored but flag %v not set: %v", flag, err)
	addWarningf(ctx, models.WarnFlagNotSet, "%s: flag %v not set: %v", item.Symbol, flag, err)
	return nil
}

// intradayAdapter stores one-minute ticks newer than the symbol's latest
// stored tick.
type intradayAdapter struct {
	dropCounter
	provider Provider
	prices   PriceStore
	flags    *flagOnce
	wm       *time.Time
}

func newIntradayAdapter(p Provider, prices PriceStore, symbols SymbolStore) *intradayAdapter {
	return &intradayAdapter{
		provider: p,
		prices:   prices,
		flags:    &flagOnce{store: symbols, flag: models.FlagIntraday},
	}
}

func (a *intradayAdapter) Kind() Kind { return models.SyncIntraday }

func (a *intradayAdapter) Label(item models.SymbolRef) string { return item.Symbol }

func (a *intradayAdapter) Prepare(ctx context.Context, _ *RunContext, item models.SymbolRef) (bool, error) {
	wm, err := a.prices.MaxIntradayTimestamp(ctx, item.SID)
	if err != nil {
		return false, err
	}
	a.wm = wm
	return true, nil
}

func (a *intradayAdapter) Fetch(ctx context.Context, item models.SymbolRef) ([]byte, error) {
	if key, ok := secid.Decode(item.SID); ok && key.Category == secid.Crypto {
		return a.provider.CryptoIntraday(ctx, item.Symbol)
	}
	return a.provider.Intraday(ctx, item.Symbol)
}

func (a *intradayAdapter) Parse(item models.SymbolRef, payload []byte) ([]models.IntradayTick, error) {
	ticks, dropped, err := alphavantage.ParseIntraday(item.Symbol, payload)
	a.drop(dropped)
	for i := range ticks {
		ticks[i].SID = item.SID
	}
	return ticks, err
}

func (a *intradayAdapter) Filter(_ context.Context, _ *RunContext, _ models.SymbolRef, rows []models.IntradayTick) ([]models.IntradayTick, int, error) {
	fresh, stale := watermark.Filter(rows, func(t models.IntradayTick) time.Time { return t.Timestamp }, a.wm, false)
	return fresh, stale, nil
}

func (a *intradayAdapter) Persist(ctx context.Context, rc *RunContext, item models.SymbolRef, tick models.IntradayTick) error {
	if err := a.prices.InsertIntraday(ctx, tick); err != nil {
		return err
	}
	return flagAfterStore(ctx, rc, item, a.flags.flag, a.flags.mark(ctx, item.SID))
}

// dailyAdapter stores end-of-day bars newer than the symbol's latest stored
// bar, skipping the request entirely when the next bar cannot exist yet.
type dailyAdapter struct {
	dropCounter
	provider   Provider
	prices     PriceStore
	flags      *flagOnce
	now        func() time.Time
	wm         *time.Time
	outputSize string
}

func newDailyAdapter(p Provider, prices PriceStore, symbols SymbolStore) *dailyAdapter {
	return &dailyAdapter{
		provider: p,
		prices:   prices,
		flags:    &flagOnce{store: symbols, flag: models.FlagSummary},
		now:      time.Now,
	}
}

// determineFetch decides whether a symbol needs a daily request and which
// outputsize covers the gap. compact returns the latest 100 bars.
func determineFetch(wm *time.Time, now time.Time) (bool, string) {
	if wm == nil {
		// Nothing stored yet - need full history
		return true, "full"
	}
	if util.NextBarAfter(*wm).After(now) {
		return false, ""
	}
	if util.DaysBetween(*wm, now) < 100 {
		return true, "compact"
	}
	return true, "full"
}

func (a *dailyAdapter) Kind() Kind { return models.SyncDaily }

func (a *dailyAdapter) Label(item models.SymbolRef) string { return item.Symbol }

func (a *dailyAdapter) Prepare(ctx context.Context, _ *RunContext, item models.SymbolRef) (bool, error) {
	wm, err := a.prices.MaxDailyDate(ctx, item.SID)
	if err != nil {
		return false, err
	}
	a.wm = wm

	needsFetch, size := determineFetch(wm, a.now())
	if !needsFetch {
		addWarningf(ctx, models.WarnUpToDate, "daily %s: up to date through %s", item.Symbol, wm.Format("2006-01-02"))
		return false, nil
	}
	a.outputSize = size
	return true, nil
}

func (a *dailyAdapter) Fetch(ctx context.Context, item models.SymbolRef) ([]byte, error) {
	return a.provider.Daily(ctx, item.Symbol, a.outputSize)
}

func (a *dailyAdapter) Parse(item models.SymbolRef, payload []byte) ([]models.DailyBar, error) {
	bars, dropped, err := alphavantage.ParseDaily(item.Symbol, payload)
	a.drop(dropped)
	for i := range bars {
		bars[i].SID = item.SID
	}
	return bars, err
}

func (a *dailyAdapter) Filter(_ context.Context, _ *RunContext, _ models.SymbolRef, rows []models.DailyBar) ([]models.DailyBar, int, error) {
	fresh, stale := watermark.Filter(rows, func(b models.DailyBar) time.Time { return b.Date }, a.wm, true)
	return fresh, stale, nil
}

func (a *dailyAdapter) Persist(ctx context.Context, rc *RunContext, item models.SymbolRef, bar models.DailyBar) error {
	if err := a.prices.InsertDaily(ctx, bar); err != nil {
		return err
	}
	return flagAfterStore(ctx, rc, item, a.flags.flag, a.flags.mark(ctx, item.SID))
}

// marketWide is the single work item of market-level endpoints.
type marketWide struct{}

// topMoversAdapter stores the gainers, losers and most active lists for
// days not yet stored.
type topMoversAdapter struct {
	dropCounter
	provider Provider
	prices   PriceStore
	wm       *time.Time
}

func newTopMoversAdapter(p Provider, prices PriceStore) *topMoversAdapter {
	return &topMoversAdapter{provider: p, prices: prices}
}

func (a *topMoversAdapter) Kind() Kind { return models.SyncTopMovers }

func (a *topMoversAdapter) Label(marketWide) string { return "market" }

func (a *topMoversAdapter) Prepare(ctx context.Context, _ *RunContext, _ marketWide) (bool, error) {
	wm, err := a.prices.MaxTopStatDate(ctx)
	if err != nil {
		return false, err
	}
	a.wm = wm
	return true, nil
}

func (a *topMoversAdapter) Fetch(ctx context.Context, _ marketWide) ([]byte, error) {
	return a.provider.TopMovers(ctx)
}

func (a *topMoversAdapter) Parse(_ marketWide, payload []byte) ([]models.TopStat, error) {
	stats, dropped, err := alphavantage.ParseTopMovers(payload)
	a.drop(dropped)
	return stats, err
}

func (a *topMoversAdapter) Filter(ctx context.Context, rc *RunContext, _ marketWide, rows []models.TopStat) ([]models.TopStat, int, error) {
	fresh, skipped := watermark.Filter(rows, func(s models.TopStat) time.Time { return s.Date }, a.wm, true)

	var kept []models.TopStat
	for _, s := range fresh {
		sid, ok := rc.Registry.Lookup(cache.Symbols, s.Symbol)
		if !ok {
			skipped++
			addWarningf(ctx, models.WarnUnresolvedTicker, "top movers: %s (%s) is not a known symbol", s.Symbol, s.EventType)
			continue
		}
		s.SID = sid
		kept = append(kept, s)
	}
	return kept, skipped, nil
}

func (a *topMoversAdapter) Persist(ctx context.Context, _ *RunContext, _ marketWide, s models.TopStat) error {
	return a.prices.InsertTopStat(ctx, s)
}

// overviewAdapter stores company fundamentals and marks the symbol so later
// runs only visit symbols still missing an overview.
type overviewAdapter struct {
	provider  Provider
	overviews OverviewStore
	symbols   SymbolStore
}

func newOverviewAdapter(p Provider, overviews OverviewStore, symbols SymbolStore) *overviewAdapter {
	return &overviewAdapter{provider: p, overviews: overviews, symbols: symbols}
}

func (a *overviewAdapter) Kind() Kind { return models.SyncOverviews }

func (a *overviewAdapter) Label(item models.SymbolRef) string { return item.Symbol }

func (a *overviewAdapter) Fetch(ctx context.Context, item models.SymbolRef) ([]byte, error) {
	return a.provider.Overview(ctx, item.Symbol)
}

func (a *overviewAdapter) Parse(item models.SymbolRef, payload []byte) ([]models.Overview, error) {
	ov, err := alphavantage.ParseOverview(payload)
	if err != nil {
		return nil, err
	}
	ov.SID = item.SID
	return []models.Overview{ov}, nil
}

func (a *overviewAdapter) Filter(_ context.Context, _ *RunContext, _ models.SymbolRef, rows []models.Overview) ([]models.Overview, int, error) {
	return rows, 0, nil
}

func (a *overviewAdapter) Persist(ctx context.Context, rc *RunContext, item models.SymbolRef, ov models.Overview) error {
	if err := a.overviews.UpsertOverview(ctx, ov); err != nil {
		return err
	}
	return flagAfterStore(ctx, rc, item, models.FlagOverview, a.symbols.SetFlag(ctx, item.SID, models.FlagOverview))
}
