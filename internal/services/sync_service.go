package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/epeers/marketsync/internal/cache"
	"github.com/epeers/marketsync/internal/gate"
	"github.com/epeers/marketsync/internal/listing"
	"github.com/epeers/marketsync/internal/metrics"
	"github.com/epeers/marketsync/internal/models"
	"golang.org/x/sync/singleflight"
)

// SyncService runs entity syncs against the provider and the store. Runs are
// serialized so two of them never share the provider's per-key rate limit.
type SyncService struct {
	mu       sync.Mutex
	group    singleflight.Group
	provider Provider
	stores   Stores
	metrics  *metrics.Metrics
	gateOpts []gate.Option
	lifetime context.Context
}

// NewSyncService creates a new SyncService. gateOpts configure the gate each
// run gets.
func NewSyncService(provider Provider, stores Stores, m *metrics.Metrics, gateOpts ...gate.Option) *SyncService {
	return &SyncService{
		provider: provider,
		stores:   stores,
		metrics:  m,
		gateOpts: gateOpts,
		lifetime: context.Background(),
	}
}

// SetLifetime bounds triggered runs by ctx instead of the caller's request.
func (s *SyncService) SetLifetime(ctx context.Context) {
	s.lifetime = ctx
}

type preloadFunc func(ctx context.Context, rc *RunContext) error

// execute runs one adapter over items with a fresh RunContext, recording the
// run in the ledger.
func execute[I, R any](ctx context.Context, s *SyncService, a Adapter[I, R], items []I, preload ...preloadFunc) (*models.SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rc := NewRunContext(a.Kind(), s.metrics, s.gateOpts...)
	m := rc.Metrics
	kind := string(a.Kind())

	for _, load := range preload {
		if err := load(ctx, rc); err != nil {
			return nil, fmt.Errorf("failed to prepare %s run: %w", kind, err)
		}
	}

	ledger := &models.SyncResult{RunID: rc.RunID, Kind: a.Kind(), Items: len(items), Started: rc.Started}
	if err := s.stores.Runs.StartRun(ctx, ledger); err != nil {
		return nil, err
	}
	rc.Log.Infof("Run started with %d items", len(items))

	m.RunsActive.Inc()
	res, runErr := Run(ctx, rc, a, items)
	m.RunsActive.Dec()
	m.RunsTotal.WithLabelValues(kind, string(res.State)).Inc()
	m.RunDuration.WithLabelValues(kind).Observe(float64(res.DurationMs) / 1000)

	// The ledger row is closed even when the caller's context is gone.
	if err := s.stores.Runs.FinishRun(context.WithoutCancel(ctx), res); err != nil {
		rc.Log.WithError(err).Error("Failed to record run end")
	}
	return res, runErr
}

func (s *SyncService) preloadSymbols(ctx context.Context, rc *RunContext) error {
	symbols, err := s.stores.Symbols.LoadSymbolMap(ctx)
	if err != nil {
		return err
	}
	rc.Registry.Preload(cache.Symbols, symbols)
	return nil
}

func (s *SyncService) preloadNewsRefs(ctx context.Context, rc *RunContext) error {
	loads := []struct {
		kind cache.Kind
		load func(context.Context) (map[string]int64, error)
	}{
		{cache.Authors, s.stores.News.LoadAuthors},
		{cache.Sources, s.stores.News.LoadSources},
		{cache.Topics, s.stores.News.LoadTopics},
	}
	for _, l := range loads {
		entries, err := l.load(ctx)
		if err != nil {
			return err
		}
		rc.Registry.Preload(l.kind, entries)
	}
	return nil
}

// SyncSymbols searches each keyword and registers every match not yet stored.
func (s *SyncService) SyncSymbols(ctx context.Context, keywords []string) (*models.SyncResult, error) {
	a := newSymbolSearchAdapter(s.provider, s.stores.Symbols, false)
	return execute(ctx, s, a, keywords, s.preloadSymbols)
}

// SyncListedSymbols registers tickers taken from an exchange listing,
// keeping only the exact match for each ticker.
func (s *SyncService) SyncListedSymbols(ctx context.Context, tickers []string) (*models.SyncResult, error) {
	a := newSymbolSearchAdapter(s.provider, s.stores.Symbols, true)
	return execute(ctx, s, a, tickers, s.preloadSymbols)
}

// SyncListingStatus registers every active US listing from LISTING_STATUS.
func (s *SyncService) SyncListingStatus(ctx context.Context) (*models.SyncResult, error) {
	a := newListingStatusAdapter(s.provider, s.stores.Symbols)
	return execute(ctx, s, a, []string{"active"}, s.preloadSymbols)
}

// SyncDigitalSymbols registers crypto assets from a digital currency list.
func (s *SyncService) SyncDigitalSymbols(ctx context.Context, entries []listing.Entry) (*models.SyncResult, error) {
	a := newDigitalSymbolAdapter(s.stores.Symbols)
	return execute(ctx, s, a, entries, s.preloadSymbols)
}

// SyncOverviews fetches overviews for the selected symbols that have none yet.
func (s *SyncService) SyncOverviews(ctx context.Context, sel models.SyncSelection) (*models.SyncResult, error) {
	refs, err := s.stores.Symbols.ListSymbols(ctx, sel, models.FlagOverview)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	a := newOverviewAdapter(s.provider, s.stores.Overviews, s.stores.Symbols)
	return execute(ctx, s, a, refs)
}

func (s *SyncService) SyncIntraday(ctx context.Context, sel models.SyncSelection) (*models.SyncResult, error) {
	refs, err := s.stores.Symbols.ListSymbols(ctx, sel, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	a := newIntradayAdapter(s.provider, s.stores.Prices, s.stores.Symbols)
	return execute(ctx, s, a, refs)
}

func (s *SyncService) SyncDaily(ctx context.Context, sel models.SyncSelection) (*models.SyncResult, error) {
	refs, err := s.stores.Symbols.ListSymbols(ctx, sel, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	a := newDailyAdapter(s.provider, s.stores.Prices, s.stores.Symbols)
	return execute(ctx, s, a, refs)
}

func (s *SyncService) SyncTopMovers(ctx context.Context) (*models.SyncResult, error) {
	a := newTopMoversAdapter(s.provider, s.stores.Prices)
	return execute(ctx, s, a, []marketWide{{}}, s.preloadSymbols)
}

func (s *SyncService) SyncNews(ctx context.Context, sel models.SyncSelection) (*models.SyncResult, error) {
	refs, err := s.stores.Symbols.ListSymbols(ctx, sel, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	a := newNewsAdapter(s.provider, s.stores.News)
	return execute(ctx, s, a, refs, s.preloadSymbols, s.preloadNewsRefs)
}

// GetRun reads a run back from the ledger.
func (s *SyncService) GetRun(ctx context.Context, runID string) (*models.SyncResult, error) {
	return s.stores.Runs.GetRun(ctx, runID)
}
