package services

import (
	"context"
	"time"

	"github.com/epeers/marketsync/internal/models"
	"github.com/epeers/marketsync/internal/repository"
	"github.com/epeers/marketsync/internal/secid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Provider is the market-data API. *alphavantage.Client satisfies it.
type Provider interface {
	SymbolSearch(ctx context.Context, keywords string) ([]byte, error)
	GetListingStatus(ctx context.Context, state string) ([]byte, error)
	Overview(ctx context.Context, symbol string) ([]byte, error)
	Intraday(ctx context.Context, symbol string) ([]byte, error)
	CryptoIntraday(ctx context.Context, symbol string) ([]byte, error)
	Daily(ctx context.Context, symbol, outputSize string) ([]byte, error)
	TopMovers(ctx context.Context) ([]byte, error)
	News(ctx context.Context, ticker string) ([]byte, error)
}

type SymbolStore interface {
	InsertSymbol(ctx context.Context, s models.Security) (int64, error)
	LoadSymbolMap(ctx context.Context) (map[string]int64, error)
	ListSymbols(ctx context.Context, sel models.SyncSelection, missing models.SymbolFlag) ([]models.SymbolRef, error)
	SetFlag(ctx context.Context, sid int64, flag models.SymbolFlag) error
	MaxSequences(ctx context.Context) (map[secid.Category]uint32, error)
	GetBySymbol(ctx context.Context, symbol string) (*models.Security, error)
}

type PriceStore interface {
	MaxIntradayTimestamp(ctx context.Context, sid int64) (*time.Time, error)
	MaxDailyDate(ctx context.Context, sid int64) (*time.Time, error)
	MaxTopStatDate(ctx context.Context) (*time.Time, error)
	InsertIntraday(ctx context.Context, t models.IntradayTick) error
	InsertDaily(ctx context.Context, b models.DailyBar) error
	InsertTopStat(ctx context.Context, s models.TopStat) error
}

type OverviewStore interface {
	UpsertOverview(ctx context.Context, ov models.Overview) error
}

type NewsStore interface {
	LoadAuthors(ctx context.Context) (map[string]int64, error)
	LoadSources(ctx context.Context) (map[string]int64, error)
	LoadTopics(ctx context.Context) (map[string]int64, error)
	InsertAuthor(ctx context.Context, name string) (int64, error)
	InsertSource(ctx context.Context, name, domain string) (int64, error)
	InsertTopic(ctx context.Context, name string) (int64, error)
	LatestNewsHash(ctx context.Context, sid int64) (string, error)
	InsertNewsOverview(ctx context.Context, sid int64, items int, hash string) (int64, error)
	SetNewsHash(ctx context.Context, overviewID int64, hash string) error
	InsertArticle(ctx context.Context, a models.StoredArticle) (bool, error)
	InsertFeed(ctx context.Context, f models.Feed) (int64, error)
	InsertAuthorMaps(ctx context.Context, feedID int64, authorIDs []int64) error
	InsertTopicMaps(ctx context.Context, sid, feedID int64, topics []models.TopicMap) error
	InsertTickerSentiments(ctx context.Context, feedID int64, rows []models.TickerSentimentRow) error
}

// RunStore is the run ledger.
type RunStore interface {
	StartRun(ctx context.Context, res *models.SyncResult) error
	FinishRun(ctx context.Context, res *models.SyncResult) error
	GetRun(ctx context.Context, runID string) (*models.SyncResult, error)
}

// Stores groups the persistence dependencies of SyncService.
type Stores struct {
	Symbols   SymbolStore
	Prices    PriceStore
	Overviews OverviewStore
	News      NewsStore
	Runs      RunStore
}

// NewStores backs every store with its PostgreSQL repository.
func NewStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Symbols:   repository.NewSymbolRepository(pool),
		Prices:    repository.NewPriceRepository(pool),
		Overviews: repository.NewOverviewRepository(pool),
		News:      repository.NewNewsRepository(pool),
		Runs:      repository.NewRunRepository(pool),
	}
}
