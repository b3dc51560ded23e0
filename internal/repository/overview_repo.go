package repository

import (
	"context"
	"fmt"

	"github.com/epeers/marketsync/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OverviewRepository stores company fundamentals in overviews and overviewexts.
type OverviewRepository struct {
	pool *pgxpool.Pool
}

func NewOverviewRepository(pool *pgxpool.Pool) *OverviewRepository {
	return &OverviewRepository{pool: pool}
}

// UpsertOverview writes both overview tables in one transaction. A refetch
// replaces the stored values and bumps mod_time.
func (r *OverviewRepository) UpsertOverview(ctx context.Context, ov models.Overview) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Classify("upsert overview", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	if err := upsertOverviewCore(ctx, tx, ov); err != nil {
		return Classify("upsert overview", err)
	}
	if err := upsertOverviewExt(ctx, tx, ov.SID, ov.Ext); err != nil {
		return Classify("upsert overview", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Classify("upsert overview", fmt.Errorf("failed to commit overview: %w", err))
	}
	return nil
}

func upsertOverviewCore(ctx context.Context, tx pgx.Tx, ov models.Overview) error {
	query := `
		INSERT INTO overviews (sid, symbol, name, description, cik, exch, curr, country, sector, industry,
		                       address, fiscalyearend, latestquarter, marketcapitalization, ebitda, peratio,
		                       pegratio, bookvalue, dividendpershare, dividendyield, eps)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (sid) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, cik = EXCLUDED.cik,
			exch = EXCLUDED.exch, curr = EXCLUDED.curr, country = EXCLUDED.country,
			sector = EXCLUDED.sector, industry = EXCLUDED.industry, address = EXCLUDED.address,
			fiscalyearend = EXCLUDED.fiscalyearend, latestquarter = EXCLUDED.latestquarter,
			marketcapitalization = EXCLUDED.marketcapitalization, ebitda = EXCLUDED.ebitda,
			peratio = EXCLUDED.peratio, pegratio = EXCLUDED.pegratio, bookvalue = EXCLUDED.bookvalue,
			dividendpershare = EXCLUDED.dividendpershare, dividendyield = EXCLUDED.dividendyield,
			eps = EXCLUDED.eps, mod_time = now()
	`
	_, err := tx.Exec(ctx, query,
		ov.SID, ov.Symbol, ov.Name, ov.Description, ov.CIK, ov.Exchange, ov.Currency, ov.Country,
		ov.Sector, ov.Industry, ov.Address, ov.FiscalYearEnd, ov.LatestQuarter, ov.MarketCapitalization,
		ov.EBITDA, ov.PERatio, ov.PEGRatio, ov.BookValue, ov.DividendPerShare, ov.DividendYield, ov.EPS,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert overview %s: %w", ov.Symbol, err)
	}
	return nil
}

func upsertOverviewExt(ctx context.Context, tx pgx.Tx, sid int64, e models.OverviewExt) error {
	query := `
		INSERT INTO overviewexts (sid, revenuepersharettm, profitmargin, operatingmarginttm, returnonassetsttm,
		                          returnonequityttm, revenuettm, grossprofitttm, dilutedepsttm,
		                          quarterlyearningsgrowthyoy, quarterlyrevenuegrowthyoy, analysttargetprice,
		                          trailingpe, forwardpe, pricetosalesratiottm, pricetobookratio, evtorevenue,
		                          evtoebitda, beta, annweekhigh, annweeklow, fiftydaymovingaverage,
		                          twohdaymovingaverage, sharesoutstanding, dividenddate, exdividenddate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		        $21, $22, $23, $24, $25, $26)
		ON CONFLICT (sid) DO UPDATE SET
			revenuepersharettm = EXCLUDED.revenuepersharettm, profitmargin = EXCLUDED.profitmargin,
			operatingmarginttm = EXCLUDED.operatingmarginttm, returnonassetsttm = EXCLUDED.returnonassetsttm,
			returnonequityttm = EXCLUDED.returnonequityttm, revenuettm = EXCLUDED.revenuettm,
			grossprofitttm = EXCLUDED.grossprofitttm, dilutedepsttm = EXCLUDED.dilutedepsttm,
			quarterlyearningsgrowthyoy = EXCLUDED.quarterlyearningsgrowthyoy,
			quarterlyrevenuegrowthyoy = EXCLUDED.quarterlyrevenuegrowthyoy,
			analysttargetprice = EXCLUDED.analysttargetprice, trailingpe = EXCLUDED.trailingpe,
			forwardpe = EXCLUDED.forwardpe, pricetosalesratiottm = EXCLUDED.pricetosalesratiottm,
			pricetobookratio = EXCLUDED.pricetobookratio, evtorevenue = EXCLUDED.evtorevenue,
			evtoebitda = EXCLUDED.evtoebitda, beta = EXCLUDED.beta, annweekhigh = EXCLUDED.annweekhigh,
			annweeklow = EXCLUDED.annweeklow, fiftydaymovingaverage = EXCLUDED.fiftydaymovingaverage,
			twohdaymovingaverage = EXCLUDED.twohdaymovingaverage, sharesoutstanding = EXCLUDED.sharesoutstanding,
			dividenddate = EXCLUDED.dividenddate, exdividenddate = EXCLUDED.exdividenddate, mod_time = now()
	`
	_, err := tx.Exec(ctx, query,
		sid, e.RevenuePerShareTTM, e.ProfitMargin, e.OperatingMarginTTM, e.ReturnOnAssetsTTM,
		e.ReturnOnEquityTTM, e.RevenueTTM, e.GrossProfitTTM, e.DilutedEPSTTM,
		e.QuarterlyEarningsGrowthYOY, e.QuarterlyRevenueGrowthYOY, e.AnalystTargetPrice,
		e.TrailingPE, e.ForwardPE, e.PriceToSalesRatioTTM, e.PriceToBookRatio, e.EVToRevenue,
		e.EVToEBITDA, e.Beta, e.WeekHigh52, e.WeekLow52, e.MovingAverage50Day,
		e.MovingAverage200Day, e.SharesOutstanding, e.DividendDate, e.ExDividendDate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert overview ext: %w", err)
	}
	return nil
}
