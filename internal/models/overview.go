package models

import "time"

// Overview is the company fundamentals snapshot. Numeric fields the provider
// reports as "None" or "-" hold the sentinels from the alphavantage package.
type Overview struct {
	SID                  int64       `json:"sid"`
	Symbol               string      `json:"symbol"`
	Name                 string      `json:"name"`
	Description          string      `json:"description"`
	CIK                  string      `json:"cik"`
	Exchange             string      `json:"exchange"`
	Currency             string      `json:"currency"`
	Country              string      `json:"country"`
	Sector               string      `json:"sector"`
	Industry             string      `json:"industry"`
	Address              string      `json:"address"`
	FiscalYearEnd        string      `json:"fiscal_year_end"`
	LatestQuarter        time.Time   `json:"latest_quarter"`
	MarketCapitalization int64       `json:"market_capitalization"`
	EBITDA               int64       `json:"ebitda"`
	PERatio              float64     `json:"pe_ratio"`
	PEGRatio             float64     `json:"peg_ratio"`
	BookValue            float64     `json:"book_value"`
	DividendPerShare     float64     `json:"dividend_per_share"`
	DividendYield        float64     `json:"dividend_yield"`
	EPS                  float64     `json:"eps"`
	Ext                  OverviewExt `json:"ext"`
}

// OverviewExt holds the trailing ratios stored in overviewexts.
type OverviewExt struct {
	RevenuePerShareTTM         float64   `json:"revenue_per_share_ttm"`
	ProfitMargin               float64   `json:"profit_margin"`
	OperatingMarginTTM         float64   `json:"operating_margin_ttm"`
	ReturnOnAssetsTTM          float64   `json:"return_on_assets_ttm"`
	ReturnOnEquityTTM          float64   `json:"return_on_equity_ttm"`
	RevenueTTM                 int64     `json:"revenue_ttm"`
	GrossProfitTTM             int64     `json:"gross_profit_ttm"`
	DilutedEPSTTM              float64   `json:"diluted_eps_ttm"`
	QuarterlyEarningsGrowthYOY float64   `json:"quarterly_earnings_growth_yoy"`
	QuarterlyRevenueGrowthYOY  float64   `json:"quarterly_revenue_growth_yoy"`
	AnalystTargetPrice         float64   `json:"analyst_target_price"`
	TrailingPE                 float64   `json:"trailing_pe"`
	ForwardPE                  float64   `json:"forward_pe"`
	PriceToSalesRatioTTM       float64   `json:"price_to_sales_ratio_ttm"`
	PriceToBookRatio           float64   `json:"price_to_book_ratio"`
	EVToRevenue                float64   `json:"ev_to_revenue"`
	EVToEBITDA                 float64   `json:"ev_to_ebitda"`
	Beta                       float64   `json:"beta"`
	WeekHigh52                 float64   `json:"week_high_52"`
	WeekLow52                  float64   `json:"week_low_52"`
	MovingAverage50Day         float64   `json:"moving_average_50_day"`
	MovingAverage200Day        float64   `json:"moving_average_200_day"`
	SharesOutstanding          int64     `json:"shares_outstanding"`
	DividendDate               time.Time `json:"dividend_date"`
	ExDividendDate             time.Time `json:"ex_dividend_date"`
}
