package alphavantage

// Wire shapes of the JSON endpoints. AlphaVantage reports almost every number
// as a quoted string, so these stay strings and are converted by the parsers.

// OverviewResponse represents the AlphaVantage OVERVIEW response
type OverviewResponse struct {
	Symbol                     string `json:"Symbol"`
	AssetType                  string `json:"AssetType"`
	Name                       string `json:"Name"`
	Description                string `json:"Description"`
	CIK                        string `json:"CIK"`
	Exchange                   string `json:"Exchange"`
	Currency                   string `json:"Currency"`
	Country                    string `json:"Country"`
	Sector                     string `json:"Sector"`
	Industry                   string `json:"Industry"`
	Address                    string `json:"Address"`
	FiscalYearEnd              string `json:"FiscalYearEnd"`
	LatestQuarter              string `json:"LatestQuarter"`
	MarketCapitalization       string `json:"MarketCapitalization"`
	EBITDA                     string `json:"EBITDA"`
	PERatio                    string `json:"PERatio"`
	PEGRatio                   string `json:"PEGRatio"`
	BookValue                  string `json:"BookValue"`
	DividendPerShare           string `json:"DividendPerShare"`
	DividendYield              string `json:"DividendYield"`
	EPS                        string `json:"EPS"`
	RevenuePerShareTTM         string `json:"RevenuePerShareTTM"`
	ProfitMargin               string `json:"ProfitMargin"`
	OperatingMarginTTM         string `json:"OperatingMarginTTM"`
	ReturnOnAssetsTTM          string `json:"ReturnOnAssetsTTM"`
	ReturnOnEquityTTM          string `json:"ReturnOnEquityTTM"`
	RevenueTTM                 string `json:"RevenueTTM"`
	GrossProfitTTM             string `json:"GrossProfitTTM"`
	DilutedEPSTTM              string `json:"DilutedEPSTTM"`
	QuarterlyEarningsGrowthYOY string `json:"QuarterlyEarningsGrowthYOY"`
	QuarterlyRevenueGrowthYOY  string `json:"QuarterlyRevenueGrowthYOY"`
	AnalystTargetPrice         string `json:"AnalystTargetPrice"`
	TrailingPE                 string `json:"TrailingPE"`
	ForwardPE                  string `json:"ForwardPE"`
	PriceToSalesRatioTTM       string `json:"PriceToSalesRatioTTM"`
	PriceToBookRatio           string `json:"PriceToBookRatio"`
	EVToRevenue                string `json:"EVToRevenue"`
	EVToEBITDA                 string `json:"EVToEBITDA"`
	Beta                       string `json:"Beta"`
	WeekHigh52                 string `json:"52WeekHigh"`
	WeekLow52                  string `json:"52WeekLow"`
	MovingAverage50Day         string `json:"50DayMovingAverage"`
	MovingAverage200Day        string `json:"200DayMovingAverage"`
	SharesOutstanding          string `json:"SharesOutstanding"`
	DividendDate               string `json:"DividendDate"`
	ExDividendDate             string `json:"ExDividendDate"`
}

// DailyResponse represents the AlphaVantage TIME_SERIES_DAILY response
type DailyResponse struct {
	MetaData   map[string]string          `json:"Meta Data"`
	TimeSeries map[string]DailyPriceEntry `json:"Time Series (Daily)"`
}

// DailyPriceEntry represents a single day's price data
type DailyPriceEntry struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// TopMoversResponse represents the AlphaVantage TOP_GAINERS_LOSERS response
type TopMoversResponse struct {
	Metadata           string     `json:"metadata"`
	LastUpdated        string     `json:"last_updated"`
	TopGainers         []TopEntry `json:"top_gainers"`
	TopLosers          []TopEntry `json:"top_losers"`
	MostActivelyTraded []TopEntry `json:"most_actively_traded"`
}

type TopEntry struct {
	Ticker           string `json:"ticker"`
	Price            string `json:"price"`
	ChangeAmount     string `json:"change_amount"`
	ChangePercentage string `json:"change_percentage"`
	Volume           string `json:"volume"`
}

// NewsResponse represents the AlphaVantage NEWS_SENTIMENT response
type NewsResponse struct {
	Items                    string      `json:"items"`
	SentimentScoreDefinition string      `json:"sentiment_score_definition"`
	RelevanceScoreDefinition string      `json:"relevance_score_definition"`
	Feed                     []NewsEntry `json:"feed"`
}

type NewsEntry struct {
	Title                 string            `json:"title"`
	URL                   string            `json:"url"`
	TimePublished         string            `json:"time_published"`
	Authors               []string          `json:"authors"`
	Summary               string            `json:"summary"`
	BannerImage           *string           `json:"banner_image"`
	Source                string            `json:"source"`
	CategoryWithinSource  string            `json:"category_within_source"`
	SourceDomain          string            `json:"source_domain"`
	Topics                []NewsTopic       `json:"topics"`
	OverallSentimentScore float64           `json:"overall_sentiment_score"`
	OverallSentimentLabel string            `json:"overall_sentiment_label"`
	TickerSentiment       []NewsTickerScore `json:"ticker_sentiment"`
}

type NewsTopic struct {
	Topic          string `json:"topic"`
	RelevanceScore string `json:"relevance_score"`
}

type NewsTickerScore struct {
	Ticker               string `json:"ticker"`
	RelevanceScore       string `json:"relevance_score"`
	TickerSentimentScore string `json:"ticker_sentiment_score"`
	TickerSentimentLabel string `json:"ticker_sentiment_label"`
}

// SymbolMatch is one row of the SYMBOL_SEARCH csv.
type SymbolMatch struct {
	Symbol      string
	Name        string
	Type        string
	Region      string
	MarketOpen  string
	MarketClose string
	Timezone    string
	Currency    string
	MatchScore  float64
}
