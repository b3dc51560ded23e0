package alphavantage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/epeers/marketsync/internal/models"
	"github.com/epeers/marketsync/internal/syncerr"
)

// Markers that a well-formed payload always contains. Throttle notices and
// "Invalid API call" answers come back with HTTP 200 and lack them.
const (
	MarkerSymbolSearch = "symbol"
	MarkerOverview     = "Symbol"
	MarkerIntraday     = "timestamp,open,high,low,close,volume"
	MarkerDaily        = "Meta Data"
	MarkerTopMovers    = "metadata"
	MarkerNews         = "feed"
	MarkerListing      = "symbol,name,exchange,assetType"
)

// csvHasMarker reports whether the first line of a csv payload starts with marker.
func csvHasMarker(payload []byte, marker string) bool {
	line := payload
	if i := bytes.IndexByte(payload, '\n'); i >= 0 {
		line = payload[:i]
	}
	line = bytes.TrimPrefix(bytes.TrimSpace(line), []byte("\xef\xbb\xbf"))
	return bytes.HasPrefix(line, []byte(marker))
}

func jsonHasMarker(payload []byte, marker string) bool {
	return bytes.Contains(payload, []byte(`"`+marker+`"`))
}

// providerNote extracts the explanation AlphaVantage puts in place of data.
func providerNote(payload []byte) string {
	var note map[string]any
	if err := json.Unmarshal(payload, &note); err != nil {
		return strings.TrimSpace(string(payload[:min(len(payload), 120)]))
	}
	for _, k := range []string{"Note", "Information", "Error Message"} {
		if s, ok := note[k].(string); ok {
			return s
		}
	}
	return "empty response"
}

func noData(op string, payload []byte, marker string) error {
	return syncerr.NoDataf(op, "marker %q missing: %s", marker, providerNote(payload))
}

// csvRecords reads a header plus records, returning the header's column index.
func csvRecords(op string, payload []byte) (map[string]int, [][]string, error) {
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, syncerr.Parsef(op, "failed to read CSV header: %v", err)
	}
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.TrimSpace(col)] = i
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, syncerr.Parsef(op, "failed to read CSV record: %v", err)
		}
		if len(record) < len(header) {
			// short rows are dropped by the caller
			records = append(records, nil)
			continue
		}
		records = append(records, record)
	}
	return colIdx, records, nil
}

// ParseSymbolSearch parses SYMBOL_SEARCH csv. It returns the matches and the
// number of rows dropped as malformed.
func ParseSymbolSearch(payload []byte) ([]SymbolMatch, int, error) {
	const op = "parse symbol_search"
	if !csvHasMarker(payload, MarkerSymbolSearch) {
		return nil, 0, noData(op, payload, MarkerSymbolSearch)
	}
	col, records, err := csvRecords(op, payload)
	if err != nil {
		return nil, 0, err
	}

	var matches []SymbolMatch
	dropped := 0
	for _, r := range records {
		if r == nil || strings.TrimSpace(r[col["symbol"]]) == "" {
			dropped++
			continue
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok {
				return MissingString
			}
			return stringOr(strings.TrimSpace(r[i]))
		}
		matches = append(matches, SymbolMatch{
			Symbol:      strings.TrimSpace(r[col["symbol"]]),
			Name:        get("name"),
			Type:        get("type"),
			Region:      get("region"),
			MarketOpen:  get("marketOpen"),
			MarketClose: get("marketClose"),
			Timezone:    get("timezone"),
			Currency:    get("currency"),
			MatchScore:  floatOr(get("matchScore")),
		})
	}
	return matches, dropped, nil
}

// ParseListingStatus parses the LISTING_STATUS csv into symbol matches. The
// endpoint only covers US exchanges, so region, hours and currency are fixed.
func ParseListingStatus(payload []byte) ([]SymbolMatch, int, error) {
	const op = "parse listing_status"
	if !csvHasMarker(payload, MarkerListing) {
		return nil, 0, noData(op, payload, MarkerListing)
	}
	col, records, err := csvRecords(op, payload)
	if err != nil {
		return nil, 0, err
	}

	var matches []SymbolMatch
	dropped := 0
	for _, r := range records {
		if r == nil || strings.TrimSpace(r[col["symbol"]]) == "" {
			dropped++
			continue
		}
		if status, ok := col["status"]; ok && !strings.EqualFold(r[status], "Active") {
			continue
		}
		assetType := strings.TrimSpace(r[col["assetType"]])
		if strings.EqualFold(assetType, "Stock") {
			assetType = "Equity"
		}
		matches = append(matches, SymbolMatch{
			Symbol:      strings.TrimSpace(r[col["symbol"]]),
			Name:        stringOr(strings.TrimSpace(r[col["name"]])),
			Type:        assetType,
			Region:      "United States",
			MarketOpen:  "09:30",
			MarketClose: "16:00",
			Timezone:    "UTC-04",
			Currency:    "USD",
			MatchScore:  1.0,
		})
	}
	return matches, dropped, nil
}

// ParseOverview parses OVERVIEW json. Numeric and date fields that are not
// parseable hold the package sentinels.
func ParseOverview(payload []byte) (models.Overview, error) {
	const op = "parse overview"
	if !jsonHasMarker(payload, MarkerOverview) {
		return models.Overview{}, noData(op, payload, MarkerOverview)
	}
	var r OverviewResponse
	if err := json.Unmarshal(payload, &r); err != nil {
		return models.Overview{}, syncerr.Parsef(op, "failed to decode response: %v", err)
	}
	if r.Symbol == "" {
		return models.Overview{}, noData(op, payload, MarkerOverview)
	}

	return models.Overview{
		Symbol:               r.Symbol,
		Name:                 stringOr(r.Name),
		Description:          stringOr(r.Description),
		CIK:                  stringOr(r.CIK),
		Exchange:             stringOr(r.Exchange),
		Currency:             stringOr(r.Currency),
		Country:              stringOr(r.Country),
		Sector:               stringOr(r.Sector),
		Industry:             stringOr(r.Industry),
		Address:              stringOr(r.Address),
		FiscalYearEnd:        stringOr(r.FiscalYearEnd),
		LatestQuarter:        dateOr(r.LatestQuarter),
		MarketCapitalization: intOr(r.MarketCapitalization),
		EBITDA:               intOr(r.EBITDA),
		PERatio:              floatOr(r.PERatio),
		PEGRatio:             floatOr(r.PEGRatio),
		BookValue:            floatOr(r.BookValue),
		DividendPerShare:     floatOr(r.DividendPerShare),
		DividendYield:        floatOr(r.DividendYield),
		EPS:                  floatOr(r.EPS),
		Ext: models.OverviewExt{
			RevenuePerShareTTM:         floatOr(r.RevenuePerShareTTM),
			ProfitMargin:               floatOr(r.ProfitMargin),
			OperatingMarginTTM:         floatOr(r.OperatingMarginTTM),
			ReturnOnAssetsTTM:          floatOr(r.ReturnOnAssetsTTM),
			ReturnOnEquityTTM:          floatOr(r.ReturnOnEquityTTM),
			RevenueTTM:                 intOr(r.RevenueTTM),
			GrossProfitTTM:             intOr(r.GrossProfitTTM),
			DilutedEPSTTM:              floatOr(r.DilutedEPSTTM),
			QuarterlyEarningsGrowthYOY: floatOr(r.QuarterlyEarningsGrowthYOY),
			QuarterlyRevenueGrowthYOY:  floatOr(r.QuarterlyRevenueGrowthYOY),
			AnalystTargetPrice:         floatOr(r.AnalystTargetPrice),
			TrailingPE:                 floatOr(r.TrailingPE),
			ForwardPE:                  floatOr(r.ForwardPE),
			PriceToSalesRatioTTM:       floatOr(r.PriceToSalesRatioTTM),
			PriceToBookRatio:           floatOr(r.PriceToBookRatio),
			EVToRevenue:                floatOr(r.EVToRevenue),
			EVToEBITDA:                 floatOr(r.EVToEBITDA),
			Beta:                       floatOr(r.Beta),
			WeekHigh52:                 floatOr(r.WeekHigh52),
			WeekLow52:                  floatOr(r.WeekLow52),
			MovingAverage50Day:         floatOr(r.MovingAverage50Day),
			MovingAverage200Day:        floatOr(r.MovingAverage200Day),
			SharesOutstanding:          intOr(r.SharesOutstanding),
			DividendDate:               dateOr(r.DividendDate),
			ExDividendDate:             dateOr(r.ExDividendDate),
		},
	}, nil
}

// ParseIntraday parses TIME_SERIES_INTRADAY and CRYPTO_INTRADAY csv into ticks
// sorted by ascending timestamp.
func ParseIntraday(symbol string, payload []byte) ([]models.IntradayTick, int, error) {
	const op = "parse intraday"
	if !csvHasMarker(payload, MarkerIntraday) {
		return nil, 0, noData(op, payload, MarkerIntraday)
	}
	col, records, err := csvRecords(op, payload)
	if err != nil {
		return nil, 0, err
	}

	var ticks []models.IntradayTick
	dropped := 0
	for _, r := range records {
		if r == nil {
			dropped++
			continue
		}
		tick, err := intradayRow(symbol, col, r)
		if err != nil {
			dropped++
			continue
		}
		ticks = append(ticks, tick)
	}
	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].Timestamp.Before(ticks[j].Timestamp)
	})
	return ticks, dropped, nil
}

func intradayRow(symbol string, col map[string]int, r []string) (models.IntradayTick, error) {
	ts, err := time.Parse(timestampLayout, strings.TrimSpace(r[col["timestamp"]]))
	if err != nil {
		return models.IntradayTick{}, err
	}
	tick := models.IntradayTick{Symbol: symbol, Timestamp: ts}
	if tick.Open, err = price(r[col["open"]]); err != nil {
		return tick, err
	}
	if tick.High, err = price(r[col["high"]]); err != nil {
		return tick, err
	}
	if tick.Low, err = price(r[col["low"]]); err != nil {
		return tick, err
	}
	if tick.Close, err = price(r[col["close"]]); err != nil {
		return tick, err
	}
	if tick.Volume, err = volume(r[col["volume"]]); err != nil {
		return tick, err
	}
	return tick, nil
}

// ParseDaily parses TIME_SERIES_DAILY json into bars sorted by ascending date.
func ParseDaily(symbol string, payload []byte) ([]models.DailyBar, int, error) {
	const op = "parse daily"
	if !jsonHasMarker(payload, MarkerDaily) {
		return nil, 0, noData(op, payload, MarkerDaily)
	}
	var r DailyResponse
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, 0, syncerr.Parsef(op, "failed to decode response: %v", err)
	}
	if r.TimeSeries == nil {
		return nil, 0, syncerr.Parsef(op, "missing Time Series (Daily)")
	}

	bars := make([]models.DailyBar, 0, len(r.TimeSeries))
	dropped := 0
	for dateStr, entry := range r.TimeSeries {
		bar, err := dailyRow(symbol, dateStr, entry)
		if err != nil {
			dropped++
			continue
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars, dropped, nil
}

func dailyRow(symbol, dateStr string, e DailyPriceEntry) (models.DailyBar, error) {
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return models.DailyBar{}, err
	}
	bar := models.DailyBar{Symbol: symbol, Date: date}
	if bar.Open, err = price(e.Open); err != nil {
		return bar, err
	}
	if bar.High, err = price(e.High); err != nil {
		return bar, err
	}
	if bar.Low, err = price(e.Low); err != nil {
		return bar, err
	}
	if bar.Close, err = price(e.Close); err != nil {
		return bar, err
	}
	if bar.Volume, err = volume(e.Volume); err != nil {
		return bar, err
	}
	return bar, nil
}

// ParseTopMovers parses TOP_GAINERS_LOSERS json. Every row carries the
// snapshot's last_updated time; SIDs are resolved later.
func ParseTopMovers(payload []byte) ([]models.TopStat, int, error) {
	const op = "parse top_movers"
	if !jsonHasMarker(payload, MarkerTopMovers) {
		return nil, 0, noData(op, payload, MarkerTopMovers)
	}
	var r TopMoversResponse
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, 0, syncerr.Parsef(op, "failed to decode response: %v", err)
	}
	updated, err := parseLastUpdated(r.LastUpdated)
	if err != nil {
		return nil, 0, syncerr.Parsef(op, "bad last_updated %q: %v", r.LastUpdated, err)
	}

	var stats []models.TopStat
	dropped := 0
	for _, group := range []struct {
		event   string
		entries []TopEntry
	}{
		{models.TopGainer, r.TopGainers},
		{models.TopLoser, r.TopLosers},
		{models.TopMostActive, r.MostActivelyTraded},
	} {
		for _, e := range group.entries {
			stat, err := topRow(updated, group.event, e)
			if err != nil {
				dropped++
				continue
			}
			stats = append(stats, stat)
		}
	}
	return stats, dropped, nil
}

// parseLastUpdated drops the trailing zone name of "2023-10-03 16:15:59 US/Eastern".
func parseLastUpdated(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, ' '); i > 0 && strings.Count(s, " ") >= 2 {
		s = s[:i]
	}
	return time.Parse(timestampLayout, s)
}

func topRow(at time.Time, event string, e TopEntry) (models.TopStat, error) {
	if strings.TrimSpace(e.Ticker) == "" {
		return models.TopStat{}, fmt.Errorf("empty ticker")
	}
	stat := models.TopStat{Date: at, EventType: event, Symbol: strings.TrimSpace(e.Ticker)}
	var err error
	if stat.Price, err = price(e.Price); err != nil {
		return stat, err
	}
	if stat.ChangeVal, err = price(e.ChangeAmount); err != nil {
		return stat, err
	}
	if stat.ChangePct, err = price(strings.TrimSuffix(strings.TrimSpace(e.ChangePercentage), "%")); err != nil {
		return stat, err
	}
	if stat.Volume, err = volume(e.Volume); err != nil {
		return stat, err
	}
	return stat, nil
}

// ParseNews parses NEWS_SENTIMENT json, keeping the feed in provider order.
// Unparseable publish times become MissingDate rather than dropping the article.
func ParseNews(payload []byte) (models.NewsSnapshot, error) {
	const op = "parse news"
	if !jsonHasMarker(payload, MarkerNews) {
		return models.NewsSnapshot{}, noData(op, payload, MarkerNews)
	}
	var r NewsResponse
	if err := json.Unmarshal(payload, &r); err != nil {
		return models.NewsSnapshot{}, syncerr.Parsef(op, "failed to decode response: %v", err)
	}

	items, err := strconv.Atoi(strings.TrimSpace(r.Items))
	if err != nil {
		items = len(r.Feed)
	}
	snap := models.NewsSnapshot{
		Items:                    items,
		SentimentScoreDefinition: r.SentimentScoreDefinition,
		RelevanceScoreDefinition: r.RelevanceScoreDefinition,
		Feed:                     make([]models.Article, 0, len(r.Feed)),
	}
	for _, f := range r.Feed {
		published, err := time.Parse(newsTimeLayout, f.TimePublished)
		if err != nil {
			published = MissingDate
		}
		a := models.Article{
			Title:                 f.Title,
			URL:                   f.URL,
			TimePublished:         published,
			Authors:               f.Authors,
			Summary:               f.Summary,
			BannerImage:           f.BannerImage,
			Source:                f.Source,
			CategoryWithinSource:  f.CategoryWithinSource,
			SourceDomain:          f.SourceDomain,
			OverallSentimentScore: f.OverallSentimentScore,
			OverallSentimentLabel: f.OverallSentimentLabel,
		}
		for _, t := range f.Topics {
			a.Topics = append(a.Topics, models.TopicRelevance{
				Topic:          t.Topic,
				RelevanceScore: floatOr(t.RelevanceScore),
			})
		}
		for _, ts := range f.TickerSentiment {
			a.TickerSentiment = append(a.TickerSentiment, models.TickerSentiment{
				Ticker:         ts.Ticker,
				RelevanceScore: floatOr(ts.RelevanceScore),
				SentimentScore: floatOr(ts.TickerSentimentScore),
				SentimentLabel: ts.TickerSentimentLabel,
			})
		}
		snap.Feed = append(snap.Feed, a)
	}
	return snap, nil
}
