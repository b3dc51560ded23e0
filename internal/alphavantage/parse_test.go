package alphavantage

import (
	"testing"
	"time"

	"github.com/epeers/marketsync/internal/models"
	"github.com/epeers/marketsync/internal/syncerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const throttleNote = `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`

func TestMissingMarkerIsNoData(t *testing.T) {
	payload := []byte(throttleNote)

	_, _, err := ParseSymbolSearch(payload)
	assert.True(t, syncerr.Is(err, syncerr.NoData), "symbol search: %v", err)
	_, err = ParseOverview(payload)
	assert.True(t, syncerr.Is(err, syncerr.NoData), "overview: %v", err)
	_, _, err = ParseIntraday("AAPL", payload)
	assert.True(t, syncerr.Is(err, syncerr.NoData), "intraday: %v", err)
	_, _, err = ParseDaily("AAPL", payload)
	assert.True(t, syncerr.Is(err, syncerr.NoData), "daily: %v", err)
	_, _, err = ParseTopMovers(payload)
	assert.True(t, syncerr.Is(err, syncerr.NoData), "top movers: %v", err)
	_, err = ParseNews(payload)
	assert.True(t, syncerr.Is(err, syncerr.NoData), "news: %v", err)

	assert.Contains(t, err.Error(), "5 calls per minute")
}

func TestParseSymbolSearch(t *testing.T) {
	payload := []byte("symbol,name,type,region,marketOpen,marketClose,timezone,currency,matchScore\r\n" +
		"AAPL,Apple Inc,Equity,United States,09:30,16:00,UTC-04,USD,1.0000\r\n" +
		"AAPL.TRT,Apple CDR,Equity,Toronto,09:30,16:00,UTC-05,CAD,0.6154\r\n" +
		",,,,,,,,\r\n" +
		"BAD,short\r\n")

	matches, dropped, err := ParseSymbolSearch(payload)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	require.Len(t, matches, 2)
	assert.Equal(t, SymbolMatch{
		Symbol:      "AAPL",
		Name:        "Apple Inc",
		Type:        "Equity",
		Region:      "United States",
		MarketOpen:  "09:30",
		MarketClose: "16:00",
		Timezone:    "UTC-04",
		Currency:    "USD",
		MatchScore:  1.0,
	}, matches[0])
	assert.Equal(t, "CAD", matches[1].Currency)
}

func TestParseOverview_Sentinels(t *testing.T) {
	payload := []byte(`{
		"Symbol": "IBM", "Name": "International Business Machines", "Description": "",
		"CIK": "51143", "Exchange": "NYSE", "Currency": "USD", "Country": "USA",
		"LatestQuarter": "2024-03-31", "MarketCapitalization": "175000000000",
		"EBITDA": "None", "PERatio": "21.5", "PEGRatio": "-", "EPS": "8.14",
		"52WeekHigh": "199.18", "SharesOutstanding": "918000000",
		"DividendDate": "None", "ExDividendDate": "2024-05-09"
	}`)

	ov, err := ParseOverview(payload)
	require.NoError(t, err)
	assert.Equal(t, "IBM", ov.Symbol)
	assert.Equal(t, MissingString, ov.Description)
	assert.Equal(t, MissingString, ov.Sector)
	assert.Equal(t, int64(175000000000), ov.MarketCapitalization)
	assert.Equal(t, MissingInt, ov.EBITDA)
	assert.Equal(t, 21.5, ov.PERatio)
	assert.Equal(t, MissingFloat, ov.PEGRatio)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), ov.LatestQuarter)
	assert.Equal(t, 199.18, ov.Ext.WeekHigh52)
	assert.Equal(t, MissingFloat, ov.Ext.Beta)
	assert.Equal(t, int64(918000000), ov.Ext.SharesOutstanding)
	assert.Equal(t, MissingDate, ov.Ext.DividendDate)
	assert.Equal(t, time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC), ov.Ext.ExDividendDate)
}

func TestParseOverview_BadJSONIsParseError(t *testing.T) {
	_, err := ParseOverview([]byte(`{"Symbol": "IBM", `))
	assert.True(t, syncerr.Is(err, syncerr.Parse), "got %v", err)
}

func TestParseIntraday_SortsAndDrops(t *testing.T) {
	payload := []byte("timestamp,open,high,low,close,volume\n" +
		"2024-01-02 09:32:00,185.10,185.20,185.00,185.15,1200\n" +
		"2024-01-02 09:31:00,185.00,185.30,184.90,185.10,900\n" +
		"not-a-time,1,1,1,1,1\n" +
		"2024-01-02 09:33:00,abc,1,1,1,1\n")

	ticks, dropped, err := ParseIntraday("AAPL", payload)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	require.Len(t, ticks, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 31, 0, 0, time.UTC), ticks[0].Timestamp)
	assert.Equal(t, "185.15", ticks[1].Close.String())
	assert.Equal(t, int64(1200), ticks[1].Volume)
	assert.Equal(t, "AAPL", ticks[0].Symbol)
}

func TestParseDaily(t *testing.T) {
	payload := []byte(`{
		"Meta Data": {"2. Symbol": "IBM"},
		"Time Series (Daily)": {
			"2024-01-03": {"1. open": "160.0", "2. high": "161.5", "3. low": "159.1", "4. close": "160.9", "5. volume": "4000000"},
			"2024-01-02": {"1. open": "158.0", "2. high": "160.1", "3. low": "157.9", "4. close": "159.9", "5. volume": "3500000"},
			"2024-01-04": {"1. open": "bad", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}
		}
	}`)

	bars, dropped, err := ParseDaily("IBM", payload)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Date.Before(bars[1].Date))
	assert.Equal(t, "159.9", bars[0].Close.String())
}

func TestParseTopMovers(t *testing.T) {
	payload := []byte(`{
		"metadata": "Top gainers, losers, and most actively traded US tickers",
		"last_updated": "2023-10-03 16:15:59 US/Eastern",
		"top_gainers": [{"ticker": "ABC", "price": "1.23", "change_amount": "0.5", "change_percentage": "68.49%", "volume": "1000"}],
		"top_losers": [{"ticker": "XYZ", "price": "2.00", "change_amount": "-1.0", "change_percentage": "-33.3%", "volume": "500"}],
		"most_actively_traded": [
			{"ticker": "TSLA", "price": "246.53", "change_amount": "-5.07", "change_percentage": "-2.01%", "volume": "101985305"},
			{"ticker": "", "price": "1", "change_amount": "1", "change_percentage": "1%", "volume": "1"}
		]
	}`)

	stats, dropped, err := ParseTopMovers(payload)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	require.Len(t, stats, 3)

	want := time.Date(2023, 10, 3, 16, 15, 59, 0, time.UTC)
	for _, s := range stats {
		assert.Equal(t, want, s.Date)
	}
	assert.Equal(t, models.TopGainer, stats[0].EventType)
	assert.Equal(t, "68.49", stats[0].ChangePct.String())
	assert.Equal(t, models.TopLoser, stats[1].EventType)
	assert.Equal(t, models.TopMostActive, stats[2].EventType)
	assert.Equal(t, int64(101985305), stats[2].Volume)
}

func TestParseLastUpdated_NoZone(t *testing.T) {
	got, err := parseLastUpdated("2023-10-03 16:15:59")
	require.NoError(t, err)
	assert.Equal(t, 59, got.Second())
}

func TestParseNews(t *testing.T) {
	payload := []byte(`{
		"items": "2",
		"sentiment_score_definition": "x <= -0.35: Bearish",
		"relevance_score_definition": "0 < x <= 1",
		"feed": [
			{
				"title": "Apple beats", "url": "https://example.com/1", "time_published": "20240501T133000",
				"authors": ["A. Writer"], "summary": "s", "banner_image": null, "source": "Benzinga",
				"category_within_source": "News", "source_domain": "www.benzinga.com",
				"topics": [{"topic": "Technology", "relevance_score": "1.0"}],
				"overall_sentiment_score": 0.31, "overall_sentiment_label": "Somewhat-Bullish",
				"ticker_sentiment": [{"ticker": "AAPL", "relevance_score": "0.9", "ticker_sentiment_score": "0.4", "ticker_sentiment_label": "Bullish"}]
			},
			{
				"title": "Other", "url": "https://example.com/2", "time_published": "garbage",
				"authors": [], "summary": "", "banner_image": "https://img", "source": "Reuters",
				"category_within_source": "n/a", "source_domain": "reuters.com",
				"topics": [], "overall_sentiment_score": 0, "overall_sentiment_label": "Neutral",
				"ticker_sentiment": []
			}
		]
	}`)

	snap, err := ParseNews(payload)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Items)
	require.Len(t, snap.Feed, 2)

	first := snap.Feed[0]
	assert.Equal(t, time.Date(2024, 5, 1, 13, 30, 0, 0, time.UTC), first.TimePublished)
	assert.Nil(t, first.BannerImage)
	assert.Equal(t, 1.0, first.Topics[0].RelevanceScore)
	assert.Equal(t, 0.4, first.TickerSentiment[0].SentimentScore)

	second := snap.Feed[1]
	assert.Equal(t, MissingDate, second.TimePublished)
	require.NotNil(t, second.BannerImage)
	assert.Equal(t, "https://img", *second.BannerImage)
}
