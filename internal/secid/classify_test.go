package secid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name         string
		providerType string
		instrument   string
		expected     Category
	}{
		{"plain equity", "Equity", "Apple Inc", Equity},
		{"etf", "ETF", "SPDR S&P 500 ETF Trust", ETF},
		{"mutual fund", "Mutual Fund", "Vanguard 500 Index Fund", MutualFund},
		{"unknown type", "Index", "S&P 500", Other},
		{"adr override", "Equity", "Taiwan Semiconductor ADR", ADR},
		{"warrant override", "Equity", "Acme Corp Warrant", Warrant},
		{"wrnt override", "Equity", "Acme Corp WRNT", Warrant},
		{"preferred override", "Equity", "Bank Pfd Series A", Preferred},
		{"preferred word", "Equity", "Bank 5% Preferred", Preferred},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.providerType, tc.instrument))
		})
	}
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, Equity, ParseCategory("Common Stock"))
	assert.Equal(t, ADR, ParseCategory("American Depositary Shares"))
	assert.Equal(t, Bond, ParseCategory("5.25% Senior Notes due 2030"))
	assert.Equal(t, MutualFund, ParseCategory("Mutual Fund"))
	assert.Equal(t, Crypto, ParseCategory("crypto"))
	assert.Equal(t, ETF, ParseCategory("ETF"))
	assert.Equal(t, Other, ParseCategory("mystery"))
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "Mutual Fund", MutualFund.String())
	assert.Equal(t, "FX", FX.String())
	assert.Equal(t, "Other", Category(42).String())
}

func TestNormalizeRegion(t *testing.T) {
	assert.Equal(t, "USA", NormalizeRegion("United States"))
	assert.Equal(t, "UK", NormalizeRegion("United Kingdom"))
	assert.Equal(t, "Frank", NormalizeRegion("Frankfurt"))
	assert.Equal(t, "TOR", NormalizeRegion("Toronto Venture"))
	assert.Equal(t, "Bomb", NormalizeRegion("India/Bombay"))
	assert.Equal(t, "SaoP", NormalizeRegion("Brazil/Sao Paolo"))
	assert.Equal(t, "Paris", NormalizeRegion("Paris"))
}
