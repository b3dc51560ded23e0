package secid

import "strings"

var displayNames = map[Category]string{
	Equity:     "Equity",
	Bond:       "Bond",
	Option:     "Option",
	Future:     "Future",
	ETF:        "ETF",
	MutualFund: "Mutual Fund",
	Crypto:     "Crypto",
	FX:         "FX",
	Swap:       "Swap",
	Warrant:    "Warrant",
	ADR:        "ADR",
	Preferred:  "Preferred",
	Other:      "Other",
}

// String returns the display name, which is also the stored sec_type value.
func (c Category) String() string {
	if s, ok := displayNames[c]; ok {
		return s
	}
	return "Other"
}

// descriptions maps provider and exchange-file wording to a category.
// Order matters for substring matching: earlier entries win.
var descriptions = []struct {
	pattern  string
	category Category
}{
	{"equity", Equity},
	{"common stock", Equity},
	{"ordinary shares", Equity},
	{"common shares", Equity},
	{"option", Option},
	{"future", Future},
	{"warrant", Warrant},
	{"wt", Warrant},
	{"wrnt", Warrant},
	{"mutual fund", MutualFund},
	{"american depositary shares", ADR},
	{"adr", ADR},
	{"depositary sh", ADR},
	{"dep shs", ADR},
	{"bond", Bond},
	{"subordinated debentures", Bond},
	{"senior notes", Bond},
	{"floating rate", Bond},
	{"notes", Bond},
	{"preferred", Preferred},
	{"pfd", Preferred},
	{"etf", ETF},
	{"etn", ETF},
	{"exchange traded note", ETF},
	{"lp common units representing limited partner interests", MutualFund},
	{"common units representing limited partner interests", MutualFund},
	{"crypto", Crypto},
	{"digital currency", Crypto},
	{"currency", FX},
	{"swap", Swap},
}

// ParseCategory maps a free-form description to a category: exact display
// names first, then substring patterns, then Other.
func ParseCategory(s string) Category {
	lower := strings.ToLower(strings.TrimSpace(s))
	for c, name := range displayNames {
		if strings.ToLower(name) == lower {
			return c
		}
	}
	for _, d := range descriptions {
		if lower == d.pattern {
			return d.category
		}
	}
	for _, d := range descriptions {
		if strings.Contains(lower, d.pattern) {
			return d.category
		}
	}
	return Other
}

// Classify derives the category of a symbol search match from the provider's
// type column, letting the instrument name override it (an "Equity" typed
// row named "... ADR" is an ADR).
func Classify(providerType, name string) Category {
	var c Category
	switch strings.ToLower(strings.TrimSpace(providerType)) {
	case "equity":
		c = Equity
	case "etf":
		c = ETF
	case "mutual fund":
		c = MutualFund
	default:
		c = Other
	}

	lowerName := strings.ToLower(name)
	switch {
	case strings.Contains(lowerName, "adr"):
		c = ADR
	case strings.Contains(lowerName, "warrant"), strings.Contains(lowerName, "wrnt"):
		c = Warrant
	case strings.Contains(lowerName, "pfd"), strings.Contains(lowerName, "preferred"):
		c = Preferred
	}
	return c
}

var regions = map[string]string{
	"United States":    "USA",
	"United Kingdom":   "UK",
	"Frankfurt":        "Frank",
	"Toronto Venture":  "TOR",
	"India/Bombay":     "Bomb",
	"Brazil/Sao Paolo": "SaoP",
}

// NormalizeRegion shortens the provider's region names to the stored form.
func NormalizeRegion(region string) string {
	if r, ok := regions[region]; ok {
		return r
	}
	return region
}
