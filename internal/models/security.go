package models

import (
	"time"
)

// Security is one row of the symbols table. The SID packs the category and a
// per-category sequence (see secid).
type Security struct {
	SID         int64     `json:"sid"`
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	SecType     string    `json:"sec_type"` // secid.Category display name
	Region      string    `json:"region"`
	MarketOpen  string    `json:"market_open"`  // HH:MM, exchange local
	MarketClose string    `json:"market_close"` // HH:MM, exchange local
	Timezone    string    `json:"timezone"`
	Currency    string    `json:"currency"`
	Overview    bool      `json:"overview"`
	Intraday    bool      `json:"intraday"`
	Summary     bool      `json:"summary"`
	CTime       time.Time `json:"c_time"`
	MTime       time.Time `json:"m_time"`
}

// SymbolRef is the (sid, symbol) pair that most syncs iterate over.
type SymbolRef struct {
	SID    int64  `json:"sid"`
	Symbol string `json:"symbol"`
}

// SymbolFlag names one of the "has data" booleans on a symbol.
type SymbolFlag string

const (
	FlagOverview SymbolFlag = "overview"
	FlagIntraday SymbolFlag = "intraday"
	FlagSummary  SymbolFlag = "summary"
)
