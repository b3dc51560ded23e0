package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntradayTick is one 1-minute bar from the intraday endpoints.
type IntradayTick struct {
	SID       int64           `json:"sid"`
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"tstamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
}

// DailyBar is one end-of-day bar (summaryprices).
type DailyBar struct {
	SID    int64           `json:"sid"`
	Symbol string          `json:"symbol"`
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// TopStat is one entry of the daily gainers/losers/most-active snapshot.
type TopStat struct {
	Date      time.Time       `json:"date"`
	EventType string          `json:"event_type"` // GAIN, LOSE or ACTV
	SID       int64           `json:"sid"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	ChangeVal decimal.Decimal `json:"change_val"`
	ChangePct decimal.Decimal `json:"change_pct"`
	Volume    int64           `json:"volume"`
}

const (
	TopGainer     = "GAIN"
	TopLoser      = "LOSE"
	TopMostActive = "ACTV"
)
