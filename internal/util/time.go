package util

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// MarketLocation returns America/New_York, falling back to UTC when the
// tz database is unavailable.
func MarketLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		log.Errorf("Failed to load location 'America/New_York': %v. Falling back to UTC.", err)
		return time.UTC
	}
	return loc
}

// NextMarketDate predicts the date of the next stock market update.
// It handles timezone conversion, business day logic.
// It returns the next valid market date (a weekday) at 4:30 PM New York time, in UTC.
func NextMarketDate(input time.Time) time.Time {
	loc := MarketLocation()
	nowET := input.In(loc)

	// Start with today at 4:30 PM ET
	next := time.Date(nowET.Year(), nowET.Month(), nowET.Day(), 16, 30, 0, 0, loc)

	// If it's already past 4:30 PM, move to the next day
	if nowET.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	// Skip weekends to find the next business day
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}

	return next.UTC()
}

// NextBarAfter returns when the daily bar following the given bar date is
// expected to be published. Bar dates are calendar dates with no zone.
func NextBarAfter(barDate time.Time) time.Time {
	loc := MarketLocation()
	endOfBarDay := time.Date(barDate.Year(), barDate.Month(), barDate.Day(), 23, 59, 0, 0, loc)
	return NextMarketDate(endOfBarDay)
}

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
