package watermark

import "time"

// IsNew reports whether candidate lies strictly after the watermark. A nil
// watermark means the entity has no persisted rows yet, so everything is new.
// A candidate equal to the watermark was already ingested.
func IsNew(candidate time.Time, wm *time.Time) bool {
	if wm == nil {
		return true
	}
	return candidate.After(*wm)
}

// IsNewDate applies the same predicate to calendar dates, ignoring the time of
// day and location of both values.
func IsNewDate(candidate time.Time, wm *time.Time) bool {
	if wm == nil {
		return true
	}
	return dayOf(candidate).After(dayOf(*wm))
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Filter keeps the rows whose instant is new relative to wm, preserving input
// order, and returns how many were dropped as already seen.
func Filter[T any](rows []T, at func(T) time.Time, wm *time.Time, byDate bool) (fresh []T, stale int) {
	isNew := IsNew
	if byDate {
		isNew = IsNewDate
	}
	fresh = make([]T, 0, len(rows))
	for _, row := range rows {
		if isNew(at(row), wm) {
			fresh = append(fresh, row)
			continue
		}
		stale++
	}
	return fresh, stale
}
