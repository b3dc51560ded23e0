package watermark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsNew_NilWatermark(t *testing.T) {
	assert.True(t, IsNew(time.Time{}, nil))
	assert.True(t, IsNew(time.Now(), nil))
	assert.True(t, IsNewDate(time.Now(), nil))
}

func TestIsNew_IsStrict(t *testing.T) {
	w := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, IsNew(w, &w))
	assert.True(t, IsNew(w.Add(time.Nanosecond), &w))
	assert.True(t, IsNew(w.Add(time.Second), &w))
	assert.False(t, IsNew(w.Add(-time.Second), &w))
}

func TestIsNewDate_IgnoresTimeOfDay(t *testing.T) {
	w := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.False(t, IsNewDate(time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC), &w))
	assert.True(t, IsNewDate(time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), &w))
	assert.False(t, IsNewDate(time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC), &w))
}

func TestFilter_PreservesOrder(t *testing.T) {
	type tick struct {
		at time.Time
		n  int
	}
	w := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []tick{
		{w.Add(3 * time.Minute), 1},
		{w, 2},
		{w.Add(-time.Second), 3},
		{w.Add(time.Minute), 4},
	}

	fresh, stale := Filter(rows, func(r tick) time.Time { return r.at }, &w, false)
	assert.Equal(t, 2, stale)
	if assert.Len(t, fresh, 2) {
		assert.Equal(t, 1, fresh[0].n)
		assert.Equal(t, 4, fresh[1].n)
	}
}

func TestFilter_ByDate(t *testing.T) {
	w := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	days := []time.Time{
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	fresh, stale := Filter(days, func(d time.Time) time.Time { return d }, &w, true)
	assert.Equal(t, []time.Time{days[0]}, fresh)
	assert.Equal(t, 2, stale)
}
