package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums every series of the named counter family.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		total := 0.0
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RunsTotal.WithLabelValues("intraday", "idle").Inc()
	m.RowsTotal.WithLabelValues("intraday", "created").Add(2)
	m.RowsTotal.WithLabelValues("intraday", "skipped").Inc()

	assert.Equal(t, 1.0, counterValue(t, reg, "marketsync_runs_total"))
	assert.Equal(t, 3.0, counterValue(t, reg, "marketsync_rows_total"))
}

func TestNew_TwoRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
