package services

import (
	"time"

	"github.com/epeers/marketsync/internal/cache"
	"github.com/epeers/marketsync/internal/gate"
	"github.com/epeers/marketsync/internal/metrics"
	"github.com/epeers/marketsync/internal/models"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Kind names an entity sync.
type Kind = models.SyncKind

// RunContext is the state owned by a single run. It is created per run and
// passed to every adapter call; nothing in it is shared between runs.
type RunContext struct {
	RunID    string
	Kind     Kind
	Started  time.Time
	Registry *cache.Registry
	Gate     *gate.Gate
	Metrics  *metrics.Metrics
	Log      *log.Entry
}

// NewRunContext creates a fresh run with its own registry and gate. A nil m
// gets a private registry so callers that do not export metrics need no
// setup.
func NewRunContext(kind Kind, m *metrics.Metrics, gateOpts ...gate.Option) *RunContext {
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	runID := uuid.NewString()
	return &RunContext{
		RunID:    runID,
		Kind:     kind,
		Started:  time.Now().UTC(),
		Registry: cache.NewRegistry(),
		Gate:     gate.New(gateOpts...),
		Metrics:  m,
		Log: log.WithFields(log.Fields{
			"run_id": runID,
			"kind":   string(kind),
		}),
	}
}

// TrackTime logs how long name took since start. Use with defer.
func TrackTime(name string, start time.Time) {
	log.WithField("took_ms", time.Since(start).Milliseconds()).Debugf("%s finished", name)
}
