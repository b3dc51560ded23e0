package services

import (
	"context"
	"fmt"
	"time"

	"github.com/epeers/marketsync/internal/models"
	"github.com/epeers/marketsync/internal/syncerr"
	log "github.com/sirupsen/logrus"
)

// Adapter binds one entity kind to the generic sync loop. I is the work item
// (a keyword, a symbol) and R the parsed row type.
type Adapter[I, R any] interface {
	Kind() Kind
	Label(item I) string
	Fetch(ctx context.Context, item I) ([]byte, error)
	Parse(item I, payload []byte) ([]R, error)
	Filter(ctx context.Context, rc *RunContext, item I, rows []R) (kept []R, skipped int, err error)
	Persist(ctx context.Context, rc *RunContext, item I, row R) error
}

// Preparer is implemented by adapters that load per-item state, such as a
// watermark, before the request. Returning false skips the item without
// contacting the provider.
type Preparer[I any] interface {
	Prepare(ctx context.Context, rc *RunContext, item I) (bool, error)
}

// localSource marks adapters whose Fetch reads no remote data. The gate is
// bypassed for them.
type localSource interface {
	local()
}

type dropReporter interface {
	takeDropped() int
}

// dropCounter is embedded by adapters whose parsers discard malformed rows.
type dropCounter struct {
	n int
}

func (d *dropCounter) drop(n int) {
	d.n += n
}

func (d *dropCounter) takeDropped() int {
	n := d.n
	d.n = 0
	return n
}

// Run drives items through request, parse, filter and persist, one at a
// time. Per-item failures are counted and the batch continues; a circuit-open
// gate, a store-fatal error or cancellation of ctx aborts the run. The
// returned result is always non-nil.
func Run[I, R any](ctx context.Context, rc *RunContext, a Adapter[I, R], items []I) (*models.SyncResult, error) {
	defer TrackTime("Run "+string(a.Kind()), time.Now())

	ctx, wc := NewWarningContext(ctx)
	r := &runner[I, R]{
		rc: rc,
		a:  a,
		res: &models.SyncResult{
			RunID:   rc.RunID,
			Kind:    a.Kind(),
			State:   models.StateIdle,
			Items:   len(items),
			Started: rc.Started,
		},
	}

	var runErr error
	visited := 0
	for _, item := range items {
		if runErr = r.item(ctx, item); runErr != nil {
			break
		}
		visited++
	}

	res := r.res
	finished := time.Now().UTC()
	res.Finished = &finished
	res.DurationMs = finished.Sub(res.Started).Milliseconds()
	res.ErrorCount = rc.Gate.ErrorCount()
	res.Warnings = wc.GetWarnings()
	rc.Metrics.GateErrors.WithLabelValues(string(res.Kind)).Set(float64(res.ErrorCount))

	if runErr != nil {
		r.transition(rc.Log, models.StateAborted)
		res.Errors = append(res.Errors, runErr.Error())
		rc.Log.WithError(runErr).Errorf("Run aborted after %d of %d items", visited, len(items))
		return res, runErr
	}
	rc.Log.Infof("Run finished: items=%d fetched=%d no_data=%d created=%d skipped=%d failed=%d",
		res.Items, res.Fetched, res.NoData, res.Created, res.Skipped, res.Failed)
	return res, nil
}

type runner[I, R any] struct {
	rc  *RunContext
	a   Adapter[I, R]
	res *models.SyncResult
}

func (r *runner[I, R]) transition(logger *log.Entry, next models.RunState) {
	if r.res.State != next {
		logger.Debugf("state %s -> %s", r.res.State, next)
	}
	r.res.State = next
}

func (r *runner[I, R]) item(ctx context.Context, item I) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kind := string(r.a.Kind())
	label := r.a.Label(item)
	logger := r.rc.Log.WithField("item", label)
	defer r.transition(logger, models.StateIdle)

	if p, ok := any(r.a).(Preparer[I]); ok {
		proceed, err := p.Prepare(ctx, r.rc, item)
		if err != nil {
			return r.itemFailed(ctx, logger, label, err, false)
		}
		if !proceed {
			r.res.Skipped++
			r.rc.Metrics.ItemsTotal.WithLabelValues(kind, "skipped").Inc()
			return nil
		}
	}

	r.transition(logger, models.StateRequesting)
	payload, err := r.fetch(ctx, item)
	if err != nil {
		return r.itemFailed(ctx, logger, label, err, true)
	}
	r.res.Fetched++
	r.rc.Metrics.ItemsTotal.WithLabelValues(kind, "fetched").Inc()

	r.transition(logger, models.StateParsing)
	rows, err := r.a.Parse(item, payload)
	if d, ok := any(r.a).(dropReporter); ok {
		if n := d.takeDropped(); n > 0 {
			logger.Warnf("Dropped %d malformed rows", n)
			addWarningf(ctx, models.WarnRowDropped, "%s %s: dropped %d malformed rows", kind, label, n)
		}
	}
	if syncerr.Is(err, syncerr.NoData) {
		r.res.NoData++
		r.rc.Metrics.ItemsTotal.WithLabelValues(kind, "no_data").Inc()
		logger.Infof("No data: %v", err)
		addWarningf(ctx, models.WarnNoData, "%s %s: %v", kind, label, err)
		return nil
	}
	if err != nil {
		return r.itemFailed(ctx, logger, label, err, true)
	}

	r.transition(logger, models.StateFiltering)
	kept, skipped, err := r.a.Filter(ctx, r.rc, item, rows)
	if err != nil {
		return r.itemFailed(ctx, logger, label, err, false)
	}
	r.res.Skipped += skipped
	r.rc.Metrics.RowsTotal.WithLabelValues(kind, "skipped").Add(float64(skipped))

	r.transition(logger, models.StatePersisting)
	for _, row := range kept {
		err := r.a.Persist(ctx, r.rc, item, row)
		switch {
		case err == nil:
			r.res.Created++
			r.rc.Metrics.RowsTotal.WithLabelValues(kind, "created").Inc()
		case syncerr.IsFatal(err):
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		case syncerr.Is(err, syncerr.Duplicate):
			r.res.Skipped++
			r.rc.Metrics.RowsTotal.WithLabelValues(kind, "skipped").Inc()
		default:
			r.res.Failed++
			r.res.Errors = append(r.res.Errors, fmt.Sprintf("%s %s: %v", kind, label, err))
			r.rc.Metrics.RowsTotal.WithLabelValues(kind, "failed").Inc()
			logger.Warnf("Row not stored: %v", err)
			addWarningf(ctx, models.WarnRowSkipped, "%s %s: %v", kind, label, err)
		}
	}
	return nil
}

// fetch performs the request through the gate.
func (r *runner[I, R]) fetch(ctx context.Context, item I) ([]byte, error) {
	if _, ok := any(r.a).(localSource); ok {
		return r.a.Fetch(ctx, item)
	}
	kind := string(r.a.Kind())
	g := r.rc.Gate

	wait, err := g.Wait(ctx)
	if err != nil {
		return nil, err
	}
	r.rc.Metrics.GateWait.Observe(wait.Seconds())

	start := time.Now()
	payload, err := r.a.Fetch(ctx, item)
	g.MarkRequest()
	r.rc.Metrics.RequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		r.rc.Metrics.RequestsTotal.WithLabelValues(kind, "error").Inc()
		return nil, err
	}
	r.rc.Metrics.RequestsTotal.WithLabelValues(kind, "ok").Inc()
	g.RecordSuccess()
	return payload, nil
}

// itemFailed records a failed item and decides whether the run goes on.
// Request and payload failures count against the gate's error ceiling.
func (r *runner[I, R]) itemFailed(ctx context.Context, logger *log.Entry, label string, err error, countsAgainstGate bool) error {
	if syncerr.IsFatal(err) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	kind := string(r.a.Kind())
	r.res.Failed++
	r.res.Errors = append(r.res.Errors, fmt.Sprintf("%s %s: %v", kind, label, err))
	r.rc.Metrics.ItemsTotal.WithLabelValues(kind, "failed").Inc()
	logger.Warnf("Item failed (%s): %v", syncerr.KindOf(err), err)

	if countsAgainstGate {
		if gateErr := r.rc.Gate.RecordError(); gateErr != nil {
			r.rc.Log.Errorf("Error ceiling of %d reached", r.rc.Gate.Ceiling())
			return gateErr
		}
	}
	return nil
}
