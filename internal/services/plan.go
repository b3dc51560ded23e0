package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/epeers/marketsync/internal/fingerprint"
	"github.com/epeers/marketsync/internal/listing"
	"github.com/epeers/marketsync/internal/models"
	log "github.com/sirupsen/logrus"
)

// ErrInvalidInput marks a step that cannot be run as given.
var ErrInvalidInput = errors.New("invalid sync input")

// SourceListingStatus selects LISTING_STATUS as the symbol source.
const SourceListingStatus = "listing"

// PlanStep describes one run: its kind and the items to visit.
type PlanStep struct {
	Kind      Kind                 `yaml:"kind" json:"kind"`
	Keywords  []string             `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Source    string               `yaml:"source,omitempty" json:"source,omitempty"`
	File      string               `yaml:"file,omitempty" json:"file,omitempty"`
	Exchange  string               `yaml:"exchange,omitempty" json:"exchange,omitempty"`
	Selection models.SyncSelection `yaml:"selection,omitempty" json:"selection,omitempty"`

	// Entries holds an already parsed listing, e.g. an uploaded file.
	Entries []listing.Entry `yaml:"-" json:"-"`
}

// DefaultPlan is the combined refresh of every data kind for the selected
// symbols, in dependency order. Symbol registration needs explicit input
// and is prepended by the caller.
func DefaultPlan(sel models.SyncSelection) []PlanStep {
	kinds := []Kind{models.SyncOverviews, models.SyncIntraday, models.SyncDaily, models.SyncNews, models.SyncTopMovers}
	steps := make([]PlanStep, 0, len(kinds))
	for _, k := range kinds {
		steps = append(steps, PlanStep{Kind: k, Selection: sel})
	}
	return steps
}

func (p PlanStep) listingEntries(defaultExchange listing.Exchange) ([]listing.Entry, error) {
	if len(p.Entries) > 0 || p.File == "" {
		return p.Entries, nil
	}
	ex := defaultExchange
	if p.Exchange != "" {
		parsed, err := listing.ParseExchange(p.Exchange)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		ex = parsed
	}
	entries, err := listing.ReadFile(p.File, ex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return entries, nil
}

// key identifies steps that would do the same work, so concurrent triggers
// can share one run.
func (p PlanStep) key() string {
	entries := ""
	if len(p.Entries) > 0 {
		entries = fingerprint.Sum([]byte(strings.Join(listing.Symbols(p.Entries), ",")))
	}
	sel := p.Selection
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%s|%s|%d",
		p.Kind, p.Source, p.File, p.Exchange, strings.Join(p.Keywords, ","), entries,
		sel.Region, strings.Join(sel.SecTypes, ","), strings.Join(sel.Symbols, ","), sel.Limit)
}

// Dispatch runs a single step.
func (s *SyncService) Dispatch(ctx context.Context, step PlanStep) (*models.SyncResult, error) {
	switch step.Kind {
	case models.SyncSymbols:
		if step.Source == SourceListingStatus {
			return s.SyncListingStatus(ctx)
		}
		entries, err := step.listingEntries(listing.Nasdaq)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			return s.SyncListedSymbols(ctx, listing.Symbols(entries))
		}
		if len(step.Keywords) == 0 {
			return nil, fmt.Errorf("%w: symbols needs keywords, a listing file or source %q", ErrInvalidInput, SourceListingStatus)
		}
		return s.SyncSymbols(ctx, step.Keywords)
	case models.SyncDigitalSymbols:
		entries, err := step.listingEntries(listing.Digital)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: digital_symbols needs a listing file", ErrInvalidInput)
		}
		return s.SyncDigitalSymbols(ctx, entries)
	case models.SyncOverviews:
		return s.SyncOverviews(ctx, step.Selection)
	case models.SyncIntraday:
		return s.SyncIntraday(ctx, step.Selection)
	case models.SyncDaily:
		return s.SyncDaily(ctx, step.Selection)
	case models.SyncTopMovers:
		return s.SyncTopMovers(ctx)
	case models.SyncNews:
		return s.SyncNews(ctx, step.Selection)
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, step.Kind)
}

// Trigger runs a step on behalf of an API caller. Concurrent identical
// triggers share one run; shared reports whether this caller joined one
// already in flight. The run keeps ctx's values but not its cancellation,
// so a leader that disconnects does not abort the run its followers wait
// on. Only the service lifetime stops it.
func (s *SyncService) Trigger(ctx context.Context, step PlanStep) (*models.SyncResult, bool, error) {
	if err := s.lifetime.Err(); err != nil {
		return nil, false, err
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	stop := context.AfterFunc(s.lifetime, cancel)
	defer stop()

	v, err, shared := s.group.Do(step.key(), func() (any, error) {
		return s.Dispatch(runCtx, step)
	})
	res, _ := v.(*models.SyncResult)
	return res, shared, err
}

// RunPlan executes steps in order and stops at the first step that aborts or
// cannot start. Results of the steps that ran are returned either way.
func (s *SyncService) RunPlan(ctx context.Context, steps []PlanStep) ([]*models.SyncResult, error) {
	defer TrackTime("RunPlan", time.Now())

	results := make([]*models.SyncResult, 0, len(steps))
	for i, step := range steps {
		log.Infof("Plan step %d/%d: %s", i+1, len(steps), step.Kind)
		res, err := s.Dispatch(ctx, step)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, fmt.Errorf("plan step %d (%s): %w", i+1, step.Kind, err)
		}
	}
	return results, nil
}
