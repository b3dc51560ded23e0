package services

import (
	"context"
	"sync"
	"testing"

	"github.com/epeers/marketsync/internal/models"
)

func TestWarningCollector_BasicUsage(t *testing.T) {
	ctx, wc := NewWarningContext(context.Background())

	AddWarning(ctx, models.Warning{Code: models.WarnNoData, Message: "IBM: no data"})
	addWarningf(ctx, models.WarnUnchanged, "news %s: unchanged", "IBM")

	warnings := wc.GetWarnings()
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(warnings))
	}
	if warnings[0].Code != models.WarnNoData {
		t.Errorf("expected code %s, got %s", models.WarnNoData, warnings[0].Code)
	}
	if warnings[1].Message != "news IBM: unchanged" {
		t.Errorf("unexpected formatted message %q", warnings[1].Message)
	}
}

func TestWarningCollector_NoCollectorNoPanic(t *testing.T) {
	AddWarning(context.Background(), models.Warning{Code: models.WarnRowDropped, Message: "dropped"})
}

func TestWarningCollector_ConcurrentSafe(t *testing.T) {
	ctx, wc := NewWarningContext(context.Background())

	var wg sync.WaitGroup
	n := 100
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			AddWarning(ctx, models.Warning{Code: models.WarnRowSkipped, Message: "concurrent warning"})
		}()
	}
	wg.Wait()

	if got := len(wc.GetWarnings()); got != n {
		t.Errorf("expected %d warnings, got %d", n, got)
	}
}

func TestWarningCollector_ChildContext(t *testing.T) {
	ctx, wc := NewWarningContext(context.Background())
	child, cancel := context.WithCancel(ctx)
	defer cancel()

	AddWarning(child, models.Warning{Code: models.WarnUpToDate, Message: "from child"})

	if got := len(wc.GetWarnings()); got != 1 {
		t.Errorf("expected warning from child context to be collected, got %d", got)
	}
}
