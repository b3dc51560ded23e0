package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/marketsync/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunRepository records run lifecycles in proc_runs.
type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// StartRun writes the ledger row for a run that is about to begin.
func (r *RunRepository) StartRun(ctx context.Context, res *models.SyncResult) error {
	id, err := uuid.Parse(res.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", res.RunID, err)
	}
	query := `
		INSERT INTO proc_runs (run_id, kind, state, items, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.pool.Exec(ctx, query, id, string(res.Kind), string(models.StateRunning), res.Items, res.Started); err != nil {
		return Classify("start run", fmt.Errorf("failed to record run start: %w", err))
	}
	return nil
}

// FinishRun stores the final counts and state of a run.
func (r *RunRepository) FinishRun(ctx context.Context, res *models.SyncResult) error {
	id, err := uuid.Parse(res.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", res.RunID, err)
	}
	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}
	query := `
		UPDATE proc_runs
		SET state = $2, items = $3, fetched = $4, no_data = $5, created = $6, skipped = $7,
		    failed = $8, error_count = $9, errors = $10, finished_at = $11
		WHERE run_id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, string(res.State), res.Items, res.Fetched, res.NoData,
		res.Created, res.Skipped, res.Failed, res.ErrorCount, errs, res.Finished)
	if err != nil {
		return Classify("finish run", fmt.Errorf("failed to record run end: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetRun reads a run back from the ledger.
func (r *RunRepository) GetRun(ctx context.Context, runID string) (*models.SyncResult, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, ErrRunNotFound
	}
	query := `
		SELECT run_id, kind, state, items, fetched, no_data, created, skipped, failed,
		       error_count, errors, started_at, finished_at
		FROM proc_runs
		WHERE run_id = $1
	`
	var (
		rid   uuid.UUID
		kind  string
		state string
	)
	res := &models.SyncResult{}
	err = r.pool.QueryRow(ctx, query, id).Scan(
		&rid, &kind, &state, &res.Items, &res.Fetched, &res.NoData, &res.Created, &res.Skipped,
		&res.Failed, &res.ErrorCount, &res.Errors, &res.Started, &res.Finished,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	res.RunID = rid.String()
	res.Kind = models.SyncKind(kind)
	res.State = models.RunState(state)
	if res.Finished != nil {
		res.DurationMs = res.Finished.Sub(res.Started).Milliseconds()
	}
	return res, nil
}
