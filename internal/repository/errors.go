package repository

import (
	"context"
	"errors"
	"net"

	"github.com/epeers/marketsync/internal/syncerr"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrRunNotFound    = errors.New("run not found")
)

const uniqueViolation = "23505"

// fatalClasses are SQLSTATE classes after which no further row can succeed:
// connection exceptions, invalid catalog, syntax/undefined objects,
// operator intervention and insufficient resources.
var fatalClasses = map[string]bool{
	"08": true,
	"3D": true,
	"42": true,
	"57": true,
	"53": true,
}

// Classify maps a store error onto the sync error taxonomy. Errors that are
// already classified pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if syncerr.KindOf(err) != syncerr.Unknown {
		return err
	}
	return syncerr.New(classifyKind(err), op, err)
}

func classifyKind(err error) syncerr.Kind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolation {
			return syncerr.Duplicate
		}
		if len(pgErr.Code) >= 2 && fatalClasses[pgErr.Code[:2]] {
			return syncerr.StoreFatal
		}
		return syncerr.Store
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connErr),
		errors.As(err, &netErr),
		pgconn.Timeout(err),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return syncerr.StoreFatal
	}
	return syncerr.Store
}
