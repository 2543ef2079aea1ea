// Package sqlxrepos implements the domain repositories on postgres via sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/storage/database"
)

// execer is what repositories run queries through: either the shared pool or
// a transaction passed down as the exec override.
type execer interface {
	core.DBExecutor

	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
}

var (
	_ execer = (*database.DB)(nil)
	_ execer = (*database.Tx)(nil)
)

func getExec(db *database.DB, svcExec []core.DBExecutor) execer {
	if len(svcExec) > 0 {
		if e, ok := svcExec[0].(execer); ok {
			return e
		}
	}
	return db
}

// trapErr maps store failures to domain errors: "no rows" to notFound, lock
// contention and serialization failures to core.TransientError (retryable).
func trapErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
			return &core.TransientError{Err: err}
		}
	}
	return errors.Wrap(err, msg)
}

// orderBy renders an ORDER BY clause, falling back to def when no ordering
// was requested. Field names come from code, never from user input.
func orderBy(ordering []core.DBOrdering, def string) string {
	if len(ordering) == 0 {
		if def == "" {
			return ""
		}
		return " ORDER BY " + def
	}
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505" && (constraint == "" || pqErr.Constraint == constraint)
}
