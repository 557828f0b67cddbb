package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// pgDetail is the driver-neutral subset of a postgres error worth logging.
type pgDetail struct {
	code, constraint, table, column, detail, message string
}

func postgresDetail(err error) (pgDetail, bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgDetail{
			code:       pgxErr.Code,
			constraint: pgxErr.ConstraintName,
			table:      pgxErr.TableName,
			column:     pgxErr.ColumnName,
			detail:     pgxErr.Detail,
			message:    pgxErr.Message,
		}, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pgDetail{
			code:       string(pqErr.Code),
			constraint: pqErr.Constraint,
			table:      pqErr.Table,
			column:     pqErr.Column,
			detail:     pqErr.Detail,
			message:    pqErr.Message,
		}, true
	}
	return pgDetail{}, false
}

// Chain lists every error in err's unwrap chain as "<type>: <text>".
func Chain(err error) []string {
	var out []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		out = append(out, fmt.Sprintf("%T: %v", e, e))
	}
	return out
}

// LogFields flattens err into structured log fields. Empty postgres
// attributes are omitted.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}

	fields := map[string]any{
		"error":       err.Error(),
		"error_code":  string(As(err).Code()),
		"error_chain": Chain(err),
	}

	pg, ok := postgresDetail(err)
	if !ok {
		return fields
	}
	for key, value := range map[string]string{
		"pg_code":       pg.code,
		"pg_constraint": pg.constraint,
		"pg_table":      pg.table,
		"pg_column":     pg.column,
		"pg_detail":     pg.detail,
		"pg_message":    pg.message,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
