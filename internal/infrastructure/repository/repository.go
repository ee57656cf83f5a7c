// Package repository holds the SQL for every table the dashboard reads or
// writes. Statements target PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"parkwatch/internal/infrastructure/database"
)

// Store is the query service as the repositories use it.
type Store interface {
	database.Executor
	WithTransaction(ctx context.Context, fn func(tx *database.Tx) error) error
}

var _ Store = (*database.DB)(nil)

// where accumulates AND-ed conditions and their numbered placeholders.
type where struct {
	conds []string
	args  []any
}

// arg records v and returns its placeholder.
func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	return &nt.Time
}

func nullInt(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	return &ni.Int64
}

func offset(page, limit int64) int64 {
	return (page - 1) * limit
}
