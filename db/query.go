package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tours/entity"
)

// conditions collects WHERE clauses written with ? placeholders.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(clause string, args ...any) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, args...)
}

func (c *conditions) addIf(ok bool, clause string, args ...any) {
	if ok {
		c.add(clause, args...)
	}
}

func (c conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// paged runs a count and a page query over the same conditions.
func paged[T any](ctx context.Context, q sqlx.QueryerContext, columns, from string, c conditions, orderBy string, page entity.Page) ([]T, int, error) {
	var total int
	countQuery := sqlx.Rebind(sqlx.DOLLAR, "SELECT COUNT(*) FROM "+from+c.where())
	if err := sqlx.GetContext(ctx, q, &total, countQuery, c.args...); err != nil {
		return nil, 0, fmt.Errorf("counting rows: %w", err)
	}

	items := []T{}
	selectQuery := sqlx.Rebind(sqlx.DOLLAR, fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT ? OFFSET ?",
		columns, from, c.where(), orderBy))
	args := append(append([]any{}, c.args...), page.Limit, page.Offset())
	if err := sqlx.SelectContext(ctx, q, &items, selectQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("selecting rows: %w", err)
	}

	return items, total, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, entity.ErrNotFound)
	}
	return fmt.Errorf("getting %s: %w", what, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

func checkAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, entity.ErrNotFound)
	}
	return nil
}
