package repository

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// queryBuilder accumulates WHERE clauses with positional pgx arguments.
type queryBuilder struct {
	base    string
	clauses []string
	args    []any
}

func newQueryBuilder(base string) *queryBuilder {
	return &queryBuilder{base: base}
}

// where appends a clause; its single "?" becomes the next $n placeholder.
func (q *queryBuilder) where(clause string, arg any) {
	q.args = append(q.args, arg)
	q.clauses = append(q.clauses, strings.Replace(clause, "?", fmt.Sprintf("$%d", len(q.args)), 1))
}

func (q *queryBuilder) build(orderBy string, limit, offset int) (string, []any) {
	limit, offset = normalizePage(limit, offset)

	var sb strings.Builder
	sb.WriteString(q.base)
	if len(q.clauses) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(q.clauses, " AND "))
	}
	if orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(orderBy)
	}
	fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", limit, offset)
	return sb.String(), q.args
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
