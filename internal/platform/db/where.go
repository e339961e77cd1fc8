package db

import (
	"strconv"
	"strings"

	"github.com/showroom-admin/backoffice/internal/shared"
)

// ColumnSet maps logical field names to SQL expressions.
type ColumnSet map[string]string

// Where accumulates positional SQL predicates.
type Where struct {
	conds []string
	args  []any
}

// Arg appends a bound argument and returns its placeholder.
func (w *Where) Arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

// Add appends a predicate; each "?" in expr is replaced by a placeholder for
// the matching argument.
func (w *Where) Add(expr string, args ...any) {
	for _, a := range args {
		expr = strings.Replace(expr, "?", w.Arg(a), 1)
	}
	w.conds = append(w.conds, expr)
}

// SQL renders the WHERE clause, or an empty string.
func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Args returns the bound arguments.
func (w *Where) Args() []any {
	return w.args
}

// ApplyListQuery adds search and equality filter predicates for q, ignoring
// columns not present in searchable/filterable.
func (w *Where) ApplyListQuery(q shared.ListQuery, searchable, filterable ColumnSet) {
	if term := strings.TrimSpace(q.Search); term != "" {
		var ors []string
		pattern := "%" + escapeLike(term) + "%"
		for _, name := range q.SearchColumns {
			expr, ok := searchable[name]
			if !ok {
				continue
			}
			ors = append(ors, expr+"::text ILIKE "+w.Arg(pattern))
		}
		if len(ors) > 0 {
			w.conds = append(w.conds, "("+strings.Join(ors, " OR ")+")")
		}
	}
	for name, value := range q.Filters {
		expr, ok := filterable[name]
		if !ok || value == "" {
			continue
		}
		w.conds = append(w.conds, expr+"::text = "+w.Arg(value))
	}
}

// OrderBy renders an ORDER BY clause honoring the sortable whitelist.
func OrderBy(q shared.ListQuery, sortable ColumnSet, fallback string) string {
	expr, ok := sortable[q.SortBy]
	if !ok {
		return " ORDER BY " + fallback
	}
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	return " ORDER BY " + expr + " " + dir + " NULLS LAST, " + fallback
}

// Page renders LIMIT/OFFSET using w's placeholders.
func (w *Where) Page(q shared.ListQuery) string {
	if q.Limit <= 0 {
		return ""
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	return " LIMIT " + w.Arg(q.Limit) + " OFFSET " + w.Arg(offset)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
