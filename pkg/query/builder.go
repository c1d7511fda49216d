package query

import (
	"fmt"
	"reflect"
	"strings"
)

// predicate is a WHERE fragment whose placeholders are written as "$%d"
// and numbered when the final statement is assembled.
type predicate struct {
	expr   string
	params []any
}

// SortField names a logical field for ORDER BY. The field is translated
// to its column through the builder's ProjectionMap.
type SortField struct {
	Field      string
	Descending bool
}

// Builder accumulates predicates and ordering for a projection and
// renders SELECT statements with sequential $n parameters.
type Builder struct {
	projection  *ProjectionMap
	predicates  []predicate
	sortFields  []SortField
	defaultSort []SortField
}

// NewBuilder returns a Builder over projection. The defaultSort fields
// apply whenever OrderByFields is not called with an override.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		predicates:  make([]predicate, 0),
		defaultSort: defaultSort,
	}
}

// ParseSortFields splits a comma-separated sort expression such as
// "name,-createdAt" into SortFields. A leading "-" marks descending.
// Empty input yields nil.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	fields := make([]SortField, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}

	return fields
}

// OrderByFields replaces the default sort with fields.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sortFields = fields
	return b
}

// WhereEquals adds an equality predicate. Nil values are skipped so
// optional filters can be passed through unconditionally.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	b.add(fmt.Sprintf("%s = $%%d", b.projection.Column(field)), value)
	return b
}

// WhereContains adds a case-insensitive substring predicate. Nil or
// empty values are skipped.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	b.add(fmt.Sprintf("%s ILIKE $%%d", b.projection.Column(field)), "%"+*value+"%")
	return b
}

// WhereIn adds an IN predicate. Empty slices are skipped.
func (b *Builder) WhereIn(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}
	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = "$%d"
	}
	expr := fmt.Sprintf("%s IN (%s)", b.projection.Column(field), strings.Join(placeholders, ", "))
	b.add(expr, values...)
	return b
}

// WhereNullable adds an equality predicate, or IS NULL when val is nil.
func (b *Builder) WhereNullable(field string, val any) *Builder {
	col := b.projection.Column(field)
	if isNil(val) {
		b.add(col + " IS NULL")
	} else {
		b.add(fmt.Sprintf("%s = $%%d", col), val)
	}
	return b
}

// WhereSearch adds a single predicate matching search against any of
// the given fields with ILIKE. Nil or empty search is skipped.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + *search + "%"
	exprs := make([]string, len(fields))
	params := make([]any, len(fields))

	for i, field := range fields {
		exprs[i] = fmt.Sprintf("%s ILIKE $%%d", b.projection.Column(field))
		params[i] = pattern
	}

	b.add("("+strings.Join(exprs, " OR ")+")", params...)
	return b
}

// Build renders a SELECT over the full projection with the accumulated
// predicates and ordering.
func (b *Builder) Build() (string, []any) {
	where, args := b.renderWhere()
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s",
		b.projection.Columns(),
		b.projection.From(),
		where,
		b.renderOrderBy(),
	)
	return sql, args
}

// BuildCount renders a COUNT(*) over the accumulated predicates.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.renderWhere()
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.From(), where), args
}

// BuildPage renders a SELECT with LIMIT/OFFSET for the given 1-based
// page and page size.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.renderWhere()
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		b.projection.Columns(),
		b.projection.From(),
		where,
		b.renderOrderBy(),
		pageSize,
		(page-1)*pageSize,
	)
	return sql, args
}

// BuildSingle renders a SELECT for one record keyed by idField.
// Predicates accumulated on the builder are ignored.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(),
		b.projection.From(),
		b.projection.Column(idField),
	)
	return sql, []any{id}
}

// BuildSingleOrNull renders a SELECT limited to one row using the
// accumulated predicates and ordering.
func (b *Builder) BuildSingleOrNull() (string, []any) {
	where, args := b.renderWhere()
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT 1",
		b.projection.Columns(),
		b.projection.From(),
		where,
		b.renderOrderBy(),
	)
	return sql, args
}

func (b *Builder) add(expr string, params ...any) {
	b.predicates = append(b.predicates, predicate{expr: expr, params: params})
}

func (b *Builder) renderWhere() (string, []any) {
	if len(b.predicates) == 0 {
		return "", nil
	}

	exprs := make([]string, 0, len(b.predicates))
	args := make([]any, 0)
	n := 1

	for _, p := range b.predicates {
		expr := p.expr
		for _, param := range p.params {
			expr = strings.Replace(expr, "$%d", fmt.Sprintf("$%d", n), 1)
			args = append(args, param)
			n++
		}
		exprs = append(exprs, expr)
	}

	return " WHERE " + strings.Join(exprs, " AND "), args
}

func (b *Builder) renderOrderBy() string {
	fields := b.sortFields
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = fmt.Sprintf("%s %s", b.projection.Column(f.Field), dir)
	}

	return " ORDER BY " + strings.Join(parts, ", ")
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}

	return false
}
