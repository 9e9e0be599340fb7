package remote

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/logger"
)

// QueryBuilder provides a fluent interface for building REST query parameters
type QueryBuilder struct {
	params url.Values
	log    *logger.Logger
}

// NewQueryBuilder creates an empty builder. Unknown operators are reported to log.
func NewQueryBuilder(log *logger.Logger) *QueryBuilder {
	return &QueryBuilder{
		params: make(url.Values),
		log:    logger.OrNop(log),
	}
}

// BuildQuery translates a canonical query into REST query parameters.
// Only the values set on q are emitted.
func BuildQuery(q *core.Query, log *logger.Logger) url.Values {
	b := NewQueryBuilder(log)
	if q == nil {
		return b.Values()
	}
	b.WithPagination(q.Page, q.Limit).
		WithSort(q.SortFields()).
		WithWhere(q.Where)
	if q.Depth != nil {
		b.WithPopulate(*q.Depth)
	}
	return b.Values()
}

// WithPagination sets pagination parameters; non-positive values are skipped
func (b *QueryBuilder) WithPagination(page, pageSize int) *QueryBuilder {
	if page > 0 {
		b.params.Set("pagination[page]", strconv.Itoa(page))
	}
	if pageSize > 0 {
		b.params.Set("pagination[pageSize]", strconv.Itoa(pageSize))
	}
	return b
}

// WithSort sets sorting parameters as field:asc|desc
func (b *QueryBuilder) WithSort(fields []core.SortField) *QueryBuilder {
	if len(fields) == 0 {
		return b
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		direction := core.SortAsc
		if f.Direction == core.SortDesc {
			direction = core.SortDesc
		}
		parts = append(parts, f.Field+":"+direction.String())
	}
	b.params.Set("sort", strings.Join(parts, ","))
	return b
}

// WithPopulate requests relation hydration when depth is positive
func (b *QueryBuilder) WithPopulate(depth int) *QueryBuilder {
	if depth > 0 {
		b.params.Set("populate", "*")
	}
	return b
}

// WithWhere adds filter parameters for every condition in where
func (b *QueryBuilder) WithWhere(where core.Where) *QueryBuilder {
	b.addWhere("filters", where)
	return b
}

func (b *QueryBuilder) addWhere(prefix string, where core.Where) {
	for _, cond := range where.Conditions() {
		native, ok := TranslateOperator(cond.Operator)
		if !ok {
			b.log.Warn("unknown filter operator passed through").
				Str("field", cond.Field).
				Str("operator", string(cond.Operator)).
				Send()
		}
		b.addValue(fmt.Sprintf("%s[%s][%s]", prefix, cond.Field, native), cond.Value)
	}
	for _, group := range []string{core.WhereAnd, core.WhereOr} {
		for i, sub := range where.Groups(group) {
			b.addWhere(fmt.Sprintf("%s[$%s][%d]", prefix, group, i), sub)
		}
	}
}

func (b *QueryBuilder) addValue(key string, value any) {
	rv := reflect.ValueOf(value)
	if value != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		for i := 0; i < rv.Len(); i++ {
			b.params.Set(fmt.Sprintf("%s[%d]", key, i), formatValue(rv.Index(i).Interface()))
		}
		return
	}
	b.params.Set(key, formatValue(value))
}

// Values returns the built parameters
func (b *QueryBuilder) Values() url.Values {
	return b.params
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return core.FormatTimestamp(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
