package localcms

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Docker-Hunterpedia/StatusDock/core"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// whereBuilder compiles a core.Where into a SQL condition over alias "d".
// Placeholders and args are appended in the same order.
type whereBuilder struct {
	collection *core.Collection
	args       []any
}

func compileWhere(c *core.Collection, where core.Where) (string, []any, error) {
	b := &whereBuilder{collection: c}
	clause, err := b.clause(where)
	if err != nil {
		return "", nil, err
	}
	return clause, b.args, nil
}

func (b *whereBuilder) clause(where core.Where) (string, error) {
	var parts []string
	for _, cond := range where.Conditions() {
		part, err := b.condition(cond)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	for _, group := range []struct{ key, joiner string }{
		{core.WhereAnd, " AND "},
		{core.WhereOr, " OR "},
	} {
		var sub []string
		for _, w := range where.Groups(group.key) {
			part, err := b.clause(w)
			if err != nil {
				return "", err
			}
			if part != "" {
				sub = append(sub, part)
			}
		}
		if len(sub) > 0 {
			parts = append(parts, "("+strings.Join(sub, group.joiner)+")")
		}
	}

	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " AND ") + ")", nil
}

// column resolves a field to a SQL expression and the args it consumes
func column(field string) (string, []any, error) {
	switch field {
	case core.FieldID:
		return "d.id", nil, nil
	case core.FieldCreatedAt:
		return "d.created_at", nil, nil
	case core.FieldUpdatedAt:
		return "d.updated_at", nil, nil
	}
	if !fieldPattern.MatchString(field) {
		return "", nil, fmt.Errorf("invalid field name %q", field)
	}
	return "json_extract(d.data, ?)", []any{"$." + field}, nil
}

func (b *whereBuilder) condition(cond core.Condition) (string, error) {
	expr, exprArgs, err := column(cond.Field)
	if err != nil {
		return "", err
	}
	use := func() string {
		b.args = append(b.args, exprArgs...)
		return expr
	}
	bind := func(v any) string {
		b.args = append(b.args, v)
		return "?"
	}

	relation := b.relation(cond.Field)
	value := bindValue(cond.Value, relation != nil || cond.Field == core.FieldID)

	if relation != nil && relation.Type == core.RelationshipHasMany {
		switch cond.Operator {
		case core.OpEquals, core.OpContains, core.OpIn:
			return b.anyElement(cond.Field, listValues(value, true), false), nil
		case core.OpNotEquals, core.OpNotIn:
			return b.anyElement(cond.Field, listValues(value, true), true), nil
		}
	}

	switch cond.Operator {
	case core.OpEquals:
		if value == nil {
			return use() + " IS NULL", nil
		}
		return use() + " = " + bind(value), nil

	case core.OpNotEquals:
		if value == nil {
			return use() + " IS NOT NULL", nil
		}
		s := "(" + use() + " != " + bind(value)
		return s + " OR " + use() + " IS NULL)", nil

	case core.OpGreaterThan:
		return use() + " > " + bind(value), nil
	case core.OpGreaterThanEqual:
		return use() + " >= " + bind(value), nil
	case core.OpLessThan:
		return use() + " < " + bind(value), nil
	case core.OpLessThanEqual:
		return use() + " <= " + bind(value), nil

	case core.OpLike:
		words := strings.Fields(fmt.Sprint(value))
		if len(words) == 0 {
			return "1 = 1", nil
		}
		parts := make([]string, 0, len(words))
		for _, w := range words {
			parts = append(parts, use()+" LIKE "+bind("%"+w+"%"))
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil

	case core.OpContains:
		return use() + " LIKE " + bind("%"+fmt.Sprint(value)+"%"), nil

	case core.OpIn, core.OpNotIn:
		values := listValues(value, relation != nil || cond.Field == core.FieldID)
		if len(values) == 0 {
			if cond.Operator == core.OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		s := use()
		if cond.Operator == core.OpNotIn {
			s += " NOT"
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = bind(v)
		}
		return s + " IN (" + strings.Join(placeholders, ", ") + ")", nil

	case core.OpExists:
		if truthy(value) {
			return use() + " IS NOT NULL", nil
		}
		return use() + " IS NULL", nil
	}

	return "", fmt.Errorf("unsupported operator %q on field %q", cond.Operator, cond.Field)
}

// anyElement matches documents whose array field holds any of values
func (b *whereBuilder) anyElement(field string, values []any, negate bool) string {
	b.args = append(b.args, "$."+field)
	placeholders := make([]string, len(values))
	for i, v := range values {
		b.args = append(b.args, v)
		placeholders[i] = "?"
	}
	s := "EXISTS (SELECT 1 FROM json_each(d.data, ?) WHERE json_each.value IN (" + strings.Join(placeholders, ", ") + "))"
	if len(values) == 0 {
		s = "EXISTS (SELECT 1 FROM json_each(d.data, ?) WHERE 1 = 0)"
	}
	if negate {
		return "NOT " + s
	}
	return s
}

func (b *whereBuilder) relation(field string) *core.Relation {
	if b.collection == nil {
		return nil
	}
	return b.collection.Relations[field]
}

// bindValue converts an operand into a value SQLite compares like the stored JSON
func bindValue(v any, identifier bool) any {
	switch t := v.(type) {
	case time.Time:
		return core.FormatTimestamp(t)
	case core.Document:
		return bindValue(t.ID(), true)
	case map[string]any:
		return bindValue(t[core.FieldID], true)
	case string:
		if identifier {
			if i, err := strconv.ParseInt(t, 10, 64); err == nil {
				return i
			}
		}
		return t
	case int:
		return int64(t)
	case float64:
		if t == float64(int64(t)) {
			return int64(t)
		}
		return t
	}
	return v
}

// listValues accepts slices or comma separated strings
func listValues(v any, identifier bool) []any {
	if s, ok := v.(string); ok {
		var out []any
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, bindValue(part, identifier))
			}
		}
		return out
	}
	rv := reflect.ValueOf(v)
	if v != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, bindValue(rv.Index(i).Interface(), identifier))
		}
		return out
	}
	if v == nil {
		return nil
	}
	return []any{bindValue(v, identifier)}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(t)
		return err == nil && b
	case int64:
		return t != 0
	case nil:
		return false
	}
	return true
}

// orderBy renders the ORDER BY clause, always ending with an id tie-break
func orderBy(fields []core.SortField) (string, []any, error) {
	var (
		parts []string
		args  []any
	)
	tieBreak := "DESC"
	for i, f := range fields {
		expr, exprArgs, err := column(f.Field)
		if err != nil {
			return "", nil, err
		}
		direction := "ASC"
		if f.Direction == core.SortDesc {
			direction = "DESC"
		}
		if i == 0 {
			tieBreak = direction
		}
		parts = append(parts, expr+" "+direction)
		args = append(args, exprArgs...)
	}
	parts = append(parts, "d.id "+tieBreak)
	return strings.Join(parts, ", "), args, nil
}
