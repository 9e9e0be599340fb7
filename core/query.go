package core

import (
	"sort"
	"strings"
)

// Defaults applied by adapters when a query leaves a value unset
const (
	DefaultLimit = 10
	DefaultPage  = 1
	DefaultDepth = 1
)

// SortDirection represents the sort order
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortField represents a field to sort by
type SortField struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// String renders the field in the canonical "-field" / "field" form
func (sf SortField) String() string {
	if sf.Direction == SortDesc {
		return "-" + sf.Field
	}
	return sf.Field
}

// Operator is a canonical comparison operator used inside a Where clause
type Operator string

const (
	OpEquals           Operator = "equals"
	OpNotEquals        Operator = "not_equals"
	OpGreaterThan      Operator = "greater_than"
	OpGreaterThanEqual Operator = "greater_than_equal"
	OpLessThan         Operator = "less_than"
	OpLessThanEqual    Operator = "less_than_equal"
	OpLike             Operator = "like"
	OpContains         Operator = "contains"
	OpIn               Operator = "in"
	OpNotIn            Operator = "not_in"
	OpExists           Operator = "exists"
)

// Operators lists every canonical operator
var Operators = []Operator{
	OpEquals, OpNotEquals,
	OpGreaterThan, OpGreaterThanEqual,
	OpLessThan, OpLessThanEqual,
	OpLike, OpContains,
	OpIn, OpNotIn,
	OpExists,
}

// Keys of a Where clause that group nested clauses instead of naming a field
const (
	WhereAnd = "and"
	WhereOr  = "or"
)

// Where maps a field name to either a scalar (equality) or a map of
// operator to operand. The "and" / "or" keys hold lists of nested clauses.
type Where map[string]any

// Condition is a single field/operator/operand triple
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// Conditions returns the field conditions of w, ordered by field then operator.
// Grouping keys are skipped; see Groups.
func (w Where) Conditions() []Condition {
	fields := make([]string, 0, len(w))
	for field := range w {
		if field == WhereAnd || field == WhereOr {
			continue
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var conds []Condition
	for _, field := range fields {
		ops, ok := operatorMap(w[field])
		if !ok {
			conds = append(conds, Condition{Field: field, Operator: OpEquals, Value: w[field]})
			continue
		}
		names := make([]string, 0, len(ops))
		for op := range ops {
			names = append(names, op)
		}
		sort.Strings(names)
		for _, op := range names {
			conds = append(conds, Condition{Field: field, Operator: Operator(op), Value: ops[op]})
		}
	}
	return conds
}

// Groups returns the nested clauses stored under key (WhereAnd or WhereOr)
func (w Where) Groups(key string) []Where {
	switch v := w[key].(type) {
	case []Where:
		return v
	case []map[string]any:
		out := make([]Where, 0, len(v))
		for _, m := range v {
			out = append(out, Where(m))
		}
		return out
	case []any:
		out := make([]Where, 0, len(v))
		for _, item := range v {
			if m, ok := operatorMap(item); ok {
				out = append(out, Where(m))
			}
		}
		return out
	}
	return nil
}

func operatorMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Where:
		return m, true
	case Document:
		return m, true
	}
	return nil, false
}

// Query represents a provider-neutral find request.
// Zero Limit and Page mean "unset"; Depth is a pointer because 0 is meaningful.
type Query struct {
	Where Where  `json:"where,omitempty"`
	Sort  string `json:"sort,omitempty"`
	Limit int    `json:"limit,omitempty"`
	Page  int    `json:"page,omitempty"`
	Depth *int   `json:"depth,omitempty"`
}

// NewQuery creates an empty Query
func NewQuery() *Query {
	return &Query{Where: Where{}}
}

// WithWhere merges the given clause into the query
func (q *Query) WithWhere(where Where) *Query {
	if q.Where == nil {
		q.Where = Where{}
	}
	for k, v := range where {
		q.Where[k] = v
	}
	return q
}

// WithFilter adds a single operator condition for field
func (q *Query) WithFilter(field string, op Operator, value any) *Query {
	if q.Where == nil {
		q.Where = Where{}
	}
	ops, ok := q.Where[field].(map[string]any)
	if !ok {
		ops = map[string]any{}
		if existing, had := q.Where[field]; had {
			ops[string(OpEquals)] = existing
		}
	}
	ops[string(op)] = value
	q.Where[field] = ops
	return q
}

// WithSort sets the raw sort expression, e.g. "-createdAt"
func (q *Query) WithSort(sort string) *Query {
	q.Sort = sort
	return q
}

// WithSortField appends a sort field to the sort expression
func (q *Query) WithSortField(field string, direction SortDirection) *Query {
	sf := SortField{Field: field, Direction: direction}.String()
	if q.Sort == "" {
		q.Sort = sf
	} else {
		q.Sort += "," + sf
	}
	return q
}

// WithLimit sets the page size
func (q *Query) WithLimit(limit int) *Query {
	q.Limit = limit
	return q
}

// WithPage sets the 1-based page number
func (q *Query) WithPage(page int) *Query {
	q.Page = page
	return q
}

// WithDepth sets the relation hydration depth
func (q *Query) WithDepth(depth int) *Query {
	q.Depth = &depth
	return q
}

// Clone returns a copy of the query. The Where clause is copied one level deep.
func (q *Query) Clone() *Query {
	if q == nil {
		return NewQuery()
	}
	clone := *q
	clone.Where = make(Where, len(q.Where))
	for k, v := range q.Where {
		clone.Where[k] = v
	}
	if q.Depth != nil {
		d := *q.Depth
		clone.Depth = &d
	}
	return &clone
}

// WithDefaults returns a copy with limit, page and depth filled in where unset
func (q *Query) WithDefaults() *Query {
	clone := q.Clone()
	clone.Limit = clone.EffectiveLimit()
	clone.Page = clone.EffectivePage()
	depth := clone.EffectiveDepth()
	clone.Depth = &depth
	return clone
}

// EffectiveLimit returns the limit or DefaultLimit when unset
func (q *Query) EffectiveLimit() int {
	if q == nil || q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// EffectivePage returns the page or DefaultPage when unset
func (q *Query) EffectivePage() int {
	if q == nil || q.Page <= 0 {
		return DefaultPage
	}
	return q.Page
}

// EffectiveDepth returns the depth or DefaultDepth when unset
func (q *Query) EffectiveDepth() int {
	if q == nil || q.Depth == nil {
		return DefaultDepth
	}
	if *q.Depth < 0 {
		return 0
	}
	return *q.Depth
}

// SortFields parses the query's sort expression
func (q *Query) SortFields() []SortField {
	if q == nil {
		return nil
	}
	return ParseSort(q.Sort)
}

// ParseSort parses a comma separated sort expression. A leading "-" marks
// a descending field; a leading "+" is accepted and ignored.
func ParseSort(s string) []SortField {
	var fields []SortField
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		direction := SortAsc
		switch {
		case strings.HasPrefix(part, "-"):
			direction = SortDesc
			part = part[1:]
		case strings.HasPrefix(part, "+"):
			part = part[1:]
		}
		if part == "" {
			continue
		}
		fields = append(fields, SortField{Field: part, Direction: direction})
	}
	return fields
}

// String returns a string representation of the sort direction
func (sd SortDirection) String() string {
	return string(sd)
}

// IsValid checks if the sort direction is valid
func (sd SortDirection) IsValid() bool {
	return sd == SortAsc || sd == SortDesc
}
