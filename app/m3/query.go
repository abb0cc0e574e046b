package m3

import (
	"github.com/ohler55/ojg/oj"
)

// Constraint is one WHERE term of a query request. Exactly one (or for
// min/max, up to two) of the operator fields should be set; nil fields are
// omitted from the wire form.
type Constraint struct {
	Column   string
	Between  []string // [min, max], ISO-8601 timestamps
	Contains *string
	Equals   *string
	In       []string
	IsNull   *bool
	Like     *string
	Max      *float64
	Min      *float64
}

// toMap serializes the constraint, skipping unset operators.
func (c Constraint) toMap() map[string]any {
	m := map[string]any{"column": c.Column}
	if len(c.Between) == 2 {
		m["between"] = []any{c.Between[0], c.Between[1]}
	}
	if c.Contains != nil {
		m["contains"] = *c.Contains
	}
	if c.Equals != nil {
		m["equals"] = *c.Equals
	}
	if len(c.In) > 0 {
		in := make([]any, len(c.In))
		for i, v := range c.In {
			in[i] = v
		}
		m["in"] = in
	}
	if c.IsNull != nil {
		m["isnull"] = *c.IsNull
	}
	if c.Like != nil {
		m["like"] = *c.Like
	}
	if c.Max != nil {
		m["max"] = *c.Max
	}
	if c.Min != nil {
		m["min"] = *c.Min
	}
	return m
}

// ConstraintEquals builds an equality constraint.
func ConstraintEquals(column, value string) Constraint {
	return Constraint{Column: column, Equals: &value}
}

// ConstraintIn builds a membership constraint. A single value collapses to
// equality, matching what the query service expects.
func ConstraintIn(column string, values []string) Constraint {
	if len(values) == 1 {
		return ConstraintEquals(column, values[0])
	}
	return Constraint{Column: column, In: values}
}

// ConstraintLike builds a LIKE constraint.
func ConstraintLike(column, pattern string) Constraint {
	return Constraint{Column: column, Like: &pattern}
}

// ConstraintBetween builds a time-range constraint.
func ConstraintBetween(column, minISO, maxISO string) Constraint {
	return Constraint{Column: column, Between: []string{minISO, maxISO}}
}

// QueryRequest is a structured filter/selection/ordering/pagination request
// against the annotation service's query endpoint.
type QueryRequest struct {
	Select                 []string
	Distinct               bool
	Where                  []Constraint
	OrderBy                []string
	Limit                  *int
	Offset                 *int
	ConcurrentObservations *bool
	RelatedAssociations    *bool
	Strict                 *bool
}

// toMap serializes the request, skipping unset fields.
func (r QueryRequest) toMap() map[string]any {
	m := make(map[string]any)
	if len(r.Select) > 0 {
		sel := make([]any, len(r.Select))
		for i, s := range r.Select {
			sel[i] = s
		}
		m["select"] = sel
		m["distinct"] = r.Distinct
	}
	if len(r.Where) > 0 {
		where := make([]any, len(r.Where))
		for i, c := range r.Where {
			where[i] = c.toMap()
		}
		m["where"] = where
	}
	if len(r.OrderBy) > 0 {
		ob := make([]any, len(r.OrderBy))
		for i, s := range r.OrderBy {
			ob[i] = s
		}
		m["orderby"] = ob
	}
	if r.Limit != nil {
		m["limit"] = int64(*r.Limit)
	}
	if r.Offset != nil {
		m["offset"] = int64(*r.Offset)
	}
	if r.ConcurrentObservations != nil {
		m["concurrentObservations"] = *r.ConcurrentObservations
	}
	if r.RelatedAssociations != nil {
		m["relatedAssociations"] = *r.RelatedAssociations
	}
	if r.Strict != nil {
		m["strict"] = *r.Strict
	}
	return m
}

// JSON renders the request body for the query endpoints.
func (r QueryRequest) JSON() string {
	return oj.JSON(r.toMap(), &oj.Options{Sort: true})
}

// WithPage returns a copy of the request paged at [offset, offset+limit).
func (r QueryRequest) WithPage(limit, offset int) QueryRequest {
	page := r
	page.Limit = &limit
	page.Offset = &offset
	return page
}
