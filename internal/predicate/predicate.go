// Package predicate models row filters as small immutable expression trees.
// A tree can be rendered to a parameterized SQL WHERE clause or evaluated
// directly against in-memory rows, so both store backends share one filter
// definition.
package predicate

import (
	"reflect"
	"time"
)

type Kind int

const (
	KindTrue Kind = iota
	KindFalse
	KindCompare
	KindAnd
	KindOr
	KindSome
)

type Op string

const (
	OpEq       Op = "eq"
	OpNe       Op = "ne"
	OpIn       Op = "in"
	OpGte      Op = "gte"
	OpIsNull   Op = "is_null"
	OpContains Op = "contains"
)

// Predicate is a boolean expression over a row. The zero value matches
// every row.
type Predicate struct {
	kind     Kind
	field    string
	op       Op
	value    any
	values   []any
	relation string
	children []Predicate
}

// True matches every row.
func True() Predicate { return Predicate{kind: KindTrue} }

// False is the unsatisfiable marker. No row matches it and executors must
// not reach the store when handed one.
func False() Predicate { return Predicate{kind: KindFalse} }

func Eq(field string, value any) Predicate {
	return Predicate{kind: KindCompare, field: field, op: OpEq, value: normalize(value)}
}

func Ne(field string, value any) Predicate {
	return Predicate{kind: KindCompare, field: field, op: OpNe, value: normalize(value)}
}

func Gte(field string, value any) Predicate {
	return Predicate{kind: KindCompare, field: field, op: OpGte, value: normalize(value)}
}

func IsNull(field string) Predicate {
	return Predicate{kind: KindCompare, field: field, op: OpIsNull}
}

// In matches rows whose field equals one of values. An empty list cannot
// match anything and yields False.
func In(field string, values ...any) Predicate {
	if len(values) == 0 {
		return False()
	}
	normalized := make([]any, 0, len(values))
	for _, v := range values {
		normalized = append(normalized, normalize(v))
	}
	return Predicate{kind: KindCompare, field: field, op: OpIn, values: normalized}
}

// Contains is a case-insensitive substring match.
func Contains(field, text string) Predicate {
	return Predicate{kind: KindCompare, field: field, op: OpContains, value: text}
}

// Some matches rows with at least one related row satisfying where.
func Some(relation string, where Predicate) Predicate {
	if where.kind == KindFalse {
		return False()
	}
	return Predicate{kind: KindSome, relation: relation, children: []Predicate{where}}
}

// AndAll conjoins fragments. Any False fragment makes the whole conjunction
// False; True fragments are dropped.
func AndAll(fragments ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(fragments))
	for _, p := range fragments {
		switch p.kind {
		case KindFalse:
			return False()
		case KindTrue:
			continue
		case KindAnd:
			kept = append(kept, p.children...)
		default:
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return True()
	case 1:
		return kept[0]
	}
	return Predicate{kind: KindAnd, children: kept}
}

// OrAny disjoins fragments. False branches are dropped, a True branch
// makes the whole disjunction True, and no surviving branch yields False.
func OrAny(fragments ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(fragments))
	for _, p := range fragments {
		switch p.kind {
		case KindTrue:
			return True()
		case KindFalse:
			continue
		case KindOr:
			kept = append(kept, p.children...)
		default:
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return False()
	case 1:
		return kept[0]
	}
	return Predicate{kind: KindOr, children: kept}
}

func (p Predicate) Kind() Kind { return p.kind }
func (p Predicate) IsFalse() bool { return p.kind == KindFalse }
func (p Predicate) IsTrue() bool { return p.kind == KindTrue }
func (p Predicate) Field() string { return p.field }
func (p Predicate) Op() Op { return p.op }
func (p Predicate) Value() any { return p.value }
func (p Predicate) Values() []any { return p.values }
func (p Predicate) Relation() string { return p.relation }
func (p Predicate) Children() []Predicate { return p.children }

// Order is a sort instruction on a field of the root schema.
type Order struct {
	Field string
	Desc  bool
}

// normalize collapses named string and integer types and pointer times so
// SQL drivers and in-memory comparison see the same plain values.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int64, float64, time.Time:
		return x
	case int:
		return int64(x)
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	return v
}
