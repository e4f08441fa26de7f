package predicate

import (
	"strings"
	"time"
)

// Row exposes a record to in-memory evaluation.
type Row interface {
	Value(field string) any
	Related(relation string) []Row
}

// Match reports whether row satisfies p. NULL handling follows SQL: a
// comparison against a missing value is false, except IsNull and Eq(nil).
func Match(p Predicate, row Row) bool {
	switch p.kind {
	case KindTrue:
		return true
	case KindFalse:
		return false
	case KindAnd:
		for _, child := range p.children {
			if !Match(child, row) {
				return false
			}
		}
		return true
	case KindOr:
		for _, child := range p.children {
			if Match(child, row) {
				return true
			}
		}
		return false
	case KindSome:
		for _, related := range row.Related(p.relation) {
			if Match(p.children[0], related) {
				return true
			}
		}
		return false
	case KindCompare:
		return matchCompare(p, normalize(row.Value(p.field)))
	}
	return false
}

func matchCompare(p Predicate, actual any) bool {
	switch p.op {
	case OpIsNull:
		return actual == nil
	case OpEq:
		if p.value == nil {
			return actual == nil
		}
		return actual != nil && Compare(actual, p.value) == 0
	case OpNe:
		return actual != nil && Compare(actual, p.value) != 0
	case OpGte:
		return actual != nil && Compare(actual, p.value) >= 0
	case OpIn:
		if actual == nil {
			return false
		}
		for _, v := range p.values {
			if Compare(actual, v) == 0 {
				return true
			}
		}
		return false
	case OpContains:
		text, ok := actual.(string)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(text), strings.ToLower(p.value.(string)))
	}
	return false
}

// Compare orders two values after normalization. nil sorts first and
// values of mismatched types never compare equal.
func Compare(a, b any) int {
	a, b = normalize(a), normalize(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmpOrdered(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmpOrdered(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return -1
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
