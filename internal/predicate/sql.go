package predicate

import (
	"fmt"
	"strings"
)

// Schema maps logical field names onto a table's columns and describes the
// relations Some can traverse.
type Schema struct {
	Table     string
	Columns   map[string]string
	Relations map[string]Relation
}

// Relation joins a parent row to related rows where
// parent.LocalColumn = related.RemoteColumn.
type Relation struct {
	Target       *Schema
	LocalColumn  string
	RemoteColumn string
}

// Column returns the qualified column for field.
func (s *Schema) Column(alias, field string) (string, error) {
	column, ok := s.Columns[field]
	if !ok {
		return "", fmt.Errorf("unknown field %q on %s", field, s.Table)
	}
	if alias == "" {
		return column, nil
	}
	return alias + "." + column, nil
}

// SQL accumulates positional arguments while a clause is rendered.
type SQL struct {
	args    []any
	aliases int
}

// Args returns the arguments bound so far.
func (b *SQL) Args() []any { return b.args }

// Bind appends value and returns its $n placeholder.
func (b *SQL) Bind(value any) string {
	b.args = append(b.args, value)
	return fmt.Sprintf("$%d", len(b.args))
}

// Where renders p against schema s, with root table alias.
func (b *SQL) Where(p Predicate, s *Schema, alias string) (string, error) {
	switch p.kind {
	case KindTrue:
		return "TRUE", nil
	case KindFalse:
		return "FALSE", nil
	case KindCompare:
		return b.compare(p, s, alias)
	case KindAnd, KindOr:
		joiner := " AND "
		if p.kind == KindOr {
			joiner = " OR "
		}
		parts := make([]string, 0, len(p.children))
		for _, child := range p.children {
			part, err := b.Where(child, s, alias)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		return "(" + strings.Join(parts, joiner) + ")", nil
	case KindSome:
		rel, ok := s.Relations[p.relation]
		if !ok {
			return "", fmt.Errorf("unknown relation %q on %s", p.relation, s.Table)
		}
		b.aliases++
		sub := fmt.Sprintf("r%d", b.aliases)
		inner, err := b.Where(p.children[0], rel.Target, sub)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("EXISTS (SELECT 1 FROM %s %s WHERE %s.%s = %s.%s AND %s)",
			rel.Target.Table, sub, sub, rel.RemoteColumn, alias, rel.LocalColumn, inner), nil
	}
	return "", fmt.Errorf("unsupported predicate kind %d", p.kind)
}

func (b *SQL) compare(p Predicate, s *Schema, alias string) (string, error) {
	column, err := s.Column(alias, p.field)
	if err != nil {
		return "", err
	}
	switch p.op {
	case OpEq:
		if p.value == nil {
			return column + " IS NULL", nil
		}
		return column + " = " + b.Bind(p.value), nil
	case OpNe:
		return column + " <> " + b.Bind(p.value), nil
	case OpGte:
		return column + " >= " + b.Bind(p.value), nil
	case OpIsNull:
		return column + " IS NULL", nil
	case OpContains:
		return column + " ILIKE " + b.Bind("%"+escapeLike(p.value.(string))+"%"), nil
	case OpIn:
		placeholders := make([]string, 0, len(p.values))
		for _, v := range p.values {
			placeholders = append(placeholders, b.Bind(v))
		}
		return column + " IN (" + strings.Join(placeholders, ", ") + ")", nil
	}
	return "", fmt.Errorf("unsupported operator %q", p.op)
}

// OrderBy renders an ORDER BY clause with a trailing id tie-breaker so
// paging over equal sort keys stays deterministic.
func OrderBy(o Order, s *Schema, alias string) (string, error) {
	column, err := s.Column(alias, o.Field)
	if err != nil {
		return "", err
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	clause := fmt.Sprintf("ORDER BY %s %s", column, dir)
	if o.Field != "id" {
		id, err := s.Column(alias, "id")
		if err == nil {
			clause += ", " + id + " ASC"
		}
	}
	return clause, nil
}

func escapeLike(text string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(text)
}
