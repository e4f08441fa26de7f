// Package query executes composed predicates against a store table and
// shapes the result into pages and stat buckets.
package query

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"recordhub/api/internal/period"
	"recordhub/api/internal/predicate"
	"recordhub/api/internal/store"
)

// AllBucket is the synthetic stats bucket holding the sum of all others.
const AllBucket = "ALL"

type Criteria struct {
	Query   string
	Period  string
	Page    int
	PerPage int
	OrderBy predicate.Order
}

type Page[T any] struct {
	Data        []T `json:"data"`
	Count       int `json:"count"`
	CurrentPage int `json:"currentPage"`
	PerPage     int `json:"perPage"`
	TotalPages  int `json:"totalPages"`
}

// EmptyPage is returned for unsatisfiable predicates without touching the
// store.
func EmptyPage[T any](perPage int) Page[T] {
	return Page[T]{Data: []T{}, Count: 0, CurrentPage: 1, PerPage: perPage, TotalPages: 0}
}

func TotalPages(count, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return (count + perPage - 1) / perPage
}

// Skip is the row offset for page. Pages below 1 skip nothing; offsets
// past math.MaxInt saturate so they read nothing instead of wrapping.
func Skip(page, perPage int) int {
	if page <= 1 || perPage <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/perPage {
		return math.MaxInt
	}
	return (page - 1) * perPage
}

// CurrentPage is the page number reported back to the caller.
// TODO: Skip and CurrentPage disagree for page < 1 only in display; align
// them once clients stop relying on the clamped value.
func CurrentPage(page int) int {
	return max(page, 1)
}

// SearchFilter is a case-insensitive substring match across fields. An
// empty query imposes no restriction.
func SearchFilter(text string, fields ...string) predicate.Predicate {
	if text == "" {
		return predicate.True()
	}
	matches := make([]predicate.Predicate, 0, len(fields))
	for _, field := range fields {
		matches = append(matches, predicate.Contains(field, text))
	}
	return predicate.OrAny(matches...)
}

// PeriodFilter bounds createdAt from below by the start of the window.
func PeriodFilter(token string, now time.Time, loc *time.Location) (predicate.Predicate, error) {
	since, ok, err := period.Since(token, now, loc)
	if err != nil {
		return predicate.False(), err
	}
	if !ok {
		return predicate.True(), nil
	}
	return predicate.Gte(store.FieldCreatedAt, since), nil
}

// Compose conjoins every fragment. A single unsatisfiable fragment makes
// the result unsatisfiable.
func Compose(fragments ...predicate.Predicate) predicate.Predicate {
	return predicate.AndAll(fragments...)
}

// Find runs the page read and the total count concurrently over the same
// predicate.
func Find[T any](ctx context.Context, table store.Table[T], where predicate.Predicate, c Criteria) (Page[T], error) {
	if where.IsFalse() {
		return EmptyPage[T](c.PerPage), nil
	}

	var (
		items []T
		count int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = table.FindMany(gctx, store.Query{
			Where: where,
			Order: c.OrderBy,
			Skip:  Skip(c.Page, c.PerPage),
			Take:  c.PerPage,
		})
		return err
	})
	g.Go(func() error {
		var err error
		count, err = table.Count(gctx, where)
		return err
	})
	if err := g.Wait(); err != nil {
		return Page[T]{}, fmt.Errorf("find page: %w", err)
	}

	return Page[T]{
		Data:        items,
		Count:       count,
		CurrentPage: CurrentPage(c.Page),
		PerPage:     c.PerPage,
		TotalPages:  TotalPages(count, c.PerPage),
	}, nil
}

// Stats groups rows matching where by field. Every bucket in buckets is
// present, defaulting to zero, and AllBucket is the sum of the rest.
func Stats[T any, S ~string](ctx context.Context, table store.Table[T], where predicate.Predicate, field string, buckets []S) (map[string]int, error) {
	counts := make(map[string]int, len(buckets)+1)
	for _, bucket := range buckets {
		counts[string(bucket)] = 0
	}
	if !where.IsFalse() {
		grouped, err := table.GroupCount(ctx, where, field)
		if err != nil {
			return nil, fmt.Errorf("group stats: %w", err)
		}
		for bucket, n := range grouped {
			counts[bucket] += n
		}
	}
	return WithTotal(counts), nil
}

// WithTotal sets AllBucket to the sum of every other bucket.
func WithTotal(counts map[string]int) map[string]int {
	total := 0
	for bucket, n := range counts {
		if bucket != AllBucket {
			total += n
		}
	}
	counts[AllBucket] = total
	return counts
}
