package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type recordingSink struct {
	batches  [][]int
	timeouts []time.Duration
	failAt   int
	failErr  error
}

func (s *recordingSink) InsertBatch(ctx context.Context, rows []int, timeout time.Duration) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("batch context has no deadline")
	}
	if s.failAt > 0 && len(s.batches)+1 == s.failAt {
		return s.failErr
	}
	s.batches = append(s.batches, append([]int(nil), rows...))
	s.timeouts = append(s.timeouts, timeout)
	return nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestRunSplitsIntoBatches(t *testing.T) {
	cases := []struct {
		name      string
		rows      int
		size      int
		wantSizes []int
	}{
		{name: "default size", rows: 60, size: 0, wantSizes: []int{25, 25, 10}},
		{name: "exact multiple", rows: 6, size: 3, wantSizes: []int{3, 3}},
		{name: "single short batch", rows: 2, size: 10, wantSizes: []int{2}},
		{name: "nothing to do", rows: 0, size: 10, wantSizes: []int{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := &recordingSink{}
			res, err := Run[int](context.Background(), sink, seq(tc.rows), Options{BatchSize: tc.size})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			sizes := []int{}
			for _, batch := range sink.batches {
				sizes = append(sizes, len(batch))
			}
			if diff := cmp.Diff(tc.wantSizes, sizes); diff != "" {
				t.Fatalf("batch sizes mismatch (-want +got):\n%s", diff)
			}
			if res.Inserted != tc.rows || res.Batches != len(tc.wantSizes) {
				t.Fatalf("Result = %+v", res)
			}
		})
	}
}

func TestRunPreservesOrderAndTimeout(t *testing.T) {
	sink := &recordingSink{}
	if _, err := Run[int](context.Background(), sink, seq(5), Options{BatchSize: 2, BatchTimeout: 3 * time.Second}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff([][]int{{0, 1}, {2, 3}, {4}}, sink.batches); diff != "" {
		t.Fatalf("batches mismatch (-want +got):\n%s", diff)
	}
	for _, timeout := range sink.timeouts {
		if timeout != 3*time.Second {
			t.Fatalf("timeout = %v, want 3s", timeout)
		}
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("unique violation")
	sink := &recordingSink{failAt: 3, failErr: boom}

	res, err := Run[int](context.Background(), sink, seq(10), Options{BatchSize: 2})

	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("error = %v, want *BatchError", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("error does not wrap cause: %v", err)
	}
	if batchErr.Batch != 3 || batchErr.Committed != 4 || batchErr.TimedOut {
		t.Fatalf("BatchError = %+v", batchErr)
	}
	if res.Inserted != 4 || len(sink.batches) != 2 {
		t.Fatalf("rows after failure were attempted: result %+v, batches %d", res, len(sink.batches))
	}
}

func TestRunClassifiesTimeouts(t *testing.T) {
	statementTimeout := errors.New("canceling statement due to statement timeout")
	cases := []struct {
		name string
		err  error
		opts Options
	}{
		{name: "database timeout", err: statementTimeout, opts: Options{TimedOut: func(err error) bool { return errors.Is(err, statementTimeout) }}},
		{name: "context deadline", err: context.DeadlineExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := &recordingSink{failAt: 1, failErr: tc.err}
			_, err := Run[int](context.Background(), sink, seq(3), tc.opts)
			var batchErr *BatchError
			if !errors.As(err, &batchErr) || !batchErr.TimedOut {
				t.Fatalf("error = %v, want timed out BatchError", err)
			}
		})
	}
}

func TestSinkFunc(t *testing.T) {
	var got []string
	sink := SinkFunc[string](func(_ context.Context, rows []string, _ time.Duration) error {
		got = append(got, rows...)
		return nil
	})
	if _, err := Run[string](context.Background(), sink, []string{"a", "b", "c"}, Options{BatchSize: 2}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}
