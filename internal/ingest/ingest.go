// Package ingest writes large row sets in fixed-size batches. Each batch is
// its own transaction with a bounded duration; batches run one after the
// other and the first failure stops the run.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultBatchSize    = 25
	DefaultBatchTimeout = 5 * time.Second
)

// Sink persists one batch atomically. timeout bounds the batch's statement
// time on the database side.
type Sink[T any] interface {
	InsertBatch(ctx context.Context, rows []T, timeout time.Duration) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc[T any] func(ctx context.Context, rows []T, timeout time.Duration) error

func (f SinkFunc[T]) InsertBatch(ctx context.Context, rows []T, timeout time.Duration) error {
	return f(ctx, rows, timeout)
}

type Options struct {
	BatchSize    int
	BatchTimeout time.Duration
	// TimedOut reports whether err came from the database statement timeout.
	TimedOut func(err error) bool
}

type Result struct {
	Inserted int `json:"inserted"`
	Batches  int `json:"batches"`
}

// BatchError describes the batch that stopped a run. Rows from earlier
// batches remain committed.
type BatchError struct {
	Batch     int
	Committed int
	TimedOut  bool
	Err       error
}

func (e *BatchError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("batch %d timed out after %d rows committed: %v", e.Batch, e.Committed, e.Err)
	}
	return fmt.Sprintf("batch %d failed after %d rows committed: %v", e.Batch, e.Committed, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Run inserts rows through sink. On failure the returned Result counts what
// was committed and the error is a *BatchError.
func Run[T any](ctx context.Context, sink Sink[T], rows []T, opts Options) (Result, error) {
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	timeout := opts.BatchTimeout
	if timeout <= 0 {
		timeout = DefaultBatchTimeout
	}

	var res Result
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		if err := insertBatch(ctx, sink, rows[start:end], timeout); err != nil {
			timedOut := errors.Is(err, context.DeadlineExceeded)
			if opts.TimedOut != nil && opts.TimedOut(err) {
				timedOut = true
			}
			return res, &BatchError{Batch: res.Batches + 1, Committed: res.Inserted, TimedOut: timedOut, Err: err}
		}
		res.Inserted += end - start
		res.Batches++
	}
	return res, nil
}

func insertBatch[T any](ctx context.Context, sink Sink[T], batch []T, timeout time.Duration) error {
	// Client deadline trails the server-side statement timeout by a second.
	ctx, cancel := context.WithTimeout(ctx, timeout+time.Second)
	defer cancel()
	return sink.InsertBatch(ctx, batch, timeout)
}
