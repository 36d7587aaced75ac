package resolver

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/observability"
	"github.com/NobleMathews/dev-versioner/pkg/record"
)

// Result is the outcome for one package of a batch.
type Result struct {
	ID     string
	Record *record.Record
	Err    error
}

// Results holds batch outcomes in request order.
type Results []Result

// Map indexes results by package id. For repeated ids the last one wins.
func (rs Results) Map() map[string]Result {
	m := make(map[string]Result, len(rs))
	for _, r := range rs {
		m[r.ID] = r
	}
	return m
}

// Records returns the successful records in request order.
func (rs Results) Records() []*record.Record {
	var out []*record.Record
	for _, r := range rs {
		if r.Err == nil {
			out = append(out, r.Record)
		}
	}
	return out
}

// Failed counts results with an error.
func (rs Results) Failed() int {
	n := 0
	for _, r := range rs {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// BatchOptions configures [Resolver.ResolveBatch].
type BatchOptions struct {
	// Concurrency overrides the resolver's limit when positive.
	Concurrency int

	// OnResult is called once per package as it finishes, from the
	// goroutine that resolved it.
	OnResult func(Result)
}

// ResolveBatch resolves ids in eco with at most Concurrency in flight.
// A failing package never cancels its siblings; its error is kept in its
// Result. Once ctx is done no further packages start, and the ones that did
// not start report the context error.
//
// The returned error is non-nil only when eco itself is unknown.
func (r *Resolver) ResolveBatch(ctx context.Context, eco string, ids []string, opts BatchOptions) (Results, error) {
	desc, _, err := r.registry.Lookup(eco)
	if err != nil {
		return nil, err
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = r.concurrency
	}

	start := time.Now()
	results := make(Results, len(ids))
	report := func(i int, res Result) {
		results[i] = res
		if opts.OnResult != nil {
			opts.OnResult(res)
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(ids); j++ {
				report(j, Result{ID: ids[j], Err: contextError(err)})
			}
			break
		}
		g.Go(func() error {
			rec, err := r.Resolve(ctx, desc.ID, id, "")
			report(i, Result{ID: id, Record: rec, Err: err})
			return nil
		})
	}
	_ = g.Wait()

	failed := results.Failed()
	r.logger.Debug("batch finished", "ecosystem", desc.ID, "total", len(ids), "failed", failed)
	observability.Resolve().OnBatchComplete(ctx, desc.ID, len(ids), failed, time.Since(start))
	return results, nil
}

func contextError(err error) error {
	if err == context.DeadlineExceeded {
		return errors.Wrap(errors.ErrCodeTimeout, err, "not started")
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "not started")
}
