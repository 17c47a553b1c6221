package provenance

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchLimit bounds concurrent downloads when no limit is given.
const DefaultBatchLimit = 4

// Outcome is the per-item result of a batch download.
type Outcome struct {
	Request Request
	File    *File
	Result  *Result
	Err     error
}

// PrepareBatch prepares every request concurrently, at most limit at a time.
// Items are independent: a failure is recorded on its own Outcome and never
// cancels the others. Outcomes are returned in request order.
func (o *Orchestrator) PrepareBatch(ctx context.Context, reqs []Request, limit int) []Outcome {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	outcomes := make([]Outcome, len(reqs))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			file, result, err := o.Prepare(ctx, req)
			outcomes[i] = Outcome{Request: req, File: file, Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// DownloadBatch prepares every request and saves each success to sink.
func (o *Orchestrator) DownloadBatch(ctx context.Context, reqs []Request, sink Sink, limit int) []Outcome {
	outcomes := o.PrepareBatch(ctx, reqs, limit)
	for i := range outcomes {
		out := &outcomes[i]
		if out.Err != nil {
			continue
		}
		if err := sink.Save(ctx, *out.File); err != nil {
			out.Err = fmt.Errorf("%w: %w", ErrSave, err)
		}
	}
	return outcomes
}
