package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/product-catalog-editor/internal/model"
)

// RowFailure is one record the catalog refused during a flush.
type RowFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
	err   error
}

// Err returns the underlying failure.
func (f RowFailure) Err() error { return f.err }

// FlushResult reports what happened to every edited row of a flush.
type FlushResult struct {
	Applied []model.Product `json:"applied"`
	Failed  []RowFailure    `json:"failed"`
	// Skipped rows were never sent because an earlier row failed.
	Skipped []string `json:"skipped"`
}

// OK reports whether every row was applied.
func (r FlushResult) OK() bool { return len(r.Failed) == 0 && len(r.Skipped) == 0 }

// BatchError is returned when a flush did not apply every row. Rows listed in
// Result.Applied were committed by the catalog and are not rolled back.
type BatchError struct {
	Result FlushResult
	err    error
}

func (e *BatchError) Error() string {
	ids := make([]string, 0, len(e.Result.Failed))
	for _, f := range e.Result.Failed {
		ids = append(ids, f.ID)
	}
	return fmt.Sprintf("batch update: %d applied, %d failed [%s], %d skipped",
		len(e.Result.Applied), len(e.Result.Failed), strings.Join(ids, ","), len(e.Result.Skipped))
}

// Unwrap returns the joined row failures.
func (e *BatchError) Unwrap() error { return e.err }

// Flush sends every edited row to the catalog. Rows are updated through a
// pool of FlushConcurrency workers; once a row fails no further rows are
// started. The dirty set is cleared whatever the outcome. The snapshot takes
// the confirmed rows only when the whole batch applied; after a partial
// failure the caller should reload.
//
// Cancelling ctx does not abort the batch; the catalog client's timeouts
// bound every call.
func (e *Editor) Flush(ctx context.Context) (FlushResult, error) {
	if err := e.begin(FlowFlush, &e.flushing); err != nil {
		return FlushResult{}, err
	}
	defer e.end(&e.flushing)

	rows := e.dirty.SnapshotAll()
	res := e.runUpdates(context.WithoutCancel(ctx), rows)
	e.dirty.Clear()

	if !res.OK() {
		errs := make([]error, 0, len(res.Failed))
		for _, f := range res.Failed {
			errs = append(errs, f.err)
		}
		berr := &BatchError{Result: res, err: errors.Join(errs...)}
		e.fail(FlowFlush, "Some products could not be updated, reload to resynchronise", berr)
		return res, berr
	}

	e.mu.Lock()
	for _, p := range res.Applied {
		if i := model.IndexOf(e.rows, p.ID); i >= 0 {
			e.rows[i] = p
		}
	}
	e.mu.Unlock()
	e.succeed(FlowFlush, fmt.Sprintf("Updated %d products", len(res.Applied)))
	return res, nil
}

// runUpdates returns the per-row outcome. Rows are skipped only after another
// row failed.
func (e *Editor) runUpdates(ctx context.Context, rows []model.Product) FlushResult {
	type outcome struct {
		p   model.Product
		err error
		ran bool
	}
	outs := make([]outcome, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, row := range rows {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			// ctx, not gctx: updates already sent are allowed to finish.
			p, err := e.client.Update(ctx, row.ID, row, e.cred)
			if err == nil && p.ID == "" {
				p.ID = row.ID
			}
			outs[i] = outcome{p: p, err: err, ran: true}
			return err
		})
	}
	_ = g.Wait()

	res := FlushResult{Applied: []model.Product{}, Failed: []RowFailure{}, Skipped: []string{}}
	for i, o := range outs {
		switch {
		case !o.ran:
			res.Skipped = append(res.Skipped, rows[i].ID)
		case o.err != nil:
			res.Failed = append(res.Failed, RowFailure{ID: rows[i].ID, Error: o.err.Error(), err: o.err})
		default:
			res.Applied = append(res.Applied, o.p)
		}
	}
	return res
}
