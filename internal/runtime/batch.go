package runtime

import (
	"context"
	"errors"

	"github.com/alitto/pond/v2"
)

// Result is the outcome of one transaction of a batch.
type Result struct {
	Receipt Receipt
	Err     error
}

// SubmitBatch submits txs concurrently on the shared pool. Each transaction
// succeeds or fails on its own; results keep the input order.
func (r *Runtime) SubmitBatch(ctx context.Context, txs []*Transaction) []Result {
	results := make([]Result, len(txs))
	group := r.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for i, tx := range txs {
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				results[i].Err = err
				return
			}
			results[i].Receipt, results[i].Err = r.Submit(groupCtx, tx)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		r.logger.WarnContext(ctx, "batch submission encountered error", "size", len(txs), "error", err)
	}
	return results
}
