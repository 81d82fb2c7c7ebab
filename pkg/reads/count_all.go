package reads

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/widecol/pkg/errors"
	"github.com/ajitpratap0/widecol/pkg/future"
	"github.com/ajitpratap0/widecol/pkg/models"
)

// CountAll submits every query without blocking and waits for all of them.
// Results are returned in query order. On the first failure the remaining
// futures are cancelled and that failure is returned.
func CountAll[K comparable](ctx context.Context, queries ...*RowSliceColumnCountQuery[K]) ([]*models.OperationResult[*ColumnCounts[K]], error) {
	for i, q := range queries {
		if q == nil {
			return nil, errors.Newf(errors.ErrorTypeConfig, "query %d is nil", i)
		}
	}

	futures := make([]*future.Future[*models.OperationResult[*ColumnCounts[K]]], len(queries))
	for i, q := range queries {
		futures[i] = q.ExecuteAsync(ctx)
	}

	results := make([]*models.OperationResult[*ColumnCounts[K]], len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range futures {
		g.Go(func() error {
			res, err := f.Get(gctx)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, f := range futures {
			f.Cancel()
		}
		return nil, err
	}
	return results, nil
}
