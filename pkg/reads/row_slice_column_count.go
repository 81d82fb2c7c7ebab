// Package reads implements read operations that reshape tabular result sets
// into the wide-row model: a row key mapped to a sparse set of columns.
package reads

import (
	"context"

	"github.com/ajitpratap0/widecol/pkg/config"
	"github.com/ajitpratap0/widecol/pkg/errors"
	"github.com/ajitpratap0/widecol/pkg/execution"
	"github.com/ajitpratap0/widecol/pkg/future"
	"github.com/ajitpratap0/widecol/pkg/metrics"
	"github.com/ajitpratap0/widecol/pkg/models"
	"github.com/ajitpratap0/widecol/pkg/serializers"
	"github.com/ajitpratap0/widecol/pkg/typemapping"
)

// Option configures a read query
type Option func(*options)

type options struct {
	mode config.RowMode
}

// WithRowMode sets how physical rows are counted. The default is native.
func WithRowMode(mode config.RowMode) Option {
	return func(o *options) { o.mode = mode }
}

// WithConfig takes the row mode from cfg. The value is read once, here.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg != nil {
			o.mode = cfg.Reads.RowMode
		}
	}
}

// RowSliceColumnCountQuery counts columns per row key over a multi-row result.
//
// In native mode each physical row is one logical row and its count is the
// number of non-key columns. In legacy mode each physical row is one column of
// the logical row named by its key, so counts accumulate across rows sharing a
// key.
type RowSliceColumnCountQuery[K comparable] struct {
	executor *execution.Executor
	cf       models.ColumnFamily[K]
	query    models.Query
	mode     config.RowMode
}

// NewRowSliceColumnCountQuery creates a query over q for column family cf.
func NewRowSliceColumnCountQuery[K comparable](e *execution.Executor, cf models.ColumnFamily[K], q models.Query, opts ...Option) (*RowSliceColumnCountQuery[K], error) {
	o := options{mode: config.RowModeNative}
	for _, opt := range opts {
		opt(&o)
	}

	switch {
	case e == nil:
		return nil, errors.New(errors.ErrorTypeConfig, "row slice query requires an executor")
	case cf.KeySerializer == nil:
		return nil, errors.New(errors.ErrorTypeConfig, "column family has no key serializer").
			WithDetail("column_family", cf.Name)
	case !o.mode.Valid():
		return nil, errors.Newf(errors.ErrorTypeConfig, "invalid row mode %q", o.mode)
	}

	return &RowSliceColumnCountQuery[K]{
		executor: e,
		cf:       cf,
		query:    q,
		mode:     o.mode,
	}, nil
}

// Mode returns the row mode fixed at construction
func (q *RowSliceColumnCountQuery[K]) Mode() config.RowMode { return q.mode }

// Query returns the statement the query submits
func (q *RowSliceColumnCountQuery[K]) Query() models.Query { return q.query }

// Execute runs the query, blocking until the counts are available.
func (q *RowSliceColumnCountQuery[K]) Execute(ctx context.Context) (*models.OperationResult[*ColumnCounts[K]], error) {
	return execution.Execute(ctx, q.executor, q.operation())
}

// ExecuteAsync runs the query without blocking.
func (q *RowSliceColumnCountQuery[K]) ExecuteAsync(ctx context.Context) *future.Future[*models.OperationResult[*ColumnCounts[K]]] {
	return execution.ExecuteAsync(ctx, q.executor, q.operation())
}

// operation builds a fresh operation for one call.
func (q *RowSliceColumnCountQuery[K]) operation() execution.Operation[*ColumnCounts[K]] {
	return execution.NewOperation(models.OperationGetRowsSlice, q.query, ColumnCountParser(q.cf.KeySerializer, q.mode))
}

// ColumnCountParser returns the parse function for the given key deserializer
// and row mode. The returned function keeps no state between calls.
func ColumnCountParser[K comparable](keys serializers.Deserializer[K], mode config.RowMode) execution.ParseFunc[*ColumnCounts[K]] {
	legacy := mode.IsLegacy()
	kind := models.OperationGetRowsSlice.String()

	return func(rs models.ResultSet) (*ColumnCounts[K], error) {
		counts := NewColumnCounts[K]()
		rows := 0

		for rs.Next() {
			row := rs.Row()
			key, err := typemapping.RowKey(row, keys)
			if err != nil {
				if e, ok := err.(*errors.Error); ok {
					e.WithDetail("row", rows)
				}
				return nil, err
			}

			if legacy {
				counts.Increment(key)
			} else {
				counts.Put(key, row.Len()-1)
			}
			rows++
		}
		if err := rs.Err(); err != nil {
			var typed *errors.Error
			if errors.As(err, &typed) {
				return nil, err
			}
			return nil, errors.Wrap(err, errors.ErrorTypeConnection, "result iteration failed")
		}

		metrics.AddRowsParsed(kind, mode.String(), rows)
		return counts, nil
	}
}
