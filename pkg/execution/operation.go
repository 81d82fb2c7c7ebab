// Package execution runs operations against a driver. It owns the one code
// path that turns a submitted query into a parsed, enveloped result, and uses
// it for both blocking and non-blocking execution.
package execution

import (
	"strings"

	"github.com/ajitpratap0/widecol/pkg/errors"
	"github.com/ajitpratap0/widecol/pkg/models"
)

// ParseFunc turns a result set into a result. It must only touch its own call
// frame, since the async path runs it on a goroutine chosen at completion.
type ParseFunc[R any] func(models.ResultSet) (R, error)

// Operation binds an operation kind, a query and the parser for its result.
// It is an immutable value; build one per call.
type Operation[R any] struct {
	kind  models.OperationType
	query models.Query
	parse ParseFunc[R]
}

// NewOperation creates an operation.
func NewOperation[R any](kind models.OperationType, query models.Query, parse ParseFunc[R]) Operation[R] {
	return Operation[R]{kind: kind, query: query, parse: parse}
}

// Kind returns the operation kind
func (op Operation[R]) Kind() models.OperationType { return op.kind }

// Query returns the query payload
func (op Operation[R]) Query() models.Query { return op.query }

// Parse applies the operation's parser to rs.
func (op Operation[R]) Parse(rs models.ResultSet) (R, error) {
	return op.parse(rs)
}

// Validate reports configuration errors detectable before submission.
func (op Operation[R]) Validate() error {
	if !op.kind.Valid() {
		return errors.Newf(errors.ErrorTypeConfig, "unknown operation kind %d", int(op.kind))
	}
	if strings.TrimSpace(op.query.Statement) == "" {
		return errors.New(errors.ErrorTypeConfig, "operation has an empty statement").
			WithDetail("operation", op.kind.String())
	}
	if op.parse == nil {
		return errors.New(errors.ErrorTypeConfig, "operation has no result parser").
			WithDetail("operation", op.kind.String())
	}
	return nil
}
