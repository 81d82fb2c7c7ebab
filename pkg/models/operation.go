// Package models defines the values exchanged between the query layer, the
// external driver and callers: queries, rows, result sets and the operation
// result envelope.
package models

import (
	"fmt"
	"time"
)

// OperationType tags an operation for instrumentation and driver retry policy.
type OperationType int

const (
	// OperationGetRow reads a single row
	OperationGetRow OperationType = iota + 1
	// OperationGetRowsSlice reads an explicit set of row keys
	OperationGetRowsSlice
	// OperationGetRowsRange reads a contiguous range of rows
	OperationGetRowsRange
	// OperationGetRowsByIndex reads rows through a secondary index
	OperationGetRowsByIndex
	// OperationGetColumnCount counts columns of a single row
	OperationGetColumnCount
	// OperationBatchMutate applies a mutation batch
	OperationBatchMutate
)

var operationNames = map[OperationType]string{
	OperationGetRow:         "get_row",
	OperationGetRowsSlice:   "get_rows_slice",
	OperationGetRowsRange:   "get_rows_range",
	OperationGetRowsByIndex: "get_rows_by_index",
	OperationGetColumnCount: "get_column_count",
	OperationBatchMutate:    "batch_mutate",
}

func (t OperationType) String() string {
	if name, ok := operationNames[t]; ok {
		return name
	}
	return fmt.Sprintf("operation(%d)", int(t))
}

// Valid reports whether t is one of the declared operation kinds.
func (t OperationType) Valid() bool {
	_, ok := operationNames[t]
	return ok
}

// Query is the payload submitted to the driver. The query layer treats it as
// opaque; it is produced by a query builder.
type Query struct {
	Statement string
	Args      []interface{}
	// Keyspace is informational, used in logs and spans
	Keyspace string
}

func (q Query) String() string {
	return q.Statement
}

// ExecutionInfo is the execution metadata reported by the driver for one
// submission.
type ExecutionInfo struct {
	// Host that served the query
	Host string
	// Attempts made by the driver, including the successful one
	Attempts int
	// Latency measured by the driver; zero when the driver does not measure it
	Latency time.Duration
}

// OperationResult wraps a parsed result with execution metadata.
type OperationResult[R any] struct {
	Result   R
	Host     string
	Latency  time.Duration
	Attempts int
}

// NewOperationResult builds an envelope from a parsed result and execution info.
// fallbackLatency is used when the driver did not report a latency.
func NewOperationResult[R any](result R, info ExecutionInfo, fallbackLatency time.Duration) *OperationResult[R] {
	latency := info.Latency
	if latency <= 0 {
		latency = fallbackLatency
	}
	attempts := info.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	return &OperationResult[R]{
		Result:   result,
		Host:     info.Host,
		Latency:  latency,
		Attempts: attempts,
	}
}
