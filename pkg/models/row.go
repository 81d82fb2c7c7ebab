package models

// Row is one physical row of a result set: positional columns, the first of
// which holds the row key.
type Row interface {
	// Len returns the number of columns present in the row
	Len() int
	// Column returns the raw bytes at position i and whether it exists.
	// A present column may hold a nil value.
	Column(i int) ([]byte, bool)
	// ColumnName returns the column label at position i, or "" when unknown
	ColumnName(i int) string
}

// ResultSet is the tabular response to a query, consumed once.
type ResultSet interface {
	// Next advances to the next row in driver order
	Next() bool
	// Row returns the current row; valid until the next call to Next
	Row() Row
	// Err returns the first iteration error
	Err() error
	// Info returns the execution metadata for the submission
	Info() ExecutionInfo
}

// All drains rs into a slice of rows.
func All(rs ResultSet) ([]Row, error) {
	var rows []Row
	for rs.Next() {
		rows = append(rows, rs.Row())
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// BasicRow is a Row backed by slices, used by drivers that materialize rows.
type BasicRow struct {
	Names  []string
	Values [][]byte
}

// NewBasicRow creates a row from raw column values.
func NewBasicRow(names []string, values ...[]byte) *BasicRow {
	return &BasicRow{Names: names, Values: values}
}

// Len implements Row
func (r *BasicRow) Len() int { return len(r.Values) }

// Column implements Row
func (r *BasicRow) Column(i int) ([]byte, bool) {
	if i < 0 || i >= len(r.Values) {
		return nil, false
	}
	return r.Values[i], true
}

// ColumnName implements Row
func (r *BasicRow) ColumnName(i int) string {
	if i < 0 || i >= len(r.Names) {
		return ""
	}
	return r.Names[i]
}

// SliceResultSet is a ResultSet over materialized rows.
type SliceResultSet struct {
	rows []Row
	pos  int
	info ExecutionInfo
	err  error
}

// NewSliceResultSet creates a result set yielding rows in order.
func NewSliceResultSet(info ExecutionInfo, rows ...Row) *SliceResultSet {
	return &SliceResultSet{rows: rows, pos: -1, info: info}
}

// WithErr makes iteration stop with err after the rows are exhausted.
func (s *SliceResultSet) WithErr(err error) *SliceResultSet {
	s.err = err
	return s
}

// Next implements ResultSet
func (s *SliceResultSet) Next() bool {
	if s.pos+1 >= len(s.rows) {
		s.pos = len(s.rows)
		return false
	}
	s.pos++
	return true
}

// Row implements ResultSet
func (s *SliceResultSet) Row() Row {
	if s.pos < 0 || s.pos >= len(s.rows) {
		return nil
	}
	return s.rows[s.pos]
}

// Err implements ResultSet
func (s *SliceResultSet) Err() error {
	if s.pos >= len(s.rows) {
		return s.err
	}
	return nil
}

// Info implements ResultSet
func (s *SliceResultSet) Info() ExecutionInfo { return s.info }
