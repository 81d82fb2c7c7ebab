// Package query builds the statements submitted for row-slice reads. It only
// knows key lists; predicates and token ranges are out of its scope.
package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ajitpratap0/widecol/pkg/config"
	"github.com/ajitpratap0/widecol/pkg/errors"
	"github.com/ajitpratap0/widecol/pkg/models"
)

// Dialect controls identifier quoting and placeholders.
type Dialect int

const (
	// DialectPostgres quotes with "" and numbers placeholders $1, $2, ...
	DialectPostgres Dialect = iota
	// DialectMySQL quotes with `` and uses ? placeholders
	DialectMySQL
	// DialectSQLite quotes with "" and uses ? placeholders
	DialectSQLite
)

// DialectFor returns the dialect for a registered driver name.
func DialectFor(driverName string) Dialect {
	switch driverName {
	case "mysql":
		return DialectMySQL
	case "sqlite":
		return DialectSQLite
	default:
		return DialectPostgres
	}
}

func (d Dialect) quote(ident string) string {
	if d == DialectMySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// RowSlice describes a read of an explicit set of row keys.
type RowSlice struct {
	Keyspace string
	Table    string
	// KeyColumn holds the row key; it is always selected first
	KeyColumn string
	// ColumnNameColumn holds the legacy column name in legacy layout
	ColumnNameColumn string
	// Columns restricts native reads to these payload columns; empty selects all
	Columns []string
	Mode    config.RowMode
	Dialect Dialect
}

// NewRowSlice creates a row-slice description with the key column names from cfg.
func NewRowSlice(cfg *config.Config, table string) RowSlice {
	return RowSlice{
		Keyspace:         cfg.Driver.Keyspace,
		Table:            table,
		KeyColumn:        cfg.Reads.KeyColumn,
		ColumnNameColumn: cfg.Reads.ColumnNameColumn,
		Mode:             cfg.Reads.RowMode,
		Dialect:          DialectFor(cfg.Driver.Name),
	}
}

func (rs RowSlice) validate() error {
	idents := []string{rs.Table, rs.KeyColumn}
	if rs.Keyspace != "" {
		idents = append(idents, rs.Keyspace)
	}
	if rs.Mode.IsLegacy() {
		idents = append(idents, rs.ColumnNameColumn)
	}
	idents = append(idents, rs.Columns...)

	for _, id := range idents {
		if !identPattern.MatchString(id) {
			return errors.Newf(errors.ErrorTypeConfig, "invalid identifier %q", id)
		}
	}
	if !rs.Mode.Valid() {
		return errors.Newf(errors.ErrorTypeConfig, "invalid row mode %q", rs.Mode)
	}
	return nil
}

// Build renders the statement for keys. With no keys, every row is read.
//
// Native layout selects the key followed by the payload columns; with no
// explicit columns it selects *, which requires the key to be the table's
// first column. Legacy layout selects the key and the column-name clustering
// column, one physical row per column.
func Build[K comparable](rs RowSlice, keys ...K) (models.Query, error) {
	if err := rs.validate(); err != nil {
		return models.Query{}, err
	}

	d := rs.Dialect
	var sb strings.Builder
	sb.WriteString("SELECT ")

	switch {
	case rs.Mode.IsLegacy():
		sb.WriteString(d.quote(rs.KeyColumn))
		sb.WriteString(", ")
		sb.WriteString(d.quote(rs.ColumnNameColumn))
	case len(rs.Columns) > 0:
		sb.WriteString(d.quote(rs.KeyColumn))
		for _, c := range rs.Columns {
			sb.WriteString(", ")
			sb.WriteString(d.quote(c))
		}
	default:
		sb.WriteString("*")
	}

	sb.WriteString(" FROM ")
	if rs.Keyspace != "" {
		sb.WriteString(d.quote(rs.Keyspace))
		sb.WriteString(".")
	}
	sb.WriteString(d.quote(rs.Table))

	args := make([]interface{}, 0, len(keys))
	if len(keys) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(d.quote(rs.KeyColumn))
		sb.WriteString(" IN (")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.placeholder(i + 1))
			args = append(args, k)
		}
		sb.WriteString(")")
	}

	return models.Query{
		Statement: sb.String(),
		Args:      args,
		Keyspace:  rs.Keyspace,
	}, nil
}
