// Package typemapping extracts typed values from positional result rows. It is
// the only place that knows the row key lives in column 0.
package typemapping

import (
	"github.com/ajitpratap0/widecol/pkg/errors"
	"github.com/ajitpratap0/widecol/pkg/models"
	"github.com/ajitpratap0/widecol/pkg/serializers"
)

// KeyColumn is the position of the row key in every row.
const KeyColumn = 0

// DynamicColumn decodes the column at index with d.
// A missing column or undecodable bytes yield a malformed_row error.
func DynamicColumn[K comparable](row models.Row, d serializers.Deserializer[K], index int) (K, error) {
	var zero K

	if row == nil {
		return zero, errors.New(errors.ErrorTypeMalformedRow, "row is nil")
	}
	if d == nil {
		return zero, errors.New(errors.ErrorTypeConfig, "no deserializer for column")
	}

	raw, ok := row.Column(index)
	if !ok {
		return zero, errors.Newf(errors.ErrorTypeMalformedRow, "column %d absent in row of %d columns", index, row.Len()).
			WithDetail("index", index)
	}

	v, err := d.Decode(raw)
	if err != nil {
		return zero, errors.Wrap(err, errors.ErrorTypeMalformedRow, "undecodable column").
			WithDetail("index", index).
			WithDetail("column", row.ColumnName(index)).
			WithDetail("type", d.Name())
	}
	return v, nil
}

// RowKey decodes the row key from column 0.
func RowKey[K comparable](row models.Row, d serializers.Deserializer[K]) (K, error) {
	return DynamicColumn(row, d, KeyColumn)
}
