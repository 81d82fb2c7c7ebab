package models

import (
	"github.com/ajitpratap0/widecol/pkg/serializers"
)

// ColumnFamily names a table and carries the deserializer for its row keys.
type ColumnFamily[K comparable] struct {
	Name          string
	KeySerializer serializers.Deserializer[K]
}

// NewColumnFamily creates a column family descriptor.
func NewColumnFamily[K comparable](name string, keys serializers.Deserializer[K]) ColumnFamily[K] {
	return ColumnFamily[K]{Name: name, KeySerializer: keys}
}
