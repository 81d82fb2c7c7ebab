package reads

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnCounts(t *testing.T) {
	c := NewColumnCounts[string]()

	assert.Equal(t, 0, c.Get("missing"))
	_, ok := c.Lookup("missing")
	assert.False(t, ok)

	c.Put("acct_0", 3)
	c.Put("acct_0", 7)
	assert.Equal(t, 7, c.Get("acct_0"))

	assert.Equal(t, 1, c.Increment("acct_1"))
	assert.Equal(t, 2, c.Increment("acct_1"))

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 9, c.Total())

	keys := c.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"acct_0", "acct_1"}, keys)

	m := c.Map()
	m["acct_0"] = 100
	assert.Equal(t, 7, c.Get("acct_0"), "Map must return a copy")

	visited := 0
	c.Range(func(string, int) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}
