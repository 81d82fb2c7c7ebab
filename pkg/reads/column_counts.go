package reads

// ColumnCounts maps row keys to column counts. Each key appears once.
// It is not safe for concurrent mutation; a parse owns its instance until it
// returns it.
type ColumnCounts[K comparable] struct {
	m map[K]int
}

// NewColumnCounts creates an empty container.
func NewColumnCounts[K comparable]() *ColumnCounts[K] {
	return &ColumnCounts[K]{m: make(map[K]int)}
}

// Put stores n for key, replacing any prior count.
func (c *ColumnCounts[K]) Put(key K, n int) {
	c.m[key] = n
}

// Increment adds one to key's count and returns the new count.
func (c *ColumnCounts[K]) Increment(key K) int {
	c.m[key]++
	return c.m[key]
}

// Get returns key's count, or 0 for an absent key.
func (c *ColumnCounts[K]) Get(key K) int {
	return c.m[key]
}

// Lookup returns key's count and whether key is present.
func (c *ColumnCounts[K]) Lookup(key K) (int, bool) {
	n, ok := c.m[key]
	return n, ok
}

// Len returns the number of keys.
func (c *ColumnCounts[K]) Len() int {
	return len(c.m)
}

// Keys returns the keys in no particular order.
func (c *ColumnCounts[K]) Keys() []K {
	keys := make([]K, 0, len(c.m))
	for k := range c.m {
		keys = append(keys, k)
	}
	return keys
}

// Range calls fn for each entry until fn returns false.
func (c *ColumnCounts[K]) Range(fn func(key K, count int) bool) {
	for k, n := range c.m {
		if !fn(k, n) {
			return
		}
	}
}

// Map returns a copy of the entries.
func (c *ColumnCounts[K]) Map() map[K]int {
	out := make(map[K]int, len(c.m))
	for k, n := range c.m {
		out[k] = n
	}
	return out
}

// Total returns the sum of all counts.
func (c *ColumnCounts[K]) Total() int {
	total := 0
	for _, n := range c.m {
		total += n
	}
	return total
}
