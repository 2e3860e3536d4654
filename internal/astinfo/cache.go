package astinfo

// MaxCacheEntries bounds the process-wide info cache. On overflow the
// whole cache is dropped rather than evicting piecemeal; records are
// cheap to rebuild and the cap is generous.
const MaxCacheEntries = 14000

// Cache memoises Records by AST structural hash. Entries are owned by
// the cache; callers must not hold records across an Invalidate.
type Cache struct {
	entries map[uint64]*Record

	hits   uint64
	misses uint64
	drops  uint64
}

func NewCache() *Cache {
	return &Cache{entries: make(map[uint64]*Record)}
}

// Get returns the cached record for the hash, if any.
func (c *Cache) Get(hash uint64) (*Record, bool) {
	r, ok := c.entries[hash]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return r, ok
}

// Put stores a record, dropping the whole cache first if it is full.
func (c *Cache) Put(hash uint64, r *Record) {
	if len(c.entries) >= MaxCacheEntries {
		c.entries = make(map[uint64]*Record)
		c.drops++
	}
	c.entries[hash] = r
}

// Invalidate empties the cache. Called when a new univocally-defined
// input is discovered, since every cached UD split may now be stale.
func (c *Cache) Invalidate() {
	c.entries = make(map[uint64]*Record)
	c.drops++
}

// Len returns the number of live entries.
func (c *Cache) Len() int { return len(c.entries) }

// Stats returns cumulative hit/miss/drop counters.
func (c *Cache) Stats() (hits, misses, drops uint64) {
	return c.hits, c.misses, c.drops
}
