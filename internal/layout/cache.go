package layout

type cacheKey struct {
	Name     string
	Strategy Strategy
}

type cacheEntry struct {
	Desc   TypeDescriptor
	Layout LayoutResult
	Err    *LayoutError
}

type cache struct {
	byKey map[cacheKey]*cacheEntry
}

func newCache() *cache {
	return &cache{byKey: make(map[cacheKey]*cacheEntry, 64)}
}

func (c *cache) get(key cacheKey) (*cacheEntry, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.byKey[key]
	return e, ok
}

func (c *cache) put(key cacheKey, e *cacheEntry) {
	if c == nil {
		return
	}
	if e == nil {
		delete(c.byKey, key)
		return
	}
	c.byKey[key] = e
}

func (c *cache) len() int {
	if c == nil {
		return 0
	}
	return len(c.byKey)
}
