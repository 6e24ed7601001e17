package path

import "sync"

// Cache holds the computed geometries of one document's paths, keyed by
// element id. Geometry is computed once per id; subsequent lookups
// share the result. Safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	byID  map[string]*PathGeometry
	fault map[string]error
}

// NewCache creates an empty geometry cache.
func NewCache() *Cache {
	return &Cache{
		byID:  make(map[string]*PathGeometry),
		fault: make(map[string]error),
	}
}

// Geometry returns the geometry for a path id, computing it from d on
// first request. A failed computation is cached too, so a broken path
// reports the same error for every textPath referencing it.
func (c *Cache) Geometry(id, d string) (*PathGeometry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pg, ok := c.byID[id]; ok {
		return pg, nil
	}
	if err, ok := c.fault[id]; ok {
		return nil, err
	}
	pg, err := FromSVGPath(d)
	if err != nil {
		c.fault[id] = err
		return nil, err
	}
	c.byID[id] = pg
	return pg, nil
}
