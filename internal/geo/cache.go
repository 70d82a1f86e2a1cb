package geo

import "sync"

// Cache memoizes geocoding and routing results for the lifetime of its owner.
// The address space of one batch is bounded by the spreadsheet size, so there
// is no eviction. Safe for concurrent readers during fan-out lookups.
type Cache struct {
	mu     sync.RWMutex
	coords map[string]Point
	dist   map[string]float64
}

// Point is a geocoded coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

func NewCache() *Cache {
	return &Cache{
		coords: map[string]Point{},
		dist:   map[string]float64{},
	}
}

func (c *Cache) point(address string) (Point, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.coords[address]
	return p, ok
}

func (c *Cache) setPoint(address string, p Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coords[address] = p
}

func (c *Cache) distance(key string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.dist[key]
	return d, ok
}

func (c *Cache) setDistance(key string, km float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dist[key] = km
}
