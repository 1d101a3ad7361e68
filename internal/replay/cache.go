package replay

import "time"

// DefaultCacheCapacity bounds the number of cached frames.
const DefaultCacheCapacity = 100

// cacheKey serializes a query timestamp. Equal instants map to the same key
// regardless of location.
//
// The key is the requested instant, not the instant of the last record at
// or before it. Two queries between the same pair of records build equal
// frames that differ only in Timestamp, so they are cached separately.
// Playback ticks rarely repeat an instant; seeks and range scans at a fixed
// interval do, and those are the calls the cache serves.
func cacheKey(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}

// frameCache is a bounded insertion-order cache. Reads do not refresh an
// entry's position; the oldest insertion is evicted first.
//
// Callers hold the engine mutex. Cached frames are shared with callers and
// must not be mutated after put.
type frameCache struct {
	capacity int
	frames   map[string]*Frame
	order    []string
}

func newFrameCache(capacity int) *frameCache {
	return &frameCache{
		capacity: capacity,
		frames:   make(map[string]*Frame, capacity),
		order:    make([]string, 0, capacity),
	}
}

func (c *frameCache) get(key string) (*Frame, bool) {
	f, ok := c.frames[key]
	return f, ok
}

// put stores f under key. An existing key is never overwritten.
func (c *frameCache) put(key string, f *Frame) {
	if _, exists := c.frames[key]; exists {
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order[0] = ""
		c.order = c.order[1:]
		delete(c.frames, oldest)
	}
	c.order = append(c.order, key)
	c.frames[key] = f
}

func (c *frameCache) clear() {
	c.frames = make(map[string]*Frame, c.capacity)
	c.order = make([]string, 0, c.capacity)
}

func (c *frameCache) len() int {
	return len(c.order)
}
