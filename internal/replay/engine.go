package replay

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

// indexedSource is a private, timestamp-sorted copy of a DataSource.
// Sorting is stable, so entries with equal timestamps keep arrival order.
type indexedSource struct {
	positions []EntityPosition
	zoneAudit []ZoneAuditEntry
	events    []GeoEvent
	bounds    TimeRange
}

func indexSource(src DataSource) *indexedSource {
	ds := &indexedSource{
		positions: append(make([]EntityPosition, 0, len(src.EntityHistory)), src.EntityHistory...),
		zoneAudit: append(make([]ZoneAuditEntry, 0, len(src.ZoneAuditLog)), src.ZoneAuditLog...),
		events:    append(make([]GeoEvent, 0, len(src.EventLog)), src.EventLog...),
		bounds:    TimeRange{Start: src.StartTime, End: src.EndTime},
	}
	slices.SortStableFunc(ds.positions, func(a, b EntityPosition) int { return a.Timestamp.Compare(b.Timestamp) })
	slices.SortStableFunc(ds.zoneAudit, func(a, b ZoneAuditEntry) int { return a.Timestamp.Compare(b.Timestamp) })
	slices.SortStableFunc(ds.events, func(a, b GeoEvent) int { return a.Timestamp.Compare(b.Timestamp) })
	return ds
}

// CacheStats reports frame cache activity since the last load.
type CacheStats struct {
	Size     int `json:"size"`
	Capacity int `json:"capacity"`
	Hits     int `json:"hits"`
	Misses   int `json:"misses"`
}

// Engine reconstructs frames from a loaded dataset.
//
// Thread-safety: all methods are safe for concurrent use. Reconstruction is
// serialized under the engine lock.
type Engine struct {
	mu     sync.Mutex
	source *indexedSource
	cache  *frameCache
	hits   int
	misses int
	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCacheCapacity sets the frame cache bound. Values < 1 fall back to
// DefaultCacheCapacity.
func WithCacheCapacity(n int) EngineOption {
	return func(e *Engine) {
		if n < 1 {
			n = DefaultCacheCapacity
		}
		e.cache = newFrameCache(n)
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine with no dataset loaded.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		cache:  newFrameCache(DefaultCacheCapacity),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadData replaces the dataset wholesale and clears the frame cache.
// The engine keeps its own copy of the slices; the caller's DataSource is
// not retained or modified.
func (e *Engine) LoadData(src DataSource) {
	ds := indexSource(src)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.source = ds
	e.cache.clear()
	e.hits, e.misses = 0, 0

	e.logger.Debug("replay dataset loaded",
		"positions", len(ds.positions),
		"zone_audit", len(ds.zoneAudit),
		"events", len(ds.events),
		"start", ds.bounds.Start,
		"end", ds.bounds.End,
	)
}

// Loaded reports whether a dataset is loaded.
func (e *Engine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source != nil
}

// FrameAt returns the frame at ts, or nil if no dataset is loaded.
// The returned frame is shared and must not be mutated.
func (e *Engine) FrameAt(ts time.Time) *Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameAtLocked(ts)
}

func (e *Engine) frameAtLocked(ts time.Time) *Frame {
	if e.source == nil {
		e.logger.Warn("replay frame requested with no dataset loaded", "at", ts)
		return nil
	}

	key := cacheKey(ts)
	if f, ok := e.cache.get(key); ok {
		e.hits++
		return f
	}

	e.misses++
	f := reconstruct(e.source, ts)
	e.cache.put(key, f)
	return f
}

// FramesInRange returns frames at start, start+interval, ... up to and
// including end. It returns an empty slice when no dataset is loaded, when
// start is after end, or when interval is not positive.
func (e *Engine) FramesInRange(start, end time.Time, interval time.Duration) []*Frame {
	if interval <= 0 {
		e.logger.Warn("replay frame range requested with non-positive interval", "interval", interval)
		return []*Frame{}
	}
	if start.After(end) {
		return []*Frame{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == nil {
		e.logger.Warn("replay frame range requested with no dataset loaded", "start", start, "end", end)
		return []*Frame{}
	}

	frames := make([]*Frame, 0, rangeCapacity(start, end, interval))
	for ts := start; !ts.After(end); ts = ts.Add(interval) {
		frames = append(frames, e.frameAtLocked(ts))
	}
	return frames
}

// rangeCapacity is the preallocation for a range of frames. It stops at
// DefaultCacheCapacity; longer ranges grow by append. end.Sub saturates
// for spans beyond about 292 years, so the step count is compared before
// it is converted and incremented.
func rangeCapacity(start, end time.Time, interval time.Duration) int {
	steps := end.Sub(start) / interval
	if steps >= DefaultCacheCapacity {
		return DefaultCacheCapacity
	}
	return int(steps) + 1
}

// TimeRange returns the loaded dataset's bounds.
func (e *Engine) TimeRange() (TimeRange, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.source == nil {
		return TimeRange{}, false
	}
	return e.source.bounds, true
}

// ClearCache drops all cached frames. The dataset is untouched.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.clear()
}

// CacheStats returns a snapshot of cache counters.
func (e *Engine) CacheStats() CacheStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return CacheStats{
		Size:     e.cache.len(),
		Capacity: e.cache.capacity,
		Hits:     e.hits,
		Misses:   e.misses,
	}
}
