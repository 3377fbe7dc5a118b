package openlime

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Cache is the process-wide fetch scheduler and GPU-memory budget from
// spec.md §3/§4.5: an ordered fetch queue across every registered Layer, a
// cap on concurrent in-flight fetches, and LRU-by-priority eviction when
// admitting a new tile would exceed Capacity. Per Design Note "Global
// singletons", it is an explicit dependency-injected service carried on
// [Canvas] rather than a package-level global; tests construct their own.
//
// Concurrency cap is enforced by [golang.org/x/sync/semaphore.Weighted]
// instead of a hand-rolled counter+channel; at-most-once per (layer,
// TileIndex) is enforced by [golang.org/x/sync/singleflight.Group]
// (testable property 6). Tile fetches run on goroutines launched by
// [Cache.dispatch]; completions are delivered back onto the render-loop
// goroutine through a buffered channel drained at the top of
// [Cache.Update], matching the "goroutine + channel stands in for the
// browser's microtask queue" design in SPEC_FULL.md §7.
type Cache struct {
	Capacity    int64
	Size        int64
	MaxRequest  int
	Requested   int
	MaxPrefetch int64
	Prefetched  int64

	Signals Signals

	layers      []*Layer
	sem         *semaphore.Weighted
	sf          singleflight.Group
	completions chan tileCompletion
}

type tileCompletion struct {
	layer *Layer
	tile  *Tile
	err   error
}

// NewCache creates a Cache with the given GPU-memory budget and
// concurrency cap.
func NewCache(capacity int64, maxRequest int, maxPrefetch int64) *Cache {
	return &Cache{
		Capacity:    capacity,
		MaxRequest:  maxRequest,
		MaxPrefetch: maxPrefetch,
		sem:         semaphore.NewWeighted(int64(maxRequest)),
		completions: make(chan tileCompletion, 256),
	}
}

// SetCandidates registers layer as contributing fetch candidates this
// frame; idempotent (per spec.md §4.5), in layer-registration order so tie
// breaking among empty layers is deterministic (Design Note decision,
// since the tie-break when several layers are all empty is unspecified).
func (c *Cache) SetCandidates(layer *Layer) {
	for _, l := range c.layers {
		if l == layer {
			return
		}
	}
	c.layers = append(c.layers, layer)
}

// Update drains completed fetches, then dispatches new ones while
// Requested < MaxRequest: it picks the best load candidate across all
// registered layers, evicts worst-priority resident tiles if admitting it
// would exceed Capacity, and fires the fetch. Deferred to run once per
// frame after every visible layer's prefetch has refreshed its queue
// (Canvas.Draw calls this exactly once per frame), the Go-native
// equivalent of the spec's "deferred to the next microtask" batching.
func (c *Cache) Update() {
	c.drainCompletions()
	for c.Requested < c.MaxRequest {
		layer, tile := c.bestToLoad()
		if tile == nil {
			return
		}
		if c.Size+tile.estimatedSize() > c.Capacity {
			if !c.evictForRoom(tile) {
				return
			}
		}
		c.dispatch(layer, tile)
	}
}

// bestToLoad implements spec.md §4.5's candidate-selection policy: across
// layers, take the first tile in each layer's queue (the freshest-demand
// end), then pick the one with the most recent Time, tie-broken by higher
// Priority.
func (c *Cache) bestToLoad() (*Layer, *Tile) {
	var bestLayer *Layer
	var best *Tile
	for _, layer := range c.layers {
		cand := layer.queueFront()
		if cand == nil {
			continue
		}
		if best == nil || cand.Time > best.Time ||
			(cand.Time == best.Time && cand.Priority > best.Priority) {
			best, bestLayer = cand, layer
		}
	}
	return bestLayer, best
}

// worstResident implements spec.md §4.5's eviction-candidate policy:
// across layers, the resident tile with smallest Time per layer, then
// smallest Priority across those, ties broken by oldest Time.
func (c *Cache) worstResident() (*Layer, *Tile) {
	var worstLayer *Layer
	var worst *Tile
	for _, layer := range c.layers {
		cand := layer.oldestResident()
		if cand == nil {
			continue
		}
		if worst == nil || cand.Priority < worst.Priority ||
			(cand.Priority == worst.Priority && cand.Time < worst.Time) {
			worst, worstLayer = cand, layer
		}
	}
	return worstLayer, worst
}

// evictForRoom drops worst-priority resident tiles until there is room for
// candidate or the best eviction candidate has a strictly higher Priority
// than it (spec.md §4.5: "stop" condition), returning false if room could
// not be made.
func (c *Cache) evictForRoom(candidate *Tile) bool {
	for c.Size+candidate.estimatedSize() > c.Capacity {
		layer, worst := c.worstResident()
		if worst == nil || worst.Priority > candidate.Priority {
			return false
		}
		c.dropTile(layer, worst)
	}
	return true
}

// dispatch marks tile in flight and launches its fetch goroutine, bounded
// by the semaphore and deduplicated by singleflight keyed on
// (layer pointer identity, TileIndex) — testable property 6.
func (c *Cache) dispatch(layer *Layer, tile *Tile) {
	c.Requested++
	layer.markRequested(tile.Index)
	key := fmt.Sprintf("%p:%d", layer, tile.Index)
	go func() {
		_, err, _ := c.sf.Do(key, func() (any, error) {
			if err := c.sem.Acquire(context.Background(), 1); err != nil {
				return nil, err
			}
			defer c.sem.Release(1)
			return nil, layer.loadTile(tile)
		})
		c.completions <- tileCompletion{layer: layer, tile: tile, err: err}
	}()
}

// drainCompletions applies every fetch result queued since the last call,
// without blocking. A completion for a tile the layer no longer tracks
// (dropped while in flight) is discarded, per spec.md §5's "a tile whose
// fetch completes after it has been dropped... must be discarded".
func (c *Cache) drainCompletions() {
	for {
		select {
		case comp := <-c.completions:
			c.Requested--
			comp.layer.clearRequested(comp.tile.Index)
			if comp.err != nil {
				debugf("tile %d fetch failed: %v", comp.tile.Index, comp.err)
				comp.layer.forgetTile(comp.tile.Index)
				continue
			}
			if !comp.layer.hasTile(comp.tile.Index) {
				releaseTileTextures(comp.tile)
				continue
			}
			c.Size += comp.tile.estimatedSize()
			comp.layer.Signals.Emit(SignalUpdate)
		default:
			return
		}
	}
}

// dropTile releases tile's textures, subtracts its size from Size, and
// removes it from layer's tiles map, per spec.md §4.5. A dropped tile that
// later completes its in-flight fetch is discarded by drainCompletions.
func (c *Cache) dropTile(layer *Layer, tile *Tile) {
	releaseTileTextures(tile)
	c.Size -= tile.estimatedSize()
	if c.Size < 0 {
		c.Size = 0
	}
	layer.forgetTile(tile.Index)
}

// Flush drops every resident tile across every registered layer.
func (c *Cache) Flush() {
	for _, layer := range c.layers {
		c.FlushLayer(layer)
	}
}

// FlushLayer drops every resident tile belonging to layer.
func (c *Cache) FlushLayer(layer *Layer) {
	for _, tile := range layer.residentTiles() {
		c.dropTile(layer, tile)
	}
}

func releaseTileTextures(t *Tile) {
	t.Textures = nil
}

func (t *Tile) estimatedSize() int64 {
	if t.Size > 0 {
		return t.Size
	}
	return int64(t.W) * int64(t.H) * 4
}
