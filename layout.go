package openlime

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LayoutType selects which tile pyramid wire format a [Layout] speaks.
// Closed tagged union per the teacher's Design-Note reframing of the
// original's string-typed dynamic dispatch: each value has exactly one
// layoutBackend implementation, chosen once in [NewLayout].
type LayoutType string

const (
	LayoutImage    LayoutType = "image"
	LayoutDeepzoom LayoutType = "deepzoom"
	LayoutGoogle   LayoutType = "google"
	LayoutZoomify  LayoutType = "zoomify"
	LayoutIIIF     LayoutType = "iiif"
	LayoutTarzoom  LayoutType = "tarzoom"
	LayoutItarzoom LayoutType = "itarzoom"
	// LayoutTiles is "tiles-with-locations": explicit per-tile world-space
	// placement used by image mosaics, present in the OpenLIME original but
	// only mentioned in passing by the distilled spec.
	LayoutTiles LayoutType = "tiles-with-locations"
)

// LayoutStatus is a Layout's manifest-resolution state machine: pending
// until SetUrls' async fetch completes, ready thereafter and immutable on
// its geometry fields from that point on.
type LayoutStatus string

const (
	LayoutPending LayoutStatus = "pending"
	LayoutReady   LayoutStatus = "ready"
)

// TileIndex is an opaque identifier unique within one Layout, computed from
// (level, x, y). Packed rather than hashed so [Layout.Index] is a true
// bijection (testable property 3): 8 bits of level, 28 bits of x, 28 of y.
type TileIndex uint64

func tileIndex(level, x, y int) TileIndex {
	return TileIndex(level)<<56 | TileIndex(uint32(x))<<28 | TileIndex(uint32(y))
}

// Tile is one pyramid cell: identity, GPU-resident textures (one per
// Raster/sampler), and the bookkeeping Cache and Layer need to schedule and
// draw it. Per spec.md §3.
type Tile struct {
	Index TileIndex
	Level int
	X, Y  int

	Textures []*rasterTexture
	Missing  int
	Size     int64
	Time     float64
	Priority int
	W, H     int

	// tarzoom/itarzoom byte-range addressing; zero for every other format.
	Start   int64
	End     int64
	Offsets []int64

	complete bool // set by Layout.Available when drawn as an incomplete ancestor stand-in
}

// TileQuad is the scene-space quad and UV coordinates for one tile,
// returned by [Layout.TileCoords]: 4 vertices, counter-clockwise, UVs in
// [0, 1].
type TileQuad struct {
	Coords  [12]float64 // 4 vertices x (x, y, z)
	TCoords [8]float64  // 4 vertices x (u, v)
}

// layoutBackend is implemented once per wire-format family (layout_*.go).
// parseManifest fills in the owning Layout's geometry from a fetched
// manifest body (a no-op for untiled/tiles-with-locations formats, which
// carry their geometry in the Layout options directly). tileURL builds the
// fetch URL for one tile's samplerID-th channel.
type layoutBackend interface {
	parseManifest(l *Layout, body []byte) error
	tileURL(l *Layout, tile *Tile, samplerID int) string
}

// manifestCache caches fetched manifest bytes by URL so repeated SetUrls
// calls with the same manifest (the "idempotent urls rebinding" invariant
// in spec.md §4.2) don't refetch; the bytes are parsed again on every
// resolution. Shared across all Layouts in a process,
// grounded on the retrieval pack's tile-cache precedent (golang-lru used to
// cache decoded/parsed tile resources) rather than the teacher, which has
// no manifest concept at all.
var manifestCache *lru.Cache[string, []byte]

func init() {
	manifestCache, _ = lru.New[string, []byte](64)
}

// Layout maps (level, x, y) tile coordinates to wire URLs and scene-space
// quads, per spec.md §3/§4.2.
type Layout struct {
	Type     LayoutType
	Width    int
	Height   int
	TileSize int
	Overlap  int
	NLevels  int
	Status   LayoutStatus
	Urls     []string

	Signals Signals

	backend    layoutBackend
	httpClient *http.Client

	mu  sync.Mutex
	err error
}

// NewLayout creates a Layout of the given type bound to url, in Pending
// status. For manifest formats a non-empty url starts manifest resolution
// immediately through [Layout.SetUrls]; for LayoutGoogle, LayoutImage and
// LayoutTiles there is no manifest to fetch and the Layout reaches Ready
// synchronously once dimensions are supplied via
// [Layout.SetImageSize]/[Layout.SetTileLocations].
func NewLayout(url string, typ LayoutType) *Layout {
	l := &Layout{
		Type:       typ,
		Status:     LayoutPending,
		httpClient: http.DefaultClient,
	}
	switch typ {
	case LayoutDeepzoom:
		l.backend = &deepzoomBackend{}
	case LayoutGoogle:
		l.backend = &googleBackend{}
	case LayoutZoomify:
		l.backend = &zoomifyBackend{}
	case LayoutIIIF:
		l.backend = &iiifBackend{}
	case LayoutTarzoom:
		l.backend = &tarzoomBackend{interleaved: false}
	case LayoutItarzoom:
		l.backend = &tarzoomBackend{interleaved: true}
	case LayoutTiles, LayoutImage:
		l.backend = &tilesBackend{}
	default:
		l.backend = &tilesBackend{}
	}
	if url != "" {
		switch typ {
		case LayoutGoogle, LayoutImage, LayoutTiles:
			// No manifest to fetch: bind the base URL synchronously and
			// wait for SetImageSize/SetTileLocations to reach Ready.
			l.Urls = []string{url}
			_ = l.backend.parseManifest(l, nil)
		default:
			l.SetUrls([]string{url})
		}
	}
	return l
}

// SetUrls (re)binds the Layout's manifest URLs and asynchronously resolves
// them. Emits [SignalUpdateSize] once Width/Height/NLevels are known, then
// [SignalReady]. A failed fetch or parse emits nothing and records the
// failure (retrievable as a [*LayoutError] from [Layout.Err]); per spec.md
// §7 this is fatal for the layout.
func (l *Layout) SetUrls(urls []string) {
	l.Urls = urls
	if len(urls) == 0 {
		return
	}
	go l.resolve(urls[0])
}

func (l *Layout) resolve(url string) {
	body, cached := manifestCache.Get(url)
	if !cached {
		fetched, err := l.fetch(url)
		if err != nil {
			l.fail(err)
			return
		}
		body = fetched
		manifestCache.Add(url, body)
	}
	if err := l.backend.parseManifest(l, body); err != nil {
		l.fail(err)
		return
	}
	l.mu.Lock()
	l.Status = LayoutReady
	l.mu.Unlock()
	l.Signals.Emit(SignalUpdateSize)
	l.Signals.Emit(SignalReady)
}

func (l *Layout) fetch(url string) ([]byte, error) {
	resp, err := l.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d fetching %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

func (l *Layout) fail(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
	debugf("layout %s: %v", l.Type, err)
}

// Err returns the error, if any, recorded by a failed manifest resolution.
func (l *Layout) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err == nil {
		return nil
	}
	return &LayoutError{Layout: l, Err: l.err}
}

// SetImageSize is used by the untiled-image and tiles-with-locations
// backends (which have no manifest to fetch) to supply geometry directly
// and reach Ready synchronously.
func (l *Layout) SetImageSize(width, height, tileSize int) {
	l.Width, l.Height, l.TileSize = width, height, tileSize
	l.NLevels = l.computeNLevels()
	l.Status = LayoutReady
	l.Signals.Emit(SignalUpdateSize)
	l.Signals.Emit(SignalReady)
}

func (l *Layout) computeNLevels() int {
	if l.TileSize <= 0 {
		return 1
	}
	maxSide := l.Width
	if l.Height > maxSide {
		maxSide = l.Height
	}
	n := 1
	for (maxSide >> uint(n)) > l.TileSize {
		n++
	}
	return n
}

// BoundingBox returns the scene-space extent (0, 0, width, height) for
// canonical orientation, per spec.md §4.2.
func (l *Layout) BoundingBox() BoundingBox {
	return NewBoundingBox(float64(l.Width), float64(l.Height))
}

// TileSizeOf returns the base tile size in pixels.
func (l *Layout) TileSizeOf() int { return l.TileSize }

// Index computes the opaque TileIndex for (level, x, y); pure, and a
// bijection into valid indices for that level (testable property 3).
func (l *Layout) Index(level, x, y int) TileIndex { return tileIndex(level, x, y) }

// levelScale returns how many full-resolution pixels one pixel at level
// covers: 2^(maxLevel-level).
func (l *Layout) levelScale(level int) int {
	maxLevel := l.NLevels - 1
	if maxLevel < 0 {
		maxLevel = 0
	}
	shift := maxLevel - level
	if shift < 0 {
		shift = 0
	}
	return 1 << uint(shift)
}

// levelSize returns the pixel dimensions of the full image at level.
func (l *Layout) levelSize(level int) (w, h int) {
	scale := l.levelScale(level)
	w = (l.Width + scale - 1) / scale
	h = (l.Height + scale - 1) / scale
	return
}

// tilesAcross returns how many tile columns/rows level has.
func (l *Layout) tilesAcross(level int) (cols, rows int) {
	w, h := l.levelSize(level)
	ts := l.TileSize
	if ts <= 0 {
		ts = w
		if h > ts {
			ts = h
		}
		if ts <= 0 {
			ts = 1
		}
	}
	cols = (w + ts - 1) / ts
	rows = (h + ts - 1) / ts
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return
}

// tileDims returns the (possibly partial, edge-clamped) pixel dimensions of
// tile (level, x, y).
func (l *Layout) tileDims(level, x, y int) (w, h int) {
	lw, lh := l.levelSize(level)
	ts := l.TileSize
	w = ts
	if x*ts+w > lw {
		w = lw - x*ts
	}
	h = ts
	if y*ts+h > lh {
		h = lh - y*ts
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return
}

// TileCoords returns the scene-space quad and texture coordinates for tile,
// positioning it at (x*tileSize, y*tileSize) scaled to full-resolution
// pixels, with counter-clockwise winding and UVs in [0, 1] accounting for
// overlap, per spec.md §4.2.
func (l *Layout) TileCoords(t *Tile) TileQuad {
	scale := float64(l.levelScale(t.Level))
	ts := float64(l.TileSize)
	ov := float64(l.Overlap)
	w, h := l.tileDims(t.Level, t.X, t.Y)

	x0 := float64(t.X)*ts*scale - ov*scale*boolF(t.X > 0)
	y0 := float64(t.Y)*ts*scale - ov*scale*boolF(t.Y > 0)
	x1 := x0 + float64(w)*scale + ov*scale*boolF(t.X > 0)
	y1 := y0 + float64(h)*scale + ov*scale*boolF(t.Y > 0)

	var uv0, uv1 float64 = 0, 1
	if l.Overlap > 0 && w > 0 {
		uv0 = ov / float64(w+2*l.Overlap)
		uv1 = 1 - uv0
	}

	return TileQuad{
		Coords: [12]float64{
			x0, y1, 0,
			x1, y1, 0,
			x1, y0, 0,
			x0, y0, 0,
		},
		TCoords: [8]float64{
			uv0, uv1,
			uv1, uv1,
			uv1, uv0,
			uv0, uv0,
		},
	}
}

func boolF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// chosenLevel picks the pyramid level whose native pixel density best
// matches screen density, per spec.md §4.2: bias shifts toward lower
// resolution (coarser level) when mipmapBias >= 1, higher when <= 0.
func (l *Layout) chosenLevel(z, mipmapBias float64) int {
	maxLevel := l.NLevels - 1
	if maxLevel < 0 {
		return 0
	}
	level := maxLevel + int(math.Floor(math.Log2(z)-mipmapBias))
	if level < 0 {
		level = 0
	}
	if level > maxLevel {
		level = maxLevel
	}
	return level
}

// visibleTileRange returns the [xmin,xmax]x[ymin,ymax] tile range at level
// whose quads intersect sceneBB, edge-clamped to the level's grid — the
// same clamping shape as the teacher's tilemap.go update()'s buffer-range
// computation, generalized from a fixed tile size to a per-level one.
func (l *Layout) visibleTileRange(level int, sceneBB BoundingBox) (x0, y0, x1, y1 int) {
	scale := float64(l.levelScale(level))
	ts := float64(l.TileSize) * scale
	cols, rows := l.tilesAcross(level)
	x0 = int(math.Floor(sceneBB.XLow / ts))
	y0 = int(math.Floor(sceneBB.YLow / ts))
	x1 = int(math.Ceil(sceneBB.XHigh / ts))
	y1 = int(math.Ceil(sceneBB.YHigh / ts))
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > cols {
		x1 = cols
	}
	if y1 > rows {
		y1 = rows
	}
	return
}

// Needed returns an ordered list of Tiles to fetch for the given camera/
// layer transforms and viewport, per spec.md §4.2: visible tiles at the
// chosen level first (closest to viewport center first), then the
// prefetch-border ring. Tiles already in existing with Missing == 0 are
// skipped.
func (l *Layout) Needed(vp Viewport, cameraT, layerT Transform, prefetchBorder float64, mipmapBias float64, existing map[TileIndex]*Tile) []*Tile {
	if l.Status != LayoutReady {
		return nil
	}
	combined := cameraT.Compose(layerT)
	level := l.chosenLevel(combined.Z, mipmapBias)

	visible := combined.VisibleSceneBounds(vp)
	scale := float64(l.levelScale(level))
	border := prefetchBorder * float64(l.TileSize) * scale
	expanded := visible.Expand(border)

	x0, y0, x1, y1 := l.visibleTileRange(level, expanded)
	cx := (visible.XLow + visible.XHigh) / 2
	cy := (visible.YLow + visible.YHigh) / 2
	ts := float64(l.TileSize) * scale

	var out []*Tile
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			idx := l.Index(level, x, y)
			if ex, ok := existing[idx]; ok && ex.Missing == 0 {
				continue
			}
			tcx := (float64(x)+0.5)*ts - cx
			tcy := (float64(y)+0.5)*ts - cy
			dist := tcx*tcx + tcy*tcy
			w, h := l.tileDims(level, x, y)
			out = append(out, &Tile{
				Index:    idx,
				Level:    level,
				X:        x,
				Y:        y,
				Missing:  1,
				Priority: int(-dist), // decreasing priority with distance; refined below
				W:        w,
				H:        h,
			})
		}
	}
	sortTilesByDistance(out, cx, cy, ts)
	// Tiles of the visible range keep their distance order ahead of the
	// prefetch-border ring.
	vx0, vy0, vx1, vy1 := l.visibleTileRange(level, visible)
	ordered := make([]*Tile, 0, len(out))
	for _, ring := range []bool{false, true} {
		for _, t := range out {
			inRing := t.X < vx0 || t.X >= vx1 || t.Y < vy0 || t.Y >= vy1
			if inRing == ring {
				ordered = append(ordered, t)
			}
		}
	}
	out = ordered
	for i := range out {
		out[i].Priority = len(out) - i
	}
	return out
}

func sortTilesByDistance(tiles []*Tile, cx, cy, ts float64) {
	dist := func(t *Tile) float64 {
		tcx := (float64(t.X)+0.5)*ts - cx
		tcy := (float64(t.Y)+0.5)*ts - cy
		return tcx*tcx + tcy*tcy
	}
	// insertion sort: tile counts per frame are small (tens), matching the
	// teacher's own insertion-sort choice for per-frame child ordering in
	// render.go's rebuildSortedChildren.
	for i := 1; i < len(tiles); i++ {
		j := i
		for j > 0 && dist(tiles[j-1]) > dist(tiles[j]) {
			tiles[j-1], tiles[j] = tiles[j], tiles[j-1]
			j--
		}
	}
}

// Available returns the Tiles to actually draw this frame, per spec.md
// §4.2: for each visible leaf tile at the chosen level, walk up the
// ancestor chain until a tile with Missing == 0 is found, marking it
// complete = false if any leaf sibling is still loading.
func (l *Layout) Available(vp Viewport, cameraT, layerT Transform, depth int, mipmapBias float64, existing map[TileIndex]*Tile) []*Tile {
	if l.Status != LayoutReady {
		return nil
	}
	combined := cameraT.Compose(layerT)
	level := l.chosenLevel(combined.Z, mipmapBias)
	visible := combined.VisibleSceneBounds(vp)
	x0, y0, x1, y1 := l.visibleTileRange(level, visible)

	seen := make(map[TileIndex]bool)
	var out []*Tile
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			lvl, lx, ly := level, x, y
			allComplete := true
			for lvl >= 0 {
				idx := l.Index(lvl, lx, ly)
				if t, ok := existing[idx]; ok && t.Missing == 0 {
					t.complete = allComplete
					if !seen[idx] {
						seen[idx] = true
						out = append(out, t)
					}
					break
				}
				allComplete = false
				lvl--
				lx /= 2
				ly /= 2
			}
		}
	}
	return out
}
