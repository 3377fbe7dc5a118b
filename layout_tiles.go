package openlime

import "fmt"

// tilesBackend covers two untiled-manifest formats from spec.md §3: a
// single whole image (LayoutImage, one "tile" at level 0 covering the
// entire picture) and tiles-with-locations (LayoutTiles), explicit
// per-tile world-space placement used by image mosaics — a feature named
// only in passing by the distilled spec ("tiles-with-locations") and
// supplemented here from the OpenLIME original's Layout.js "tiles" type.
// Neither has a manifest to fetch: geometry arrives via [Layout.SetImageSize]
// or [Layout.SetTileLocations].
type tilesBackend struct {
	base      string
	ext       string
	locations map[TileIndex]TileLocation
}

// TileLocation describes one mosaic tile of a LayoutTiles layout. Only URL
// is read, by tileURL; SceneX, SceneY, Width and Height are stored but
// TileCoords, Needed and Available do not consult them and use the regular
// grid math.
type TileLocation struct {
	Level  int
	X, Y   int
	SceneX float64
	SceneY float64
	Width  float64
	Height float64
	URL    string
}

func (b *tilesBackend) parseManifest(l *Layout, body []byte) error {
	if len(l.Urls) > 0 {
		b.base = l.Urls[0]
	}
	b.ext = "jpg"
	if l.Type == LayoutImage {
		l.TileSize = maxInt(l.Width, l.Height)
		l.NLevels = 1
	}
	return nil
}

// SetTileLocations supplies the explicit placements for a LayoutTiles
// layout and marks it Ready.
func (l *Layout) SetTileLocations(width, height int, locs []TileLocation) {
	tb, ok := l.backend.(*tilesBackend)
	if !ok {
		return
	}
	tb.locations = make(map[TileIndex]TileLocation, len(locs))
	for _, loc := range locs {
		tb.locations[tileIndex(loc.Level, loc.X, loc.Y)] = loc
	}
	l.Width, l.Height = width, height
	l.TileSize = 0
	l.NLevels = 1
	l.Status = LayoutReady
	l.Signals.Emit(SignalUpdateSize)
	l.Signals.Emit(SignalReady)
}

func (b *tilesBackend) tileURL(l *Layout, tile *Tile, samplerID int) string {
	if loc, ok := b.locations[tile.Index]; ok && loc.URL != "" {
		return loc.URL
	}
	return fmt.Sprintf("%s.%s", b.base, b.ext)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
