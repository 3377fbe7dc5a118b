package openlime

import (
	"fmt"
	"strings"
)

// googleBackend speaks the Google Maps-style pyramid:
// <base>/<level>/<y>/<x>.<ext>, fixed tileSize 256, per spec.md §6. Unlike
// DeepZoom, Google layouts have no manifest to fetch — width/height/
// nlevels must be supplied via [Layout.SetImageSize] before the layout can
// reach Ready; NewLayout only records the base URL and fetches nothing.
type googleBackend struct {
	base string
	ext  string
}

func (b *googleBackend) parseManifest(l *Layout, body []byte) error {
	l.TileSize = 256
	if len(l.Urls) > 0 {
		b.base = strings.TrimRight(l.Urls[0], "/")
	}
	b.ext = "jpg"
	if l.Width > 0 && l.Height > 0 {
		l.NLevels = l.computeNLevels()
	}
	return nil
}

func (b *googleBackend) tileURL(l *Layout, tile *Tile, samplerID int) string {
	return fmt.Sprintf("%s/%d/%d/%d.%s", b.base, tile.Level, tile.Y, tile.X, b.ext)
}
