package openlime

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// zoomifyBackend speaks Zoomify's fixed-level pyramid:
// <base>/TileGroup<n>/<level>-<x>-<y>.<ext> with an ImageProperties.xml
// manifest, per spec.md §6. TileGroup numbering packs tiles sequentially
// across all levels (256 tiles per group by Zoomify convention); computed
// from the cumulative tile count of every coarser level.
type zoomifyBackend struct {
	base string
	ext  string
}

type zoomifyProperties struct {
	XMLName  xml.Name `xml:"IMAGE_PROPERTIES"`
	Width    int      `xml:"WIDTH,attr"`
	Height   int      `xml:"HEIGHT,attr"`
	TileSize int      `xml:"TILESIZE,attr"`
}

func (b *zoomifyBackend) parseManifest(l *Layout, body []byte) error {
	var p zoomifyProperties
	if err := xml.Unmarshal(body, &p); err != nil {
		return fmt.Errorf("zoomify: %w", err)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("zoomify: missing WIDTH/HEIGHT")
	}
	l.Width, l.Height, l.TileSize = p.Width, p.Height, p.TileSize
	l.NLevels = l.computeNLevels()
	if len(l.Urls) > 0 {
		b.base = strings.TrimSuffix(l.Urls[0], "/ImageProperties.xml")
	}
	b.ext = "jpg"
	return nil
}

func (b *zoomifyBackend) tileURL(l *Layout, tile *Tile, samplerID int) string {
	group := b.tileGroup(l, tile)
	return fmt.Sprintf("%s/TileGroup%d/%d-%d-%d.%s", b.base, group, tile.Level, tile.X, tile.Y, b.ext)
}

// tileGroup replicates Zoomify's sequential tile numbering: tiles are
// counted level-by-level from the coarsest (level 0), 256 tiles per group.
func (b *zoomifyBackend) tileGroup(l *Layout, tile *Tile) int {
	count := 0
	for lvl := 0; lvl < tile.Level; lvl++ {
		cols, rows := l.tilesAcross(lvl)
		count += cols * rows
	}
	cols, _ := l.tilesAcross(tile.Level)
	count += tile.Y*cols + tile.X
	return count / 256
}
