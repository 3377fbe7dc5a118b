package openlime

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// deepzoomBackend speaks Microsoft DeepZoom (.dzi): a power-of-two
// single-directory pyramid addressed as
// <base>_files/<level>/<x>_<y>.<ext>, per spec.md §6. Grounded on the
// teacher's tilemap.go visible-tile-range math, generalized from one fixed
// grid to DeepZoom's per-level doubling pyramid.
type deepzoomBackend struct {
	base string
	ext  string
}

type dziImage struct {
	XMLName    xml.Name `xml:"Image"`
	Format     string   `xml:"Format,attr"`
	TileSize   int      `xml:"TileSize,attr"`
	Overlap    int      `xml:"Overlap,attr"`
	Size       dziSize  `xml:"Size"`
}

type dziSize struct {
	Width  int `xml:"Width,attr"`
	Height int `xml:"Height,attr"`
}

func (b *deepzoomBackend) parseManifest(l *Layout, body []byte) error {
	var dzi dziImage
	if err := xml.Unmarshal(body, &dzi); err != nil {
		return fmt.Errorf("dzi: %w", err)
	}
	if dzi.Size.Width <= 0 || dzi.Size.Height <= 0 {
		return fmt.Errorf("dzi: missing Size")
	}
	l.Width = dzi.Size.Width
	l.Height = dzi.Size.Height
	l.TileSize = dzi.TileSize
	l.Overlap = dzi.Overlap
	l.NLevels = l.computeNLevels()
	b.ext = dzi.Format
	if len(l.Urls) > 0 {
		b.base = strings.TrimSuffix(l.Urls[0], ".dzi") + "_files"
	}
	return nil
}

func (b *deepzoomBackend) tileURL(l *Layout, tile *Tile, samplerID int) string {
	ext := b.ext
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s/%d/%s_%s.%s", b.base, tile.Level,
		strconv.Itoa(tile.X), strconv.Itoa(tile.Y), ext)
}
