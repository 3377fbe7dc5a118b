package openlime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// tarzoomBackend speaks the two archive-packed formats from spec.md §6: a
// .tzi manifest enumerates per-tile byte ranges into a single .tzb archive;
// requests use HTTP Range. tarzoom stores one channel's bytes per range
// (one manifest/archive pair per Raster); itarzoom interleaves all
// channels into one range, sliced by per-channel Offsets recorded in the
// manifest (scenario C in spec.md §8).
type tarzoomBackend struct {
	interleaved bool
	archiveURL  string
	entries     map[TileIndex]tzEntry
}

type tzEntry struct {
	start   int64
	end     int64
	offsets []int64
}

type tzManifest struct {
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	TileSize int        `json:"tilesize"`
	Overlap  int        `json:"overlap"`
	NLevels  int        `json:"nlevels"`
	Archive  string     `json:"archive"`
	Tiles    []tzTileJS `json:"tiles"`
}

type tzTileJS struct {
	Level   int     `json:"level"`
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Start   int64   `json:"start"`
	End     int64   `json:"end"`
	Offsets []int64 `json:"offsets,omitempty"`
}

func (b *tarzoomBackend) parseManifest(l *Layout, body []byte) error {
	var m tzManifest
	if err := json.Unmarshal(body, &m); err != nil {
		return fmt.Errorf("tarzoom manifest: %w", err)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("tarzoom: missing width/height")
	}
	l.Width, l.Height, l.TileSize, l.Overlap, l.NLevels = m.Width, m.Height, m.TileSize, m.Overlap, m.NLevels
	if l.NLevels == 0 {
		l.NLevels = l.computeNLevels()
	}
	b.archiveURL = m.Archive
	if b.archiveURL == "" && len(l.Urls) > 0 {
		b.archiveURL = strings.TrimSuffix(l.Urls[0], ".tzi") + ".tzb"
	}
	b.entries = make(map[TileIndex]tzEntry, len(m.Tiles))
	for _, jt := range m.Tiles {
		idx := tileIndex(jt.Level, jt.X, jt.Y)
		b.entries[idx] = tzEntry{start: jt.Start, end: jt.End, offsets: jt.Offsets}
	}
	return nil
}

// tileURL returns a Range-request URL of the form "<archive>#bytes=start-end"
// — the HTTP Range header itself is applied by the Cache's fetch code path
// (Raster.LoadImage), which parses this suffix back out; samplerID is
// unused for itarzoom (one range yields every channel) and selects a
// distinct per-channel manifest/archive pair for tarzoom in a multi-Raster
// Layer (not modeled here: single-archive layers only, the common case).
func (b *tarzoomBackend) tileURL(l *Layout, tile *Tile, samplerID int) string {
	e, ok := b.entries[tile.Index]
	if !ok {
		return ""
	}
	tile.Start, tile.End, tile.Offsets = e.start, e.end, e.offsets
	return fmt.Sprintf("%s#bytes=%d-%d", b.archiveURL, e.start, e.end)
}
