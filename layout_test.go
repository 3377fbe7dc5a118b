package openlime

import "testing"

func TestLayoutIndexIsBijection(t *testing.T) {
	seen := make(map[TileIndex]bool)
	for level := 0; level < 4; level++ {
		for x := 0; x < 8; x++ {
			for y := 0; y < 8; y++ {
				idx := tileIndex(level, x, y)
				if seen[idx] {
					t.Fatalf("collision at level=%d x=%d y=%d -> %d", level, x, y, idx)
				}
				seen[idx] = true
			}
		}
	}
}

func TestLayoutTileCoordsWindingAndUV(t *testing.T) {
	l := &Layout{Type: LayoutImage, TileSize: 256}
	l.SetImageSize(512, 512, 256)
	tile := &Tile{Level: l.NLevels - 1, X: 0, Y: 0}
	q := l.TileCoords(tile)
	for _, uv := range q.TCoords {
		if uv < 0 || uv > 1 {
			t.Errorf("uv out of [0,1]: %v", uv)
		}
	}
	// Counter-clockwise in a y-down scene space: (x0,y1) -> (x1,y1) -> (x1,y0) -> (x0,y0).
	if q.Coords[0] >= q.Coords[3] {
		t.Error("expected first vertex left of second")
	}
	if q.Coords[1] <= q.Coords[10] {
		t.Error("expected first vertex below last (y1 > y0)")
	}
}

func TestDeepzoomBackendParsesManifest(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<Image TileSize="254" Overlap="1" Format="jpg" xmlns="http://schemas.microsoft.com/deepzoom/2008">
  <Size Width="4096" Height="2048"/>
</Image>`)
	l := &Layout{Type: LayoutDeepzoom, Urls: []string{"https://example.org/x.dzi"}}
	b := &deepzoomBackend{}
	if err := b.parseManifest(l, body); err != nil {
		t.Fatalf("parseManifest: %v", err)
	}
	if l.Width != 4096 || l.Height != 2048 {
		t.Fatalf("unexpected size %dx%d", l.Width, l.Height)
	}
	if l.TileSize != 254 || l.Overlap != 1 {
		t.Errorf("unexpected tile params %+v", l)
	}
	tile := &Tile{Level: l.NLevels - 1, X: 1, Y: 2}
	url := b.tileURL(l, tile, 0)
	want := "https://example.org/x_files/" + itoa(tile.Level) + "/1_2.jpg"
	if url != want {
		t.Errorf("tileURL = %q, want %q", url, want)
	}
}

func TestZoomifyTileGroupAdvancesEvery256Tiles(t *testing.T) {
	l := &Layout{Type: LayoutZoomify, Width: 8192, Height: 8192, TileSize: 256, NLevels: 6}
	b := &zoomifyBackend{base: "https://example.org/img", ext: "jpg"}
	tile := &Tile{Level: 5, X: 0, Y: 0}
	g0 := b.tileGroup(l, tile)
	tile2 := &Tile{Level: 5, X: 31, Y: 7} // tile 255 of level 5, after 341 tiles in coarser levels
	g1 := b.tileGroup(l, tile2)
	if g1 <= g0 {
		t.Errorf("expected tile group to advance, got g0=%d g1=%d", g0, g1)
	}
}

func TestTarzoomBackendParsesManifestAndBuildsRangeURL(t *testing.T) {
	body := []byte(`{
		"width": 1024, "height": 1024, "tilesize": 256, "nlevels": 3,
		"archive": "https://example.org/img.tzb",
		"tiles": [{"level": 2, "x": 0, "y": 0, "start": 100, "end": 199, "offsets": [0, 33, 66]}]
	}`)
	l := &Layout{Type: LayoutItarzoom}
	b := &tarzoomBackend{interleaved: true}
	if err := b.parseManifest(l, body); err != nil {
		t.Fatalf("parseManifest: %v", err)
	}
	tile := &Tile{Index: tileIndex(2, 0, 0), Level: 2, X: 0, Y: 0}
	url := b.tileURL(l, tile, 0)
	if url != "https://example.org/img.tzb#bytes=100-199" {
		t.Errorf("unexpected url %q", url)
	}
	if len(tile.Offsets) != 3 {
		t.Errorf("expected 3 channel offsets recorded on tile, got %v", tile.Offsets)
	}
}

func TestLayoutNeededSkipsFullyLoadedTiles(t *testing.T) {
	l := &Layout{Type: LayoutImage, TileSize: 256}
	l.SetImageSize(1024, 1024, 256)
	vp := Viewport{DX: 512, DY: 512}
	cam := IdentityTransform()
	layer := IdentityTransform()
	first := l.Needed(vp, cam, layer, 0, 0, nil)
	if len(first) == 0 {
		t.Fatal("expected at least one needed tile")
	}
	existing := map[TileIndex]*Tile{}
	for _, t2 := range first {
		t2.Missing = 0
		existing[t2.Index] = t2
	}
	second := l.Needed(vp, cam, layer, 0, 0, existing)
	if len(second) != 0 {
		t.Errorf("expected no tiles needed once all resident, got %d", len(second))
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
