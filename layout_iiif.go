package openlime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// iiifBackend speaks the IIIF Image API: info.json supplies dimensions and
// a tiles array; requests follow <base>/<region>/<size>/<rot>/<quality>.<ext>
// per spec.md §6, level-0+ profile (no rotation/quality variation used
// here — always "0"/"default").
type iiifBackend struct {
	base string
	ext  string
}

type iiifInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Tiles  []struct {
		Width        int   `json:"width"`
		Height       int   `json:"height"`
		ScaleFactors []int `json:"scaleFactors"`
	} `json:"tiles"`
}

func (b *iiifBackend) parseManifest(l *Layout, body []byte) error {
	var info iiifInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return fmt.Errorf("iiif info.json: %w", err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return fmt.Errorf("iiif: missing width/height")
	}
	l.Width, l.Height = info.Width, info.Height
	if len(info.Tiles) > 0 {
		l.TileSize = info.Tiles[0].Width
		l.NLevels = len(info.Tiles[0].ScaleFactors)
	} else {
		l.TileSize = 512
		l.NLevels = l.computeNLevels()
	}
	if len(l.Urls) > 0 {
		b.base = strings.TrimSuffix(l.Urls[0], "/info.json")
	}
	b.ext = "jpg"
	return nil
}

func (b *iiifBackend) tileURL(l *Layout, tile *Tile, samplerID int) string {
	scale := l.levelScale(tile.Level)
	x0 := tile.X * l.TileSize * scale
	y0 := tile.Y * l.TileSize * scale
	w, h := l.tileDims(tile.Level, tile.X, tile.Y)
	region := fmt.Sprintf("%d,%d,%d,%d", x0, y0, w*scale, h*scale)
	size := fmt.Sprintf("%d,%d", w, h)
	return fmt.Sprintf("%s/%s/%s/0/default.%s", b.base, region, size, b.ext)
}
