package openlime

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/tiff"
)

// RasterFormat is the GPU pixel layout a [Raster] decodes into, per
// spec.md §3. Ebitengine has no native half-float or uint16 texture
// format, so rgba16f/rgb16ui rasters are decoded CPU-side and quantized to
// an ordinary RGBA8 "encoded" texture of the same size, 8 bits per channel;
// the 16-bit precision is not preserved (see DESIGN.md, raster.go).
type RasterFormat uint8

const (
	RasterVec3 RasterFormat = iota
	RasterVec4
	RasterFloat
	RasterRGBA16F
	RasterRGB16UI
)

// Colorspace selects how a Raster's samples are interpreted before
// shading.
type Colorspace uint8

const (
	ColorspaceLinear Colorspace = iota
	ColorspaceSRGB
)

// rasterTexture is the GPU texture handle stand-in a Raster produces: an
// ebiten.Image plus the metadata Cache needs for its byte-budget
// accounting.
type rasterTexture struct {
	image *ebiten.Image
	w, h  int
	bytes int64
}

// Raster is a per-channel image descriptor: it knows how to turn a
// fetched blob into a GPU texture matching its format, per spec.md §4.3.
// It owns no tiles — Layer owns the Tile.Textures slice a Raster fills.
type Raster struct {
	Format       RasterFormat
	Colorspace   Colorspace
	UseHalfFloat bool

	// DataLoader, if set, decodes HDR (16-bit) formats instead of the
	// built-in image/jpeg, image/png, golang.org/x/image/tiff decoders —
	// the injectable hook spec.md §4.3 names for formats with no stdlib
	// decoder (e.g. proprietary multispectral containers).
	DataLoader func(blob []byte) (*HDRImage, error)

	httpClient *http.Client
}

// HDRImage is the decoded result an injectable [Raster.DataLoader] yields:
// width, height, channel count, and raw samples in row-major order.
type HDRImage struct {
	Width, Height int
	Channels      int
	Data          []float32
}

// NewRaster creates a Raster for format/colorspace with the default HTTP
// client.
func NewRaster(format RasterFormat, cs Colorspace, useHalfFloat bool) *Raster {
	return &Raster{Format: format, Colorspace: cs, UseHalfFloat: useHalfFloat, httpClient: http.DefaultClient}
}

// LoadImage fetches url (honoring an embedded "#bytes=start-end" Range
// suffix written by the tarzoom/itarzoom layout backends, per spec.md
// §4.3 "optional byte-range requests"), decodes it per r.Format, and
// uploads it to a GPU texture. Returns the texture and its GPU-resident
// byte size. Fails with [RasterError] on decode/upload failure; the
// caller must not cache the tile on error.
func (r *Raster) LoadImage(url string) (*rasterTexture, int64, error) {
	blob, err := r.fetch(url)
	if err != nil {
		return nil, 0, &RasterError{URL: url, Err: err}
	}
	tex, size, err := r.BlobToImage(blob)
	if err != nil {
		return nil, 0, &RasterError{URL: url, Err: err}
	}
	return tex, size, nil
}

func (r *Raster) fetch(url string) ([]byte, error) {
	target := url
	var start, end int64 = -1, -1
	if i := strings.Index(url, "#bytes="); i >= 0 {
		target = url[:i]
		rng := url[i+len("#bytes="):]
		parts := strings.SplitN(rng, "-", 2)
		if len(parts) == 2 {
			start, _ = strconv.ParseInt(parts[0], 10, 64)
			end, _ = strconv.ParseInt(parts[1], 10, 64)
		}
	}
	client := r.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if start >= 0 && end >= start {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d fetching %s", resp.StatusCode, target)
	}
	return io.ReadAll(resp.Body)
}

// BlobToImage decodes an already-fetched blob into a GPU texture, used
// directly by the itarzoom path: the containing Layer fetches one blob
// per tile and slices it per channel via tile.Offsets before calling this
// once per Raster.
func (r *Raster) BlobToImage(blob []byte) (*rasterTexture, int64, error) {
	switch r.Format {
	case RasterRGBA16F, RasterRGB16UI:
		return r.decodeHDR(blob)
	default:
		return r.decodeStandard(blob)
	}
}

func (r *Raster) decodeStandard(blob []byte) (*rasterTexture, int64, error) {
	img, _, err := image.Decode(bytes.NewReader(blob))
	if err != nil {
		if tif, terr := tiff.Decode(bytes.NewReader(blob)); terr == nil {
			img = tif
		} else {
			return nil, 0, err
		}
	}
	eimg := ebiten.NewImageFromImage(img)
	b := img.Bounds()
	size := int64(b.Dx()) * int64(b.Dy()) * 4
	return &rasterTexture{image: eimg, w: b.Dx(), h: b.Dy(), bytes: size}, size, nil
}

// decodeHDR handles rgba16f/rgb16ui: either via an injected DataLoader or
// by decoding a 16-bit TIFF, then quantizes each sample to one 8-bit
// channel of a standard RGBA8 ebiten.Image ("encoded" texture).
func (r *Raster) decodeHDR(blob []byte) (*rasterTexture, int64, error) {
	var hdr *HDRImage
	if r.DataLoader != nil {
		h, err := r.DataLoader(blob)
		if err != nil {
			return nil, 0, err
		}
		hdr = h
	} else {
		img, err := tiff.Decode(bytes.NewReader(blob))
		if err != nil {
			return nil, 0, err
		}
		hdr = samplesFromImage(img)
	}
	encoded := encodeHalfFloatRGBA(hdr)
	eimg := ebiten.NewImageFromImage(encoded)
	size := int64(hdr.Width) * int64(hdr.Height) * 4
	return &rasterTexture{image: eimg, w: hdr.Width, h: hdr.Height, bytes: size}, size, nil
}

func samplesFromImage(img image.Image) *HDRImage {
	b := img.Bounds()
	out := &HDRImage{Width: b.Dx(), Height: b.Dy(), Channels: 4, Data: make([]float32, b.Dx()*b.Dy()*4)}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cr, cg, cb, ca := img.At(x, y).RGBA()
			out.Data[i] = float32(cr) / 65535
			out.Data[i+1] = float32(cg) / 65535
			out.Data[i+2] = float32(cb) / 65535
			out.Data[i+3] = float32(ca) / 65535
			i += 4
		}
	}
	return out
}

// encodeHalfFloatRGBA clamps each float32 sample to [0,1] and quantizes it
// to one byte of a standard image.RGBA of the same width and height, so it
// uploads as an ordinary RGBA8 ebiten.Image. Only the first four channels
// are kept; missing channels are written as 0.
func encodeHalfFloatRGBA(hdr *HDRImage) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, hdr.Width, hdr.Height))
	for y := 0; y < hdr.Height; y++ {
		for x := 0; x < hdr.Width; x++ {
			i := (y*hdr.Width + x) * hdr.Channels
			var px [4]uint8
			for c := 0; c < 4 && c < hdr.Channels; c++ {
				v := hdr.Data[i+c]
				if v < 0 {
					v = 0
				}
				if v > 1 {
					v = 1
				}
				px[c] = uint8(v * 255)
			}
			out.SetRGBA(x, y, color.RGBA{R: px[0], G: px[1], B: px[2], A: px[3]})
		}
	}
	return out
}
