package openlime

import (
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEncodeHalfFloatRGBAPacksAllChannels(t *testing.T) {
	hdr := &HDRImage{Width: 2, Height: 1, Channels: 4, Data: []float32{
		0, 0.5, 1, 1,
		1, 1, 1, 1,
	}}
	img := encodeHalfFloatRGBA(hdr)
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 1 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	r, g, b, a := img.At(0, 0).RGBA()
	if r != 0 {
		t.Errorf("expected r=0, got %v", r)
	}
	if b == 0 || a == 0 {
		t.Errorf("expected b,a near max, got b=%v a=%v", b, a)
	}
	_ = g
}

func TestSamplesFromImageDimensions(t *testing.T) {
	hdr := samplesFromImage(image.NewRGBA(image.Rect(0, 0, 4, 3)))
	if hdr.Width != 4 || hdr.Height != 3 || hdr.Channels != 4 {
		t.Fatalf("unexpected dimensions %dx%dx%d", hdr.Width, hdr.Height, hdr.Channels)
	}
	if hdr.Width*hdr.Height*hdr.Channels != len(hdr.Data) {
		t.Fatal("sample count does not match dimensions")
	}
}

func TestRasterFetchParsesByteRangeSuffix(t *testing.T) {
	var gotRange, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotRange = req.Header.Get("Range")
		gotPath = req.URL.Path
	}))
	defer srv.Close()

	r := NewRaster(RasterVec3, ColorspaceLinear, false)
	if _, err := r.fetch(srv.URL + "/img.tzb#bytes=100-199"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotRange != "bytes=100-199" {
		t.Errorf("expected Range header bytes=100-199, got %q", gotRange)
	}
	if gotPath != "/img.tzb" {
		t.Errorf("expected suffix stripped from request path, got %q", gotPath)
	}
}
