package openlime

import "testing"

func TestNewLayerUnknownTypeErrors(t *testing.T) {
	if _, err := NewLayer(LayerOptions{Type: "nonexistent"}); err == nil {
		t.Fatal("expected error for unregistered layer type")
	}
}

func TestNewLayerImageBuiltinHasDefaultShader(t *testing.T) {
	l, err := NewLayer(LayerOptions{Type: "image", ID: "a", Label: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Shader == nil {
		t.Fatal("expected default shader")
	}
	if len(l.Rasters) != 1 {
		t.Errorf("expected 1 raster, got %d", len(l.Rasters))
	}
	if l.Transform != IdentityTransform() {
		t.Errorf("expected identity transform default, got %+v", l.Transform)
	}
}

func TestNewLayerRTIBuiltinSizesSamplersToPlanes(t *testing.T) {
	l, err := NewLayer(LayerOptions{Type: "rti"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(l.Rasters) != rtiPlanes[RTIModePTM] {
		t.Errorf("expected %d rasters, got %d", rtiPlanes[RTIModePTM], len(l.Rasters))
	}
	if len(l.Shader.Samplers) != rtiPlanes[RTIModePTM] {
		t.Errorf("expected %d samplers, got %d", rtiPlanes[RTIModePTM], len(l.Shader.Samplers))
	}
}

func TestDeriveSharesTilesAndLayout(t *testing.T) {
	l, _ := NewLayer(LayerOptions{Type: "image", ID: "base"})
	l.Layout = NewLayout("", LayoutImage)
	l.Layout.SetImageSize(100, 100, 256)
	l.tiles[tileIndex(0, 0, 0)] = &Tile{Index: tileIndex(0, 0, 0), Missing: 0}

	d := l.Derive(LayerOptions{ID: "derived", Label: "derived"})
	if d.Layout != l.Layout {
		t.Error("expected derived layer to share layout")
	}
	if !d.hasTile(tileIndex(0, 0, 0)) {
		t.Error("expected derived layer to see source layer's tiles")
	}
	if d.SourceLayer != l {
		t.Error("expected SourceLayer to point back at l")
	}
}

func TestDerivedLayerPrefetchIsNoop(t *testing.T) {
	l, _ := NewLayer(LayerOptions{Type: "image", ID: "base"})
	l.Layout = NewLayout("", LayoutImage)
	l.Layout.SetImageSize(2000, 2000, 256)
	d := l.Derive(LayerOptions{ID: "derived"})

	cache := NewCache(1 << 30, 4, 1<<29)
	vp := Viewport{DX: 800, DY: 600}
	d.Prefetch(IdentityTransform(), vp, 0, cache)
	if len(d.queue) != 0 {
		t.Errorf("expected derived layer prefetch to be a no-op, got queue of %d", len(d.queue))
	}
}

func TestLayerSetShaderRecomputesMissingCounts(t *testing.T) {
	l, _ := NewLayer(LayerOptions{Type: "image", ID: "a"})
	rtiShader := NewShaderRTI(RTIModePTM)
	l.AddShader("rti", rtiShader)
	idx := tileIndex(0, 0, 0)
	l.tiles[idx] = &Tile{Index: idx, Missing: 0, Textures: []*rasterTexture{{w: 1, h: 1}}}

	if err := l.SetShader("rti"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := rtiPlanes[RTIModePTM] - 1
	if l.tiles[idx].Missing != want {
		t.Errorf("expected missing=%d after shader switch, got %d", want, l.tiles[idx].Missing)
	}
}

func TestLayerSetShaderUnknownErrors(t *testing.T) {
	l, _ := NewLayer(LayerOptions{Type: "image"})
	if err := l.SetShader("nope"); err == nil {
		t.Fatal("expected error for unknown shader id")
	}
}

func TestLayerControlsRoundTrip(t *testing.T) {
	l, _ := NewLayer(LayerOptions{Type: "image"})
	l.AddControl("light", []float64{0, 0})
	l.SetControl("light", []float64{1, 1}, 0, 1, EasingLinear)

	done := l.InterpolateControls(0)
	if done {
		t.Error("expected not done immediately after retargeting over nonzero duration")
	}
	done = l.InterpolateControls(1)
	if !done {
		t.Error("expected done once now reaches target time")
	}
	v, settled := l.GetControl("light")
	if !settled || v[0] != 1 || v[1] != 1 {
		t.Errorf("expected settled [1,1], got %v settled=%v", v, settled)
	}
}

func TestLayerGetSetState(t *testing.T) {
	l, _ := NewLayer(LayerOptions{Type: "rti"})
	l.AddControl("light", []float64{0, 0})
	l.SetControl("light", []float64{0.5, 0.5}, 0, 0, EasingLinear)
	l.InterpolateControls(0)

	st := l.GetState(nil)
	if st.Mode != string(RTIModePTM) {
		t.Errorf("expected mode %q, got %q", RTIModePTM, st.Mode)
	}
	if st.Controls["light"][0] != 0.5 {
		t.Errorf("expected light[0]=0.5, got %v", st.Controls["light"])
	}

	st.Mode = string(RTIModeRGB)
	if err := l.SetState(st, 1, 0, EasingLinear); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Shader.Mode != string(RTIModeRGB) {
		t.Errorf("expected mode switched to rgb, got %q", l.Shader.Mode)
	}
}

func TestLayerQueueFrontSkipsRequested(t *testing.T) {
	l, _ := NewLayer(LayerOptions{Type: "image"})
	t1 := &Tile{Index: tileIndex(0, 0, 0)}
	t2 := &Tile{Index: tileIndex(0, 1, 0)}
	l.queue = []*Tile{t1, t2}
	l.requested[t1.Index] = true

	front := l.queueFront()
	if front != t2 {
		t.Errorf("expected queueFront to skip requested tile and return t2, got %+v", front)
	}
}

func TestLayerOldestResidentIgnoresIncomplete(t *testing.T) {
	l, _ := NewLayer(LayerOptions{Type: "image"})
	l.tiles[tileIndex(0, 0, 0)] = &Tile{Index: tileIndex(0, 0, 0), Missing: 1, Time: 1}
	l.tiles[tileIndex(0, 1, 0)] = &Tile{Index: tileIndex(0, 1, 0), Missing: 0, Time: 5}
	l.tiles[tileIndex(0, 2, 0)] = &Tile{Index: tileIndex(0, 2, 0), Missing: 0, Time: 2}

	oldest := l.oldestResident()
	if oldest == nil || oldest.Time != 2 {
		t.Errorf("expected oldest resident tile with Time=2, got %+v", oldest)
	}
}

func TestRegisterLayerTypeDuplicatePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on duplicate layer type registration")
		}
	}()
	RegisterLayerType("image", newImageLayer)
}
