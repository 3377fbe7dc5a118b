package openlime

import "testing"

func TestCameraDefaultsIdentity(t *testing.T) {
	cam := NewCamera(Viewport{DX: 800, DY: 600})
	cur := cam.GetCurrentTransform(0)
	if cur != IdentityTransform() {
		t.Errorf("expected identity transform, got %+v", cur)
	}
}

func TestCameraSetPositionCentersScenePoint(t *testing.T) {
	cam := NewCamera(Viewport{DX: 800, DY: 600})
	cam.SetPosition(0, 0, 100, 50, 2, 0)
	cur := cam.GetCurrentTransform(0)
	if !almostEqual(cur.Z, 2) {
		t.Errorf("expected zoom 2, got %v", cur.Z)
	}
	sx, sy := cur.MapToCanvas(100, 50, cam.Viewport)
	cx, cy := cam.Viewport.DX/2, cam.Viewport.DY/2
	if !almostEqual(sx, cx) || !almostEqual(sy, cy) {
		t.Errorf("expected scene point (100,50) centered at (%v,%v), mapped to (%v,%v)", cx, cy, sx, sy)
	}
}

func TestCameraSetPositionAnimatesOverTime(t *testing.T) {
	cam := NewCamera(Viewport{DX: 800, DY: 600})
	cam.SetPosition(0, 10, 0, 0, 1, 0)
	cam.SetPosition(0, 2, 100, 0, 1, 0)
	mid := cam.GetCurrentTransform(1)
	end := cam.GetCurrentTransform(2)
	if end.X == mid.X {
		t.Error("expected transform to keep moving between t=1 and t=2")
	}
	if !almostEqual(end.T, 2) {
		t.Errorf("expected end.T == 2, got %v", end.T)
	}
}

func TestCameraZoomClampedToLimits(t *testing.T) {
	cam := NewCamera(Viewport{DX: 800, DY: 600})
	cam.MaxZoom = 5
	cam.SetPosition(0, 0, 0, 0, 1000, 0)
	if got := cam.GetCurrentTransform(0).Z; got != 5 {
		t.Errorf("expected zoom clamped to MaxZoom=5, got %v", got)
	}
}

func TestCameraDeltaZoomKeepsScreenPointFixed(t *testing.T) {
	cam := NewCamera(Viewport{DX: 800, DY: 600})
	const screenX, screenY = 300.0, 200.0

	before := cam.GetCurrentTransform(0)
	sceneX, sceneY := before.MapToScene(screenX, screenY, cam.Viewport)

	cam.DeltaZoom(0, 0, 2, screenX, screenY)
	after := cam.GetCurrentTransform(0)

	sx, sy := after.MapToCanvas(sceneX, sceneY, cam.Viewport)
	if !almostEqual(sx, screenX) || !almostEqual(sy, screenY) {
		t.Errorf("expected screen point fixed at (%v,%v), got (%v,%v)", screenX, screenY, sx, sy)
	}
	if !almostEqual(after.Z, 2) {
		t.Errorf("expected zoom 2, got %v", after.Z)
	}
}

func TestCameraRotateAddsDegrees(t *testing.T) {
	cam := NewCamera(Viewport{DX: 800, DY: 600})
	cam.Rotate(0, 0, 90)
	if got := cam.GetCurrentTransform(0).A; !almostEqual(got, 0.25) {
		t.Errorf("expected A=0.25 turns for 90 degrees, got %v", got)
	}
}

func TestCameraFitContainChoosesSmallerScale(t *testing.T) {
	cam := NewCamera(Viewport{DX: 800, DY: 400})
	bb := NewBoundingBox(400, 400) // square into a 2:1 viewport
	cam.Fit(bb, 0, 0, FitContain)
	cur := cam.GetCurrentTransform(0)
	// Contain: limited by the shorter viewport axis (height).
	want := 400.0 / 400.0
	if !almostEqual(cur.Z, want) {
		t.Errorf("expected zoom %v, got %v", want, cur.Z)
	}
}

func TestCameraFitCoverChoosesLargerScale(t *testing.T) {
	cam := NewCamera(Viewport{DX: 800, DY: 400})
	bb := NewBoundingBox(400, 400)
	cam.Fit(bb, 0, 0, FitCover)
	cur := cam.GetCurrentTransform(0)
	want := 800.0 / 400.0
	if !almostEqual(cur.Z, want) {
		t.Errorf("expected zoom %v, got %v", want, cur.Z)
	}
}

func TestCameraBoundsClampsVisibleArea(t *testing.T) {
	cam := NewCamera(Viewport{DX: 800, DY: 600})
	cam.SetBounds(BoundingBox{XLow: -2000, YLow: -2000, XHigh: 2000, YHigh: 2000})
	cam.SetPosition(0, 0, 5000, 5000, 1, 0)

	vis := cam.VisibleBounds(0)
	// halfW=400, halfH=300 at zoom 1: the clamped center sits at
	// (bounds.XHigh-400, bounds.YHigh-300), so the visible range hugs the
	// bounds' upper edge exactly.
	if !almostEqual(vis.XHigh, 2000) || !almostEqual(vis.YHigh, 2000) {
		t.Errorf("expected visible area clamped to bounds' upper edge, got %+v", vis)
	}
	if vis.XLow < -2000-1e-6 || vis.YLow < -2000-1e-6 {
		t.Errorf("expected visible area within bounds, got %+v", vis)
	}
}

func TestCameraClearBoundsRemovesClamp(t *testing.T) {
	cam := NewCamera(Viewport{DX: 800, DY: 600})
	cam.SetBounds(BoundingBox{XLow: 0, YLow: 0, XHigh: 100, YHigh: 100})
	cam.ClearBounds()
	cam.SetPosition(0, 0, 1000, 1000, 1, 0)
	cur := cam.GetCurrentTransform(0)
	if !almostEqual(cur.Z, 1) {
		t.Errorf("expected unclamped zoom 1, got %v", cur.Z)
	}
	cx, cy := cur.MapToScene(cam.Viewport.DX/2, cam.Viewport.DY/2, cam.Viewport)
	if !almostEqual(cx, 1000) || !almostEqual(cy, 1000) {
		t.Errorf("expected unclamped center (1000,1000), got (%v,%v)", cx, cy)
	}
}

func TestCameraVisibleBoundsGrowsWhenZoomedOut(t *testing.T) {
	cam := NewCamera(Viewport{DX: 800, DY: 600})
	cam.SetPosition(0, 0, 0, 0, 0.5, 0)
	vis := cam.VisibleBounds(0)
	if vis.Width() < cam.Viewport.DX {
		t.Errorf("expected visible width to grow when zoomed out, got %v", vis.Width())
	}
}
