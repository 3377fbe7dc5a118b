package openlime

import "math"

// FitMode selects how [Camera.Fit] scales a bounding box into the viewport.
type FitMode uint8

const (
	// FitContain scales so the whole box is visible, letterboxed if its
	// aspect ratio differs from the viewport's.
	FitContain FitMode = iota
	// FitCover scales so the box fills the viewport, cropping whichever
	// axis overflows.
	FitCover
)

// Camera controls the view into the scene: it holds a source/target
// [Transform] pair and interpolates between them over time, generalizing
// the teacher's scrollTween (camera.go) from a position-only tween to the
// full X/Y/Z/A pose, matching spec.md §4.7.
//
// Camera never reads a wall clock itself — every method that advances the
// camera takes the caller's current time explicitly, keeping the type pure
// and deterministic to test, same as [Transform] and [Control].
type Camera struct {
	Viewport Viewport
	Easing   Easing

	MinZoom, MaxZoom float64

	// Bounded restricts the visible scene area to Bounds; see
	// [Camera.SetBounds].
	Bounded bool
	Bounds  BoundingBox

	source Transform
	target Transform

	Signals Signals
}

// NewCamera creates a camera at the identity transform for the given
// viewport, with generous default zoom limits.
func NewCamera(viewport Viewport) *Camera {
	identity := IdentityTransform()
	return &Camera{
		Viewport: viewport,
		Easing:   EasingEaseOut,
		MinZoom:  0.01,
		MaxZoom:  100,
		source:   identity,
		target:   identity,
	}
}

// GetCurrentTransform returns the camera's pose at time now, interpolating
// between source and target. Pure: calling it repeatedly with the same now
// returns the same result without side effects.
func (c *Camera) GetCurrentTransform(now float64) Transform {
	return Interpolate(c.source, c.target, now, c.Easing)
}

// SetBounds restricts the camera so its visible scene area stays within
// bb. Disable with [Camera.ClearBounds].
func (c *Camera) SetBounds(bb BoundingBox) {
	c.Bounded = true
	c.Bounds = bb
}

// ClearBounds removes any bounds restriction set by [Camera.SetBounds].
func (c *Camera) ClearBounds() {
	c.Bounded = false
}

// SetPosition begins animating the camera, over dt seconds starting at now,
// to center scene point (x, y) at zoom z (clamped to [MinZoom, MaxZoom])
// and rotation a (in turns).
func (c *Camera) SetPosition(now, dt, x, y, z, a float64) {
	cur := c.GetCurrentTransform(now)
	z = clampFloat(z, c.MinZoom, c.MaxZoom)
	vpCenterX := c.Viewport.X + c.Viewport.DX/2
	vpCenterY := c.Viewport.Y + c.Viewport.DY/2
	tx, ty := fixedPointTransform(z, a, x, y, vpCenterX, vpCenterY, c.Viewport)
	target := Transform{X: tx, Y: ty, Z: z, A: a, T: now + dt}
	c.retarget(cur, target, now)
}

// DeltaZoom zooms by factor (>1 zooms in, <1 zooms out) around the screen
// point (centerX, centerY), keeping the scene point currently under that
// screen point fixed in place — the pinch/wheel-zoom law from spec.md §4.7.
func (c *Camera) DeltaZoom(now, dt, factor, centerX, centerY float64) {
	cur := c.GetCurrentTransform(now)
	sceneX, sceneY := cur.MapToScene(centerX, centerY, c.Viewport)
	newZ := clampFloat(cur.Z*factor, c.MinZoom, c.MaxZoom)
	tx, ty := fixedPointTransform(newZ, cur.A, sceneX, sceneY, centerX, centerY, c.Viewport)
	target := Transform{X: tx, Y: ty, Z: newZ, A: cur.A, T: now + dt}
	c.retarget(cur, target, now)
}

// Rotate adds degrees (positive = clockwise) to the camera's current
// rotation, animated over dt seconds starting at now.
func (c *Camera) Rotate(now, dt, degrees float64) {
	cur := c.GetCurrentTransform(now)
	target := cur
	target.A = cur.A + degrees/360
	target.T = now + dt
	c.retarget(cur, target, now)
}

// Fit animates the camera, over dt seconds starting at now, to frame bb
// according to mode with no rotation.
func (c *Camera) Fit(bb BoundingBox, now, dt float64, mode FitMode) {
	if bb.IsEmpty() || bb.Width() <= 0 || bb.Height() <= 0 {
		return
	}
	cur := c.GetCurrentTransform(now)
	scaleX := c.Viewport.DX / bb.Width()
	scaleY := c.Viewport.DY / bb.Height()
	z := scaleX
	if mode == FitCover {
		z = math.Max(scaleX, scaleY)
	} else {
		z = math.Min(scaleX, scaleY)
	}
	z = clampFloat(z, c.MinZoom, c.MaxZoom)

	vpCenterX := c.Viewport.X + c.Viewport.DX/2
	vpCenterY := c.Viewport.Y + c.Viewport.DY/2
	tx, ty := fixedPointTransform(z, 0, bb.CenterX(), bb.CenterY(), vpCenterX, vpCenterY, c.Viewport)
	target := Transform{X: tx, Y: ty, Z: z, A: 0, T: now + dt}
	c.retarget(cur, target, now)
}

// VisibleBounds returns the scene-space AABB visible through the viewport
// at time now — the region a Layout uses to decide which tiles are needed.
func (c *Camera) VisibleBounds(now float64) BoundingBox {
	return c.GetCurrentTransform(now).VisibleSceneBounds(c.Viewport)
}

// retarget commits a new animation: source becomes cur pinned at now,
// target becomes the requested pose, clamped to Bounds if Bounded.
func (c *Camera) retarget(cur, target Transform, now float64) {
	cur.T = now
	c.source = cur
	if c.Bounded {
		target = c.clampTargetToBounds(target)
	}
	c.target = target
	c.Signals.Emit(SignalUpdate)
}

// clampTargetToBounds adjusts t's translation so the scene point centered
// on screen stays within Bounds, generalizing the teacher's
// clampToBounds (camera.go) from a Rect/Zoom pair to a rotation-aware
// Transform. Rotation is ignored for the extent calculation, matching the
// teacher's own axis-aligned approximation.
func (c *Camera) clampTargetToBounds(t Transform) Transform {
	if c.Bounds.IsEmpty() {
		return t
	}
	vpCenterX := c.Viewport.X + c.Viewport.DX/2
	vpCenterY := c.Viewport.Y + c.Viewport.DY/2
	centerX, centerY := t.MapToScene(vpCenterX, vpCenterY, c.Viewport)

	halfW := c.Viewport.DX / (2 * t.Z)
	halfH := c.Viewport.DY / (2 * t.Z)

	minX := c.Bounds.XLow + halfW
	maxX := c.Bounds.XHigh - halfW
	if minX > maxX {
		centerX = (c.Bounds.XLow + c.Bounds.XHigh) / 2
	} else {
		centerX = clampFloat(centerX, minX, maxX)
	}

	minY := c.Bounds.YLow + halfH
	maxY := c.Bounds.YHigh - halfH
	if minY > maxY {
		centerY = (c.Bounds.YLow + c.Bounds.YHigh) / 2
	} else {
		centerY = clampFloat(centerY, minY, maxY)
	}

	tx, ty := fixedPointTransform(t.Z, t.A, centerX, centerY, vpCenterX, vpCenterY, c.Viewport)
	t.X, t.Y = tx, ty
	return t
}

// fixedPointTransform solves for the (X, Y) translation of a Transform with
// zoom z and rotation a (turns) such that scene point (sceneX, sceneY) maps
// to screen point (screenX, screenY) in viewport vp — the shared math
// behind zoom-around-a-point and bounds clamping.
func fixedPointTransform(z, a, sceneX, sceneY, screenX, screenY float64, vp Viewport) (x, y float64) {
	cx := vp.X + vp.DX/2
	cy := vp.Y + vp.DY/2
	sin, cos := math.Sincos(2 * math.Pi * a)
	px := z*cos*sceneX - z*sin*sceneY
	py := z*sin*sceneX + z*cos*sceneY
	return screenX - cx - px, screenY - cy - py
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
