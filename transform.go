package openlime

import "math"

// identityAffine is the identity 2D affine matrix, [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
var identityAffine = [6]float64{1, 0, 0, 1, 0, 0}

// multiplyAffine multiplies two 2D affine matrices: result = p * c (p
// applied after c). Pure matrix algebra, unchanged from the teacher's
// camera.go/render.go helpers of the same name and signature.
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix. Returns the
// identity matrix if the matrix is singular (determinant ~ 0).
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityAffine
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Easing selects the interpolation curve used when advancing a Control or
// a Camera transition from source to target.
type Easing uint8

const (
	EasingLinear Easing = iota
	EasingEaseOut
	EasingEaseInOut
)

// ease applies the easing curve to a normalized parameter t in [0, 1].
func (e Easing) ease(t float64) float64 {
	switch e {
	case EasingEaseOut:
		return 1 - (1-t)*(1-t)
	case EasingEaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return 1 - math.Pow(-2*t+2, 2)/2
	default:
		return t
	}
}

// Transform is the affine 2-D camera/layer pose: scene translation (X, Y),
// uniform zoom scale Z, rotation A in turns (1.0 = 360°), and a timestamp T
// used by [Transform.Interpolate]. Invariant: Z > 0.
type Transform struct {
	X, Y float64
	Z    float64
	A    float64
	T    float64
}

// IdentityTransform returns the transform with no translation, unit zoom,
// no rotation, at time 0.
func IdentityTransform() Transform {
	return Transform{Z: 1}
}

// Copy returns a value copy of t (Transform has no pointer fields, so this
// exists purely for call-site clarity matching the spec's vocabulary).
func (t Transform) Copy() Transform { return t }

// Compose returns self applied after other: other's scene is first placed
// by this transform, matching spec.md §4.1 ("other applied first, then
// self"). Used to combine a Camera's view transform with a Layer's own
// transform before building the projection matrix.
func (t Transform) Compose(other Transform) Transform {
	return Transform{
		X: t.X + t.Z*(other.X*math.Cos(2*math.Pi*t.A)-other.Y*math.Sin(2*math.Pi*t.A)),
		Y: t.Y + t.Z*(other.X*math.Sin(2*math.Pi*t.A)+other.Y*math.Cos(2*math.Pi*t.A)),
		Z: t.Z * other.Z,
		A: t.A + other.A,
		T: math.Max(t.T, other.T),
	}
}

// Interpolate linearly interpolates (x, y, z, a) between source and target
// using the normalized parameter (t - source.T) / (target.T - source.T),
// clamped to [0, 1], optionally reshaped by easing. A degenerate interval
// (target.T <= source.T), or any t >= target.T, returns target unchanged.
func Interpolate(source, target Transform, t float64, easing Easing) Transform {
	span := target.T - source.T
	if span <= 0 || t >= target.T {
		return target
	}
	u := (t - source.T) / span
	if u < 0 {
		u = 0
	} else if u > 1 {
		u = 1
	}
	u = easing.ease(u)
	return Transform{
		X: source.X + (target.X-source.X)*u,
		Y: source.Y + (target.Y-source.Y)*u,
		Z: source.Z + (target.Z-source.Z)*u,
		A: source.A + (target.A-source.A)*u,
		T: t,
	}
}

// Matrix returns the 2D affine matrix [a, b, c, d, tx, ty] this transform
// represents: scale by Z, rotate by A turns, translate by (X, Y).
func (t Transform) Matrix() [6]float64 {
	sin, cos := math.Sincos(2 * math.Pi * t.A)
	return [6]float64{
		t.Z * cos, t.Z * sin,
		-t.Z * sin, t.Z * cos,
		t.X, t.Y,
	}
}

// Viewport is the screen-space rectangle a Camera renders into.
type Viewport struct {
	X, Y   float64
	DX, DY float64 // width, height in device pixels
}

// ProjectionMatrix builds the scene-to-clip-space 4x4 matrix (row-major,
// flattened) for this transform and viewport: scale by Z, rotate by A,
// translate by (X, Y) in screen pixels, center in the viewport, and flip Y
// (scene space has Y increasing downward; clip space has Y increasing
// upward).
func (t Transform) ProjectionMatrix(vp Viewport) [16]float64 {
	m := t.Matrix()
	// Scene -> screen-centered affine, then screen -> clip ([-1,1], Y up).
	sx := 2 / vp.DX
	sy := -2 / vp.DY
	cx := vp.DX / 2
	cy := vp.DY / 2

	// Affine screen coordinates of a scene point p: centered(p) = m*p + (cx,cy).
	a := m[0] * sx
	b := m[1] * sy
	c := m[2] * sx
	d := m[3] * sy
	tx := (m[4]+cx)*sx - 1
	ty := (m[5]+cy)*sy + 1

	return [16]float64{
		a, b, 0, 0,
		c, d, 0, 0,
		0, 0, 1, 0,
		tx, ty, 0, 1,
	}
}

// TransformBox returns a conservative axis-aligned bounding box of bb after
// being rotated/scaled/translated by t — the AABB of the four transformed
// corners, not a rotated rectangle.
func (t Transform) TransformBox(bb BoundingBox) BoundingBox {
	if bb.IsEmpty() {
		return bb
	}
	m := t.Matrix()
	corners := [4][2]float64{
		{bb.XLow, bb.YLow}, {bb.XHigh, bb.YLow},
		{bb.XHigh, bb.YHigh}, {bb.XLow, bb.YHigh},
	}
	out := EmptyBoundingBox()
	for _, c := range corners {
		x, y := transformPoint(m, c[0], c[1])
		if x < out.XLow {
			out.XLow = x
		}
		if y < out.YLow {
			out.YLow = y
		}
		if x > out.XHigh {
			out.XHigh = x
		}
		if y > out.YHigh {
			out.YHigh = y
		}
	}
	return out
}

// MapToScene maps a screen-space point (sx, sy), given viewport vp, back
// to scene space through the inverse of t's affine matrix centered in vp.
func (t Transform) MapToScene(sx, sy float64, vp Viewport) (x, y float64) {
	cx := vp.X + vp.DX/2
	cy := vp.Y + vp.DY/2
	inv := invertAffine(t.Matrix())
	return transformPoint(inv, sx-cx, sy-cy)
}

// MapToCanvas maps a scene-space point (x, y) to screen space, the inverse
// of [Transform.MapToScene].
func (t Transform) MapToCanvas(x, y float64, vp Viewport) (sx, sy float64) {
	cx := vp.X + vp.DX/2
	cy := vp.Y + vp.DY/2
	px, py := transformPoint(t.Matrix(), x, y)
	return px + cx, py + cy
}

// VisibleSceneBounds returns the scene-space AABB visible through vp under
// this transform — the same corner-mapping math as [Camera.VisibleBounds],
// lifted onto Transform so Layout can compute it from a combined
// camera×layer transform without depending on Camera directly.
func (t Transform) VisibleSceneBounds(vp Viewport) BoundingBox {
	corners := [4][2]float64{
		{vp.X, vp.Y},
		{vp.X + vp.DX, vp.Y},
		{vp.X + vp.DX, vp.Y + vp.DY},
		{vp.X, vp.Y + vp.DY},
	}
	out := EmptyBoundingBox()
	for _, s := range corners {
		x, y := t.MapToScene(s[0], s[1], vp)
		if x < out.XLow {
			out.XLow = x
		}
		if y < out.YLow {
			out.YLow = y
		}
		if x > out.XHigh {
			out.XHigh = x
		}
		if y > out.YHigh {
			out.YHigh = y
		}
	}
	return out
}
