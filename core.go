package openlime

import "math"

// Vec2 is a 2D vector used for positions, offsets, and directions.
type Vec2 struct {
	X, Y float64
}

// BoundingBox is an axis-aligned rectangle in scene space, represented by
// its low and high corners. The zero value is not a valid non-empty box;
// use [EmptyBoundingBox] for an explicit empty box.
type BoundingBox struct {
	XLow, YLow   float64
	XHigh, YHigh float64
}

// EmptyBoundingBox returns the canonical empty bounding box: one whose low
// corner is greater than its high corner on both axes, so it intersects
// nothing and [BoundingBox.IsEmpty] reports true.
func EmptyBoundingBox() BoundingBox {
	return BoundingBox{
		XLow: math.Inf(1), YLow: math.Inf(1),
		XHigh: math.Inf(-1), YHigh: math.Inf(-1),
	}
}

// NewBoundingBox builds a box from width/height anchored at the origin,
// the representation [Layout.BoundingBox] returns for canonical orientation.
func NewBoundingBox(width, height float64) BoundingBox {
	return BoundingBox{XLow: 0, YLow: 0, XHigh: width, YHigh: height}
}

// IsEmpty reports whether the box contains no points.
func (b BoundingBox) IsEmpty() bool {
	return b.XLow > b.XHigh || b.YLow > b.YHigh
}

// Width returns xHigh - xLow (negative for an empty box).
func (b BoundingBox) Width() float64 { return b.XHigh - b.XLow }

// Height returns yHigh - yLow (negative for an empty box).
func (b BoundingBox) Height() float64 { return b.YHigh - b.YLow }

// CenterX returns the horizontal midpoint of the box.
func (b BoundingBox) CenterX() float64 { return (b.XLow + b.XHigh) / 2 }

// CenterY returns the vertical midpoint of the box.
func (b BoundingBox) CenterY() float64 { return (b.YLow + b.YHigh) / 2 }

// Contains reports whether (x, y) lies inside the box, edges included.
func (b BoundingBox) Contains(x, y float64) bool {
	return x >= b.XLow && x <= b.XHigh && y >= b.YLow && y <= b.YHigh
}

// Intersects reports whether b and other overlap. Adjacent boxes (sharing
// only an edge) are considered intersecting, matching the teacher's [Rect]
// convention so prefetch-border expansion at tile boundaries still counts.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	if b.IsEmpty() || other.IsEmpty() {
		return false
	}
	return b.XLow <= other.XHigh && b.XHigh >= other.XLow &&
		b.YLow <= other.YHigh && b.YHigh >= other.YLow
}

// Union returns the smallest box containing both b and other.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	if b.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return b
	}
	return BoundingBox{
		XLow:  math.Min(b.XLow, other.XLow),
		YLow:  math.Min(b.YLow, other.YLow),
		XHigh: math.Max(b.XHigh, other.XHigh),
		YHigh: math.Max(b.YHigh, other.YHigh),
	}
}

// Expand grows the box by margin on every side (shrinks it if margin < 0).
func (b BoundingBox) Expand(margin float64) BoundingBox {
	return BoundingBox{
		XLow:  b.XLow - margin,
		YLow:  b.YLow - margin,
		XHigh: b.XHigh + margin,
		YHigh: b.YHigh + margin,
	}
}
