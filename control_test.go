package openlime

import "testing"

// Property: control interpolation law — current value lies between source
// and target while animating, and equals target exactly once the deadline
// passes.
func TestControlInterpolationLaw(t *testing.T) {
	c := NewControl([]float64{0})
	c.SetTarget([]float64{10}, 0, 2, EasingLinear)

	var prev float64
	for i, now := range []float64{0, 0.5, 1, 1.5, 2} {
		c.Advance(now)
		v := c.Value()[0]
		if v < -1e-9 || v > 10+1e-9 {
			t.Fatalf("value %v out of [0,10] at t=%v", v, now)
		}
		if i > 0 && v < prev-1e-9 {
			t.Fatalf("value not monotone at t=%v: %v < %v", now, v, prev)
		}
		prev = v
	}
	if !c.Done() {
		t.Error("expected control done at t == target.T")
	}
	if got := c.Value()[0]; got != 10 {
		t.Errorf("expected exact target value 10, got %v", got)
	}
}

func TestControlInstantJump(t *testing.T) {
	c := NewControl([]float64{1, 2, 3})
	c.SetTarget([]float64{4, 5, 6}, 1, 0, EasingLinear)
	done := c.Advance(1)
	if !done {
		t.Error("zero-duration target should settle immediately")
	}
	want := []float64{4, 5, 6}
	for i, w := range want {
		if c.Value()[i] != w {
			t.Errorf("component %d: got %v want %v", i, c.Value()[i], w)
		}
	}
}

func TestControlArityChangeResets(t *testing.T) {
	c := NewControl([]float64{1, 2})
	c.SetTarget([]float64{1, 2, 3}, 0, 5, EasingLinear)
	if len(c.Value()) != 3 {
		t.Fatalf("expected arity 3 after resize, got %d", len(c.Value()))
	}
	if !c.Done() {
		t.Error("an arity change should not leave an animation in flight")
	}
}

func TestControlPastDeadlineClampsExactly(t *testing.T) {
	c := NewControl([]float64{0})
	c.SetTarget([]float64{5}, 0, 1, EasingEaseInOut)
	c.Advance(100)
	if v := c.Value()[0]; v != 5 {
		t.Errorf("expected exact clamp to target, got %v", v)
	}
}
