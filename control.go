package openlime

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// easeFunc maps an Easing to the gween easing function it matches, the
// same table the teacher's camera.go/animation.go use for ScrollTo/
// TweenGroup (ease.Linear, ease.OutCubic, ease.InOutCubic).
func easeFunc(e Easing) ease.TweenFunc {
	switch e {
	case EasingEaseOut:
		return ease.OutCubic
	case EasingEaseInOut:
		return ease.InOutCubic
	default:
		return ease.Linear
	}
}

// controlValue is a timestamped vector value: one endpoint of a Control's
// source/target/current triple from spec.md §3.
type controlValue struct {
	Value []float64
	T     float64
}

// Control is an animated uniform: per spec.md §3, it holds a source,
// target, and current value plus an easing curve. Source/target are the
// teacher's tween-group pattern (animation.go's TweenGroup) generalized
// from fixed Node fields to an arbitrary-length float64 vector, since
// shader uniforms range from scalars to mat4s.
//
// Invariant: current.T lies on [source.T, target.T] while interpolation is
// active, and current.Value == target.Value exactly once current.T >=
// target.T.
type Control struct {
	Source  controlValue
	Target  controlValue
	Current controlValue
	Easing  Easing

	tweens []*gween.Tween // one per vector component
}

// NewControl creates a control initialized to value at time 0, with no
// animation in flight.
func NewControl(value []float64) *Control {
	v := append([]float64(nil), value...)
	return &Control{
		Source:  controlValue{Value: append([]float64(nil), v...), T: 0},
		Target:  controlValue{Value: append([]float64(nil), v...), T: 0},
		Current: controlValue{Value: v, T: 0},
	}
}

// SetTarget re-targets the control: source becomes the control's current
// value at `now`, and target becomes value at now+duration (seconds, may
// be 0 for an instant jump). Per spec.md §4.6 Layer.setControl.
func (c *Control) SetTarget(value []float64, now, duration float64, easing Easing) {
	if len(value) != len(c.Current.Value) {
		// Size change (e.g. shader uniform arity change on mode switch):
		// reset current to the new arity, no animation in flight.
		c.Current = controlValue{Value: append([]float64(nil), value...), T: now}
		c.Source = controlValue{Value: append([]float64(nil), value...), T: now}
		c.Target = controlValue{Value: append([]float64(nil), value...), T: now}
		c.tweens = nil
		return
	}

	c.Source = controlValue{Value: append([]float64(nil), c.Current.Value...), T: now}
	c.Current.T = now
	c.Target = controlValue{Value: append([]float64(nil), value...), T: now + duration}
	c.Easing = easing

	fn := easeFunc(easing)
	dur := float32(duration)
	c.tweens = make([]*gween.Tween, len(value))
	for i := range value {
		c.tweens[i] = gween.New(float32(c.Source.Value[i]), float32(value[i]), dur, fn)
	}
}

// Advance moves the control's current value to time `now`, clamping to the
// target once now >= target.T. Returns true once the animation has
// settled (current.T >= target.T).
func (c *Control) Advance(now float64) (done bool) {
	if now >= c.Target.T || len(c.tweens) == 0 {
		c.Current = controlValue{Value: append([]float64(nil), c.Target.Value...), T: now}
		return true
	}
	dt := float32(now - c.Current.T)
	if dt < 0 {
		dt = 0
	}
	allDone := true
	for i, tw := range c.tweens {
		val, tweenDone := tw.Update(dt)
		c.Current.Value[i] = float64(val)
		if !tweenDone {
			allDone = false
		}
	}
	c.Current.T = now
	if allDone {
		c.Current = controlValue{Value: append([]float64(nil), c.Target.Value...), T: now}
	}
	return allDone
}

// Value returns the control's current vector value.
func (c *Control) Value() []float64 {
	return c.Current.Value
}

// Done reports whether the control's current time has reached its target.
func (c *Control) Done() bool {
	return c.Current.T >= c.Target.T
}
