package openlime

import "testing"

type recordingController struct {
	priority int
	mods     []Modifiers
	capture  bool
	events   []GestureEvent
}

func (c *recordingController) Priority() int               { return c.priority }
func (c *recordingController) ActiveModifiers() []Modifiers { return c.mods }
func (c *recordingController) HandleGesture(ev GestureEvent) bool {
	c.events = append(c.events, ev)
	return c.capture
}

func TestPointerManagerOnEventOrdersByDescendingPriority(t *testing.T) {
	pm := NewPointerManager()
	low := &recordingController{priority: 1}
	high := &recordingController{priority: 10}
	mid := &recordingController{priority: 5}
	pm.OnEvent(low)
	pm.OnEvent(high)
	pm.OnEvent(mid)

	if pm.controllers[0] != high || pm.controllers[1] != mid || pm.controllers[2] != low {
		t.Fatalf("expected controllers sorted by descending priority, got %+v", pm.controllers)
	}
}

func TestPointerManagerCaptureStopsPropagation(t *testing.T) {
	pm := NewPointerManager()
	first := &recordingController{priority: 10, capture: true}
	second := &recordingController{priority: 1}
	pm.OnEvent(first)
	pm.OnEvent(second)

	pm.Feed(0, 0, 0, true, false, 0, 0)
	pm.Feed(0, 10, 0, true, false, 0, 0) // exceeds dead zone, fires panStart

	if len(first.events) == 0 {
		t.Fatal("expected the higher-priority controller to receive the event")
	}
	if len(second.events) != 0 {
		t.Error("expected capture by the higher-priority controller to stop propagation")
	}
}

func TestPointerManagerSkipsControllerOnModifierMismatch(t *testing.T) {
	pm := NewPointerManager()
	ctrlOnly := &recordingController{priority: 5, mods: []Modifiers{ModCtrl}}
	always := &recordingController{priority: 1}
	pm.OnEvent(ctrlOnly)
	pm.OnEvent(always)

	pm.Feed(0, 0, 0, true, false, 0, 0)
	pm.Feed(0, 10, 0, true, false, 0, 0) // no modifiers held

	if len(ctrlOnly.events) != 0 {
		t.Error("expected controller requiring Ctrl to be skipped without it")
	}
	if len(always.events) == 0 {
		t.Error("expected unconstrained controller to still receive the event")
	}
}

func TestPointerManagerDragDeadZoneGatesPanStart(t *testing.T) {
	pm := NewPointerManager()
	c := &recordingController{priority: 1}
	pm.OnEvent(c)

	pm.Feed(0, 0, 0, true, false, 0, 0)
	pm.Feed(0, 1, 0, true, false, 0, 0) // within dead zone (4px default)

	for _, ev := range c.events {
		if ev.Type == GesturePanStart {
			t.Fatal("expected no panStart within the drag dead zone")
		}
	}

	pm.Feed(0, 10, 0, true, false, 0, 0) // exceeds dead zone
	found := false
	for _, ev := range c.events {
		if ev.Type == GesturePanStart {
			found = true
		}
	}
	if !found {
		t.Fatal("expected panStart once the dead zone is exceeded")
	}
}

func TestPointerManagerPanStartMoveEnd(t *testing.T) {
	pm := NewPointerManager()
	c := &recordingController{priority: 1}
	pm.OnEvent(c)

	pm.Feed(0, 0, 0, true, false, 0, 0)
	pm.Feed(0, 10, 0, true, false, 0, 0)
	pm.Feed(0, 20, 5, true, false, 0, 0)
	pm.Feed(0, 20, 5, false, false, 0, 0)

	var seq []GestureType
	for _, ev := range c.events {
		seq = append(seq, ev.Type)
	}
	if len(seq) != 3 || seq[0] != GesturePanStart || seq[1] != GesturePanMove || seq[2] != GesturePanEnd {
		t.Fatalf("expected [panStart, panMove, panEnd], got %v", seq)
	}
}

func TestPointerManagerHoverOnlyForNonTouch(t *testing.T) {
	pm := NewPointerManager()
	c := &recordingController{priority: 1}
	pm.OnEvent(c)

	pm.Feed(0, 0, 0, false, false, 0, 0)
	pm.Feed(0, 5, 5, false, false, 0, 0)
	if len(c.events) == 0 || c.events[len(c.events)-1].Type != GestureHover {
		t.Fatal("expected fingerHover for a moving, unpressed mouse pointer")
	}

	c.events = nil
	pm.Feed(1, 0, 0, false, true, 0, 0)
	pm.Feed(1, 5, 5, false, true, 0, 0)
	for _, ev := range c.events {
		if ev.Type == GestureHover {
			t.Fatal("expected no hover events for touch pointers")
		}
	}
}

func TestPointerManagerSingleAndDoubleTap(t *testing.T) {
	pm := NewPointerManager()
	c := &recordingController{priority: 1}
	pm.OnEvent(c)

	pm.Feed(1, 10, 10, true, true, 0, 0)
	pm.Feed(1, 10, 10, false, true, 0, 0)

	if len(c.events) != 1 || c.events[0].Type != GestureSingleTap {
		t.Fatalf("expected a single fingerSingleTap, got %+v", c.events)
	}

	pm.Feed(1, 10, 10, true, true, 0, 0.1)
	pm.Feed(1, 10, 10, false, true, 0, 0.1)

	if len(c.events) != 2 || c.events[1].Type != GestureDoubleTap {
		t.Fatalf("expected second tap within window to be fingerDoubleTap, got %+v", c.events)
	}
}

func TestPointerManagerDoubleTapOutsideWindowIsTwoSingleTaps(t *testing.T) {
	pm := NewPointerManager()
	c := &recordingController{priority: 1}
	pm.OnEvent(c)

	pm.Feed(1, 10, 10, true, true, 0, 0)
	pm.Feed(1, 10, 10, false, true, 0, 0)
	pm.Feed(1, 10, 10, true, true, 0, 10)
	pm.Feed(1, 10, 10, false, true, 0, 10)

	if len(c.events) != 2 || c.events[0].Type != GestureSingleTap || c.events[1].Type != GestureSingleTap {
		t.Fatalf("expected two fingerSingleTap events outside the double-tap window, got %+v", c.events)
	}
}

func TestPointerManagerPinchStartMoveEnd(t *testing.T) {
	pm := NewPointerManager()
	c := &recordingController{priority: 1}
	pm.OnEvent(c)

	pm.Feed(1, 0, 0, true, true, 0, 0)
	pm.Feed(2, 100, 0, true, true, 0, 0)
	pm.DetectPinch(0)

	pm.Feed(2, 150, 0, true, true, 0, 0) // fingers spread apart
	pm.DetectPinch(0)

	pm.Feed(1, 0, 0, false, true, 0, 0)
	pm.Feed(2, 150, 0, false, true, 0, 0)
	pm.DetectPinch(0)

	var seq []GestureType
	for _, ev := range c.events {
		seq = append(seq, ev.Type)
	}
	if len(seq) < 3 || seq[0] != GesturePinchStart || seq[len(seq)-1] != GesturePinchEnd {
		t.Fatalf("expected pinchStart ... pinchEnd sequence, got %v", seq)
	}
	var sawMove bool
	var grew bool
	for _, ev := range c.events {
		if ev.Type == GesturePinchMove {
			sawMove = true
			if ev.Scale > 1 {
				grew = true
			}
		}
	}
	if !sawMove || !grew {
		t.Fatalf("expected a pinchMove reporting Scale > 1 as fingers spread apart, events=%+v", c.events)
	}
}

func TestPointerManagerRemoveController(t *testing.T) {
	pm := NewPointerManager()
	c := &recordingController{priority: 1}
	pm.OnEvent(c)
	pm.RemoveController(c)

	pm.Feed(0, 0, 0, true, false, 0, 0)
	pm.Feed(0, 10, 0, true, false, 0, 0)

	if len(c.events) != 0 {
		t.Error("expected removed controller to receive no further events")
	}
}
