package openlime

import "testing"

func TestInjectClickFiresPressThenRelease(t *testing.T) {
	pm := NewPointerManager()
	c := &recordingController{priority: 1}
	pm.OnEvent(c)
	inj := NewInjector(pm)

	inj.Click(0, 50, 50, false, 0)
	if inj.Pending() != 2 {
		t.Fatalf("expected 2 queued events, got %d", inj.Pending())
	}

	inj.Drain(0)
	if inj.Pending() != 1 {
		t.Fatalf("expected 1 remaining event after first drain, got %d", inj.Pending())
	}

	inj.Drain(0)
	if inj.Pending() != 0 {
		t.Fatalf("expected 0 remaining events after second drain, got %d", inj.Pending())
	}
	if len(c.events) != 1 || c.events[0].Type != GestureSingleTap {
		t.Fatalf("expected a fingerSingleTap dispatched, got %+v", c.events)
	}
}

func TestInjectDragDrivesPanSequence(t *testing.T) {
	pm := NewPointerManager()
	c := &recordingController{priority: 1}
	pm.OnEvent(c)
	inj := NewInjector(pm)

	inj.Drag(0, 10, 10, 200, 200, 5, false, 0)
	if inj.Pending() != 5 {
		t.Fatalf("expected 5 queued events, got %d", inj.Pending())
	}

	for i := 0; i < 5; i++ {
		inj.Drain(0)
	}
	if inj.Pending() != 0 {
		t.Fatalf("expected queue drained, got %d remaining", inj.Pending())
	}

	var seq []GestureType
	for _, ev := range c.events {
		seq = append(seq, ev.Type)
	}
	if len(seq) < 3 {
		t.Fatalf("expected at least 3 gesture events, got %v", seq)
	}
	if seq[0] != GesturePanStart {
		t.Errorf("expected first event panStart, got %v", seq[0])
	}
	if seq[len(seq)-1] != GesturePanEnd {
		t.Errorf("expected last event panEnd, got %v", seq[len(seq)-1])
	}
}

func TestInjectDragClampsMinimumSteps(t *testing.T) {
	pm := NewPointerManager()
	inj := NewInjector(pm)
	inj.Drag(0, 0, 0, 100, 100, 1, false, 0)
	if inj.Pending() != 2 {
		t.Fatalf("expected 2 queued events (clamped), got %d", inj.Pending())
	}
}

func TestInjectQueueOrder(t *testing.T) {
	pm := NewPointerManager()
	inj := NewInjector(pm)

	inj.Press(0, 10, 20, false, 0)
	inj.Move(0, 30, 40, false, 0)
	inj.Release(0, 50, 60, false, 0)

	if len(inj.queue) != 3 {
		t.Fatalf("expected 3 events, got %d", len(inj.queue))
	}
	if !inj.queue[0].pressed || inj.queue[0].x != 10 {
		t.Error("first event should be press at (10,20)")
	}
	if !inj.queue[1].pressed || inj.queue[1].x != 30 {
		t.Error("second event should be move at (30,40)")
	}
	if inj.queue[2].pressed || inj.queue[2].x != 50 {
		t.Error("third event should be release at (50,60)")
	}
}

func TestInjectDrainEmptyQueueReturnsFalse(t *testing.T) {
	pm := NewPointerManager()
	inj := NewInjector(pm)
	if inj.Drain(0) {
		t.Error("expected Drain on an empty queue to return false")
	}
}
