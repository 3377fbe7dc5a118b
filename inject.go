package openlime

// syntheticPointerEvent is one queued, synthetic pointer event. Screen
// coordinates are used directly — [PointerManager.Feed] already operates in
// screen space, so unlike the teacher's screen→world conversion at
// injection time, no Camera is involved here.
type syntheticPointerEvent struct {
	id      int
	x, y    float64
	pressed bool
	isTouch bool
	mods    Modifiers
}

// Injector queues synthetic gesture input for a [PointerManager], for
// automated/scripted testing (see [TestRunner]) without a real OS input
// source. Adapted from the teacher's Scene.injectQueue/Inject* methods,
// generalized from a single always-mouse pointer to an arbitrary pointer
// id so touch/pinch sequences can be scripted too.
type Injector struct {
	pm    *PointerManager
	queue []syntheticPointerEvent
}

// NewInjector creates an Injector that feeds pm.
func NewInjector(pm *PointerManager) *Injector {
	return &Injector{pm: pm}
}

// Press queues a pointer-down event for pointer id at screen (x, y).
func (inj *Injector) Press(id int, x, y float64, isTouch bool, mods Modifiers) {
	inj.queue = append(inj.queue, syntheticPointerEvent{id: id, x: x, y: y, pressed: true, isTouch: isTouch, mods: mods})
}

// Move queues a pointer-move event for pointer id (held down) at screen
// (x, y).
func (inj *Injector) Move(id int, x, y float64, isTouch bool, mods Modifiers) {
	inj.queue = append(inj.queue, syntheticPointerEvent{id: id, x: x, y: y, pressed: true, isTouch: isTouch, mods: mods})
}

// Release queues a pointer-up event for pointer id at screen (x, y).
func (inj *Injector) Release(id int, x, y float64, isTouch bool, mods Modifiers) {
	inj.queue = append(inj.queue, syntheticPointerEvent{id: id, x: x, y: y, pressed: false, isTouch: isTouch, mods: mods})
}

// Click queues a press immediately followed by a release at the same
// point, consuming two drained events.
func (inj *Injector) Click(id int, x, y float64, isTouch bool, mods Modifiers) {
	inj.Press(id, x, y, isTouch, mods)
	inj.Release(id, x, y, isTouch, mods)
}

// Drag queues a full press/move.../release sequence from (fromX, fromY) to
// (toX, toY) as steps events in total: a press, steps-2 linearly
// interpolated moves, and a release (steps below 2 is raised to 2).
func (inj *Injector) Drag(id int, fromX, fromY, toX, toY float64, steps int, isTouch bool, mods Modifiers) {
	if steps < 2 {
		steps = 2
	}
	inj.Press(id, fromX, fromY, isTouch, mods)
	mid := steps - 2
	for i := 1; i <= mid; i++ {
		t := float64(i) / float64(mid+1)
		inj.Move(id, fromX+(toX-fromX)*t, fromY+(toY-fromY)*t, isTouch, mods)
	}
	inj.Release(id, toX, toY, isTouch, mods)
}

// Pending reports how many synthetic events remain queued.
func (inj *Injector) Pending() int {
	return len(inj.queue)
}

// Drain feeds the oldest queued event to the PointerManager at the given
// now and reports whether there was one to feed. Intended to be called
// once per real frame from the host's render loop, ahead of any live
// Ebitengine input polling, so a script can run to completion one event
// per Update call exactly like the teacher's processInjectedInput.
func (inj *Injector) Drain(now float64) bool {
	if len(inj.queue) == 0 {
		return false
	}
	ev := inj.queue[0]
	inj.queue = inj.queue[1:]
	inj.pm.Feed(ev.id, ev.x, ev.y, ev.pressed, ev.isTouch, ev.mods, now)
	if ev.isTouch {
		inj.pm.DetectPinch(ev.mods)
	}
	return true
}
