package openlime

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

const maxPointerSlots = 10 // slot 0 = mouse, 1-9 = touch

// Modifiers is the keyboard-modifier bitmask exposed on every GestureEvent,
// per spec.md §4.9: {Ctrl=1, Shift=2, Alt=4}.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModShift
	ModAlt
)

// GestureType names one member of spec.md §4.9's normalized gesture
// vocabulary.
type GestureType string

const (
	GesturePanStart   GestureType = "panStart"
	GesturePanMove    GestureType = "panMove"
	GesturePanEnd     GestureType = "panEnd"
	GesturePinchStart GestureType = "pinchStart"
	GesturePinchMove  GestureType = "pinchMove"
	GesturePinchEnd   GestureType = "pinchEnd"
	GestureWheel      GestureType = "mouseWheel"
	GestureSingleTap  GestureType = "fingerSingleTap"
	GestureDoubleTap  GestureType = "fingerDoubleTap"
	GestureHover      GestureType = "fingerHover"
)

// GestureEvent is the normalized event a [PointerManager] dispatches to
// [Controller]s. Field meaning depends on Type: DX/DY are the pan delta
// (panMove) or the total offset from the gesture's start (panStart); Scale/
// ScaleDelta/Rotation/RotDelta are pinch-only; WheelDeltaY is wheel-only.
type GestureEvent struct {
	Type       GestureType
	X, Y       float64
	DX, DY     float64
	Scale      float64
	ScaleDelta float64
	Rotation   float64
	RotDelta   float64
	WheelDeltaY float64
	PointerID  int
	Modifiers  Modifiers
}

// Controller receives gesture callbacks from a PointerManager in descending
// Priority order, per spec.md §4.9. ActiveModifiers, if non-empty, lists
// the exact modifier combinations this controller responds to; it is
// skipped for any event whose Modifiers isn't in that list. HandleGesture
// returns true to capture the event, stopping propagation to
// lower-priority controllers for this call.
type Controller interface {
	Priority() int
	ActiveModifiers() []Modifiers
	HandleGesture(GestureEvent) bool
}

type pointerState struct {
	down           bool
	startX, startY float64
	lastX, lastY   float64
	dragging       bool
}

type pinchState struct {
	active                    bool
	p0, p1                    int
	initialDist, initialAngle float64
	prevDist, prevAngle       float64
}

// PointerManager normalizes per-frame pointer/touch/wheel state into
// spec.md §4.9's gesture vocabulary and dispatches to registered
// Controllers. Adapted from the teacher's input.go pointer/pinch state
// machine (processPointer/detectPinch), generalized from per-Node hit
// testing — openlime's Controllers act on the whole viewport (Camera, or a
// Layer's controls), there is no scene graph of individually hit-testable
// nodes to walk.
type PointerManager struct {
	DragDeadZone    float64
	DoubleTapWindow float64 // seconds

	controllers []Controller

	pointers map[int]*pointerState
	touchMap map[int]ebiten.TouchID // slot -> touch id
	pinch    pinchState

	lastTapTime        float64
	lastTapX, lastTapY float64
	hasLastTap         bool
}

// NewPointerManager creates a PointerManager with the teacher's default
// drag dead zone and a 300ms double-tap window, per spec.md §4.9's
// "configurable window".
func NewPointerManager() *PointerManager {
	return &PointerManager{
		DragDeadZone:    4.0,
		DoubleTapWindow: 0.3,
		pointers:        map[int]*pointerState{},
		touchMap:        map[int]ebiten.TouchID{},
	}
}

// OnEvent registers controller, keeping the controller list sorted by
// descending Priority (stable on ties), per spec.md §4.9.
func (pm *PointerManager) OnEvent(c Controller) {
	pm.controllers = append(pm.controllers, c)
	for i := len(pm.controllers) - 1; i > 0; i-- {
		if pm.controllers[i-1].Priority() < pm.controllers[i].Priority() {
			pm.controllers[i-1], pm.controllers[i] = pm.controllers[i], pm.controllers[i-1]
		} else {
			break
		}
	}
}

// RemoveController unregisters c, if present.
func (pm *PointerManager) RemoveController(c Controller) {
	for i, existing := range pm.controllers {
		if existing == c {
			pm.controllers = append(pm.controllers[:i], pm.controllers[i+1:]...)
			return
		}
	}
}

func (pm *PointerManager) dispatch(ev GestureEvent) {
	for _, c := range pm.controllers {
		if mods := c.ActiveModifiers(); len(mods) > 0 && !modifiersContain(mods, ev.Modifiers) {
			continue
		}
		if c.HandleGesture(ev) {
			return
		}
	}
}

func modifiersContain(list []Modifiers, m Modifiers) bool {
	for _, x := range list {
		if x == m {
			return true
		}
	}
	return false
}

// Update polls the current frame's mouse/touch/wheel state via Ebitengine
// and dispatches gesture events. now is the caller's animation clock, used
// for double-tap window detection.
func (pm *PointerManager) Update(now float64) {
	mods := readInputModifiers()

	mx, my := ebiten.CursorPosition()
	mouseDown := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	pm.Feed(0, float64(mx), float64(my), mouseDown, false, mods, now)

	active := map[int]bool{}
	for _, tid := range ebiten.AppendTouchIDs(nil) {
		slot := pm.touchSlot(tid)
		if slot < 0 {
			continue
		}
		active[slot] = true
		tx, ty := ebiten.TouchPosition(tid)
		pm.Feed(slot, float64(tx), float64(ty), true, true, mods, now)
	}
	for slot := range pm.touchMap {
		if active[slot] {
			continue
		}
		if ps, ok := pm.pointers[slot]; ok && ps.down {
			pm.Feed(slot, ps.lastX, ps.lastY, false, true, mods, now)
		}
		delete(pm.touchMap, slot)
	}

	if _, wy := ebiten.Wheel(); wy != 0 {
		pm.dispatch(GestureEvent{Type: GestureWheel, X: float64(mx), Y: float64(my), WheelDeltaY: wy, Modifiers: mods})
	}

	pm.DetectPinch(mods)
}

func (pm *PointerManager) touchSlot(tid ebiten.TouchID) int {
	for slot, t := range pm.touchMap {
		if t == tid {
			return slot
		}
	}
	for slot := 1; slot < maxPointerSlots; slot++ {
		if _, used := pm.touchMap[slot]; !used {
			pm.touchMap[slot] = tid
			return slot
		}
	}
	return -1
}

func readInputModifiers() Modifiers {
	var m Modifiers
	if ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight) {
		m |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyShift) || ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		m |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) || ebiten.IsKeyPressed(ebiten.KeyAltLeft) || ebiten.IsKeyPressed(ebiten.KeyAltRight) {
		m |= ModAlt
	}
	return m
}

// Feed runs the pointer state machine for one pointer slot (0 = mouse,
// 1-9 = touch) at screen position (x, y), exported so tests and
// alternative input sources (e.g. injected synthetic gestures, see
// inject.go) can drive a PointerManager without going through Ebitengine's
// global input state.
func (pm *PointerManager) Feed(id int, x, y float64, pressed, isTouch bool, mods Modifiers, now float64) {
	ps, ok := pm.pointers[id]
	if !ok {
		ps = &pointerState{lastX: x, lastY: y}
		pm.pointers[id] = ps
	}

	switch {
	case pressed && !ps.down:
		ps.down = true
		ps.startX, ps.startY = x, y
		ps.lastX, ps.lastY = x, y
		ps.dragging = false

	case !pressed && ps.down:
		switch {
		case pm.isPinchPointer(id):
			// part of an active pinch: DetectPinch owns its end event.
		case ps.dragging:
			pm.dispatch(GestureEvent{Type: GesturePanEnd, X: x, Y: y, DX: x - ps.startX, DY: y - ps.startY, PointerID: id, Modifiers: mods})
		default:
			pm.detectTap(id, x, y, now, mods)
		}
		ps.down = false
		ps.dragging = false

	case pressed && ps.down:
		if pm.isPinchPointer(id) {
			// part of an active pinch: DetectPinch drives pinchMove, not pan.
			ps.lastX, ps.lastY = x, y
			break
		}
		if x != ps.lastX || y != ps.lastY {
			if !ps.dragging {
				dx := x - ps.startX
				dy := y - ps.startY
				if math.Hypot(dx, dy) > pm.DragDeadZone {
					ps.dragging = true
					pm.dispatch(GestureEvent{Type: GesturePanStart, X: x, Y: y, DX: dx, DY: dy, PointerID: id, Modifiers: mods})
				}
			}
			if ps.dragging {
				pm.dispatch(GestureEvent{Type: GesturePanMove, X: x, Y: y, DX: x - ps.lastX, DY: y - ps.lastY, PointerID: id, Modifiers: mods})
			}
		}
		ps.lastX, ps.lastY = x, y

	default:
		// fingerHover fires only for non-touch (mouse) devices, per spec.md §4.9.
		if !isTouch && (x != ps.lastX || y != ps.lastY) {
			pm.dispatch(GestureEvent{Type: GestureHover, X: x, Y: y, PointerID: id, Modifiers: mods})
			ps.lastX, ps.lastY = x, y
		}
	}
}

func (pm *PointerManager) isPinchPointer(id int) bool {
	return pm.pinch.active && (id == pm.pinch.p0 || id == pm.pinch.p1)
}

func (pm *PointerManager) detectTap(id int, x, y, now float64, mods Modifiers) {
	if pm.hasLastTap && now-pm.lastTapTime <= pm.DoubleTapWindow &&
		math.Hypot(x-pm.lastTapX, y-pm.lastTapY) <= pm.DragDeadZone*2 {
		pm.dispatch(GestureEvent{Type: GestureDoubleTap, X: x, Y: y, PointerID: id, Modifiers: mods})
		pm.hasLastTap = false
		return
	}
	pm.dispatch(GestureEvent{Type: GestureSingleTap, X: x, Y: y, PointerID: id, Modifiers: mods})
	pm.lastTapTime, pm.lastTapX, pm.lastTapY, pm.hasLastTap = now, x, y, true
}

// DetectPinch checks whether exactly two touch slots are currently down and
// fires pinchStart/pinchMove/pinchEnd accordingly, per spec.md §4.9
// ("pinch is detected on two simultaneous pointers"). Exported so Update
// and tests share one code path.
func (pm *PointerManager) DetectPinch(mods Modifiers) {
	var active []int
	for slot := 1; slot < maxPointerSlots; slot++ {
		if ps, ok := pm.pointers[slot]; ok && ps.down {
			active = append(active, slot)
		}
	}
	if len(active) != 2 {
		if pm.pinch.active {
			pm.dispatch(GestureEvent{Type: GesturePinchEnd, Modifiers: mods})
			pm.pinch.active = false
		}
		return
	}

	p0, p1 := active[0], active[1]
	ps0, ps1 := pm.pointers[p0], pm.pointers[p1]
	cx := (ps0.lastX + ps1.lastX) / 2
	cy := (ps0.lastY + ps1.lastY) / 2
	dx := ps1.lastX - ps0.lastX
	dy := ps1.lastY - ps0.lastY
	dist := math.Hypot(dx, dy)
	angle := math.Atan2(dy, dx)

	if !pm.pinch.active {
		pm.pinch = pinchState{active: true, p0: p0, p1: p1, initialDist: dist, initialAngle: angle, prevDist: dist, prevAngle: angle}
		ps0.dragging, ps1.dragging = false, false
		pm.dispatch(GestureEvent{Type: GesturePinchStart, X: cx, Y: cy, Scale: 1, Modifiers: mods})
		return
	}

	scale := 1.0
	if pm.pinch.initialDist > 0 {
		scale = dist / pm.pinch.initialDist
	}
	scaleDelta := 0.0
	if pm.pinch.prevDist > 0 {
		scaleDelta = dist/pm.pinch.prevDist - 1
	}
	rotation := angle - pm.pinch.initialAngle
	rotDelta := angle - pm.pinch.prevAngle
	pm.dispatch(GestureEvent{
		Type: GesturePinchMove, X: cx, Y: cy,
		Scale: scale, ScaleDelta: scaleDelta, Rotation: rotation, RotDelta: rotDelta,
		Modifiers: mods,
	})
	pm.pinch.prevDist, pm.pinch.prevAngle = dist, angle
	ps0.dragging, ps1.dragging = false, false
}
