package openlime

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// CanvasOptions configures [NewCanvas].
type CanvasOptions struct {
	Viewport    Viewport
	Capacity    int64 // GPU-memory budget in bytes; defaults to 512MiB
	MaxRequest  int   // concurrent in-flight fetches; defaults to 6
	MaxPrefetch int64 // prefetch-only budget in bytes; defaults to Capacity
}

// Canvas is the per-frame compositor from spec.md §4.8: it owns a Camera, a
// Cache, and a z-ordered set of Layers, and drives each frame's
// prefetch-then-draw loop. Grounded on the teacher's willow.go/scene.go
// Game.Draw entry point, generalized from a scene graph of Nodes to a flat,
// explicitly z-ordered layer list (openlime has no parent/child nesting).
type Canvas struct {
	Viewport Viewport
	Cache    *Cache
	Signals  Signals

	camera *Camera

	layers map[string]*Layer
	order  []string // insertion order, used as the final tie-break

	drawOrderBuf []*Layer
	sortBuf      []*Layer

	contextLost bool
}

// NewCanvas creates a Canvas with its own Camera and Cache.
func NewCanvas(opts CanvasOptions) *Canvas {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = 512 << 20
	}
	maxRequest := opts.MaxRequest
	if maxRequest <= 0 {
		maxRequest = 6
	}
	maxPrefetch := opts.MaxPrefetch
	if maxPrefetch <= 0 {
		maxPrefetch = capacity
	}
	return &Canvas{
		Viewport: opts.Viewport,
		Cache:    NewCache(capacity, maxRequest, maxPrefetch),
		camera:   NewCamera(opts.Viewport),
		layers:   map[string]*Layer{},
	}
}

// Camera returns the canvas's camera.
func (cv *Canvas) Camera() *Camera { return cv.camera }

// AddLayer registers layer under id, appended after every existing layer in
// insertion order (used only to break ties between layers sharing a ZIndex
// and Overlay flag). Replaces any existing layer registered under id.
func (cv *Canvas) AddLayer(id string, layer *Layer) {
	if _, exists := cv.layers[id]; !exists {
		cv.order = append(cv.order, id)
	}
	cv.layers[id] = layer
	cv.Signals.Emit(SignalUpdate)
}

// RemoveLayer unregisters the layer under id and drops its cached tiles.
func (cv *Canvas) RemoveLayer(id string) {
	layer, ok := cv.layers[id]
	if !ok {
		return
	}
	cv.Cache.FlushLayer(layer)
	delete(cv.layers, id)
	for i, o := range cv.order {
		if o == id {
			cv.order = append(cv.order[:i], cv.order[i+1:]...)
			break
		}
	}
	cv.Signals.Emit(SignalUpdate)
}

// Layer returns the layer registered under id, or nil.
func (cv *Canvas) Layer(id string) *Layer { return cv.layers[id] }

// Draw runs one frame: prefetch every visible layer's needed tiles, update the
// cache's fetch schedule once, then draw every visible layer in z-order
// into dst (which may be nil for headless/test use, skipping only the
// actual GPU draw calls). Returns true once every layer's controls and the
// camera have settled, so the host can stop scheduling frames.
func (cv *Canvas) Draw(dst *ebiten.Image, now float64) (allDone bool, err error) {
	if cv.contextLost {
		return false, &ContextLostError{}
	}
	cameraT := cv.camera.GetCurrentTransform(now)
	allDone = cameraT == cv.camera.target

	for _, id := range cv.order {
		layer := cv.layers[id]
		if !layer.Visible {
			continue
		}
		layer.Prefetch(cameraT, cv.Viewport, now, cv.Cache)
	}
	cv.Cache.Update()

	order := cv.drawOrder()
	for _, layer := range order {
		if !layer.Visible {
			continue
		}
		done, drawErr := layer.Draw(dst, cameraT, cv.Viewport, now)
		if drawErr != nil {
			cv.Signals.Emit(SignalUpdate, drawErr)
			continue
		}
		if !done {
			allDone = false
		}
	}
	return allDone, nil
}

// drawOrder returns every registered layer sorted by (ZIndex ascending,
// overlay layers after non-overlay within the same ZIndex, then insertion
// order), reusing a merge-sort scratch buffer across frames — adapted from
// the teacher's render.go Scene.mergeSort/mergeRun: an already-sorted
// bottom-up merge sort with an O(n) skip for the common static-scene case.
func (cv *Canvas) drawOrder() []*Layer {
	n := len(cv.order)
	if cap(cv.drawOrderBuf) < n {
		cv.drawOrderBuf = make([]*Layer, n)
	}
	cv.drawOrderBuf = cv.drawOrderBuf[:n]
	for i, id := range cv.order {
		cv.drawOrderBuf[i] = cv.layers[id]
	}
	cv.mergeSortLayers(cv.drawOrderBuf)
	return cv.drawOrderBuf
}

func layerLessOrEqual(a, b *Layer, ia, ib int) bool {
	if a.ZIndex != b.ZIndex {
		return a.ZIndex < b.ZIndex
	}
	if a.Overlay != b.Overlay {
		return !a.Overlay
	}
	return ia <= ib
}

func (cv *Canvas) mergeSortLayers(s []*Layer) {
	n := len(s)
	if n <= 1 {
		return
	}
	sorted := true
	for i := 1; i < n; i++ {
		if !layerLessOrEqual(s[i-1], s[i], i-1, i) {
			sorted = false
			break
		}
	}
	if sorted {
		return
	}

	if cap(cv.sortBuf) < n {
		cv.sortBuf = make([]*Layer, n)
	}
	cv.sortBuf = cv.sortBuf[:n]

	a := s
	b := cv.sortBuf
	swapped := false
	for width := 1; width < n; width *= 2 {
		for i := 0; i < n; i += 2 * width {
			lo := i
			mid := lo + width
			if mid > n {
				mid = n
			}
			hi := lo + 2*width
			if hi > n {
				hi = n
			}
			mergeLayerRun(a, b, lo, mid, hi)
		}
		a, b = b, a
		swapped = !swapped
	}
	if swapped {
		copy(s, cv.sortBuf)
	}
}

func mergeLayerRun(src, dst []*Layer, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if layerLessOrEqual(src[i], src[j], i, j) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	for i < mid {
		dst[k] = src[i]
		i++
		k++
	}
	for j < hi {
		dst[k] = src[j]
		j++
		k++
	}
}

// SimulateContextLoss marks the canvas's GPU context as lost: the next Draw
// returns [ContextLostError] instead of rendering, and every layer's
// shaders must recompile (NeedsUpdate) and every tile re-upload its
// textures lazily on next touch, per spec.md §7. Test/debug hook only — a
// real Ebitengine context loss is not independently observable from Go
// code, so this is openlime's equivalent of the teacher's devtools-driven
// forced-loss test path.
func (cv *Canvas) SimulateContextLoss() {
	cv.contextLost = true
	for _, layer := range cv.layers {
		if layer.Shader != nil {
			layer.Shader.needsUpdate = true
		}
		for _, s := range layer.Shaders {
			if s != nil {
				s.needsUpdate = true
			}
		}
		for _, t := range layer.tiles {
			t.Textures = nil
			t.Missing = len(layer.Rasters)
		}
	}
	cv.Signals.Emit(SignalUpdate)
}

// RestoreContext clears a context-loss flag set by [Canvas.SimulateContextLoss].
func (cv *Canvas) RestoreContext() {
	cv.contextLost = false
}

// Snapshot renders the current frame into a scratch image sized to the
// viewport and returns it as an image.Image, the one export path that
// SPEC_FULL.md §12 leaves outside the Non-goals. Any draw error aborts the
// snapshot.
func (cv *Canvas) Snapshot(now float64) (image.Image, error) {
	w, h := int(cv.Viewport.DX), int(cv.Viewport.DY)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("openlime: snapshot requires a positive-size viewport, got %dx%d", w, h)
	}
	scratch := ebiten.NewImage(w, h)
	if _, err := cv.Draw(scratch, now); err != nil {
		return nil, err
	}
	return scratch, nil
}
