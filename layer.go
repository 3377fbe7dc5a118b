package openlime

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// LayerConstructor builds a Layer from options; registered under a type
// name via [RegisterLayerType] and dispatched to by [NewLayer], the Go
// reframing of spec.md §6's "Factory registry" (Design Note "Dynamic
// dispatch by string type" -> closed tagged union plus an extension
// point registered at startup).
type LayerConstructor func(LayerOptions) (*Layer, error)

var layerRegistry = map[string]LayerConstructor{}

// RegisterLayerType adds a named Layer constructor. Panics on duplicate
// registration, matching the teacher's posture of failing loudly on
// programmer error (see DESIGN.md) rather than silently overwriting an
// existing type.
func RegisterLayerType(name string, ctor LayerConstructor) {
	if _, exists := layerRegistry[name]; exists {
		panic(fmt.Sprintf("openlime: layer type %q already registered", name))
	}
	layerRegistry[name] = ctor
}

func init() {
	RegisterLayerType("image", newImageLayer)
	RegisterLayerType("rti", newRTILayer)
	RegisterLayerType("hdr", newHDRLayer)
}

// LayerOptions configures [NewLayer]/a registered constructor, per
// spec.md §4.6's construction-options list.
type LayerOptions struct {
	Type           string
	ID             string
	Label          string
	Transform      Transform
	Visible        bool
	ZIndex         int
	Overlay        bool
	PrefetchBorder float64
	MipmapBias     float64
	Layout         *Layout
	Shaders        map[string]*Shader
	ActiveShader   string
	SourceLayer    *Layer
	PixelSize      float64
	RasterFormat   RasterFormat
}

// NewLayer dispatches to the constructor registered for opts.Type.
func NewLayer(opts LayerOptions) (*Layer, error) {
	ctor, ok := layerRegistry[opts.Type]
	if !ok {
		return nil, fmt.Errorf("openlime: unknown layer type %q", opts.Type)
	}
	return ctor(opts)
}

func newImageLayer(opts LayerOptions) (*Layer, error) {
	l := newLayerCommon(opts)
	if len(opts.Shaders) == 0 {
		s := NewShader("image", []Sampler{{ID: 0, Name: "image"}}, nil, nil)
		s.DataSrc = func() string { return "func data(uv vec2) vec4 { return imageSrc0At(uv) }\n" }
		l.Shaders = map[string]*Shader{"image": s}
		l.Shader = s
	}
	l.Rasters = []*Raster{NewRaster(RasterVec4, ColorspaceSRGB, false)}
	return l, nil
}

func newRTILayer(opts LayerOptions) (*Layer, error) {
	l := newLayerCommon(opts)
	if len(opts.Shaders) == 0 {
		s := NewShaderRTI(RTIModePTM)
		l.Shaders = map[string]*Shader{"rti": s}
		l.Shader = s
	}
	n := rtiPlanes[RTIModePTM]
	rasters := make([]*Raster, n)
	for i := range rasters {
		rasters[i] = NewRaster(RasterVec3, ColorspaceLinear, false)
	}
	l.Rasters = rasters
	return l, nil
}

func newHDRLayer(opts LayerOptions) (*Layer, error) {
	l := newLayerCommon(opts)
	format := opts.RasterFormat
	if format == RasterVec3 {
		// Zero value: caller didn't request a specific HDR layout, default
		// to the packed half-float encoding.
		format = RasterRGBA16F
	}
	if len(opts.Shaders) == 0 {
		s := NewShader("hdr", []Sampler{{ID: 0, Name: "encoded"}}, nil, nil)
		s.DataSrc = func() string {
			return "func data(uv vec2) vec4 { return decodeHalfFloat(imageSrc0At(uv)) }\n"
		}
		l.Shaders = map[string]*Shader{"hdr": s}
		l.Shader = s
	}
	l.Rasters = []*Raster{NewRaster(format, ColorspaceLinear, true)}
	return l, nil
}

func newLayerCommon(opts LayerOptions) *Layer {
	l := &Layer{
		ID:             opts.ID,
		Label:          opts.Label,
		ZIndex:         opts.ZIndex,
		Visible:        opts.Visible,
		Overlay:        opts.Overlay,
		Transform:      opts.Transform,
		Layout:         opts.Layout,
		PrefetchBorder: opts.PrefetchBorder,
		MipmapBias:     opts.MipmapBias,
		PixelSize:      opts.PixelSize,
		SourceLayer:    opts.SourceLayer,
		Controls:       map[string]*Control{},
		tiles:          map[TileIndex]*Tile{},
		requested:      map[TileIndex]bool{},
	}
	if l.Transform == (Transform{}) {
		l.Transform = IdentityTransform()
	}
	if opts.Shaders != nil {
		l.Shaders = opts.Shaders
		l.Shader = opts.Shaders[opts.ActiveShader]
		if l.Shader == nil {
			for _, s := range opts.Shaders {
				l.Shader = s
				break
			}
		}
	}
	if l.SourceLayer != nil {
		l.tiles = l.SourceLayer.tiles
	}
	return l
}

// Layer binds a Layout, a set of Rasters, and a Shader, owning per-layer
// tiles and animated controls and driving the per-frame prefetch/draw
// steps, per spec.md §3/§4.6. Grounded on the teacher's tilemap.go
// (TileMapViewport/TileMapLayer tile bookkeeping) and animation.go's
// TweenGroup, generalized here to openlime.Control.
type Layer struct {
	ID             string
	Label          string
	ZIndex         int
	Visible        bool
	Overlay        bool
	Transform      Transform
	Layout         *Layout
	Rasters        []*Raster
	Shaders        map[string]*Shader
	Shader         *Shader
	Controls       map[string]*Control
	PrefetchBorder float64
	MipmapBias     float64
	PixelSize      float64
	SourceLayer    *Layer

	Signals Signals
	Status  string

	tiles     map[TileIndex]*Tile
	queue     []*Tile
	requested map[TileIndex]bool
}

// Derive creates a new Layer sharing this layer's tiles (by reference) and
// layout, with its own shader/label/zindex/transform, per spec.md §4.6.
// The derived layer never allocates its own GPU textures (testable
// property 7): its Prefetch is a no-op and its Draw reads the shared
// tiles map the owning (source) layer populates.
func (l *Layer) Derive(opts LayerOptions) *Layer {
	opts.SourceLayer = l
	opts.Layout = l.Layout
	if opts.Shaders == nil {
		opts.Shaders = map[string]*Shader{}
	}
	d := newLayerCommon(opts)
	d.Rasters = l.Rasters
	return d
}

// AddShader registers a named shader option on the layer without making
// it active.
func (l *Layer) AddShader(id string, s *Shader) {
	if l.Shaders == nil {
		l.Shaders = map[string]*Shader{}
	}
	l.Shaders[id] = s
}

// RemoveShader removes a named shader option (no effect if it is active).
func (l *Layer) RemoveShader(id string) {
	if s, ok := l.Shaders[id]; ok && s == l.Shader {
		return
	}
	delete(l.Shaders, id)
}

// SetShader switches the active shader to the one registered under id,
// rebuilding every resident tile's missing-counter relative to the new
// sampler count, per spec.md §4.6: missing = (new sampler count) minus
// (already-loaded textures, capped at the new count) — a simplification of
// "intersecting sampler ids" since openlime's textures slice is ordered by
// sampler index rather than keyed by sampler identity.
func (l *Layer) SetShader(id string) error {
	s, ok := l.Shaders[id]
	if !ok {
		return &ShaderError{Shader: l.Shader, Msg: fmt.Sprintf("unknown shader %q", id)}
	}
	l.Shader = s
	newCount := len(s.Samplers)
	for _, t := range l.tiles {
		have := len(t.Textures)
		if have > newCount {
			have = newCount
		}
		t.Missing = newCount - have
	}
	return nil
}

// AddControl creates a new animated uniform initialized to value.
func (l *Layer) AddControl(name string, value []float64) {
	l.Controls[name] = NewControl(value)
}

// SetControl retargets control name to value, animating from now over
// duration seconds using easing — spec.md §4.6's setControl, kept in
// seconds (not milliseconds) and with an explicit now parameter to match
// this codebase's no-wall-clock-reads convention (see [Control.SetTarget],
// [Camera.SetPosition]).
func (l *Layer) SetControl(name string, value []float64, now, duration float64, easing Easing) {
	c, ok := l.Controls[name]
	if !ok {
		c = NewControl(value)
		l.Controls[name] = c
	}
	c.SetTarget(value, now, duration, easing)
}

// GetControl returns the current value of control name and whether it has
// settled.
func (l *Layer) GetControl(name string) ([]float64, bool) {
	c, ok := l.Controls[name]
	if !ok {
		return nil, true
	}
	return c.Value(), c.Done()
}

// InterpolateControls advances every control to now, returning true once
// all have settled.
func (l *Layer) InterpolateControls(now float64) bool {
	allDone := true
	for _, c := range l.Controls {
		if !c.Advance(now) {
			allDone = false
		}
	}
	return allDone
}

// SetVisible toggles whether the layer participates in Canvas draw order.
func (l *Layer) SetVisible(v bool) { l.Visible = v }

// SetZindex changes the layer's draw-order key.
func (l *Layer) SetZindex(z int) { l.ZIndex = z }

// SetTransform replaces the layer's own transform (composed after the
// camera's, per [Transform.Compose]).
func (l *Layer) SetTransform(t Transform) { l.Transform = t }

// LayerState is the bookmarkable subset of a Layer's animated state, per
// spec.md §6's control-state serialization: per-control current values plus
// the active shader mode.
type LayerState struct {
	Controls map[string][]float64 `json:"controls"`
	Mode     string               `json:"mode"`
}

// GetState returns the current values of the named controls (all controls
// if mask is nil) plus the active shader's mode.
func (l *Layer) GetState(mask []string) LayerState {
	st := LayerState{Controls: map[string][]float64{}}
	names := mask
	if names == nil {
		for name := range l.Controls {
			names = append(names, name)
		}
	}
	for _, name := range names {
		if c, ok := l.Controls[name]; ok {
			st.Controls[name] = append([]float64(nil), c.Value()...)
		}
	}
	if l.Shader != nil {
		st.Mode = l.Shader.Mode
	}
	return st
}

// SetState retargets every control named in state over dt seconds with
// easing, and switches the active shader's mode if state.Mode is set.
func (l *Layer) SetState(state LayerState, now, dt float64, easing Easing) error {
	for name, value := range state.Controls {
		l.SetControl(name, value, now, dt, easing)
	}
	if state.Mode != "" && l.Shader != nil {
		return l.Shader.SetMode(state.Mode)
	}
	return nil
}

// Prefetch computes the tiles needed to render at cameraTransform/vp and
// registers them with cache, per spec.md §4.6. A no-op for derived layers
// (SourceLayer != nil): only the owning layer drives fetches for a shared
// tile set (testable property 7).
func (l *Layer) Prefetch(cameraTransform Transform, vp Viewport, now float64, cache *Cache) {
	if l.SourceLayer != nil || l.Layout == nil || l.Layout.Status != LayoutReady {
		return
	}
	needed := l.Layout.Needed(vp, cameraTransform, l.Transform, l.PrefetchBorder, l.MipmapBias, l.tiles)
	l.queue = l.queue[:0]
	for _, t := range needed {
		t.Time = now
		if existing, ok := l.tiles[t.Index]; ok {
			existing.Time = now
			existing.Priority = t.Priority
			if existing.Missing > 0 && !l.requested[existing.Index] {
				l.queue = append(l.queue, existing)
			}
			continue
		}
		if l.Shader != nil {
			t.Missing = len(l.Shader.Samplers)
		} else {
			t.Missing = len(l.Rasters)
		}
		l.tiles[t.Index] = t
		l.queue = append(l.queue, t)
	}
	if len(l.queue) > 0 {
		cache.SetCandidates(l)
	}
}

// drawBatch is the assembled per-tile geometry+texture data for one Draw
// call, the stand-in for spec.md §4.6 step 5's "update vertex/texcoord/
// index buffers for all available tiles in one batch".
type drawBatch struct {
	tiles []*Tile
	quads []TileQuad
}

// Draw interpolates controls, rebuilds the shader if dirty, resolves
// which tiles are available this frame, and issues one draw call per
// available tile, per spec.md §4.6's six-step contract. dst may be nil in
// headless/test contexts, in which case every step runs except the actual
// GPU draw call. Returns done = true once every control has settled.
func (l *Layer) Draw(dst *ebiten.Image, cameraTransform Transform, vp Viewport, now float64) (done bool, err error) {
	if !l.Visible {
		return true, nil
	}
	done = l.InterpolateControls(now)
	if l.Shader != nil {
		for name, c := range l.Controls {
			_ = l.Shader.SetUniform(name, c.Value())
		}
		if l.Shader.NeedsUpdate() {
			if buildErr := l.Shader.Build(); buildErr != nil {
				// Per spec.md §7: stay on the previous compiled program if
				// one exists; otherwise skip this layer's draw this frame.
				if l.Shader.Compiled() == nil {
					return done, buildErr
				}
			}
		}
	}

	combined := cameraTransform.Compose(l.Transform)

	if l.Layout == nil || l.Layout.Status != LayoutReady {
		return done, nil
	}
	avail := l.tilesToDraw(vp, cameraTransform)
	batch := l.buildBatch(avail, combined, vp)
	l.issueDrawCalls(dst, batch)
	return done, nil
}

func (l *Layer) tilesToDraw(vp Viewport, cameraTransform Transform) []*Tile {
	source := l.tiles
	if l.SourceLayer != nil {
		source = l.SourceLayer.tiles
	}
	return l.Layout.Available(vp, cameraTransform, l.Transform, 4, l.MipmapBias, source)
}

// buildBatch resolves each available tile's scene-space quad and maps its
// corners to screen space through combined/vp, so issueDrawCalls can hand
// ebiten.Vertex device-pixel destination coordinates directly.
func (l *Layer) buildBatch(avail []*Tile, combined Transform, vp Viewport) drawBatch {
	batch := drawBatch{tiles: avail, quads: make([]TileQuad, len(avail))}
	for i, t := range avail {
		q := l.Layout.TileCoords(t)
		for v := 0; v < 4; v++ {
			sx, sy := combined.MapToCanvas(q.Coords[v*3], q.Coords[v*3+1], vp)
			q.Coords[v*3], q.Coords[v*3+1] = sx, sy
		}
		batch.quads[i] = q
	}
	return batch
}

// issueDrawCalls binds each available tile's channel textures and issues
// its indexed draw call (spec.md §4.6 steps 6-7). No-op when dst is nil.
func (l *Layer) issueDrawCalls(dst *ebiten.Image, batch drawBatch) {
	if dst == nil || l.Shader == nil || l.Shader.Compiled() == nil {
		return
	}
	for i, t := range batch.tiles {
		if len(t.Textures) == 0 {
			continue
		}
		q := batch.quads[i]
		vertices := quadToVertices(q)
		indices := []uint16{0, 1, 2, 0, 2, 3}
		var opts ebiten.DrawTrianglesShaderOptions
		for j, tex := range t.Textures {
			if j >= len(opts.Images) {
				break
			}
			if tex != nil {
				opts.Images[j] = tex.image
			}
		}
		dst.DrawTrianglesShader(vertices, indices, l.Shader.Compiled(), &opts)
	}
}

func quadToVertices(q TileQuad) []ebiten.Vertex {
	v := make([]ebiten.Vertex, 4)
	for i := 0; i < 4; i++ {
		v[i] = ebiten.Vertex{
			DstX:   float32(q.Coords[i*3]),
			DstY:   float32(q.Coords[i*3+1]),
			SrcX:   float32(q.TCoords[i*2]),
			SrcY:   float32(q.TCoords[i*2+1]),
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
	}
	return v
}

// loadTile fetches every Raster's texture for tile and fills it in, called
// by [Cache.dispatch] on its fetch goroutine. Delegates to the owning
// (source, if derived) layer's Rasters and Layout backend, per spec.md
// §3's Tile lifecycle ("filled by Cache via Layer.loadTile").
func (l *Layer) loadTile(tile *Tile) error {
	owner := l
	if l.SourceLayer != nil {
		owner = l.SourceLayer
	}
	textures := make([]*rasterTexture, len(owner.Rasters))
	var total int64
	for i, r := range owner.Rasters {
		url := owner.Layout.backend.tileURL(owner.Layout, tile, i)
		tex, size, err := r.LoadImage(url)
		if err != nil {
			return &TileError{Layer: owner, Tile: tile.Index, URL: url, Err: err}
		}
		textures[i] = tex
		total += size
	}
	tile.Textures = textures
	tile.Missing = 0
	tile.Size = total
	tile.W, tile.H = textures[0].w, textures[0].h
	return nil
}

func (l *Layer) queueFront() *Tile {
	for len(l.queue) > 0 {
		t := l.queue[0]
		if l.requested[t.Index] {
			l.queue = l.queue[1:]
			continue
		}
		return t
	}
	return nil
}

func (l *Layer) markRequested(idx TileIndex) {
	l.requested[idx] = true
	if len(l.queue) > 0 && l.queue[0].Index == idx {
		l.queue = l.queue[1:]
	}
}

func (l *Layer) clearRequested(idx TileIndex) {
	delete(l.requested, idx)
}

func (l *Layer) forgetTile(idx TileIndex) {
	delete(l.tiles, idx)
	delete(l.requested, idx)
}

func (l *Layer) hasTile(idx TileIndex) bool {
	_, ok := l.tiles[idx]
	return ok
}

func (l *Layer) residentTiles() []*Tile {
	var out []*Tile
	for _, t := range l.tiles {
		if t.Missing == 0 {
			out = append(out, t)
		}
	}
	return out
}

func (l *Layer) oldestResident() *Tile {
	var oldest *Tile
	for _, t := range l.tiles {
		if t.Missing != 0 {
			continue
		}
		if oldest == nil || t.Time < oldest.Time {
			oldest = t
		}
	}
	return oldest
}
