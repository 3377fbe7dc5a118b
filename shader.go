package openlime

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// UniformType names the GLSL/Kage scalar or vector type a Shader/ShaderFilter
// uniform carries, recorded alongside the value [Shader.UpdateUniforms] collects,
// per spec.md §4.4.
type UniformType uint8

const (
	UniformFloat UniformType = iota
	UniformVec2
	UniformVec3
	UniformVec4
	UniformInt
	UniformBool
	UniformMat3
	UniformMat4
)

// Sampler declares one texture-unit input a Shader's data() function reads.
type Sampler struct {
	ID   int
	Name string
}

// Uniform is a named shader constant: its declared type, current value
// (as a flat float64 slice regardless of Type, Kage-side conversion
// happens at upload time), and whether it must be re-pushed before the
// next draw.
type Uniform struct {
	Type        UniformType
	Value       []float64
	NeedsUpdate bool
}

// ShaderFilter is one composable fragment-shader stage applied to the
// color produced by the previous stage (spec.md §3/§9 glossary "Filter").
// Grounded on the teacher's filter.go Filter interface and its four Kage
// shader-source constants, generalized from fixed built-in filters
// (ColorMatrix/Blur/Outline/Palette) to an open, name-addressed set any
// Shader can append.
type ShaderFilter struct {
	Name     string
	Samplers []Sampler
	Uniforms map[string]*Uniform

	// UniformSrc/SamplerSrc declare this filter's uniforms/samplers in the
	// assembled Kage source; BodySrc is a Kage function `filter_<Name>(c
	// vec4, uv vec2) vec4` threaded into the generated main().
	UniformSrc string
	SamplerSrc string
	BodySrc    string
}

// Shader is a Kage program builder: it assembles source from a fixed
// preamble, a declared sampler block, a subclass-provided data() body, and
// an ordered filter chain, then lazily compiles it — the Ebitengine
// reframing of spec.md §4.4's GLSL program builder, grounded on the
// teacher's filter.go lazy-compile-global pattern ("no sync.Once — willow
// is single-threaded": openlime compiles on first draw from the one
// render-loop goroutine, no locking needed either).
type Shader struct {
	Label            string
	Samplers         []Sampler
	Uniforms         map[string]*Uniform
	Modes            []string
	Mode             string
	Filters          []*ShaderFilter
	TileSize         int
	IsLinear         bool
	IsSrgbSimplified bool

	// DataSrc returns the subclass's `data(uv vec2) vec4` Kage function
	// body — the one piece genuinely specific to an image/rti/hdr layer
	// type, supplied by the Layer constructor that creates this Shader.
	DataSrc func() string

	Signals Signals

	needsUpdate bool
	compiled    *ebiten.Shader
	source      string
}

// NewShader creates a Shader with the given samplers/uniforms/modes, ready
// to compile once DataSrc is set and Build is called.
func NewShader(label string, samplers []Sampler, uniforms map[string]*Uniform, modes []string) *Shader {
	if uniforms == nil {
		uniforms = map[string]*Uniform{}
	}
	mode := ""
	if len(modes) > 0 {
		mode = modes[0]
	}
	return &Shader{
		Label:       label,
		Samplers:    samplers,
		Uniforms:    uniforms,
		Modes:       modes,
		Mode:        mode,
		needsUpdate: true,
	}
}

// NeedsUpdate reports whether the built program is stale: a built program
// is valid only when this is false, per spec.md §3.
func (s *Shader) NeedsUpdate() bool { return s.needsUpdate }

// AddFilter appends f to the filter pipeline, sets needsUpdate, and emits
// [SignalUpdate].
func (s *Shader) AddFilter(f *ShaderFilter) {
	s.Filters = append(s.Filters, f)
	s.markDirty()
}

// RemoveFilter removes the named filter, if present.
func (s *Shader) RemoveFilter(name string) {
	for i, f := range s.Filters {
		if f.Name == name {
			s.Filters = append(s.Filters[:i], s.Filters[i+1:]...)
			s.markDirty()
			return
		}
	}
}

// ClearFilters removes every filter from the pipeline.
func (s *Shader) ClearFilters() {
	if len(s.Filters) == 0 {
		return
	}
	s.Filters = nil
	s.markDirty()
}

// SetMode switches the active mode; mode must be one of s.Modes or this
// returns [ShaderError] and leaves Mode unchanged (testable property 9).
func (s *Shader) SetMode(mode string) error {
	for _, m := range s.Modes {
		if m == mode {
			s.Mode = mode
			s.markDirty()
			return nil
		}
	}
	return &ShaderError{Shader: s, Msg: fmt.Sprintf("unknown mode %q", mode)}
}

// SetUniform sets a declared uniform's value (on the Shader itself or one
// of its filters). No-op if value already equals the stored value
// element-wise. Returns [ShaderError] if name is not declared anywhere.
func (s *Shader) SetUniform(name string, value []float64) error {
	if u, ok := s.Uniforms[name]; ok {
		return setUniformValue(s, u, value)
	}
	for _, f := range s.Filters {
		if u, ok := f.Uniforms[name]; ok {
			return setUniformValue(s, u, value)
		}
	}
	return &ShaderError{Shader: s, Msg: fmt.Sprintf("unknown uniform %q", name)}
}

func setUniformValue(s *Shader, u *Uniform, value []float64) error {
	if floatSliceEqual(u.Value, value) {
		return nil
	}
	u.Value = append([]float64(nil), value...)
	u.NeedsUpdate = true
	s.Signals.Emit(SignalUpdate)
	return nil
}

func floatSliceEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SetTileSize injects a Kage constant for filters (e.g. blur/outline) that
// need tile dimensions.
func (s *Shader) SetTileSize(size int) {
	if s.TileSize == size {
		return
	}
	s.TileSize = size
	s.markDirty()
}

func (s *Shader) markDirty() {
	s.needsUpdate = true
	s.Signals.Emit(SignalUpdate)
}

// Build assembles the Kage source (preamble + sampler block + data() +
// filter chain + generated main) and compiles it. On failure it logs the
// source with line numbers (matching the teacher's filter.go diagnostic
// style) and returns [ShaderCompileError]; the caller (Layer.draw) keeps
// the previous compiled program if one exists.
func (s *Shader) Build() error {
	src := s.assembleSource()
	compiled, err := ebiten.NewShader([]byte(src))
	if err != nil {
		debugf("shader %q failed to compile:\n%s", s.Label, numberedLines(src))
		return &ShaderCompileError{Shader: s, Source: src, Err: err}
	}
	s.compiled = compiled
	s.source = src
	s.needsUpdate = false
	for _, u := range s.Uniforms {
		u.NeedsUpdate = true
	}
	for _, f := range s.Filters {
		for _, u := range f.Uniforms {
			u.NeedsUpdate = true
		}
	}
	return nil
}

// Compiled returns the compiled Kage program, or nil if Build has not
// succeeded yet.
func (s *Shader) Compiled() *ebiten.Shader { return s.compiled }

func (s *Shader) assembleSource() string {
	var b strings.Builder
	fmt.Fprintf(&b, "//kage:unit pixels\npackage main\n\n")
	fmt.Fprintf(&b, "// preamble: tileSize=%d isLinear=%v isSrgbSimplified=%v\n", s.TileSize, s.IsLinear, s.IsSrgbSimplified)
	fmt.Fprintf(&b, "const tileSize = %d\n", s.TileSize)
	if s.IsSrgbSimplified {
		b.WriteString("func toLinear(c vec4) vec4 { return vec4(pow(c.rgb, vec3(2.2)), c.a) }\n")
	} else {
		b.WriteString("func toLinear(c vec4) vec4 { return c }\n")
	}
	for _, smp := range s.Samplers {
		fmt.Fprintf(&b, "// sampler %d: %s\n", smp.ID, smp.Name)
	}
	if s.DataSrc != nil {
		b.WriteString(s.DataSrc())
		b.WriteString("\n")
	} else {
		b.WriteString("func data(uv vec2) vec4 { return vec4(0) }\n")
	}
	for _, f := range s.Filters {
		b.WriteString(f.SamplerSrc)
		b.WriteString(f.UniformSrc)
		b.WriteString(f.BodySrc)
		b.WriteString("\n")
	}
	b.WriteString("func Fragment(dst vec4, src vec2, color vec4) vec4 {\n")
	b.WriteString("\tc := data(src)\n")
	for _, f := range s.Filters {
		fmt.Fprintf(&b, "\tc = filter_%s(c, src)\n", f.Name)
	}
	b.WriteString("\treturn c\n}\n")
	return b.String()
}

func numberedLines(src string) string {
	lines := strings.Split(src, "\n")
	var b strings.Builder
	for i, l := range lines {
		fmt.Fprintf(&b, "%4d: %s\n", i+1, l)
	}
	return b.String()
}

// UpdateUniforms returns the subset of shader-uniform values (Shader's own
// plus every filter's) that are currently dirty, keyed by name, and clears
// their NeedsUpdate flag — the Go-native equivalent of spec.md §4.4's
// "push any uniform with needsUpdate true" step. Nothing in the package
// passes the result to a draw call: Layer.Draw does not call it, and
// issueDrawCalls sets no DrawTrianglesShaderOptions.Uniforms.
func (s *Shader) UpdateUniforms() map[string][]float64 {
	out := map[string][]float64{}
	collect := func(name string, u *Uniform) {
		if u.NeedsUpdate {
			out[name] = u.Value
			u.NeedsUpdate = false
		}
	}
	for name, u := range s.Uniforms {
		collect(name, u)
	}
	for _, f := range s.Filters {
		for name, u := range f.Uniforms {
			collect(name, u)
		}
	}
	return out
}
