package openlime

import "fmt"

// RTIMode selects the relighting basis a [ShaderRTI] evaluates: polynomial
// texture maps, hemispherical harmonics, or a plain RGB pass-through with
// no relighting. The basis math itself (PTM/HSH coefficient evaluation) is
// an explicit Non-goal (spec.md §1); ShaderRTI wires the sampler count,
// light-direction uniform, and mode switch the real math would plug into,
// since the Overview names "light direction" as a control the core must
// support end-to-end.
type RTIMode string

const (
	RTIModePTM    RTIMode = "ptm"
	RTIModeHSH    RTIMode = "hsh"
	RTIModeRGB    RTIMode = "rgb"
)

// rtiPlanes gives the number of coefficient-plane samplers each mode reads,
// used to size Shader.Samplers when constructing a ShaderRTI.
var rtiPlanes = map[RTIMode]int{
	RTIModePTM: 3, // 3 packed planes of 6 PTM coefficients each (18 total)
	RTIModeHSH: 3, // 3 packed planes of 9 HSH coefficients each (27 total)
	RTIModeRGB: 1, // base color only, no relighting
}

// NewShaderRTI builds a Shader in the "rti" factory-registered Layer type's
// idiom: modes {ptm, hsh, rgb}, a "light" vec2 control (light direction,
// matching spec.md §8 scenario D's addControl("light", [0,0])), and a
// sampler block sized to the initial mode's coefficient-plane count.
// SetMode changes only Mode: the Samplers block and the DataSrc body stay
// those of the mode passed here.
func NewShaderRTI(mode RTIMode) *Shader {
	n := rtiPlanes[mode]
	samplers := make([]Sampler, n)
	for i := 0; i < n; i++ {
		samplers[i] = Sampler{ID: i, Name: fmt.Sprintf("plane%d", i)}
	}
	s := NewShader("rti", samplers, map[string]*Uniform{
		"light": {Type: UniformVec2, Value: []float64{0, 0}, NeedsUpdate: true},
	}, []string{string(RTIModePTM), string(RTIModeHSH), string(RTIModeRGB)})
	s.Mode = string(mode)
	s.DataSrc = func() string { return rtiDataSrc(mode, n) }
	return s
}

func rtiDataSrc(mode RTIMode, planes int) string {
	switch mode {
	case RTIModeRGB:
		return "func data(uv vec2) vec4 { return imageSrc0At(uv) }\n"
	default:
		// Plumbing stub: reads only plane 0; the other coefficient planes
		// and the light uniform are not sampled, and no basis evaluation
		// (weighting planes by the PTM/HSH polynomial of the light
		// direction) happens. That math is the Non-goal a real rti/hdr
		// consumer supplies via DataSrc override.
		return fmt.Sprintf("func data(uv vec2) vec4 { return imageSrc0At(uv) /* %d coefficient planes, light-weighted basis not evaluated here */ }\n", planes)
	}
}
