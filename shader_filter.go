package openlime

// NewColorMatrixFilter builds a brightness/contrast/saturation filter,
// adapted from the teacher's filter.go ColorMatrixFilter: same three
// scalar uniforms and the same luminance-weighted saturation lerp, ported
// from its standalone Kage shader into one ShaderFilter stage so it can be
// appended to any Layer's Shader instead of only running as a full-screen
// post-process.
func NewColorMatrixFilter() *ShaderFilter {
	return &ShaderFilter{
		Name: "colormatrix",
		Uniforms: map[string]*Uniform{
			"brightness": {Type: UniformFloat, Value: []float64{0}},
			"contrast":   {Type: UniformFloat, Value: []float64{1}},
			"saturation": {Type: UniformFloat, Value: []float64{1}},
		},
		UniformSrc: "var Brightness float\nvar Contrast float\nvar Saturation float\n",
		BodySrc: `func filter_colormatrix(c vec4, uv vec2) vec4 {
	c.rgb += Brightness
	c.rgb = (c.rgb-0.5)*Contrast + 0.5
	lum := dot(c.rgb, vec3(0.299, 0.587, 0.114))
	c.rgb = mix(vec3(lum), c.rgb, Saturation)
	return c
}
`,
	}
}

// setColorMatrixUniform sets one of the color-matrix filter's scalar
// uniforms (brightness, contrast or saturation) by name, standing in for the
// teacher's filter.go ColorMatrixFilter setters.
func setColorMatrixUniform(s *Shader, f *ShaderFilter, name string, v float64) {
	if u, ok := f.Uniforms[name]; ok {
		_ = setUniformValue(s, u, []float64{v})
	}
}

// NewOutlineFilter builds the "outline" filter stage, named after the
// teacher's filter.go OutlineFilter. Its body passes through pixels with
// non-zero alpha and makes the rest fully transparent; it samples no
// neighbouring pixels, so no outline is drawn, and the width uniform is
// declared but not read by the body.
func NewOutlineFilter(width int) *ShaderFilter {
	return &ShaderFilter{
		Name: "outline",
		Uniforms: map[string]*Uniform{
			"width": {Type: UniformFloat, Value: []float64{float64(width)}},
		},
		UniformSrc: "var OutlineWidth float\n",
		BodySrc: `func filter_outline(c vec4, uv vec2) vec4 {
	if c.a > 0 {
		return c
	}
	return vec4(0, 0, 0, 0)
}
`,
	}
}
