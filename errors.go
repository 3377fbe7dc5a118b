package openlime

import "fmt"

// LayoutError reports a failure to fetch or parse a Layout's manifest
// (DZI XML, IIIF info.json, tarzoom index, ...). It is fatal for the
// Layout: status never reaches ready and no ready signal fires.
type LayoutError struct {
	Layout *Layout
	Err    error
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("openlime: layout %q: %v", e.layoutLabel(), e.Err)
}

func (e *LayoutError) Unwrap() error { return e.Err }

func (e *LayoutError) layoutLabel() string {
	if e.Layout == nil {
		return "<nil>"
	}
	return string(e.Layout.Type)
}

// TileError reports a failure to fetch or decode one tile. It is recovered
// locally: the tile is dropped from the owning layer's in-flight set and
// may be retried on the next prefetch cycle. Layer is carried (per
// SPEC_FULL.md §9) in addition to the fetch URL so a caller logging several
// layers' failures can tell them apart without re-deriving it from Tile.
type TileError struct {
	Layer *Layer
	Tile  TileIndex
	URL   string
	Err   error
}

func (e *TileError) Error() string {
	label := "<no layer>"
	if e.Layer != nil {
		label = e.Layer.Label
	}
	return fmt.Sprintf("openlime: tile %d of layer %q (%s): %v", e.Tile, label, e.URL, e.Err)
}

func (e *TileError) Unwrap() error { return e.Err }

// RasterError reports a failure to decode or upload one Raster's texture.
// The failing tile is rejected and not cached, per spec.md §4.3.
type RasterError struct {
	URL string
	Err error
}

func (e *RasterError) Error() string {
	return fmt.Sprintf("openlime: raster %q: %v", e.URL, e.Err)
}

func (e *RasterError) Unwrap() error { return e.Err }

// ShaderCompileError reports a GLSL/Kage compile or link failure. It is
// fatal for the Shader; the owning Layer keeps drawing with its previous
// shader if one compiled successfully, or skips its draw for the frame.
type ShaderCompileError struct {
	Shader *Shader
	Source string
	Err    error
}

func (e *ShaderCompileError) Error() string {
	label := "<unlabeled>"
	if e.Shader != nil {
		label = e.Shader.Label
	}
	return fmt.Sprintf("openlime: shader %q failed to compile: %v", label, e.Err)
}

func (e *ShaderCompileError) Unwrap() error { return e.Err }

// ShaderError reports misuse of a Shader's public contract: an unknown
// mode, an unknown uniform name, or similar programmer error.
type ShaderError struct {
	Shader *Shader
	Msg    string
}

func (e *ShaderError) Error() string {
	label := "<unlabeled>"
	if e.Shader != nil && e.Shader.Label != "" {
		label = e.Shader.Label
	}
	return fmt.Sprintf("openlime: shader %q: %s", label, e.Msg)
}

// ContextLostError reports that the GPU context (or, here, the Ebitengine
// render surface) was lost and must be restored: every Shader recompiles
// and every tile re-uploads its textures lazily on next touch.
type ContextLostError struct{}

func (e *ContextLostError) Error() string {
	return "openlime: GPU context lost, restoring"
}
