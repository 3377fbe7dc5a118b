// Package openlime implements the tiled-rendering core of a browser-grade
// multi-resolution raster viewer: camera/transform interpolation, tile
// pyramid layout, a process-wide fetch-and-eviction cache, layer and raster
// lifecycle, GPU shader/filter composition, and pointer/gesture dispatch,
// as used by cultural-heritage and scientific imaging viewers (RTI,
// multispectral, decorrelation-stretch, deep-zoom mosaics).
//
// openlime renders through [Ebitengine]; an [ebiten.Image] stands in for a
// GPU texture handle and an [ebiten.Shader] (Kage) stands in for a compiled
// GLSL program.
//
// # Quick start
//
//	cv := openlime.NewCanvas(openlime.CanvasOptions{Viewport: openlime.Viewport{DX: 1024, DY: 768}})
//	layer, _ := openlime.NewLayer(openlime.LayerOptions{
//		Type:   "image",
//		Layout: openlime.NewLayout("https://example.org/image.dzi", openlime.LayoutDeepzoom),
//	})
//	cv.AddLayer("base", layer)
//	layer.Layout.Signals.On(openlime.SignalReady, func(...any) {
//		cv.Camera().Fit(layer.Layout.BoundingBox(), 0, 0, openlime.FitContain)
//	})
//
// The DeepZoom manifest is resolved asynchronously, so the bounding box is
// only known once the Layout emits SignalReady.
//
// Each frame, call [Canvas.Draw] from the host's render loop (typically an
// [ebiten.Game.Draw] implementation); Canvas drives prefetch and draw for
// every visible layer in z-order and reports whether all animations have
// settled, so the host can stop scheduling frames once the view is static.
//
// To wire up pan/zoom/tap input, implement [Controller] (translating
// panMove/pinchMove/mouseWheel gestures into [Camera] calls) and register it
// on a [PointerManager] via [PointerManager.OnEvent], then call
// [PointerManager.Update] once per frame alongside [Canvas.Draw].
//
// # Concurrency model
//
// openlime is single-threaded and cooperative: all mutation of tiles,
// cameras, layers, and the cache happens on the caller's render-loop
// goroutine. The only real concurrency lives inside [Cache], which launches
// bounded fetch goroutines and delivers their results back onto the render
// loop through a channel drained at the start of [Cache.Update].
//
// [Ebitengine]: https://ebitengine.org
package openlime
