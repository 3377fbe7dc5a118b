// Command openlime-viewer is a minimal Ebitengine host for the openlime
// viewer core: point it at a deepzoom (.dzi) manifest or a single image and
// it opens a window with pan (drag), zoom (wheel/pinch), and double-tap-to-
// reset navigation, grounded on the teacher's examples/*/main.go demos and
// willow.go's gameShell/Run wiring.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/openlime-go/openlime"
)

func main() {
	var (
		url       = flag.String("url", "", "deepzoom (.dzi) manifest URL; empty opens a blank canvas")
		layoutArg = flag.String("layout", "deepzoom", "layout type: deepzoom|google|zoomify|iiif|tarzoom|itarzoom")
		width     = flag.Int("width", 1024, "window width")
		height    = flag.Int("height", 768, "window height")
	)
	flag.Parse()

	cv := openlime.NewCanvas(openlime.CanvasOptions{
		Viewport: openlime.Viewport{DX: float64(*width), DY: float64(*height)},
	})

	if *url != "" {
		layer, err := openlime.NewLayer(openlime.LayerOptions{
			Type:   "image",
			ID:     "base",
			Label:  "base",
			Layout: openlime.NewLayout(*url, layoutTypeFromFlag(*layoutArg)),
		})
		if err != nil {
			log.Fatalf("openlime-viewer: create layer: %v", err)
		}
		cv.AddLayer("base", layer)
		layer.Layout.Signals.On(openlime.SignalReady, func(...any) {
			cv.Camera().Fit(layer.Layout.BoundingBox(), 0, 0, openlime.FitContain)
		})
	}

	pm := openlime.NewPointerManager()
	pm.OnEvent(&panZoomController{canvas: cv, resetTo: cv.Layer("base")})

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("openlime-viewer")
	if err := ebiten.RunGame(&game{canvas: cv, pointers: pm, width: *width, height: *height}); err != nil {
		log.Fatal(err)
	}
}

func layoutTypeFromFlag(s string) openlime.LayoutType {
	switch s {
	case "google":
		return openlime.LayoutGoogle
	case "zoomify":
		return openlime.LayoutZoomify
	case "iiif":
		return openlime.LayoutIIIF
	case "tarzoom":
		return openlime.LayoutTarzoom
	case "itarzoom":
		return openlime.LayoutItarzoom
	default:
		return openlime.LayoutDeepzoom
	}
}

// game implements ebiten.Game by delegating to a Canvas and a
// PointerManager, the openlime equivalent of the teacher's gameShell.
type game struct {
	canvas   *openlime.Canvas
	pointers *openlime.PointerManager
	width    int
	height   int
	tick     float64
}

func (g *game) Update() error {
	g.tick += 1.0 / float64(ebiten.TPS())
	g.pointers.Update(g.tick)
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if _, err := g.canvas.Draw(screen, g.tick); err != nil {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("draw error: %v", err))
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

// panZoomController drives the Canvas's Camera from pan/pinch/wheel
// gestures — the Controller wiring doc.go's quick-start section points at.
type panZoomController struct {
	canvas  *openlime.Canvas
	resetTo *openlime.Layer // double-tap refits the camera to this layer's bounds, if set
}

func (c *panZoomController) Priority() int                          { return 0 }
func (c *panZoomController) ActiveModifiers() []openlime.Modifiers { return nil }

func (c *panZoomController) HandleGesture(ev openlime.GestureEvent) bool {
	cam := c.canvas.Camera()
	now := 0.0 // gesture-driven moves apply immediately, no tween needed
	switch ev.Type {
	case openlime.GesturePanMove:
		cur := cam.GetCurrentTransform(now)
		if cur.Z == 0 {
			return true
		}
		vp := cam.Viewport
		cx, cy := cur.MapToScene(vp.X+vp.DX/2, vp.Y+vp.DY/2, vp)
		cam.SetPosition(now, 0, cx-ev.DX/cur.Z, cy-ev.DY/cur.Z, cur.Z, cur.A)
		return true
	case openlime.GestureWheel:
		factor := 1.0 + ev.WheelDeltaY*0.1
		cam.DeltaZoom(now, 0.2, factor, ev.X, ev.Y)
		return true
	case openlime.GesturePinchMove:
		if ev.ScaleDelta != 0 {
			cam.DeltaZoom(now, 0, 1+ev.ScaleDelta, ev.X, ev.Y)
		}
		return true
	case openlime.GestureDoubleTap:
		if c.resetTo != nil && c.resetTo.Layout != nil {
			if bb := c.resetTo.Layout.BoundingBox(); !bb.IsEmpty() {
				cam.Fit(bb, now, 0.3, openlime.FitContain)
			}
		}
		return true
	}
	return false
}
