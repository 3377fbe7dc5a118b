package openlime

import "testing"

func TestCanvasAddRemoveLayer(t *testing.T) {
	cv := NewCanvas(CanvasOptions{Viewport: Viewport{DX: 800, DY: 600}})
	l, _ := NewLayer(LayerOptions{Type: "image", Visible: true})
	cv.AddLayer("base", l)
	if cv.Layer("base") != l {
		t.Fatal("expected AddLayer to register the layer")
	}
	cv.RemoveLayer("base")
	if cv.Layer("base") != nil {
		t.Fatal("expected RemoveLayer to unregister the layer")
	}
}

func TestCanvasDrawOrderRespectsZIndexAndOverlay(t *testing.T) {
	cv := NewCanvas(CanvasOptions{Viewport: Viewport{DX: 800, DY: 600}})
	back, _ := NewLayer(LayerOptions{Type: "image", Visible: true, ZIndex: 0})
	overlay, _ := NewLayer(LayerOptions{Type: "image", Visible: true, ZIndex: 0, Overlay: true})
	front, _ := NewLayer(LayerOptions{Type: "image", Visible: true, ZIndex: 1})

	cv.AddLayer("overlay", overlay)
	cv.AddLayer("back", back)
	cv.AddLayer("front", front)

	order := cv.drawOrder()
	if len(order) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(order))
	}
	if order[0] != back || order[1] != overlay || order[2] != front {
		t.Errorf("expected [back, overlay, front], got order with ZIndex/Overlay %v",
			[]struct {
				Z int
				O bool
			}{{order[0].ZIndex, order[0].Overlay}, {order[1].ZIndex, order[1].Overlay}, {order[2].ZIndex, order[2].Overlay}})
	}
}

func TestCanvasDrawHeadlessNoPanic(t *testing.T) {
	cv := NewCanvas(CanvasOptions{Viewport: Viewport{DX: 256, DY: 256}})
	l, _ := NewLayer(LayerOptions{Type: "image", Visible: true})
	l.Layout = NewLayout("", LayoutImage)
	l.Layout.SetImageSize(512, 512, 256)
	cv.AddLayer("base", l)

	if _, err := cv.Draw(nil, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCanvasSimulateContextLossFailsNextDraw(t *testing.T) {
	cv := NewCanvas(CanvasOptions{Viewport: Viewport{DX: 256, DY: 256}})
	cv.SimulateContextLoss()
	if _, err := cv.Draw(nil, 0); err == nil {
		t.Fatal("expected ContextLostError after SimulateContextLoss")
	}
	cv.RestoreContext()
	if _, err := cv.Draw(nil, 0); err != nil {
		t.Fatalf("unexpected error after RestoreContext: %v", err)
	}
}
