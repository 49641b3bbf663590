package sheet

import "testing"

func TestMapToPixels_FlipsVerticalAxis(t *testing.T) {
	vp := Viewport{Width: 612, Height: 792, Scale: 2.0}

	item := TextItem{Text: "A101", X: 100, Y: 50, Width: 40, Height: 10}
	r := MapToPixels(item, vp)

	if r.X != 200 {
		t.Errorf("expected X=200, got %v", r.X)
	}
	if r.Y != (792-50)*2 {
		t.Errorf("expected Y=%v, got %v", (792-50)*2, r.Y)
	}
	if r.W != 80 || r.H != 20 {
		t.Errorf("expected W=80 H=20, got W=%v H=%v", r.W, r.H)
	}
}

func TestMapToPixels_OrderReversing(t *testing.T) {
	vp := Viewport{Width: 612, Height: 792, Scale: 1.5}

	// Higher PDF y must map to strictly lower pixel y.
	a := TextItem{Text: "upper", X: 10, Y: 700}
	b := TextItem{Text: "lower", X: 10, Y: 100}

	ra := MapToPixels(a, vp)
	rb := MapToPixels(b, vp)

	if ra.Y >= rb.Y {
		t.Errorf("expected y_pdf %v > %v to map to y_px %v < %v", a.Y, b.Y, ra.Y, rb.Y)
	}
}

func TestVisualCenter_ShiftsAboveBaseline(t *testing.T) {
	vp := Viewport{Width: 612, Height: 1000, Scale: 1.0}
	item := TextItem{Text: "A101", X: 140, Y: 105, Width: 60, Height: 18}

	c := VisualCenter(item, vp)
	if c.X != 170 {
		t.Errorf("expected center X=170, got %v", c.X)
	}
	if c.Y != 886 {
		t.Errorf("expected center Y=886, got %v", c.Y)
	}
}

func TestPixelRect_Contains(t *testing.T) {
	r := PixelRect{X: 100, Y: 100, W: 50, H: 50}

	if !r.Contains(Point{X: 125, Y: 125}) {
		t.Error("expected center point to be contained")
	}
	if !r.Contains(Point{X: 100, Y: 100}) {
		t.Error("expected corner to be contained (inclusive bounds)")
	}
	if r.Contains(Point{X: 151, Y: 125}) {
		t.Error("expected point right of box to be excluded")
	}
	if r.Contains(Point{X: 125, Y: 99}) {
		t.Error("expected point above box to be excluded")
	}
}
