package sheet

// MapToPixels converts a PDF-space text item into render-pixel space.
// PDF y grows upward from the bottom edge; pixel y grows downward from
// the top, so the transform flips the vertical axis before scaling.
// Every comparison between text geometry and region geometry goes
// through this mapping; an unflipped coordinate anywhere corrupts all
// downstream containment tests.
func MapToPixels(item TextItem, vp Viewport) PixelRect {
	return PixelRect{
		X: item.X * vp.Scale,
		Y: (vp.Height - item.Y) * vp.Scale,
		W: item.Width * vp.Scale,
		H: item.Height * vp.Scale,
	}
}

// VisualCenter returns the approximate visual center of a text item in
// pixel space. The mapped Y sits at the text baseline, so the center is
// shifted up by half the item height.
func VisualCenter(item TextItem, vp Viewport) Point {
	r := MapToPixels(item, vp)
	return Point{
		X: r.X + r.W/2,
		Y: r.Y - r.H/2,
	}
}

// Center returns the midpoint of the rectangle.
func (r PixelRect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether the point lies inside the rectangle.
func (r PixelRect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W &&
		p.Y >= r.Y && p.Y <= r.Y+r.H
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
