package sheet

// DeriveRegions computes the two candidate search regions for a label
// hit, sized as clamped multiples of the label's own bounding box so
// the geometry is resolution and zoom invariant. Every dimension has
// both a floor and a ceiling; sheets with abnormally large or tiny
// label text would otherwise produce pathological regions.
func DeriveRegions(hit LabelHit) []SearchRegion {
	return []SearchRegion{
		{Type: RegionRightOf, BBox: rightOfRegion(hit)},
		{Type: RegionBelow, BBox: belowRegion(hit)},
	}
}

// rightOfRegion starts just past the label's right edge, vertically
// centered with a slight upward bias. Values sit on the same baseline
// as their label or slightly above it.
func rightOfRegion(hit LabelHit) PixelRect {
	offset := clamp(0.25*hit.BBox.W, 10, 30)
	upBias := clamp(0.50*hit.BBox.H, 10, 40)
	w := clamp(6*hit.BBox.W, 250, 900)
	h := clamp(2.5*hit.BBox.H, 80, 220)
	return PixelRect{
		X: hit.BBox.X + hit.BBox.W + offset,
		Y: hit.Center.Y - h/2 - upBias,
		W: w,
		H: h,
	}
}

// belowRegion starts just past the label's bottom edge. Title regions
// are taller than number regions: titles commonly wrap to a second
// line below the label while numbers do not.
func belowRegion(hit LabelHit) PixelRect {
	gap := clamp(0.25*hit.BBox.H, 5, 15)

	heightMult := 5.0
	maxHeight := 520.0
	if hit.Type == LabelTitle || hit.Type == LabelModerate {
		heightMult = 7.0
		maxHeight = 650.0
	}

	return PixelRect{
		X: hit.BBox.X - clamp(0.25*hit.BBox.W, 10, 30),
		Y: hit.BBox.Y + hit.BBox.H + gap,
		W: clamp(6*hit.BBox.W, 250, 900),
		H: clamp(heightMult*hit.BBox.H, 120, maxHeight),
	}
}
