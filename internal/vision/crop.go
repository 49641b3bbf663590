package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/planscope/sheetdex/internal/sheet"
)

// Fallback crop when no number anchor is known: the bottom-right share
// of the page where title blocks live.
const (
	fallbackWidthFrac  = 0.35
	fallbackHeightFrac = 0.40
)

// Anchored crop expansion around a detected sheet-number position, in
// render pixels. Title text sits above or left of the number in most
// title blocks, so the window reaches further in those directions.
const (
	anchorLeftPad  = 650
	anchorUpPad    = 450
	anchorRightPad = 150
	anchorDownPad  = 200
)

// CropTitleBlock cuts the title-block region out of a rendered page.
// When anchor is non-nil it is the pixel rect of the detected sheet
// number and the crop is centered on it; otherwise a fixed
// bottom-right window is used. Returns PNG bytes.
func CropTitleBlock(pageImage []byte, anchor *sheet.PixelRect) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(pageImage))
	if err != nil {
		return nil, fmt.Errorf("failed to decode page image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("page image is empty")
	}

	var rect image.Rectangle
	if anchor != nil {
		rect = image.Rect(
			int(anchor.X)-anchorLeftPad,
			int(anchor.Y)-anchorUpPad,
			int(anchor.X+anchor.W)+anchorRightPad,
			int(anchor.Y+anchor.H)+anchorDownPad,
		)
	} else {
		rect = image.Rect(
			w-int(float64(w)*fallbackWidthFrac),
			h-int(float64(h)*fallbackHeightFrac),
			w, h,
		)
	}
	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("crop region is outside the page")
	}

	cropped := imaging.Crop(img, rect)

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}
	return buf.Bytes(), nil
}
