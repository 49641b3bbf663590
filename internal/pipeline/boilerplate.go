package pipeline

import (
	"strings"

	"github.com/planscope/sheetdex/internal/sheet"
	"github.com/planscope/sheetdex/internal/vision"
)

// flagBoilerplate is the one cross-page pass. Long titles repeated
// across many pages are almost always title block boilerplate (firm
// name, project name, disclaimers) that leaked past the geometric
// extractor, so they get sent to vision instead of persisted.
func (r *Runner) flagBoilerplate(states []*pageState) {
	counts := make(map[string][]*pageState)
	for _, st := range states {
		if st.failed {
			continue
		}
		title := strings.ToUpper(strings.TrimSpace(st.titleValue))
		if len(title) < r.cfg.BoilerplateMinLen {
			continue
		}
		counts[title] = append(counts[title], st)
	}
	for title, pages := range counts {
		if len(pages) <= r.cfg.BoilerplateCutoff {
			continue
		}
		r.logger.Info("boilerplate title detected",
			"title", title, "pages", len(pages))
		for _, st := range pages {
			st.boilerplate = true
		}
	}
}

// cropTitleBlock picks the crop anchor for a page. When the geometric
// pass found an anchored sheet number, the crop centers on its text
// item; otherwise the bottom-right fallback window is used.
func (r *Runner) cropTitleBlock(pageImage []byte, st *pageState) ([]byte, error) {
	var anchor *sheet.PixelRect
	if st.number != nil && st.source == sheet.SourceVectorAnchored {
		for _, it := range st.items {
			if strings.TrimSpace(it.Text) == st.number.Value {
				rect := sheet.MapToPixels(it, st.vp)
				anchor = &rect
				break
			}
		}
	}
	return vision.CropTitleBlock(pageImage, anchor)
}
