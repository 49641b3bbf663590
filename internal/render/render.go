// Package render owns page rasterization and vector text-layer
// extraction for drawing-set PDFs. The service is constructed once per
// process and opens one Document per job; nothing here is global.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dslipak/pdf"
	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/planscope/sheetdex/internal/sheet"
)

// ErrCannotOpen is returned when the source PDF cannot be opened at
// all. This is a document-level failure: there is nothing per-page to
// degrade to, so callers abort the job.
var ErrCannotOpen = errors.New("cannot open PDF")

// DefaultDPI is the render resolution when none is configured.
const DefaultDPI = 150

// Config configures the renderer service.
type Config struct {
	DPI    int
	Logger *slog.Logger
}

// Service renders PDF pages and extracts their text layers.
type Service struct {
	dpi    int
	logger *slog.Logger
}

// New creates a renderer service.
func New(cfg Config) *Service {
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultDPI
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{dpi: cfg.DPI, logger: cfg.Logger}
}

// Scale returns the PDF-point to render-pixel scale factor.
func (s *Service) Scale() float64 {
	return float64(s.dpi) / 72.0
}

// Document is an open drawing set. It holds the text-layer reader for
// the life of a job; rasterization shells out per page.
type Document struct {
	svc       *Service
	path      string
	reader    *pdf.Reader
	pageCount int
}

// Open validates the PDF and prepares it for page access. Both the
// page-count check and the text-layer reader must succeed; a document
// that fails either is unprocessable.
func (s *Service) Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotOpen, err)
	}
	pageCount, err := pdfcpu.PageCount(f, nil)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: page count: %v", ErrCannotOpen, err)
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrCannotOpen)
	}

	reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: text layer: %v", ErrCannotOpen, err)
	}

	s.logger.Debug("opened document", "path", filepath.Base(path), "pages", pageCount)

	return &Document{
		svc:       s,
		path:      path,
		reader:    reader,
		pageCount: pageCount,
	}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.pageCount
}

// TextLayer extracts the vector text items of a page (1-indexed) along
// with the viewport needed to map them into render-pixel space.
func (d *Document) TextLayer(pageNum int) ([]sheet.TextItem, sheet.Viewport, error) {
	if pageNum < 1 || pageNum > d.pageCount {
		return nil, sheet.Viewport{}, fmt.Errorf("page %d out of range (1-%d)", pageNum, d.pageCount)
	}

	page := d.reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, sheet.Viewport{}, fmt.Errorf("page %d is null", pageNum)
	}

	width, height := pageSize(page)
	vp := sheet.Viewport{Width: width, Height: height, Scale: d.svc.Scale()}

	content := page.Content()
	items := make([]sheet.TextItem, 0, len(content.Text))
	for _, text := range content.Text {
		if text.S == "" {
			continue
		}
		items = append(items, sheet.TextItem{
			Text:   text.S,
			X:      text.X,
			Y:      text.Y,
			Width:  text.W,
			Height: text.FontSize,
		})
	}

	return mergeRuns(items), vp, nil
}

// Render rasterizes a page (1-indexed) to PNG at the service DPI using
// pdftoppm from poppler-utils.
func (d *Document) Render(ctx context.Context, pageNum int) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "sheetdex-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")
	pageStr := fmt.Sprintf("%d", pageNum)

	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", fmt.Sprintf("%d", d.svc.dpi),
		"-singlefile",
		d.path,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	data, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not produce output: %w", err)
	}
	return data, nil
}

// pageSize resolves the page MediaBox, walking up the page tree for
// inherited values. Falls back to US Letter when absent.
func pageSize(page pdf.Page) (float64, float64) {
	v := page.V
	for i := 0; i < 16 && !v.IsNull(); i++ {
		mb := v.Key("MediaBox")
		if !mb.IsNull() && mb.Len() == 4 {
			x0, y0 := mb.Index(0).Float64(), mb.Index(1).Float64()
			x1, y1 := mb.Index(2).Float64(), mb.Index(3).Float64()
			if x1 > x0 && y1 > y0 {
				return x1 - x0, y1 - y0
			}
		}
		v = v.Key("Parent")
	}
	return 612, 792
}
