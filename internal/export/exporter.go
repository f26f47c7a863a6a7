// Package export assembles the rendered report snapshot into a paginated
// PDF. It never triggers analysis and never mutates session state; it only
// reflects the snapshot the caller captured.
package export

import (
	"bytes"
	"math"

	"github.com/jung-kurt/gofpdf"

	apperrors "leafscan/internal/errors"
)

// Exporter turns a rasterized report snapshot (PNG or JPEG) into a PDF
// sized to one page width, scaled to fit, offset by a fixed margin.
type Exporter struct {
	topMargin  float64
	sideMargin float64
}

// NewExporter creates an exporter with the standard report margins (mm)
func NewExporter() *Exporter {
	return &Exporter{topMargin: 10, sideMargin: 10}
}

// Export produces the PDF bytes for one snapshot. Tall snapshots are split
// across pages by clipping; horizontal scale stays constant throughout.
func (e *Exporter) Export(snapshot []byte) ([]byte, error) {
	imgType, ok := snapshotType(snapshot)
	if !ok {
		return nil, apperrors.NewValidationError("snapshot must be a PNG or JPEG image", nil)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pageW, pageH := pdf.GetPageSize()

	opts := gofpdf.ImageOptions{ImageType: imgType}
	info := pdf.RegisterImageOptionsReader("report", opts, bytes.NewReader(snapshot))
	if pdf.Err() {
		return nil, apperrors.NewInternalError("failed to read snapshot image", pdf.Error())
	}
	if info.Width() <= 0 || info.Height() <= 0 {
		return nil, apperrors.NewValidationError("snapshot has no drawable area", nil)
	}

	drawW := pageW - 2*e.sideMargin
	drawH := info.Height() * drawW / info.Width()
	usableH := pageH - 2*e.topMargin

	pages := int(math.Ceil(drawH / usableH))
	if pages < 1 {
		pages = 1
	}
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.ClipRect(e.sideMargin, e.topMargin, drawW, usableH, false)
		pdf.ImageOptions("report", e.sideMargin, e.topMargin-float64(i)*usableH, drawW, drawH, false, opts, 0, "")
		pdf.ClipEnd()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperrors.NewInternalError("failed to assemble report PDF", err)
	}
	return buf.Bytes(), nil
}

func snapshotType(b []byte) (string, bool) {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return "JPG", true
	}
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return "PNG", true
	}
	return "", false
}
