package sink

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/matzehuels/pngsquare/pkg/atlas"
	"github.com/matzehuels/pngsquare/pkg/errors"
	pngio "github.com/matzehuels/pngsquare/pkg/io"
)

// PDFOption configures PDF rendering.
type PDFOption func(*pdfRenderer)

type pdfRenderer struct {
	sheet  image.Image
	labels bool
	title  string
}

// WithPDFSheet draws the composed sprite sheet underneath the outlines.
func WithPDFSheet(img image.Image) PDFOption {
	return func(r *pdfRenderer) { r.sheet = img }
}

// WithPDFLabels toggles sprite name labels (default on).
func WithPDFLabels(on bool) PDFOption {
	return func(r *pdfRenderer) { r.labels = on }
}

// WithPDFTitle overrides the page title (default: the atlas name).
func WithPDFTitle(title string) PDFOption {
	return func(r *pdfRenderer) { r.title = title }
}

type rgb struct{ R, G, B int }

var spriteColors = []rgb{
	{76, 175, 80},
	{33, 150, 243},
	{255, 152, 0},
	{156, 39, 176},
	{0, 188, 212},
	{244, 67, 54},
	{255, 235, 59},
	{121, 85, 72},
}

// A4 landscape, in mm.
const (
	pdfPageW   = 297.0
	pdfPageH   = 210.0
	pdfMargin  = 15.0
	pdfHeaderH = 12.0
	pdfStatsH  = 8.0
	pdfDrawTop = pdfMargin + pdfHeaderH + pdfStatsH

	// Embedded sheet images are downscaled to this many pixels on the long side.
	pdfSheetMaxSide = 2048
)

// RenderPDF renders a one-page preview of the layout: the canvas outline,
// one filled rectangle per sprite and a stats line.
func RenderPDF(a *atlas.Atlas, opts ...PDFOption) ([]byte, error) {
	r := pdfRenderer{labels: true, title: a.Name}
	for _, opt := range opts {
		opt(&r)
	}
	if a.Width <= 0 || a.Height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot preview an empty atlas")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(r.title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(pdfMargin, pdfMargin)
	pdf.CellFormat(pdfPageW-2*pdfMargin, pdfHeaderH,
		fmt.Sprintf("%s (%d x %d px, unit %d)", r.title, a.Width, a.Height, a.Unit), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(pdfMargin, pdfMargin+pdfHeaderH)
	pdf.CellFormat(pdfPageW-2*pdfMargin, 5,
		fmt.Sprintf("Sprites: %d | Canvas area: %d px | Efficiency: %.1f%%",
			len(a.Sprites), a.Area(), a.Efficiency()*100), "", 0, "L", false, 0, "")

	drawW := pdfPageW - 2*pdfMargin
	drawH := pdfPageH - pdfDrawTop - pdfMargin
	scale := math.Min(drawW/float64(a.Width), drawH/float64(a.Height))
	canvasW := float64(a.Width) * scale
	canvasH := float64(a.Height) * scale
	offX := pdfMargin + (drawW-canvasW)/2
	offY := pdfDrawTop

	pdf.SetFillColor(240, 240, 240)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.4)
	pdf.Rect(offX, offY, canvasW, canvasH, "FD")

	if r.sheet != nil {
		var buf bytes.Buffer
		if err := pngio.EncodePNG(&buf, pngio.Thumbnail(r.sheet, pdfSheetMaxSide)); err != nil {
			return nil, err
		}
		opt := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("sheet", opt, &buf)
		pdf.ImageOptions("sheet", offX, offY, canvasW, canvasH, false, opt, 0, "")
	}

	for i, s := range a.Sprites {
		x := offX + float64(s.X)*scale
		y := offY + float64(s.Y)*scale
		w := float64(s.W) * scale
		h := float64(s.H) * scale

		pdf.SetLineWidth(0.2)
		pdf.SetDrawColor(30, 30, 30)
		if r.sheet == nil {
			c := spriteColors[i%len(spriteColors)]
			pdf.SetFillColor(c.R, c.G, c.B)
			pdf.Rect(x, y, w, h, "FD")
		} else {
			pdf.Rect(x, y, w, h, "D")
		}

		if r.labels && w > 10 && h > 4 {
			size := math.Min(8, math.Max(4, h*1.5))
			pdf.SetFont("Helvetica", "", size)
			pdf.SetTextColor(0, 0, 0)
			if lw := pdf.GetStringWidth(s.Name); lw < w-1 {
				pdf.SetXY(x+(w-lw)/2, y+h/2-2)
				pdf.CellFormat(lw, 4, s.Name, "", 0, "C", false, 0, "")
			}
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), nil
}
