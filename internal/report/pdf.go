package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"
	"golang.org/x/text/encoding/charmap"
)

// Page geometry in millimetres (A4 portrait)
const (
	pdfPageHeight   = 297.0
	pdfMarginLeft   = 14.0
	pdfMarginTop    = 15.0
	pdfMarginBottom = 18.0 // leaves room for the page footer
	pdfTitleY       = 15.0
	pdfGeneratedY   = 25.0
	pdfTableTop     = 30.0
	pdfLineHeight   = 5.0
	pdfCellPadding  = 1.5
	pdfFontSize     = 9.0
)

// Column widths add up to the 182mm between the side margins
var pdfColumnWidths = []float64{62, 40, 28, 28, 24}

// PDFRenderer lays the rows out as a table that flows across as many pages as needed
type PDFRenderer struct {
	compress bool
}

// NewPDFRenderer creates a PDF renderer with compressed page streams
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{compress: true}
}

// Format implements Renderer
func (r *PDFRenderer) Format() Format {
	return FormatPDF
}

// tablePage is the slice of table rows placed on one page.
// top is where the header row starts on that page.
type tablePage struct {
	top  float64
	rows []int
}

// paginate assigns rows to pages so that no row crosses the bottom margin.
// Each page starts with a header of headerHeight; the first page's table starts at firstTop,
// the following ones at nextTop.
func paginate(heights []float64, headerHeight, firstTop, nextTop, bottom float64) ([]tablePage, error) {
	var pages []tablePage
	page := tablePage{top: firstTop}
	y := firstTop + headerHeight
	for i, h := range heights {
		if nextTop+headerHeight+h > bottom {
			return nil, fmt.Errorf("row %d is %.1fmm tall and does not fit on a page", i+1, h)
		}
		if y+h > bottom {
			pages = append(pages, page)
			page = tablePage{top: nextTop}
			y = nextTop + headerHeight
		}
		page.rows = append(page.rows, i)
		y += h
	}
	return append(pages, page), nil
}

// Render implements Renderer
func (r *PDFRenderer) Render(rows []Row, meta Meta) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMarginLeft, pdfMarginTop, pdfMarginLeft)
	// Pagination is decided by paginate, never by gofpdf
	pdf.SetAutoPageBreak(false, pdfMarginBottom)
	pdf.SetCompression(r.compress)
	pdf.SetCreationDate(meta.GeneratedAt)
	pdf.SetCatalogSort(true)
	pdf.AliasNbPages("{nb}")

	// The built-in fonts only carry the cp1252 repertoire
	title, err := encodeCP1252(meta.Title())
	if err != nil {
		return nil, &EncodingError{Format: FormatPDF, Err: err}
	}
	generated, err := encodeCP1252(meta.GeneratedLine())
	if err != nil {
		return nil, &EncodingError{Format: FormatPDF, Err: err}
	}
	header, err := encodeCells(Columns)
	if err != nil {
		return nil, &EncodingError{Format: FormatPDF, Err: fmt.Errorf("header: %w", err)}
	}
	cells := make([][]string, len(rows))
	for i, row := range rows {
		if cells[i], err = encodeCells(row.Cells()); err != nil {
			return nil, &EncodingError{Format: FormatPDF, Err: fmt.Errorf("row %d: %w", i+1, err)}
		}
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "", 8)
		pdf.SetTextColor(108, 117, 125)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetTextColor(33, 37, 41)
	pdf.SetFont("Arial", "B", 16)
	pdf.Text(pdfMarginLeft, pdfTitleY, title)
	pdf.SetFont("Arial", "", 10)
	pdf.Text(pdfMarginLeft, pdfGeneratedY, generated)

	pdf.SetFont("Arial", "B", pdfFontSize)
	headerLines, headerHeight := measureRow(pdf, header)

	pdf.SetFont("Arial", "", pdfFontSize)
	rowLines := make([][][]string, len(rows))
	heights := make([]float64, len(rows))
	for i := range cells {
		rowLines[i], heights[i] = measureRow(pdf, cells[i])
	}

	pages, err := paginate(heights, headerHeight, pdfTableTop, pdfMarginTop, pdfPageHeight-pdfMarginBottom)
	if err != nil {
		return nil, &EncodingError{Format: FormatPDF, Err: err}
	}

	pdf.SetDrawColor(189, 195, 199)
	pdf.SetLineWidth(0.2)
	for pageIndex, page := range pages {
		if pageIndex > 0 {
			pdf.AddPage()
		}
		y := page.top
		// a leading page can be left without rows when the first row only fits on the next one
		if len(page.rows) > 0 || len(pages) == 1 {
			pdf.SetFont("Arial", "B", pdfFontSize)
			pdf.SetFillColor(41, 128, 185)
			pdf.SetTextColor(255, 255, 255)
			drawRow(pdf, headerLines, y, headerHeight, true)
			y += headerHeight
		}

		pdf.SetFont("Arial", "", pdfFontSize)
		pdf.SetTextColor(33, 37, 41)
		for _, idx := range page.rows {
			striped := idx%2 == 1
			if striped {
				pdf.SetFillColor(245, 245, 245)
			}
			drawRow(pdf, rowLines[idx], y, heights[idx], striped)
			y += heights[idx]
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &EncodingError{Format: FormatPDF, Err: fmt.Errorf("failed to generate PDF: %w", err)}
	}
	return buf.Bytes(), nil
}

// encodeCP1252 converts s to the single-byte encoding of the core PDF fonts.
// A character outside cp1252 is an error rather than a substituted glyph.
func encodeCP1252(s string) (string, error) {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			return "", fmt.Errorf("character %q in %q has no glyph in the built-in PDF fonts", r, s)
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

func encodeCells(cells []string) ([]string, error) {
	out := make([]string, len(cells))
	for i, cell := range cells {
		enc, err := encodeCP1252(cell)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", Columns[i], err)
		}
		out[i] = enc
	}
	return out, nil
}

// measureRow wraps every cp1252-encoded cell to its column width with the current font.
// It returns the wrapped lines per cell and the row height.
func measureRow(pdf *gofpdf.Fpdf, cells []string) ([][]string, float64) {
	lines := make([][]string, len(cells))
	maxLines := 1
	for i, cell := range cells {
		for _, line := range pdf.SplitLines([]byte(cell), pdfColumnWidths[i]-2*pdfCellPadding) {
			lines[i] = append(lines[i], string(line))
		}
		if len(lines[i]) > maxLines {
			maxLines = len(lines[i])
		}
	}
	return lines, float64(maxLines)*pdfLineHeight + 2*pdfCellPadding
}

// drawRow paints one table row at y with every cell boxed
func drawRow(pdf *gofpdf.Fpdf, lines [][]string, y, height float64, fill bool) {
	style := "D"
	if fill {
		style = "FD"
	}
	x := pdfMarginLeft
	for col, width := range pdfColumnWidths {
		pdf.Rect(x, y, width, height, style)
		for i, line := range lines[col] {
			pdf.SetXY(x+pdfCellPadding, y+pdfCellPadding+float64(i)*pdfLineHeight)
			pdf.CellFormat(width-2*pdfCellPadding, pdfLineHeight, line, "", 0, "L", false, 0, "")
		}
		x += width
	}
}
