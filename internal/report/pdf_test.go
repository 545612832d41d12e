package report

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

var (
	// CellFormat writes "(text)Tj" and Text writes "(text) Tj"
	pdfTextOp    = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)\s*Tj`)
	pdfStream    = regexp.MustCompile(`(?s)>>\s*stream\r?\n(.*?)\r?\nendstream`)
	pdfPageObj   = regexp.MustCompile(`/Type /Page[^s]`)
	pdfFooterRe  = regexp.MustCompile(`^Page (\d+) of (\d+)$`)
	pdfUnescaper = strings.NewReplacer(`\\`, `\`, `\(`, `(`, `\)`, `)`, `\r`, "\r")
)

// pdfPage is the text drawn on one page, footer excluded
type pdfPage struct {
	number int
	texts  []string
}

// pdfContent concatenates every stream of the document, inflating the compressed ones
func pdfContent(t *testing.T, data []byte) string {
	t.Helper()
	var out strings.Builder
	for _, m := range pdfStream.FindAllSubmatch(data, -1) {
		zr, err := zlib.NewReader(bytes.NewReader(m[1]))
		if err != nil {
			out.Write(m[1])
			out.WriteByte('\n')
			continue
		}
		inflated, err := io.ReadAll(zr)
		zr.Close()
		if err != nil {
			t.Fatalf("inflate stream: %v", err)
		}
		out.Write(inflated)
		out.WriteByte('\n')
	}
	return out.String()
}

// readPDF extracts the text operands of a PDF page by page, compressed or not.
// Pages are delimited by their footer line.
func readPDF(t *testing.T, data []byte) []pdfPage {
	t.Helper()
	s := string(data)
	if !strings.HasPrefix(s, "%PDF-") {
		t.Fatalf("not a PDF: %q", s[:min(len(s), 16)])
	}
	content := pdfContent(t, data)
	decoder := charmap.Windows1252.NewDecoder()

	var pages []pdfPage
	var current []string
	for _, m := range pdfTextOp.FindAllStringSubmatch(content, -1) {
		text, err := decoder.String(pdfUnescaper.Replace(m[1]))
		if err != nil {
			t.Fatalf("decode %q: %v", m[1], err)
		}
		if fm := pdfFooterRe.FindStringSubmatch(text); fm != nil {
			n, _ := strconv.Atoi(fm[1])
			total, _ := strconv.Atoi(fm[2])
			if n != len(pages)+1 {
				t.Fatalf("footer %q out of sequence", text)
			}
			if objs := len(pdfPageObj.FindAllString(s, -1)); total != objs {
				t.Fatalf("footer says %d pages, document has %d", total, objs)
			}
			pages = append(pages, pdfPage{number: n, texts: current})
			current = nil
			continue
		}
		current = append(current, text)
	}
	if len(current) != 0 {
		t.Fatalf("text after the last footer: %v", current)
	}
	return pages
}

// tableRows splits a page's text into table rows of len(Columns) cells, skipping the header.
// It reports how many header rows it saw.
func tableRows(t *testing.T, texts []string) (rows [][]string, headers int) {
	t.Helper()
	for i := 0; i < len(texts); {
		if reflect.DeepEqual(texts[i:min(len(texts), i+len(Columns))], Columns) {
			headers++
			i += len(Columns)
			continue
		}
		if i+len(Columns) > len(texts) {
			t.Fatalf("incomplete row at the end of a page: %v", texts[i:])
		}
		rows = append(rows, texts[i:i+len(Columns)])
		i += len(Columns)
	}
	return rows, headers
}

func numberedRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			Action:       fmt.Sprintf("Task %03d", i),
			Responsible:  fmt.Sprintf("Owner %03d", i),
			PlannedStart: "04/03/2024",
			PlannedEnd:   "05/03/2024",
			Progress:     fmt.Sprintf("%d%%", i%101),
		}
	}
	return rows
}

func TestPDFRendererSinglePage(t *testing.T) {
	rows := []Row{
		{"Draft budget", "Ana", "04/03/2024", "05/03/2024", "40%"},
		{"Fix (urgent) bug", "Bruno", "06/03/2024", "06/03/2024", "0%"},
	}
	data, err := (&PDFRenderer{}).Render(rows, testMeta(PeriodWeekly))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	pages := readPDF(t, data)
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	texts := pages[0].texts
	if len(texts) < 2 || texts[0] != "Weekly Task Report" || texts[1] != "Generated on: 06/03/2024 10:00" {
		t.Fatalf("page starts with %v", texts[:min(len(texts), 2)])
	}
	got, headers := tableRows(t, texts[2:])
	if headers != 1 {
		t.Errorf("header rows = %d, want 1", headers)
	}
	want := [][]string{rows[0].Cells(), rows[1].Cells()}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %v\nwant %v", got, want)
	}
}

func TestPDFRendererPaginates(t *testing.T) {
	rows := numberedRows(120)
	data, err := (&PDFRenderer{}).Render(rows, testMeta(PeriodMonthly))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	pages := readPDF(t, data)
	if len(pages) < 2 {
		t.Fatalf("120 rows fit on %d page(s); expected the table to flow", len(pages))
	}

	var all [][]string
	for i, page := range pages {
		texts := page.texts
		if i == 0 {
			texts = texts[2:]
		}
		got, headers := tableRows(t, texts)
		if len(got) > 0 && headers != 1 {
			t.Errorf("page %d: %d header rows for %d data rows", page.number, headers, len(got))
		}
		if len(texts) > 0 && !reflect.DeepEqual(texts[:len(Columns)], Columns) {
			t.Errorf("page %d does not start its table with the header", page.number)
		}
		all = append(all, got...)
	}

	if len(all) != len(rows) {
		t.Fatalf("rendered %d rows, want %d", len(all), len(rows))
	}
	for i, row := range rows {
		if !reflect.DeepEqual(all[i], row.Cells()) {
			t.Fatalf("row %d = %v, want %v", i, all[i], row.Cells())
		}
	}
}

func TestPDFRendererEmpty(t *testing.T) {
	data, err := (&PDFRenderer{}).Render(nil, testMeta(PeriodDaily))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	pages := readPDF(t, data)
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	want := append([]string{"Daily Task Report", "Generated on: 06/03/2024 10:00"}, Columns...)
	if !reflect.DeepEqual(pages[0].texts, want) {
		t.Fatalf("texts = %v, want %v", pages[0].texts, want)
	}
}

func TestPDFRendererRejectsRowTallerThanPage(t *testing.T) {
	rows := []Row{{Action: strings.Repeat("overflowing ", 2000), Responsible: "Ana", PlannedStart: "04/03/2024", PlannedEnd: "05/03/2024", Progress: "1%"}}
	_, err := NewPDFRenderer().Render(rows, testMeta(PeriodDaily))
	var encErr *EncodingError
	if !errors.As(err, &encErr) || encErr.Format != FormatPDF {
		t.Fatalf("error = %v, want EncodingError for pdf", err)
	}
}

func TestPDFRendererIsRepeatable(t *testing.T) {
	rows := numberedRows(45)
	first, err := (&PDFRenderer{}).Render(rows, testMeta(PeriodWeekly))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := (&PDFRenderer{}).Render(rows, testMeta(PeriodWeekly))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !reflect.DeepEqual(readPDF(t, first), readPDF(t, second)) {
		t.Fatal("two renders of the same input differ")
	}
}

func TestPDFRendererReadsBackCompressed(t *testing.T) {
	rows := []Row{
		{"Revisar orçamento", "José Ñúñez", "04/03/2024", "05/03/2024", "75%"},
		{"Café (€ 1.200)", "Zoë", "06/03/2024", "07/03/2024", "100%"},
	}
	data, err := NewPDFRenderer().Render(rows, testMeta(PeriodWeekly))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(data, []byte("/FlateDecode")) {
		t.Fatal("NewPDFRenderer did not compress its page streams")
	}

	pages := readPDF(t, data)
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	got, headers := tableRows(t, pages[0].texts[2:])
	if headers != 1 {
		t.Errorf("header rows = %d, want 1", headers)
	}
	want := [][]string{rows[0].Cells(), rows[1].Cells()}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %q\nwant %q", got, want)
	}
}

func TestPDFRendererRejectsTextOutsideFonts(t *testing.T) {
	tests := []struct {
		name string
		row  Row
	}{
		{"check mark", Row{"Revisar orçamento ✓", "Ana", "04/03/2024", "05/03/2024", "10%"}},
		{"CJK responsible", Row{"Budget", "预算", "04/03/2024", "05/03/2024", "10%"}},
		{"emoji", Row{"Ship it 🚀", "Ana", "04/03/2024", "05/03/2024", "10%"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := append(numberedRows(3), tt.row)
			_, err := NewPDFRenderer().Render(rows, testMeta(PeriodWeekly))
			var encErr *EncodingError
			if !errors.As(err, &encErr) || encErr.Format != FormatPDF {
				t.Fatalf("error = %v, want EncodingError for pdf", err)
			}
			if !strings.Contains(err.Error(), "row 4") {
				t.Errorf("error %q does not name the offending row", err)
			}
		})
	}
}

func TestEncodeCP1252(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "plain", want: "plain"},
		{in: "orçamento", want: "or\xe7amento"},
		{in: "€", want: "\x80"},
		{in: "✓", wantErr: true},
		{in: "预算", wantErr: true},
	}
	for _, tt := range tests {
		got, err := encodeCP1252(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("encodeCP1252(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("encodeCP1252(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPaginate(t *testing.T) {
	const (
		header   = 8.0
		firstTop = 30.0
		nextTop  = 15.0
		bottom   = 100.0
	)

	tests := []struct {
		name    string
		heights []float64
		want    [][]int
	}{
		{"no rows", nil, [][]int{nil}},
		{"fits", []float64{10, 10, 10}, [][]int{{0, 1, 2}}},
		// first page has 62mm for rows, the next ones 77mm
		{"exact fit", []float64{31, 31, 31}, [][]int{{0, 1}, {2}}},
		{"tall row moves", []float64{50, 20, 70}, [][]int{{0}, {1}, {2}}},
		{"first row moves", []float64{70}, [][]int{nil, {0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := paginate(tt.heights, header, firstTop, nextTop, bottom)
			if err != nil {
				t.Fatalf("paginate: %v", err)
			}
			var got [][]int
			for i, page := range pages {
				got = append(got, page.rows)
				top := nextTop
				if i == 0 {
					top = firstTop
				}
				if page.top != top {
					t.Errorf("page %d top = %v, want %v", i, page.top, top)
				}
				y := page.top + header
				for _, idx := range page.rows {
					y += tt.heights[idx]
				}
				if y > bottom {
					t.Errorf("page %d overflows: %v > %v", i, y, bottom)
				}
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("pages = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := paginate([]float64{10, 78}, header, firstTop, nextTop, bottom); err == nil {
		t.Fatal("expected an error for a row that cannot fit on an empty page")
	}
}
