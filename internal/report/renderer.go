package report

import (
	"fmt"
	"strings"
	"time"
)

// Format is an output encoding for a report
type Format string

const (
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
	FormatWord  Format = "word"
)

// Formats lists every supported format
var Formats = []Format{FormatExcel, FormatPDF, FormatWord}

// ParseFormat accepts a format name or its file extension
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "excel", "xlsx":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	case "word", "docx":
		return FormatWord, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	switch f {
	case FormatExcel:
		return ".xlsx"
	case FormatPDF:
		return ".pdf"
	case FormatWord:
		return ".docx"
	}
	return ""
}

// ContentType returns the MIME type of the rendered bytes
func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatWord:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// Meta is the report metadata that renderers print besides the rows
type Meta struct {
	Period      Period
	GeneratedAt time.Time
	Formatter   Formatter
}

// Title is the report heading
func (m Meta) Title() string {
	return m.Period.Title()
}

// GeneratedLine is the generation stamp
func (m Meta) GeneratedLine() string {
	return m.Formatter.GeneratedLine(m.GeneratedAt)
}

// Renderer serializes report rows into one output format.
// Implementations keep no state between calls.
type Renderer interface {
	Format() Format
	Render(rows []Row, meta Meta) ([]byte, error)
}

// NewRenderer creates the renderer for the given format
func NewRenderer(format Format) (Renderer, error) {
	switch format {
	case FormatExcel:
		return NewSpreadsheetRenderer(), nil
	case FormatPDF:
		return NewPDFRenderer(), nil
	case FormatWord:
		return NewDocumentRenderer(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Filename returns tasks_<period>_<yyyy-MM-dd><ext> for a report generated at generatedAt
func Filename(period Period, format Format, generatedAt time.Time, f Formatter) string {
	return fmt.Sprintf("tasks_%s_%s%s", period, generatedAt.In(f.Location()).Format("2006-01-02"), format.Extension())
}
