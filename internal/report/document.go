package report

import (
	"bytes"
	"fmt"

	"github.com/gomutex/godocx"
)

// documentTableStyle borders every edge of every cell, header included.
// It ships with the godocx base template.
const documentTableStyle = "TableGrid"

// DocumentRenderer writes the report as a .docx document: heading, generation stamp, bordered table
type DocumentRenderer struct{}

// NewDocumentRenderer creates a document renderer
func NewDocumentRenderer() *DocumentRenderer {
	return &DocumentRenderer{}
}

// Format implements Renderer
func (r *DocumentRenderer) Format() Format {
	return FormatWord
}

// Render implements Renderer
func (r *DocumentRenderer) Render(rows []Row, meta Meta) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, &EncodingError{Format: FormatWord, Err: fmt.Errorf("failed to create document: %w", err)}
	}

	// Heading1 carries its own spacing, which sets the stamp apart from the title
	if _, err := doc.AddHeading(meta.Title(), 1); err != nil {
		return nil, &EncodingError{Format: FormatWord, Err: fmt.Errorf("failed to add heading: %w", err)}
	}
	doc.AddParagraph(meta.GeneratedLine())

	table := doc.AddTable()
	table.Style(documentTableStyle)
	header := table.AddRow()
	for _, column := range Columns {
		header.AddCell().AddParagraph(column)
	}
	for _, row := range rows {
		tr := table.AddRow()
		for _, cell := range row.Cells() {
			tr.AddCell().AddParagraph(cell)
		}
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, &EncodingError{Format: FormatWord, Err: fmt.Errorf("failed to write document: %w", err)}
	}
	return buf.Bytes(), nil
}
