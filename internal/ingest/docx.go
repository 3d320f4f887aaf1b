package ingest

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Paragraphs become paragraph blocks and
// table cells become table_cell blocks with (table,row,col) spans.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "changesense-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	wordDoc, err := docx.Parse(tmp, int64(size))
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := newDocument(filename)
	paraIdx := 0
	tableIdx := 0

	for _, item := range wordDoc.Document.Body.Items {
		switch node := item.(type) {
		case *docx.Paragraph:
			text := Canonicalize(docxParagraphText(node))
			if text == "" {
				continue
			}
			span := NoSpan()
			span.Paragraph = paraIdx
			doc.Blocks = append(doc.Blocks, Block{
				ID:   fmt.Sprintf("p-%d", paraIdx),
				Type: "paragraph",
				Text: text,
				Span: span,
			})
			paraIdx++
		case *docx.Table:
			for rIdx, row := range node.TableRows {
				for cIdx, cell := range row.TableCells {
					text := Canonicalize(docxCellText(cell))
					if text == "" {
						continue
					}
					span := NoSpan()
					span.Table = tableIdx
					span.Row = rIdx
					span.Col = cIdx
					doc.Blocks = append(doc.Blocks, Block{
						ID:   fmt.Sprintf("tbl-%d-%d-%d", tableIdx, rIdx, cIdx),
						Type: "table_cell",
						Text: text,
						Span: span,
					})
				}
			}
			tableIdx++
		}
	}

	return doc, nil
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func docxCellText(cell *docx.WTableCell) string {
	var parts []string
	for _, para := range cell.Paragraphs {
		if t := docxParagraphText(para); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
