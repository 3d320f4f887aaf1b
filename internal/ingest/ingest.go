// Package ingest converts uploaded document bytes into ordered,
// canonicalized Blocks — the only input format the comparison core accepts.
package ingest

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SourceSpan locates a block in the original file. Fields that do not
// apply to a block type are left at -1.
type SourceSpan struct {
	Page      int `json:"page"`
	Paragraph int `json:"paragraph"`
	Run       int `json:"run"`
	Table     int `json:"table"`
	Row       int `json:"row"`
	Col       int `json:"col"`
}

// NoSpan returns a span with every coordinate unset.
func NoSpan() SourceSpan {
	return SourceSpan{Page: -1, Paragraph: -1, Run: -1, Table: -1, Row: -1, Col: -1}
}

// Block is one canonicalized unit of source text.
type Block struct {
	ID   string     `json:"block_id"`
	Type string     `json:"block_type"` // paragraph, table, table_row, table_cell
	Text string     `json:"text"`
	Span SourceSpan `json:"span"`
}

// Document is an ordered block sequence extracted from one uploaded file.
type Document struct {
	ID       string  `json:"doc_id"`
	Filename string  `json:"filename"`
	Blocks   []Block `json:"blocks"`
}

// Parser converts raw document bytes into a Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ParseUpload picks a parser by extension and runs it over data.
func ParseUpload(filename string, r io.Reader) (*Document, error) {
	p, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(r, filename)
}

func newDocument(filename string) *Document {
	return &Document{
		ID:       "doc-" + uuid.NewString(),
		Filename: filename,
	}
}

// Text joins all block text in document order, newline-separated.
func (d *Document) Text() string {
	var sb strings.Builder
	for _, b := range d.Blocks {
		if b.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(b.Text)
	}
	return sb.String()
}

// TableCellBlocks returns the table_cell blocks grouped by table index,
// preserving document order within each table.
func (d *Document) TableCellBlocks() map[int][]Block {
	out := make(map[int][]Block)
	for _, b := range d.Blocks {
		if b.Type != "table_cell" {
			continue
		}
		out[b.Span.Table] = append(out[b.Span.Table], b)
	}
	return out
}
