package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TextParser handles plain text files. Blank lines separate paragraphs.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	doc := newDocument(filename)
	for i, para := range paragraphs {
		text := Canonicalize(para)
		if text == "" {
			continue
		}
		span := NoSpan()
		span.Paragraph = i
		doc.Blocks = append(doc.Blocks, Block{
			ID:   fmt.Sprintf("p-%d", i),
			Type: "paragraph",
			Text: text,
			Span: span,
		})
	}
	return doc, nil
}
