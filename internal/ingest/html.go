package ingest

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Headings, paragraphs, and list items
// become paragraph blocks; <td>/<th> cells become table_cell blocks.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := newDocument(filename)
	paraIdx := 0
	tableIdx := -1

	emitParagraph := func(raw string) {
		canon := Canonicalize(raw)
		if canon == "" {
			return
		}
		span := NoSpan()
		span.Paragraph = paraIdx
		doc.Blocks = append(doc.Blocks, Block{
			ID:   fmt.Sprintf("h-%d", paraIdx),
			Type: "paragraph",
			Text: canon,
			Span: span,
		})
		paraIdx++
	}

	var walkTable func(n *html.Node)
	walkTable = func(n *html.Node) {
		rowIdx := -1
		var visit func(n *html.Node)
		visit = func(n *html.Node) {
			if n.Type == html.ElementNode && n.Data == "tr" {
				rowIdx++
				colIdx := 0
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
						canon := Canonicalize(textContent(c))
						if canon != "" {
							span := NoSpan()
							span.Table = tableIdx
							span.Row = rowIdx
							span.Col = colIdx
							doc.Blocks = append(doc.Blocks, Block{
								ID:   fmt.Sprintf("tbl-%d-%d-%d", tableIdx, rowIdx, colIdx),
								Type: "table_cell",
								Text: canon,
								Span: span,
							})
						}
						colIdx++
					}
				}
				return
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				visit(c)
			}
		}
		visit(n)
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "table":
				tableIdx++
				walkTable(n)
				return
			case "h1", "h2", "h3", "h4", "h5", "h6", "p", "li", "blockquote":
				emitParagraph(textContent(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	body := findBody(root)
	if body != nil {
		walk(body)
	} else {
		walk(root)
	}
	return doc, nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
