package clause

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/changesense/internal/ingest"
)

// headingRe recognizes clause headings: leading numbering (dotted digit
// groups, roman numerals, or a bare uppercase letter) followed by ")" or
// "." and a title.
var headingRe = regexp.MustCompile(`^\s*(\d+(?:\.\d+)*|[IVX]+|[A-Z])\s*[\).]\s+(.*)$`)

var definedTermRe = regexp.MustCompile(`(?i)^"([^"]+)"\s+means\s+(.*)`)

// ParseHeading extracts the numbering label and title from a clause's
// leading text. ok is false when the text does not start with a heading.
func ParseHeading(text string) (label, title string, ok bool) {
	m := headingRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Build segments ordered blocks into a clause tree and defined-term index.
// Malformed or absent headings never fail: text without a heading simply
// attaches to the current clause or becomes its own section node.
func Build(blocks []ingest.Block) *Tree {
	rootSpan := ingest.NoSpan()
	if len(blocks) > 0 {
		rootSpan = blocks[0].Span
	}
	root := &Node{
		ClauseID: "root",
		Type:     "section",
		Label:    "root",
		Path:     "root",
		Text:     "",
		Tokens:   []string{},
		Span:     rootSpan,
	}

	tree := &Tree{Root: root}
	termIndex := make(map[string]int) // lowercased term -> position in DefinedTerms

	idx := 0
	var openLabel, openType string
	open := false
	var bufferText string
	bufferSpan := ingest.NoSpan()

	makeNode := func(label, text string, span ingest.SourceSpan, nodeType string) *Node {
		idx++
		return &Node{
			ClauseID: fmt.Sprintf("clause-%d", idx),
			Type:     nodeType,
			Label:    label,
			Path:     label,
			Text:     text,
			Tokens:   Tokenize(text),
			Span:     span,
		}
	}

	recordTerm := func(n *Node) {
		m := definedTermRe.FindStringSubmatch(n.Text)
		if m == nil {
			return
		}
		term := DefinedTerm{Term: m[1], ClauseID: n.ClauseID, Definition: m[2]}
		key := strings.ToLower(m[1])
		if pos, exists := termIndex[key]; exists {
			// Redefinition is last-write-wins, overwriting in place.
			tree.DefinedTerms[pos] = term
			return
		}
		termIndex[key] = len(tree.DefinedTerms)
		tree.DefinedTerms = append(tree.DefinedTerms, term)
	}

	flush := func() {
		if !open || strings.TrimSpace(bufferText) == "" {
			return
		}
		node := makeNode(openLabel, strings.TrimSpace(bufferText), bufferSpan, openType)
		root.Children = append(root.Children, node)
		recordTerm(node)
		open = false
		bufferText = ""
	}

	for _, block := range blocks {
		if block.Text == "" {
			continue
		}
		if label, title, ok := ParseHeading(block.Text); ok {
			flush()
			openLabel = label
			openType = "section"
			if strings.HasPrefix(strings.ToLower(title), "definitions") {
				openType = "definition"
			}
			open = true
			bufferText = block.Text
			bufferSpan = block.Span
			continue
		}

		if strings.HasPrefix(block.Type, "table") {
			if open {
				bufferText += "\n" + block.Text
			} else {
				root.Children = append(root.Children, makeNode("table", block.Text, block.Span, "table"))
			}
			continue
		}

		if open {
			bufferText += "\n" + block.Text
		} else {
			node := makeNode("section", block.Text, block.Span, "section")
			root.Children = append(root.Children, node)
			recordTerm(node)
		}
	}
	flush()

	tree.buildIndex()
	return tree
}
