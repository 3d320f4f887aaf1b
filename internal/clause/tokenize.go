package clause

import (
	"regexp"
	"strings"
)

// legalMultiword are phrases joined into single tokens before splitting,
// so that e.g. "subject to" survives as one unit of meaning in diffs.
var legalMultiword = []string{
	"to the extent",
	"provided that",
	"in accordance with",
	"subject to",
	"as set forth",
}

var tokenRe = regexp.MustCompile(`[\w_]+|[^\w\s]`)

// Tokenize lowercases text, joins known legal multiword phrases, and
// splits on word/punctuation boundaries.
func Tokenize(text string) []string {
	t := strings.ToLower(text)
	for _, phrase := range legalMultiword {
		t = strings.ReplaceAll(t, phrase, strings.ReplaceAll(phrase, " ", "_"))
	}
	return tokenRe.FindAllString(t, -1)
}

// SplitSentences splits text on sentence-ending punctuation followed by
// whitespace.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && isSpace(runes[i+1]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
