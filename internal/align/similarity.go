package align

import (
	"math"
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dgallion1/changesense/internal/clause"
)

var (
	nonWordRe = regexp.MustCompile(`\W+`)
	wordRe    = regexp.MustCompile(`\w+`)
)

// normalize lowercases and strips non-word characters, so "3.2) Payment
// Terms" and "Payment Terms" share a key.
func normalize(s string) string {
	return nonWordRe.ReplaceAllString(strings.ToLower(s), "")
}

// titleOf returns a clause's heading title when extractable, else its
// raw label.
func titleOf(n *clause.Node) string {
	if _, title, ok := clause.ParseHeading(n.Text); ok {
		return title
	}
	return n.Label
}

// titleKey is the stage-1 match key.
func titleKey(n *clause.Node) string {
	return normalize(titleOf(n))
}

// headTokens joins the first 12 body tokens for fuzzy comparison.
func headTokens(n *clause.Node) string {
	tokens := n.Tokens
	if len(tokens) > 12 {
		tokens = tokens[:12]
	}
	return strings.Join(tokens, " ")
}

// similarity is a character-level sequence-match ratio in [0,1].
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// bagVector builds a term-frequency vector over a clause's word tokens.
func bagVector(n *clause.Node) map[string]int {
	vec := make(map[string]int)
	for _, tok := range wordRe.FindAllString(strings.ToLower(strings.Join(n.Tokens, " ")), -1) {
		vec[tok]++
	}
	return vec
}

// cosine is the normalized dot product of two term-frequency vectors.
func cosine(a, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for k, av := range a {
		dot += float64(av * b[k])
		normA += float64(av * av)
	}
	for _, bv := range b {
		normB += float64(bv * bv)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
