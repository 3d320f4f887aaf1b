package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	quoteReplacer = strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
	)
	// Both real dash codepoints and the common UTF-8-as-Latin-1 artifacts.
	dashReplacer = strings.NewReplacer(
		"–", "-",
		"—", "-",
		"â€“", "-",
		"â€”", "-",
	)
	openParenRe  = regexp.MustCompile(`\s*\(\s*`)
	closeParenRe = regexp.MustCompile(`\s*\)\s*`)
	numberingRe  = regexp.MustCompile(`\b(\d+)\.(\d+)\b`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Canonicalize applies the full input normalization contract: smart quotes
// to ASCII, dash artifacts fixed, decimal numbering de-padded, whitespace
// runs collapsed. Every parser runs extracted text through this before the
// core sees it.
func Canonicalize(text string) string {
	// Dash artifacts first: the mojibake forms end in smart-quote bytes
	// that the quote replacer would otherwise rewrite.
	text = dashReplacer.Replace(text)
	text = quoteReplacer.Replace(text)
	text = openParenRe.ReplaceAllString(text, "(")
	text = closeParenRe.ReplaceAllString(text, ")")
	text = normalizeNumbering(text)
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
}

// normalizeNumbering strips zero-padding from dotted decimal numbering,
// "3.02" -> "3.2", so renumbered drafts compare cleanly.
func normalizeNumbering(text string) string {
	return numberingRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := numberingRe.FindStringSubmatch(m)
		major, err1 := strconv.Atoi(sub[1])
		minor, err2 := strconv.Atoi(sub[2])
		if err1 != nil || err2 != nil {
			return m
		}
		return strconv.Itoa(major) + "." + strconv.Itoa(minor)
	})
}
