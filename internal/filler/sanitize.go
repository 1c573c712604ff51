package filler

import "strings"

// punctReplacer maps typographic punctuation to its closest plain-text
// equivalent. The target field encoding cannot represent arbitrary Unicode,
// and AI-extracted text is full of smart quotes and long dashes.
var punctReplacer = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"‚", "'", // low single quote
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"„", `"`, // low double quote
	"«", `"`, // left guillemet
	"»", `"`, // right guillemet
	"–", "-", // en dash
	"—", "-", // em dash
	"…", "...", // ellipsis
	" ", " ", // non-breaking space
	"•", "-", // bullet
	"·", "-", // middle dot
)

// Sanitize rewrites typographic punctuation and strips every remaining rune
// outside the basic Latin-1 range. Newlines and tabs survive; other control
// characters do not.
func Sanitize(value string) string {
	value = punctReplacer.Replace(value)
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r < 0x20:
			// drop control characters
		case r <= 0xFF:
			b.WriteRune(r)
		}
	}
	return b.String()
}
