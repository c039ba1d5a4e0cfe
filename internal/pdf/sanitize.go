package pdf

import (
	"strings"
)

var replacements = map[rune]string{
	'‘': "'", '’': "'", '‚': "'", '‛': "'", '′': "'",
	'“': `"`, '”': `"`, '„': `"`, '‟': `"`, '″': `"`,
	'‐': "-", '‑': "-", '‒': "-", '–': "-", '—': "-", '―': "-", '−': "-",
	'→': "->", '➔': "->", '➡': "->", '⇒': "=>", '←': "<-",
	'✓': "+", '✔': "+", '☑': "+", '✅': "+",
	'✗': "x", '✘': "x", '✕': "x", '❌': "x", '☒': "x",
	'…': "...",
	'•': "-", '‣': "-", '●': "-", '▪': "-", '◦': "-", '⁃': "-",
	'\u00a0': " ", '\u2002': " ", '\u2003': " ", '\u2009': " ", '\u202f': " ",
	'\t': " ",
	'\u200b': "", '\u200c': "", '\u200d': "", '\ufeff': "",
}

// cp1252 code points outside Latin-1 that survive replacement.
const winAnsiExtras = "€ƒ†‡ˆ‰Š‹ŒŽ˜™š›œžŸ"

// Sanitize maps typographic punctuation, arrows, ticks, crosses, ellipses and
// bullets to WinAnsi-safe equivalents and drops every other rune the core fonts
// cannot show. Newlines are kept.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if rep, ok := replacements[r]; ok {
			b.WriteString(rep)
			continue
		}
		switch {
		case r == '\n':
			b.WriteRune(r)
		case r >= 0x20 && r < 0x7F:
			b.WriteRune(r)
		case r >= 0xA0 && r <= 0xFF:
			b.WriteRune(r)
		case strings.ContainsRune(winAnsiExtras, r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
