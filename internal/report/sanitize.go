package report

import "strings"

// asciiFold maps the characters seen in practice in French review forms to
// ASCII substitutes the core PDF fonts can render.
var asciiFold = map[rune]string{
	'à': "a", 'â': "a", 'ä': "a", 'á': "a", 'ã': "a",
	'ç': "c",
	'é': "e", 'è': "e", 'ê': "e", 'ë': "e",
	'î': "i", 'ï': "i", 'í': "i",
	'ô': "o", 'ö': "o", 'ó': "o", 'õ': "o",
	'ù': "u", 'û': "u", 'ü': "u", 'ú': "u",
	'ÿ': "y", 'ñ': "n",
	'À': "A", 'Â': "A", 'Ä': "A", 'Á': "A", 'Ã': "A",
	'Ç': "C",
	'É': "E", 'È': "E", 'Ê': "E", 'Ë': "E",
	'Î': "I", 'Ï': "I", 'Í': "I",
	'Ô': "O", 'Ö': "O", 'Ó': "O", 'Õ': "O",
	'Ù': "U", 'Û': "U", 'Ü': "U", 'Ú': "U",
	'Ñ': "N",
	'œ': "oe", 'Œ': "OE", 'æ': "ae", 'Æ': "AE",
	'’': "'", '‘': "'", '‚': "'",
	'“': "\"", '”': "\"", '„': "\"",
	'«': "\"", '»': "\"",
	'–': "-", '—': "-", '−': "-",
	'…': "...",
	'€': "EUR", '°': " deg", '·': "-", '•': "-",
	' ': " ", ' ': " ",
}

// Sanitize makes arbitrary form input safe for measurement and drawing:
// diacritics folded, control characters removed, tabs widened, line breaks
// collapsed to single spaces, anything else non-ASCII replaced by '?'.
// Idempotent.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	// a run of line breaks becomes one space; literal spaces and widened
	// tabs pass through untouched
	pendingBreak := false
	flush := func() {
		if pendingBreak {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingBreak = false
		}
	}
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			pendingBreak = true
		case r == '\t':
			flush()
			b.WriteString("    ")
		case r < 0x20 || r == 0x7f:
			// control characters are dropped
		case r < 0x7f:
			flush()
			b.WriteRune(r)
		default:
			flush()
			if sub, ok := asciiFold[r]; ok {
				b.WriteString(sub)
			} else {
				b.WriteByte('?')
			}
		}
	}
	return b.String()
}
