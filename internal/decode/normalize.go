package decode

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// homoglyphs maps lookalike code points to their closest ASCII letter.
// Static, not locale-sensitive. Covers Cyrillic, Greek, and full-width
// digits; full-width letters are folded by the range rule in Normalize.
var homoglyphs = map[rune]rune{
	// Cyrillic lowercase lookalikes
	'а': 'a', 'е': 'e', 'і': 'i', 'о': 'o', 'р': 'p', 'с': 'c', 'у': 'y', 'х': 'x',
	// Cyrillic uppercase lookalikes
	'А': 'A', 'В': 'B', 'Е': 'E', 'К': 'K', 'М': 'M', 'Н': 'H', 'О': 'O', 'Р': 'P',
	'С': 'C', 'Т': 'T', 'Х': 'X',
	// Greek lookalikes
	'α': 'a', 'β': 'b', 'ε': 'e', 'η': 'n', 'ι': 'i', 'κ': 'k', 'ν': 'v', 'ρ': 'p',
	'τ': 't', 'υ': 'u', 'χ': 'x',
	// Full-width digits
	'０': '0', '１': '1', '２': '2', '３': '3', '４': '4',
	'５': '5', '６': '6', '７': '7', '８': '8', '９': '9',
}

const (
	fullwidthLow  = 0xFF01
	fullwidthHigh = 0xFF5E
	fullwidthGap  = 0xFF01 - 0x21 // offset from full-width range to ASCII range
	fullwidthSpace = 0x3000
)

// Normalize folds full-width ASCII (U+FF01..U+FF5E to U+0021..U+007E),
// the full-width space (U+3000 to U+0020), and the static homoglyph table
// to their closest ASCII characters. An NFKC pass runs first to collapse
// standard Unicode compatibility variants ahead of the residual lookalikes
// the table covers.
func Normalize(s string) string {
	s = norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == fullwidthSpace:
			b.WriteRune(' ')
		case r >= fullwidthLow && r <= fullwidthHigh:
			b.WriteRune(r - fullwidthGap)
		default:
			if ascii, ok := homoglyphs[r]; ok {
				b.WriteRune(ascii)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
