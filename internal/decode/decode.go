// Package decode implements the decoder suite and the Unicode normalizer.
// Each decoder follows a single-pass-per-encoding contract: it either
// returns a decoded string or a failure sentinel, and never recurses into
// its own output.
package decode

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// View is one canonicalized rendering of a message, tagged with the
// decoder that produced it.
type View struct {
	Type    string
	Decoded string
}

var (
	reBase64Like  = regexp.MustCompile(`[A-Za-z0-9+/]{30,}={0,2}`)
	reURLEncoded  = regexp.MustCompile(`(?:%[0-9a-fA-F]{2}){3,}`)
	reHexEscape   = regexp.MustCompile(`\\x[0-9a-fA-F]{2}`)
	reUnicodeEsc  = regexp.MustCompile(`\\u[0-9a-fA-F]{4}`)
	reDecEntity   = regexp.MustCompile(`&#(\d+);`)
	reHexEntity   = regexp.MustCompile(`&#[xX]([0-9a-fA-F]+);`)
)

// isPrintable reports whether decoded bytes are safe to treat as text:
// valid UTF-8, no replacement characters, and every rune is printable or
// whitespace. Grounded on transform.go's isPrintable.
func isPrintable(s string) bool {
	if !utf8.ValidString(s) || s == "" {
		return false
	}
	for _, r := range s {
		if r == utf8.RuneError {
			return false
		}
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// DecodeBase64 decodes s as standard or raw base64, returning ("", false)
// on failure or non-printable output.
func DecodeBase64(s string) (string, bool) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		if out, err := enc.DecodeString(s); err == nil && isPrintable(string(out)) {
			return string(out), true
		}
	}
	return "", false
}

// DecodeURL applies percent-decoding, returning ("", false) on failure.
func DecodeURL(s string) (string, bool) {
	out, err := url.QueryUnescape(s)
	if err != nil || out == s {
		return "", false
	}
	return out, true
}

// DecodeHexEscape decodes \xHH escape sequences.
func DecodeHexEscape(s string) (string, bool) {
	if !strings.Contains(s, `\x`) {
		return "", false
	}
	var b strings.Builder
	changed := false
	for i := 0; i < len(s); {
		if i+3 < len(s) && s[i] == '\\' && s[i+1] == 'x' {
			if n, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
				b.WriteByte(byte(n))
				i += 4
				changed = true
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	if !changed || !isPrintable(b.String()) {
		return "", false
	}
	return b.String(), true
}

// DecodeUnicodeEscape decodes \uHHHH escape sequences.
func DecodeUnicodeEscape(s string) (string, bool) {
	if !strings.Contains(s, `\u`) {
		return "", false
	}
	changed := false
	out := reUnicodeEsc.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.ParseUint(m[2:], 16, 32)
		if err != nil {
			return m
		}
		changed = true
		return string(rune(n))
	})
	if !changed || !isPrintable(out) {
		return "", false
	}
	return out, true
}

// DecodeHTMLEntity decodes decimal (&#NN;) and hex (&#xNN;) HTML entities.
func DecodeHTMLEntity(s string) (string, bool) {
	changed := false
	out := reDecEntity.ReplaceAllStringFunc(s, func(m string) string {
		sub := reDecEntity.FindStringSubmatch(m)
		n, err := strconv.Atoi(sub[1])
		if err != nil || n < 0 || n > unicode.MaxRune {
			return m
		}
		changed = true
		return string(rune(n))
	})
	out = reHexEntity.ReplaceAllStringFunc(out, func(m string) string {
		sub := reHexEntity.FindStringSubmatch(m)
		n, err := strconv.ParseInt(sub[1], 16, 32)
		if err != nil {
			return m
		}
		changed = true
		return string(rune(n))
	})
	if !changed || !isPrintable(out) {
		return "", false
	}
	return out, true
}

// StripZeroWidth removes zero-width and other invisible-format runes
// (Unicode category Cf) plus variation selectors, mirroring transform.go's
// TryStripInvisibles.
func StripZeroWidth(s string) (string, bool) {
	var b strings.Builder
	changed := false
	for _, r := range s {
		if unicode.Is(unicode.Cf, r) || r == '︎' || r == '️' {
			changed = true
			continue
		}
		b.WriteRune(r)
	}
	if !changed {
		return "", false
	}
	return b.String(), true
}

// Auto implements the §4.A "auto" routine: it extracts base64-like and
// URL-encoded substrings, and — if present — applies the hex/unicode
// escape decoders and the zero-width stripper to the whole message,
// keeping only views that differ from the input.
func Auto(text string) []View {
	var views []View

	for _, m := range reBase64Like.FindAllString(text, -1) {
		if out, ok := DecodeBase64(m); ok {
			views = append(views, View{Type: "base64", Decoded: out})
		}
	}

	for _, m := range reURLEncoded.FindAllString(text, -1) {
		if out, ok := DecodeURL(m); ok {
			views = append(views, View{Type: "url", Decoded: out})
		}
	}

	if strings.Contains(text, `\x`) {
		if out, ok := DecodeHexEscape(text); ok && out != text {
			views = append(views, View{Type: "hex", Decoded: out})
		}
	}
	if strings.Contains(text, `\u`) {
		if out, ok := DecodeUnicodeEscape(text); ok && out != text {
			views = append(views, View{Type: "unicode", Decoded: out})
		}
	}

	if out, ok := StripZeroWidth(text); ok && out != text {
		views = append(views, View{Type: "invisible", Decoded: out})
	}

	return views
}
