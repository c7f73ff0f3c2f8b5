package jsast

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// StringValue returns the decoded value of a string literal node.
// ok is false for non-string nodes and malformed escapes.
func StringValue(n Node) (string, bool) {
	if !n.IsStringLiteral() {
		return "", false
	}
	raw := n.Text()
	if len(raw) < 2 {
		return "", false
	}
	q := raw[0]
	if (q != '"' && q != '\'') || raw[len(raw)-1] != q {
		return "", false
	}
	return DecodeString(raw[1 : len(raw)-1])
}

// DecodeString resolves JavaScript escape sequences in the body of a quoted
// string literal (the text between the quotes).
func DecodeString(body string) (string, bool) {
	if !strings.Contains(body, `\`) {
		return body, true
	}
	var b strings.Builder
	b.Grow(len(body))

	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		i++
		if i >= len(body) {
			return "", false
		}
		switch esc := body[i]; esc {
		case 'n':
			b.WriteByte('\n')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		case 'b':
			b.WriteByte('\b')
			i++
		case 'f':
			b.WriteByte('\f')
			i++
		case 'v':
			b.WriteByte('\v')
			i++
		case '0':
			b.WriteByte(0)
			i++
		case '\n':
			// продолжение строки
			i++
		case '\r':
			i++
			if i < len(body) && body[i] == '\n' {
				i++
			}
		case 'x':
			if i+3 > len(body) {
				return "", false
			}
			v, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", false
			}
			b.WriteRune(rune(v))
			i += 3
		case 'u':
			r, next, ok := decodeUnicodeEscape(body, i)
			if !ok {
				return "", false
			}
			i = next
			// суррогатная пара \uD83D\uDE00
			if utf16.IsSurrogate(r) && next+1 < len(body) && body[next] == '\\' && body[next+1] == 'u' {
				if lo, after, ok := decodeUnicodeEscape(body, next+1); ok {
					if pair := utf16.DecodeRune(r, lo); pair != utf8.RuneError {
						r = pair
						i = after
					}
				}
			}
			b.WriteRune(r)
		default:
			// \' \" \\ и любой другой символ дают сам символ;
			// U+2028/U+2029 после \ тоже продолжение строки
			r, size := utf8.DecodeRuneInString(body[i:])
			if r != '\u2028' && r != '\u2029' {
				b.WriteRune(r)
			}
			i += size
		}
	}
	return b.String(), true
}

// decodeUnicodeEscape parses \uHHHH or \u{H+}; i points at 'u'.
func decodeUnicodeEscape(body string, i int) (rune, int, bool) {
	if i+1 < len(body) && body[i+1] == '{' {
		end := strings.IndexByte(body[i+2:], '}')
		if end <= 0 {
			return 0, 0, false
		}
		hex := body[i+2 : i+2+end]
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0, false
		}
		return rune(v), i + 2 + end + 1, true
	}
	if i+5 > len(body) {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(body[i+1:i+5], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	return rune(v), i + 5, true
}
