package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// splitLiteral separates a Python string literal into its lowercased
// prefix and the text between the quotes.
func splitLiteral(lit string) (prefix, body string) {
	i := 0
	for i < len(lit) && strings.IndexByte("rRbBuUfFtT", lit[i]) >= 0 {
		i++
	}
	prefix, rest := strings.ToLower(lit[:i]), lit[i:]
	q := 1
	if strings.HasPrefix(rest, `"""`) || strings.HasPrefix(rest, `'''`) {
		q = 3
	}
	if len(rest) < 2*q {
		return prefix, ""
	}
	return prefix, rest[q : len(rest)-q]
}

// decodeEscapes interprets backslash escapes the way the Python tokenizer
// does for non-raw literals. Unknown escapes are kept verbatim.
func decodeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' || i+1 >= len(s) {
			sb.WriteByte(ch)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			sb.WriteByte(e)
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			sb.WriteRune(rune(v))
			i = j - 1
		case 'x', 'u', 'U':
			width := 2
			switch e {
			case 'u':
				width = 4
			case 'U':
				width = 8
			}
			if i+width < len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32); err == nil && utf8.ValidRune(rune(v)) {
					sb.WriteRune(rune(v))
					i += width
					continue
				}
			}
			sb.WriteByte('\\')
			sb.WriteByte(e)
		default:
			sb.WriteByte('\\')
			sb.WriteByte(e)
		}
	}
	return sb.String()
}
