package keyexpr

import "strings"

// normalize strips the SpEL-style '#' in front of variable references so
// "#user.id + '_' + #kind" becomes "user.id + '_' + kind". String literals
// are copied untouched.
func normalize(src string) string {
	if !strings.Contains(src, "#") {
		return src
	}
	var sb strings.Builder
	sb.Grow(len(src))

	var quote byte
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case quote != 0:
			sb.WriteByte(ch)
			if ch == '\\' && i+1 < len(src) {
				i++
				sb.WriteByte(src[i])
			} else if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			sb.WriteByte(ch)
		case ch == '#' && i+1 < len(src) && isIdentStart(src[i+1]):
			// drop the marker, keep the identifier
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}
