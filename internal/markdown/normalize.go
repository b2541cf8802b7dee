package markdown

import "bytes"

var boldBracket = []byte("**]**")

// Normalize inserts a line break after every "**]**" that is not already followed by one.
// Without it the closing bracket can be taken as the end of a link label on the same line.
func Normalize(raw []byte) []byte {
	if !bytes.Contains(raw, boldBracket) {
		return raw
	}
	out := make([]byte, 0, len(raw)+8)
	rest := raw
	for {
		i := bytes.Index(rest, boldBracket)
		if i < 0 {
			out = append(out, rest...)
			return out
		}
		end := i + len(boldBracket)
		out = append(out, rest[:end]...)
		rest = rest[end:]
		if len(rest) == 0 || (rest[0] != '\n' && rest[0] != '\r') {
			out = append(out, '\n')
		}
	}
}
