package data

import (
	"strconv"
	"strings"
)

// Lookup resolves a variable path against v.
//
// A path is a sequence of dictionary keys separated by dots, each optionally
// followed by bracketed array indices or quoted keys:
//
//	user.name
//	items[0].title
//	matrix[1][-1]
//	headers["Content-Type"]
//
// An empty path resolves to v itself. A segment that does not exist yields
// Null and false.
func (v Value) Lookup(path string) (Value, bool) {
	cur := v

	for _, seg := range splitPath(path) {
		var ok bool

		switch {
		case seg.index:
			n, err := strconv.Atoi(seg.name)
			if err != nil {
				return Null(), false
			}

			cur, ok = cur.Index(n)
		default:
			cur, ok = cur.Key(seg.name)
		}

		if !ok {
			return Null(), false
		}
	}

	return cur, true
}

type segment struct {
	name  string
	index bool
}

func splitPath(path string) []segment {
	var (
		segs []segment
		sb   strings.Builder
	)

	flush := func() {
		if sb.Len() > 0 {
			segs = append(segs, segment{name: sb.String()})
			sb.Reset()
		}
	}

	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '.':
			flush()
		case '[':
			flush()

			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				// Unterminated bracket; treat the remainder as a key.
				sb.WriteString(path[i:])
				i = len(path)

				continue
			}

			inner := strings.TrimSpace(path[i+1 : i+end])
			if unq, err := strconv.Unquote(inner); err == nil {
				segs = append(segs, segment{name: unq})
			} else {
				segs = append(segs, segment{name: inner, index: true})
			}

			i += end
		default:
			sb.WriteByte(c)
		}
	}

	flush()

	return segs
}
