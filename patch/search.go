package patch

import "bytes"

// Index returns the position of the first occurrence of pattern in buf at
// or after from, or -1. An empty pattern never matches.
func Index(buf, pattern []byte, from int) int {
	if len(pattern) == 0 || from < 0 || from > len(buf)-len(pattern) {
		return -1
	}

	i := bytes.Index(buf[from:], pattern)
	if i < 0 {
		return -1
	}
	return from + i
}

// Count returns the number of occurrences of pattern in buf, overlapping
// occurrences included, stopping once limit is reached. limit <= 0 means
// no limit.
func Count(buf, pattern []byte, limit int) int {
	n := 0
	for pos := Index(buf, pattern, 0); pos >= 0; pos = Index(buf, pattern, pos+1) {
		n++
		if limit > 0 && n >= limit {
			break
		}
	}
	return n
}

// splice replaces buf[at:at+n] with repl, reusing buf's storage when it can.
func splice(buf []byte, at, n int, repl []byte) []byte {
	delta := len(repl) - n
	switch {
	case delta == 0:
		copy(buf[at:], repl)
		return buf
	case delta < 0:
		copy(buf[at:], repl)
		copy(buf[at+len(repl):], buf[at+n:])
		return buf[:len(buf)+delta]
	default:
		oldLen := len(buf)
		buf = append(buf, repl[:delta]...)
		copy(buf[at+len(repl):], buf[at+n:oldLen])
		copy(buf[at:], repl)
		return buf
	}
}
