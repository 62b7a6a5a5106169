package shardio

import (
	"bufio"
	"io"
)

// maxLineSize bounds a single JSONL line's buffer, generous enough for any
// realistic single document while still catching a runaway/corrupt stream.
const maxLineSize = 64 * 1024 * 1024

// LineScanner returns a bufio.Scanner over r configured for long JSONL
// lines (the default bufio.Scanner token limit is far too small).
func LineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return sc
}
