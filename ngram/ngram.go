// Package ngram extracts fixed-width character n-grams from UTF-8 text.
package ngram

import "unicode/utf8"

// Extract returns every contiguous run of n Unicode code points in text, in
// order. If text has fewer than n code points, it returns nil.
func Extract(text string, n int) []string {
	if n <= 0 {
		return nil
	}

	offsets := make([]int, 0, len(text)+1)
	for i := 0; i < len(text); {
		offsets = append(offsets, i)
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	offsets = append(offsets, len(text))

	if len(offsets) <= n {
		return nil
	}

	grams := make([]string, 0, len(offsets)-n)
	for i := 0; i+n < len(offsets); i++ {
		grams = append(grams, text[offsets[i]:offsets[i+n]])
	}

	return grams
}

// CodePointCount returns the number of Unicode code points in text.
func CodePointCount(text string) int {
	return utf8.RuneCountInString(text)
}
