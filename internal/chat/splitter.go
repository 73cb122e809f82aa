package chat

import (
	"strings"
	"unicode/utf8"
)

// SplitText cuts text on separator and merges the pieces into chunks of at
// most size runes, carrying up to overlap runes of trailing pieces into the
// next chunk. A single piece longer than size becomes its own chunk.
func SplitText(text, separator string, size, overlap int) []string {
	var pieces []string
	for _, p := range strings.Split(text, separator) {
		if p != "" {
			pieces = append(pieces, p)
		}
	}

	sepLen := utf8.RuneCountInString(separator)
	var (
		chunks  []string
		current []string
		total   int
	)

	// joined is the length current would have with one more piece of n runes
	joined := func(n int) int {
		if len(current) > 0 {
			return total + n + sepLen
		}
		return total + n
	}

	flush := func() {
		if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
			chunks = append(chunks, doc)
		}
	}

	for _, p := range pieces {
		n := utf8.RuneCountInString(p)

		if joined(n) > size && len(current) > 0 {
			flush()
			for len(current) > 0 && (total > overlap || joined(n) > size) {
				first := utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					first += sepLen
				}
				total -= first
				current = current[1:]
			}
		}

		current = append(current, p)
		if len(current) > 1 {
			total += n + sepLen
		} else {
			total += n
		}
	}
	flush()

	return chunks
}
