package telegram

import (
	"strings"
	"unicode/utf8"
)

// maxMessageLength is the Bot API limit, counted in runes.
const maxMessageLength = 4096

// splitMessage cuts text into chunks of at most limit runes, preferring a
// paragraph break, then a line break, then a hard cut on a rune boundary.
func splitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = maxMessageLength
	}

	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		head := text[:byteOffsetOfRune(text, limit)]
		cut := len(head)
		if i := strings.LastIndex(head, "\n\n"); i > 0 {
			cut = i + 2
		} else if i := strings.LastIndex(head, "\n"); i > 0 {
			cut = i + 1
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" || len(chunks) == 0 {
		chunks = append(chunks, text)
	}
	return chunks
}

func byteOffsetOfRune(s string, n int) int {
	i := 0
	for pos := range s {
		if i == n {
			return pos
		}
		i++
	}
	return len(s)
}
