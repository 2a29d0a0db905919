package conversation

import "strings"

const (
	titleMaxLen   = 50
	titleEllipsis = "…"
)

// deriveTitle builds a conversation title from the first user message:
// short texts verbatim, longer ones cut at the last word boundary within
// the first 50 characters, with an ellipsis appended.
func deriveTitle(text string) string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) <= titleMaxLen {
		return trimmed
	}

	cut := string(runes[:titleMaxLen])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + titleEllipsis
}
