// Package transcript cleans up stitched transcription text before commit.
package transcript

import (
	"strings"
	"unicode"
)

// Normalize collapses whitespace, fixes spacing around punctuation, and
// capitalizes sentence starts. It is applied to the backend's stitched
// transcript before word counting and clipboard commit.
func Normalize(text string) string {
	collapsed := collapseSpaces(text)
	spaced := ensureSpaceAfterPunct(collapsed)
	cleaned := removeSpaceBeforePunct(spaced)
	capitalized := capitalizeSentences(cleaned)
	return strings.TrimSpace(collapseSpaces(capitalized))
}

// WordCount returns the whitespace-delimited token count of the trimmed text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func isPunct(r rune) bool {
	switch r {
	case '.', '!', '?', ',':
		return true
	}
	return false
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}
	return false
}

func collapseSpaces(text string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func ensureSpaceAfterPunct(text string) string {
	var b strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if isPunct(r) && i+1 < len(runes) && runes[i+1] != ' ' {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func removeSpaceBeforePunct(text string) string {
	var b strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		if r == ' ' && i+1 < len(runes) && isPunct(runes[i+1]) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func capitalizeSentences(text string) string {
	var b strings.Builder
	capitalizeNext := true
	for _, r := range text {
		if capitalizeNext && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
			capitalizeNext = false
			continue
		}
		b.WriteRune(r)
		if isSentenceEnd(r) {
			capitalizeNext = true
		}
	}
	return b.String()
}
