package indexer

import (
	"regexp"
	"strings"
)

const (
	// DefaultMaxSize is the default chunk window in runes.
	DefaultMaxSize = 1000
	// DefaultOverlap is the default overlap between consecutive windows.
	DefaultOverlap = 150
)

var (
	trailingSpaceRe = regexp.MustCompile(`[ \t\r\f\v\n]+\n`)
	newlineRunRe    = regexp.MustCompile(`\n{3,}`)
)

// Normalize collapses PDF-extraction artifacts: whitespace runs before a
// newline reduce to the newline, and runs of 3+ newlines collapse to 2.
func Normalize(text string) string {
	text = trailingSpaceRe.ReplaceAllString(text, "\n")
	return newlineRunRe.ReplaceAllString(text, "\n\n")
}

// SplitText splits text into overlapping fixed-size windows of at most
// maxSize runes, each starting maxSize-overlap runes after the previous one.
// Window contents are trimmed and empty windows dropped, so whitespace-only
// input yields no chunks. The split is purely positional, not semantic.
func SplitText(text string, maxSize, overlap int) []string {
	if text == "" {
		return nil
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = DefaultOverlap % maxSize
	}

	runes := []rune(Normalize(text))

	var parts []string
	i := 0
	for i < len(runes) {
		j := i + maxSize
		if j > len(runes) {
			j = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[i:j]))
		if chunk != "" {
			parts = append(parts, chunk)
		}
		if j >= len(runes) {
			break
		}
		i = j - overlap
		if i < 0 {
			i = 0
		}
	}

	return parts
}

// Split applies the default window parameters.
func Split(text string) []string {
	return SplitText(text, DefaultMaxSize, DefaultOverlap)
}
