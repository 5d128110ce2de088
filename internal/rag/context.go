package rag

import "strings"

const (
	// DefaultContextBudget is the character budget for model-backed answering.
	DefaultContextBudget = 4000
	// DefaultHeuristicBudget is the tighter budget for the extractive fallback.
	DefaultHeuristicBudget = 1200
)

// BuildContext assembles ranked chunks into a single bounded context string.
// Each chunk's text is split on line breaks; lines are trimmed, empty lines
// dropped and duplicate lines (by whitespace-normalized equality) kept only
// once. PDF extraction repeats headers and footers across pages, which is why
// the deduplication exists. Lines accumulate until the running total exceeds
// maxChars, then assembly stops; the boundary is line-granular, never
// mid-line.
func BuildContext(chunks []ScoredChunk, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultContextBudget
	}

	var lines []string
	seen := make(map[string]struct{})
	total := 0

	for _, chunk := range chunks {
		for _, line := range strings.Split(chunk.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			key := strings.Join(strings.Fields(line), " ")
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			lines = append(lines, line)
			total += len(line) + 1
			if total > maxChars {
				return strings.Join(lines, "\n")
			}
		}
	}

	return strings.Join(lines, "\n")
}

// NoSourceTextMsg is returned when the fallback finds no usable context lines.
const NoSourceTextMsg = "No encontré texto suficiente en la fuente para responder. Por favor, verifica el documento original."

// HeuristicAnswer produces an extractive answer when no model backend is
// available: up to 5 distinct non-empty lines of the tightly-budgeted context,
// joined with spaces. Line identity here is case-insensitive so near-duplicate
// sentences do not repeat in the answer.
func HeuristicAnswer(chunks []ScoredChunk, budget int) string {
	if budget <= 0 {
		budget = DefaultHeuristicBudget
	}
	ctx := BuildContext(chunks, budget)

	var sentences []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(ctx, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key := strings.ToLower(strings.Join(strings.Fields(line), " "))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		sentences = append(sentences, line)
		if len(sentences) >= 5 {
			break
		}
	}

	if len(sentences) == 0 {
		return NoSourceTextMsg
	}
	return strings.Join(sentences, " ")
}
