package kb

import (
	"fmt"
	"strings"
)

// maxExcerptLen keeps excerpts short enough to speak naturally.
const maxExcerptLen = 300

// Search returns the most relevant section of content for a free-text
// query, sized for voice output. Absence of a match is a normal
// outcome: the fallback message refers the caller to the brand. This
// never fails.
func Search(content, query, brandName string) string {
	if strings.TrimSpace(content) == "" {
		return fmt.Sprintf("I don't have specific knowledge base information available. Please contact %s directly for detailed information.", brandName)
	}

	sections := splitSections(content)
	queryWords := distinctWords(query)

	best := ""
	bestScore := 0
	for _, section := range sections {
		score := scoreSection(section, queryWords)
		// Ties keep the earliest section.
		if score > bestScore {
			best = section
			bestScore = score
		}
	}

	if bestScore == 0 {
		return fmt.Sprintf("I couldn't find specific information about '%s' in our knowledge base. Contact %s for more details.", query, brandName)
	}
	return truncateForVoice(best)
}

// splitSections breaks content on blank-line boundaries, dropping empty
// sections.
func splitSections(content string) []string {
	parts := strings.Split(content, "\n\n")
	sections := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			sections = append(sections, trimmed)
		}
	}
	return sections
}

func distinctWords(query string) []string {
	seen := make(map[string]struct{})
	var words []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	return words
}

// scoreSection counts how many distinct query words appear anywhere in
// the section, regardless of frequency or order.
func scoreSection(section string, queryWords []string) int {
	lower := strings.ToLower(section)
	score := 0
	for _, word := range queryWords {
		if strings.Contains(lower, word) {
			score++
		}
	}
	return score
}

// truncateForVoice trims a long section at sentence boundaries so the
// spoken excerpt never cuts mid-sentence.
func truncateForVoice(section string) string {
	if len(section) <= maxExcerptLen {
		return section
	}

	sentences := strings.Split(section, ". ")
	truncated := sentences[0]
	for _, sentence := range sentences[1:] {
		if len(truncated)+len(". ")+len(sentence) >= maxExcerptLen {
			break
		}
		truncated += ". " + sentence
	}
	if !strings.HasSuffix(truncated, ".") {
		truncated += "."
	}
	return truncated
}
