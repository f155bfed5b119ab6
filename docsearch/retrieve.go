package docsearch

import (
	"sort"
	"strings"
	"unicode"
)

// topChunks returns the k chunks most relevant to the query, in document
// order. Relevance is lexical: a chunk scores by how many distinct query
// terms it contains, term frequency breaking ties. Zero-score chunks are
// never returned.
func topChunks(query string, chunks []string, k int) []string {
	terms := tokenize(query)
	if len(terms) == 0 || len(chunks) == 0 {
		return nil
	}
	termSet := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		termSet[t] = struct{}{}
	}

	type scored struct {
		index    int
		distinct int
		freq     int
	}
	var candidates []scored
	for i, chunk := range chunks {
		counts := map[string]int{}
		for _, tok := range tokenize(chunk) {
			if _, ok := termSet[tok]; ok {
				counts[tok]++
			}
		}
		if len(counts) == 0 {
			continue
		}
		freq := 0
		for _, n := range counts {
			freq += n
		}
		candidates = append(candidates, scored{index: i, distinct: len(counts), freq: freq})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].distinct != candidates[b].distinct {
			return candidates[a].distinct > candidates[b].distinct
		}
		return candidates[a].freq > candidates[b].freq
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	sort.Slice(candidates, func(a, b int) bool { return candidates[a].index < candidates[b].index })
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = chunks[c.index]
	}
	return out
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
