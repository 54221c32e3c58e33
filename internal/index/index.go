package index

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"career-constellation/internal/model"
)

// DefaultTopK is used when Search is called with k <= 0.
const DefaultTopK = 5

// minTokenRunes is the shortest token kept; shorter ones are dropped.
const minTokenRunes = 3

// Index is an immutable term-frequency index over a fixed chunk set.
type Index struct {
	chunks   []model.Chunk
	freqs    []map[string]int
	postings map[string][]int
}

// Build indexes chunks in the given order. The order breaks score ties.
func Build(chunks []model.Chunk) *Index {
	idx := &Index{
		chunks:   chunks,
		freqs:    make([]map[string]int, len(chunks)),
		postings: make(map[string][]int),
	}
	for i, c := range chunks {
		tf := termFrequency(Tokenize(c.Content))
		idx.freqs[i] = tf
		for term := range tf {
			idx.postings[term] = append(idx.postings[term], i)
		}
	}
	return idx
}

func (idx *Index) Len() int {
	return len(idx.chunks)
}

// Search returns up to k chunks with a non-zero score, best first. Equal
// scores keep chunk order.
func (idx *Index) Search(query string, k int) []model.RetrievalResult {
	if k <= 0 {
		k = DefaultTopK
	}
	terms := Tokenize(query)
	if len(terms) == 0 {
		return []model.RetrievalResult{}
	}

	candidates := make(map[int]struct{})
	for _, term := range terms {
		for _, i := range idx.postings[term] {
			candidates[i] = struct{}{}
		}
	}
	ordered := make([]int, 0, len(candidates))
	for i := range candidates {
		ordered = append(ordered, i)
	}
	sort.Ints(ordered)

	results := make([]model.RetrievalResult, 0, len(ordered))
	for _, i := range ordered {
		score := scoreTerms(terms, idx.freqs[i])
		if score == 0 {
			continue
		}
		results = append(results, model.RetrievalResult{Chunk: idx.chunks[i], Score: score})
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// Score computes the relevance of content for query in [0, 1].
func Score(query, content string) float64 {
	return scoreTerms(Tokenize(query), termFrequency(Tokenize(content)))
}

// Tokenize lower-cases text and splits it on whitespace. Punctuation at
// either end of a token is trimmed, so "PPE." and "ppe" are the same term.
// Tokens shorter than three characters are dropped.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, notWordRune)
		if utf8.RuneCountInString(f) >= minTokenRunes {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// scoreTerms counts every query token, repeats included, that occurs in
// the chunk, and doubles the matched fraction capped at 1.
func scoreTerms(terms []string, tf map[string]int) float64 {
	if len(terms) == 0 {
		return 0
	}
	matches := 0
	for _, term := range terms {
		if tf[term] > 0 {
			matches++
		}
	}
	raw := float64(matches) / float64(len(terms))
	if boosted := raw * 2; boosted < 1 {
		return boosted
	}
	return 1
}

func termFrequency(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}
