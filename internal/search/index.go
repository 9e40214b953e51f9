package search

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// BM25 parameters: k1 controls term-frequency saturation, b controls
// document-length normalization.
const (
	k1 = 1.5
	b  = 0.75
)

// DefaultTopK is the result count used when the caller passes topK <= 0.
const DefaultTopK = 5

// Unicode classes, not Go's ASCII-only \w: pages may carry non-ASCII words.
var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize lowercases text and splits it into maximal runs of word
// characters (Unicode letters and digits, plus underscore). The same
// tokenizer is used for indexing and for queries.
func Tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// Result is a single ranked search hit.
type Result struct {
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// Index is the in-memory inverted index. It is not safe for concurrent use;
// the owning store serializes access under its own lock so that the page map
// and the index always mutate together.
type Index struct {
	postings   map[string]map[string]struct{}
	docLengths map[string]int
	docs       map[string]string
	avgdl      float64
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		postings:   make(map[string]map[string]struct{}),
		docLengths: make(map[string]int),
		docs:       make(map[string]string),
	}
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	return len(ix.docLengths)
}

// Upsert (re-)indexes a document: prior postings and the length record are
// dropped first, then recomputed from content.
func (ix *Index) Upsert(title, content string) {
	ix.Remove(title)

	tokens := Tokenize(content)
	ix.docLengths[title] = len(tokens)
	ix.docs[title] = content
	for _, tok := range tokens {
		set, ok := ix.postings[tok]
		if !ok {
			set = make(map[string]struct{})
			ix.postings[tok] = set
		}
		set[title] = struct{}{}
	}
	ix.recomputeAvgdl()
}

// Remove deletes a document from the index, pruning any posting list left
// empty.
func (ix *Index) Remove(title string) {
	delete(ix.docLengths, title)
	delete(ix.docs, title)
	for tok, set := range ix.postings {
		delete(set, title)
		if len(set) == 0 {
			delete(ix.postings, tok)
		}
	}
	ix.recomputeAvgdl()
}

func (ix *Index) recomputeAvgdl() {
	if len(ix.docLengths) == 0 {
		ix.avgdl = 0
		return
	}
	total := 0
	for _, dl := range ix.docLengths {
		total += dl
	}
	ix.avgdl = float64(total) / float64(len(ix.docLengths))
}

// Search runs a BM25-ranked query and returns at most topK results, highest
// score first. Ties are broken by ascending title so rankings are stable.
// An empty query or an empty corpus yields no results.
func (ix *Index) Search(query string, topK int) []Result {
	if topK <= 0 {
		topK = DefaultTopK
	}
	tokens := Tokenize(query)
	if len(tokens) == 0 || len(ix.docLengths) == 0 {
		return nil
	}

	n := float64(len(ix.docLengths))
	avgdl := ix.avgdl
	if avgdl == 0 {
		avgdl = 1
	}

	scores := make(map[string]float64)
	for _, term := range distinct(tokens) {
		set, ok := ix.postings[term]
		if !ok {
			continue
		}
		df := float64(len(set))
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)
		for title := range set {
			tf := float64(termCount(ix.docs[title], term))
			dl := float64(ix.docLengths[title])
			scores[title] += idf * tf * (k1 + 1) / (tf + k1*(1-b+b*dl/avgdl))
		}
	}

	ranked := make([]Result, 0, len(scores))
	for title, score := range scores {
		ranked = append(ranked, Result{Title: title, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Title < ranked[j].Title
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	for i := range ranked {
		ranked[i].Snippet = makeSnippet(ix.docs[ranked[i].Title], tokens)
	}
	return ranked
}

// termCount recomputes the term frequency by retokenizing the document.
// Correctness over caching: the count always reflects current content.
func termCount(content, term string) int {
	count := 0
	for _, tok := range Tokenize(content) {
		if tok == term {
			count++
		}
	}
	return count
}

func distinct(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

const (
	snippetLen    = 120
	snippetBefore = 30
)

// makeSnippet extracts a window of raw content around the earliest
// case-insensitive occurrence of any query token. When no token appears as a
// substring the head of the document is returned instead.
func makeSnippet(content string, queryTokens []string) string {
	lower := strings.ToLower(content)
	best := -1
	for _, tok := range queryTokens {
		if pos := strings.Index(lower, tok); pos >= 0 && (best < 0 || pos < best) {
			best = pos
		}
	}
	if best < 0 {
		snippet := content
		if len(snippet) > snippetLen {
			snippet = snippet[:snippetLen]
		}
		snippet = strings.ReplaceAll(snippet, "\n", " ")
		if len(content) > snippetLen {
			snippet += "..."
		}
		return snippet
	}

	// Lowercasing changes the byte length of a few code points, so an offset
	// found in lower can exceed the original string.
	if best > len(content) {
		best = len(content)
	}
	start := best - snippetBefore
	if start < 0 {
		start = 0
	}
	end := start + snippetLen
	if end > len(content) {
		end = len(content)
	}
	snippet := strings.ReplaceAll(content[start:end], "\n", " ")
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet += "..."
	}
	return snippet
}
