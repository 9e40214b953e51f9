// Package search implements the in-memory BM25 full-text index over wiki
// page content. The index stores document-level postings only; term
// frequencies are recomputed from the current document text at query time.
package search

// Searcher defines the index operations the wiki store depends on.
// Consumers should depend on this interface rather than the concrete *Index
// to facilitate testing with mocks.
type Searcher interface {
	Upsert(title, content string)
	Remove(title string)
	Search(query string, topK int) []Result
	Len() int
}

// Verify *Index satisfies Searcher at compile time.
var _ Searcher = (*Index)(nil)
