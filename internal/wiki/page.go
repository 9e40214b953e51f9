// Package wiki implements the core knowledge store: a page repository keyed
// by unique titles, the directed link graph between pages, and the BM25
// search index kept consistent with every mutation.
package wiki

import "sort"

// Page is the read-side view of a single wiki page. Tags and links are
// sorted copies, so a returned Page never aliases store internals. It is
// also the per-page record of an exported Snapshot.
type Page struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	Links     []string `json:"links"`
	CreatedAt int      `json:"created_at"`
	UpdatedAt int      `json:"updated_at"`
}

// Snapshot is a fully self-contained, read-consistent copy of store state
// for external consumers such as the web viewer.
type Snapshot struct {
	Pages     map[string]Page `json:"pages"`
	PageCount int             `json:"page_count"`
}

// page is the mutable in-store representation. Tags and links are sets;
// ordering is applied only when building a Page view.
type page struct {
	title     string
	content   string
	tags      map[string]struct{}
	links     map[string]struct{}
	createdAt int
	updatedAt int
}

func (p *page) view() Page {
	return Page{
		Title:     p.title,
		Content:   p.content,
		Tags:      sortedKeys(p.tags),
		Links:     sortedKeys(p.links),
		CreatedAt: p.createdAt,
		UpdatedAt: p.updatedAt,
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
