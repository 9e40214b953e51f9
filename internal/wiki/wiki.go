package wiki

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/search"
)

// NotifyFunc is called after each successful mutation with the event kind
// ("created", "updated", "deleted") and the page title. Callbacks run
// outside the store lock.
type NotifyFunc func(kind, title string)

// Store is the authoritative page map plus its search index. It is designed
// for a single logical writer (the reasoning loop) with concurrent readers
// (the viewer): a reader-writer lock guards the page map and index so every
// mutation, including the index update, is atomic, and snapshots always see
// a consistent instant.
type Store struct {
	mu        sync.RWMutex
	pages     map[string]*page
	index     search.Searcher
	iteration int
	notify    NotifyFunc
}

// Option configures a Store.
type Option func(*Store)

// WithNotify registers a mutation callback, used to feed the SSE broker.
func WithNotify(fn NotifyFunc) Option {
	return func(s *Store) {
		s.notify = fn
	}
}

// New creates an empty wiki store.
func New(opts ...Option) *Store {
	s := &Store{
		pages: make(map[string]*page),
		index: search.NewIndex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetIteration advances the external step counter consumed by
// created_at/updated_at. The counter is owned by the reasoning loop; the
// store only clamps it monotone non-decreasing and never advances it itself.
func (s *Store) SetIteration(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > s.iteration {
		s.iteration = n
	}
}

// Iteration returns the current step counter value.
func (s *Store) Iteration() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.iteration
}

// Create adds a new page. The title must not already exist.
func (s *Store) Create(title, content string, tags []string) (Page, error) {
	s.mu.Lock()
	if _, ok := s.pages[title]; ok {
		s.mu.Unlock()
		return Page{}, fmt.Errorf("page %q: %w", title, apperr.ErrDuplicateTitle)
	}
	pg := &page{
		title:     title,
		content:   content,
		tags:      toSet(tags),
		links:     make(map[string]struct{}),
		createdAt: s.iteration,
		updatedAt: s.iteration,
	}
	s.pages[title] = pg
	s.index.Upsert(title, content)
	out := pg.view()
	s.mu.Unlock()

	s.emit("created", title)
	return out, nil
}

// UpdateOptions selects what Update changes. Content replaces the body,
// Append concatenates to it; supplying both is a caller error. A non-nil
// Tags slice fully replaces the tag set (an empty slice clears it).
type UpdateOptions struct {
	Content *string
	Append  *string
	Tags    []string
}

// Update modifies an existing page. updated_at is bumped on every
// successful call, even when only tags changed; the page is re-indexed only
// when its content changed.
func (s *Store) Update(title string, opts UpdateOptions) (Page, error) {
	if opts.Content != nil && opts.Append != nil {
		return Page{}, fmt.Errorf("update %q: content and append are mutually exclusive: %w", title, apperr.ErrInvalidArgument)
	}

	s.mu.Lock()
	pg, ok := s.pages[title]
	if !ok {
		s.mu.Unlock()
		return Page{}, fmt.Errorf("page %q: %w", title, apperr.ErrNotFound)
	}
	contentChanged := false
	switch {
	case opts.Content != nil:
		pg.content = *opts.Content
		contentChanged = true
	case opts.Append != nil:
		pg.content += *opts.Append
		contentChanged = true
	}
	if opts.Tags != nil {
		pg.tags = toSet(opts.Tags)
	}
	pg.updatedAt = s.iteration
	if contentChanged {
		s.index.Upsert(title, pg.content)
	}
	out := pg.view()
	s.mu.Unlock()

	s.emit("updated", title)
	return out, nil
}

// Get returns the current state of a page.
func (s *Store) Get(title string) (Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pg, ok := s.pages[title]
	if !ok {
		return Page{}, fmt.Errorf("page %q: %w", title, apperr.ErrNotFound)
	}
	return pg.view(), nil
}

// Delete removes a page, strips it from every other page's link set, and
// drops its index state. Deleting an absent page fails with NotFound.
func (s *Store) Delete(title string) error {
	s.mu.Lock()
	if _, ok := s.pages[title]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("page %q: %w", title, apperr.ErrNotFound)
	}
	for _, other := range s.pages {
		delete(other.links, title)
	}
	s.index.Remove(title)
	delete(s.pages, title)
	s.mu.Unlock()

	s.emit("deleted", title)
	return nil
}

// Link adds a directed reference between two existing pages. Re-linking an
// existing edge is a no-op.
func (s *Store) Link(fromTitle, toTitle string) error {
	s.mu.Lock()
	from, ok := s.pages[fromTitle]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("page %q: %w", fromTitle, apperr.ErrNotFound)
	}
	if _, ok := s.pages[toTitle]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("page %q: %w", toTitle, apperr.ErrNotFound)
	}
	from.links[toTitle] = struct{}{}
	s.mu.Unlock()

	s.emit("updated", fromTitle)
	return nil
}

// Backlinks returns the sorted titles of pages whose link set contains
// title. The target itself must exist.
func (s *Store) Backlinks(title string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.pages[title]; !ok {
		return nil, fmt.Errorf("page %q: %w", title, apperr.ErrNotFound)
	}
	out := []string{}
	for t, pg := range s.pages {
		if _, ok := pg.links[title]; ok {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Titles returns all page titles, sorted.
func (s *Store) Titles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.pages))
	for t := range s.pages {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// PageCount returns the number of live pages.
func (s *Store) PageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// TOC renders a plain-text table of contents: one row per page with its
// sorted tags and last-updated iteration.
func (s *Store) TOC() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.pages) == 0 {
		return "(wiki is empty)"
	}
	titles := make([]string, 0, len(s.pages))
	for t := range s.pages {
		titles = append(titles, t)
	}
	sort.Strings(titles)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Wiki: %d pages", len(s.pages))
	for _, title := range titles {
		pg := s.pages[title]
		tags := "-"
		if len(pg.tags) > 0 {
			tags = strings.Join(sortedKeys(pg.tags), ", ")
		}
		fmt.Fprintf(&sb, "\n  %-40s [%s]  (iter %d)", title, tags, pg.updatedAt)
	}
	return sb.String()
}

// Search runs a BM25-ranked query over page content.
func (s *Store) Search(query string, topK int) []search.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Search(query, topK)
}

// SearchTags returns the sorted titles of pages carrying the given tag.
func (s *Store) SearchTags(tag string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []string{}
	for t, pg := range s.pages {
		if _, ok := pg.tags[tag]; ok {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// Export produces a serializable snapshot of the whole store. The snapshot
// is built under the read lock, so no page appears half-updated within it.
func (s *Store) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Pages:     make(map[string]Page, len(s.pages)),
		PageCount: len(s.pages),
	}
	for t, pg := range s.pages {
		snap.Pages[t] = pg.view()
	}
	return snap
}

func (s *Store) emit(kind, title string) {
	if s.notify != nil {
		s.notify(kind, title)
	}
}
