package search

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("The cat, sat-on the_mat! 42")
	want := []string{"the", "cat", "sat", "on", "the_mat", "42"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenize_Empty(t *testing.T) {
	if got := Tokenize("... !!! ---"); len(got) != 0 {
		t.Errorf("expected no tokens, got %v", got)
	}
}

func TestSearch_Basic(t *testing.T) {
	ix := NewIndex()
	ix.Upsert("p1", "the cat sat on the mat")
	ix.Upsert("p2", "the dog sat on the log")

	results := ix.Search("cat", 5)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Title != "p1" {
		t.Errorf("title = %q, want p1", results[0].Title)
	}
	if results[0].Score <= 0 {
		t.Errorf("score = %v, want > 0", results[0].Score)
	}
	if !strings.Contains(results[0].Snippet, "cat") {
		t.Errorf("snippet %q should contain the match", results[0].Snippet)
	}
}

func TestSearch_EmptyQueryAndCorpus(t *testing.T) {
	ix := NewIndex()
	if got := ix.Search("cat", 5); got != nil {
		t.Errorf("empty corpus should yield no results, got %v", got)
	}
	ix.Upsert("p1", "content")
	if got := ix.Search("!!! ...", 5); got != nil {
		t.Errorf("token-free query should yield no results, got %v", got)
	}
}

func TestSearch_RanksHigherTermFrequencyFirst(t *testing.T) {
	ix := NewIndex()
	ix.Upsert("sparse", "cat and many other words about nothing")
	ix.Upsert("dense", "cat cat cat and many other words too")

	results := ix.Search("cat", 5)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "dense" {
		t.Errorf("first = %q, want dense", results[0].Title)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("dense score %v should exceed sparse score %v", results[0].Score, results[1].Score)
	}
}

func TestSearch_TiesBrokenByTitle(t *testing.T) {
	ix := NewIndex()
	ix.Upsert("bbb", "alpha beta")
	ix.Upsert("aaa", "alpha beta")

	results := ix.Search("alpha", 5)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "aaa" || results[1].Title != "bbb" {
		t.Errorf("order = %q, %q; want aaa, bbb", results[0].Title, results[1].Title)
	}
}

func TestSearch_TopKLimitsResults(t *testing.T) {
	ix := NewIndex()
	ix.Upsert("a", "term one")
	ix.Upsert("b", "term two")
	ix.Upsert("c", "term three")

	if got := ix.Search("term", 2); len(got) != 2 {
		t.Errorf("topK=2 returned %d results", len(got))
	}
	if got := ix.Search("term", 0); len(got) != 3 {
		t.Errorf("topK<=0 should fall back to the default, got %d results", len(got))
	}
}

func TestSearch_MultiTermAccumulates(t *testing.T) {
	ix := NewIndex()
	ix.Upsert("both", "cat dog")
	ix.Upsert("one", "cat bird")

	results := ix.Search("cat dog", 5)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "both" {
		t.Errorf("document matching both terms should rank first, got %q", results[0].Title)
	}
}

func TestUpsert_ReindexesContent(t *testing.T) {
	ix := NewIndex()
	ix.Upsert("p", "old unique stale")
	ix.Upsert("p", "fresh words")

	if got := ix.Search("stale", 5); got != nil {
		t.Errorf("stale term should be gone after reindex, got %v", got)
	}
	if got := ix.Search("fresh", 5); len(got) != 1 {
		t.Errorf("fresh term should be found, got %v", got)
	}
	if _, ok := ix.postings["stale"]; ok {
		t.Error("empty posting list should be pruned")
	}
}

func TestRemove_CleansIndexState(t *testing.T) {
	ix := NewIndex()
	ix.Upsert("a", "one two three")
	ix.Upsert("b", "four five")
	ix.Remove("a")

	if ix.Len() != 1 {
		t.Fatalf("Len = %d, want 1", ix.Len())
	}
	if got := ix.Search("one", 5); got != nil {
		t.Errorf("removed document should not match, got %v", got)
	}
	if ix.avgdl != 2 {
		t.Errorf("avgdl = %v, want 2", ix.avgdl)
	}

	ix.Remove("b")
	if ix.avgdl != 0 {
		t.Errorf("avgdl of empty corpus = %v, want 0", ix.avgdl)
	}
	if len(ix.postings) != 0 {
		t.Errorf("postings should be empty, have %d terms", len(ix.postings))
	}
}

func TestIDF_NonNegative(t *testing.T) {
	// df == N is the worst case: every document contains the term.
	ix := NewIndex()
	ix.Upsert("a", "common")
	ix.Upsert("b", "common")

	results := ix.Search("common", 5)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Score < 0 || math.IsNaN(r.Score) {
			t.Errorf("score for %q = %v, want >= 0", r.Title, r.Score)
		}
	}
}

func TestBM25_MonotoneInTermFrequency(t *testing.T) {
	score := func(tf, dl, avgdl float64) float64 {
		return tf * (k1 + 1) / (tf + k1*(1-b+b*dl/avgdl))
	}
	prev := 0.0
	for tf := 1.0; tf <= 64; tf *= 2 {
		s := score(tf, 100, 100)
		if s <= prev {
			t.Fatalf("score at tf=%v (%v) not greater than at lower tf (%v)", tf, s, prev)
		}
		prev = s
	}
}

func TestMakeSnippet_WindowAndEllipses(t *testing.T) {
	content := strings.Repeat("x", 200) + " needle " + strings.Repeat("y", 200)
	snippet := makeSnippet(content, []string{"needle"})
	if !strings.Contains(snippet, "needle") {
		t.Fatalf("snippet %q should contain the match", snippet)
	}
	if !strings.HasPrefix(snippet, "...") || !strings.HasSuffix(snippet, "...") {
		t.Errorf("interior match should be ellipsized on both sides: %q", snippet)
	}
}

func TestMakeSnippet_MatchAtStart(t *testing.T) {
	snippet := makeSnippet("needle in a short doc", []string{"needle"})
	if snippet != "needle in a short doc" {
		t.Errorf("snippet = %q, want full content without ellipses", snippet)
	}
}

func TestMakeSnippet_NoMatchFallsBackToHead(t *testing.T) {
	long := strings.Repeat("word ", 50)
	snippet := makeSnippet(long, []string{"absent"})
	if !strings.HasSuffix(snippet, "...") {
		t.Errorf("long fallback should end with ellipsis: %q", snippet)
	}
	if len(snippet) != snippetLen+3 {
		t.Errorf("fallback length = %d, want %d", len(snippet), snippetLen+3)
	}

	if got := makeSnippet("short", []string{"absent"}); got != "short" {
		t.Errorf("short fallback = %q, want full content", got)
	}
}

func TestMakeSnippet_CollapsesNewlines(t *testing.T) {
	snippet := makeSnippet("line one\nline two needle\nline three", []string{"needle"})
	if strings.Contains(snippet, "\n") {
		t.Errorf("snippet should not contain newlines: %q", snippet)
	}
}

func TestMakeSnippet_CaseInsensitive(t *testing.T) {
	snippet := makeSnippet("The NEEDLE is uppercase", []string{"needle"})
	if !strings.Contains(snippet, "NEEDLE") {
		t.Errorf("snippet %q should contain the original-case match", snippet)
	}
}

func TestTokenize_Unicode(t *testing.T) {
	got := Tokenize("café Москва 東京 naïve")
	want := []string{"café", "москва", "東京", "naïve"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSearch_UnicodeTerms(t *testing.T) {
	ix := NewIndex()
	ix.Upsert("capitals", "Москва is the capital of Russia")
	ix.Upsert("other", "london is the capital of england")

	results := ix.Search("Москва", 0)
	if len(results) != 1 || results[0].Title != "capitals" {
		t.Fatalf("results = %+v, want the Cyrillic document", results)
	}
	if !strings.Contains(results[0].Snippet, "Москва") {
		t.Errorf("snippet = %q, should contain the match", results[0].Snippet)
	}

	// Document length must count non-ASCII tokens.
	if dl := ix.docLengths["capitals"]; dl != 6 {
		t.Errorf("doc length = %d, want 6", dl)
	}
}

func TestMakeSnippet_LowercaseLengthDrift(t *testing.T) {
	// U+0130 lowercases to a two-rune sequence, so offsets found in the
	// lowered string overshoot the original. The window must stay in bounds.
	content := strings.Repeat("İ", 60) + " zebra"
	snippet := makeSnippet(content, []string{"zebra"})
	if snippet == "" {
		t.Fatal("snippet should not be empty")
	}
	if len(snippet) > len(content)+6 {
		t.Errorf("snippet %q longer than source window", snippet)
	}
}
