package api

import "github.com/starford/ansuz/internal/search"

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []search.Result `json:"results" validate:"required"`
}

// TitlesResponse wraps a sorted list of page titles.
type TitlesResponse struct {
	Titles []string `json:"titles" validate:"required"`
}
