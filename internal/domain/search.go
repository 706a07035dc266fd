package domain

import "encoding/json"

// DefaultHitsPerPage is the fixed page size of the search proxy.
const DefaultHitsPerPage = 21

// Hit is a single ranked search result. Its content is opaque to the page server.
type Hit = json.RawMessage

// PageRequest holds one search query as sent by the browser search client.
type PageRequest struct {
	Query      string
	Page       int             // 0-indexed, not bounded
	Refinement json.RawMessage // passed through to the engine
	SortOrder  string          // passed through to the engine
}

// PageResult holds one page of search results.
type PageResult struct {
	Hits        []Hit
	Page        int
	NbHits      int
	NbPages     int
	HitsPerPage int
}

// NewPageResult slices one page out of the full ranked hit list.
// Pages outside the hit list yield an empty slice.
func NewPageResult(all []Hit, page, hitsPerPage int) PageResult {
	total := len(all)

	nbPages := total / hitsPerPage
	if total%hitsPerPage > 0 {
		nbPages++
	}

	hits := []Hit{}
	if page >= 0 && page <= total/hitsPerPage {
		from := page * hitsPerPage
		to := from + hitsPerPage
		if to > total {
			to = total
		}
		if from < to {
			hits = all[from:to]
		}
	}

	return PageResult{
		Hits:        hits,
		Page:        page,
		NbHits:      total,
		NbPages:     nbPages,
		HitsPerPage: hitsPerPage,
	}
}

// Facet is one entry of an aggregate listing (tag, channel or speaker).
type Facet struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Featured holds the aggregates shown on the home page.
type Featured struct {
	Tags     []Facet `json:"tags"`
	Channels []Facet `json:"channels"`
	Speakers []Facet `json:"speakers"`
}
