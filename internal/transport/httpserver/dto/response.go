package dto

import (
	"devtube-server/internal/app/service"
	"devtube-server/internal/domain"
)

// SearchResponse is the body answering a SearchRequest.
type SearchResponse struct {
	Results []PageResponse `json:"results"`
}

// PageResponse represents one page of hits.
type PageResponse struct {
	Hits        []domain.Hit `json:"hits"`
	Page        int          `json:"page"`
	NbHits      int          `json:"nbHits"`
	NbPages     int          `json:"nbPages"`
	HitsPerPage int          `json:"hitsPerPage"`
}

// FromPageResult converts domain.PageResult to PageResponse.
func FromPageResult(r domain.PageResult) PageResponse {
	hits := r.Hits
	if hits == nil {
		hits = []domain.Hit{}
	}

	return PageResponse{
		Hits:        hits,
		Page:        r.Page,
		NbHits:      r.NbHits,
		NbPages:     r.NbPages,
		HitsPerPage: r.HitsPerPage,
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// ServerSideError is embedded in a rendered page for client-side display.
type ServerSideError struct {
	Message string `json:"message"`
}

// MetaTag is one social preview tag of a rendered page.
type MetaTag struct {
	Name    string
	Content string
}

// RefreshResponse summarizes a manual dataset refresh.
type RefreshResponse struct {
	Results []RefreshResultResponse `json:"results"`
	Failed  int                     `json:"failed"`
}

// RefreshResultResponse is the outcome of reloading one dataset.
type RefreshResultResponse struct {
	Dataset  string `json:"dataset"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// FromRefreshResults converts refresh results to a RefreshResponse.
func FromRefreshResults(results []service.RefreshResult) RefreshResponse {
	resp := RefreshResponse{Results: make([]RefreshResultResponse, len(results))}
	for i, r := range results {
		resp.Results[i] = RefreshResultResponse{
			Dataset:  r.Dataset,
			Duration: r.Duration.String(),
		}
		if r.Error != nil {
			resp.Results[i].Error = r.Error.Error()
			resp.Failed++
		}
	}

	return resp
}
