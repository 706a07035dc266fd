// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import (
	"encoding/json"
	"unicode/utf8"

	"devtube-server/internal/domain"
)

// SearchRequest is the body of POST /search as sent by the browser search
// client: a batch of queries answered in order.
type SearchRequest struct {
	Requests []QueryRequest `json:"requests" validate:"required,min=1,max=20,dive"`
}

// QueryRequest wraps the parameters of one query.
type QueryRequest struct {
	Params QueryParams `json:"params"`
}

// MaxQueryRunes bounds the query text handed to the search engine. Longer
// queries are cut, not rejected.
const MaxQueryRunes = 200

// QueryParams holds one search query. Refinement and SortOrder are passed
// to the search engine untouched; unknown sort orders rank by relevance.
type QueryParams struct {
	Query      string          `json:"query"`
	Page       int             `json:"page"`
	Refinement json.RawMessage `json:"refinement,omitempty"`
	SortOrder  string          `json:"sortOrder"`
}

// ToPageRequest converts QueryParams to domain.PageRequest.
func (p *QueryParams) ToPageRequest() domain.PageRequest {
	return domain.PageRequest{
		Query:      truncateRunes(p.Query, MaxQueryRunes),
		Page:       p.Page,
		Refinement: p.Refinement,
		SortOrder:  p.SortOrder,
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n])
}
