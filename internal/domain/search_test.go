package domain

import (
	"encoding/json"
	"fmt"
	"testing"
)

func makeHits(n int) []Hit {
	hits := make([]Hit, n)
	for i := range hits {
		hits[i] = Hit(fmt.Sprintf(`{"objectID":"v%d"}`, i))
	}
	return hits
}

func TestNewPageResult_Window(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		page        int
		wantLen     int
		wantFirst   string
		wantNbPages int
	}{
		{name: "first page", total: 50, page: 0, wantLen: 21, wantFirst: `{"objectID":"v0"}`, wantNbPages: 3},
		{name: "middle page", total: 50, page: 1, wantLen: 21, wantFirst: `{"objectID":"v21"}`, wantNbPages: 3},
		{name: "last partial page", total: 50, page: 2, wantLen: 8, wantFirst: `{"objectID":"v42"}`, wantNbPages: 3},
		{name: "past last page", total: 50, page: 3, wantLen: 0, wantNbPages: 3},
		{name: "far past last page", total: 50, page: 1 << 40, wantLen: 0, wantNbPages: 3},
		{name: "negative page", total: 50, page: -1, wantLen: 0, wantNbPages: 3},
		{name: "exact multiple", total: 42, page: 1, wantLen: 21, wantFirst: `{"objectID":"v21"}`, wantNbPages: 2},
		{name: "exact multiple past end", total: 42, page: 2, wantLen: 0, wantNbPages: 2},
		{name: "no hits", total: 0, page: 0, wantLen: 0, wantNbPages: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPageResult(makeHits(tt.total), tt.page, DefaultHitsPerPage)

			if len(got.Hits) != tt.wantLen {
				t.Fatalf("len(Hits) = %d, want %d", len(got.Hits), tt.wantLen)
			}
			if tt.wantLen > 0 && string(got.Hits[0]) != tt.wantFirst {
				t.Errorf("first hit = %s, want %s", got.Hits[0], tt.wantFirst)
			}
			if got.NbHits != tt.total {
				t.Errorf("NbHits = %d, want %d", got.NbHits, tt.total)
			}
			if got.NbPages != tt.wantNbPages {
				t.Errorf("NbPages = %d, want %d", got.NbPages, tt.wantNbPages)
			}
			if got.Page != tt.page {
				t.Errorf("Page = %d, want %d", got.Page, tt.page)
			}
			if got.HitsPerPage != DefaultHitsPerPage {
				t.Errorf("HitsPerPage = %d, want %d", got.HitsPerPage, DefaultHitsPerPage)
			}
		})
	}
}

func TestNewPageResult_Invariants(t *testing.T) {
	for total := 0; total <= 70; total++ {
		all := makeHits(total)
		first := NewPageResult(all, 0, DefaultHitsPerPage)

		for page := -2; page <= 5; page++ {
			got := NewPageResult(all, page, DefaultHitsPerPage)

			if len(got.Hits) > DefaultHitsPerPage {
				t.Fatalf("total=%d page=%d: %d hits exceed page size", total, page, len(got.Hits))
			}
			wantPages := (total + DefaultHitsPerPage - 1) / DefaultHitsPerPage
			if got.NbPages != wantPages {
				t.Fatalf("total=%d page=%d: NbPages = %d, want %d", total, page, got.NbPages, wantPages)
			}
			if got.NbHits != first.NbHits || got.NbPages != first.NbPages {
				t.Fatalf("total=%d page=%d: totals differ from page 0", total, page)
			}
			// Hits keep the engine order and start at page*pageSize.
			for i, h := range got.Hits {
				want := fmt.Sprintf(`{"objectID":"v%d"}`, page*DefaultHitsPerPage+i)
				if string(h) != want {
					t.Fatalf("total=%d page=%d: hit %d = %s, want %s", total, page, i, h, want)
				}
			}
		}
	}
}

func TestNewPageResult_EmptyHitsEncodeAsArray(t *testing.T) {
	got := NewPageResult(nil, 4, DefaultHitsPerPage)

	data, err := json.Marshal(got.Hits)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("hits encoded as %s, want []", data)
	}
}
