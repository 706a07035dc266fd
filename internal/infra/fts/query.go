package fts

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Sort orders understood by Search. Anything else ranks by relevance.
const (
	SortNewest       = "newest"
	SortSatisfaction = "satisfaction"
	SortViews        = "views"
	SortDuration     = "duration"
)

// Refinement narrows a search to videos matching every given facet.
type Refinement struct {
	Tags    []string
	Speaker string
	Channel string
}

// ParseRefinement reads {"tags":[...],"speaker":"...","channel":"..."}.
// Anything that is not a JSON object means no refinement.
func ParseRefinement(raw json.RawMessage) Refinement {
	var r Refinement
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return r
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return r
	}

	doc.Get("tags").ForEach(func(_, tag gjson.Result) bool {
		if t := strings.TrimSpace(tag.String()); t != "" {
			r.Tags = append(r.Tags, t)
		}

		return true
	})
	r.Speaker = strings.TrimSpace(doc.Get("speaker").String())
	r.Channel = strings.TrimSpace(doc.Get("channel").String())

	return r
}

// sanitizeFTS5 strips FTS5 operators from user input.
func sanitizeFTS5(q string) string {
	var b strings.Builder
	for _, r := range q {
		switch r {
		case '"', '*', '(', ')', '+', '-', '^', ':', ',', '{', '}', '!', '~', '?', '.', '\'':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}

// matchExpression turns free text into an FTS5 expression where every word
// must match as a prefix. Returns "" when nothing searchable remains.
func matchExpression(q string) string {
	words := strings.Fields(sanitizeFTS5(q))
	if len(words) == 0 {
		return ""
	}

	terms := make([]string, len(words))
	for i, w := range words {
		terms[i] = `"` + w + `"*`
	}

	return strings.Join(terms, " ")
}

// buildSearch assembles the hit query and its arguments.
func buildSearch(query string, ref Refinement, sortOrder string) (string, []any) {
	var (
		from  = "videos v"
		where []string
		args  []any
	)

	match := matchExpression(query)
	if match != "" {
		from += " JOIN videos_fts ON videos_fts.rowid = v.rowid"
		where = append(where, "videos_fts MATCH ?")
		args = append(args, match)
	}

	for _, tag := range ref.Tags {
		where = append(where, "v.rowid IN (SELECT video_rowid FROM video_tags WHERE tag = ?)")
		args = append(args, tag)
	}
	if ref.Speaker != "" {
		where = append(where, "v.speaker = ?")
		args = append(args, ref.Speaker)
	}
	if ref.Channel != "" {
		where = append(where, "v.channel = ?")
		args = append(args, ref.Channel)
	}

	var b strings.Builder
	b.WriteString("SELECT v.doc FROM ")
	b.WriteString(from)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(orderBy(sortOrder, match != ""))

	return b.String(), args
}

func orderBy(sortOrder string, ranked bool) string {
	switch sortOrder {
	case SortNewest:
		return "v.recording_date DESC, v.rowid"
	case SortSatisfaction:
		return "v.satisfaction DESC, v.rowid"
	case SortViews:
		return "v.views DESC, v.rowid"
	case SortDuration:
		return "v.duration DESC, v.rowid"
	}
	if ranked {
		return "videos_fts.rank, v.rowid"
	}

	return "v.satisfaction DESC, v.rowid"
}
