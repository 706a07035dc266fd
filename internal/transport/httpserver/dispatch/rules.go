// Package dispatch classifies request paths into page kinds.
//
// The rules are an ordered list evaluated first match wins; their order is
// the routing contract of the site.
package dispatch

import (
	"net/url"
	"strings"
)

// Kind is the handling strategy selected for a request.
type Kind int

const (
	Home Kind = iota
	Speaker
	Tag
	Search
	Video
	Static
)

var kindNames = [...]string{
	Home:    "home",
	Speaker: "speaker",
	Tag:     "tag",
	Search:  "search",
	Video:   "video",
	Static:  "static",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "unknown"
}

// Path prefixes of the page kinds.
const (
	SpeakerPrefix = "/@"
	TagPrefix     = "/tag/"
	SearchPrefix  = "/search"
	VideoPrefix   = "/video/"
)

// Request is the part of an HTTP request the rules look at.
type Request struct {
	Path   string
	Method string
}

// Rule pairs a kind with the predicate selecting it.
type Rule struct {
	Kind  Kind
	Match func(Request) bool
}

// Rules returns the ordered rule list. The search rule is only present when
// the embedded search is enabled; otherwise /search falls through to static
// files like any other path.
func Rules(searchEnabled bool) []Rule {
	rules := []Rule{
		{Kind: Home, Match: func(r Request) bool { return r.Path == "" || r.Path == "/" }},
		{Kind: Speaker, Match: hasPrefix(SpeakerPrefix)},
		{Kind: Tag, Match: hasPrefix(TagPrefix)},
	}
	if searchEnabled {
		rules = append(rules, Rule{Kind: Search, Match: hasPrefix(SearchPrefix)})
	}

	return append(rules,
		Rule{Kind: Video, Match: hasPrefix(VideoPrefix)},
		Rule{Kind: Static, Match: func(Request) bool { return true }},
	)
}

func hasPrefix(prefix string) func(Request) bool {
	return func(r Request) bool {
		return strings.HasPrefix(r.Path, prefix)
	}
}

// Classify returns the kind of the first matching rule, or Static.
func Classify(rules []Rule, r Request) Kind {
	for _, rule := range rules {
		if rule.Match(r) {
			return rule.Kind
		}
	}

	return Static
}

// SpeakerName returns the speaker handle of a /@name path, URL-unescaped.
func SpeakerName(path string) string {
	return unescape(strings.TrimPrefix(path, SpeakerPrefix))
}

// TagName returns the tag of a /tag/name path, URL-unescaped.
func TagName(path string) string {
	return unescape(strings.TrimPrefix(path, TagPrefix))
}

// VideoID returns the path segment following /video/.
// Any further segments are ignored.
func VideoID(path string) string {
	id := strings.TrimPrefix(path, VideoPrefix)
	if i := strings.IndexByte(id, '/'); i >= 0 {
		id = id[:i]
	}

	return unescape(id)
}

func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}

	return s
}
