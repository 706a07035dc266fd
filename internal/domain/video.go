// Package domain contains the core entities and ports of the page server.
// This package has no external dependencies (only stdlib).
package domain

import (
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound is returned when the remote index reports that a video does not exist.
	ErrNotFound = errors.New("video not found")

	// ErrUpstream is returned for every other remote index failure
	// (network, rate limit, malformed response, open circuit).
	ErrUpstream = errors.New("upstream index unavailable")
)

// Video is a video document fetched from the remote index.
// Only the fields the page server needs are lifted out; the full document
// is kept as-is and passed through untouched.
type Video struct {
	ID          string
	Title       string
	Description string

	raw json.RawMessage
}

// NewVideo creates a Video backed by the given raw JSON document.
func NewVideo(id, title, description string, raw []byte) *Video {
	return &Video{
		ID:          id,
		Title:       title,
		Description: description,
		raw:         append(json.RawMessage(nil), raw...),
	}
}

// Raw returns the original JSON document.
func (v *Video) Raw() json.RawMessage {
	return v.raw
}

// MarshalJSON emits the original document, including fields unknown to this service.
func (v *Video) MarshalJSON() ([]byte, error) {
	if len(v.raw) > 0 {
		return v.raw, nil
	}

	return json.Marshal(struct {
		ObjectID    string `json:"objectID"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}{v.ID, v.Title, v.Description})
}
