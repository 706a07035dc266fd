package index

import (
	"errors"

	"github.com/tidwall/gjson"

	"devtube-server/internal/domain"
)

// ErrMalformedDocument is returned when the index answers with something
// that is not a JSON object.
var ErrMalformedDocument = errors.New("malformed video document")

// ParseVideo builds a domain.Video from an index document. Unknown fields
// are kept in the raw document. A missing objectID falls back to id.
func ParseVideo(id string, body []byte) (*domain.Video, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedDocument
	}

	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, ErrMalformedDocument
	}

	objectID := doc.Get("objectID").String()
	if objectID == "" {
		objectID = id
	}

	return domain.NewVideo(
		objectID,
		doc.Get("title").String(),
		doc.Get("description").String(),
		body,
	), nil
}
