package domain

import (
	"encoding/json"
	"testing"
)

func TestVideo_MarshalJSON_PassesDocumentThrough(t *testing.T) {
	raw := []byte(`{"objectID":"abc123","title":"Go at scale","description":"talk","speaker":{"name":"alice"},"duration":1800}`)
	v := NewVideo("abc123", "Go at scale", "talk", raw)

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != string(raw) {
		t.Errorf("MarshalJSON() = %s, want %s", data, raw)
	}
}

func TestVideo_MarshalJSON_WithoutDocument(t *testing.T) {
	v := &Video{ID: "abc123", Title: "Go at scale", Description: "talk"}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"objectID":"abc123","title":"Go at scale","description":"talk"}`
	if string(data) != want {
		t.Errorf("MarshalJSON() = %s, want %s", data, want)
	}
}

func TestNewVideo_CopiesDocument(t *testing.T) {
	raw := []byte(`{"objectID":"a"}`)
	v := NewVideo("a", "", "", raw)
	raw[2] = 'X'

	if string(v.Raw()) != `{"objectID":"a"}` {
		t.Errorf("Raw() changed with caller buffer: %s", v.Raw())
	}
}
