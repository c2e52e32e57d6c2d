package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedDocument is returned when a document has no nodes array.
// This is the one unrecoverable deserialize failure.
var ErrMalformedDocument = errors.New("malformed document: missing nodes array")

// ParseDocument decodes a serialized document.
//
// A document without a "nodes" key is rejected with ErrMalformedDocument.
// A missing "links" key is accepted and treated as an empty link table.
func ParseDocument(data []byte) (*Document, error) {
	var head struct {
		Nodes json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if len(head.Nodes) == 0 || bytes.Equal(bytes.TrimSpace(head.Nodes), []byte("null")) {
		return nil, ErrMalformedDocument
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if doc.Links == nil {
		doc.Links = []LinkDoc{}
	}
	return &doc, nil
}

// MarshalDocument encodes a document as indented JSON for files and CLI output.
func MarshalDocument(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return buf.Bytes(), nil
}
