package render

import (
	"encoding/json"
)

// JSONVersion is the schema version written by the JSON renderer.
const JSONVersion = "1"

// JSON renders the document as structured JSON for automation.
type JSON struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSON {
	return &JSON{}
}

type jsonOutput struct {
	Version string `json:"version"`
	Document
}

// Render formats the document as indented JSON.
func (j *JSON) Render(doc Document) string {
	if doc.Nodes == nil {
		doc.Nodes = []Node{}
	}
	data, err := json.MarshalIndent(jsonOutput{Version: JSONVersion, Document: doc}, "", "  ")
	if err != nil {
		errJSON, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(errJSON)
	}
	return string(data) + "\n"
}
