// Package detect sniffs input to determine its format.
package detect

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Format represents a recognized input format.
type Format int

const (
	Unknown    Format = iota
	Dataset           // host model snapshot, YAML or JSON
	GoTestJSON        // go test -json NDJSON stream
)

func (f Format) String() string {
	switch f {
	case Dataset:
		return "dataset"
	case GoTestJSON:
		return "go-test-json"
	default:
		return "unknown"
	}
}

// Sniff examines input to determine its format. A go test stream is
// recognized from its first line; anything else must parse as a dataset
// document with a root project.
func Sniff(data []byte) Format {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return Unknown
	}
	if data[0] == '{' && isGoTestJSON(data) {
		return GoTestJSON
	}
	if isDataset(data) {
		return Dataset
	}
	return Unknown
}

func isDataset(data []byte) bool {
	var doc struct {
		RootProject string `yaml:"rootProject"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return false
	}
	return doc.RootProject != ""
}

// goTestActions are the Action values go test -json can open a stream
// with. Go 1.24 streams start with build events when a package fails to
// compile.
var goTestActions = map[string]bool{
	"start": true, "run": true, "pause": true, "cont": true,
	"pass": true, "bench": true, "fail": true, "output": true, "skip": true,
	"build-output": true, "build-fail": true,
}

func isGoTestJSON(data []byte) bool {
	firstLine, _, _ := bytes.Cut(data, []byte("\n"))

	var event struct {
		Action string `json:"Action"`
	}
	if err := json.Unmarshal(firstLine, &event); err != nil {
		return false
	}
	return goTestActions[event.Action]
}
