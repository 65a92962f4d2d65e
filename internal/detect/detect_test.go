package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{"go test start", `{"Time":"2024-01-01T00:00:00Z","Action":"start","Package":"example.com/pkg"}` + "\n", GoTestJSON},
		{"go test output", `{"Action":"output","Package":"example.com/pkg","Output":"=== RUN TestFoo\n"}` + "\n", GoTestJSON},
		{"go test build failure", `{"ImportPath":"x [x.test]","Action":"build-output","Output":"# x\n"}` + "\n", GoTestJSON},
		{"yaml dataset", "# snapshot\nrootProject: _Root\nprojects: []\n", Dataset},
		{"json dataset", `{"rootProject": "_Root", "projects": []}`, Dataset},
		{"leading whitespace", "\n\n  rootProject: r\n", Dataset},
		{"json without root", `{"projects": []}`, Unknown},
		{"empty", "", Unknown},
		{"plain text", "this is not json", Unknown},
		{"invalid json", "{invalid", Unknown},
		{"unknown action", `{"Action":"explode","Package":"x"}`, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sniff([]byte(tt.input)), "got %s", Sniff([]byte(tt.input)))
		})
	}
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "go-test-json", GoTestJSON.String())
	assert.Equal(t, "dataset", Dataset.String())
	assert.Equal(t, "unknown", Format(42).String())
}
